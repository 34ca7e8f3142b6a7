package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	CodeNotFound          = "NOT_FOUND"
	CodeValidation        = "VALIDATION_ERROR"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeCapacityExceeded  = "CAPACITY_EXCEEDED"
	CodeAlreadyDecided    = "ALREADY_DECIDED"
	CodeCalendarExhausted = "CALENDAR_EXHAUSTED"
	CodeStoreFailure      = "STORE_FAILURE"
	CodeConflict          = "CONFLICT"
	CodeInternal          = "INTERNAL_ERROR"
)

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *AppError) ToJSON() []byte {
	data, _ := json.Marshal(ErrorResponse{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
	return data
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

func NotFoundWithID(resource string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

// Validation marks malformed user input. Recoverable: the caller re-prompts
// and the session is left unchanged.
func Validation(message string, details map[string]any) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    details,
	}
}

func InvalidInput(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// CapacityExceeded marks a full date. Recoverable: the requester picks
// another date, or the booking auto-rejects at approval time.
func CapacityExceeded(date string) *AppError {
	return &AppError{
		Code:       CodeCapacityExceeded,
		Message:    fmt.Sprintf("date %s is fully booked", date),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"date": date},
	}
}

// AlreadyDecided marks a lost decision race. Informational for the losing
// actor, not a failure.
func AlreadyDecided(bookingID int64) *AppError {
	return &AppError{
		Code:       CodeAlreadyDecided,
		Message:    fmt.Sprintf("booking #%d has already been decided", bookingID),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"booking_id": bookingID},
	}
}

// CalendarExhausted marks a policy misconfiguration or pathological capacity
// state. Fatal to the request; logged for operator attention.
func CalendarExhausted(scanned int) *AppError {
	return &AppError{
		Code:       CodeCalendarExhausted,
		Message:    "no eligible day with free capacity found",
		HTTPStatus: http.StatusServiceUnavailable,
		Details:    map[string]any{"days_scanned": scanned},
	}
}

// StoreFailure marks an unavailable persistence layer. Retryable; the
// attempted mutation did not happen.
func StoreFailure(message string, err error) *AppError {
	return &AppError{
		Code:       CodeStoreFailure,
		Message:    message,
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

func AsAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}

func IsCode(err error, code string) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Code == code
}
