package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeValidation, "validation failed", http.StatusUnprocessableEntity)

	if err.Code != CodeValidation {
		t.Errorf("expected code %s, got %s", CodeValidation, err.Code)
	}
	if err.Message != "validation failed" {
		t.Errorf("expected message 'validation failed', got %s", err.Message)
	}
	if err.HTTPStatus != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, err.HTTPStatus)
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name: "without underlying error",
			appErr: &AppError{
				Code:    CodeNotFound,
				Message: "resource not found",
			},
			expected: "NOT_FOUND: resource not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeStoreFailure,
				Message: "store unavailable",
				Err:     errors.New("connection refused"),
			},
			expected: "STORE_FAILURE: store unavailable (caused by: connection refused)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.appErr.Error()
			if got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	appErr := StoreFailure("wrapped", originalErr)

	if unwrapped := errors.Unwrap(appErr); unwrapped != originalErr {
		t.Errorf("Unwrap() should return original error")
	}
	if !errors.Is(appErr, originalErr) {
		t.Errorf("errors.Is should see through the AppError")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"not found", NotFoundWithID("Booking", int64(7)), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad input", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad parameter"), CodeInvalidInput, http.StatusBadRequest},
		{"capacity exceeded", CapacityExceeded("2026-09-06"), CodeCapacityExceeded, http.StatusConflict},
		{"already decided", AlreadyDecided(7), CodeAlreadyDecided, http.StatusConflict},
		{"calendar exhausted", CalendarExhausted(3650), CodeCalendarExhausted, http.StatusServiceUnavailable},
		{"store failure", StoreFailure("down", errors.New("x")), CodeStoreFailure, http.StatusServiceUnavailable},
		{"conflict", Conflict("busy"), CodeConflict, http.StatusConflict},
		{"internal", Internal("boom", nil), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, tt.err.Code)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, tt.err.StatusCode())
			}
		})
	}
}

func TestCapacityExceededDetails(t *testing.T) {
	err := CapacityExceeded("2026-09-06")
	if err.Details["date"] != "2026-09-06" {
		t.Errorf("expected date detail, got %v", err.Details)
	}
}

func TestIsCode(t *testing.T) {
	err := AlreadyDecided(3)
	if !IsCode(err, CodeAlreadyDecided) {
		t.Error("IsCode should match the error's own code")
	}
	if IsCode(err, CodeNotFound) {
		t.Error("IsCode should not match a different code")
	}
	if IsCode(errors.New("plain"), CodeInternal) {
		t.Error("IsCode should not match a plain error")
	}
}

func TestAsAppError(t *testing.T) {
	appErr := Conflict("busy")
	if AsAppError(appErr) != appErr {
		t.Error("AsAppError should return the same AppError")
	}

	converted := AsAppError(errors.New("plain"))
	if converted.Code != CodeInternal {
		t.Errorf("plain errors should convert to INTERNAL_ERROR, got %s", converted.Code)
	}
}

func TestToJSON(t *testing.T) {
	err := Validation("bad date", map[string]any{"date": "garbage"})

	var resp ErrorResponse
	if jsonErr := json.Unmarshal(err.ToJSON(), &resp); jsonErr != nil {
		t.Fatalf("ToJSON produced invalid JSON: %v", jsonErr)
	}
	if resp.Code != CodeValidation || resp.Message != "bad date" {
		t.Errorf("unexpected payload: %+v", resp)
	}
	if resp.Details["date"] != "garbage" {
		t.Errorf("details lost: %+v", resp.Details)
	}
}
