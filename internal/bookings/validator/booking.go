package validator

import (
	"errors"
	"fmt"
	"slotgate/pkg/logger"
	"slotgate/pkg/model"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	if err := v.RegisterValidation("bookingday", validateBookingDay); err != nil {
		log.Fatal("Failed to register 'bookingday' validator",
			"error", err,
		)
	}

	log.Info("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

// validateBookingDay accepts only canonical YYYY-MM-DD day strings.
func validateBookingDay(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	parsed, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	if err != nil {
		return false
	}
	return parsed.Format("2006-01-02") == value
}

func (v *BookingValidator) Validate(booking *model.Booking) error {
	if err := v.validate.Struct(booking); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if booking.Status != model.StatusPending && booking.DecidedBy == "" {
		return ValidationErrors{
			ValidationError{
				Field:   "DecidedBy",
				Message: "decided bookings must record the deciding approver",
			},
		}
	}

	if booking.RejectReason != "" && booking.Status != model.StatusRejected {
		return ValidationErrors{
			ValidationError{
				Field:   "RejectReason",
				Message: "only rejected bookings may carry a reject reason",
			},
		}
	}

	return nil
}

// ValidateFile checks one intake attachment before it is added to a session.
func (v *BookingValidator) ValidateFile(file *model.BookingFile) error {
	if err := v.validate.Struct(file); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "bookingday":
			message = fmt.Sprintf("%s must be a calendar day in YYYY-MM-DD form", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
