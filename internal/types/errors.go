package types

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

const (
	// Validation (400)
	ErrCodeValidationMissingField ErrorCode = "validation_missing_required_field"
	ErrCodeValidationTimeOfDay    ErrorCode = "validation_time_of_day_invalid"
	ErrCodeValidationDayMask      ErrorCode = "validation_day_mask_invalid"
	ErrCodeValidationCategory     ErrorCode = "validation_category_invalid"
	ErrCodeValidationCondition    ErrorCode = "validation_condition_invalid"

	// Not found (404)
	ErrCodeNotFoundAlarm ErrorCode = "not_found_alarm"

	// Provider / upstream (502)
	ErrCodeProviderTransient ErrorCode = "provider_transient"
	ErrCodeProviderNoData    ErrorCode = "provider_no_data"

	// Internal (500)
	ErrCodePersistence ErrorCode = "internal_persistence_error"
	ErrCodeInternal    ErrorCode = "internal_unexpected_error"
)

// HTTPStatus maps an ErrorCode to its HTTP status for the API surface.
// Unrecognized codes map to 500 as a safe default.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return http.StatusBadRequest
	case strings.HasPrefix(s, "not_found_"):
		return http.StatusNotFound
	case strings.HasPrefix(s, "provider_"):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the application error type carrying a stable code alongside a
// human-readable message and an optional wrapped cause.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// NewAppError constructs an AppError wrapping an optional cause.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause for errors.Is/errors.As.
func (e *AppError) Unwrap() error { return e.Err }

// TransientProviderError marks a network-level provider failure: the cycle
// proceeds with partial data and nothing is mutated.
func TransientProviderError(op string, err error) *AppError {
	return NewAppError(ErrCodeProviderTransient, op, err)
}

// NoDataError marks "the provider has nothing for this location". Rules and
// alarms fail closed on it.
func NoDataError(op string) *AppError {
	return NewAppError(ErrCodeProviderNoData, op, nil)
}

// PersistenceError marks a store read/write failure. It propagates to the
// caller as a hard failure rather than being silently dropped.
func PersistenceError(op string, err error) *AppError {
	return NewAppError(ErrCodePersistence, op, err)
}

// IsTransient reports whether err carries the transient-provider code.
func IsTransient(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeProviderTransient
}

// IsNoData reports whether err carries the no-data code.
func IsNoData(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeProviderNoData
}

// IsNotFound reports whether err carries the alarm-not-found code.
func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNotFoundAlarm
}
