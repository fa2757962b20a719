package errors

import (
	"fmt"
	"net/http"
	"time"
)

// AppError is the custom error type for the application
type AppError struct {
	Raw       error
	HTTPCode  int
	Code      ErrorCode
	Message   string
	Details   map[string]string
	Timestamp time.Time
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/As chains
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// General Errors

func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal server error",
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  message,
	}
}

func ErrNotFound(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  fmt.Sprintf("%s not found", resource),
	}
}

func ErrPermissionDenied(action string) AppError {
	return AppError{
		HTTPCode: http.StatusForbidden,
		Code:     ErrorCode_PERMISSION_DENIED,
		Message:  fmt.Sprintf("Permission denied: %s", action),
	}
}

func ErrUnauthenticated() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_UNAUTHENTICATED,
		Message:  "Authentication required",
	}
}

func ErrForbidden(message string) AppError {
	return AppError{
		HTTPCode: http.StatusForbidden,
		Code:     ErrorCode_FORBIDDEN,
		Message:  message,
	}
}

// Authentication Errors

func ErrInvalidToken() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_AUTH_INVALID_TOKEN,
		Message:  "Invalid authentication token",
	}
}

func ErrTokenExpired() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_AUTH_TOKEN_EXPIRED,
		Message:  "Authentication token has expired",
	}
}

func ErrInvalidCredentials() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_AUTH_INVALID_CREDENTIALS,
		Message:  "Invalid email or password",
	}
}

func ErrUserNotFound() AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_AUTH_USER_NOT_FOUND,
		Message:  "User not found",
	}
}

func ErrUserAlreadyExists(email string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_AUTH_USER_ALREADY_EXISTS,
		Message:  "An account with this email already exists",
	}.WithDetail("email", email)
}

func ErrInvalidRefreshToken() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_AUTH_INVALID_REFRESH_TOKEN,
		Message:  "Invalid refresh token",
	}
}

func ErrAccountDeactivated() AppError {
	return AppError{
		HTTPCode: http.StatusForbidden,
		Code:     ErrorCode_AUTH_ACCOUNT_DEACTIVATED,
		Message:  "Account is deactivated",
	}
}

// Analysis Workflow Errors

// ErrValidationFailed covers malformed analysis input. No side effects have
// occurred when this is returned.
func ErrValidationFailed(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_VALIDATION_FAILED,
		Message:  message,
	}
}

// ErrInsufficientCredits signals the account balance cannot cover the
// estimated cost. Balance is unchanged.
func ErrInsufficientCredits(required, balance int) AppError {
	return AppError{
		HTTPCode: http.StatusPaymentRequired,
		Code:     ErrorCode_INSUFFICIENT_CREDITS,
		Message:  fmt.Sprintf("Insufficient credits. Need %d, have %d.", required, balance),
	}.WithDetail("required", fmt.Sprintf("%d", required)).
		WithDetail("balance", fmt.Sprintf("%d", balance))
}

// ErrGatewayFailed covers AI provider call or response parse failures.
// Debited credits have been refunded by the time this surfaces.
func ErrGatewayFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusServiceUnavailable,
		Code:     ErrorCode_GATEWAY_FAILED,
		Message:  "AI analysis failed. Credits refunded.",
	}
}

func ErrPersistenceFailed(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_PERSISTENCE_FAILED,
		Message:  "Storage operation failed",
	}.WithDetail("operation", operation)
}

func ErrAnalysisNotCompleted(meetingID string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_ANALYSIS_NOT_COMPLETED,
		Message:  "Meeting analysis is not completed",
	}.WithDetail("meeting_id", meetingID)
}

func ErrTranscriptionFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusServiceUnavailable,
		Code:     ErrorCode_TRANSCRIPTION_FAILED,
		Message:  "Audio transcription failed. Credits refunded.",
	}
}

// Integration Errors

func ErrStorageFailed(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTEGRATION_STORAGE_FAILED,
		Message:  fmt.Sprintf("Storage operation failed: %s", operation),
	}
}

func ErrCacheFailed(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTEGRATION_CACHE_FAILED,
		Message:  fmt.Sprintf("Cache operation failed: %s", operation),
	}
}
