package errors

// ErrorCode identifies an application error category.
type ErrorCode int

const (
	ErrorCode_UNKNOWN ErrorCode = iota
	ErrorCode_HTTP_OK

	// General
	ErrorCode_INTERNAL
	ErrorCode_INVALID_ARGUMENT
	ErrorCode_NOT_FOUND
	ErrorCode_ALREADY_EXISTS
	ErrorCode_PERMISSION_DENIED
	ErrorCode_UNAUTHENTICATED
	ErrorCode_FORBIDDEN

	// Authentication
	ErrorCode_AUTH_INVALID_TOKEN
	ErrorCode_AUTH_TOKEN_EXPIRED
	ErrorCode_AUTH_INVALID_CREDENTIALS
	ErrorCode_AUTH_USER_NOT_FOUND
	ErrorCode_AUTH_USER_ALREADY_EXISTS
	ErrorCode_AUTH_INVALID_REFRESH_TOKEN
	ErrorCode_AUTH_ACCOUNT_DEACTIVATED

	// Analysis workflow
	ErrorCode_VALIDATION_FAILED
	ErrorCode_INSUFFICIENT_CREDITS
	ErrorCode_GATEWAY_FAILED
	ErrorCode_PERSISTENCE_FAILED
	ErrorCode_ANALYSIS_NOT_COMPLETED
	ErrorCode_TRANSCRIPTION_FAILED

	// Integrations
	ErrorCode_INTEGRATION_STORAGE_FAILED
	ErrorCode_INTEGRATION_CACHE_FAILED
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_UNKNOWN:                    "UNKNOWN",
	ErrorCode_HTTP_OK:                    "OK",
	ErrorCode_INTERNAL:                   "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:           "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                  "NOT_FOUND",
	ErrorCode_ALREADY_EXISTS:             "ALREADY_EXISTS",
	ErrorCode_PERMISSION_DENIED:          "PERMISSION_DENIED",
	ErrorCode_UNAUTHENTICATED:            "UNAUTHENTICATED",
	ErrorCode_FORBIDDEN:                  "FORBIDDEN",
	ErrorCode_AUTH_INVALID_TOKEN:         "AUTH_INVALID_TOKEN",
	ErrorCode_AUTH_TOKEN_EXPIRED:         "AUTH_TOKEN_EXPIRED",
	ErrorCode_AUTH_INVALID_CREDENTIALS:   "AUTH_INVALID_CREDENTIALS",
	ErrorCode_AUTH_USER_NOT_FOUND:        "AUTH_USER_NOT_FOUND",
	ErrorCode_AUTH_USER_ALREADY_EXISTS:   "AUTH_USER_ALREADY_EXISTS",
	ErrorCode_AUTH_INVALID_REFRESH_TOKEN: "AUTH_INVALID_REFRESH_TOKEN",
	ErrorCode_AUTH_ACCOUNT_DEACTIVATED:   "AUTH_ACCOUNT_DEACTIVATED",
	ErrorCode_VALIDATION_FAILED:          "VALIDATION_FAILED",
	ErrorCode_INSUFFICIENT_CREDITS:       "INSUFFICIENT_CREDITS",
	ErrorCode_GATEWAY_FAILED:             "GATEWAY_FAILED",
	ErrorCode_PERSISTENCE_FAILED:         "PERSISTENCE_FAILED",
	ErrorCode_ANALYSIS_NOT_COMPLETED:     "ANALYSIS_NOT_COMPLETED",
	ErrorCode_TRANSCRIPTION_FAILED:       "TRANSCRIPTION_FAILED",
	ErrorCode_INTEGRATION_STORAGE_FAILED: "INTEGRATION_STORAGE_FAILED",
	ErrorCode_INTEGRATION_CACHE_FAILED:   "INTEGRATION_CACHE_FAILED",
}

// String returns the symbolic name of the error code.
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
