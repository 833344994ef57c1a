package errors

import (
	"fmt"
	"net/http"
	"unicode/utf8"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// MaxReasonLength bounds failure reasons shown to the user and written to logs.
const MaxReasonLength = 100

// Error represents a source error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// FromStatus maps an HTTP status code onto a typed error.
func FromStatus(code int, message string) *Error {
	t := ErrorTypeUnknown
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		t = ErrorTypeAuth
	case code == http.StatusNotFound:
		t = ErrorTypeNotFound
	case code == http.StatusTooManyRequests:
		t = ErrorTypeRateLimit
	case code >= 500:
		t = ErrorTypeServerError
	}
	return &Error{Type: t, Message: message, Code: code}
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case http.StatusTooManyRequests:
		return true
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return false
	default:
		return statusCode >= 500
	}
}

// Truncate shortens msg to at most n runes, marking the cut with "...".
func Truncate(msg string, n int) string {
	if n <= 0 || utf8.RuneCountInString(msg) <= n {
		return msg
	}
	if n <= 3 {
		return string([]rune(msg)[:n])
	}
	return string([]rune(msg)[:n-3]) + "..."
}

// Reason renders err as a bounded, user-facing reason.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	return Truncate(err.Error(), MaxReasonLength)
}
