package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the category of an exchange error.
type ErrorType int

// Error type constants categorize errors for proper handling.
const (
	// ErrorTypeUnknown indicates an unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeTransport indicates a connection-level failure (DNS, TLS, reset).
	ErrorTypeTransport
	// ErrorTypeRateLimit indicates the local rate limit window was exceeded.
	ErrorTypeRateLimit
	// ErrorTypeAuthentication indicates invalid or missing credentials.
	ErrorTypeAuthentication
	// ErrorTypeInvalidParameter indicates a caller-supplied argument failed
	// local validation before any network call.
	ErrorTypeInvalidParameter
	// ErrorTypeAPI indicates the exchange returned an error response,
	// either as a non-2xx status or an error field in the body.
	ErrorTypeAPI
)

// String returns the string representation of the error type.
func (t ErrorType) String() string {
	return [...]string{
		"UNKNOWN",
		"TRANSPORT",
		"RATE_LIMIT",
		"AUTHENTICATION",
		"INVALID_PARAMETER",
		"API",
	}[t]
}

// Sentinel errors for common error conditions.
var (
	// ErrMissingCredentials is returned when a private call is attempted
	// without a key/secret pair configured.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrSessionClosed is returned when attempting to use a closed session.
	ErrSessionClosed = errors.New("session is closed")
	// ErrNotConnected is returned when a websocket stream is not connected.
	ErrNotConnected = errors.New("websocket not connected")
	// ErrCircuitOpen is returned when the circuit breaker rejects a call.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// ExchangeError represents a structured error raised while talking to an
// exchange. The Message mirrors the exchange's own error text when available.
type ExchangeError struct {
	// Type categorizes the error for programmatic handling.
	Type ErrorType `json:"type"`
	// StatusCode is the HTTP status code, zero for pre-network failures.
	StatusCode int `json:"status_code"`
	// Message is the human-readable error description.
	Message string `json:"message"`
	// Exchange identifies which exchange the error relates to.
	Exchange string `json:"exchange"`
	// Timestamp is when the error occurred.
	Timestamp time.Time `json:"timestamp"`
}

// Error implements the error interface for ExchangeError.
func (e *ExchangeError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("[%s] %s (%d): %s", e.Exchange, e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Exchange, e.Type, e.Message)
}

// NewExchangeError creates a new ExchangeError with the specified details.
// The timestamp is automatically set to the current time.
func NewExchangeError(exchange string, errorType ErrorType, statusCode int, message string) *ExchangeError {
	return &ExchangeError{
		Type:       errorType,
		StatusCode: statusCode,
		Message:    message,
		Exchange:   exchange,
		Timestamp:  time.Now(),
	}
}

// NewRateLimitError builds the rejection returned when the sliding window for
// a rate class is full. The message names the exchange and configured limit.
func NewRateLimitError(exchange string, class RateClass, limit int) *ExchangeError {
	return NewExchangeError(exchange, ErrorTypeRateLimit, 0,
		fmt.Sprintf("%s %s rate limit of %d requests per second exceeded", exchange, class, limit))
}

// NewInvalidParameterError builds the rejection for arguments that fail local
// validation. These never reach the network.
func NewInvalidParameterError(exchange, message string) *ExchangeError {
	return NewExchangeError(exchange, ErrorTypeInvalidParameter, 0, message)
}

// IsRateLimitError returns true if the error is a local rate limit rejection.
func IsRateLimitError(err error) bool {
	var e *ExchangeError
	if errors.As(err, &e) {
		return e.Type == ErrorTypeRateLimit
	}
	return false
}

// IsAuthenticationError returns true if the error is an authentication
// failure, including the missing-credentials precondition.
func IsAuthenticationError(err error) bool {
	if errors.Is(err, ErrMissingCredentials) {
		return true
	}
	var e *ExchangeError
	if errors.As(err, &e) {
		return e.Type == ErrorTypeAuthentication
	}
	return false
}

// IsTransportError returns true if the error is a connection-level failure.
func IsTransportError(err error) bool {
	var e *ExchangeError
	if errors.As(err, &e) {
		return e.Type == ErrorTypeTransport
	}
	return false
}

// IsAPIError returns true if the exchange itself rejected the request.
func IsAPIError(err error) bool {
	var e *ExchangeError
	if errors.As(err, &e) {
		return e.Type == ErrorTypeAPI
	}
	return false
}

// IsInvalidParameterError returns true if the error is a local validation
// failure raised before any network call.
func IsInvalidParameterError(err error) bool {
	var e *ExchangeError
	if errors.As(err, &e) {
		return e.Type == ErrorTypeInvalidParameter
	}
	return false
}
