package core

// Protocol defines the interface for exchange-specific protocol
// implementations. Each exchange handles request building, signing, and
// response normalization; the session owns rate limiting, nonce generation,
// and dispatch.
type Protocol interface {
	// Name returns the exchange identifier (e.g., "poloniex").
	Name() string

	// Version returns the API version being used.
	Version() string

	// BaseURL returns the API base URL. Sandbox mode returns the test
	// environment URL when the exchange offers one.
	BaseURL(sandbox bool) string

	// RateLimits returns the default per-second budgets for this exchange.
	RateLimits() RateLimits

	// BuildRequest constructs the request envelope for an operation.
	// Parameter validation that can be done locally happens here, before
	// any rate limit check or network call.
	BuildRequest(op Operation, params Params) (*Request, error)

	// SignRequest serializes the command with the given nonce, computes the
	// signature, and sets the body and authentication headers in place.
	// It is a pure function of (command, credentials, nonce): identical
	// inputs always produce an identical body and signature.
	SignRequest(req *Request, creds Credentials, nonce int64) error

	// ParseResponse converts a raw HTTP response into the canonical type
	// for the operation. This is the single place where success of a call
	// is decided: a body that fails to parse as JSON or carries an error
	// field is a failure regardless of status code.
	ParseResponse(op Operation, statusCode int, body []byte) (any, error)

	// SupportedOperations returns the operations this protocol implements.
	SupportedOperations() []Operation
}
