package core

import "maps"

// Params is a free-form parameter map passed to typed operations.
type Params map[string]any

// Request is the fully prepared outbound request envelope. It is constructed
// fresh per call and never reused.
type Request struct {
	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Query   map[string]string `json:"query,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`

	// Command holds the field/value pairs of an authenticated trading
	// command. It is serialized into the signed body together with the
	// nonce; values must already be formatted as decimal strings.
	Command map[string]string `json:"command,omitempty"`

	// Body is the exact serialized payload sent on the wire. For signed
	// requests this is the byte sequence the signature covers.
	Body string `json:"body,omitempty"`

	// RequireAuth marks the request as a private trading call.
	RequireAuth bool `json:"require_auth"`

	// Class selects which rate limit window this request draws from.
	Class RateClass `json:"class"`
}

// NewRequest creates a request envelope for the given method and path.
func NewRequest(method, path string) *Request {
	return &Request{
		Method:  method,
		Path:    path,
		Query:   make(map[string]string),
		Headers: make(map[string]string),
	}
}

// SetQuery sets a single query parameter and returns the request for chaining.
func (r *Request) SetQuery(key, value string) *Request {
	if r.Query == nil {
		r.Query = make(map[string]string)
	}
	r.Query[key] = value
	return r
}

// SetQueryParams merges the given parameters into the query string.
func (r *Request) SetQueryParams(params map[string]string) *Request {
	if r.Query == nil {
		r.Query = make(map[string]string)
	}
	maps.Copy(r.Query, params)
	return r
}

// SetHeader sets a header and returns the request for chaining.
func (r *Request) SetHeader(key, value string) *Request {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
	return r
}

// SetCommand sets a trading command field and returns the request for chaining.
func (r *Request) SetCommand(key, value string) *Request {
	if r.Command == nil {
		r.Command = make(map[string]string)
	}
	r.Command[key] = value
	return r
}

// SetRequireAuth marks the request as private and moves it to the trading
// rate class.
func (r *Request) SetRequireAuth(require bool) *Request {
	r.RequireAuth = require
	if require {
		r.Class = ClassTrading
	}
	return r
}
