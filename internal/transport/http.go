// Package transport provides the HTTP layer used by exchange sessions.
package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"resty.dev/v3"

	"tradewire/pkg/core"
)

// UserAgent identifies this library on the wire.
const UserAgent = "tradewire v" + Version

// Version is the library version reported in the User-Agent header.
const Version = "0.3.0"

// Client wraps a resty HTTP client with logging and a fixed User-Agent.
type Client struct {
	client *resty.Client
	logger zerolog.Logger
}

// Response represents a raw HTTP response: status code plus body bytes.
// Interpretation of the body is left entirely to response normalization.
type Response struct {
	// StatusCode is the HTTP status code returned by the server.
	StatusCode int

	// Body contains the raw response body bytes.
	Body []byte
}

// NewClient creates an HTTP client bound to baseURL. The timeout bounds each
// request end to end.
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", UserAgent)

	return &Client{
		client: client,
		logger: logger,
	}
}

// Do executes a prepared request envelope and returns the raw response.
// Connection-level failures are reported as errors; any HTTP status is
// returned as a Response for normalization to judge.
func (c *Client) Do(ctx context.Context, req *core.Request) (*Response, error) {
	r := c.client.R().SetContext(ctx)

	for k, v := range req.Headers {
		r.SetHeader(k, v)
	}
	if len(req.Query) > 0 {
		r.SetQueryParams(req.Query)
	}
	if req.Body != "" {
		r.SetBody(req.Body)
	}

	c.logger.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Msg("http request")

	var resp *resty.Response
	var err error

	switch req.Method {
	case http.MethodGet:
		resp, err = r.Get(req.Path)
	case http.MethodPost:
		resp, err = r.Post(req.Path)
	default:
		return nil, fmt.Errorf("unsupported http method: %s", req.Method)
	}

	if err != nil {
		c.logger.Error().Err(err).
			Str("method", req.Method).
			Str("path", req.Path).
			Msg("http request failed")
		return nil, fmt.Errorf("http request: %w", err)
	}

	c.logger.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", resp.StatusCode()).
		Int("size", len(resp.Bytes())).
		Msg("http response")

	return &Response{
		StatusCode: resp.StatusCode(),
		Body:       resp.Bytes(),
	}, nil
}

// Close releases the underlying client resources.
func (c *Client) Close() error {
	return c.client.Close()
}

// IsSuccess returns true if the status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Unmarshal parses the response body into the provided value using sonic.
func (r *Response) Unmarshal(v any) error {
	return sonic.Unmarshal(r.Body, v)
}
