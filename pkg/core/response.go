package core

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// CheckResponse is the single place where success of an HTTP exchange call is
// decided. It returns nil only when the status is 2xx, the body is valid
// JSON, and the body carries no error field. Callers never need to inspect
// status code and body shape separately.
//
// A body that is not JSON fails with the raw text as the message. A 2xx body
// with an "error" field fails with that field's text: legacy trading APIs
// report most failures this way, status 200 included.
func CheckResponse(exchange string, statusCode int, body []byte) error {
	var parsed any
	if err := sonic.Unmarshal(body, &parsed); err != nil {
		text := strings.TrimSpace(string(body))
		if statusCode >= 200 && statusCode < 300 {
			return NewExchangeError(exchange, ErrorTypeAPI, statusCode,
				fmt.Sprintf("unparseable response: %s", text))
		}
		return NewExchangeError(exchange, ErrorTypeAPI, statusCode,
			fmt.Sprintf("HTTP %d Returned error: %s", statusCode, text))
	}

	if msg := extractErrorMessage(parsed); msg != "" {
		return NewExchangeError(exchange, ErrorTypeAPI, statusCode, msg)
	}

	if statusCode < 200 || statusCode >= 300 {
		return NewExchangeError(exchange, ErrorTypeAPI, statusCode,
			fmt.Sprintf("HTTP %d Returned error: %s", statusCode, strings.TrimSpace(string(body))))
	}

	return nil
}

// extractErrorMessage pulls the structured error text out of a parsed body.
// The "error" field wins over "message"; gemini-style bodies signal errors
// with result=="error" and explain them in "message" or "reason".
func extractErrorMessage(parsed any) string {
	m, ok := parsed.(map[string]any)
	if !ok {
		return ""
	}

	if e, ok := m["error"].(string); ok && e != "" {
		return e
	}

	if r, ok := m["result"].(string); ok && r == "error" {
		if msg, ok := m["message"].(string); ok && msg != "" {
			return msg
		}
		if reason, ok := m["reason"].(string); ok && reason != "" {
			return reason
		}
		return "error"
	}

	return ""
}
