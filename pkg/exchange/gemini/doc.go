// Package gemini implements the Gemini REST API: path-style public
// endpoints, and private endpoints authenticated with an HMAC-SHA384
// signature over a base64 JSON payload that carries the nonce.
package gemini
