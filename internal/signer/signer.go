// Package signer computes the HMAC signatures attached to authenticated
// trading requests. Which digest an exchange verifies against is protocol
// configuration, not a property of this package.
package signer

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"net/url"
)

// Digest selects the hash function keyed by the shared secret.
type Digest int

const (
	// SHA512 is the digest used by poloniex-style trading APIs.
	SHA512 Digest = iota
	// SHA384 is the digest used by gemini-style trading APIs.
	SHA384
)

// String returns the digest name.
func (d Digest) String() string {
	return [...]string{"HMAC-SHA512", "HMAC-SHA384"}[d]
}

func (d Digest) newHash() func() hash.Hash {
	switch d {
	case SHA384:
		return sha512.New384
	default:
		return sha512.New
	}
}

// Sign computes the hex-encoded HMAC of body under secret. The body is signed
// byte-exactly: callers must pass the same serialization they put on the
// wire, since the exchange reproduces it to verify.
func Sign(d Digest, body, secret string) string {
	h := hmac.New(d.newHash(), []byte(secret))
	h.Write([]byte(body))
	return hex.EncodeToString(h.Sum(nil))
}

// EncodeForm serializes a command map as application/x-www-form-urlencoded
// with sorted keys and space encoded as "+". Sorting makes the serialization
// deterministic, so a signature over it can be reproduced by the verifier.
func EncodeForm(fields map[string]string) string {
	values := make(url.Values, len(fields))
	for k, v := range fields {
		values.Set(k, v)
	}
	return values.Encode()
}
