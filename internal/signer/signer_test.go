package signer

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSign_Deterministic(t *testing.T) {
	body := "command=buy&nonce=170000000000000&rate=0.00250000"

	first := Sign(SHA512, body, "secret")
	second := Sign(SHA512, body, "secret")

	assert.Equal(t, first, second, "identical inputs must produce identical signatures")
	assert.Len(t, first, 128, "sha512 hex output is 128 characters")
}

func TestSign_MatchesReference(t *testing.T) {
	body := "command=returnBalances&nonce=1"

	mac := hmac.New(sha512.New, []byte("topsecret"))
	mac.Write([]byte(body))
	want := hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, Sign(SHA512, body, "topsecret"))
}

func TestSign_SHA384(t *testing.T) {
	sig := Sign(SHA384, "payload", "secret")

	assert.Len(t, sig, 96, "sha384 hex output is 96 characters")
	assert.NotEqual(t, Sign(SHA512, "payload", "secret"), sig)
}

func TestSign_DifferentBodiesDiffer(t *testing.T) {
	a := Sign(SHA512, "command=buy&nonce=100", "secret")
	b := Sign(SHA512, "command=buy&nonce=101", "secret")

	assert.NotEqual(t, a, b, "distinct nonces must produce distinct signatures")
}

func TestEncodeForm_SortedAndEscaped(t *testing.T) {
	body := EncodeForm(map[string]string{
		"currencyPair": "BTC_USDT",
		"command":      "buy",
		"note":         "a b",
	})

	assert.Equal(t, "command=buy&currencyPair=BTC_USDT&note=a+b", body)
}

func TestEncodeForm_Deterministic(t *testing.T) {
	fields := map[string]string{"z": "1", "a": "2", "m": "3"}

	assert.Equal(t, EncodeForm(fields), EncodeForm(fields))
	assert.Equal(t, "a=2&m=3&z=1", EncodeForm(fields))
}
