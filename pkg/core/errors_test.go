package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimitErrorMessage(t *testing.T) {
	err := NewRateLimitError("poloniex", ClassTrading, 6)

	assert.Equal(t, "poloniex trading rate limit of 6 requests per second exceeded", err.Message)
	assert.True(t, IsRateLimitError(err))
	assert.Zero(t, err.StatusCode)
}

func TestExchangeErrorFormat(t *testing.T) {
	withStatus := NewExchangeError("gemini", ErrorTypeAPI, 400, "InvalidNonce")
	assert.Equal(t, "[gemini] API (400): InvalidNonce", withStatus.Error())

	preNetwork := NewExchangeError("gemini", ErrorTypeInvalidParameter, 0, "bad period")
	assert.Equal(t, "[gemini] INVALID_PARAMETER: bad period", preNetwork.Error())
}

func TestPredicatesMatchWrappedErrors(t *testing.T) {
	rate := fmt.Errorf("dispatch: %w", NewRateLimitError("poloniex", ClassPublic, 6))
	assert.True(t, IsRateLimitError(rate))
	assert.False(t, IsAPIError(rate))

	auth := fmt.Errorf("poloniex: %w", ErrMissingCredentials)
	assert.True(t, IsAuthenticationError(auth))

	transport := NewExchangeError("stub", ErrorTypeTransport, 0, "connection refused")
	assert.True(t, IsTransportError(transport))
	assert.False(t, IsTransportError(errors.New("plain")))

	param := NewInvalidParameterError("poloniex", "invalid chart period 60")
	assert.True(t, IsInvalidParameterError(param))
	assert.False(t, IsInvalidParameterError(nil))
}

func TestErrorTypeStrings(t *testing.T) {
	assert.Equal(t, "RATE_LIMIT", ErrorTypeRateLimit.String())
	assert.Equal(t, "API", ErrorTypeAPI.String())
}
