package poloniex

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradewire/pkg/core"
)

func TestProtocolIdentity(t *testing.T) {
	p := New()
	assert.Equal(t, "poloniex", p.Name())
	assert.Equal(t, ProductionURL, p.BaseURL(false))
	assert.Equal(t, ProductionURL, p.BaseURL(true))
}

func TestRateLimits(t *testing.T) {
	limits := New().RateLimits()
	assert.Equal(t, 6, limits.PublicPerSecond)
	assert.Equal(t, 6, limits.TradingPerSecond)
}

func TestBuildRequestTicker(t *testing.T) {
	p := New()

	req, err := p.BuildRequest(core.OpGetTicker, nil)
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, publicPath, req.Path)
	assert.Equal(t, "returnTicker", req.Query["command"])
	assert.False(t, req.RequireAuth)
	assert.Equal(t, core.ClassPublic, req.Class)
}

func TestBuildRequestOrderBook(t *testing.T) {
	p := New()

	req, err := p.BuildRequest(core.OpGetOrderBook, core.Params{"pair": "BTC_USDT", "depth": 10})
	require.NoError(t, err)

	assert.Equal(t, "returnOrderBook", req.Query["command"])
	assert.Equal(t, "BTC_USDT", req.Query["currencyPair"])
	assert.Equal(t, "10", req.Query["depth"])
}

func TestBuildRequestChartValidatesPeriod(t *testing.T) {
	p := New()

	req, err := p.BuildRequest(core.OpGetChart, core.Params{"pair": "BTC_USDT", "period": 900})
	require.NoError(t, err)
	assert.Equal(t, "900", req.Query["period"])

	for _, period := range []int{0, 60, 301, 3600} {
		_, err := p.BuildRequest(core.OpGetChart, core.Params{"pair": "BTC_USDT", "period": period})
		require.Error(t, err, "period %d", period)
		assert.True(t, core.IsInvalidParameterError(err))
	}
}

func TestBuildRequestBalancesIsTrading(t *testing.T) {
	p := New()

	req, err := p.BuildRequest(core.OpGetBalance, nil)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, tradingPath, req.Path)
	assert.Equal(t, "returnCompleteBalances", req.Command["command"])
	assert.True(t, req.RequireAuth)
	assert.Equal(t, core.ClassTrading, req.Class)
}

func TestBuildRequestPlaceOrderSides(t *testing.T) {
	p := New()

	buy, err := p.BuildRequest(core.OpPlaceOrder, core.Params{
		"pair": "BTC_USDT", "side": "buy", "rate": "30000.00000000", "amount": "0.10000000",
	})
	require.NoError(t, err)
	assert.Equal(t, "buy", buy.Command["command"])
	assert.Equal(t, "30000.00000000", buy.Command["rate"])

	sell, err := p.BuildRequest(core.OpPlaceOrder, core.Params{
		"pair": "BTC_USDT", "side": "sell", "rate": "1", "amount": "1",
	})
	require.NoError(t, err)
	assert.Equal(t, "sell", sell.Command["command"])

	_, err = p.BuildRequest(core.OpPlaceOrder, core.Params{
		"pair": "BTC_USDT", "side": "short", "rate": "1", "amount": "1",
	})
	require.Error(t, err)
	assert.True(t, core.IsInvalidParameterError(err))
}

func TestBuildRequestMissingPair(t *testing.T) {
	p := New()

	_, err := p.BuildRequest(core.OpGetOrderBook, core.Params{})
	require.Error(t, err)
	assert.True(t, core.IsInvalidParameterError(err))
}

func TestSignRequestBodyAndHeaders(t *testing.T) {
	p := New()
	creds := core.Credentials{Key: "api-key", Secret: "api-secret"}

	req, err := p.BuildRequest(core.OpGetBalance, nil)
	require.NoError(t, err)
	require.NoError(t, p.SignRequest(req, creds, 172956000000042))

	// The body is the sorted urlencoded form with the nonce folded in, and
	// the signature covers exactly those bytes.
	assert.Equal(t, "command=returnCompleteBalances&nonce=172956000000042", req.Body)

	mac := hmac.New(sha512.New, []byte("api-secret"))
	mac.Write([]byte(req.Body))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), req.Headers["Sign"])
	assert.Equal(t, "api-key", req.Headers["Key"])
	assert.Equal(t, "application/x-www-form-urlencoded", req.Headers["Content-Type"])
}

func TestSignRequestDeterministic(t *testing.T) {
	p := New()
	creds := core.Credentials{Key: "k", Secret: "s"}

	build := func() *core.Request {
		req, err := p.BuildRequest(core.OpCancelOrder, core.Params{"order_id": "12345"})
		require.NoError(t, err)
		require.NoError(t, p.SignRequest(req, creds, 100))
		return req
	}

	first, second := build(), build()
	assert.Equal(t, first.Body, second.Body)
	assert.Equal(t, first.Headers["Sign"], second.Headers["Sign"])
}

func TestSignRequestDistinctNonces(t *testing.T) {
	p := New()
	creds := core.Credentials{Key: "k", Secret: "s"}

	req1, err := p.BuildRequest(core.OpGetBalance, nil)
	require.NoError(t, err)
	require.NoError(t, p.SignRequest(req1, creds, 100))

	req2, err := p.BuildRequest(core.OpGetBalance, nil)
	require.NoError(t, err)
	require.NoError(t, p.SignRequest(req2, creds, 101))

	assert.NotEqual(t, req1.Body, req2.Body)
	assert.NotEqual(t, req1.Headers["Sign"], req2.Headers["Sign"])
}

func TestSignRequestMissingSecret(t *testing.T) {
	p := New()

	req, err := p.BuildRequest(core.OpGetBalance, nil)
	require.NoError(t, err)
	err = p.SignRequest(req, core.Credentials{}, 1)
	assert.ErrorIs(t, err, core.ErrMissingCredentials)
}

func TestParseResponseErrorField(t *testing.T) {
	p := New()

	_, err := p.ParseResponse(core.OpGetBalance, 200, []byte(`{"error":"Invalid API key/secret pair."}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API key/secret pair.")
}

func TestParseResponseHTMLBody(t *testing.T) {
	p := New()

	_, err := p.ParseResponse(core.OpGetTicker, 502, []byte("<html>Bad Gateway</html>"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 502")
	assert.Contains(t, err.Error(), "<html>Bad Gateway</html>")
}
