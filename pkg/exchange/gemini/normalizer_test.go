package gemini

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradewire/pkg/core"
)

func TestNormalizeTicker(t *testing.T) {
	body := []byte(`{
		"bid": "3648.09",
		"ask": "3648.35",
		"last": "3648.09",
		"volume": {"BTC": "2210.50", "USD": "8031517.04", "timestamp": 1547221200000}
	}`)

	ticker, err := newNormalizer().ticker(body)
	require.NoError(t, err)

	assert.Equal(t, "3648.09", ticker.Last.String())
	assert.Equal(t, "3648.09", ticker.Bid.String())
	assert.Equal(t, "3648.35", ticker.Ask.String())
	assert.Equal(t, time.UnixMilli(1547221200000).UTC(), ticker.Timestamp)
}

func TestNormalizeOrderBook(t *testing.T) {
	body := []byte(`{
		"bids": [{"price": "3607.85", "amount": "6.64", "timestamp": "1547147705"}],
		"asks": [{"price": "3607.86", "amount": "2.55", "timestamp": "1547147705"}]
	}`)

	book, err := newNormalizer().orderBook(body)
	require.NoError(t, err)

	require.Len(t, book.Bids, 1)
	require.Len(t, book.Asks, 1)
	assert.Equal(t, "3607.85", book.Bids[0].Price.String())
	assert.Equal(t, "2.55", book.Asks[0].Amount.String())
}

func TestNormalizeTrades(t *testing.T) {
	body := []byte(`[
		{"timestamp": 1547146811, "timestampms": 1547146811357, "tid": 107542,
		 "price": "3598.00", "amount": "0.9", "exchange": "gemini", "type": "sell"}
	]`)

	trades, err := newNormalizer().trades(body)
	require.NoError(t, err)

	require.Len(t, trades, 1)
	assert.Equal(t, "107542", trades[0].ID)
	assert.Equal(t, core.SideSell, trades[0].Side)
	assert.Equal(t, "3598.00", trades[0].Price.String())
	assert.Equal(t, time.UnixMilli(1547146811357).UTC(), trades[0].Timestamp)
}

func TestNormalizeMyTradesCarriesFee(t *testing.T) {
	body := []byte(`[
		{"price": "3648.09", "amount": "0.0027343246", "timestamp": 1547232911,
		 "timestampms": 1547232911021, "type": "Buy", "fee_currency": "USD",
		 "fee_amount": "0.024937655575035", "tid": 107317526, "order_id": "107317524"}
	]`)

	trades, err := newNormalizer().myTrades(body)
	require.NoError(t, err)

	require.Len(t, trades, 1)
	assert.Equal(t, core.SideBuy, trades[0].Side)
	assert.Equal(t, "107317524", trades[0].OrderID)
	assert.Equal(t, "0.024937655575035", trades[0].Fee.String())
}

func TestNormalizeCandles(t *testing.T) {
	body := []byte(`[
		[1559755800000, 7781.6, 7820.23, 7776.56, 7819.39, 34.7624802159]
	]`)

	candles, err := newNormalizer().candles(body)
	require.NoError(t, err)

	require.Len(t, candles, 1)
	assert.Equal(t, time.UnixMilli(1559755800000).UTC(), candles[0].OpenTime)
	assert.Equal(t, "7781.6", candles[0].Open.String())
	assert.Equal(t, "7819.39", candles[0].Close.String())
	assert.Equal(t, "34.7624802159", candles[0].Volume.String())
}

func TestNormalizeBalancesComputesLocked(t *testing.T) {
	body := []byte(`[
		{"type": "exchange", "currency": "btc", "amount": "1154.62034001",
		 "available": "1129.10517279", "availableForWithdrawal": "1129.10517279"}
	]`)

	balances, err := newNormalizer().balances(body)
	require.NoError(t, err)

	require.Len(t, balances, 1)
	assert.Equal(t, "BTC", balances[0].Currency)
	assert.Equal(t, "1129.10517279", balances[0].Available.String())
	assert.Equal(t, "25.51516722", balances[0].OnOrders.String())
}

func TestNormalizeOrderStatuses(t *testing.T) {
	tests := []struct {
		name string
		body string
		want core.OrderStatus
	}{
		{
			name: "open",
			body: `{"order_id": "1", "side": "buy", "price": "100", "original_amount": "2",
				"executed_amount": "0", "remaining_amount": "2", "is_live": true}`,
			want: core.StatusOpen,
		},
		{
			name: "partial",
			body: `{"order_id": "2", "side": "buy", "price": "100", "original_amount": "2",
				"executed_amount": "1", "remaining_amount": "1", "is_live": true}`,
			want: core.StatusPartiallyFilled,
		},
		{
			name: "filled",
			body: `{"order_id": "3", "side": "sell", "price": "100", "original_amount": "2",
				"executed_amount": "2", "remaining_amount": "0", "is_live": false}`,
			want: core.StatusFilled,
		},
		{
			name: "canceled",
			body: `{"order_id": "4", "side": "sell", "price": "100", "original_amount": "2",
				"executed_amount": "0", "remaining_amount": "2", "is_cancelled": true}`,
			want: core.StatusCanceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := newNormalizer().order([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, order.Status)
		})
	}
}

func TestNormalizeCancelNotAcknowledged(t *testing.T) {
	body := []byte(`{"order_id": "5", "side": "buy", "price": "100", "original_amount": "1",
		"remaining_amount": "1", "is_live": true, "is_cancelled": false}`)

	_, err := newNormalizer().cancelResult(body)
	require.Error(t, err)
	assert.True(t, core.IsAPIError(err))
}
