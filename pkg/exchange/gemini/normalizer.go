package gemini

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/apd/v3"

	"tradewire/pkg/core"
)

// gemTicker is the raw /v1/pubticker response. The volume object is keyed by
// currency symbols plus a "timestamp" entry in milliseconds.
type gemTicker struct {
	Bid    apd.Decimal                `json:"bid"`
	Ask    apd.Decimal                `json:"ask"`
	Last   apd.Decimal                `json:"last"`
	Volume map[string]json.RawMessage `json:"volume"`
}

type gemBookLevel struct {
	Price  apd.Decimal `json:"price"`
	Amount apd.Decimal `json:"amount"`
}

type gemOrderBook struct {
	Bids []gemBookLevel `json:"bids"`
	Asks []gemBookLevel `json:"asks"`
}

// gemTrade covers both /v1/trades and /v1/mytrades rows; only the account
// rows carry fee and order fields.
type gemTrade struct {
	TID         json.Number `json:"tid"`
	OrderID     string      `json:"order_id"`
	TimestampMS int64       `json:"timestampms"`
	Price       apd.Decimal `json:"price"`
	Amount      apd.Decimal `json:"amount"`
	FeeAmount   apd.Decimal `json:"fee_amount"`
	Type        string      `json:"type"`
}

type gemBalance struct {
	Currency  string      `json:"currency"`
	Amount    apd.Decimal `json:"amount"`
	Available apd.Decimal `json:"available"`
}

// gemOrder is the order status object returned by /v1/order/new,
// /v1/order/cancel and /v1/orders.
type gemOrder struct {
	OrderID         string      `json:"order_id"`
	Symbol          string      `json:"symbol"`
	Side            string      `json:"side"`
	Price           apd.Decimal `json:"price"`
	OriginalAmount  apd.Decimal `json:"original_amount"`
	ExecutedAmount  apd.Decimal `json:"executed_amount"`
	RemainingAmount apd.Decimal `json:"remaining_amount"`
	IsLive          bool        `json:"is_live"`
	IsCancelled     bool        `json:"is_cancelled"`
	TimestampMS     int64       `json:"timestampms"`
}

// normalizer converts Gemini response shapes to canonical core types.
type normalizer struct{}

func newNormalizer() *normalizer {
	return &normalizer{}
}

// ticker converts a pubticker response. Gemini keys its volume object by
// currency symbol, and the pair is not visible here, so only the timestamp
// is lifted out of it.
func (n *normalizer) ticker(body []byte) (*core.Ticker, error) {
	var raw gemTicker
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal ticker: %w", err)
	}

	out := &core.Ticker{
		Last:      raw.Last,
		Bid:       raw.Bid,
		Ask:       raw.Ask,
		Timestamp: time.Now(),
	}
	if ms, ok := raw.Volume["timestamp"]; ok {
		var stamp int64
		if err := sonic.Unmarshal(ms, &stamp); err == nil {
			out.Timestamp = time.UnixMilli(stamp).UTC()
		}
	}
	return out, nil
}

func (n *normalizer) orderBook(body []byte) (*core.OrderBook, error) {
	var raw gemOrderBook
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal order book: %w", err)
	}

	book := &core.OrderBook{
		Bids:      make([]core.OrderBookLevel, 0, len(raw.Bids)),
		Asks:      make([]core.OrderBookLevel, 0, len(raw.Asks)),
		Timestamp: time.Now(),
	}
	for _, l := range raw.Bids {
		book.Bids = append(book.Bids, core.OrderBookLevel{Price: l.Price, Amount: l.Amount})
	}
	for _, l := range raw.Asks {
		book.Asks = append(book.Asks, core.OrderBookLevel{Price: l.Price, Amount: l.Amount})
	}
	return book, nil
}

func (n *normalizer) trades(body []byte) ([]core.Trade, error) {
	var raw []gemTrade
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal trades: %w", err)
	}

	out := make([]core.Trade, 0, len(raw))
	for _, t := range raw {
		out = append(out, core.Trade{
			ID:        t.TID.String(),
			OrderID:   t.OrderID,
			Side:      parseSide(t.Type),
			Price:     t.Price,
			Amount:    t.Amount,
			Fee:       t.FeeAmount,
			Timestamp: time.UnixMilli(t.TimestampMS).UTC(),
		})
	}
	return out, nil
}

func (n *normalizer) myTrades(body []byte) ([]core.Trade, error) {
	return n.trades(body)
}

// candles converts a /v2/candles response: arrays of
// [time_ms, open, high, low, close, volume] numbers, newest first.
func (n *normalizer) candles(body []byte) ([]core.Candle, error) {
	var raw [][6]json.Number
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal candles: %w", err)
	}

	out := make([]core.Candle, 0, len(raw))
	for _, row := range raw {
		ms, err := row[0].Int64()
		if err != nil {
			return nil, fmt.Errorf("candle time: %w", err)
		}
		candle := core.Candle{OpenTime: time.UnixMilli(ms).UTC()}
		if candle.Open, err = core.ParseDecimal(row[1].String()); err != nil {
			return nil, fmt.Errorf("open: %w", err)
		}
		if candle.High, err = core.ParseDecimal(row[2].String()); err != nil {
			return nil, fmt.Errorf("high: %w", err)
		}
		if candle.Low, err = core.ParseDecimal(row[3].String()); err != nil {
			return nil, fmt.Errorf("low: %w", err)
		}
		if candle.Close, err = core.ParseDecimal(row[4].String()); err != nil {
			return nil, fmt.Errorf("close: %w", err)
		}
		if candle.Volume, err = core.ParseDecimal(row[5].String()); err != nil {
			return nil, fmt.Errorf("volume: %w", err)
		}
		out = append(out, candle)
	}
	return out, nil
}

func (n *normalizer) balances(body []byte) ([]core.Balance, error) {
	var raw []gemBalance
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal balances: %w", err)
	}

	out := make([]core.Balance, 0, len(raw))
	for _, b := range raw {
		bal := core.Balance{
			Currency:  strings.ToUpper(b.Currency),
			Available: b.Available,
		}
		// Gemini reports the total; the locked portion is total minus available.
		ctx := apd.BaseContext.WithPrecision(38)
		if _, err := ctx.Sub(&bal.OnOrders, &b.Amount, &b.Available); err != nil {
			return nil, fmt.Errorf("balance %s: %w", b.Currency, err)
		}
		out = append(out, bal)
	}
	return out, nil
}

func (n *normalizer) order(body []byte) (*core.Order, error) {
	var raw gemOrder
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	order := raw.toOrder()
	return &order, nil
}

// cancelResult confirms the cancel was acknowledged. Gemini echoes the order
// object back with is_cancelled set.
func (n *normalizer) cancelResult(body []byte) (any, error) {
	var raw gemOrder
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal cancel result: %w", err)
	}
	if !raw.IsCancelled && raw.IsLive {
		return nil, core.NewExchangeError("gemini", core.ErrorTypeAPI, 200, "cancel was not acknowledged")
	}
	order := raw.toOrder()
	return &order, nil
}

func (n *normalizer) orders(body []byte) ([]core.Order, error) {
	var raw []gemOrder
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal orders: %w", err)
	}

	out := make([]core.Order, 0, len(raw))
	for _, o := range raw {
		out = append(out, o.toOrder())
	}
	return out, nil
}

func (o gemOrder) toOrder() core.Order {
	order := core.Order{
		ID:        o.OrderID,
		Side:      parseSide(o.Side),
		Price:     o.Price,
		Amount:    o.OriginalAmount,
		Remaining: o.RemainingAmount,
		Status:    orderStatus(o),
		CreatedAt: time.UnixMilli(o.TimestampMS).UTC(),
	}
	return order
}

func orderStatus(o gemOrder) core.OrderStatus {
	switch {
	case o.IsCancelled:
		return core.StatusCanceled
	case o.RemainingAmount.IsZero():
		return core.StatusFilled
	case !o.ExecutedAmount.IsZero():
		return core.StatusPartiallyFilled
	default:
		return core.StatusOpen
	}
}

func parseSide(s string) core.OrderSide {
	if strings.EqualFold(s, "sell") {
		return core.SideSell
	}
	return core.SideBuy
}
