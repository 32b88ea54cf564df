package poloniex

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/apd/v3"

	"tradewire/pkg/core"
)

// polTicker is one entry of the raw returnTicker map. Poloniex reports every
// numeric field as a decimal string.
type polTicker struct {
	ID            int64       `json:"id"`
	Last          apd.Decimal `json:"last"`
	LowestAsk     apd.Decimal `json:"lowestAsk"`
	HighestBid    apd.Decimal `json:"highestBid"`
	PercentChange apd.Decimal `json:"percentChange"`
	BaseVolume    apd.Decimal `json:"baseVolume"`
	QuoteVolume   apd.Decimal `json:"quoteVolume"`
	High24hr      apd.Decimal `json:"high24hr"`
	Low24hr       apd.Decimal `json:"low24hr"`
	IsFrozen      string      `json:"isFrozen"`
}

// polOrderBook is the raw returnOrderBook response. Each level is a
// [price, amount] pair where the price is a string and the amount a number.
type polOrderBook struct {
	Asks     [][2]json.RawMessage `json:"asks"`
	Bids     [][2]json.RawMessage `json:"bids"`
	IsFrozen string               `json:"isFrozen"`
	Seq      int64                `json:"seq"`
}

// polTrade covers both public and account trade history rows; the account
// rows additionally carry fee and orderNumber.
type polTrade struct {
	GlobalTradeID int64       `json:"globalTradeID"`
	TradeID       json.Number `json:"tradeID"`
	OrderNumber   string      `json:"orderNumber"`
	Date          string      `json:"date"`
	Type          string      `json:"type"`
	Rate          apd.Decimal `json:"rate"`
	Amount        apd.Decimal `json:"amount"`
	Total         apd.Decimal `json:"total"`
	Fee           apd.Decimal `json:"fee"`
}

// polCandle is one raw returnChartData row. Chart values arrive as JSON
// numbers, unlike everything else in this API.
type polCandle struct {
	Date            int64       `json:"date"`
	High            json.Number `json:"high"`
	Low             json.Number `json:"low"`
	Open            json.Number `json:"open"`
	Close           json.Number `json:"close"`
	Volume          json.Number `json:"volume"`
	QuoteVolume     json.Number `json:"quoteVolume"`
	WeightedAverage json.Number `json:"weightedAverage"`
}

type polCurrency struct {
	Name     string      `json:"name"`
	TxFee    apd.Decimal `json:"txFee"`
	Disabled int         `json:"disabled"`
	Delisted int         `json:"delisted"`
	Frozen   int         `json:"frozen"`
}

type polBalance struct {
	Available apd.Decimal `json:"available"`
	OnOrders  apd.Decimal `json:"onOrders"`
	BTCValue  apd.Decimal `json:"btcValue"`
}

type polPlacedOrder struct {
	OrderNumber string     `json:"orderNumber"`
	Trades      []polTrade `json:"resultingTrades"`
}

type polCancelResult struct {
	Success int `json:"success"`
}

type polOpenOrder struct {
	OrderNumber string      `json:"orderNumber"`
	Type        string      `json:"type"`
	Rate        apd.Decimal `json:"rate"`
	Amount      apd.Decimal `json:"amount"`
	Total       apd.Decimal `json:"total"`
	Date        string      `json:"date"`
}

// tradeDateLayout is the wall-clock format Poloniex reports trade times in (UTC).
const tradeDateLayout = "2006-01-02 15:04:05"

// normalizer converts Poloniex response shapes to canonical core types.
type normalizer struct{}

func newNormalizer() *normalizer {
	return &normalizer{}
}

// tickers annotates the raw returnTicker map into canonical Tickers keyed by
// pair. The raw feed is an anonymous string map; this is where field names
// and types are pinned down.
func (n *normalizer) tickers(body []byte) (map[string]core.Ticker, error) {
	var raw map[string]polTicker
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal ticker map: %w", err)
	}

	now := time.Now()
	out := make(map[string]core.Ticker, len(raw))
	for pair, t := range raw {
		out[pair] = core.Ticker{
			Pair:          pair,
			Last:          t.Last,
			Bid:           t.HighestBid,
			Ask:           t.LowestAsk,
			High:          t.High24hr,
			Low:           t.Low24hr,
			BaseVolume:    t.BaseVolume,
			QuoteVolume:   t.QuoteVolume,
			PercentChange: t.PercentChange,
			Timestamp:     now,
		}
	}
	return out, nil
}

func (n *normalizer) orderBook(body []byte) (*core.OrderBook, error) {
	var raw polOrderBook
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal order book: %w", err)
	}

	book := &core.OrderBook{Timestamp: time.Now()}

	var err error
	if book.Asks, err = levels(raw.Asks); err != nil {
		return nil, fmt.Errorf("asks: %w", err)
	}
	if book.Bids, err = levels(raw.Bids); err != nil {
		return nil, fmt.Errorf("bids: %w", err)
	}
	return book, nil
}

// levels converts raw [price, amount] pairs where the price is a quoted
// string and the amount a bare number.
func levels(raw [][2]json.RawMessage) ([]core.OrderBookLevel, error) {
	out := make([]core.OrderBookLevel, 0, len(raw))
	for _, pair := range raw {
		var priceStr string
		if err := sonic.Unmarshal(pair[0], &priceStr); err != nil {
			return nil, fmt.Errorf("price: %w", err)
		}
		price, err := core.ParseDecimal(priceStr)
		if err != nil {
			return nil, fmt.Errorf("price %q: %w", priceStr, err)
		}
		var amountNum json.Number
		if err := sonic.Unmarshal(pair[1], &amountNum); err != nil {
			return nil, fmt.Errorf("amount: %w", err)
		}
		amount, err := core.ParseDecimal(amountNum.String())
		if err != nil {
			return nil, fmt.Errorf("amount %q: %w", amountNum, err)
		}
		out = append(out, core.OrderBookLevel{Price: price, Amount: amount})
	}
	return out, nil
}

func (n *normalizer) publicTrades(body []byte) ([]core.Trade, error) {
	return n.trades(body)
}

func (n *normalizer) privateTrades(body []byte) ([]core.Trade, error) {
	return n.trades(body)
}

func (n *normalizer) trades(body []byte) ([]core.Trade, error) {
	var raw []polTrade
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal trades: %w", err)
	}

	out := make([]core.Trade, 0, len(raw))
	for _, t := range raw {
		trade := core.Trade{
			ID:      t.TradeID.String(),
			OrderID: t.OrderNumber,
			Side:    parseSide(t.Type),
			Price:   t.Rate,
			Amount:  t.Amount,
			Total:   t.Total,
			Fee:     t.Fee,
		}
		if ts, err := time.Parse(tradeDateLayout, t.Date); err == nil {
			trade.Timestamp = ts.UTC()
		}
		out = append(out, trade)
	}
	return out, nil
}

func (n *normalizer) candles(body []byte) ([]core.Candle, error) {
	var raw []polCandle
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal chart data: %w", err)
	}

	out := make([]core.Candle, 0, len(raw))
	for _, c := range raw {
		candle := core.Candle{OpenTime: time.Unix(c.Date, 0).UTC()}

		var err error
		if candle.Open, err = core.ParseDecimal(c.Open.String()); err != nil {
			return nil, fmt.Errorf("open: %w", err)
		}
		if candle.High, err = core.ParseDecimal(c.High.String()); err != nil {
			return nil, fmt.Errorf("high: %w", err)
		}
		if candle.Low, err = core.ParseDecimal(c.Low.String()); err != nil {
			return nil, fmt.Errorf("low: %w", err)
		}
		if candle.Close, err = core.ParseDecimal(c.Close.String()); err != nil {
			return nil, fmt.Errorf("close: %w", err)
		}
		if candle.Volume, err = core.ParseDecimal(c.QuoteVolume.String()); err != nil {
			return nil, fmt.Errorf("quoteVolume: %w", err)
		}
		if candle.WeightedAverage, err = core.ParseDecimal(c.WeightedAverage.String()); err != nil {
			return nil, fmt.Errorf("weightedAverage: %w", err)
		}
		out = append(out, candle)
	}
	return out, nil
}

func (n *normalizer) currencies(body []byte) ([]core.Currency, error) {
	var raw map[string]polCurrency
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal currencies: %w", err)
	}

	out := make([]core.Currency, 0, len(raw))
	for symbol, c := range raw {
		out = append(out, core.Currency{
			Symbol:   symbol,
			Name:     c.Name,
			TxFee:    c.TxFee,
			Disabled: c.Disabled != 0 || c.Delisted != 0 || c.Frozen != 0,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (n *normalizer) balances(body []byte) ([]core.Balance, error) {
	var raw map[string]polBalance
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal balances: %w", err)
	}

	out := make([]core.Balance, 0, len(raw))
	for currency, b := range raw {
		out = append(out, core.Balance{
			Currency:  currency,
			Available: b.Available,
			OnOrders:  b.OnOrders,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out, nil
}

func (n *normalizer) placedOrder(body []byte) (*core.Order, error) {
	var raw polPlacedOrder
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal placed order: %w", err)
	}

	order := &core.Order{
		ID:        raw.OrderNumber,
		Status:    core.StatusOpen,
		CreatedAt: time.Now(),
	}
	for _, t := range raw.Trades {
		trade := core.Trade{
			ID:     t.TradeID.String(),
			Side:   parseSide(t.Type),
			Price:  t.Rate,
			Amount: t.Amount,
			Total:  t.Total,
		}
		if ts, err := time.Parse(tradeDateLayout, t.Date); err == nil {
			trade.Timestamp = ts.UTC()
		}
		order.Trades = append(order.Trades, trade)
	}
	if len(order.Trades) > 0 {
		order.Status = core.StatusPartiallyFilled
	}
	return order, nil
}

func (n *normalizer) cancelResult(body []byte) (any, error) {
	var raw polCancelResult
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal cancel result: %w", err)
	}
	if raw.Success == 0 {
		return nil, core.NewExchangeError("poloniex", core.ErrorTypeAPI, 200, "cancel was not acknowledged")
	}
	return raw.Success, nil
}

func (n *normalizer) openOrders(body []byte) ([]core.Order, error) {
	var raw []polOpenOrder
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal open orders: %w", err)
	}

	out := make([]core.Order, 0, len(raw))
	for _, o := range raw {
		order := core.Order{
			ID:        o.OrderNumber,
			Side:      parseSide(o.Type),
			Price:     o.Rate,
			Amount:    o.Amount,
			Remaining: o.Amount,
			Status:    core.StatusOpen,
		}
		if ts, err := time.Parse(tradeDateLayout, o.Date); err == nil {
			order.CreatedAt = ts.UTC()
		}
		out = append(out, order)
	}
	return out, nil
}

func parseSide(s string) core.OrderSide {
	if s == "sell" {
		return core.SideSell
	}
	return core.SideBuy
}
