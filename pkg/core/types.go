package core

import (
	"time"

	"github.com/cockroachdb/apd/v3"
)

// OrderSide represents the direction of an order (buy or sell).
type OrderSide int

// Order side constants define the direction of a trade.
const (
	// SideBuy indicates an order to purchase an asset.
	SideBuy OrderSide = iota
	// SideSell indicates an order to sell an asset.
	SideSell
)

// String returns the lowercase command form used by legacy trading APIs.
func (s OrderSide) String() string {
	return [...]string{"buy", "sell"}[s]
}

// MarshalJSON implements json.Marshaler for OrderSide.
func (s OrderSide) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for OrderSide.
// It accepts both lowercase and uppercase forms.
func (s *OrderSide) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"buy"`, `"BUY"`:
		*s = SideBuy
	case `"sell"`, `"SELL"`:
		*s = SideSell
	}
	return nil
}

// OrderStatus represents the current state of an order.
type OrderStatus int

// Order status constants define the lifecycle state of an order.
const (
	// StatusOpen indicates the order is resting on the book.
	StatusOpen OrderStatus = iota
	// StatusPartiallyFilled indicates the order has been partially executed.
	StatusPartiallyFilled
	// StatusFilled indicates the order has been completely executed.
	StatusFilled
	// StatusCanceled indicates the order has been canceled.
	StatusCanceled
)

// String returns the string representation of the order status.
func (s OrderStatus) String() string {
	return [...]string{"OPEN", "PARTIALLY_FILLED", "FILLED", "CANCELED"}[s]
}

// IsTerminal returns true if the order can no longer change.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusFilled || s == StatusCanceled
}

// Ticker represents 24-hour market data for a currency pair.
type Ticker struct {
	// Pair is the exchange currency pair identifier (e.g., "BTC_USDT").
	Pair string `json:"pair"`
	// Last is the price of the most recent trade.
	Last apd.Decimal `json:"last"`
	// Bid is the highest resting buy price.
	Bid apd.Decimal `json:"bid"`
	// Ask is the lowest resting sell price.
	Ask apd.Decimal `json:"ask"`
	// High is the highest trade price in the last 24 hours.
	High apd.Decimal `json:"high"`
	// Low is the lowest trade price in the last 24 hours.
	Low apd.Decimal `json:"low"`
	// BaseVolume is the 24-hour volume in the base currency.
	BaseVolume apd.Decimal `json:"base_volume"`
	// QuoteVolume is the 24-hour volume in the quote currency.
	QuoteVolume apd.Decimal `json:"quote_volume"`
	// PercentChange is the 24-hour price change as a fraction.
	PercentChange apd.Decimal `json:"percent_change"`
	// Timestamp is when this ticker data was observed.
	Timestamp time.Time `json:"timestamp"`
}

// OrderBookLevel represents a single price level in the order book.
type OrderBookLevel struct {
	// Price is the limit price for this level.
	Price apd.Decimal `json:"price"`
	// Amount is the total quantity resting at this price.
	Amount apd.Decimal `json:"amount"`
}

// OrderBook represents an order book snapshot for a currency pair.
type OrderBook struct {
	// Pair is the currency pair for this book.
	Pair string `json:"pair"`
	// Bids are buy levels sorted by price descending.
	Bids []OrderBookLevel `json:"bids"`
	// Asks are sell levels sorted by price ascending.
	Asks []OrderBookLevel `json:"asks"`
	// Timestamp is when this snapshot was taken.
	Timestamp time.Time `json:"timestamp"`
}

// Trade represents a single executed trade.
type Trade struct {
	// ID is the exchange-assigned trade identifier.
	ID string `json:"id"`
	// OrderID links the trade to its parent order, when known.
	OrderID string `json:"order_id,omitempty"`
	// Pair is the currency pair the trade executed on.
	Pair string `json:"pair"`
	// Side indicates whether the taker bought or sold.
	Side OrderSide `json:"side"`
	// Price is the execution price.
	Price apd.Decimal `json:"price"`
	// Amount is the executed quantity in the base currency.
	Amount apd.Decimal `json:"amount"`
	// Total is price times amount in the quote currency.
	Total apd.Decimal `json:"total"`
	// Fee is the trading fee charged, zero for public trades.
	Fee apd.Decimal `json:"fee"`
	// Timestamp is when the trade executed.
	Timestamp time.Time `json:"timestamp"`
}

// Balance represents account balance for a single currency.
type Balance struct {
	// Currency is the asset symbol (e.g., "BTC").
	Currency string `json:"currency"`
	// Available is the balance free for trading.
	Available apd.Decimal `json:"available"`
	// OnOrders is the balance locked in open orders.
	OnOrders apd.Decimal `json:"on_orders"`
}

// Order represents an exchange order.
type Order struct {
	// ID is the exchange-assigned order number.
	ID string `json:"id"`
	// Pair is the currency pair for this order.
	Pair string `json:"pair"`
	// Side indicates whether this is a buy or sell order.
	Side OrderSide `json:"side"`
	// Price is the limit price.
	Price apd.Decimal `json:"price"`
	// Amount is the original order quantity.
	Amount apd.Decimal `json:"amount"`
	// Remaining is the unfilled portion.
	Remaining apd.Decimal `json:"remaining"`
	// Status is the current lifecycle state.
	Status OrderStatus `json:"status"`
	// Trades are the executions resulting from this order, when reported.
	Trades []Trade `json:"trades,omitempty"`
	// CreatedAt is when the order was accepted.
	CreatedAt time.Time `json:"created_at"`
}

// Candle represents one period of chart data.
type Candle struct {
	// Pair is the currency pair for this candle.
	Pair string `json:"pair"`
	// Period is the candle duration in seconds.
	Period int `json:"period"`
	// OpenTime is the start of the period.
	OpenTime time.Time `json:"open_time"`
	// Open is the price at the start of the period.
	Open apd.Decimal `json:"open"`
	// High is the highest price during the period.
	High apd.Decimal `json:"high"`
	// Low is the lowest price during the period.
	Low apd.Decimal `json:"low"`
	// Close is the price at the end of the period.
	Close apd.Decimal `json:"close"`
	// Volume is the quote-currency volume during the period.
	Volume apd.Decimal `json:"volume"`
	// WeightedAverage is the volume-weighted average price.
	WeightedAverage apd.Decimal `json:"weighted_average"`
}

// Currency describes an asset listed on an exchange.
type Currency struct {
	// Symbol is the asset identifier (e.g., "BTC").
	Symbol string `json:"symbol"`
	// Name is the human-readable asset name.
	Name string `json:"name"`
	// TxFee is the withdrawal fee.
	TxFee apd.Decimal `json:"tx_fee"`
	// Disabled reports whether the asset is halted.
	Disabled bool `json:"disabled"`
}
