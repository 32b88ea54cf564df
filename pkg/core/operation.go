package core

// Operation represents a type of action that can be performed on an exchange.
type Operation int

// Operation constants define all supported exchange operations.
const (
	// OpGetTicker retrieves current market ticker data.
	OpGetTicker Operation = iota
	// OpGetOrderBook retrieves the current order book depth.
	OpGetOrderBook
	// OpGetTrades retrieves the public trade history for a pair.
	OpGetTrades
	// OpGetChart retrieves candlestick chart data for a pair.
	OpGetChart
	// OpGetCurrencies retrieves the currencies listed on the exchange.
	OpGetCurrencies
	// OpGetBalance retrieves account balance information.
	OpGetBalance
	// OpPlaceOrder submits a new buy or sell order.
	OpPlaceOrder
	// OpCancelOrder cancels an existing order.
	OpCancelOrder
	// OpGetOpenOrders retrieves all open orders.
	OpGetOpenOrders
	// OpGetTradeHistory retrieves the account's executed trades.
	OpGetTradeHistory
)

// String returns the string representation of the operation.
func (o Operation) String() string {
	return [...]string{
		"GET_TICKER",
		"GET_ORDER_BOOK",
		"GET_TRADES",
		"GET_CHART",
		"GET_CURRENCIES",
		"GET_BALANCE",
		"PLACE_ORDER",
		"CANCEL_ORDER",
		"GET_OPEN_ORDERS",
		"GET_TRADE_HISTORY",
	}[o]
}

// RateClass identifies which rate limit window an operation draws from.
type RateClass int

const (
	// ClassPublic covers unauthenticated market data requests.
	ClassPublic RateClass = iota
	// ClassTrading covers authenticated trading requests.
	ClassTrading
)

// String returns the string representation of the rate class.
func (c RateClass) String() string {
	return [...]string{"public", "trading"}[c]
}
