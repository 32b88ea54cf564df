package poloniex

import (
	"fmt"
	"net/http"
	"strconv"

	"tradewire/internal/signer"
	"tradewire/pkg/core"
)

const (
	// ProductionURL is the Poloniex REST endpoint. There is no sandbox.
	ProductionURL = "https://poloniex.com"

	publicPath  = "/public"
	tradingPath = "/tradingApi"

	cmdTicker       = "returnTicker"
	cmdOrderBook    = "returnOrderBook"
	cmdTradeHistory = "returnTradeHistory"
	cmdChartData    = "returnChartData"
	cmdCurrencies   = "returnCurrencies"
	cmdBalances     = "returnCompleteBalances"
	cmdBuy          = "buy"
	cmdSell         = "sell"
	cmdCancelOrder  = "cancelOrder"
	cmdOpenOrders   = "returnOpenOrders"
)

// validPeriods is the chart period whitelist in seconds. Anything else is
// rejected locally before a request is built.
var validPeriods = map[int]bool{
	300:   true,
	900:   true,
	1800:  true,
	7200:  true,
	14400: true,
	86400: true,
}

// Protocol implements core.Protocol for the Poloniex legacy API.
type Protocol struct{}

// New creates a Poloniex protocol instance.
func New() *Protocol {
	return &Protocol{}
}

// Name returns the protocol identifier "poloniex".
func (p *Protocol) Name() string {
	return "poloniex"
}

// Version returns the trading API version string.
func (p *Protocol) Version() string {
	return "1"
}

// BaseURL returns the REST endpoint. Poloniex offers no sandbox, so the
// production URL is returned either way.
func (p *Protocol) BaseURL(bool) string {
	return ProductionURL
}

// RateLimits returns Poloniex's documented six calls per second, applied
// separately to the public and trading classes.
func (p *Protocol) RateLimits() core.RateLimits {
	return core.RateLimits{
		PublicPerSecond:  6,
		TradingPerSecond: 6,
	}
}

// SupportedOperations returns the operations this protocol implements.
func (p *Protocol) SupportedOperations() []core.Operation {
	return []core.Operation{
		core.OpGetTicker,
		core.OpGetOrderBook,
		core.OpGetTrades,
		core.OpGetChart,
		core.OpGetCurrencies,
		core.OpGetBalance,
		core.OpPlaceOrder,
		core.OpCancelOrder,
		core.OpGetOpenOrders,
		core.OpGetTradeHistory,
	}
}

// BuildRequest constructs the envelope for an operation. Public operations
// are GETs against /public with the command in the query string; trading
// operations are POSTs whose command map is serialized and signed later.
func (p *Protocol) BuildRequest(op core.Operation, params core.Params) (*core.Request, error) {
	switch op {
	case core.OpGetTicker:
		return publicRequest(cmdTicker), nil

	case core.OpGetOrderBook:
		pair, err := requireString(params, "pair")
		if err != nil {
			return nil, err
		}
		req := publicRequest(cmdOrderBook)
		req.SetQuery("currencyPair", pair)
		if depth := intParam(params, "depth", 0); depth > 0 {
			req.SetQuery("depth", strconv.Itoa(depth))
		}
		return req, nil

	case core.OpGetTrades:
		pair, err := requireString(params, "pair")
		if err != nil {
			return nil, err
		}
		req := publicRequest(cmdTradeHistory)
		req.SetQuery("currencyPair", pair)
		return req, nil

	case core.OpGetChart:
		return p.buildChartRequest(params)

	case core.OpGetCurrencies:
		return publicRequest(cmdCurrencies), nil

	case core.OpGetBalance:
		return tradingRequest(cmdBalances), nil

	case core.OpPlaceOrder:
		return p.buildPlaceOrderRequest(params)

	case core.OpCancelOrder:
		orderID, err := requireString(params, "order_id")
		if err != nil {
			return nil, err
		}
		req := tradingRequest(cmdCancelOrder)
		req.SetCommand("orderNumber", orderID)
		return req, nil

	case core.OpGetOpenOrders:
		pair, err := requireString(params, "pair")
		if err != nil {
			return nil, err
		}
		req := tradingRequest(cmdOpenOrders)
		req.SetCommand("currencyPair", pair)
		return req, nil

	case core.OpGetTradeHistory:
		pair, err := requireString(params, "pair")
		if err != nil {
			return nil, err
		}
		req := tradingRequest(cmdTradeHistory)
		req.SetCommand("currencyPair", pair)
		return req, nil

	default:
		return nil, fmt.Errorf("unsupported operation: %s", op)
	}
}

func (p *Protocol) buildChartRequest(params core.Params) (*core.Request, error) {
	pair, err := requireString(params, "pair")
	if err != nil {
		return nil, err
	}

	period := intParam(params, "period", 0)
	if !validPeriods[period] {
		return nil, core.NewInvalidParameterError("poloniex",
			fmt.Sprintf("invalid chart period %d: must be one of 300, 900, 1800, 7200, 14400, 86400", period))
	}

	req := publicRequest(cmdChartData)
	req.SetQuery("currencyPair", pair)
	req.SetQuery("period", strconv.Itoa(period))
	req.SetQuery("start", strconv.FormatInt(int64Param(params, "start", 0), 10))
	req.SetQuery("end", strconv.FormatInt(int64Param(params, "end", 9999999999), 10))
	return req, nil
}

func (p *Protocol) buildPlaceOrderRequest(params core.Params) (*core.Request, error) {
	pair, err := requireString(params, "pair")
	if err != nil {
		return nil, err
	}
	side, err := requireString(params, "side")
	if err != nil {
		return nil, err
	}
	rate, err := requireString(params, "rate")
	if err != nil {
		return nil, err
	}
	amount, err := requireString(params, "amount")
	if err != nil {
		return nil, err
	}

	command := cmdBuy
	if side == "sell" {
		command = cmdSell
	} else if side != "buy" {
		return nil, core.NewInvalidParameterError("poloniex",
			fmt.Sprintf("invalid order side %q: must be buy or sell", side))
	}

	req := tradingRequest(command)
	req.SetCommand("currencyPair", pair)
	req.SetCommand("rate", rate)
	req.SetCommand("amount", amount)
	return req, nil
}

// SignRequest serializes the command map with the nonce appended, signs the
// exact body bytes with HMAC-SHA512, and attaches the Key and Sign headers.
// Poloniex reproduces the body serialization to verify, so the body placed on
// the wire is exactly the string signed here.
func (p *Protocol) SignRequest(req *core.Request, creds core.Credentials, nonce int64) error {
	if creds.Secret == "" {
		return core.ErrMissingCredentials
	}

	fields := make(map[string]string, len(req.Command)+1)
	for k, v := range req.Command {
		fields[k] = v
	}
	fields["nonce"] = strconv.FormatInt(nonce, 10)

	body := signer.EncodeForm(fields)
	req.Body = body
	req.SetHeader("Content-Type", "application/x-www-form-urlencoded")
	req.SetHeader("Content-Length", strconv.Itoa(len(body)))
	req.SetHeader("Key", creds.Key)
	req.SetHeader("Sign", signer.Sign(signer.SHA512, body, creds.Secret))
	return nil
}

// ParseResponse normalizes a raw response into the canonical type for the
// operation. Success is decided in one place: a non-2xx status, a non-JSON
// body, or an error field in the body all fail here.
func (p *Protocol) ParseResponse(op core.Operation, statusCode int, body []byte) (any, error) {
	if err := core.CheckResponse(p.Name(), statusCode, body); err != nil {
		return nil, err
	}

	n := newNormalizer()
	switch op {
	case core.OpGetTicker:
		return n.tickers(body)
	case core.OpGetOrderBook:
		return n.orderBook(body)
	case core.OpGetTrades:
		return n.publicTrades(body)
	case core.OpGetChart:
		return n.candles(body)
	case core.OpGetCurrencies:
		return n.currencies(body)
	case core.OpGetBalance:
		return n.balances(body)
	case core.OpPlaceOrder:
		return n.placedOrder(body)
	case core.OpCancelOrder:
		return n.cancelResult(body)
	case core.OpGetOpenOrders:
		return n.openOrders(body)
	case core.OpGetTradeHistory:
		return n.privateTrades(body)
	default:
		return nil, fmt.Errorf("unsupported operation: %s", op)
	}
}

func publicRequest(command string) *core.Request {
	req := core.NewRequest(http.MethodGet, publicPath)
	req.SetQuery("command", command)
	return req
}

func tradingRequest(command string) *core.Request {
	req := core.NewRequest(http.MethodPost, tradingPath)
	req.SetCommand("command", command)
	req.SetRequireAuth(true)
	return req
}

func requireString(params core.Params, key string) (string, error) {
	val, ok := params[key]
	if !ok {
		return "", core.NewInvalidParameterError("poloniex", fmt.Sprintf("missing required parameter: %s", key))
	}
	str, ok := val.(string)
	if !ok || str == "" {
		return "", core.NewInvalidParameterError("poloniex", fmt.Sprintf("parameter %s must be a non-empty string", key))
	}
	return str, nil
}

func intParam(params core.Params, key string, def int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

func int64Param(params core.Params, key string, def int64) int64 {
	switch v := params[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return def
	}
}
