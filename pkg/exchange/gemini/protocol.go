package gemini

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"tradewire/internal/signer"
	"tradewire/pkg/core"
)

const (
	// ProductionURL is the live Gemini REST endpoint.
	ProductionURL = "https://api.gemini.com"
	// SandboxURL is the Gemini test environment.
	SandboxURL = "https://api.sandbox.gemini.com"
)

// timeFrames maps candle periods in seconds to Gemini time frame names.
// Periods outside this set are rejected locally.
var timeFrames = map[int]string{
	60:    "1m",
	300:   "5m",
	900:   "15m",
	1800:  "30m",
	3600:  "1hr",
	21600: "6hr",
	86400: "1day",
}

// Protocol implements core.Protocol for the Gemini API.
type Protocol struct{}

// New creates a Gemini protocol instance.
func New() *Protocol {
	return &Protocol{}
}

// Name returns the protocol identifier "gemini".
func (p *Protocol) Name() string {
	return "gemini"
}

// Version returns the API version string.
func (p *Protocol) Version() string {
	return "1"
}

// BaseURL returns the REST endpoint for the chosen environment.
func (p *Protocol) BaseURL(sandbox bool) string {
	if sandbox {
		return SandboxURL
	}
	return ProductionURL
}

// RateLimits returns Gemini's public and private request budgets.
func (p *Protocol) RateLimits() core.RateLimits {
	return core.RateLimits{
		PublicPerSecond:  2,
		TradingPerSecond: 10,
	}
}

// SupportedOperations returns the operations this protocol implements.
// Gemini has no currency listing endpoint in this API family.
func (p *Protocol) SupportedOperations() []core.Operation {
	return []core.Operation{
		core.OpGetTicker,
		core.OpGetOrderBook,
		core.OpGetTrades,
		core.OpGetChart,
		core.OpGetBalance,
		core.OpPlaceOrder,
		core.OpCancelOrder,
		core.OpGetOpenOrders,
		core.OpGetTradeHistory,
	}
}

// BuildRequest constructs the envelope for an operation. Private requests
// carry their endpoint path inside the command map as "request", which
// Gemini requires to be part of the signed payload.
func (p *Protocol) BuildRequest(op core.Operation, params core.Params) (*core.Request, error) {
	switch op {
	case core.OpGetTicker:
		symbol, err := requireSymbol(params)
		if err != nil {
			return nil, err
		}
		return core.NewRequest(http.MethodGet, "/v1/pubticker/"+symbol), nil

	case core.OpGetOrderBook:
		symbol, err := requireSymbol(params)
		if err != nil {
			return nil, err
		}
		req := core.NewRequest(http.MethodGet, "/v1/book/"+symbol)
		if depth, ok := params["depth"].(int); ok && depth > 0 {
			req.SetQuery("limit_bids", strconv.Itoa(depth))
			req.SetQuery("limit_asks", strconv.Itoa(depth))
		}
		return req, nil

	case core.OpGetTrades:
		symbol, err := requireSymbol(params)
		if err != nil {
			return nil, err
		}
		return core.NewRequest(http.MethodGet, "/v1/trades/"+symbol), nil

	case core.OpGetChart:
		return p.buildChartRequest(params)

	case core.OpGetBalance:
		return tradingRequest("/v1/balances"), nil

	case core.OpPlaceOrder:
		return p.buildPlaceOrderRequest(params)

	case core.OpCancelOrder:
		orderID, err := requireString(params, "order_id")
		if err != nil {
			return nil, err
		}
		req := tradingRequest("/v1/order/cancel")
		req.SetCommand("order_id", orderID)
		return req, nil

	case core.OpGetOpenOrders:
		return tradingRequest("/v1/orders"), nil

	case core.OpGetTradeHistory:
		symbol, err := requireSymbol(params)
		if err != nil {
			return nil, err
		}
		req := tradingRequest("/v1/mytrades")
		req.SetCommand("symbol", symbol)
		return req, nil

	default:
		return nil, fmt.Errorf("unsupported operation: %s", op)
	}
}

func (p *Protocol) buildChartRequest(params core.Params) (*core.Request, error) {
	symbol, err := requireSymbol(params)
	if err != nil {
		return nil, err
	}

	period := 0
	switch v := params["period"].(type) {
	case int:
		period = v
	case int64:
		period = int(v)
	case float64:
		period = int(v)
	}
	tf, ok := timeFrames[period]
	if !ok {
		return nil, core.NewInvalidParameterError("gemini",
			fmt.Sprintf("invalid chart period %d: must be one of 60, 300, 900, 1800, 3600, 21600, 86400", period))
	}

	return core.NewRequest(http.MethodGet, "/v2/candles/"+symbol+"/"+tf), nil
}

func (p *Protocol) buildPlaceOrderRequest(params core.Params) (*core.Request, error) {
	symbol, err := requireSymbol(params)
	if err != nil {
		return nil, err
	}
	side, err := requireString(params, "side")
	if err != nil {
		return nil, err
	}
	if side != "buy" && side != "sell" {
		return nil, core.NewInvalidParameterError("gemini",
			fmt.Sprintf("invalid order side %q: must be buy or sell", side))
	}
	rate, err := requireString(params, "rate")
	if err != nil {
		return nil, err
	}
	amount, err := requireString(params, "amount")
	if err != nil {
		return nil, err
	}

	req := tradingRequest("/v1/order/new")
	req.SetCommand("symbol", symbol)
	req.SetCommand("side", side)
	req.SetCommand("price", rate)
	req.SetCommand("amount", amount)
	req.SetCommand("type", "exchange limit")
	return req, nil
}

// SignRequest builds the base64 JSON payload with the nonce embedded, signs
// it with HMAC-SHA384, and attaches the X-GEMINI headers. The payload is
// marshaled with sorted keys so the signature is reproducible; the signed
// message is the base64 string exactly as transmitted.
func (p *Protocol) SignRequest(req *core.Request, creds core.Credentials, nonce int64) error {
	if creds.Secret == "" {
		return core.ErrMissingCredentials
	}

	payload := make(map[string]string, len(req.Command)+2)
	for k, v := range req.Command {
		payload[k] = v
	}
	payload["request"] = req.Path
	payload["nonce"] = strconv.FormatInt(nonce, 10)

	raw, err := sonic.ConfigStd.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)

	req.SetHeader("Content-Type", "text/plain")
	req.SetHeader("Content-Length", "0")
	req.SetHeader("X-GEMINI-APIKEY", creds.Key)
	req.SetHeader("X-GEMINI-PAYLOAD", encoded)
	req.SetHeader("X-GEMINI-SIGNATURE", signer.Sign(signer.SHA384, encoded, creds.Secret))
	req.SetHeader("Cache-Control", "no-cache")
	return nil
}

// ParseResponse normalizes a raw response into the canonical type for the
// operation.
func (p *Protocol) ParseResponse(op core.Operation, statusCode int, body []byte) (any, error) {
	if err := core.CheckResponse(p.Name(), statusCode, body); err != nil {
		return nil, err
	}

	n := newNormalizer()
	switch op {
	case core.OpGetTicker:
		return n.ticker(body)
	case core.OpGetOrderBook:
		return n.orderBook(body)
	case core.OpGetTrades:
		return n.trades(body)
	case core.OpGetChart:
		return n.candles(body)
	case core.OpGetBalance:
		return n.balances(body)
	case core.OpPlaceOrder:
		return n.order(body)
	case core.OpCancelOrder:
		return n.cancelResult(body)
	case core.OpGetOpenOrders:
		return n.orders(body)
	case core.OpGetTradeHistory:
		return n.myTrades(body)
	default:
		return nil, fmt.Errorf("unsupported operation: %s", op)
	}
}

func tradingRequest(path string) *core.Request {
	req := core.NewRequest(http.MethodPost, path)
	req.SetRequireAuth(true)
	return req
}

// formatSymbol converts a canonical pair like "BTC_USD" to Gemini's "btcusd".
func formatSymbol(pair string) string {
	return strings.ToLower(strings.ReplaceAll(pair, "_", ""))
}

func requireSymbol(params core.Params) (string, error) {
	pair, err := requireString(params, "pair")
	if err != nil {
		return "", err
	}
	return formatSymbol(pair), nil
}

func requireString(params core.Params, key string) (string, error) {
	val, ok := params[key]
	if !ok {
		return "", core.NewInvalidParameterError("gemini", fmt.Sprintf("missing required parameter: %s", key))
	}
	str, ok := val.(string)
	if !ok || str == "" {
		return "", core.NewInvalidParameterError("gemini", fmt.Sprintf("parameter %s must be a non-empty string", key))
	}
	return str, nil
}
