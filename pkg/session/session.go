// Package session implements the shared dispatch layer for exchange calls:
// rate limiting, nonce generation, request signing, and response
// normalization.
package session

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/rs/zerolog"

	"tradewire/internal/circuitbreaker"
	"tradewire/internal/credentials"
	"tradewire/internal/ratelimit"
	"tradewire/internal/transport"
	"tradewire/pkg/core"
)

// State represents the lifecycle state of a Session.
type State int

const (
	// StateActive indicates a session ready to process requests.
	StateActive State = iota
	// StateClosed indicates a session that has been shut down.
	StateClosed
)

// String returns the string representation of the State.
func (s State) String() string {
	return [...]string{"ACTIVE", "CLOSED"}[s]
}

// nonceScale spreads millisecond timestamps so same-millisecond requests can
// be offset without collision.
const nonceScale = 100

// Session is a stateful client for one exchange. It owns the per-class rate
// windows and the nonce sequence; separate sessions targeting the same
// account do not coordinate, which is a known limitation of the protocol
// family rather than something to paper over here.
//
// Sessions are safe for concurrent use. The admission decision (credentials
// precheck, window mutation, nonce derivation, signing) is taken atomically
// under one lock before any network I/O, so admission reflects issuance
// order, never response order.
type Session struct {
	mu       sync.RWMutex
	config   *core.Config
	protocol core.Protocol
	creds    *core.Credentials
	breaker  *circuitbreaker.Breaker
	cache    *cache
	client   *transport.Client
	logger   zerolog.Logger
	state    State

	dispatchMu    sync.Mutex
	publicWindow  *ratelimit.Window
	tradingWindow *ratelimit.Window
	publicPacer   *ratelimit.Pacer
	tradingPacer  *ratelimit.Pacer
	limits        core.RateLimits
	lastNonce     int64

	clock func() time.Time
}

// New creates a session for the given protocol. Credentials resolve once
// here: explicit config credentials win, otherwise <EXCHANGE>_KEY and
// <EXCHANGE>_SECRET are read from the environment. No credentials is a valid
// state restricting the session to public operations.
func New(config *core.Config, protocol core.Protocol) (*Session, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if protocol == nil {
		return nil, fmt.Errorf("protocol is required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	logger := zerolog.New(os.Stderr).With().
		Timestamp().
		Str("exchange", protocol.Name()).
		Logger()
	if level, err := zerolog.ParseLevel(config.LogLevel); err == nil && config.LogLevel != "" {
		logger = logger.Level(level)
	}

	limits := protocol.RateLimits()
	if config.Limits.PublicPerSecond > 0 {
		limits.PublicPerSecond = config.Limits.PublicPerSecond
	}
	if config.Limits.TradingPerSecond > 0 {
		limits.TradingPerSecond = config.Limits.TradingPerSecond
	}

	var breaker *circuitbreaker.Breaker
	if config.CircuitBreakerEnabled {
		breaker = circuitbreaker.New(circuitbreaker.Config{
			FailThreshold:    config.CircuitBreakerFailThreshold,
			SuccessThreshold: config.CircuitBreakerSuccessThreshold,
			Cooldown:         config.CircuitBreakerTimeout,
		})
	}

	var c *cache
	if config.CacheEnabled {
		c = newCache(config.CacheTTL)
	}

	creds := credentials.Resolve(protocol.Name(), config.Credentials)
	if creds != nil {
		logger.Debug().Str("key", credentials.Mask(creds.Key)).Msg("credentials configured")
	}

	var publicPacer, tradingPacer *ratelimit.Pacer
	if config.PacingEnabled {
		publicPacer = ratelimit.NewPacer(limits.PublicPerSecond, time.Second)
		tradingPacer = ratelimit.NewPacer(limits.TradingPerSecond, time.Second)
	}

	return &Session{
		config:        config,
		protocol:      protocol,
		creds:         creds,
		breaker:       breaker,
		cache:         c,
		client:        transport.NewClient(protocol.BaseURL(config.Sandbox), config.Timeout, logger),
		logger:        logger,
		state:         StateActive,
		publicWindow:  ratelimit.NewWindow(),
		tradingWindow: ratelimit.NewWindow(),
		publicPacer:   publicPacer,
		tradingPacer:  tradingPacer,
		limits:        limits,
		clock:         time.Now,
	}, nil
}

// Do executes an operation against the exchange. Errors are surfaced to the
// caller unretried: a rate-limit rejection, credential failure, transport
// failure, or API error all propagate as-is.
func (s *Session) Do(ctx context.Context, op core.Operation, params core.Params) (any, error) {
	s.mu.RLock()
	closed := s.state == StateClosed
	s.mu.RUnlock()
	if closed {
		return nil, core.ErrSessionClosed
	}

	req, err := s.protocol.BuildRequest(op, params)
	if err != nil {
		return nil, err
	}

	cacheKey := ""
	if !req.RequireAuth && s.cache != nil {
		cacheKey = req.Path + "?" + encodeQuery(req.Query)
		if cached, ok := s.cache.get(cacheKey); ok {
			s.logger.Debug().Str("cache_key", cacheKey).Msg("cache hit")
			return cached, nil
		}
	}

	// Pacing happens before admission so a smoothed caller arrives at the
	// window with its budget intact. Cache hits above never pace.
	if pacer := s.pacerFor(req.Class); pacer != nil {
		if err := pacer.Wait(ctx); err != nil {
			return nil, err
		}
	}

	if err := s.admit(req); err != nil {
		return nil, err
	}

	if s.breaker != nil && !s.breaker.Allow() {
		return nil, fmt.Errorf("%s: %w", s.protocol.Name(), core.ErrCircuitOpen)
	}

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		if s.breaker != nil {
			s.breaker.Record(false)
		}
		return nil, core.NewExchangeError(s.protocol.Name(), core.ErrorTypeTransport, 0, err.Error())
	}

	result, err := s.protocol.ParseResponse(op, resp.StatusCode, resp.Body)
	if s.breaker != nil {
		s.breaker.Record(err == nil)
	}
	if err != nil {
		return nil, err
	}

	if cacheKey != "" && result != nil {
		s.cache.set(cacheKey, result)
	}

	return result, nil
}

// pacerFor returns the pacer for a rate class, or nil when pacing is off.
func (s *Session) pacerFor(class core.RateClass) *ratelimit.Pacer {
	if class == core.ClassTrading {
		return s.tradingPacer
	}
	return s.publicPacer
}

// admit runs the synchronous pre-network phase: credentials precheck, window
// check-and-record, nonce derivation, and signing, all under one lock.
func (s *Session) admit(req *core.Request) error {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	if req.RequireAuth && s.creds.IsZero() {
		// Checked before the window so a credential-less call never
		// consumes a trading slot.
		return fmt.Errorf("%s: %w", s.protocol.Name(), core.ErrMissingCredentials)
	}

	window, limit := s.publicWindow, s.limits.PublicPerSecond
	if req.Class == core.ClassTrading {
		window, limit = s.tradingWindow, s.limits.TradingPerSecond
	}

	ts := s.clock().UnixMilli()
	admitted, collisions := window.CheckAndRecord(ts, limit)
	if !admitted {
		s.logger.Warn().
			Int64("ts", ts).
			Int("limit", limit).
			Str("class", req.Class.String()).
			Msg("rate limit exceeded")
		return core.NewRateLimitError(s.protocol.Name(), req.Class, limit)
	}

	if req.RequireAuth {
		nonce := ts*nonceScale + int64(collisions)
		if nonce <= s.lastNonce {
			nonce = s.lastNonce + 1
		}
		s.lastNonce = nonce

		if err := s.protocol.SignRequest(req, *s.creds, nonce); err != nil {
			return fmt.Errorf("sign request: %w", err)
		}
	}

	return nil
}

// encodeQuery renders the query in sorted-key order so identical requests
// always map to the same cache key.
func encodeQuery(query map[string]string) string {
	if len(query) == 0 {
		return ""
	}
	values := make(url.Values, len(query))
	for k, v := range query {
		values.Set(k, v)
	}
	return values.Encode()
}

// Close shuts down the session. Further calls fail with ErrSessionClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return nil
	}
	s.state = StateClosed
	if s.cache != nil {
		s.cache.clear()
	}
	return s.client.Close()
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Protocol returns the exchange protocol backing the session.
func (s *Session) Protocol() core.Protocol {
	return s.protocol
}

// Authenticated reports whether the session holds credentials.
func (s *Session) Authenticated() bool {
	return !s.creds.IsZero()
}

// GetTicker fetches the 24-hour ticker for a currency pair. Exchanges that
// only publish an all-pairs ticker map are filtered down to the requested
// pair here.
func (s *Session) GetTicker(ctx context.Context, pair string) (*core.Ticker, error) {
	result, err := s.Do(ctx, core.OpGetTicker, core.Params{"pair": pair})
	if err != nil {
		return nil, err
	}
	switch v := result.(type) {
	case *core.Ticker:
		v.Pair = pair
		return v, nil
	case map[string]core.Ticker:
		t, ok := v[pair]
		if !ok {
			return nil, core.NewExchangeError(s.protocol.Name(), core.ErrorTypeAPI, 200,
				fmt.Sprintf("no ticker for pair %s", pair))
		}
		return &t, nil
	default:
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
}

// GetOrderBook fetches the order book for a pair with the given depth.
func (s *Session) GetOrderBook(ctx context.Context, pair string, depth int) (*core.OrderBook, error) {
	result, err := s.Do(ctx, core.OpGetOrderBook, core.Params{"pair": pair, "depth": depth})
	if err != nil {
		return nil, err
	}
	book, ok := result.(*core.OrderBook)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	book.Pair = pair
	return book, nil
}

// GetTrades fetches the public trade history for a pair.
func (s *Session) GetTrades(ctx context.Context, pair string) ([]core.Trade, error) {
	result, err := s.Do(ctx, core.OpGetTrades, core.Params{"pair": pair})
	if err != nil {
		return nil, err
	}
	trades, ok := result.([]core.Trade)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	for i := range trades {
		trades[i].Pair = pair
	}
	return trades, nil
}

// GetChart fetches candlestick data for a pair. The period is in seconds and
// is validated locally against the exchange's supported set before any
// network call.
func (s *Session) GetChart(ctx context.Context, pair string, period int, start, end time.Time) ([]core.Candle, error) {
	result, err := s.Do(ctx, core.OpGetChart, core.Params{
		"pair":   pair,
		"period": period,
		"start":  start.Unix(),
		"end":    end.Unix(),
	})
	if err != nil {
		return nil, err
	}
	candles, ok := result.([]core.Candle)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	for i := range candles {
		candles[i].Pair = pair
		candles[i].Period = period
	}
	return candles, nil
}

// GetCurrencies fetches the assets listed on the exchange.
func (s *Session) GetCurrencies(ctx context.Context) ([]core.Currency, error) {
	result, err := s.Do(ctx, core.OpGetCurrencies, nil)
	if err != nil {
		return nil, err
	}
	currencies, ok := result.([]core.Currency)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	return currencies, nil
}

// GetBalances fetches account balances. Requires credentials.
func (s *Session) GetBalances(ctx context.Context) ([]core.Balance, error) {
	result, err := s.Do(ctx, core.OpGetBalance, nil)
	if err != nil {
		return nil, err
	}
	balances, ok := result.([]core.Balance)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	return balances, nil
}

// Buy places a limit buy order. Rate and amount are formatted with eight
// fractional digits before entering the signed body. Requires credentials.
func (s *Session) Buy(ctx context.Context, pair string, rate, amount *apd.Decimal) (*core.Order, error) {
	return s.placeOrder(ctx, core.SideBuy, pair, rate, amount)
}

// Sell places a limit sell order. Requires credentials.
func (s *Session) Sell(ctx context.Context, pair string, rate, amount *apd.Decimal) (*core.Order, error) {
	return s.placeOrder(ctx, core.SideSell, pair, rate, amount)
}

func (s *Session) placeOrder(ctx context.Context, side core.OrderSide, pair string, rate, amount *apd.Decimal) (*core.Order, error) {
	result, err := s.Do(ctx, core.OpPlaceOrder, core.Params{
		"pair":   pair,
		"side":   side.String(),
		"rate":   core.FormatAmount(rate),
		"amount": core.FormatAmount(amount),
	})
	if err != nil {
		return nil, err
	}
	order, ok := result.(*core.Order)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	// Legacy APIs echo only the order number; fill in what we sent.
	order.Pair = pair
	order.Side = side
	if order.Price.IsZero() {
		order.Price = *rate
	}
	if order.Amount.IsZero() {
		order.Amount = *amount
	}
	return order, nil
}

// CancelOrder cancels an order by its exchange-assigned number. Requires
// credentials.
func (s *Session) CancelOrder(ctx context.Context, orderID string) error {
	_, err := s.Do(ctx, core.OpCancelOrder, core.Params{"order_id": orderID})
	return err
}

// GetOpenOrders fetches open orders for a pair. Requires credentials.
func (s *Session) GetOpenOrders(ctx context.Context, pair string) ([]core.Order, error) {
	result, err := s.Do(ctx, core.OpGetOpenOrders, core.Params{"pair": pair})
	if err != nil {
		return nil, err
	}
	orders, ok := result.([]core.Order)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	for i := range orders {
		orders[i].Pair = pair
	}
	return orders, nil
}

// GetTradeHistory fetches the account's executed trades for a pair. Requires
// credentials.
func (s *Session) GetTradeHistory(ctx context.Context, pair string) ([]core.Trade, error) {
	result, err := s.Do(ctx, core.OpGetTradeHistory, core.Params{"pair": pair})
	if err != nil {
		return nil, err
	}
	trades, ok := result.([]core.Trade)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}
	for i := range trades {
		trades[i].Pair = pair
	}
	return trades, nil
}
