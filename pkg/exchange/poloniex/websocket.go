package poloniex

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/apd/v3"
	"github.com/rs/zerolog"

	"tradewire/internal/ws"
	"tradewire/pkg/core"
)

// WebsocketURL is the Poloniex push endpoint.
const WebsocketURL = "wss://api2.poloniex.com"

const (
	tickerChannel    = 1002
	heartbeatChannel = 1010
)

// TickerUpdate is one row of the channel 1002 push feed.
type TickerUpdate struct {
	// PairID is Poloniex's numeric currency pair identifier.
	PairID int64
	// Pair is the symbolic pair name when known, empty otherwise.
	Pair string
	// Ticker carries the updated market data.
	Ticker core.Ticker
	// Frozen reports whether trading on the pair is halted.
	Frozen bool
}

// TickerStream consumes the channel 1002 ticker feed. Poloniex keys push
// rows by numeric pair ID; callers supply the ID-to-pair mapping, usually
// parsed from a returnTicker response with ParsePairIDs.
type TickerStream struct {
	feed   *ws.Feed
	logger zerolog.Logger

	mu    sync.RWMutex
	names map[int64]string

	updates chan TickerUpdate
}

// NewTickerStream creates a stream with the given pair-ID mapping. A nil map
// is allowed; updates then carry only the numeric ID.
func NewTickerStream(names map[int64]string, logger zerolog.Logger) *TickerStream {
	s := &TickerStream{
		logger:  logger,
		names:   names,
		updates: make(chan TickerUpdate, 128),
	}
	s.feed = ws.NewFeed(ws.Options{
		URL:       WebsocketURL,
		Reconnect: true,
		OnFrame:   s.handleFrame,
		OnConnect: s.subscribe,
		Logger:    logger,
	})
	return s
}

// Connect dials the push endpoint and subscribes to the ticker channel.
func (s *TickerStream) Connect(ctx context.Context) error {
	return s.feed.Connect(ctx)
}

// Updates returns the stream of decoded ticker rows. The channel is never
// closed; stop consuming after Close.
func (s *TickerStream) Updates() <-chan TickerUpdate {
	return s.updates
}

// Close tears the feed down.
func (s *TickerStream) Close() error {
	return s.feed.Close()
}

// SetPairNames replaces the ID-to-pair mapping.
func (s *TickerStream) SetPairNames(names map[int64]string) {
	s.mu.Lock()
	s.names = names
	s.mu.Unlock()
}

func (s *TickerStream) subscribe() {
	cmd := map[string]any{"command": "subscribe", "channel": tickerChannel}
	if err := s.feed.Send(cmd); err != nil {
		s.logger.Error().Err(err).Msg("ticker subscribe failed")
	}
}

// handleFrame demultiplexes one push frame. Frames are JSON arrays of the
// form [channel, seq, payload]; heartbeats and subscribe acks carry no
// payload and are dropped.
func (s *TickerStream) handleFrame(data []byte) {
	var frame []json.RawMessage
	if err := sonic.Unmarshal(data, &frame); err != nil {
		s.logger.Debug().Err(err).Msg("unparseable push frame")
		return
	}
	if len(frame) == 0 {
		return
	}

	var channel int64
	if err := sonic.Unmarshal(frame[0], &channel); err != nil {
		return
	}
	if channel != tickerChannel || len(frame) < 3 {
		return
	}

	update, err := decodeTickerRow(frame[2])
	if err != nil {
		s.logger.Debug().Err(err).Msg("bad ticker row")
		return
	}

	s.mu.RLock()
	update.Pair = s.names[update.PairID]
	s.mu.RUnlock()
	update.Ticker.Pair = update.Pair

	select {
	case s.updates <- *update:
	default:
		s.logger.Warn().Msg("ticker buffer full, dropping update")
	}
}

// decodeTickerRow parses a channel 1002 payload:
// [pairID, last, lowestAsk, highestBid, percentChange, baseVolume,
// quoteVolume, isFrozen, high24hr, low24hr].
func decodeTickerRow(raw json.RawMessage) (*TickerUpdate, error) {
	var row []json.RawMessage
	if err := sonic.Unmarshal(raw, &row); err != nil {
		return nil, fmt.Errorf("unmarshal row: %w", err)
	}
	if len(row) < 10 {
		return nil, fmt.Errorf("short ticker row: %d fields", len(row))
	}

	update := &TickerUpdate{}
	if err := sonic.Unmarshal(row[0], &update.PairID); err != nil {
		return nil, fmt.Errorf("pair id: %w", err)
	}

	var err error
	if update.Ticker.Last, err = rowDecimal(row[1]); err != nil {
		return nil, fmt.Errorf("last: %w", err)
	}
	if update.Ticker.Ask, err = rowDecimal(row[2]); err != nil {
		return nil, fmt.Errorf("lowestAsk: %w", err)
	}
	if update.Ticker.Bid, err = rowDecimal(row[3]); err != nil {
		return nil, fmt.Errorf("highestBid: %w", err)
	}
	if update.Ticker.PercentChange, err = rowDecimal(row[4]); err != nil {
		return nil, fmt.Errorf("percentChange: %w", err)
	}
	if update.Ticker.BaseVolume, err = rowDecimal(row[5]); err != nil {
		return nil, fmt.Errorf("baseVolume: %w", err)
	}
	if update.Ticker.QuoteVolume, err = rowDecimal(row[6]); err != nil {
		return nil, fmt.Errorf("quoteVolume: %w", err)
	}
	var frozen json.Number
	if err := sonic.Unmarshal(row[7], &frozen); err != nil {
		return nil, fmt.Errorf("isFrozen: %w", err)
	}
	update.Frozen = frozen.String() != "0"
	if update.Ticker.High, err = rowDecimal(row[8]); err != nil {
		return nil, fmt.Errorf("high24hr: %w", err)
	}
	if update.Ticker.Low, err = rowDecimal(row[9]); err != nil {
		return nil, fmt.Errorf("low24hr: %w", err)
	}
	return update, nil
}

// rowDecimal accepts both quoted and bare numbers; the push feed is not
// consistent about which it sends.
func rowDecimal(raw json.RawMessage) (apd.Decimal, error) {
	var num json.Number
	if err := sonic.Unmarshal(raw, &num); err != nil {
		return apd.Decimal{}, err
	}
	return core.ParseDecimal(num.String())
}

// ParsePairIDs extracts the numeric-ID-to-pair mapping from a raw
// returnTicker response body.
func ParsePairIDs(body []byte) (map[int64]string, error) {
	var raw map[string]polTicker
	if err := sonic.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal ticker map: %w", err)
	}
	out := make(map[int64]string, len(raw))
	for pair, t := range raw {
		out[t.ID] = pair
	}
	return out, nil
}
