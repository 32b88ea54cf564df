// Package ws maintains a websocket feed connection: dial, keepalive,
// exponential-backoff redial, and raw frame delivery. Exchanges that
// multiplex channels inside their frames demultiplex above this layer.
package ws

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/lxzan/gws"
	"github.com/rs/zerolog"
)

// Options configures a Feed. OnFrame receives every complete text frame and
// must not retain the slice past its return.
type Options struct {
	// URL is the websocket endpoint.
	URL string
	// Reconnect enables automatic redial after a dropped connection.
	Reconnect bool
	// BaseWait is the first redial delay; it doubles per attempt up to MaxWait.
	BaseWait time.Duration
	// MaxWait caps the redial delay.
	MaxWait time.Duration
	// PingInterval spaces keepalive pings; the read deadline is twice this.
	PingInterval time.Duration
	// OnFrame is called for every received text frame.
	OnFrame func(data []byte)
	// OnConnect is called after each successful dial, including redials.
	// Subscription commands are replayed from here.
	OnConnect func()

	Logger zerolog.Logger
}

// Feed is a managed websocket connection.
type Feed struct {
	opts  Options
	state connState

	mu       sync.RWMutex
	conn     *gws.Conn
	ready    chan struct{}
	attempts int

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewFeed creates a feed for the given options. Zero durations get defaults.
func NewFeed(opts Options) *Feed {
	if opts.BaseWait == 0 {
		opts.BaseWait = time.Second
	}
	if opts.MaxWait == 0 {
		opts.MaxWait = 30 * time.Second
	}
	if opts.PingInterval == 0 {
		opts.PingInterval = 15 * time.Second
	}
	f := &Feed{
		opts:  opts,
		ready: make(chan struct{}),
		stop:  make(chan struct{}),
	}
	f.state.store(StateDisconnected)
	return f
}

// Connect dials the endpoint and blocks until the connection is open, the
// context expires, or the feed is closed.
func (f *Feed) Connect(ctx context.Context) error {
	if !f.state.swap(StateDisconnected, StateConnecting) {
		if f.state.load() == StateConnected {
			return nil
		}
		return fmt.Errorf("connect in state %s", f.state.load())
	}
	return f.dial(ctx)
}

func (f *Feed) dial(ctx context.Context) error {
	socket, _, err := gws.NewClient(&frameHandler{feed: f}, &gws.ClientOption{
		Addr: f.opts.URL,
	})
	if err != nil {
		f.state.store(StateDisconnected)
		return fmt.Errorf("dial %s: %w", f.opts.URL, err)
	}

	f.mu.Lock()
	f.conn = socket
	ready := f.ready
	f.mu.Unlock()

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		socket.ReadLoop()
	}()
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		f.keepalive()
	}()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		_ = socket.NetConn().Close()
		f.state.store(StateDisconnected)
		return ctx.Err()
	case <-f.stop:
		_ = socket.NetConn().Close()
		return fmt.Errorf("feed closed")
	}
}

func (f *Feed) keepalive() {
	ticker := time.NewTicker(f.opts.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			f.mu.RLock()
			conn := f.conn
			f.mu.RUnlock()
			if conn != nil && f.state.load() == StateConnected {
				_ = conn.WritePing(nil)
			}
		case <-f.stop:
			return
		}
	}
}

// Send marshals v and writes it as a text frame.
func (f *Feed) Send(v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.conn == nil || f.state.load() != StateConnected {
		return fmt.Errorf("feed not connected")
	}
	return f.conn.WriteMessage(gws.OpcodeText, data)
}

// State returns the current connection state.
func (f *Feed) State() ConnState {
	return f.state.load()
}

// Close shuts the feed down permanently.
func (f *Feed) Close() error {
	prev := f.state.load()
	f.state.store(StateClosed)
	if prev == StateClosed {
		return nil
	}

	close(f.stop)
	f.mu.Lock()
	if f.conn != nil {
		_ = f.conn.NetConn().Close()
	}
	f.mu.Unlock()

	f.wg.Wait()
	return nil
}

func (f *Feed) redial() {
	if !f.state.swap(StateDisconnected, StateReconnecting) {
		return
	}

	for {
		select {
		case <-f.stop:
			return
		default:
		}

		f.mu.Lock()
		attempt := f.attempts
		f.attempts++
		f.mu.Unlock()

		wait := min(f.opts.BaseWait*time.Duration(1<<uint(attempt)), f.opts.MaxWait)
		f.opts.Logger.Info().
			Dur("wait", wait).
			Int("attempt", attempt+1).
			Str("url", f.opts.URL).
			Msg("redialing feed")

		select {
		case <-time.After(wait):
		case <-f.stop:
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := f.dial(ctx)
		cancel()
		if err != nil {
			f.opts.Logger.Error().Err(err).Int("attempt", attempt+1).Msg("redial failed")
			f.state.store(StateReconnecting)
			continue
		}
		return
	}
}

type frameHandler struct {
	feed *Feed
}

func (h *frameHandler) OnOpen(socket *gws.Conn) {
	f := h.feed
	f.state.store(StateConnected)

	f.mu.Lock()
	f.attempts = 0
	select {
	case <-f.ready:
	default:
		close(f.ready)
	}
	f.mu.Unlock()

	_ = socket.SetDeadline(time.Now().Add(2 * f.opts.PingInterval))
	f.opts.Logger.Info().Str("url", f.opts.URL).Msg("feed connected")

	if f.opts.OnConnect != nil {
		go f.opts.OnConnect()
	}
}

func (h *frameHandler) OnClose(socket *gws.Conn, err error) {
	f := h.feed
	if f.state.load() == StateClosed {
		return
	}
	f.state.store(StateDisconnected)

	f.mu.Lock()
	f.ready = make(chan struct{})
	f.mu.Unlock()

	f.opts.Logger.Warn().Err(err).Str("url", f.opts.URL).Msg("feed dropped")

	if f.opts.Reconnect {
		select {
		case <-f.stop:
		default:
			go f.redial()
		}
	}
}

func (h *frameHandler) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(2 * h.feed.opts.PingInterval))
	_ = socket.WritePong(nil)
}

func (h *frameHandler) OnPong(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(2 * h.feed.opts.PingInterval))
}

func (h *frameHandler) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()
	data := message.Bytes()
	if len(data) == 0 || h.feed.opts.OnFrame == nil {
		return
	}
	h.feed.opts.OnFrame(data)
}
