package ws

import "sync/atomic"

// ConnState is the lifecycle state of a feed connection.
type ConnState int32

const (
	// StateDisconnected indicates no active connection.
	StateDisconnected ConnState = iota
	// StateConnecting indicates a connection attempt is in flight.
	StateConnecting
	// StateConnected indicates an established connection.
	StateConnected
	// StateReconnecting indicates the feed dropped and is being redialed.
	StateReconnecting
	// StateClosed indicates the feed was shut down for good.
	StateClosed
)

// String returns the state name.
func (s ConnState) String() string {
	return [...]string{
		"disconnected",
		"connecting",
		"connected",
		"reconnecting",
		"closed",
	}[s]
}

// connState wraps atomic access to a ConnState.
type connState struct {
	v atomic.Int32
}

func (s *connState) load() ConnState {
	return ConnState(s.v.Load())
}

func (s *connState) store(state ConnState) {
	s.v.Store(int32(state))
}

func (s *connState) swap(old, new ConnState) bool {
	return s.v.CompareAndSwap(int32(old), int32(new))
}
