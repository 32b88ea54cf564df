// Package ratelimit provides the sliding-window request accounting shared by
// all exchange sessions, plus an optional token-bucket pacer.
package ratelimit

import "sync"

// WindowMillis is the duration of the trailing admission window.
const WindowMillis = 1000

// Window is a sliding one-second counter over request timestamps for a single
// rate class. Entries are millisecond timestamps in insertion order, which is
// chronological order. It is safe for concurrent use; the append, eviction,
// and count of a check happen atomically under one lock.
type Window struct {
	mu     sync.Mutex
	stamps []int64
}

// NewWindow creates an empty window.
func NewWindow() *Window {
	return &Window{}
}

// CheckAndRecord records a request attempt at ts (milliseconds since epoch)
// and reports whether it is admitted under limit requests per trailing
// second. The timestamp is recorded even when the attempt is rejected, so a
// burst of rejected retries keeps consuming window slots instead of slipping
// past the limiter.
//
// The returned collision count is the number of earlier recorded attempts
// sharing the exact same millisecond, used as the nonce collision offset.
//
// Entries exactly WindowMillis old are expired: the boundary is open on the
// old side.
func (w *Window) CheckAndRecord(ts int64, limit int) (admitted bool, collisions int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, s := range w.stamps {
		if s == ts {
			collisions++
		}
	}

	w.stamps = append(w.stamps, ts)
	w.evict(ts)

	return len(w.stamps) <= limit, collisions
}

// evict drops entries at or beyond the window boundary relative to ts.
// Callers must hold w.mu.
func (w *Window) evict(ts int64) {
	cutoff := ts - WindowMillis
	i := 0
	for i < len(w.stamps) && w.stamps[i] <= cutoff {
		i++
	}
	if i > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[i:]...)
	}
}

// Len returns the number of recorded attempts still inside the window as of
// the latest recorded timestamp.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.stamps)
}

// Reset discards all recorded attempts.
func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stamps = w.stamps[:0]
}
