package ratelimit

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Pacer smooths request issuance with a token bucket. It is an opt-in
// client-side courtesy: the Window remains the admission authority, and the
// pacer never retries a request on the caller's behalf.
type Pacer struct {
	limiter *rate.Limiter
	waited  atomic.Int64
	allowed atomic.Int64
	denied  atomic.Int64
}

// NewPacer creates a pacer allowing requests per period with a burst equal to
// the request budget.
func NewPacer(requests int, period time.Duration) *Pacer {
	rps := float64(requests) / period.Seconds()
	return &Pacer{
		limiter: rate.NewLimiter(rate.Limit(rps), requests),
	}
}

// Wait blocks until the pacer releases a slot or the context is cancelled.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		p.denied.Add(1)
		return err
	}
	p.waited.Add(1)
	return nil
}

// Allow reports whether a request may be issued immediately.
func (p *Pacer) Allow() bool {
	if p.limiter.Allow() {
		p.allowed.Add(1)
		return true
	}
	p.denied.Add(1)
	return false
}

// SetLimit updates the pacing rate.
func (p *Pacer) SetLimit(requests int, period time.Duration) {
	rps := float64(requests) / period.Seconds()
	p.limiter.SetLimit(rate.Limit(rps))
	p.limiter.SetBurst(requests)
}

// Stats is a point-in-time capture of pacer counters.
type Stats struct {
	// Waited is the number of requests released after blocking.
	Waited int64
	// Allowed is the number of requests released immediately.
	Allowed int64
	// Denied is the number of requests refused or cancelled.
	Denied int64
}

// Stats returns a snapshot of the pacer counters.
func (p *Pacer) Stats() Stats {
	return Stats{
		Waited:  p.waited.Load(),
		Allowed: p.allowed.Load(),
		Denied:  p.denied.Load(),
	}
}
