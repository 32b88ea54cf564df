package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPacer_Allow(t *testing.T) {
	p := NewPacer(5, time.Second)

	for i := 0; i < 5; i++ {
		assert.True(t, p.Allow(), "request %d should be allowed", i+1)
	}
	assert.False(t, p.Allow(), "request 6 should be denied")
}

func TestPacer_Wait(t *testing.T) {
	p := NewPacer(5, 100*time.Millisecond)

	for i := 0; i < 5; i++ {
		assert.NoError(t, p.Wait(context.Background()))
	}
}

func TestPacer_WaitContextCancellation(t *testing.T) {
	p := NewPacer(1, time.Second)

	assert.NoError(t, p.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.Error(t, p.Wait(ctx))
}

func TestPacer_SetLimit(t *testing.T) {
	p := NewPacer(1, time.Minute)

	assert.True(t, p.Allow())
	assert.False(t, p.Allow())

	p.SetLimit(1000, time.Second)
	time.Sleep(50 * time.Millisecond)

	assert.True(t, p.Allow(), "should allow after limit increase")
}

func TestPacer_Stats(t *testing.T) {
	p := NewPacer(2, time.Second)

	p.Allow()
	p.Allow()
	p.Allow()

	stats := p.Stats()
	assert.Equal(t, int64(2), stats.Allowed)
	assert.Equal(t, int64(1), stats.Denied)
}
