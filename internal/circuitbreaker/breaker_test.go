package circuitbreaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestBreaker(cooldown time.Duration) (*Breaker, *time.Time) {
	b := New(Config{FailThreshold: 3, SuccessThreshold: 2, Cooldown: cooldown})
	now := time.Unix(1_700_000_000, 0)
	b.now = func() time.Time { return now }
	return b, &now
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	b, _ := newTestBreaker(time.Second)

	for i := 0; i < 3; i++ {
		assert.True(t, b.Allow())
		b.Record(false)
	}

	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker(time.Second)

	b.Record(false)
	b.Record(false)
	b.Record(true)
	b.Record(false)
	b.Record(false)

	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenAfterCooldown(t *testing.T) {
	b, now := newTestBreaker(time.Second)

	for i := 0; i < 3; i++ {
		b.Record(false)
	}
	assert.False(t, b.Allow())

	*now = now.Add(2 * time.Second)

	assert.True(t, b.Allow(), "cooldown elapsed, probe should be admitted")
	assert.Equal(t, StateHalfOpen, b.State())
}

func TestBreaker_HalfOpenReclosesOnSuccesses(t *testing.T) {
	b, now := newTestBreaker(time.Second)

	for i := 0; i < 3; i++ {
		b.Record(false)
	}
	*now = now.Add(2 * time.Second)
	b.Allow()

	b.Record(true)
	b.Record(true)

	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenReopensOnFailure(t *testing.T) {
	b, now := newTestBreaker(time.Second)

	for i := 0; i < 3; i++ {
		b.Record(false)
	}
	*now = now.Add(2 * time.Second)
	b.Allow()

	b.Record(false)

	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreaker_Reset(t *testing.T) {
	b, _ := newTestBreaker(time.Minute)

	for i := 0; i < 3; i++ {
		b.Record(false)
	}
	assert.Equal(t, StateOpen, b.State())

	b.Reset()

	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}
