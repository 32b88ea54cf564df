package ratelimit

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindow_BurstRejectsOverLimit(t *testing.T) {
	w := NewWindow()

	base := int64(1_700_000_000_000)
	for i := 0; i < 6; i++ {
		ok, _ := w.CheckAndRecord(base+int64(i*10), 6)
		assert.True(t, ok, "request %d should be admitted", i+1)
	}

	ok, _ := w.CheckAndRecord(base+60, 6)
	assert.False(t, ok, "request 7 within the window should be rejected")
}

func TestWindow_SteadySpacingAlwaysAdmits(t *testing.T) {
	w := NewWindow()

	// 6/sec limit, calls spaced 500ms apart indefinitely.
	ts := int64(1_700_000_000_000)
	for i := 0; i < 100; i++ {
		ok, _ := w.CheckAndRecord(ts, 6)
		assert.True(t, ok, "call %d at steady spacing should be admitted", i+1)
		ts += 500
	}
}

func TestWindow_ExactBoundaryIsExpired(t *testing.T) {
	w := NewWindow()

	base := int64(1_700_000_000_000)
	for i := 0; i < 3; i++ {
		w.CheckAndRecord(base, 3)
	}

	// An entry exactly 1000ms old no longer counts.
	ok, _ := w.CheckAndRecord(base+WindowMillis, 3)
	assert.True(t, ok)
	assert.Equal(t, 1, w.Len(), "boundary entries should have been evicted")

	// 999ms later the original entries are still live.
	w.Reset()
	for i := 0; i < 3; i++ {
		w.CheckAndRecord(base, 3)
	}
	ok, _ = w.CheckAndRecord(base+WindowMillis-1, 3)
	assert.False(t, ok, "entries 999ms old still count against the limit")
}

func TestWindow_RejectedAttemptsStillRecorded(t *testing.T) {
	w := NewWindow()

	base := int64(1_700_000_000_000)
	for i := 0; i < 2; i++ {
		w.CheckAndRecord(base+int64(i), 2)
	}

	ok, _ := w.CheckAndRecord(base+2, 2)
	assert.False(t, ok)
	assert.Equal(t, 3, w.Len(), "rejected attempt must consume a window slot")

	// The recorded rejection keeps the window saturated against retries.
	ok, _ = w.CheckAndRecord(base+3, 2)
	assert.False(t, ok)
}

func TestWindow_CollisionCount(t *testing.T) {
	w := NewWindow()

	ts := int64(1_700_000_000_000)

	_, c := w.CheckAndRecord(ts, 10)
	assert.Equal(t, 0, c)

	_, c = w.CheckAndRecord(ts, 10)
	assert.Equal(t, 1, c)

	_, c = w.CheckAndRecord(ts, 10)
	assert.Equal(t, 2, c)

	_, c = w.CheckAndRecord(ts+1, 10)
	assert.Equal(t, 0, c, "a new millisecond restarts the collision count")
}

func TestWindow_CollisionCountedEvenWhenRejected(t *testing.T) {
	w := NewWindow()

	ts := int64(1_700_000_000_000)
	w.CheckAndRecord(ts, 1)

	ok, c := w.CheckAndRecord(ts, 1)
	assert.False(t, ok)
	assert.Equal(t, 1, c)
}

func TestWindow_ConcurrentChecksNeverExceedRecording(t *testing.T) {
	w := NewWindow()

	const calls = 50
	var wg sync.WaitGroup
	admitted := make(chan bool, calls)

	ts := int64(1_700_000_000_000)
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _ := w.CheckAndRecord(ts, 10)
			admitted <- ok
		}()
	}
	wg.Wait()
	close(admitted)

	count := 0
	for ok := range admitted {
		if ok {
			count++
		}
	}

	assert.Equal(t, 10, count, "exactly limit calls should be admitted")
	assert.Equal(t, calls, w.Len(), "every attempt should be recorded")
}
