package state

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestIndex_PutGetDelete(t *testing.T) {
	ix := NewIndex[string, int]("test", NewManualClock(t0))

	ix.Put("a", 1)
	v, ok := ix.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	ix.Delete("a")
	_, ok = ix.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, ix.Len())
}

func TestIndex_TakeIsExactlyOnce(t *testing.T) {
	ix := NewIndex[string, int]("test", NewManualClock(t0))
	ix.Put("k", 42)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := ix.Take("k"); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestIndex_PutIfAbsent(t *testing.T) {
	ix := NewIndex[string, string]("test", NewManualClock(t0))
	assert.True(t, ix.PutIfAbsent("k", "first"))
	assert.False(t, ix.PutIfAbsent("k", "second"))

	v, _ := ix.Get("k")
	assert.Equal(t, "first", v)
}

func TestIndex_UpdateKeepsCreationTime(t *testing.T) {
	clk := NewManualClock(t0)
	ix := NewIndex[string, int]("test", clk)

	ix.Update("k", func(cur int, ok bool) int {
		assert.False(t, ok)
		return cur + 1
	})
	clk.Advance(50 * time.Minute)
	ix.Update("k", func(cur int, ok bool) int {
		assert.True(t, ok)
		return cur + 1
	})

	// Created at t0, so at t0+61m the entry is expired even though it was
	// updated at t0+50m.
	assert.Equal(t, 1, ix.Sweep(t0.Add(61*time.Minute), time.Hour))
}

func TestIndex_PutRestampsEntry(t *testing.T) {
	clk := NewManualClock(t0)
	ix := NewIndex[string, int]("test", clk)

	ix.Put("k", 1)
	clk.Advance(50 * time.Minute)
	ix.Put("k", 2)

	assert.Equal(t, 0, ix.Sweep(t0.Add(61*time.Minute), time.Hour))
	v, ok := ix.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestIndex_SweepBoundaries(t *testing.T) {
	ix := NewIndex[string, int]("test", NewManualClock(t0))
	ix.Put("k", 1)

	assert.Equal(t, 0, ix.Sweep(t0.Add(59*time.Minute), time.Hour))
	assert.True(t, ix.Has("k"))

	// Exactly one hour old is not yet strictly older than the TTL.
	assert.Equal(t, 0, ix.Sweep(t0.Add(time.Hour), time.Hour))
	assert.True(t, ix.Has("k"))

	assert.Equal(t, 1, ix.Sweep(t0.Add(61*time.Minute), time.Hour))
	assert.False(t, ix.Has("k"))
}

func TestIndex_ConcurrentAccessDuringSweep(t *testing.T) {
	ix := NewIndex[int, int]("test", NewManualClock(t0))

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				k := w*1000 + i
				ix.Put(k, i)
				if v, ok := ix.Get(k); ok {
					assert.Equal(t, i, v)
				}
			}
		}(w)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			ix.Sweep(t0.Add(2*time.Hour), time.Hour)
		}
	}()
	wg.Wait()
}
