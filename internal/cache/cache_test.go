package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_RoundTrip(t *testing.T) {
	c := New(time.Minute, 0, 10, nil)
	defer c.Close()

	c.Set("k", []byte("v"))

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}

func TestCache_TTLExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := New(time.Minute, 0, 10, clock)
	defer c.Close()

	c.Set("k", []byte("v"))

	clock.Advance(59 * time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok, "entry younger than TTL should be served")

	clock.Advance(2 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry past TTL should behave as absent")

	// The stale entry must be gone, not just hidden.
	assert.Equal(t, 0, c.Len())
}

func TestCache_FIFOEviction(t *testing.T) {
	c := New(time.Minute, 0, 2, nil)
	defer c.Close()

	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))

	// Access "a" so an LRU policy would keep it; FIFO must still evict it.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("c", []byte("3"))

	_, ok = c.Get("a")
	assert.False(t, ok, "oldest-inserted entry should be evicted")

	_, ok = c.Get("b")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestCache_SetExistingKeepsInsertionOrder(t *testing.T) {
	c := New(time.Minute, 0, 2, nil)
	defer c.Close()

	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	c.Set("a", []byte("1b")) // refresh, not reinsert

	c.Set("c", []byte("3")) // "a" is still oldest-inserted

	_, ok := c.Get("a")
	assert.False(t, ok)

	got, ok := c.Get("b")
	require.True(t, ok)
	assert.Equal(t, []byte("2"), got)
}

func TestCache_BackgroundSweep(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := New(time.Minute, 30*time.Second, 10, clock)
	defer c.Close()

	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("k%d", i), []byte("v"))
	}
	require.Equal(t, 5, c.Len())

	// Let the sweep goroutine reach its ticker before advancing.
	clock.BlockUntil(1)
	clock.Advance(2 * time.Minute)

	assert.Eventually(t, func() bool {
		return c.Len() == 0
	}, time.Second, 5*time.Millisecond, "sweep should remove expired entries without any Get")
}

func TestKey_Deterministic(t *testing.T) {
	k1 := Key("analyze", map[string]string{"location": "Berlin", "date": "2026-08-30"})
	k2 := Key("analyze", map[string]string{"date": "2026-08-30", "location": "Berlin"})
	assert.Equal(t, k1, k2, "parameter order must not change the key")

	k3 := Key("analyze", map[string]string{"location": "Paris", "date": "2026-08-30"})
	assert.NotEqual(t, k1, k3)

	k4 := Key("forecast7", map[string]string{"location": "Berlin", "date": "2026-08-30"})
	assert.NotEqual(t, k1, k4, "endpoint must be part of the key")
}
