package cache

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Cache memoizes API response payloads for a short TTL. Entries expire
// lazily on Get and eagerly via a background sweep; when full, Set evicts the
// oldest-inserted entry (FIFO, not LRU). The clock is injectable so tests can
// advance time without sleeping.
type Cache struct {
	ttl      time.Duration
	capacity int
	clock    clockwork.Clock

	mu      sync.Mutex
	entries map[string]*entry
	order   []string // keys in insertion order

	stopOnce sync.Once
	stop     chan struct{}
}

type entry struct {
	payload  []byte
	storedAt time.Time
}

// New builds a cache and starts its sweep loop. A sweepInterval of zero
// disables the background sweep; lazy expiry on Get still applies.
func New(ttl, sweepInterval time.Duration, capacity int, clock clockwork.Clock) *Cache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	c := &Cache{
		ttl:      ttl,
		capacity: capacity,
		clock:    clock,
		entries:  make(map[string]*entry),
		stop:     make(chan struct{}),
	}
	if sweepInterval > 0 {
		go c.sweepLoop(sweepInterval)
	}
	return c
}

// Get returns the cached payload for key. A stale entry (age >= TTL) behaves
// as absent and is evicted.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.clock.Since(e.storedAt) >= c.ttl {
		c.remove(key)
		return nil, false
	}
	return e.payload, true
}

// Set stores payload under key. At capacity, the oldest-inserted entry is
// evicted first. Re-setting an existing key refreshes its payload and age but
// keeps its place in the insertion order.
func (c *Cache) Set(key string, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.payload = payload
		e.storedAt = c.clock.Now()
		return
	}

	if c.capacity > 0 && len(c.entries) >= c.capacity {
		c.remove(c.order[0])
	}

	c.entries[key] = &entry{payload: payload, storedAt: c.clock.Now()}
	c.order = append(c.order, key)
}

// Len reports the current entry count, counting stale-but-unswept entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close stops the background sweep. Safe to call more than once.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Cache) sweepLoop(interval time.Duration) {
	ticker := c.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.Chan():
			c.sweep()
		}
	}
}

func (c *Cache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if c.clock.Since(e.storedAt) >= c.ttl {
			c.remove(key)
		}
	}
}

// remove expects c.mu to be held.
func (c *Cache) remove(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Key builds a deterministic cache key from an endpoint identifier and its
// parameters: two logically identical requests always hash to the same key.
func Key(endpoint string, params map[string]string) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(endpoint)
	for _, name := range names {
		b.WriteByte('|')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(params[name])
	}
	return b.String()
}

// AnalyzeKey is the canonical key for a rendered weather report. Both the
// HTTP handler and the warm-refresh job must build keys through this helper
// so refreshed entries are actually hit.
func AnalyzeKey(location, date string, forecast bool) string {
	return Key("analyze", map[string]string{
		"location": strings.ToLower(strings.TrimSpace(location)),
		"date":     date,
		"forecast": strconv.FormatBool(forecast),
	})
}
