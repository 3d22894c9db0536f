package engine

import "sync/atomic"

type counters struct {
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

func newCounters() *counters {
	return &counters{
		hits:      atomic.Uint64{},
		misses:    atomic.Uint64{},
		evictions: atomic.Uint64{},
	}
}

func (c *counters) snapshot() (hits, misses, evictions uint64) {
	return c.hits.Load(), c.misses.Load(), c.evictions.Load()
}

func (c *counters) reset() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
}

func hitRate(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
