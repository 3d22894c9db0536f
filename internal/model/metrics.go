package model

// Metrics is a point-in-time snapshot of the engine counters.
// Hits, misses and evictions are monotonically accumulating; items and
// size reflect the current index state.
type Metrics struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Items     int64
	SizeBytes int64

	// HitRate is hits / (hits + misses), 0 when no accesses have occurred.
	HitRate float64
}
