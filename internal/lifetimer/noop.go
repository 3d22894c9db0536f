package lifetimer

import "time"

// NoOpSweeper is used when expiration is disabled: items persist until
// explicitly removed or evicted by capacity pressure.
type NoOpSweeper struct{}

// SweeperMetrics always returns zero values.
func (NoOpSweeper) SweeperMetrics() (scans, scanHits, removed int64) {
	return 0, 0, 0
}

// ForceSweep does nothing and returns nil immediately.
func (NoOpSweeper) ForceSweep(timeout time.Duration) error {
	return nil
}

// Close does nothing and returns nil.
func (NoOpSweeper) Close() error {
	return nil
}
