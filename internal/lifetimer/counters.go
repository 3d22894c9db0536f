package lifetimer

import "sync/atomic"

type sweeperCounters struct {
	scans    atomic.Int64
	scanHits atomic.Int64
	removed  atomic.Int64
}

func newSweeperCounters() *sweeperCounters {
	return &sweeperCounters{
		scans:    atomic.Int64{},
		scanHits: atomic.Int64{},
		removed:  atomic.Int64{},
	}
}

func (c *sweeperCounters) snapshot() (scans, scanHits, removed int64) {
	return c.scans.Load(), c.scanHits.Load(), c.removed.Load()
}
