package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/vbazhenov/go-bound-cache/config"
	"github.com/vbazhenov/go-bound-cache/internal/model"
	"github.com/vbazhenov/go-bound-cache/internal/shared/bytes"
)

// EngineStats is the slice of the engine the telemetry reads.
type EngineStats interface {
	Metrics() model.Metrics
}

// SweeperStats is the slice of the sweeper the telemetry reads.
type SweeperStats interface {
	SweeperMetrics() (scans, scanHits, removed int64)
}

type Logger interface {
	Interval() time.Duration
	Close() error
}

type Logs struct {
	ctx      context.Context
	cancel   context.CancelFunc
	cfg      *config.TelemetryCfg
	logger   *slog.Logger
	engine   EngineStats
	sweeper  SweeperStats
	clk      clock.Clock
	interval time.Duration
}

func New(
	ctx context.Context,
	cfg *config.TelemetryCfg,
	logger *slog.Logger,
	engine EngineStats,
	sweeper SweeperStats,
	clk clock.Clock,
) *Logs {
	ctx, cancel := context.WithCancel(ctx)
	l := &Logs{
		ctx:     ctx,
		cancel:  cancel,
		cfg:     cfg,
		logger:  logger,
		engine:  engine,
		sweeper: sweeper,
		clk:     clk,
	}
	if cfg.Enabled() {
		l.interval = cfg.LogsInterval.Std()
	}
	return l.run()
}

func (l *Logs) Interval() time.Duration {
	return l.interval
}

func (l *Logs) Close() error {
	l.cancel()
	return nil
}

func (l *Logs) run() *Logs {
	if l.cfg.Enabled() && l.cfg.LogsEnabled {
		ticker := l.clk.Ticker(l.interval)
		go l.loop(ticker)
	}
	return l
}

func (l *Logs) loop(ticker *clock.Ticker) {
	defer ticker.Stop()

	prev := l.snapshot()
	for {
		select {
		case <-l.ctx.Done():
			return
		case <-ticker.C:
			cur := l.snapshot()
			l.logger.Info("cache stats",
				"items", cur.metrics.Items,
				"bytes", bytes.FmtMem(uint64(max(cur.metrics.SizeBytes, 0))),
				"hit_rate", cur.metrics.HitRate,
				"hits_delta", delta(prev.metrics.Hits, cur.metrics.Hits),
				"misses_delta", delta(prev.metrics.Misses, cur.metrics.Misses),
				"evictions_delta", delta(prev.metrics.Evictions, cur.metrics.Evictions),
				"sweep_scans", cur.sweepScans,
				"sweep_removed", cur.sweepRemoved,
			)
			prev = cur
		}
	}
}

// snapshot holds cumulative counters (monotonic).
type snapshot struct {
	metrics      model.Metrics
	sweepScans   int64
	sweepRemoved int64
}

func (l *Logs) snapshot() snapshot {
	scans, _, removed := l.sweeper.SweeperMetrics()
	return snapshot{
		metrics:      l.engine.Metrics(),
		sweepScans:   scans,
		sweepRemoved: removed,
	}
}

// delta converts cumulative counters to per-interval deltas. If a counter
// reset (cur < prev), cur is treated as the delta.
func delta(prev, cur uint64) uint64 {
	if cur >= prev {
		return cur - prev
	}
	return cur
}
