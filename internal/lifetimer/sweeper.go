package lifetimer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/vbazhenov/go-bound-cache/config"
	"github.com/vbazhenov/go-bound-cache/internal/engine"
	"github.com/vbazhenov/go-bound-cache/internal/shared/rate"
)

var ErrSweeperNotResponded = errors.New("sweeper not responded")

// Sweeper is the periodic half of expiration: it proactively removes
// expired items on a fixed interval, independent of access. The lazy half
// lives inside the engine's retrieve/exists/keys paths, and both halves
// treat an expired item identically (removed, absent from results).
type Sweeper interface {
	SweeperMetrics() (scans, scanHits, removed int64)
	ForceSweep(timeout time.Duration) error
	Close() error
}

type SweepWorker struct {
	ctx      context.Context
	cancel   context.CancelFunc
	cfg      *config.ExpirationCfg
	logger   *slog.Logger
	engine   *engine.Engine
	clk      clock.Clock
	jitter   *rate.Jitter
	counters *sweeperCounters
	invokeCh chan struct{}
}

func New(
	ctx context.Context,
	cfg *config.ExpirationCfg,
	logger *slog.Logger,
	eng *engine.Engine,
	clk clock.Clock,
) Sweeper {
	if !cfg.Enabled() {
		return &NoOpSweeper{}
	}

	ctx, cancel := context.WithCancel(ctx)

	var jitter *rate.Jitter
	if cfg.Rate > 0 {
		jitter = rate.NewJitter(ctx, cfg.Rate)
	}

	return (&SweepWorker{
		ctx:      ctx,
		cancel:   cancel,
		cfg:      cfg,
		logger:   logger,
		engine:   eng,
		clk:      clk,
		jitter:   jitter,
		counters: newSweeperCounters(),
		invokeCh: make(chan struct{}),
	}).run()
}

func (w *SweepWorker) SweeperMetrics() (scans, scanHits, removed int64) {
	return w.counters.snapshot()
}

// ForceSweep schedules an immediate sweep, waiting at most timeout for the
// worker to accept it.
func (w *SweepWorker) ForceSweep(timeout time.Duration) error {
	after := time.NewTimer(timeout)
	defer after.Stop()

	select {
	case <-w.ctx.Done():
	case w.invokeCh <- struct{}{}:
	case <-after.C:
		return ErrSweeperNotResponded
	}
	return nil
}

func (w *SweepWorker) Close() error {
	w.cancel()
	return nil
}

func (w *SweepWorker) run() *SweepWorker {
	w.logger.Info("sweeper is running", "interval", w.cfg.CleanupInterval.Std(), "rate", w.cfg.Rate)

	// Create the ticker before the goroutine starts so no early clock
	// advance can slip past it.
	ticker := w.clk.Ticker(w.cfg.CleanupInterval.Std())

	go func() {
		defer w.logger.Info("sweeper is stopped")
		defer ticker.Stop()

		for {
			select {
			case <-w.ctx.Done():
				return
			case <-ticker.C:
				w.sweep()
			case <-w.invokeCh:
				w.sweep()
			}
		}
	}()

	return w
}

// sweep collects the expired keys and removes them one at a time through
// the engine's lock, paced by the jitter when a rate is configured so a
// large backlog does not monopolize the engine.
func (w *SweepWorker) sweep() {
	w.counters.scans.Add(1)

	expired := w.engine.ExpiredKeys()
	if len(expired) == 0 {
		return
	}
	w.counters.scanHits.Add(1)

	for _, key := range expired {
		if w.jitter != nil {
			select {
			case <-w.ctx.Done():
				return
			case <-w.jitter.Chan():
			}
		}
		if w.engine.RemoveExpired(key) {
			w.counters.removed.Add(1)
		}
	}
}
