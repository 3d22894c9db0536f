package boundcache

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vbazhenov/go-bound-cache/config"
	"github.com/vbazhenov/go-bound-cache/internal/engine"
	"github.com/vbazhenov/go-bound-cache/internal/lifetimer"
	"github.com/vbazhenov/go-bound-cache/internal/model"
	"github.com/vbazhenov/go-bound-cache/internal/store"
	"github.com/vbazhenov/go-bound-cache/internal/telemetry"
)

// Re-exported sentinels so callers never import internal packages.
var (
	// ErrCorrupted means checksum verification failed on read. The entry has
	// already been dropped; treat it like a miss.
	ErrCorrupted = engine.ErrCorrupted

	// ErrClosed means the cache was shut down.
	ErrClosed = engine.ErrClosed

	// ErrUnavailable means the backing store could not be activated.
	ErrUnavailable = store.ErrUnavailable
)

// Metrics is a point-in-time snapshot of the cache counters.
type Metrics = model.Metrics

// BoundCache is the full public surface: the store operations plus the
// sweeper and telemetry controls.
type BoundCache interface {
	Store(key string, payload []byte) error
	StoreTTL(key string, payload []byte, ttl time.Duration) error
	Retrieve(key string) (payload []byte, found bool, err error)
	Remove(key string)
	RemoveAll()
	Exists(key string) bool
	Keys() []string
	Metrics() Metrics
	UpdateConfig(cfg *config.Cache) error
	lifetimer.Sweeper
	telemetry.Logger
	io.Closer
}

// Cache wires the engine together with the background sweeper, the stats
// logger and the manifest flush loop. All operations delegate to the
// engine; the facade only owns lifecycle.
type Cache struct {
	*engine.Engine
	lifetimer.Sweeper
	telemetry.Logger

	cfg       *config.Cache
	logger    *slog.Logger
	collector *telemetry.Collector
	cls       context.CancelFunc
}

func New(ctx context.Context, cfg *config.Cache, logger *slog.Logger) (*Cache, error) {
	return newWithClock(ctx, cfg, logger, clock.New())
}

func newWithClock(ctx context.Context, cfg *config.Cache, logger *slog.Logger, clk clock.Clock) (*Cache, error) {
	cfg.Normalize()
	ctx, cancel := context.WithCancel(ctx)

	eng, err := engine.New(cfg, logger, clk)
	if err != nil {
		cancel()
		return nil, err
	}
	sweeper := lifetimer.New(ctx, cfg.Expiration, logger, eng, clk)
	logs := telemetry.New(ctx, cfg.Telemetry, logger, eng, sweeper, clk)

	c := &Cache{
		Engine:  eng,
		Sweeper: sweeper,
		Logger:  logs,
		cfg:     cfg,
		logger:  logger,
		cls:     cancel,
	}

	if cfg.Telemetry.Enabled() && cfg.Telemetry.PrometheusEnabled {
		c.collector = telemetry.NewCollector(cfg.Telemetry.Namespace, eng)
		if err = prometheus.Register(c.collector); err != nil {
			logger.Warn("prometheus register failed", "err", err)
			c.collector = nil
		}
	}

	if cfg.Disk.Enabled() && !cfg.Disk.SyncOnMutate {
		go c.flushLoop(ctx, clk, cfg.Disk.SyncInterval.Std())
	}

	return c, nil
}

// flushLoop periodically persists the manifest when per-mutation sync is
// off. The engine also flushes on Close, so at most one interval of
// mutations is at risk.
func (c *Cache) flushLoop(ctx context.Context, clk clock.Clock, interval time.Duration) {
	ticker := clk.Ticker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Engine.FlushIndex(); err != nil {
				c.logger.Warn("manifest flush failed", "err", err)
			}
		}
	}
}

// Close stops the background workers and flushes the manifest. It is safe
// to call once; subsequent operations return ErrClosed.
func (c *Cache) Close() error {
	c.cls()
	if c.collector != nil {
		prometheus.Unregister(c.collector)
		c.collector = nil
	}
	_ = c.Sweeper.Close()
	_ = c.Logger.Close()
	return c.Engine.Close()
}
