package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/vbazhenov/go-bound-cache/config"
	"github.com/vbazhenov/go-bound-cache/internal/codec"
	"github.com/vbazhenov/go-bound-cache/internal/evictor"
	"github.com/vbazhenov/go-bound-cache/internal/index"
	"github.com/vbazhenov/go-bound-cache/internal/integrity"
	"github.com/vbazhenov/go-bound-cache/internal/model"
	"github.com/vbazhenov/go-bound-cache/internal/store"
)

var (
	// ErrCorrupted means checksum verification failed on read. The item has
	// already been removed; callers treat this like a miss and fall through
	// to the source of truth.
	ErrCorrupted = errors.New("cached payload is corrupted")

	// ErrClosed means the engine was shut down.
	ErrClosed = errors.New("cache engine is closed")

	errDirChanged = errors.New("disk directory cannot change via UpdateConfig")
)

// Engine is the orchestrating component: it owns the item map and the
// aggregate size counter, and drives the codec, checksums, the eviction
// selector and the persisted index. One mutex guards the map, the counter
// and the index persistence as a single critical section, so the
// totalSize == sum(item sizes) invariant holds at every observable point.
type Engine struct {
	mu sync.Mutex

	cfg    *config.Cache
	logger *slog.Logger
	clk    clock.Clock

	items       map[string]*model.Item
	total       int64
	lastCleanup time.Time

	backend  store.Backend
	idx      index.Index
	codec    *codec.Codec
	selector *evictor.Selector
	counters *counters

	// checksums is set for the disk variant only; memory items carry no
	// integrity information.
	checksums bool
	closed    bool
}

func New(cfg *config.Cache, logger *slog.Logger, clk clock.Clock) (*Engine, error) {
	cfg.Normalize()

	e := &Engine{
		cfg:      cfg,
		logger:   logger,
		clk:      clk,
		counters: newCounters(),
	}
	e.applyConfig(cfg)

	if cfg.Disk.Enabled() {
		disk, err := store.NewDisk(cfg.Disk.Dir)
		if err != nil {
			return nil, fmt.Errorf("activate disk cache: %w", err)
		}
		e.backend = disk
		e.idx = index.New(disk, cfg.Disk.ManifestName)
		e.checksums = true
		e.items, e.total = e.idx.Load()
		logger.Info("disk cache activated", "dir", cfg.Disk.Dir, "items", len(e.items), "bytes", e.total)
	} else {
		e.backend = store.NewMemory()
		e.idx = index.NoOpIndex{}
		e.items = make(map[string]*model.Item)
	}

	return e, nil
}

// applyConfig rebuilds the pieces derived from configuration. Caller holds
// the lock (or is the constructor).
func (e *Engine) applyConfig(cfg *config.Cache) {
	e.cfg = cfg
	if cfg.Compression.Enabled() {
		e.codec = codec.New(cfg.Compression.ThresholdBytes, cfg.Compression.Level)
	} else {
		e.codec = nil
	}
	if cfg.Eviction.Enabled() {
		e.selector = evictor.New(cfg.Eviction.Policy)
	} else {
		e.selector = nil
	}
}

// Store inserts payload under key with the configured default TTL.
func (e *Engine) Store(key string, payload []byte) error {
	return e.store(key, payload, e.defaultTTL(), false)
}

// StoreTTL inserts payload under key with an explicit TTL. A zero TTL
// expires the item immediately; a negative TTL falls back to the default.
// TTLs are ignored entirely when expiration is disabled.
func (e *Engine) StoreTTL(key string, payload []byte, ttl time.Duration) error {
	if ttl < 0 {
		return e.store(key, payload, e.defaultTTL(), false)
	}
	return e.store(key, payload, ttl, true)
}

func (e *Engine) store(key string, payload []byte, ttl time.Duration, explicit bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	now := e.clk.Now()
	stored, wasCompressed := payload, false
	if e.codec != nil {
		stored, wasCompressed = e.codec.Compress(payload)
	}

	it := &model.Item{
		Key:        key,
		SizeBytes:  int64(len(stored)),
		CreatedAt:  now,
		TouchedAt:  now,
		Compressed: wasCompressed,
	}
	if e.cfg.Expiration.Enabled() {
		if ttl > 0 {
			it.ExpiresAt = now.Add(ttl)
		} else if explicit {
			// explicit zero TTL: already expired, absent on first access
			it.ExpiresAt = now
		}
	}
	if e.checksums {
		it.Checksum = integrity.Checksum(payload)
	}

	if err := e.backend.Write(it, stored); err != nil {
		return fmt.Errorf("store %q: %w", key, err)
	}

	if old, ok := e.items[key]; ok {
		// replace: subtract the old size before adding the new one
		e.total -= old.SizeBytes
	}
	e.items[key] = it
	e.total += it.SizeBytes

	e.evictToConvergence(now)

	if err := e.persistIfSyncing(); err != nil {
		return fmt.Errorf("store %q: %w", key, err)
	}
	return nil
}

// Retrieve returns the payload for key, or found=false on a miss. Expired
// items are treated as absent, not as errors. A checksum mismatch removes
// the item and returns ErrCorrupted instead of garbage bytes.
func (e *Engine) Retrieve(key string) (payload []byte, found bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, false, ErrClosed
	}

	it, ok := e.items[key]
	if !ok {
		e.counters.misses.Add(1)
		return nil, false, nil
	}

	now := e.clk.Now()
	if it.ExpiredAt(now) {
		e.removeLocked(it, false)
		e.persistLogged()
		e.counters.misses.Add(1)
		return nil, false, nil
	}

	stored, readErr := e.backend.Read(it)
	if readErr != nil {
		// Backing file vanished or is unreadable: degrade to a miss so the
		// caller recomputes from the source of truth.
		e.logger.Warn("payload unreadable, dropping item", "key", key, "err", readErr)
		e.removeLocked(it, false)
		e.persistLogged()
		e.counters.misses.Add(1)
		return nil, false, nil
	}

	payload = codec.Decompress(stored, it.Compressed)
	if !integrity.Verify(payload, it.Checksum) {
		e.removeLocked(it, false)
		e.persistLogged()
		e.counters.misses.Add(1)
		return nil, false, fmt.Errorf("retrieve %q: %w", key, ErrCorrupted)
	}

	it.Touch(now)
	e.counters.hits.Add(1)
	return payload, true, nil
}

// Remove deletes key. Removing an absent key is a no-op and does not touch
// the metrics.
func (e *Engine) Remove(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	it, ok := e.items[key]
	if !ok {
		return
	}
	e.removeLocked(it, false)
	e.persistLogged()
}

// RemoveAll removes every item and resets the metrics.
func (e *Engine) RemoveAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.backend.Clear()
	e.items = make(map[string]*model.Item)
	e.total = 0
	e.counters.reset()
	e.persistLogged()
}

// Exists performs the same expiration check as Retrieve but does not touch
// access tracking, payload bytes or the hit/miss counters.
func (e *Engine) Exists(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	it, ok := e.items[key]
	if !ok {
		return false
	}
	if it.ExpiredAt(e.clk.Now()) {
		e.removeLocked(it, false)
		e.persistLogged()
		return false
	}
	return true
}

// Keys returns the non-expired keys in unspecified order. Expired keys
// discovered during the scan are removed: listing doubles as a cleanup pass.
func (e *Engine) Keys() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}

	now := e.clk.Now()
	keys := make([]string, 0, len(e.items))
	var removed bool
	for key, it := range e.items {
		if it.ExpiredAt(now) {
			e.removeLocked(it, false)
			removed = true
			continue
		}
		keys = append(keys, key)
	}
	if removed {
		e.persistLogged()
	}
	return keys
}

// Metrics returns a consistent snapshot of the counters and index state.
func (e *Engine) Metrics() model.Metrics {
	e.mu.Lock()
	items, total := int64(len(e.items)), e.total
	e.mu.Unlock()

	hits, misses, evictions := e.counters.snapshot()
	return model.Metrics{
		Hits:      hits,
		Misses:    misses,
		Evictions: evictions,
		Items:     items,
		SizeBytes: total,
		HitRate:   hitRate(hits, misses),
	}
}

// ExpiredKeys returns the keys expired as of now without removing them.
// The periodic sweeper pairs it with RemoveExpired.
func (e *Engine) ExpiredKeys() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}

	now := e.clk.Now()
	e.lastCleanup = now
	var expired []string
	for key, it := range e.items {
		if it.ExpiredAt(now) {
			expired = append(expired, key)
		}
	}
	return expired
}

// RemoveExpired removes key only if it is still expired, so a sweep cannot
// race a concurrent Store that refreshed the same key.
func (e *Engine) RemoveExpired(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	it, ok := e.items[key]
	if !ok || !it.ExpiredAt(e.clk.Now()) {
		return false
	}
	e.removeLocked(it, false)
	e.persistLogged()
	return true
}

// FlushIndex persists the manifest. Used by the periodic sync loop when the
// engine is not syncing on every mutation, and by Close.
func (e *Engine) FlushIndex() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.idx.Persist(e.items, e.total, e.lastCleanup)
}

// UpdateConfig swaps the configuration wholesale and re-enforces the
// capacity constraints. The disk variant additionally reloads its index.
// The backing directory cannot change on a live instance.
func (e *Engine) UpdateConfig(cfg *config.Cache) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	cfg.Normalize()

	if e.cfg.Disk.Enabled() != cfg.Disk.Enabled() {
		return fmt.Errorf("update config: %w", errDirChanged)
	}
	if cfg.Disk.Enabled() && cfg.Disk.Dir != e.cfg.Disk.Dir {
		return fmt.Errorf("update config: %w", errDirChanged)
	}

	if cfg.Disk.Enabled() {
		// Flush before the reload so mutations made under lazy syncing
		// survive the reload.
		if err := e.idx.Persist(e.items, e.total, e.lastCleanup); err != nil {
			return fmt.Errorf("update config: %w", err)
		}
	}

	e.applyConfig(cfg)

	if cfg.Disk.Enabled() {
		e.items, e.total = e.idx.Load()
	}
	e.evictToConvergence(e.clk.Now())
	return e.persistIfSyncing()
}

// Close makes the engine reject further operations and flushes the final
// manifest state. Foreground operations already holding the lock finish
// first by mutex ordering.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.idx.Persist(e.items, e.total, e.lastCleanup)
}

/**
 * Private API. Caller holds the lock.
 */

func (e *Engine) defaultTTL() time.Duration {
	if e.cfg.Expiration.Enabled() {
		return e.cfg.Expiration.DefaultTTL.Std()
	}
	return 0
}

func (e *Engine) removeLocked(it *model.Item, evicted bool) {
	delete(e.items, it.Key)
	e.total -= it.SizeBytes
	e.backend.Remove(it)
	if evicted {
		e.counters.evictions.Add(1)
	}
}

// evictToConvergence removes victims one at a time until both capacity
// constraints hold or the set is empty.
func (e *Engine) evictToConvergence(now time.Time) {
	if e.selector == nil {
		return
	}
	for e.overLimit() && len(e.items) > 0 {
		key, ok := e.selector.Pick(now, e.items)
		if !ok {
			return
		}
		e.removeLocked(e.items[key], true)
	}
}

func (e *Engine) overLimit() bool {
	capacity := e.cfg.Capacity
	if capacity.MaxItems > 0 && int64(len(e.items)) > capacity.MaxItems {
		return true
	}
	return capacity.MaxSizeBytes > 0 && e.total > capacity.MaxSizeBytes
}

// persistIfSyncing makes the mutation durable before returning when the
// disk variant is configured to sync on every mutation.
func (e *Engine) persistIfSyncing() error {
	if !e.cfg.Disk.Enabled() || !e.cfg.Disk.SyncOnMutate {
		return nil
	}
	return e.idx.Persist(e.items, e.total, e.lastCleanup)
}

// persistLogged is persistIfSyncing for void operations, where persistence
// failures can only be logged.
func (e *Engine) persistLogged() {
	if err := e.persistIfSyncing(); err != nil {
		e.logger.Warn("manifest persist failed", "err", err)
	}
}
