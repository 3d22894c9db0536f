package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Cache groups configuration of all engine subsystems.
// Optional subsystems are nil-able pointers: nil disables the feature.
// A Cache value is immutable after Normalize; reconfiguration replaces it
// wholesale through the engine's UpdateConfig.
type Cache struct {
	Capacity CapacityCfg `yaml:"capacity"`

	// Eviction configures victim selection under capacity pressure.
	// If nil, eviction is disabled and the cache is unbounded (not recommended).
	Eviction *EvictionCfg `yaml:"eviction"`

	// Expiration configures TTL handling: the default TTL, the lazy on-access
	// check and the periodic background sweep.
	// If nil, items persist until removed or evicted by capacity pressure.
	Expiration *ExpirationCfg `yaml:"expiration"`

	// Compression configures transparent payload compression above a size
	// threshold. If nil, payloads are stored as-is.
	Compression *CompressionCfg `yaml:"compression"`

	// Disk configures the disk-backed variant: payload files, checksums and
	// the persisted manifest. If nil, the engine is memory-only.
	Disk *DiskCfg `yaml:"disk"`

	// Telemetry configures stats logging and prometheus export.
	// If nil, only the in-process metrics snapshot is available.
	Telemetry *TelemetryCfg `yaml:"telemetry"`
}

type CapacityCfg struct {
	// MaxSizeBytes bounds the aggregate stored size. Zero means unbounded.
	MaxSizeBytes int64 `yaml:"max_size_bytes"`

	// MaxItems bounds the item count. Zero means unbounded.
	MaxItems int64 `yaml:"max_items"`
}

const (
	defaultManifestName      = "manifest.bcache"
	defaultMemorySweepPeriod = time.Minute
	defaultDiskSweepPeriod   = time.Hour
	defaultSyncInterval      = time.Minute
	defaultLogsInterval      = 5 * time.Second
	defaultNamespace         = "boundcache"
)

// Normalize fills in derived defaults. It must be called once after the
// config is constructed or decoded and before the engine is built.
func (cfg *Cache) Normalize() {
	if cfg.Eviction.Enabled() && cfg.Eviction.Policy == "" {
		cfg.Eviction.Policy = PolicyLRU
	}

	if cfg.Expiration.Enabled() && cfg.Expiration.CleanupInterval <= 0 {
		if cfg.Disk.Enabled() {
			cfg.Expiration.CleanupInterval = Duration(defaultDiskSweepPeriod)
		} else {
			cfg.Expiration.CleanupInterval = Duration(defaultMemorySweepPeriod)
		}
	}

	if cfg.Disk.Enabled() {
		if cfg.Disk.ManifestName == "" {
			cfg.Disk.ManifestName = defaultManifestName
		}
		if cfg.Disk.SyncInterval <= 0 {
			cfg.Disk.SyncInterval = Duration(defaultSyncInterval)
		}
	}

	if cfg.Telemetry.Enabled() {
		if cfg.Telemetry.LogsInterval <= 0 {
			cfg.Telemetry.LogsInterval = Duration(defaultLogsInterval)
		}
		if cfg.Telemetry.Namespace == "" {
			cfg.Telemetry.Namespace = defaultNamespace
		}
	}
}

func LoadConfig(path string) (*Cache, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config yaml file %s: %w", path, err)
	}

	var cfg *Cache
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml from %s: %w", path, err)
	}
	cfg.Normalize()

	return cfg, nil
}
