// Package imagecache stores resized image derivatives on top of the bound
// cache engine. Each derivative is keyed by its source reference plus the
// target dimensions, so every variant of a source can be found and removed
// without a separate reverse index.
package imagecache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	boundcache "github.com/vbazhenov/go-bound-cache"
	"github.com/vbazhenov/go-bound-cache/config"
)

const variantSep = "@"

// ImageCache wraps the cache with variant-aware operations.
type ImageCache struct {
	*boundcache.Cache
}

// New builds an image cache over the given directory. Stored payloads are
// already-encoded image bytes, so compression is left off; under capacity
// pressure the largest derivative goes first since it is also the most
// expensive kind to keep.
func New(ctx context.Context, dir string, maxSizeBytes int64, ttl time.Duration, logger *slog.Logger) (*ImageCache, error) {
	cfg := &config.Cache{
		Capacity: config.CapacityCfg{MaxSizeBytes: maxSizeBytes},
		Eviction: &config.EvictionCfg{Policy: config.PolicyLargest},
		Expiration: &config.ExpirationCfg{
			DefaultTTL: config.Duration(ttl),
		},
		Disk: &config.DiskCfg{Dir: dir},
	}

	c, err := boundcache.New(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("activate image cache: %w", err)
	}
	return &ImageCache{Cache: c}, nil
}

// Key derives the cache key for one derivative of a source image.
func Key(source string, width, height int) string {
	return fmt.Sprintf("%s%s%dx%d", source, variantSep, width, height)
}

// StoreVariant caches one encoded derivative of the source image.
func (c *ImageCache) StoreVariant(source string, width, height int, encoded []byte) error {
	return c.Store(Key(source, width, height), encoded)
}

// RetrieveVariant returns the cached derivative at the given dimensions.
// A corrupted entry reads as a miss so the caller re-renders it.
func (c *ImageCache) RetrieveVariant(source string, width, height int) ([]byte, bool, error) {
	return c.Retrieve(Key(source, width, height))
}

// RemoveSource drops every cached derivative of a source image. Use it when
// the original is replaced or deleted.
func (c *ImageCache) RemoveSource(source string) int {
	prefix := source + variantSep
	removed := 0
	for _, key := range c.Keys() {
		rest, ok := strings.CutPrefix(key, prefix)
		if !ok || !isDims(rest) {
			continue
		}
		c.Remove(key)
		removed++
	}
	return removed
}

// isDims reports whether s looks like "<w>x<h>". Source references may
// themselves contain the separator, so the suffix shape is what
// disambiguates a variant key.
func isDims(s string) bool {
	w, h, ok := strings.Cut(s, "x")
	return ok && allDigits(w) && allDigits(h)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
