package evictor

import (
	"time"

	"github.com/vbazhenov/go-bound-cache/config"
	"github.com/vbazhenov/go-bound-cache/internal/model"
	"github.com/vbazhenov/go-bound-cache/internal/shared/random"
)

// Selector picks exactly one victim per call. The engine invokes it
// repeatedly under its lock until both capacity constraints hold or the
// item set is empty.
type Selector struct {
	policy config.Policy
}

func New(policy config.Policy) *Selector {
	return &Selector{policy: policy}
}

func (s *Selector) Policy() config.Policy { return s.policy }

// Pick returns the key to evict next. ok is false when items is empty.
func (s *Selector) Pick(now time.Time, items map[string]*model.Item) (key string, ok bool) {
	if len(items) == 0 {
		return "", false
	}

	switch s.policy {
	case config.PolicyLFU:
		return pickBy(items, func(cand, best *model.Item) bool {
			return cand.Hits < best.Hits
		})
	case config.PolicyFIFO:
		return pickBy(items, func(cand, best *model.Item) bool {
			return cand.CreatedAt.Before(best.CreatedAt)
		})
	case config.PolicyLargest:
		return pickBy(items, func(cand, best *model.Item) bool {
			return cand.SizeBytes > best.SizeBytes
		})
	case config.PolicyExpiring:
		return pickBy(items, func(cand, best *model.Item) bool {
			// absent expiration sorts last, treated as +infinity
			if !cand.Expirable() {
				return false
			}
			if !best.Expirable() {
				return true
			}
			return cand.ExpiresAt.Before(best.ExpiresAt)
		})
	case config.PolicyRandom:
		return pickRandom(items)
	case config.PolicySmart:
		return pickBy(items, func(cand, best *model.Item) bool {
			return smartScore(now, cand) > smartScore(now, best)
		})
	default: // config.PolicyLRU
		return pickBy(items, func(cand, best *model.Item) bool {
			return cand.TouchedAt.Before(best.TouchedAt)
		})
	}
}

func pickBy(items map[string]*model.Item, beats func(cand, best *model.Item) bool) (string, bool) {
	var bestKey string
	var best *model.Item
	for key, it := range items {
		if best == nil || beats(it, best) {
			bestKey, best = key, it
		}
	}
	return bestKey, best != nil
}

func pickRandom(items map[string]*model.Item) (string, bool) {
	n := random.IntN(len(items))
	for key := range items {
		if n == 0 {
			return key, true
		}
		n--
	}
	return "", false
}

// smartScore penalizes large, stale, rarely-used items over small hot ones:
// hours since last access + size in MB + 1/max(hits, 1). The highest score
// is evicted first.
func smartScore(now time.Time, it *model.Item) float64 {
	hours := now.Sub(it.TouchedAt).Hours()
	sizeMB := float64(it.SizeBytes) / (1024 * 1024)
	hits := it.Hits
	if hits < 1 {
		hits = 1
	}
	return hours + sizeMB + 1/float64(hits)
}
