package evictor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vbazhenov/go-bound-cache/config"
	"github.com/vbazhenov/go-bound-cache/internal/model"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func item(mut func(*model.Item)) *model.Item {
	it := &model.Item{
		Key:       "k",
		SizeBytes: 100,
		CreatedAt: base,
		TouchedAt: base,
		Hits:      1,
	}
	mut(it)
	return it
}

func TestPickEmptySet(t *testing.T) {
	for _, p := range []config.Policy{
		config.PolicyLRU, config.PolicyLFU, config.PolicyFIFO,
		config.PolicyLargest, config.PolicyExpiring, config.PolicyRandom,
		config.PolicySmart,
	} {
		_, ok := New(p).Pick(base, map[string]*model.Item{})
		require.False(t, ok, "policy %s", p)
	}
}

func TestPickLRU(t *testing.T) {
	items := map[string]*model.Item{
		"a": item(func(it *model.Item) { it.TouchedAt = base.Add(1 * time.Second) }),
		"b": item(func(it *model.Item) { it.TouchedAt = base.Add(2 * time.Second) }),
		"c": item(func(it *model.Item) { it.TouchedAt = base.Add(3 * time.Second) }),
	}

	key, ok := New(config.PolicyLRU).Pick(base, items)
	require.True(t, ok)
	require.Equal(t, "a", key)
}

func TestPickLFU(t *testing.T) {
	items := map[string]*model.Item{
		"hot":  item(func(it *model.Item) { it.Hits = 50 }),
		"warm": item(func(it *model.Item) { it.Hits = 5 }),
		"cold": item(func(it *model.Item) { it.Hits = 0 }),
	}

	key, ok := New(config.PolicyLFU).Pick(base, items)
	require.True(t, ok)
	require.Equal(t, "cold", key)
}

func TestPickFIFO(t *testing.T) {
	items := map[string]*model.Item{
		"old": item(func(it *model.Item) { it.CreatedAt = base.Add(-time.Hour) }),
		"new": item(func(it *model.Item) { it.CreatedAt = base }),
	}

	key, ok := New(config.PolicyFIFO).Pick(base, items)
	require.True(t, ok)
	require.Equal(t, "old", key)
}

func TestPickLargest(t *testing.T) {
	items := map[string]*model.Item{
		"small": item(func(it *model.Item) { it.SizeBytes = 10 }),
		"big":   item(func(it *model.Item) { it.SizeBytes = 10_000 }),
		"mid":   item(func(it *model.Item) { it.SizeBytes = 500 }),
	}

	key, ok := New(config.PolicyLargest).Pick(base, items)
	require.True(t, ok)
	require.Equal(t, "big", key)
}

func TestPickExpiringSoonestFirst(t *testing.T) {
	items := map[string]*model.Item{
		"soon":  item(func(it *model.Item) { it.ExpiresAt = base.Add(time.Minute) }),
		"later": item(func(it *model.Item) { it.ExpiresAt = base.Add(time.Hour) }),
		"never": item(func(it *model.Item) {}),
	}

	key, ok := New(config.PolicyExpiring).Pick(base, items)
	require.True(t, ok)
	require.Equal(t, "soon", key)
}

func TestPickExpiringNeverExpiresSortsLast(t *testing.T) {
	items := map[string]*model.Item{
		"never": item(func(it *model.Item) {}),
		"soon":  item(func(it *model.Item) { it.ExpiresAt = base.Add(time.Minute) }),
	}

	key, ok := New(config.PolicyExpiring).Pick(base, items)
	require.True(t, ok)
	require.Equal(t, "soon", key)

	// Only non-expiring items left: one of them still gets picked.
	delete(items, "soon")
	key, ok = New(config.PolicyExpiring).Pick(base, items)
	require.True(t, ok)
	require.Equal(t, "never", key)
}

func TestPickRandomReturnsMember(t *testing.T) {
	items := map[string]*model.Item{
		"a": item(func(it *model.Item) {}),
		"b": item(func(it *model.Item) {}),
		"c": item(func(it *model.Item) {}),
	}

	seen := make(map[string]bool)
	sel := New(config.PolicyRandom)
	for i := 0; i < 1000; i++ {
		key, ok := sel.Pick(base, items)
		require.True(t, ok)
		require.Contains(t, items, key)
		seen[key] = true
	}
	// No determinism is guaranteed, but over 1000 draws every member
	// should have shown up.
	require.Len(t, seen, 3)
}

func TestPickSmartPenalizesLargeStaleRarelyUsed(t *testing.T) {
	now := base.Add(24 * time.Hour)
	items := map[string]*model.Item{
		"small-hot": item(func(it *model.Item) {
			it.SizeBytes = 4 * 1024
			it.TouchedAt = now.Add(-time.Minute)
			it.Hits = 100
		}),
		"large-stale": item(func(it *model.Item) {
			it.SizeBytes = 50 * 1024 * 1024
			it.TouchedAt = base
			it.Hits = 1
		}),
	}

	key, ok := New(config.PolicySmart).Pick(now, items)
	require.True(t, ok)
	require.Equal(t, "large-stale", key)
}

func TestSmartScoreZeroHitsTreatedAsOne(t *testing.T) {
	it := item(func(it *model.Item) { it.Hits = 0 })
	require.Equal(t, smartScore(base, item(func(it *model.Item) { it.Hits = 1 })), smartScore(base, it))
}
