package config

// Policy selects which item the engine removes when a capacity
// constraint is violated.
type Policy string

const (
	// PolicyLRU evicts the item with the oldest last-access time.
	PolicyLRU Policy = "lru"

	// PolicyLFU evicts the item with the lowest access count.
	PolicyLFU Policy = "lfu"

	// PolicyFIFO evicts the item with the oldest creation time.
	PolicyFIFO Policy = "fifo"

	// PolicyLargest evicts the item with the greatest stored size.
	PolicyLargest Policy = "largest"

	// PolicyExpiring evicts the item whose expiration is soonest.
	// Items without an expiration sort last.
	PolicyExpiring Policy = "expiring"

	// PolicyRandom evicts an arbitrary item. No determinism is guaranteed.
	PolicyRandom Policy = "random"

	// PolicySmart evicts by a weighted score:
	//
	//   score = hoursSinceLastAccess + sizeMB + 1/max(accessCount, 1)
	//
	// The item with the highest score goes first, which penalizes large,
	// stale, rarely-used items over small hot ones.
	PolicySmart Policy = "smart"
)

type EvictionCfg struct {
	// Policy defines the victim-selection strategy.
	// Supported values: "lru", "lfu", "fifo", "largest", "expiring",
	// "random", "smart". Defaults to "lru" when empty.
	Policy Policy `yaml:"policy"`
}

func (cfg *EvictionCfg) Enabled() bool {
	return cfg != nil
}
