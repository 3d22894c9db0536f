package index

import (
	"time"

	"github.com/vbazhenov/go-bound-cache/internal/model"
)

// NoOpIndex backs the memory variant, which has no manifest to persist.
type NoOpIndex struct{}

// Load always returns an empty index.
func (NoOpIndex) Load() (map[string]*model.Item, int64) {
	return map[string]*model.Item{}, 0
}

// Persist does nothing and returns nil.
func (NoOpIndex) Persist(map[string]*model.Item, int64, time.Time) error {
	return nil
}

// State always reports active.
func (NoOpIndex) State() State {
	return StateActive
}
