package store

import (
	"errors"

	"github.com/vbazhenov/go-bound-cache/internal/model"
)

// ErrUnavailable means the backing medium could not be prepared or reached.
// It is fatal to the engine instance being activated but must never crash
// the host process.
var ErrUnavailable = errors.New("cache backing store unavailable")

// Backend persists stored (post-compression) payload bytes for one engine
// instance. Implementations are not safe for concurrent use on their own;
// the engine serializes all calls behind its lock.
type Backend interface {
	// Write persists the stored bytes for the item.
	Write(it *model.Item, stored []byte) error

	// Read returns the stored bytes for the item.
	Read(it *model.Item) ([]byte, error)

	// Remove drops the item's payload. Best effort, idempotent.
	Remove(it *model.Item)

	// Clear drops every payload owned by this backend.
	Clear()
}
