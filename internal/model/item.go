package model

import "time"

// Item is the metadata record of one cached entry. The engine owns all
// items and mutates them only inside its critical section.
type Item struct {
	Key string `msgpack:"key"`

	// SizeBytes is the size of the stored payload after compression, so the
	// aggregate size accounting is exact, not estimated.
	SizeBytes int64 `msgpack:"size"`

	CreatedAt time.Time `msgpack:"created_at"`
	TouchedAt time.Time `msgpack:"touched_at"`

	// Hits counts successful retrievals of this item.
	Hits uint64 `msgpack:"hits"`

	// ExpiresAt is zero for items that never expire.
	ExpiresAt time.Time `msgpack:"expires_at"`

	Compressed bool `msgpack:"compressed"`

	// Checksum is the hex digest of the logical (uncompressed) payload.
	// Empty for memory-only items and for legacy entries written before
	// verification existed.
	Checksum string `msgpack:"checksum"`

	// Payload holds the stored bytes for the memory variant. Disk items
	// keep payloads in their backing files and leave it nil.
	Payload []byte `msgpack:"-"`
}

func (it *Item) Expirable() bool {
	return !it.ExpiresAt.IsZero()
}

// ExpiredAt reports whether the item is expired at now. The boundary
// counts as expired so a zero TTL makes the item absent immediately.
func (it *Item) ExpiredAt(now time.Time) bool {
	return it.Expirable() && !it.ExpiresAt.After(now)
}

func (it *Item) Touch(now time.Time) {
	it.TouchedAt = now
	it.Hits++
}
