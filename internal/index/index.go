package index

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/vbazhenov/go-bound-cache/internal/model"
	"github.com/vbazhenov/go-bound-cache/internal/store"
)

// State tracks the manifest lifecycle: unloaded -> loading -> validated -> active.
type State int32

const (
	StateUnloaded State = iota
	StateLoading
	StateValidated
	StateActive
)

// Index is the persisted manifest mapping keys to item metadata. The
// manifest is the single source of truth; payload files are opaque blobs.
type Index interface {
	// Load deserializes and validates the manifest. A corrupted or missing
	// manifest degrades to an empty index, never to a failure.
	Load() (items map[string]*model.Item, totalSize int64)

	// Persist writes the manifest durably. A mutation is not considered
	// durable until Persist returns nil.
	Persist(items map[string]*model.Item, totalSize int64, lastCleanup time.Time) error

	State() State
}

type manifest struct {
	Items       map[string]*model.Item `msgpack:"items"`
	TotalSize   int64                  `msgpack:"total_size"`
	LastCleanup time.Time              `msgpack:"last_cleanup"`
}

type Manifest struct {
	disk  *store.Disk
	path  string
	state State
}

func New(disk *store.Disk, name string) *Manifest {
	return &Manifest{
		disk:  disk,
		path:  filepath.Join(disk.Dir(), name),
		state: StateUnloaded,
	}
}

func (m *Manifest) State() State { return m.state }

func (m *Manifest) Load() (map[string]*model.Item, int64) {
	m.state = StateLoading

	items := m.decode()
	items, total := m.validate(items)
	m.state = StateValidated

	// Persist the corrected view so dropped entries stay dropped across
	// restarts. Failure here is non-fatal: the next mutation retries.
	if err := m.Persist(items, total, time.Time{}); err != nil {
		log.Warn().Err(err).Str("manifest", m.path).Msg("[index] persist corrected manifest")
	}
	m.state = StateActive

	return items, total
}

// decode reads the manifest file. Any failure resets to an empty index:
// a corrupted manifest must never prevent the cache from functioning.
func (m *Manifest) decode() map[string]*model.Item {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("manifest", m.path).Msg("[index] read manifest, starting empty")
		}
		return map[string]*model.Item{}
	}

	var mf manifest
	if err = msgpack.Unmarshal(data, &mf); err != nil {
		log.Warn().Err(err).Str("manifest", m.path).Msg("[index] corrupted manifest, starting empty")
		return map[string]*model.Item{}
	}
	if mf.Items == nil {
		return map[string]*model.Item{}
	}
	return mf.Items
}

// validate walks every indexed item and confirms its payload file exists;
// entries without a file are dropped. Payload files not referenced by any
// surviving entry are orphans and get deleted.
func (m *Manifest) validate(items map[string]*model.Item) (map[string]*model.Item, int64) {
	valid := make(map[string]*model.Item, len(items))
	referenced := make(map[string]struct{}, len(items))
	var total int64

	for key, it := range items {
		if _, err := os.Stat(m.disk.Path(key)); err != nil {
			log.Warn().Str("key", key).Msg("[index] payload file missing, dropping entry")
			continue
		}
		it.Key = key
		valid[key] = it
		referenced[m.disk.Path(key)] = struct{}{}
		total += it.SizeBytes
	}

	matches, err := filepath.Glob(filepath.Join(m.disk.Dir(), "*.cache"))
	if err == nil {
		for _, path := range matches {
			if _, ok := referenced[path]; !ok {
				if err = os.Remove(path); err != nil && !os.IsNotExist(err) {
					log.Warn().Err(err).Str("file", path).Msg("[index] remove orphan payload file")
				}
			}
		}
	}

	return valid, total
}

func (m *Manifest) Persist(items map[string]*model.Item, totalSize int64, lastCleanup time.Time) error {
	data, err := msgpack.Marshal(&manifest{
		Items:       items,
		TotalSize:   totalSize,
		LastCleanup: lastCleanup,
	})
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	tmp := m.path + ".tmp"
	if err = os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write manifest %s: %w", tmp, err)
	}
	if err = os.Rename(tmp, m.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("publish manifest %s: %w", m.path, err)
	}
	return nil
}
