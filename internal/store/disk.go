package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/zeebo/xxh3"

	"github.com/vbazhenov/go-bound-cache/internal/model"
)

const payloadExt = ".cache"

// Disk stores one opaque payload file per key. File names are derived
// deterministically from the key so the manifest stays the single source
// of truth for metadata and the files never need to be re-scanned.
type Disk struct {
	dir string
}

func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", dir, ErrUnavailable)
	}
	// Probe writability up front so activation fails instead of the first store.
	probe := filepath.Join(dir, ".probe")
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		return nil, fmt.Errorf("cache dir %s is not writable: %w", dir, ErrUnavailable)
	}
	_ = os.Remove(probe)

	return &Disk{dir: dir}, nil
}

func (d *Disk) Dir() string { return d.dir }

// Path returns the payload file for a key.
func (d *Disk) Path(key string) string {
	return filepath.Join(d.dir, FileName(key))
}

// FileName derives a payload file name from a cache key.
func FileName(key string) string {
	sum := xxh3.Hash128([]byte(key)).Bytes()
	return fmt.Sprintf("%x%s", sum, payloadExt)
}

func (d *Disk) Write(it *model.Item, stored []byte) error {
	path := d.Path(it.Key)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, stored, 0o644); err != nil {
		return fmt.Errorf("write payload file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("publish payload file %s: %w", path, err)
	}
	return nil
}

func (d *Disk) Read(it *model.Item) ([]byte, error) {
	stored, err := os.ReadFile(d.Path(it.Key))
	if err != nil {
		return nil, fmt.Errorf("read payload file for key %q: %w", it.Key, err)
	}
	return stored, nil
}

func (d *Disk) Remove(it *model.Item) {
	if err := os.Remove(d.Path(it.Key)); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("key", it.Key).Msg("[disk] remove payload file")
	}
}

func (d *Disk) Clear() {
	matches, err := filepath.Glob(filepath.Join(d.dir, "*"+payloadExt))
	if err != nil {
		log.Warn().Err(err).Str("dir", d.dir).Msg("[disk] glob payload files")
		return
	}
	for _, path := range matches {
		if err = os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("file", path).Msg("[disk] clear payload file")
		}
	}
}
