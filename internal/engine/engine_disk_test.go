package engine

import (
	"os"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/vbazhenov/go-bound-cache/config"
	"github.com/vbazhenov/go-bound-cache/internal/store"
)

func diskCfg(dir string, mut ...func(*config.Cache)) *config.Cache {
	cfg := &config.Cache{
		Capacity: config.CapacityCfg{
			MaxSizeBytes: 1024 * 1024,
			MaxItems:     1024,
		},
		Eviction: &config.EvictionCfg{Policy: config.PolicyLRU},
		Expiration: &config.ExpirationCfg{
			DefaultTTL: config.Duration(time.Hour),
		},
		Compression: &config.CompressionCfg{ThresholdBytes: 64},
		Disk: &config.DiskCfg{
			Dir:          dir,
			SyncOnMutate: true,
		},
	}
	for _, m := range mut {
		m(cfg)
	}
	cfg.Normalize()
	return cfg
}

func newDiskEngine(t *testing.T, cfg *config.Cache) (*Engine, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	e, err := New(cfg, testLogger(), mock)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e, mock
}

func TestDiskChecksumRoundtrip(t *testing.T) {
	e, _ := newDiskEngine(t, diskCfg(t.TempDir()))

	payload := make([]byte, 16*1024) // compresses, exercises both paths
	for i := range payload {
		payload[i] = byte(i % 7)
	}
	require.NoError(t, e.Store("k", payload))

	got, found, err := e.Retrieve("k")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, payload, got)
	require.True(t, e.items["k"].Compressed)
	require.NotEmpty(t, e.items["k"].Checksum)
}

func TestDiskCorruptionDetectedAndItemRemoved(t *testing.T) {
	dir := t.TempDir()
	e, _ := newDiskEngine(t, diskCfg(dir, func(c *config.Cache) {
		c.Compression = nil
	}))

	require.NoError(t, e.Store("k", []byte("trustworthy bytes")))

	// flip the backing file behind the engine's back
	path := e.backend.(*store.Disk).Path("k")
	require.NoError(t, os.WriteFile(path, []byte("tampered bytes!!!"), 0o644))

	got, found, err := e.Retrieve("k")
	require.ErrorIs(t, err, ErrCorrupted)
	require.False(t, found)
	require.Nil(t, got)

	// detection removed the item as a side effect
	require.False(t, e.Exists("k"))
	require.Equal(t, int64(0), e.Metrics().Items)
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestDiskCorruptionOfCompressedPayloadDetected(t *testing.T) {
	e, _ := newDiskEngine(t, diskCfg(t.TempDir()))

	require.NoError(t, e.Store("k", make([]byte, 8*1024)))
	require.True(t, e.items["k"].Compressed)

	path := e.backend.(*store.Disk).Path("k")
	require.NoError(t, os.WriteFile(path, []byte("not gzip anymore"), 0o644))

	// Decompression fails open and hands back garbage; the checksum over
	// the logical payload catches it.
	_, found, err := e.Retrieve("k")
	require.ErrorIs(t, err, ErrCorrupted)
	require.False(t, found)
}

func TestDiskLegacyItemWithoutChecksumStillReadable(t *testing.T) {
	e, _ := newDiskEngine(t, diskCfg(t.TempDir(), func(c *config.Cache) {
		c.Compression = nil
	}))

	require.NoError(t, e.Store("k", []byte("pre-verification era")))
	e.items["k"].Checksum = "" // entry from a manifest written before checksums

	got, found, err := e.Retrieve("k")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("pre-verification era"), got)
}

func TestDiskPersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	e1, _ := newDiskEngine(t, diskCfg(dir))
	require.NoError(t, e1.Store("k", []byte("survives restarts")))
	require.NoError(t, e1.Close())

	e2, _ := newDiskEngine(t, diskCfg(dir))
	got, found, err := e2.Retrieve("k")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte("survives restarts"), got)

	m := e2.Metrics()
	require.Equal(t, int64(1), m.Items)
	require.Equal(t, int64(len("survives restarts")), m.SizeBytes)
}

func TestDiskMissingPayloadFileDroppedOnLoad(t *testing.T) {
	dir := t.TempDir()

	e1, _ := newDiskEngine(t, diskCfg(dir))
	require.NoError(t, e1.Store("kept", []byte("kept")))
	require.NoError(t, e1.Store("lost", []byte("lost")))
	require.NoError(t, e1.Close())

	require.NoError(t, os.Remove(e1.backend.(*store.Disk).Path("lost")))

	e2, _ := newDiskEngine(t, diskCfg(dir))
	require.True(t, e2.Exists("kept"))
	require.False(t, e2.Exists("lost"))
	require.Equal(t, int64(1), e2.Metrics().Items)
}

func TestDiskUnreadablePayloadDegradesToMiss(t *testing.T) {
	dir := t.TempDir()
	e, _ := newDiskEngine(t, diskCfg(dir))

	require.NoError(t, e.Store("k", []byte("here today")))
	require.NoError(t, os.Remove(e.backend.(*store.Disk).Path("k")))

	got, found, err := e.Retrieve("k")
	require.NoError(t, err)
	require.False(t, found)
	require.Nil(t, got)
	require.Equal(t, uint64(1), e.Metrics().Misses)
	require.Equal(t, int64(0), e.Metrics().Items)
}

func TestDiskActivationFailsOnUnusableDir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	parent := t.TempDir()
	require.NoError(t, os.Chmod(parent, 0o555))
	t.Cleanup(func() { _ = os.Chmod(parent, 0o755) })

	_, err := New(diskCfg(parent+"/cache"), testLogger(), clock.NewMock())
	require.ErrorIs(t, err, store.ErrUnavailable)
}

func TestDiskRemoveAllClearsFilesAndManifest(t *testing.T) {
	dir := t.TempDir()
	e, _ := newDiskEngine(t, diskCfg(dir))

	require.NoError(t, e.Store("a", []byte("a")))
	require.NoError(t, e.Store("b", []byte("b")))
	e.RemoveAll()
	require.NoError(t, e.Close())

	e2, _ := newDiskEngine(t, diskCfg(dir))
	require.Equal(t, int64(0), e2.Metrics().Items)
	require.Empty(t, e2.Keys())
}

func TestDiskLazySyncFlushesOnClose(t *testing.T) {
	dir := t.TempDir()

	e1, _ := newDiskEngine(t, diskCfg(dir, func(c *config.Cache) {
		c.Disk.SyncOnMutate = false
	}))
	require.NoError(t, e1.Store("k", []byte("flushed at shutdown")))
	require.NoError(t, e1.Close())

	e2, _ := newDiskEngine(t, diskCfg(dir))
	require.True(t, e2.Exists("k"))
}
