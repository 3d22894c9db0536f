package config

type DiskCfg struct {
	// Dir is the directory holding one payload file per key plus the
	// manifest. It is created on activation; activation fails if it cannot
	// be created or written.
	Dir string `yaml:"dir"`

	// ManifestName is the base name of the persisted index file.
	// Defaults to "manifest.bcache" when empty.
	ManifestName string `yaml:"manifest_name"`

	// SyncOnMutate persists the manifest after every mutation. When false
	// the manifest is flushed on SyncInterval and at shutdown only, trading
	// durability for write throughput.
	SyncOnMutate bool `yaml:"sync_on_mutate"`

	// SyncInterval is the period of the background manifest flush used when
	// SyncOnMutate is false. Defaults to one minute.
	SyncInterval Duration `yaml:"sync_interval"`
}

func (cfg *DiskCfg) Enabled() bool {
	return cfg != nil
}
