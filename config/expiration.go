package config

type ExpirationCfg struct {
	// DefaultTTL is applied to items stored without an explicit TTL.
	// Zero means such items never expire.
	// Example: "1d".
	DefaultTTL Duration `yaml:"default_ttl"`

	// CleanupInterval is the period of the background sweep that removes
	// expired items independently of access. When zero it is derived during
	// normalization: one minute for the memory variant, one hour for the
	// disk variant.
	CleanupInterval Duration `yaml:"cleanup_interval"`

	// Rate limits how many expired items the sweeper removes per second.
	// Zero disables pacing and the sweep removes everything it finds at once.
	// Example: 1000.
	Rate int `yaml:"rate"`
}

func (cfg *ExpirationCfg) Enabled() bool {
	return cfg != nil
}
