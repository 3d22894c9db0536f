package config

type TelemetryCfg struct {
	// LogsEnabled turns on the periodic stats log line.
	LogsEnabled bool `yaml:"logs_enabled"`

	// LogsInterval is the period between stats log lines. Defaults to 5s.
	LogsInterval Duration `yaml:"logs_interval"`

	// PrometheusEnabled registers a prometheus collector for the engine
	// counters on the default registerer.
	PrometheusEnabled bool `yaml:"prometheus_enabled"`

	// Namespace prefixes exported metric names. Defaults to "boundcache".
	Namespace string `yaml:"namespace"`
}

func (cfg *TelemetryCfg) Enabled() bool {
	return cfg != nil
}
