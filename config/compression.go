package config

// CompressionCfg
//   - Supported levels:
//     CompressNoCompression      = 0
//     CompressBestSpeed          = 1
//     CompressBestCompression    = 9
//     CompressDefaultCompression = -1 // gzip.DefaultCompression
type CompressionCfg struct {
	// ThresholdBytes is the minimum payload length at which compression is
	// attempted. Smaller payloads are stored as-is.
	ThresholdBytes int64 `yaml:"threshold_bytes"`

	// Level is the gzip compression level.
	Level int `yaml:"level"`
}

func (cfg *CompressionCfg) Enabled() bool {
	return cfg != nil
}
