// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) to build a Config with defaults.
// - Load layers defaults, an optional YAML file and environment variables.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ShardCount configures the number of shards in the distinct-user set.
	ShardCount int `koanf:"shard_count"`

	// SumScale sets the fixed-point scale factor for the value sum.
	// The aggregate's rounding-error bound is event_count / sum_scale.
	SumScale int64 `koanf:"sum_scale"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:   "info",
		Addr:       ":8080",
		ShardCount: 64,
		SumScale:   1_000_000,
	}
}
