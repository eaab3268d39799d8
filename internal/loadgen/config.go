// Package loadgen drives batched, admission-controlled event traffic against
// a running aggregator and reconciles the observed outcomes with the
// aggregator's own totals.
package loadgen

import (
	"fmt"
	"time"
)

// Default run configuration constants.
const (
	DefaultBaseURL              = "http://127.0.0.1:8080"
	DefaultTotalRequests        = 5000
	DefaultBatchSize            = 100
	DefaultMaxConcurrentBatches = 10
	DefaultTimeout              = 10 * time.Second
	DefaultSettleDelay          = 500 * time.Millisecond
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL              string        // Base URL of the aggregator
	TotalRequests        int           // Total number of event-send attempts
	BatchSize            int           // Width of each contiguous batch
	MaxConcurrentBatches int           // Admission-gate capacity
	Timeout              time.Duration // HTTP request timeout
	SettleDelay          time.Duration // Pause between join and final snapshot
	RequestPause         time.Duration // Optional pause between requests inside a batch
	UserPool             int           // Reuse ids modulo this pool; 0 means every event is distinct
	ResetFirst           bool          // POST /reset before dispatching
	Verbose              bool          // Enable verbose logging
	LogFile              string        // Log file for run output
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		BaseURL:              DefaultBaseURL,
		TotalRequests:        DefaultTotalRequests,
		BatchSize:            DefaultBatchSize,
		MaxConcurrentBatches: DefaultMaxConcurrentBatches,
		Timeout:              DefaultTimeout,
		SettleDelay:          DefaultSettleDelay,
	}
}

// Validate checks the run parameters.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL must not be empty", ErrInvalidConfig)
	}
	if c.TotalRequests <= 0 {
		return fmt.Errorf("%w: total requests must be positive", ErrInvalidConfig)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidConfig)
	}
	if c.BatchSize > c.TotalRequests {
		return fmt.Errorf("%w: batch size must not exceed total requests", ErrInvalidConfig)
	}
	if c.MaxConcurrentBatches <= 0 {
		return fmt.Errorf("%w: max concurrent batches must be positive", ErrInvalidConfig)
	}
	if c.UserPool < 0 {
		return fmt.Errorf("%w: user pool must not be negative", ErrInvalidConfig)
	}
	return nil
}
