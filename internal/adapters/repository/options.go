// Package repository defines the aggregate store interface and errors.
package repository

// Option applies a configuration option to the AggregateStore.
type Option func(*AggregateStore)

// WithShardCount sets the number of shards in the distinct-user set.
// The value is rounded up to the nearest power of two.
func WithShardCount(count int) Option {
	return func(s *AggregateStore) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithSumScale sets the fixed-point scale factor for the value sum.
// Larger scales tighten the rounding-error bound at the cost of a smaller
// representable sum range.
func WithSumScale(scale int64) Option {
	return func(s *AggregateStore) {
		if scale > 0 {
			s.sumScale = scale
		}
	}
}
