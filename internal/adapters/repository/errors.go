package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrInvalidShardCount = errors.New("shard count must be positive")
	ErrInvalidSumScale   = errors.New("sum scale must be positive")
)
