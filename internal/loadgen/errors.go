package loadgen

import "errors"

// Sentinel kinds for load-run errors.
var (
	ErrInvalidConfig = errors.New("invalid load config")
	ErrConnectivity  = errors.New("aggregator unreachable")
	ErrRejected      = errors.New("event rejected")
)
