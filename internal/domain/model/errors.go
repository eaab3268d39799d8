package model

import "errors"

// Sentinel kinds for domain errors.
var (
	ErrInvalidEvent = errors.New("invalid event")
)
