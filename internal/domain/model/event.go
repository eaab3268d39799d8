// Package model defines the core domain entities for event ingestion.
package model

import (
	"fmt"
	"math"
	"strings"
)

// Event is a single numeric measurement tagged by a user identifier.
// Events are ephemeral: they are consumed once by the aggregate store and
// never retained individually.
type Event struct {
	UserID string  `json:"userId"`
	Value  float64 `json:"value"`
}

// Validate checks the event against the store's admission constraints.
// The user id must be a non-empty identifier and the value must be finite.
func (e Event) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return fmt.Errorf("%w: missing userId", ErrInvalidEvent)
	}
	if math.IsNaN(e.Value) {
		return fmt.Errorf("%w: value is NaN", ErrInvalidEvent)
	}
	if math.IsInf(e.Value, 0) {
		return fmt.Errorf("%w: value is infinite", ErrInvalidEvent)
	}
	return nil
}
