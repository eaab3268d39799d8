// Package repository defines the aggregate store interface and errors.
package repository

import (
	"context"

	"github.com/recnos/onemrc/internal/domain/model"
	"github.com/recnos/onemrc/internal/domain/types"
)

// Store provides write and read access to the running aggregate.
//
// Implementations must be safe for arbitrary concurrent callers. Accept must
// never lose an increment, a sum contribution or a set insertion regardless
// of how many writers race, and Snapshot must be callable while writers are
// still in flight.
type Store interface {
	// Accept folds one event into the aggregate. It returns
	// model.ErrInvalidEvent when the event fails admission constraints;
	// rejected events leave the aggregate untouched.
	Accept(ctx context.Context, e model.Event) error

	// Snapshot returns a point-in-time read of the aggregate. Fields are
	// read independently; see types.Snapshot for the consistency contract.
	Snapshot(ctx context.Context) types.Snapshot

	// Count returns the current distinct-user cardinality.
	Count(ctx context.Context) int

	// Reset zeroes the aggregate. It exists for test and benchmark
	// sequencing; it is not part of the steady-state ingest path.
	Reset(ctx context.Context)
}
