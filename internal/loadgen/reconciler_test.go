package loadgen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/recnos/onemrc/internal/domain/types"
)

func TestReconcileCleanRun(t *testing.T) {
	outcome := Outcome{Attempted: 1000, Succeeded: 1000}
	snap := types.Snapshot{TotalRequests: 1000, UniqueUsers: 1000, Sum: 500_000.25}
	expected := Expected{Requests: 1000, Users: 1000, Sum: 500_000.25}

	r := Reconcile("run1", outcome, snap, expected, 0.001)

	assert.True(t, r.CountMatched)
	assert.True(t, r.UsersMatched)
	assert.True(t, r.SumMatched)
	assert.True(t, r.Verified())
	assert.Equal(t, int64(0), r.CountDelta)
}

func TestReconcileCountMismatchAlwaysFails(t *testing.T) {
	outcome := Outcome{Attempted: 1000, Succeeded: 1000, Failed: 0}
	snap := types.Snapshot{TotalRequests: 999, UniqueUsers: 1000, Sum: 1}
	expected := Expected{Requests: 1000, Users: 1000, Sum: 1}

	r := Reconcile("run1", outcome, snap, expected, 0.001)

	assert.False(t, r.CountMatched)
	assert.Equal(t, int64(-1), r.CountDelta)
	assert.False(t, r.Verified())

	// A count mismatch fails even when attempts also failed.
	outcome.Failed = 5
	outcome.Succeeded = 995
	r = Reconcile("run1", outcome, snap, expected, 0.001)
	assert.False(t, r.CountMatched)
	assert.False(t, r.Verified())
}

func TestReconcileFailuresRelaxExpectationChecks(t *testing.T) {
	// With failed attempts, the expected users and sum are unknowable; only
	// the count invariant binds.
	outcome := Outcome{Attempted: 1000, Succeeded: 990, Failed: 10}
	snap := types.Snapshot{TotalRequests: 990, UniqueUsers: 987, Sum: 123.0}
	expected := Expected{Requests: 1000, Users: 1000, Sum: 500_000}

	r := Reconcile("run1", outcome, snap, expected, 0.001)

	assert.True(t, r.CountMatched)
	assert.False(t, r.UsersMatched)
	assert.False(t, r.SumMatched)
	assert.True(t, r.Verified())
}

func TestReconcileSumEpsilon(t *testing.T) {
	outcome := Outcome{Attempted: 100, Succeeded: 100}
	expected := Expected{Requests: 100, Users: 100, Sum: 100.0}

	within := types.Snapshot{TotalRequests: 100, UniqueUsers: 100, Sum: 100.00005}
	r := Reconcile("run1", outcome, within, expected, 0.0001)
	assert.True(t, r.SumMatched)
	assert.True(t, r.Verified())

	outside := types.Snapshot{TotalRequests: 100, UniqueUsers: 100, Sum: 100.001}
	r = Reconcile("run1", outcome, outside, expected, 0.0001)
	assert.False(t, r.SumMatched)
	assert.False(t, r.Verified())
}
