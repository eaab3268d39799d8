package loadgen

import (
	"math"

	"github.com/recnos/onemrc/internal/domain/types"
)

// Report is the result of reconciling the dispatcher's local outcome
// counters against the aggregator's final snapshot. It only reports; it
// never retries or corrects.
type Report struct {
	RunID    string
	Outcome  Outcome
	Snapshot types.Snapshot
	Expected Expected

	// CountDelta is snapshot total minus locally observed successes.
	// Positive means the aggregator counted more than the dispatcher saw
	// succeed; negative means accepted updates went missing.
	CountDelta int64

	// UserDelta and SumDelta compare against the pre-computed expectation;
	// they are only meaningful on a clean run (no failed attempts) against
	// a fresh aggregate.
	UserDelta  int64
	SumDelta   float64
	SumEpsilon float64

	CountMatched bool
	UsersMatched bool
	SumMatched   bool
}

// Verified reports whether the run reconciles: the count check must hold
// always, the expectation checks only bind on a clean run.
func (r Report) Verified() bool {
	if !r.CountMatched {
		return false
	}
	if r.Outcome.Failed > 0 {
		return true
	}
	return r.UsersMatched && r.SumMatched
}

// Reconcile diffs the dispatcher-local outcome against the aggregator's
// snapshot. sumEpsilon is the tolerated absolute sum error, normally
// attempts/sumScale for a fixed-point aggregator.
func Reconcile(runID string, outcome Outcome, snap types.Snapshot, expected Expected, sumEpsilon float64) Report {
	r := Report{
		RunID:      runID,
		Outcome:    outcome,
		Snapshot:   snap,
		Expected:   expected,
		CountDelta: snap.TotalRequests - outcome.Succeeded,
		UserDelta:  snap.UniqueUsers - expected.Users,
		SumDelta:   snap.Sum - expected.Sum,
		SumEpsilon: sumEpsilon,
	}

	r.CountMatched = r.CountDelta == 0
	r.UsersMatched = r.UserDelta == 0
	r.SumMatched = math.Abs(r.SumDelta) <= sumEpsilon

	return r
}
