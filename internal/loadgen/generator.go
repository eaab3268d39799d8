package loadgen

import (
	"strconv"

	"github.com/recnos/onemrc/internal/domain/model"
)

// Synthetic value cycle constants. Values follow (i % valueCycle) + valueBias
// so the exact sum of any prefix is known in closed form before the run.
const (
	valueCycle = 1000
	valueBias  = 0.5
)

// batch is one contiguous partition of the requested event volume and the
// unit of admission-gate scheduling.
type batch struct {
	index  int // position in the plan
	offset int // first global event index covered by this batch
	size   int // number of events in this batch
}

// plan partitions [0, total) into contiguous batches of batchSize events,
// truncating the final batch to the remainder.
func plan(total, batchSize int) []batch {
	count := (total + batchSize - 1) / batchSize
	batches := make([]batch, 0, count)
	for i := 0; i < count; i++ {
		offset := i * batchSize
		size := batchSize
		if offset+size > total {
			size = total - offset
		}
		batches = append(batches, batch{index: i, offset: offset, size: size})
	}
	return batches
}

// eventAt builds the synthetic event for a global index. Identifiers are
// deterministic so the expected distinct-user count is known ahead of the
// run: with a zero pool every event carries a fresh id, otherwise ids wrap
// around the pool.
func eventAt(index, userPool int) model.Event {
	id := index
	if userPool > 0 {
		id = index % userPool
	}
	return model.Event{
		UserID: "user_" + strconv.Itoa(id),
		Value:  float64(index%valueCycle) + valueBias,
	}
}

// Expected holds the totals the aggregator must report if every attempt
// succeeds.
type Expected struct {
	Requests int64
	Users    int64
	Sum      float64
}

// expectedTotals derives the exact expected aggregate for a config, using
// the closed form of the synthetic value cycle.
func expectedTotals(cfg *Config) Expected {
	n := cfg.TotalRequests

	users := n
	if cfg.UserPool > 0 && cfg.UserPool < n {
		users = cfg.UserPool
	}

	// One full cycle of valueCycle events sums to
	// (0 + 1 + ... + valueCycle-1) + valueCycle*valueBias.
	cycles := n / valueCycle
	rem := n % valueCycle
	cycleSum := float64(valueCycle*(valueCycle-1))/2 + float64(valueCycle)*valueBias
	remSum := float64(rem*(rem-1))/2 + float64(rem)*valueBias

	return Expected{
		Requests: int64(n),
		Users:    int64(users),
		Sum:      float64(cycles)*cycleSum + remSum,
	}
}
