package repository

import (
	"context"
	"math"
	"sync"
	"sync/atomic"

	"github.com/recnos/onemrc/internal/domain/model"
	"github.com/recnos/onemrc/internal/domain/types"
	"github.com/recnos/onemrc/pkg/metrics"
)

// In-memory, write-optimized Store implementation.
//
// Each of the three aggregate fields has its own independent concurrency
// mechanism; there is no cross-field transaction and no global lock:
//
//   - total count:   atomic.Int64
//   - value sum:     fixed-point atomic.Int64 (value * sumScale, rounded)
//   - distinct users: hash set sharded across independently-locked shards,
//     with cardinality mirrored into an atomic so reads never take a lock
//
// The fixed-point sum trades a bounded rounding error for a single-instruction
// lock-free add: each accepted event contributes at most 1/(2*sumScale) of
// absolute error, so after N events the reported sum is within N/sumScale of
// the exact mathematical sum. With the default scale of 1e6 that is 1e-6 per
// event.

// Default store configuration constants.
const (
	defaultShardCount = 64
	defaultSumScale   = 1_000_000
)

// userShard holds one partition of the distinct-user set.
type userShard struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// AggregateStore implements Store.
type AggregateStore struct {
	totalCount atomic.Int64
	sumFixed   atomic.Int64
	userCount  atomic.Int64

	shards     []userShard
	shardCount int
	sumScale   int64
}

// NewAggregateStore creates a new in-memory aggregate store with
// configuration options.
func NewAggregateStore(ctx context.Context, opts ...Option) *AggregateStore {
	s := &AggregateStore{
		shardCount: defaultShardCount,
		sumScale:   defaultSumScale,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Shard selection uses a bitmask, so the count is rounded up to a
	// power of two.
	s.shardCount = nextPowerOfTwo(s.shardCount)
	s.shards = make([]userShard, s.shardCount)
	for i := range s.shards {
		s.shards[i].seen = make(map[string]struct{})
	}

	return s
}

// Accept folds one event into the aggregate.
func (s *AggregateStore) Accept(ctx context.Context, e model.Event) error {
	if err := e.Validate(); err != nil {
		metrics.RecordEventRejected(rejectReason(e))
		return err
	}

	s.totalCount.Add(1)
	s.sumFixed.Add(s.toFixed(e.Value))

	shard := &s.shards[shardIndex(e.UserID, uint32(s.shardCount))]
	shard.mu.Lock()
	_, exists := shard.seen[e.UserID]
	if !exists {
		shard.seen[e.UserID] = struct{}{}
	}
	shard.mu.Unlock()
	if !exists {
		s.userCount.Add(1)
	}

	metrics.RecordEventAccepted()
	return nil
}

// Snapshot returns the current aggregate values.
//
// The fields are loaded independently from their backing atomics, so a
// snapshot racing an in-flight Accept may observe the count from after the
// N-th accept and the cardinality from before it. Each field on its own is
// monotonic between resets.
func (s *AggregateStore) Snapshot(ctx context.Context) types.Snapshot {
	total := s.totalCount.Load()
	sum := s.toFloat(s.sumFixed.Load())
	users := s.userCount.Load()

	var avg float64
	if total > 0 {
		avg = sum / float64(total)
	}

	metrics.RecordSnapshotRead()

	return types.Snapshot{
		TotalRequests: total,
		UniqueUsers:   users,
		Sum:           sum,
		Avg:           avg,
	}
}

// Count returns the current distinct-user cardinality.
func (s *AggregateStore) Count(ctx context.Context) int {
	return int(s.userCount.Load())
}

// Reset zeroes all aggregate state. Intended for test and benchmark
// sequencing only; concurrent Accept calls during a reset may land on either
// side of it.
func (s *AggregateStore) Reset(ctx context.Context) {
	for i := range s.shards {
		s.shards[i].mu.Lock()
		s.shards[i].seen = make(map[string]struct{})
		s.shards[i].mu.Unlock()
	}
	s.totalCount.Store(0)
	s.sumFixed.Store(0)
	s.userCount.Store(0)
}

// SumScale exposes the fixed-point scale so callers can compute the error
// bound for a given event count.
func (s *AggregateStore) SumScale() int64 {
	return s.sumScale
}

func (s *AggregateStore) toFixed(v float64) int64 {
	return int64(math.Round(v * float64(s.sumScale)))
}

func (s *AggregateStore) toFloat(fixed int64) float64 {
	return float64(fixed) / float64(s.sumScale)
}

// rejectReason classifies an invalid event for the rejection counter.
func rejectReason(e model.Event) string {
	switch {
	case e.UserID == "":
		return "missing_user"
	case math.IsNaN(e.Value):
		return "nan_value"
	case math.IsInf(e.Value, 0):
		return "infinite_value"
	default:
		return "invalid"
	}
}

// shardIndex maps a user id onto a shard with FNV-1a. n must be a power of two.
func shardIndex(key string, n uint32) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	h := uint32(offset32)
	for i := 0; i < len(key); i++ {
		h ^= uint32(key[i])
		h *= prime32
	}
	return h & (n - 1)
}

// nextPowerOfTwo rounds n up to the nearest power of two, minimum 1.
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
