// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"sync"

	repository "github.com/recnos/onemrc/internal/adapters/repository"
	"github.com/recnos/onemrc/internal/domain/model"
	"github.com/recnos/onemrc/internal/domain/types"
	"github.com/recnos/onemrc/pkg/logger"
	"github.com/recnos/onemrc/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultShardCount = 64
	defaultSumScale   = 1_000_000
)

// Service implements the API dependencies for the event aggregator.
//
// The aggregate store is constructed once in Start and the service handle is
// passed explicitly to every handler; there is no package-level aggregate.
type Service struct {
	mu sync.RWMutex

	// Core components
	store repository.Store

	// Configuration
	shardCount int
	sumScale   int64

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithShardCount sets the number of shards in the distinct-user set.
func WithShardCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithSumScale sets the fixed-point scale for the value sum.
func WithSumScale(scale int64) Option {
	return func(s *Service) {
		if scale > 0 {
			s.sumScale = scale
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStore overrides the aggregate store, mainly for tests.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		shardCount: defaultShardCount,
		sumScale:   defaultSumScale,
		logger:     nil, // resolved when the service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	if s.store == nil {
		s.store = repository.NewAggregateStore(ctx,
			repository.WithShardCount(s.shardCount),
			repository.WithSumScale(s.sumScale),
		)
	}

	s.started = true
	s.logger.Info(ctx, "aggregator service started",
		logger.Int("shards", s.shardCount),
		logger.Int64("sumScale", s.sumScale),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.started = false
	s.logger.Info(context.Background(), "aggregator service stopped")
}

// Accept folds one event into the aggregate.
func (s *Service) Accept(ctx context.Context, e model.Event) error {
	return s.store.Accept(ctx, e)
}

// Snapshot returns a point-in-time read of the aggregate.
func (s *Service) Snapshot(ctx context.Context) types.Snapshot {
	return s.store.Snapshot(ctx)
}

// Reset zeroes the aggregate. Exposed for test and benchmark sequencing.
func (s *Service) Reset(ctx context.Context) {
	s.store.Reset(ctx)
	s.logger.Warn(ctx, "aggregate reset")
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":    s.started,
		"shardCount": s.shardCount,
		"sumScale":   s.sumScale,
	}

	if s.started {
		snap := s.store.Snapshot(context.Background())
		stats["totalRequests"] = snap.TotalRequests
		stats["uniqueUsers"] = snap.UniqueUsers
		stats["sum"] = snap.Sum

		metrics.UpdateTotalEvents(snap.TotalRequests)
		metrics.UpdateDistinctUsers(snap.UniqueUsers)
		metrics.UpdateValueSum(snap.Sum)
	}

	return stats
}
