package loadgen

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recnos/onemrc/internal/adapters/http/api"
	"github.com/recnos/onemrc/internal/adapters/repository"
	"github.com/recnos/onemrc/internal/domain/model"
	"github.com/recnos/onemrc/internal/domain/types"
	"github.com/recnos/onemrc/pkg/logger"
)

func init() {
	_ = logger.Init()
}

// newAggregatorServer stands up a real aggregator behind httptest so runs
// exercise the full wire path.
func newAggregatorServer(t *testing.T) (*httptest.Server, *repository.AggregateStore) {
	t.Helper()

	store := repository.NewAggregateStore(context.Background())
	mux := http.NewServeMux()
	api.NewServer(store).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, store
}

func testConfig(baseURL string, total, batchSize, gate int) *Config {
	cfg := NewConfig()
	cfg.BaseURL = baseURL
	cfg.TotalRequests = total
	cfg.BatchSize = batchSize
	cfg.MaxConcurrentBatches = gate
	cfg.Timeout = 5 * time.Second
	cfg.SettleDelay = 0
	return cfg
}

func TestDispatcherEveryAttemptLands(t *testing.T) {
	srv, store := newAggregatorServer(t)
	cfg := testConfig(srv.URL, 1000, 50, 8)

	d := NewDispatcher(cfg, NewHTTPTransport(cfg.BaseURL, cfg.Timeout, cfg.MaxConcurrentBatches), logger.Get())
	outcome, err := d.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(1000), outcome.Attempted)
	assert.Equal(t, int64(1000), outcome.Succeeded)
	assert.Equal(t, int64(0), outcome.Failed)

	snap := store.Snapshot(context.Background())
	assert.Equal(t, outcome.Succeeded, snap.TotalRequests)
	assert.Equal(t, int64(1000), snap.UniqueUsers)
}

func TestDispatcherRespectsGateCapacity(t *testing.T) {
	srv, _ := newAggregatorServer(t)
	cfg := testConfig(srv.URL, 400, 10, 4)

	d := NewDispatcher(cfg, NewHTTPTransport(cfg.BaseURL, cfg.Timeout, cfg.MaxConcurrentBatches), logger.Get())
	outcome, err := d.Run(context.Background())

	require.NoError(t, err)
	assert.LessOrEqual(t, outcome.GateHighWater, int64(cfg.MaxConcurrentBatches))
	assert.Positive(t, outcome.GateHighWater)
}

// flakyTransport fails every nth send and never reaches a real server.
type flakyTransport struct {
	sent    atomic.Int64
	failure int64
	store   *repository.AggregateStore
}

func (f *flakyTransport) SendEvent(ctx context.Context, e model.Event) error {
	n := f.sent.Add(1)
	if f.failure > 0 && n%f.failure == 0 {
		return errors.New("synthetic transport failure")
	}
	return f.store.Accept(ctx, e)
}

func (f *flakyTransport) FetchSnapshot(ctx context.Context) (types.Snapshot, error) {
	return f.store.Snapshot(ctx), nil
}

func (f *flakyTransport) CheckHealth(context.Context) error { return nil }

func (f *flakyTransport) ResetAggregate(ctx context.Context) error {
	f.store.Reset(ctx)
	return nil
}

func TestDispatcherAbsorbsPerAttemptFailures(t *testing.T) {
	store := repository.NewAggregateStore(context.Background())
	tr := &flakyTransport{failure: 10, store: store}
	cfg := testConfig("http://unused", 500, 25, 5)

	d := NewDispatcher(cfg, tr, logger.Get())
	outcome, err := d.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(500), outcome.Attempted)
	assert.Equal(t, int64(50), outcome.Failed)
	assert.Equal(t, int64(450), outcome.Succeeded)

	// Failed attempts must not leak into the aggregate.
	snap := store.Snapshot(context.Background())
	assert.Equal(t, outcome.Succeeded, snap.TotalRequests)
}

func TestDispatcherStopsOnCancelledContext(t *testing.T) {
	srv, _ := newAggregatorServer(t)
	cfg := testConfig(srv.URL, 10_000, 10, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDispatcher(cfg, NewHTTPTransport(cfg.BaseURL, cfg.Timeout, cfg.MaxConcurrentBatches), logger.Get())
	outcome, _ := d.Run(ctx)

	// A cancelled run must still account consistently for what it attempted.
	assert.Equal(t, outcome.Attempted, outcome.Succeeded+outcome.Failed)
	assert.Less(t, outcome.Attempted, int64(10_000))
}

func TestRunReconcilesAgainstRealAggregator(t *testing.T) {
	srv, store := newAggregatorServer(t)
	store.Reset(context.Background())

	cfg := testConfig(srv.URL, 2000, 100, 10)
	require.NoError(t, Run(context.Background(), cfg))

	snap := store.Snapshot(context.Background())
	expected := expectedTotals(cfg)

	assert.Equal(t, expected.Requests, snap.TotalRequests)
	assert.Equal(t, expected.Users, snap.UniqueUsers)
	assert.InDelta(t, expected.Sum, snap.Sum, float64(cfg.TotalRequests)*epsilonPerEvent)
}

func TestRunFailsFastWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	cfg := testConfig(srv.URL, 100, 10, 2)
	cfg.Timeout = 500 * time.Millisecond

	err := Run(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrConnectivity)
}
