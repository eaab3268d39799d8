package loadgen

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"golang.org/x/sync/semaphore"

	"github.com/recnos/onemrc/pkg/logger"
)

// Latency histogram bounds: 1 microsecond to 1 minute, 3 significant figures.
const (
	histogramMinMicros = 1
	histogramMaxMicros = 60_000_000
	histogramSigFigs   = 3
)

// Outcome holds the dispatcher-local counters for one run. The three
// counters are independent and only read after every batch has joined.
type Outcome struct {
	Attempted     int64
	Succeeded     int64
	Failed        int64
	GateHighWater int64
	Duration      time.Duration

	// Latency percentiles in milliseconds, taken over all attempts.
	LatencyP50 float64
	LatencyP90 float64
	LatencyP99 float64
	LatencyMax float64
}

// Dispatcher drives TotalRequests event-send attempts through a Transport,
// partitioned into batches with at most MaxConcurrentBatches in flight.
//
// The admission gate is the only backpressure point: a batch acquires one
// unit of gate capacity before issuing requests and releases it on every
// exit path. Per-attempt failures are absorbed into the failed counter and
// never abort sibling attempts or batches.
type Dispatcher struct {
	cfg       *Config
	transport Transport
	logger    logger.Logger

	attempted atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64

	inFlight  atomic.Int64
	highWater atomic.Int64

	histMu sync.Mutex
	hist   *hdrhistogram.Histogram
}

// NewDispatcher creates a dispatcher for one run.
func NewDispatcher(cfg *Config, transport Transport, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:       cfg,
		transport: transport,
		logger:    log,
		hist:      hdrhistogram.New(histogramMinMicros, histogramMaxMicros, histogramSigFigs),
	}
}

// Run executes the full plan and blocks until every batch has completed.
// There is no partial-termination path: the returned Outcome always accounts
// for all TotalRequests attempts unless ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) (Outcome, error) {
	batches := plan(d.cfg.TotalRequests, d.cfg.BatchSize)
	gate := semaphore.NewWeighted(int64(d.cfg.MaxConcurrentBatches))

	d.logger.Info(ctx, "dispatching batches",
		logger.Int("batches", len(batches)),
		logger.Int("batchSize", d.cfg.BatchSize),
		logger.Int("gateCapacity", d.cfg.MaxConcurrentBatches),
	)

	start := time.Now()

	var wg sync.WaitGroup
	for _, b := range batches {
		if err := gate.Acquire(ctx, 1); err != nil {
			// Context cancelled while waiting for capacity; join what is
			// already in flight before reporting.
			wg.Wait()
			return d.outcome(time.Since(start)), fmt.Errorf("admission gate: %w", err)
		}

		d.noteAcquired()

		wg.Add(1)
		go func(b batch) {
			defer wg.Done()
			defer gate.Release(1)
			defer d.inFlight.Add(-1)
			d.runBatch(ctx, b)
		}(b)
	}

	wg.Wait()
	return d.outcome(time.Since(start)), nil
}

// runBatch issues the batch's requests sequentially, optionally pacing them.
// Every attempt is terminal: success or failure, never retried.
func (d *Dispatcher) runBatch(ctx context.Context, b batch) {
	for i := 0; i < b.size; i++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		e := eventAt(b.offset+i, d.cfg.UserPool)

		d.attempted.Add(1)
		sent := time.Now()
		err := d.transport.SendEvent(ctx, e)
		d.recordLatency(time.Since(sent))

		if err != nil {
			d.failed.Add(1)
			if d.cfg.Verbose {
				d.logger.Debug(ctx, "attempt failed",
					logger.Int("batch", b.index),
					logger.String("userId", e.UserID),
					logger.Error(err),
				)
			}
		} else {
			d.succeeded.Add(1)
		}

		if d.cfg.RequestPause > 0 && i < b.size-1 {
			time.Sleep(d.cfg.RequestPause)
		}
	}
}

// noteAcquired tracks the number of batches holding gate capacity and its
// high-water mark.
func (d *Dispatcher) noteAcquired() {
	cur := d.inFlight.Add(1)
	for {
		hw := d.highWater.Load()
		if cur <= hw || d.highWater.CompareAndSwap(hw, cur) {
			return
		}
	}
}

func (d *Dispatcher) recordLatency(elapsed time.Duration) {
	d.histMu.Lock()
	_ = d.hist.RecordValue(elapsed.Microseconds())
	d.histMu.Unlock()
}

func (d *Dispatcher) outcome(elapsed time.Duration) Outcome {
	d.histMu.Lock()
	defer d.histMu.Unlock()

	const microsPerMilli = 1000.0
	return Outcome{
		Attempted:     d.attempted.Load(),
		Succeeded:     d.succeeded.Load(),
		Failed:        d.failed.Load(),
		GateHighWater: d.highWater.Load(),
		Duration:      elapsed,
		LatencyP50:    float64(d.hist.ValueAtQuantile(50)) / microsPerMilli,
		LatencyP90:    float64(d.hist.ValueAtQuantile(90)) / microsPerMilli,
		LatencyP99:    float64(d.hist.ValueAtQuantile(99)) / microsPerMilli,
		LatencyMax:    float64(d.hist.Max()) / microsPerMilli,
	}
}
