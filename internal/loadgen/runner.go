package loadgen

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/recnos/onemrc/pkg/logger"
)

// epsilonPerEvent is the tolerated sum error per accepted event. It matches
// the aggregator's default fixed-point scale of 1e6.
const epsilonPerEvent = 1e-6

// Run executes a complete load run against cfg.BaseURL: pre-flight check,
// batched dispatch under the admission gate, settling pause, final snapshot
// and reconciliation.
func Run(ctx context.Context, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	transport := NewHTTPTransport(cfg.BaseURL, cfg.Timeout, cfg.MaxConcurrentBatches)
	return RunWithTransport(ctx, cfg, transport)
}

// RunWithTransport is Run with a caller-supplied transport; tests use it to
// substitute an in-process implementation.
func RunWithTransport(ctx context.Context, cfg *Config, transport Transport) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.Get().Named("loadgen")
	runID := uuid.New().String()[:8]

	log.Info(ctx, "starting load run",
		logger.String("runId", runID),
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("totalRequests", cfg.TotalRequests),
		logger.Int("batchSize", cfg.BatchSize),
		logger.Int("maxConcurrentBatches", cfg.MaxConcurrentBatches),
		logger.Duration("timeout", cfg.Timeout),
		logger.Duration("settleDelay", cfg.SettleDelay),
	)

	// Pre-flight: a total connectivity failure aborts before any batch is
	// scheduled.
	if err := transport.CheckHealth(ctx); err != nil {
		return fmt.Errorf("pre-flight check failed: %w", err)
	}
	log.Info(ctx, "aggregator is reachable")

	if cfg.ResetFirst {
		if err := transport.ResetAggregate(ctx); err != nil {
			return fmt.Errorf("reset before run failed: %w", err)
		}
		log.Info(ctx, "aggregate reset before run")
	}

	dispatcher := NewDispatcher(cfg, transport, log)
	outcome, err := dispatcher.Run(ctx)
	if err != nil {
		return fmt.Errorf("dispatch failed: %w", err)
	}

	log.Info(ctx, "all batches joined",
		logger.Int64("attempted", outcome.Attempted),
		logger.Int64("succeeded", outcome.Succeeded),
		logger.Int64("failed", outcome.Failed),
		logger.Int64("gateHighWater", outcome.GateHighWater),
		logger.Duration("duration", outcome.Duration),
	)

	// Settle so in-flight accepts on the server side land before the final
	// snapshot.
	if cfg.SettleDelay > 0 {
		select {
		case <-time.After(cfg.SettleDelay):
		case <-ctx.Done():
			return fmt.Errorf("settling interrupted: %w", ctx.Err())
		}
	}

	snap, err := transport.FetchSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("final snapshot failed: %w", err)
	}

	expected := expectedTotals(cfg)
	epsilon := float64(outcome.Attempted) * epsilonPerEvent
	report := Reconcile(runID, outcome, snap, expected, epsilon)

	printReport(cfg, report)

	if report.Verified() {
		log.Info(ctx, "run reconciled",
			logger.String("runId", runID),
			logger.Int64("totalRequests", snap.TotalRequests),
		)
	} else {
		log.Warn(ctx, "reconciliation mismatch",
			logger.String("runId", runID),
			logger.Int64("succeeded", report.Outcome.Succeeded),
			logger.Int64("remoteTotal", report.Snapshot.TotalRequests),
			logger.Int64("countDelta", report.CountDelta),
			logger.Int64("userDelta", report.UserDelta),
			logger.Float64("sumDelta", report.SumDelta),
		)
	}

	return nil
}
