package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/recnos/onemrc/internal/loadgen"
	"github.com/recnos/onemrc/pkg/logger"
)

var cfg = loadgen.NewConfig()

var rootCmd = &cobra.Command{
	Use:   "loadgen [base-url]",
	Short: "Batched load generator and reconciler for the event aggregator",
	Long: `Drives a configurable volume of synthetic events against a running
aggregator in admission-controlled batches, then fetches the final stats
snapshot and reconciles it against the locally observed outcome.

The event stream is deterministic, so on a clean run against a fresh
aggregate the expected request count, distinct-user count, and value sum
are known exactly before the run starts.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			cfg.BaseURL = args[0]
		}

		if err := setupLogging(cfg); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return loadgen.Run(ctx, cfg)
	},
	SilenceUsage: true,
}

// setupLogging initializes the structured logger, optionally teeing to a
// log file.
func setupLogging(cfg *loadgen.Config) error {
	var sink io.Writer = os.Stdout
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		sink = io.MultiWriter(os.Stdout, f)
	}
	if err := logger.InitWithWriter(sink); err != nil {
		return err
	}
	if cfg.Verbose {
		_ = logger.SetLevelString("debug")
	}
	return nil
}

func init() {
	flags := rootCmd.Flags()
	flags.IntVarP(&cfg.TotalRequests, "requests", "n", cfg.TotalRequests, "total number of events to send")
	flags.IntVarP(&cfg.BatchSize, "batch-size", "b", cfg.BatchSize, "events per batch")
	flags.IntVarP(&cfg.MaxConcurrentBatches, "max-batches", "c", cfg.MaxConcurrentBatches, "maximum batches in flight")
	flags.DurationVarP(&cfg.Timeout, "timeout", "t", cfg.Timeout, "per-request HTTP timeout")
	flags.DurationVar(&cfg.SettleDelay, "settle", cfg.SettleDelay, "pause between last batch and final snapshot")
	flags.DurationVar(&cfg.RequestPause, "pause", cfg.RequestPause, "pause between requests inside a batch")
	flags.IntVarP(&cfg.UserPool, "users", "u", cfg.UserPool, "reuse user ids modulo this pool (0 = all distinct)")
	flags.BoolVar(&cfg.ResetFirst, "reset", cfg.ResetFirst, "reset the aggregate before dispatching")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "log every failed attempt")
	flags.StringVar(&cfg.LogFile, "log", cfg.LogFile, "also write logs to this file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
