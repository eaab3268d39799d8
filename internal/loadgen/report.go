package loadgen

import (
	"fmt"
	"math"

	"github.com/fatih/color"
)

// printReport renders the run report to stdout. Logging goes to the
// structured logger; this is the human-facing summary.
func printReport(cfg *Config, r Report) {
	header := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgWhite)
	good := color.New(color.FgGreen, color.Bold)
	bad := color.New(color.FgRed, color.Bold)
	warn := color.New(color.FgYellow)

	header.Printf("\n=== Load Run %s ===\n", r.RunID)
	label.Printf("Target:           %s\n", cfg.BaseURL)
	label.Printf("Duration:         %s\n", r.Outcome.Duration.Round(0))

	throughput := 0.0
	if secs := r.Outcome.Duration.Seconds(); secs > 0 {
		throughput = float64(r.Outcome.Attempted) / secs
	}

	header.Println("\nDispatch")
	label.Printf("  Attempted:      %s\n", formatCount(r.Outcome.Attempted))
	label.Printf("  Succeeded:      %s\n", formatCount(r.Outcome.Succeeded))
	if r.Outcome.Failed > 0 {
		warn.Printf("  Failed:         %s\n", formatCount(r.Outcome.Failed))
	} else {
		label.Printf("  Failed:         %s\n", formatCount(r.Outcome.Failed))
	}
	label.Printf("  Throughput:     %.1f req/s\n", throughput)
	label.Printf("  Gate high-water: %d / %d batches\n", r.Outcome.GateHighWater, cfg.MaxConcurrentBatches)

	header.Println("\nLatency (ms)")
	label.Printf("  p50: %-10.3f p90: %-10.3f p99: %-10.3f max: %.3f\n",
		r.Outcome.LatencyP50, r.Outcome.LatencyP90, r.Outcome.LatencyP99, r.Outcome.LatencyMax)

	header.Println("\nReconciliation")
	printCheck(label, good, bad, "count", r.CountMatched,
		fmt.Sprintf("remote %s vs local %s (delta %+d)",
			formatCount(r.Snapshot.TotalRequests), formatCount(r.Outcome.Succeeded), r.CountDelta))

	if r.Outcome.Failed > 0 {
		warn.Printf("  users/sum checks skipped: %d failed attempts make expectations unreliable\n", r.Outcome.Failed)
	} else {
		printCheck(label, good, bad, "users", r.UsersMatched,
			fmt.Sprintf("remote %s vs expected %s (delta %+d)",
				formatCount(r.Snapshot.UniqueUsers), formatCount(r.Expected.Users), r.UserDelta))
		printCheck(label, good, bad, "sum", r.SumMatched,
			fmt.Sprintf("remote %.6f vs expected %.6f (|delta| %.6f, epsilon %.6f)",
				r.Snapshot.Sum, r.Expected.Sum, math.Abs(r.SumDelta), r.SumEpsilon))
	}

	fmt.Println()
	if r.Verified() {
		good.Println("RESULT: reconciled")
	} else {
		bad.Println("RESULT: mismatch")
	}
	fmt.Println()
}

func printCheck(label, good, bad *color.Color, name string, ok bool, detail string) {
	if ok {
		good.Printf("  [ok]   ")
	} else {
		bad.Printf("  [FAIL] ")
	}
	label.Printf("%-6s %s\n", name, detail)
}

// formatCount renders an integer with thousands separators.
func formatCount(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	out := make([]byte, 0, len(s)+len(s)/3)
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
