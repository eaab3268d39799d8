// Package types contains common types used across the application
package types

// Snapshot is a point-in-time read of the aggregate. The four fields are
// read independently from their backing atomics, so a snapshot taken while
// writers are in flight is weakly consistent across fields; each field is
// individually monotonic.
type Snapshot struct {
	TotalRequests int64   `json:"totalRequests"`
	UniqueUsers   int64   `json:"uniqueUsers"`
	Sum           float64 `json:"sum"`
	Avg           float64 `json:"avg"`
}
