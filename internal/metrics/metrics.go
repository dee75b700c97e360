// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Authentication metrics
	IncAuthAttempt(status string) // status: "success" or "failed"

	// Admission metrics
	IncAdmission(status string) // status: "admitted", "quota_exceeded", "store_error"

	// Generation metrics
	IncGeneration(endpoint, status string) // status: "success" or "failed"
	ObserveGenerationDuration(endpoint string, duration time.Duration)

	// Usage ledger metrics
	IncUsageRecorded(status string) // status: "success" or "dropped"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
