package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncAuthAttempt is a no-op.
func (n *NoopRecorder) IncAuthAttempt(status string) {}

// IncAdmission is a no-op.
func (n *NoopRecorder) IncAdmission(status string) {}

// IncGeneration is a no-op.
func (n *NoopRecorder) IncGeneration(endpoint, status string) {}

// ObserveGenerationDuration is a no-op.
func (n *NoopRecorder) ObserveGenerationDuration(endpoint string, duration time.Duration) {}

// IncUsageRecorded is a no-op.
func (n *NoopRecorder) IncUsageRecorded(status string) {}
