package metrics

import (
	"sync"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	AuthAttempts      map[string]uint64
	Admissions        map[string]uint64
	Generations       map[string]uint64 // keyed "endpoint/status"
	GenerationCount   map[string]uint64
	GenerationTotalNs map[string]int64
	UsageRecords      map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests and the stats endpoint.
type InMemoryRecorder struct {
	mu                sync.Mutex
	authAttempts      map[string]uint64
	admissions        map[string]uint64
	generations       map[string]uint64
	generationCount   map[string]uint64
	generationTotalNs map[string]int64
	usageRecords      map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		authAttempts:      make(map[string]uint64),
		admissions:        make(map[string]uint64),
		generations:       make(map[string]uint64),
		generationCount:   make(map[string]uint64),
		generationTotalNs: make(map[string]int64),
		usageRecords:      make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		AuthAttempts:      copyMap(m.authAttempts),
		Admissions:        copyMap(m.admissions),
		Generations:       copyMap(m.generations),
		GenerationCount:   copyMap(m.generationCount),
		GenerationTotalNs: copyMap(m.generationTotalNs),
		UsageRecords:      copyMap(m.usageRecords),
	}
}

// IncAuthAttempt increments the auth attempt counter for a status.
func (m *InMemoryRecorder) IncAuthAttempt(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authAttempts[status]++
}

// IncAdmission increments the admission counter for a status.
func (m *InMemoryRecorder) IncAdmission(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.admissions[status]++
}

// IncGeneration increments the generation counter for an endpoint and status.
func (m *InMemoryRecorder) IncGeneration(endpoint, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generations[endpoint+"/"+status]++
}

// ObserveGenerationDuration records a generation call duration.
func (m *InMemoryRecorder) ObserveGenerationDuration(endpoint string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generationCount[endpoint]++
	m.generationTotalNs[endpoint] += duration.Nanoseconds()
}

// IncUsageRecorded increments the usage record counter for a status.
func (m *InMemoryRecorder) IncUsageRecorded(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usageRecords[status]++
}

func copyMap[V uint64 | int64](src map[string]V) map[string]V {
	dst := make(map[string]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
