package handler

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/prismai/prismai/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeLabeled(w, "prism_auth_attempts_total", "status", snap.AuthAttempts)
	writeLabeled(w, "prism_admissions_total", "status", snap.Admissions)
	writeLabeled(w, "prism_usage_records_total", "status", snap.UsageRecords)

	for _, key := range sortedKeys(snap.Generations) {
		endpoint, status, ok := splitGenerationKey(key)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "prism_generations_total{endpoint=%q,status=%q} %d\n",
			endpoint, status, snap.Generations[key])
	}

	for _, endpoint := range sortedKeys(snap.GenerationCount) {
		fmt.Fprintf(w, "prism_generation_duration_seconds_count{endpoint=%q} %d\n",
			endpoint, snap.GenerationCount[endpoint])
		fmt.Fprintf(w, "prism_generation_duration_seconds_sum{endpoint=%q} %.6f\n",
			endpoint, float64(snap.GenerationTotalNs[endpoint])/1e9)
	}
}

func writeLabeled(w http.ResponseWriter, name, label string, values map[string]uint64) {
	for _, key := range sortedKeys(values) {
		fmt.Fprintf(w, "%s{%s=%q} %d\n", name, label, key, values[key])
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func splitGenerationKey(key string) (endpoint, status string, ok bool) {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '/' {
			return key[:i], key[i+1:], true
		}
	}
	return "", "", false
}
