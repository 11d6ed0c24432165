package analytics

import (
	"sort"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/models"
)

// AggregateImpactMetrics unions the keys of every map and sums the values
// per key. Missing keys contribute zero. The result does not depend on
// input order and never aliases an input map.
func AggregateImpactMetrics(sets []models.ImpactMetrics) models.ImpactMetrics {
	out := models.ImpactMetrics{}
	for _, m := range sets {
		for k, v := range m {
			out[k] += v
		}
	}
	return out
}

// MetricKeys returns the keys of m sorted alphabetically
func MetricKeys(m models.ImpactMetrics) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
