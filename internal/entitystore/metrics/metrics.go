package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for versioned-entity saves and the revision
// compaction that rides along with them.
type Metrics struct {
	Saves *prometheus.CounterVec

	// Entries dropped by compaction: same-day collapses plus window evictions.
	CompactedEntries prometheus.Counter

	// Index size after each save; the retention policy bounds this at 31
	// under daily writes.
	IndexSize prometheus.Histogram
}

// New creates a Metrics instance registered with the default registerer.
// Construct once per process; stores accept nil to disable collection.
func New() *Metrics {
	return &Metrics{
		Saves: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "annal_entity_saves_total",
			Help: "Total versioned-entity save transactions by result",
		}, []string{"result"}),

		CompactedEntries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "annal_revision_compacted_entries_total",
			Help: "Revision index entries dropped by compaction",
		}),

		IndexSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "annal_revision_index_size",
			Help:    "Revision index size after save",
			Buckets: []float64{1, 2, 4, 8, 16, 24, 31},
		}),
	}
}

// RecordSave counts one save transaction outcome.
func (m *Metrics) RecordSave(result string) {
	if m != nil {
		m.Saves.WithLabelValues(result).Inc()
	}
}

// RecordCompaction observes the index size change of one compaction.
func (m *Metrics) RecordCompaction(before, after int) {
	if m == nil {
		return
	}
	if dropped := before + 1 - after; dropped > 0 {
		m.CompactedEntries.Add(float64(dropped))
	}
	m.IndexSize.Observe(float64(after))
}
