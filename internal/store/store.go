package store

import (
	"math"
	"strconv"
	"sync"

	"github.com/alisaviation/metricboard/internal/models"
)

// Entry is the per-name view of one refresh cycle: every contributed record in
// insertion order plus the sum of their finite values.
type Entry struct {
	Records   []models.Metric `json:"records"`
	Aggregate float64         `json:"aggregate"`
}

// Store accumulates metric records for the current refresh cycle, keyed by
// metric name. It holds no history: Clear wipes the previous cycle in full.
type Store struct {
	mu      sync.Mutex
	current map[string][]models.Metric
}

func NewStore() *Store {
	return &Store{current: make(map[string][]models.Metric)}
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = make(map[string][]models.Metric)
}

// Add attaches the provenance label to each metric and appends it under its
// name. Records are never deduplicated; insertion order is preserved.
func (s *Store) Add(metrics []models.Metric, provenance string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range metrics {
		m.Source = provenance
		s.current[m.Name] = append(s.current[m.Name], m)
	}
}

// Snapshot returns a copy of the current cycle with the derived sum per name.
// Non-finite values contribute zero to the aggregate but stay in Records.
func (s *Store) Snapshot() map[string]Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := make(map[string]Entry, len(s.current))
	for name, records := range s.current {
		entry := Entry{Records: make([]models.Metric, len(records))}
		copy(entry.Records, records)
		for _, m := range records {
			if !math.IsNaN(m.Value) && !math.IsInf(m.Value, 0) {
				entry.Aggregate += m.Value
			}
		}
		snap[name] = entry
	}
	return snap
}

// FormatValue renders a value for display: K/M/B abbreviations at 1e3/1e6/1e9,
// two decimal places otherwise, "NaN" for non-finite values.
func FormatValue(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "NaN"
	}
	switch {
	case value >= 1e9:
		return strconv.FormatFloat(value/1e9, 'f', 2, 64) + "B"
	case value >= 1e6:
		return strconv.FormatFloat(value/1e6, 'f', 2, 64) + "M"
	case value >= 1e3:
		return strconv.FormatFloat(value/1e3, 'f', 2, 64) + "K"
	default:
		return strconv.FormatFloat(value, 'f', 2, 64)
	}
}
