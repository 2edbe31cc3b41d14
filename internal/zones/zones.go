// Package zones derives threshold-relative training zone boundaries and
// time-in-zone histograms for activity signals.
package zones

import (
	"fmt"
	"math"

	"fitengine/internal/activity"
)

// Table is the published percentage-of-threshold scheme for one signal.
type Table struct {
	Signal   string
	Percents []float64 // ascending, one more entry than Labels
	Labels   []string
}

var tables = map[string]Table{
	activity.SignalHeartrate: {
		Signal:   activity.SignalHeartrate,
		Percents: []float64{0, 65, 80, 89, 95, 100, 114},
		Labels:   []string{"Z0", "Z1", "Z2", "Z3", "Z4", "Z5"},
	},
	activity.SignalPower: {
		Signal:   activity.SignalPower,
		Percents: []float64{0, 54, 74, 89, 103, 128, 157},
		Labels:   []string{"Z1", "Z2", "Z3", "Z4", "Z5", "Z6"},
	},
}

// TableFor returns the percentage table for a signal, if one is published.
func TableFor(signal string) (Table, bool) {
	t, ok := tables[signal]
	return t, ok
}

// Boundaries scales the table's percentages by a threshold value, producing
// monotonically increasing zone boundaries.
func (t Table) Boundaries(threshold float64) []float64 {
	bounds := make([]float64, len(t.Percents))
	for i, p := range t.Percents {
		bounds[i] = threshold * p / 100
	}
	return bounds
}

// TimeInZones counts, per labeled zone, the number of valid samples whose
// value falls within the zone's boundary range. Each boundary pair
// [bounds[i], bounds[i+1]) is one zone; values outside the boundary array
// are clamped into the end zones so that the per-zone counts always sum to
// the number of valid (non-NaN) samples.
func TimeInZones(samples []float64, bounds []float64, labels []string) (map[string]float64, error) {
	if len(labels) != len(bounds)-1 {
		return nil, fmt.Errorf("zone labels/boundaries mismatch: %d labels for %d boundaries", len(labels), len(bounds))
	}
	for i := 1; i < len(bounds); i++ {
		if bounds[i] <= bounds[i-1] {
			return nil, fmt.Errorf("zone boundaries not increasing at index %d", i)
		}
	}

	hist := make(map[string]float64, len(labels))
	for _, l := range labels {
		hist[l] = 0
	}
	for _, v := range samples {
		if math.IsNaN(v) {
			continue
		}
		hist[labels[zoneIndex(v, bounds)]]++
	}
	return hist, nil
}

func zoneIndex(v float64, bounds []float64) int {
	for i := 1; i < len(bounds)-1; i++ {
		if v < bounds[i] {
			return i - 1
		}
	}
	return len(bounds) - 2
}
