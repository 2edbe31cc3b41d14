package zones

import (
	"math"
	"testing"

	"fitengine/internal/activity"
)

func TestBoundaries(t *testing.T) {
	table, ok := TableFor(activity.SignalHeartrate)
	if !ok {
		t.Fatal("no heart rate table")
	}

	bounds := table.Boundaries(175)
	want := []float64{0, 113.75, 140, 155.75, 166.25, 175, 199.5}
	if len(bounds) != len(want) {
		t.Fatalf("got %d boundaries, want %d", len(bounds), len(want))
	}
	for i := range want {
		if math.Abs(bounds[i]-want[i]) > 0.001 {
			t.Errorf("boundary %d = %v, want %v", i, bounds[i], want[i])
		}
	}
}

func TestTableFor(t *testing.T) {
	if _, ok := TableFor(activity.SignalPower); !ok {
		t.Error("no power table")
	}
	if _, ok := TableFor(activity.SignalCadence); ok {
		t.Error("unexpected cadence table")
	}
}

func TestTimeInZones(t *testing.T) {
	bounds := []float64{0, 100, 150, 200, 300}
	labels := []string{"Z1", "Z2", "Z3", "Z4"}

	samples := []float64{
		50,          // Z1
		99,          // Z1
		100,         // Z2 (boundaries are half-open)
		149,         // Z2
		175,         // Z3
		math.NaN(),  // skipped
		250,         // Z4
		350,         // above the top boundary, clamped into Z4
		-10,         // below zero, clamped into Z1
	}

	hist, err := TimeInZones(samples, bounds, labels)
	if err != nil {
		t.Fatalf("TimeInZones error: %v", err)
	}

	want := map[string]float64{"Z1": 3, "Z2": 2, "Z3": 1, "Z4": 2}
	for label, w := range want {
		if hist[label] != w {
			t.Errorf("%s = %v, want %v", label, hist[label], w)
		}
	}

	// The histogram accounts for every valid sample.
	var total float64
	for _, v := range hist {
		total += v
	}
	if total != 8 {
		t.Errorf("total = %v, want 8 (valid samples)", total)
	}
}

func TestTimeInZonesErrors(t *testing.T) {
	if _, err := TimeInZones(nil, []float64{0, 100, 200}, []string{"Z1"}); err == nil {
		t.Error("label/boundary mismatch accepted")
	}
	if _, err := TimeInZones(nil, []float64{0, 200, 100}, []string{"Z1", "Z2"}); err == nil {
		t.Error("non-increasing boundaries accepted")
	}
}
