package activity

import (
	"math"
	"testing"
	"time"
)

func TestSportClassification(t *testing.T) {
	tests := []struct {
		name     string
		sessions []Sport
		want     string
	}{
		{name: "single session", sessions: []Sport{{Sport: "running"}}, want: "running"},
		{name: "no sessions", sessions: nil, want: "unknown"},
		{
			name:     "multi-sport",
			sessions: []Sport{{Sport: "running"}, {Sport: "cycling"}},
			want:     "unknown",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			act := New(1, "test", time.Now(), 0, tt.sessions, nil, nil)
			if got := act.Sport().Sport; got != tt.want {
				t.Errorf("Sport() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSignalFillsMissing(t *testing.T) {
	samples := []Sample{
		{Offset: 0, Values: map[string]float64{SignalPower: 200}},
		{Offset: 1, Values: map[string]float64{}},
		{Offset: 2, Values: map[string]float64{SignalPower: 210}},
	}
	act := New(1, "test", time.Now(), 0, nil, []string{SignalPower}, samples)

	got := act.Signal(SignalPower)
	if len(got) != 3 {
		t.Fatalf("got %d samples, want 3", len(got))
	}
	if got[0] != 200 || !math.IsNaN(got[1]) || got[2] != 210 {
		t.Errorf("Signal = %v, want [200 NaN 210]", got)
	}
}

func TestColumnManifest(t *testing.T) {
	act := New(1, "test", time.Now(), 0, nil, []string{SignalPower, SignalHeartrate}, nil)
	if !act.HasColumn(SignalPower) || !act.HasColumn(SignalHeartrate) {
		t.Error("declared columns missing from manifest")
	}
	if act.HasColumn(SignalCadence) {
		t.Error("undeclared column reported present")
	}
}

func TestMeanMaxAttachment(t *testing.T) {
	act := New(1, "test", time.Now(), 0, nil, nil, nil)
	if act.HasMeanMax() {
		t.Error("HasMeanMax true before attachment")
	}
	points := []MeanMaxPoint{{Duration: 1, Value: 450}}
	act.SetMeanMax(SignalPower, points)
	if !act.HasMeanMax() {
		t.Error("HasMeanMax false after attachment")
	}
	if got := act.MeanMax(SignalPower); len(got) != 1 || got[0] != points[0] {
		t.Errorf("MeanMax = %v, want %v", got, points)
	}
	if act.MeanMax(SignalHeartrate) != nil {
		t.Error("MeanMax for unattached signal not nil")
	}
}
