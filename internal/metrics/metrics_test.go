package metrics

import (
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"fitengine/internal/activity"
	"fitengine/internal/catalog"
	"fitengine/internal/config"
	"fitengine/internal/engine"
)

func testSet() *Set {
	return New(config.DefaultConfig().Athlete)
}

func testRunner() *engine.Runner {
	return &engine.Runner{
		Eval: &engine.Evaluator{},
		Log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// rideActivity is an hour at 200 W, 150 bpm, 10 m/s.
func rideActivity(n int) *activity.Activity {
	samples := make([]activity.Sample, n)
	for i := range samples {
		samples[i] = activity.Sample{
			Offset: i,
			Values: map[string]float64{
				activity.SignalPower:     200,
				activity.SignalHeartrate: 150,
				activity.SignalSpeed:     10,
				activity.SignalDistance:  float64(i) * 10,
			},
		}
	}
	return activity.New(1, "steady ride",
		time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), 3600,
		[]activity.Sport{{Sport: "cycling", SubSport: "road"}},
		[]string{
			activity.SignalPower,
			activity.SignalHeartrate,
			activity.SignalSpeed,
			activity.SignalDistance,
		},
		samples)
}

// runActivity is a steady flat run at 3 m/s.
func runActivity(n int) *activity.Activity {
	samples := make([]activity.Sample, n)
	for i := range samples {
		samples[i] = activity.Sample{
			Offset: i,
			Values: map[string]float64{
				activity.SignalDistance: float64(i) * 3,
				activity.SignalSpeed:    3,
			},
		}
	}
	return activity.New(2, "steady run",
		time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC), 1800,
		[]activity.Sport{{Sport: "running"}},
		[]string{activity.SignalDistance, activity.SignalSpeed},
		samples)
}

func evaluate(t *testing.T, s *Set, defs []*catalog.Definition, act *activity.Activity) engine.Results {
	t.Helper()
	results, err := testRunner().EvaluateAll(defs, act)
	if err != nil {
		t.Fatalf("EvaluateAll error: %v", err)
	}
	return results
}

func scalarOutcome(t *testing.T, results engine.Results, def *catalog.Definition) float64 {
	t.Helper()
	out := results[def]
	if out.Status != engine.Computed {
		detail := out.Reason
		if out.Err != nil {
			detail = out.Err.Error()
		}
		t.Fatalf("%s: status %v (%s), want Computed", def.Name, out.Status, detail)
	}
	if out.Value.Scalar == nil {
		t.Fatalf("%s: no scalar value", def.Name)
	}
	return *out.Value.Scalar
}

func TestCogganMetricsOnSteadyRide(t *testing.T) {
	s := testSet()
	act := rideActivity(600)
	results := evaluate(t, s,
		[]*catalog.Definition{s.CogganNP, s.CogganVI, s.CogganIF, s.CogganTSS, s.CogganEF}, act)

	tests := []struct {
		def      *catalog.Definition
		expected float64
		delta    float64
	}{
		// steady 200 W: NP equals average power
		{s.CogganNP, 200, 0.01},
		{s.CogganVI, 1, 0.001},
		// 200 / 206
		{s.CogganIF, 0.9709, 0.001},
		// (200/206)^2 * (3600/3600) * 100
		{s.CogganTSS, 94.26, 0.05},
		// 200 / 150
		{s.CogganEF, 1.3333, 0.001},
	}
	for _, tt := range tests {
		got := scalarOutcome(t, results, tt.def)
		if math.Abs(got-tt.expected) > tt.delta {
			t.Errorf("%s = %v, want %v ± %v", tt.def.Name, got, tt.expected, tt.delta)
		}
	}
}

func TestGeneralMetricsOnSteadyRide(t *testing.T) {
	s := testSet()
	act := rideActivity(600)
	results := evaluate(t, s,
		[]*catalog.Definition{s.TimerTime, s.ElapsedTime, s.MovingTime, s.TotalDistance, s.AverageSpeed, s.AveragePower, s.AverageHR}, act)

	tests := []struct {
		def      *catalog.Definition
		expected float64
		delta    float64
	}{
		{s.TimerTime, 3600, 0},
		{s.ElapsedTime, 599, 0},
		{s.MovingTime, 600, 0},
		{s.TotalDistance, 5990, 0},
		// 5990 m over 3600 s of timer time
		{s.AverageSpeed, 1.6639, 0.001},
		{s.AveragePower, 200, 0},
		{s.AverageHR, 150, 0},
	}
	for _, tt := range tests {
		got := scalarOutcome(t, results, tt.def)
		if math.Abs(got-tt.expected) > tt.delta {
			t.Errorf("%s = %v, want %v ± %v", tt.def.Name, got, tt.expected, tt.delta)
		}
	}
}

func TestClimb(t *testing.T) {
	tests := []struct {
		name     string
		alts     []float64
		wantUp   float64
		wantDown float64
	}{
		{
			name:     "jitter below hysteresis ignored",
			alts:     []float64{100, 101, 100, 101, 100},
			wantUp:   0,
			wantDown: 0,
		},
		{
			name:     "climb and descent",
			alts:     []float64{100, 101, 102, 104, 103, 100},
			wantUp:   4,
			wantDown: 4,
		},
		{
			name:     "steady climb accumulates",
			alts:     []float64{100, 103, 106, 109},
			wantUp:   9,
			wantDown: 0,
		},
		{
			name:     "missing samples skipped",
			alts:     []float64{100, math.NaN(), 104},
			wantUp:   4,
			wantDown: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up, down := climb(tt.alts)
			if up != tt.wantUp || down != tt.wantDown {
				t.Errorf("climb = (%v, %v), want (%v, %v)", up, down, tt.wantUp, tt.wantDown)
			}
		})
	}
}

func TestRunningMetricsOnSteadyRun(t *testing.T) {
	s := testSet()
	act := runActivity(300)
	results := evaluate(t, s,
		[]*catalog.Definition{s.LNP, s.XPace, s.RTP, s.IWF, s.GOVSS}, act)

	// Flat constant 3 m/s at the default 73 kg / 1.83 m athlete works out
	// to about 274 W; threshold power at the configured 3.35 m/s critical
	// velocity is about 314 W.
	lnp := scalarOutcome(t, results, s.LNP)
	if math.Abs(lnp-273.9) > 1 {
		t.Errorf("LNP = %v, want about 273.9", lnp)
	}
	rtp := scalarOutcome(t, results, s.RTP)
	if math.Abs(rtp-313.6) > 1 {
		t.Errorf("RTP = %v, want about 313.6", rtp)
	}
	iwf := scalarOutcome(t, results, s.IWF)
	if math.Abs(iwf-lnp/rtp) > 0.001 {
		t.Errorf("IWF = %v, want %v", iwf, lnp/rtp)
	}
	govss := scalarOutcome(t, results, s.GOVSS)
	want := lnp * lnp / rtp * 1800 / (rtp * 3600) * 100
	if math.Abs(govss-want) > 0.1 {
		t.Errorf("GOVSS = %v, want %v", govss, want)
	}
	// Inverting the flat power model lands near the actual pace.
	xpace := scalarOutcome(t, results, s.XPace)
	if math.Abs(xpace-3) > 0.05 {
		t.Errorf("XPace = %v, want about 3", xpace)
	}
}

func TestSportGating(t *testing.T) {
	s := testSet()

	// Running metrics on a ride are inapplicable, not failed.
	results := evaluate(t, s, []*catalog.Definition{s.GOVSS}, rideActivity(60))
	if results[s.GOVSS].Status != engine.NotApplicable {
		t.Errorf("GOVSS on ride: status %v, want NotApplicable", results[s.GOVSS].Status)
	}

	// And cycling metrics on a run.
	results = evaluate(t, s, []*catalog.Definition{s.CogganNP}, runActivity(60))
	if results[s.CogganNP].Status != engine.NotApplicable {
		t.Errorf("CogganNP on run: status %v, want NotApplicable", results[s.CogganNP].Status)
	}
}

func TestStressScoreFallsBack(t *testing.T) {
	s := testSet()

	// Cycling: stress comes from the Coggan model.
	results := evaluate(t, s, []*catalog.Definition{s.StressScore, s.CogganTSS}, rideActivity(600))
	stress := scalarOutcome(t, results, s.StressScore)
	tss := scalarOutcome(t, results, s.CogganTSS)
	if math.Abs(stress-tss) > 1e-9 {
		t.Errorf("StressScore = %v, want CogganTSS %v", stress, tss)
	}

	// Running: stress comes from GOVSS.
	results = evaluate(t, s, []*catalog.Definition{s.StressScore, s.GOVSS}, runActivity(300))
	stress = scalarOutcome(t, results, s.StressScore)
	govss := scalarOutcome(t, results, s.GOVSS)
	if math.Abs(stress-govss) > 1e-9 {
		t.Errorf("StressScore = %v, want GOVSS %v", stress, govss)
	}
}

func TestConfiguredValuesNeverCached(t *testing.T) {
	s := testSet()
	for _, def := range []*catalog.Definition{s.FTP, s.ThresholdHR, s.CV, s.Height, s.Weight, s.RTP} {
		if def.Cache {
			t.Errorf("%s marked cacheable; configured values must recompute", def.Name)
		}
	}
}

func TestFamilies(t *testing.T) {
	s := testSet()
	act := rideActivity(600)

	curveDef, _, err := s.Registry.Resolve(`Curve["power"]`)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	meanMaxDef, _, err := s.Registry.Resolve(`MeanMax["power",30]`)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	zonesDef, _, err := s.Registry.Resolve(`Zones["heartrate"]`)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	tizDef, _, err := s.Registry.Resolve(`TimeInZone["heartrate","Z2"]`)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}

	results := evaluate(t, s,
		[]*catalog.Definition{curveDef, meanMaxDef, zonesDef, tizDef}, act)

	// Steady 200 W: every mean-max duration is 200.
	if got := scalarOutcome(t, results, meanMaxDef); got != 200 {
		t.Errorf("MeanMax[power,30] = %v, want 200", got)
	}

	curveOut := results[curveDef]
	if curveOut.Status != engine.Computed || curveOut.Value.Structured == nil {
		t.Fatalf("Curve[power]: %+v, want structured value", curveOut)
	}
	yv, err := curveOut.Value.Select([]string{"y", "0"})
	if err != nil {
		t.Fatalf("selecting curve y: %v", err)
	}
	if yv.Float() != 200 {
		t.Errorf("curve y[0] = %v, want 200", yv.Float())
	}

	// 150 bpm against a 175 bpm threshold is zone Z2 (80-89%), so the
	// whole ride lands there.
	if got := scalarOutcome(t, results, tizDef); got != 600 {
		t.Errorf("TimeInZone[heartrate,Z2] = %v, want 600", got)
	}
}

func TestFamilyArgumentValidation(t *testing.T) {
	s := testSet()
	bad := []string{
		`Curve[300]`,
		`MeanMax["power"]`,
		`MeanMax["power",-10]`,
		`ZoneDefinitions["cadence"]`,
		`TimeInZone["heartrate","Z9"]`,
	}
	for _, name := range bad {
		if _, _, err := s.Registry.Resolve(name); err == nil {
			t.Errorf("Resolve(%q) succeeded, want error", name)
		}
	}
}
