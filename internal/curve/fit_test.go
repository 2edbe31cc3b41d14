package curve

import (
	"errors"
	"math"
	"testing"

	"fitengine/internal/activity"
)

var testDurations = []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200, 1800, 3600}

func modelByName(t *testing.T, name string) Model {
	t.Helper()
	for _, m := range Models() {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("no model %q", name)
	return Model{}
}

func TestFitRecoversTwoParamModel(t *testing.T) {
	// Synthetic curve from known parameters: value = cp + w'/t.
	cp, wPrime := 250.0, 15000.0
	vals := make([]float64, len(testDurations))
	for i, d := range testDurations {
		vals[i] = cp + wPrime/d
	}

	m := modelByName(t, ModelTwoParam)
	params, err := Fit(m, testDurations, vals)
	if err != nil {
		t.Fatalf("Fit error: %v", err)
	}
	if math.Abs(params[0]-cp) > 1 {
		t.Errorf("cp = %v, want %v", params[0], cp)
	}
	if math.Abs(params[1]-wPrime) > 100 {
		t.Errorf("w_prime = %v, want %v", params[1], wPrime)
	}
}

func TestFitRecoversExponentialModel(t *testing.T) {
	cp, pMax, tau := 200.0, 600.0, 120.0
	vals := make([]float64, len(testDurations))
	for i, d := range testDurations {
		vals[i] = cp + (pMax-cp)*math.Exp(-d/tau)
	}

	m := modelByName(t, ModelExponential)
	params, err := Fit(m, testDurations, vals)
	if err != nil {
		t.Fatalf("Fit error: %v", err)
	}
	if math.Abs(params[0]-cp) > 5 {
		t.Errorf("cp = %v, want %v", params[0], cp)
	}
	if math.Abs(params[1]-pMax) > 10 {
		t.Errorf("p_max = %v, want %v", params[1], pMax)
	}
	if math.Abs(params[2]-tau) > 10 {
		t.Errorf("tau = %v, want %v", params[2], tau)
	}
}

func TestFitInsufficientData(t *testing.T) {
	m := modelByName(t, ModelPartitioned) // five parameters
	_, err := Fit(m, []float64{1, 60, 300}, []float64{500, 300, 260})
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("Fit error = %v, want ErrInsufficientData", err)
	}
}

func TestFitAll(t *testing.T) {
	cp, wPrime := 250.0, 15000.0
	points := make([]activity.MeanMaxPoint, len(testDurations))
	for i, d := range testDurations {
		points[i] = activity.MeanMaxPoint{Duration: int(d), Value: cp + wPrime/d}
	}

	fits := FitAll(points)

	two, ok := fits[ModelTwoParam]
	if !ok {
		t.Fatalf("no %q fit; got models %v", ModelTwoParam, keys(fits))
	}
	if math.Abs(two["cp"]-cp) > 1 {
		t.Errorf("cp = %v, want %v", two["cp"], cp)
	}

	// Every reported fit carries all of its model's parameters, finite.
	for _, m := range Models() {
		params, ok := fits[m.Name]
		if !ok {
			continue
		}
		for _, name := range m.Params {
			v, ok := params[name]
			if !ok {
				t.Errorf("model %q missing parameter %q", m.Name, name)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("model %q parameter %q is %v", m.Name, name, v)
			}
		}
	}
}

func TestFitAllSkipsShortCurves(t *testing.T) {
	points := []activity.MeanMaxPoint{
		{Duration: 1, Value: 500},
		{Duration: 60, Value: 300},
		{Duration: 300, Value: 260},
	}
	fits := FitAll(points)
	// Three points cannot constrain the four- and five-parameter models.
	if _, ok := fits[ModelOmni]; ok {
		t.Errorf("%q fit from 3 points", ModelOmni)
	}
	if _, ok := fits[ModelPartitioned]; ok {
		t.Errorf("%q fit from 3 points", ModelPartitioned)
	}
}

func keys(m map[string]map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
