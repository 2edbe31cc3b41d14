package curve

import (
	"math"
	"testing"
)

func TestPartitionedComponentsSum(t *testing.T) {
	params := []float64{250, 15000, 300, 1800, 50} // cp, w', tau, tau2, a
	m := modelByName(t, ModelPartitioned)

	for _, d := range []float64{1, 30, 300, 1800, 3600, 7200} {
		total := m.Eval(params, d)
		split := Aerobic(params, d) + Anaerobic(params, d)
		if math.Abs(total-split) > 1e-9 {
			t.Errorf("t=%v: Eval = %v, Aerobic+Anaerobic = %v", d, total, split)
		}
	}
}

func TestAerobicLogDecayBeyondCutoff(t *testing.T) {
	params := []float64{250, 15000, 300, 1800, 50}

	// Below the cutoff the aerobic term only approaches CP; beyond it the
	// logarithmic decay pulls it back down by a*ln(t/1800).
	at1800 := Aerobic(params, 1800)
	at3600 := Aerobic(params, 3600)
	if at3600 >= at1800 {
		t.Errorf("aerobic component did not decay: %v at 1800s, %v at 3600s", at1800, at3600)
	}
	base := 250 * (1 - math.Exp(-3600.0/1800))
	if got := base - at3600; math.Abs(got-50*math.Log(2)) > 1e-9 {
		t.Errorf("decay at 3600s = %v, want %v", got, 50*math.Log(2))
	}
}

func TestAnaerobicDepletes(t *testing.T) {
	params := []float64{250, 15000, 300, 1800, 50}
	prev := math.Inf(1)
	for _, d := range []float64{1, 30, 300, 1800, 3600} {
		got := Anaerobic(params, d)
		if got >= prev {
			t.Errorf("anaerobic component not decreasing at t=%v: %v after %v", d, got, prev)
		}
		prev = got
	}
}
