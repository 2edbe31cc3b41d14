// Package metrics declares the built-in metric definitions and parametrized
// families and registers them into a catalog registry.
package metrics

import (
	"math"

	"fitengine/internal/activity"
	"fitengine/internal/catalog"
	"fitengine/internal/config"
)

// Set holds the registry and typed handles to every built-in definition.
// Components depend on each other through these handles, never through
// string names.
type Set struct {
	Registry *catalog.Registry

	Sport         *catalog.Definition
	TimerTime     *catalog.Definition
	ElapsedTime   *catalog.Definition
	MovingTime    *catalog.Definition
	TotalDistance *catalog.Definition
	TotalAscent   *catalog.Definition
	TotalDescent  *catalog.Definition
	AverageSpeed  *catalog.Definition
	AveragePower  *catalog.Definition
	AverageHR     *catalog.Definition

	ThresholdHR *catalog.Definition
	FTP         *catalog.Definition
	Height      *catalog.Definition
	Weight      *catalog.Definition

	CogganNP  *catalog.Definition
	CogganVI  *catalog.Definition
	CogganIF  *catalog.Definition
	CogganTSS *catalog.Definition
	CogganEF  *catalog.Definition

	LNP   *catalog.Definition
	XPace *catalog.Definition
	CV    *catalog.Definition
	RTP   *catalog.Definition
	IWF   *catalog.Definition
	GOVSS *catalog.Definition

	StressScore *catalog.Definition
}

// New builds the full metric set against an athlete configuration and
// freezes the registry.
func New(cfg config.Athlete) *Set {
	s := &Set{Registry: catalog.NewRegistry()}
	s.registerGeneral()
	s.registerAthlete(cfg)
	s.registerCoggan()
	s.registerRunning()
	s.registerStress()
	s.registerFamilies()
	s.Registry.Freeze()
	return s
}

// isSport gates a metric on the activity's sport classification.
func isSport(name string) catalog.Predicate {
	return func(act *activity.Activity, _ catalog.Values) bool {
		return act.Sport().Sport == name
	}
}

// scalarDep reads a dependency that must have produced a scalar.
func scalarDep(deps catalog.Values, def *catalog.Definition) (float64, error) {
	v, ok := deps.Value(def)
	if !ok || v.Scalar == nil {
		return 0, catalog.Computationf("dependency %s has no scalar value", def.Name)
	}
	return *v.Scalar, nil
}

// rollingMean computes a trailing mean over a window of w samples, skipping
// missing values; a window with no valid samples yields NaN.
func rollingMean(samples []float64, w int) []float64 {
	out := make([]float64, len(samples))
	var sum float64
	var count int
	for i := range samples {
		if !math.IsNaN(samples[i]) {
			sum += samples[i]
			count++
		}
		if i >= w {
			if !math.IsNaN(samples[i-w]) {
				sum -= samples[i-w]
				count--
			}
		}
		if count == 0 {
			out[i] = math.NaN()
		} else {
			out[i] = sum / float64(count)
		}
	}
	return out
}

// mean averages the valid samples; NaN when none are valid.
func mean(samples []float64) float64 {
	var sum float64
	var count int
	for _, v := range samples {
		if !math.IsNaN(v) {
			sum += v
			count++
		}
	}
	if count == 0 {
		return math.NaN()
	}
	return sum / float64(count)
}

// normalizedMean is the fourth-root of the mean fourth power, the weighting
// used by normalized power style metrics.
func normalizedMean(samples []float64) float64 {
	var sum float64
	var count int
	for _, v := range samples {
		if !math.IsNaN(v) {
			sum += v * v * v * v
			count++
		}
	}
	if count == 0 {
		return math.NaN()
	}
	return math.Pow(sum/float64(count), 0.25)
}
