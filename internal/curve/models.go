package curve

import (
	"math"

	"fitengine/internal/activity"
)

// Duration model names as they appear in fit result maps.
const (
	ModelTwoParam    = "2 param"
	ModelThreeParam  = "3 param"
	ModelExponential = "exponential"
	ModelOmni        = "omni"
	ModelPartitioned = "pt"
)

// tcpMax is the duration beyond which the partitioned model's aerobic
// component switches to logarithmic decay.
const tcpMax = 1800.0

// Model is one parametric duration model: value as a function of duration
// and a parameter vector.
type Model struct {
	Name   string
	Params []string
	Eval   func(p []float64, t float64) float64
	Guess  func(durs, vals []float64) []float64
}

// Models returns the family of duration models, each fit independently.
func Models() []Model {
	return []Model{
		{
			Name:   ModelTwoParam,
			Params: []string{"cp", "w_prime"},
			Eval: func(p []float64, t float64) float64 {
				return p[0] + p[1]/t
			},
			Guess: func(durs, vals []float64) []float64 {
				cp, _, wp := baseGuess(durs, vals)
				return []float64{cp, wp}
			},
		},
		{
			Name:   ModelThreeParam,
			Params: []string{"cp", "w_prime", "p_max"},
			Eval: func(p []float64, t float64) float64 {
				cp, wp, pmax := p[0], p[1], p[2]
				den := t - wp/(cp-pmax)
				return wp/den + cp
			},
			Guess: func(durs, vals []float64) []float64 {
				cp, pmax, wp := baseGuess(durs, vals)
				return []float64{cp, wp, pmax}
			},
		},
		{
			Name:   ModelExponential,
			Params: []string{"cp", "p_max", "tau"},
			Eval: func(p []float64, t float64) float64 {
				cp, pmax, tau := p[0], p[1], p[2]
				return cp + (pmax-cp)*math.Exp(-t/tau)
			},
			Guess: func(durs, vals []float64) []float64 {
				cp, pmax, _ := baseGuess(durs, vals)
				return []float64{cp, pmax, 300}
			},
		},
		{
			Name:   ModelOmni,
			Params: []string{"cp", "w_prime", "tau", "tau2"},
			Eval: func(p []float64, t float64) float64 {
				cp, wp, tau, tau2 := p[0], p[1], p[2], p[3]
				return wp/t*(1-math.Exp(-t/tau)) + cp*(1-math.Exp(-t/tau2))
			},
			Guess: func(durs, vals []float64) []float64 {
				cp, _, wp := baseGuess(durs, vals)
				return []float64{cp, wp, 300, 1800}
			},
		},
		{
			Name:   ModelPartitioned,
			Params: []string{"cp", "w_prime", "tau", "tau2", "a"},
			Eval: func(p []float64, t float64) float64 {
				return Aerobic(p, t) + Anaerobic(p, t)
			},
			Guess: func(durs, vals []float64) []float64 {
				cp, _, wp := baseGuess(durs, vals)
				return []float64{cp, wp, 300, 1800, 50}
			},
		},
	}
}

// Aerobic evaluates the aerobic component of the partitioned model: an
// exponential approach to CP with logarithmic decay beyond tcpMax seconds.
// The parameter vector is the full partitioned vector (cp, w', tau, tau2, a).
func Aerobic(p []float64, t float64) float64 {
	cp, tau2, a := p[0], p[3], p[4]
	v := cp * (1 - math.Exp(-t/tau2))
	if t > tcpMax {
		v -= a * math.Log(t/tcpMax)
	}
	return v
}

// Anaerobic evaluates the anaerobic (hyperbolic depletion) component of the
// partitioned model.
func Anaerobic(p []float64, t float64) float64 {
	wp, tau := p[1], p[2]
	return wp / t * (1 - math.Exp(-t/tau))
}

// baseGuess derives starting values from the data: CP from the longest
// duration, peak from the shortest, and W' from the short-duration surplus.
func baseGuess(durs, vals []float64) (cp, pmax, wp float64) {
	cp, pmax, wp = 300, 1000, 20000
	if len(vals) == 0 {
		return cp, pmax, wp
	}
	cp = vals[len(vals)-1]
	pmax = vals[0]
	if pmax <= cp {
		pmax = cp*1.5 + 1
	}
	wp = (vals[0] - cp) * durs[0]
	if wp < 1 {
		wp = 1
	}
	return cp, pmax, wp
}

// FitAll fits every duration model to a mean-max curve, independently.
// Models that cannot be fit (fewer distinct points than free parameters,
// non-convergence, degenerate input) are omitted from the result map.
func FitAll(points []activity.MeanMaxPoint) map[string]map[string]float64 {
	durs := make([]float64, 0, len(points))
	vals := make([]float64, 0, len(points))
	for _, pt := range points {
		if pt.Duration <= 0 || math.IsNaN(pt.Value) {
			continue
		}
		durs = append(durs, float64(pt.Duration))
		vals = append(vals, pt.Value)
	}

	fits := make(map[string]map[string]float64)
	for _, m := range Models() {
		if len(durs) < len(m.Params) {
			continue
		}
		params, err := Fit(m, durs, vals)
		if err != nil {
			continue
		}
		named := make(map[string]float64, len(params))
		for i, name := range m.Params {
			named[name] = params[i]
		}
		fits[m.Name] = named
	}
	return fits
}
