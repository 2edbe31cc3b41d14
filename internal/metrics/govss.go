package metrics

import (
	"math"

	"fitengine/internal/activity"
	"fitengine/internal/catalog"
)

// runningPower estimates the metabolic power of running at a given speed,
// slope and acceleration context, after Skiba's GOVSS formulation. slope is
// a gradient ratio; distance and initialSpeed describe the window the speed
// was averaged over and contribute the kinetic term.
func runningPower(weight, height, speed, slope, distance, initialSpeed float64) float64 {
	af := (0.2025 * math.Pow(height, 0.725) * math.Pow(weight, 0.425)) * 0.266
	cAero := 0.5 * 1.2 * 0.9 * af * speed * speed / weight

	var cKin float64
	if distance != 0 {
		cKin = 0.5 * (speed*speed - initialSpeed*initialSpeed) / distance
	}

	cSlope := 155.4*math.Pow(slope, 5) -
		30.4*math.Pow(slope, 4) -
		43.3*math.Pow(slope, 3) +
		46.3*slope*slope +
		19.5*slope +
		3.6

	eff := (0.25 + 0.054*speed) * (1 - 0.5*speed/8.33)

	return (cAero + cKin + cSlope*eff) * speed * weight
}

// lnpWindow is the span, in samples, over which speed and slope are averaged
// before feeding the power model.
const lnpWindow = 120

// lactatePower derives the per-sample running power series and collapses it
// to a lactate-normalized figure (30s rolling mean, fourth-power weighting).
func lactatePower(act *activity.Activity, weight, height float64) float64 {
	dist := act.Signal(activity.SignalDistance)
	alt := act.Signal(activity.SignalAltitude)
	n := len(dist)

	// Per-sample speed and gradient from the distance channel. Distance
	// steps under 0.1 m are treated as standing still.
	speed := make([]float64, n)
	slope := make([]float64, n)
	for i := range dist {
		if i == 0 {
			speed[i] = math.NaN()
			continue
		}
		dd := dist[i] - dist[i-1]
		if math.IsNaN(dd) {
			speed[i] = math.NaN()
			continue
		}
		speed[i] = dd
		if dd < 0.1 {
			speed[i] = 0
			continue
		}
		da := alt[i] - alt[i-1]
		if !math.IsNaN(da) {
			slope[i] = da / dd
		}
	}

	speed120 := rollingMean(speed, lnpWindow)
	slope120 := rollingMean(slope, lnpWindow)

	power := make([]float64, n)
	for i := range power {
		if i < lnpWindow || math.IsNaN(speed120[i]) || math.IsNaN(dist[i]) || math.IsNaN(dist[i-lnpWindow]) {
			power[i] = math.NaN()
			continue
		}
		window := dist[i] - dist[i-lnpWindow]
		begin := speed[i-lnpWindow]
		if math.IsNaN(begin) {
			begin = 0
		}
		power[i] = runningPower(weight, height, speed120[i], slope120[i], window, begin)
	}

	return normalizedMean(rollingMean(power, 30))
}

// paceForPower inverts the flat-ground power model by bisection on speed.
func paceForPower(weight, height, watts float64) float64 {
	low, high := 0.0, 10.0
	if watts <= 0 {
		return low
	}
	if watts >= runningPower(weight, height, high, 0, 0, 0) {
		return high
	}
	var speed float64
	for i := 0; i < 100; i++ {
		speed = (low + high) / 2
		w := runningPower(weight, height, speed, 0, 0, 0)
		switch {
		case math.Abs(w-watts) < 1:
			return speed
		case w < watts:
			low = speed
		default:
			high = speed
		}
	}
	return speed
}

// registerRunning declares the running-power load metrics, gated on the
// running sport and on the distance channel being recorded.
func (s *Set) registerRunning() {
	r := s.Registry
	running := isSport("running")

	s.LNP = r.Register(&catalog.Definition{
		Name:            "LNP",
		Description:     "Lactate normalized running power",
		Unit:            "W",
		Format:          "%.0f",
		Cache:           true,
		RequiredColumns: []string{activity.SignalDistance},
		Predicates:      []catalog.Predicate{running},
		Deps:            []*catalog.Definition{s.Height, s.Weight},
		Compute: func(act *activity.Activity, deps catalog.Values) (any, error) {
			height, err := scalarDep(deps, s.Height)
			if err != nil {
				return nil, err
			}
			weight, err := scalarDep(deps, s.Weight)
			if err != nil {
				return nil, err
			}
			lnp := lactatePower(act, weight, height)
			if math.IsNaN(lnp) {
				return 0.0, nil
			}
			return lnp, nil
		},
	})

	s.XPace = r.Register(&catalog.Definition{
		Name:        "XPace",
		Description: "Flat-ground pace equivalent of LNP",
		Unit:        "m/s",
		Format:      "%.2f",
		Cache:       true,
		Predicates:  []catalog.Predicate{running},
		Deps:        []*catalog.Definition{s.Height, s.Weight, s.LNP},
		Compute: func(_ *activity.Activity, deps catalog.Values) (any, error) {
			height, err := scalarDep(deps, s.Height)
			if err != nil {
				return nil, err
			}
			weight, err := scalarDep(deps, s.Weight)
			if err != nil {
				return nil, err
			}
			lnp, err := scalarDep(deps, s.LNP)
			if err != nil {
				return nil, err
			}
			return paceForPower(weight, height, lnp), nil
		},
	})

	// RTP depends only on configured values, so like them it is never
	// cached.
	s.RTP = r.Register(&catalog.Definition{
		Name:        "RTP",
		Description: "Running threshold power, the power at critical velocity",
		Unit:        "W",
		Format:      "%.2f",
		Cache:       false,
		Predicates:  []catalog.Predicate{running},
		Deps:        []*catalog.Definition{s.Height, s.Weight, s.CV},
		Compute: func(_ *activity.Activity, deps catalog.Values) (any, error) {
			height, err := scalarDep(deps, s.Height)
			if err != nil {
				return nil, err
			}
			weight, err := scalarDep(deps, s.Weight)
			if err != nil {
				return nil, err
			}
			cv, err := scalarDep(deps, s.CV)
			if err != nil {
				return nil, err
			}
			return runningPower(weight, height, cv, 0, 0, 0), nil
		},
	})

	s.IWF = r.Register(&catalog.Definition{
		Name:        "IWF",
		Description: "Intensity weighting factor: LNP over threshold power",
		Format:      "%.2f",
		Cache:       true,
		Predicates:  []catalog.Predicate{running},
		Deps:        []*catalog.Definition{s.LNP, s.RTP},
		Compute: func(_ *activity.Activity, deps catalog.Values) (any, error) {
			lnp, err := scalarDep(deps, s.LNP)
			if err != nil {
				return nil, err
			}
			rtp, err := scalarDep(deps, s.RTP)
			if err != nil {
				return nil, err
			}
			if rtp == 0 {
				return nil, catalog.Computationf("threshold power is zero")
			}
			return lnp / rtp, nil
		},
	})

	s.GOVSS = r.Register(&catalog.Definition{
		Name:        "GOVSS",
		Description: "Gravity-ordered velocity stress score",
		Format:      "%.1f",
		Aggregation: catalog.AggregateSum,
		Cache:       true,
		Predicates:  []catalog.Predicate{running},
		Deps:        []*catalog.Definition{s.LNP, s.RTP, s.TimerTime},
		Compute: func(_ *activity.Activity, deps catalog.Values) (any, error) {
			lnp, err := scalarDep(deps, s.LNP)
			if err != nil {
				return nil, err
			}
			rtp, err := scalarDep(deps, s.RTP)
			if err != nil {
				return nil, err
			}
			timer, err := scalarDep(deps, s.TimerTime)
			if err != nil {
				return nil, err
			}
			if rtp == 0 {
				return nil, catalog.Computationf("threshold power is zero")
			}
			return lnp * lnp / rtp * timer / (rtp * 3600) * 100, nil
		},
	})
}
