package metrics

import (
	"math"

	"fitengine/internal/activity"
	"fitengine/internal/catalog"
	"fitengine/internal/config"
)

// ascentHysteresis is the altitude change, in meters, that must accumulate
// in one direction before it counts as climbing or descending. Filters
// barometric jitter.
const ascentHysteresis = 3.0

func (s *Set) registerGeneral() {
	r := s.Registry

	s.Sport = r.Register(&catalog.Definition{
		Name:        "Sport",
		Description: "Sport and sub-sport classification",
		Cache:       true,
		Compute: func(act *activity.Activity, _ catalog.Values) (any, error) {
			sp := act.Sport()
			return map[string]any{"sport": sp.Sport, "sub_sport": sp.SubSport}, nil
		},
	})

	s.TimerTime = r.Register(&catalog.Definition{
		Name:        "TimerTime",
		Description: "Time the recording timer ran",
		Unit:        "s",
		Format:      "%.0f",
		Aggregation: catalog.AggregateSum,
		Cache:       true,
		Compute: func(act *activity.Activity, _ catalog.Values) (any, error) {
			return act.TimerTime, nil
		},
	})

	s.ElapsedTime = r.Register(&catalog.Definition{
		Name:        "ElapsedTime",
		Description: "Wall-clock span of the recording",
		Unit:        "s",
		Format:      "%.0f",
		Aggregation: catalog.AggregateSum,
		Cache:       true,
		Compute: func(act *activity.Activity, _ catalog.Values) (any, error) {
			samples := act.Samples()
			if len(samples) == 0 {
				return nil, nil
			}
			return float64(samples[len(samples)-1].Offset - samples[0].Offset), nil
		},
	})

	s.MovingTime = r.Register(&catalog.Definition{
		Name:            "MovingTime",
		Description:     "Seconds spent above walking pace",
		Unit:            "s",
		Format:          "%.0f",
		Aggregation:     catalog.AggregateSum,
		Cache:           true,
		RequiredColumns: []string{activity.SignalSpeed},
		Compute: func(act *activity.Activity, _ catalog.Values) (any, error) {
			var moving float64
			for _, v := range act.Signal(activity.SignalSpeed) {
				if !math.IsNaN(v) && v > 0.5 {
					moving++
				}
			}
			return moving, nil
		},
	})

	s.TotalDistance = r.Register(&catalog.Definition{
		Name:            "TotalDistance",
		Description:     "Total recorded distance",
		Unit:            "m",
		Format:          "%.0f",
		Aggregation:     catalog.AggregateSum,
		Cache:           true,
		RequiredColumns: []string{activity.SignalDistance},
		Compute: func(act *activity.Activity, _ catalog.Values) (any, error) {
			last := math.NaN()
			for _, v := range act.Signal(activity.SignalDistance) {
				if !math.IsNaN(v) {
					last = v
				}
			}
			if math.IsNaN(last) {
				return nil, nil
			}
			return last, nil
		},
	})

	s.TotalAscent = r.Register(&catalog.Definition{
		Name:            "TotalAscent",
		Description:     "Total climbing, hysteresis-filtered",
		Unit:            "m",
		Format:          "%.0f",
		Aggregation:     catalog.AggregateSum,
		Cache:           true,
		RequiredColumns: []string{activity.SignalAltitude},
		Compute: func(act *activity.Activity, _ catalog.Values) (any, error) {
			up, _ := climb(act.Signal(activity.SignalAltitude))
			return up, nil
		},
	})

	s.TotalDescent = r.Register(&catalog.Definition{
		Name:            "TotalDescent",
		Description:     "Total descending, hysteresis-filtered",
		Unit:            "m",
		Format:          "%.0f",
		Aggregation:     catalog.AggregateSum,
		Cache:           true,
		RequiredColumns: []string{activity.SignalAltitude},
		Compute: func(act *activity.Activity, _ catalog.Values) (any, error) {
			_, down := climb(act.Signal(activity.SignalAltitude))
			return down, nil
		},
	})

	s.AverageSpeed = r.Register(&catalog.Definition{
		Name:            "AverageSpeed",
		Description:     "Distance over timer time",
		Unit:            "m/s",
		Format:          "%.2f",
		Aggregation:     catalog.AggregateMean,
		Cache:           true,
		RequiredColumns: []string{activity.SignalDistance},
		Deps:            []*catalog.Definition{s.TotalDistance, s.TimerTime},
		Compute: func(act *activity.Activity, deps catalog.Values) (any, error) {
			dist, err := scalarDep(deps, s.TotalDistance)
			if err != nil {
				return nil, err
			}
			timer, err := scalarDep(deps, s.TimerTime)
			if err != nil {
				return nil, err
			}
			if timer <= 0 {
				return nil, catalog.Computationf("timer time is %v", timer)
			}
			return dist / timer, nil
		},
	})

	s.AveragePower = r.Register(&catalog.Definition{
		Name:            "AveragePower",
		Description:     "Mean power over non-zero samples",
		Unit:            "W",
		Format:          "%.0f",
		Aggregation:     catalog.AggregateMean,
		Cache:           true,
		RequiredColumns: []string{activity.SignalPower},
		Compute: func(act *activity.Activity, _ catalog.Values) (any, error) {
			var sum float64
			var count int
			for _, v := range act.Signal(activity.SignalPower) {
				if !math.IsNaN(v) && v > 0 {
					sum += v
					count++
				}
			}
			if count == 0 {
				return nil, nil
			}
			return sum / float64(count), nil
		},
	})

	s.AverageHR = r.Register(&catalog.Definition{
		Name:            "AverageHR",
		Description:     "Mean heart rate",
		Unit:            "bpm",
		Format:          "%.0f",
		Aggregation:     catalog.AggregateMean,
		Cache:           true,
		RequiredColumns: []string{activity.SignalHeartrate},
		Compute: func(act *activity.Activity, _ catalog.Values) (any, error) {
			m := mean(act.Signal(activity.SignalHeartrate))
			if math.IsNaN(m) {
				return nil, nil
			}
			return m, nil
		},
	})
}

// registerAthlete declares the externally configured athlete values as
// metrics so that anything downstream can depend on them uniformly. They
// are never cached: a config change must take effect on the next run.
func (s *Set) registerAthlete(cfg config.Athlete) {
	r := s.Registry
	configured := func(name, desc, unit string, v float64) *catalog.Definition {
		return r.Register(&catalog.Definition{
			Name:        name,
			Description: desc,
			Unit:        unit,
			Format:      "%.2f",
			Cache:       false,
			Compute: func(_ *activity.Activity, _ catalog.Values) (any, error) {
				return v, nil
			},
		})
	}

	s.ThresholdHR = configured("ThresholdHR", "Lactate threshold heart rate", "bpm", cfg.ThresholdHR)
	s.FTP = configured("FTP", "Functional threshold power", "W", cfg.FTP)
	s.CV = configured("CV", "Critical running velocity", "m/s", cfg.CriticalVelocity)
	s.Height = configured("Height", "Athlete height", "m", cfg.Height)
	s.Weight = configured("Weight", "Athlete weight", "kg", cfg.Weight)
}

// climb accumulates ascent and descent, recognizing a direction change only
// after ascentHysteresis meters in the new direction.
func climb(alts []float64) (up, down float64) {
	ref := math.NaN()
	for _, v := range alts {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(ref) {
			ref = v
			continue
		}
		switch {
		case v-ref >= ascentHysteresis:
			up += v - ref
			ref = v
		case ref-v >= ascentHysteresis:
			down += ref - v
			ref = v
		}
	}
	return up, down
}
