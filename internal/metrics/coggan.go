package metrics

import (
	"math"

	"fitengine/internal/activity"
	"fitengine/internal/catalog"
)

// registerCoggan declares the power-based cycling load metrics: normalized
// power with a 30 second rolling window, and the intensity and stress
// figures derived from it against FTP.
func (s *Set) registerCoggan() {
	r := s.Registry
	cycling := isSport("cycling")

	s.CogganNP = r.Register(&catalog.Definition{
		Name:            "CogganNP",
		Description:     "Normalized power",
		Unit:            "W",
		Format:          "%.0f",
		Cache:           true,
		RequiredColumns: []string{activity.SignalPower},
		Predicates:      []catalog.Predicate{cycling},
		Compute: func(act *activity.Activity, _ catalog.Values) (any, error) {
			np := normalizedMean(rollingMean(act.Signal(activity.SignalPower), 30))
			if math.IsNaN(np) {
				return nil, nil
			}
			return np, nil
		},
	})

	s.CogganVI = r.Register(&catalog.Definition{
		Name:        "CogganVI",
		Description: "Variability index: normalized over average power",
		Format:      "%.2f",
		Cache:       true,
		Predicates:  []catalog.Predicate{cycling},
		Deps:        []*catalog.Definition{s.CogganNP, s.AveragePower},
		Compute: func(_ *activity.Activity, deps catalog.Values) (any, error) {
			np, err := scalarDep(deps, s.CogganNP)
			if err != nil {
				return nil, err
			}
			ap, err := scalarDep(deps, s.AveragePower)
			if err != nil {
				return nil, err
			}
			if ap == 0 {
				return nil, catalog.Computationf("average power is zero")
			}
			return np / ap, nil
		},
	})

	s.CogganIF = r.Register(&catalog.Definition{
		Name:        "CogganIF",
		Description: "Intensity factor: normalized power over FTP",
		Format:      "%.2f",
		Cache:       true,
		Predicates:  []catalog.Predicate{cycling},
		Deps:        []*catalog.Definition{s.CogganNP, s.FTP},
		Compute: func(_ *activity.Activity, deps catalog.Values) (any, error) {
			np, err := scalarDep(deps, s.CogganNP)
			if err != nil {
				return nil, err
			}
			ftp, err := scalarDep(deps, s.FTP)
			if err != nil {
				return nil, err
			}
			return np / ftp, nil
		},
	})

	s.CogganTSS = r.Register(&catalog.Definition{
		Name:        "CogganTSS",
		Description: "Training stress score",
		Format:      "%.1f",
		Aggregation: catalog.AggregateSum,
		Cache:       true,
		Predicates:  []catalog.Predicate{cycling},
		Deps:        []*catalog.Definition{s.CogganNP, s.FTP, s.TimerTime},
		Compute: func(_ *activity.Activity, deps catalog.Values) (any, error) {
			np, err := scalarDep(deps, s.CogganNP)
			if err != nil {
				return nil, err
			}
			ftp, err := scalarDep(deps, s.FTP)
			if err != nil {
				return nil, err
			}
			timer, err := scalarDep(deps, s.TimerTime)
			if err != nil {
				return nil, err
			}
			return np * np / ftp * timer / (ftp * 3600) * 100, nil
		},
	})

	s.CogganEF = r.Register(&catalog.Definition{
		Name:        "CogganEF",
		Description: "Efficiency factor: normalized power over average heart rate",
		Format:      "%.2f",
		Cache:       true,
		Predicates:  []catalog.Predicate{cycling},
		Deps:        []*catalog.Definition{s.CogganNP, s.AverageHR},
		Compute: func(_ *activity.Activity, deps catalog.Values) (any, error) {
			np, err := scalarDep(deps, s.CogganNP)
			if err != nil {
				return nil, err
			}
			hr, err := scalarDep(deps, s.AverageHR)
			if err != nil {
				return nil, err
			}
			if hr == 0 {
				return nil, catalog.Computationf("average heart rate is zero")
			}
			return np / hr, nil
		},
	})
}
