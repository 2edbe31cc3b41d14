package metrics

import (
	"fitengine/internal/activity"
	"fitengine/internal/catalog"
)

// registerStress declares the sport-independent stress score. It prefers
// the running stress figure, then the cycling one; an activity that
// produced neither counts as zero stress. The weak dependencies order
// evaluation without gating it, so the metric still computes for sports
// that have no stress model at all.
func (s *Set) registerStress() {
	s.StressScore = s.Registry.Register(&catalog.Definition{
		Name:        "StressScore",
		Description: "Training stress from whichever sport model applies",
		Format:      "%.1f",
		Aggregation: catalog.AggregateSum,
		Cache:       true,
		WeakDeps:    []*catalog.Definition{s.GOVSS, s.CogganTSS},
		Compute: func(_ *activity.Activity, deps catalog.Values) (any, error) {
			for _, src := range []*catalog.Definition{s.GOVSS, s.CogganTSS} {
				if v, ok := deps.Value(src); ok && v.Scalar != nil {
					return *v.Scalar, nil
				}
			}
			return 0.0, nil
		},
	})
}
