package metrics

import (
	"fmt"
	"math"

	"fitengine/internal/activity"
	"fitengine/internal/catalog"
	"fitengine/internal/curve"
	"fitengine/internal/zones"
)

// registerFamilies declares the parametrized metric families. Instances are
// materialized and memoized by the registry on first request, so e.g. every
// reference to Curve["power"] shares one definition.
func (s *Set) registerFamilies() {
	r := s.Registry
	r.RegisterFamily("Curve", s.curveFamily)
	r.RegisterFamily("MeanMax", s.meanMaxFamily)
	r.RegisterFamily("ZoneDefinitions", s.zoneDefinitionsFamily)
	r.RegisterFamily("Zones", s.zonesFamily)
	r.RegisterFamily("TimeInZone", s.timeInZoneFamily)
}

func oneSignalArg(family string, args []catalog.Arg) (string, error) {
	if len(args) != 1 || args[0].Kind != catalog.ArgString {
		return "", fmt.Errorf("%s: want one signal argument, got %s", family, catalog.InstanceName(family, args))
	}
	return args[0].Str, nil
}

// curveFamily builds Curve[signal]: the activity's mean-max curve for one
// signal plus the duration-model fits over it. The mean-max table normally
// comes precomputed from storage; it is derived from the raw samples when
// absent.
func (s *Set) curveFamily(args []catalog.Arg) (*catalog.Definition, error) {
	signal, err := oneSignalArg("Curve", args)
	if err != nil {
		return nil, err
	}
	return &catalog.Definition{
		Name:            catalog.InstanceName("Curve", args),
		Description:     fmt.Sprintf("Mean-max curve and duration models for %s", signal),
		Cache:           true,
		RequiredColumns: []string{signal},
		Compute: func(act *activity.Activity, _ catalog.Values) (any, error) {
			points := act.MeanMax(signal)
			if points == nil {
				points = curve.MeanMax(act.Signal(signal))
			}
			if len(points) == 0 {
				return nil, nil
			}
			x := make([]float64, len(points))
			y := make([]float64, len(points))
			for i, pt := range points {
				x[i] = float64(pt.Duration)
				y[i] = pt.Value
			}
			return map[string]any{
				"x":      x,
				"y":      y,
				"models": curve.FitAll(points),
			}, nil
		},
	}, nil
}

// meanMaxFamily builds MeanMax[signal, duration]: the best average of one
// signal over one window length, as a scalar.
func (s *Set) meanMaxFamily(args []catalog.Arg) (*catalog.Definition, error) {
	if len(args) != 2 || args[0].Kind != catalog.ArgString || args[1].Kind != catalog.ArgInt {
		return nil, fmt.Errorf("MeanMax: want signal and duration arguments, got %s", catalog.InstanceName("MeanMax", args))
	}
	signal := args[0].Str
	duration := int(args[1].Int)
	if duration <= 0 {
		return nil, fmt.Errorf("MeanMax: duration must be positive, got %d", duration)
	}
	return &catalog.Definition{
		Name:            catalog.InstanceName("MeanMax", args),
		Description:     fmt.Sprintf("Best %ds average of %s", duration, signal),
		Cache:           true,
		RequiredColumns: []string{signal},
		Compute: func(act *activity.Activity, _ catalog.Values) (any, error) {
			points := act.MeanMax(signal)
			if points == nil {
				points = curve.MeanMax(act.Signal(signal))
			}
			for _, pt := range points {
				if pt.Duration == duration {
					return pt.Value, nil
				}
			}
			return nil, nil
		},
	}, nil
}

// zoneDefinitionsFamily builds ZoneDefinitions[signal]: zone boundaries
// scaled from the signal's configured threshold. Never cached, so a
// threshold change takes effect on the next run.
func (s *Set) zoneDefinitionsFamily(args []catalog.Arg) (*catalog.Definition, error) {
	signal, err := oneSignalArg("ZoneDefinitions", args)
	if err != nil {
		return nil, err
	}
	table, ok := zones.TableFor(signal)
	if !ok {
		return nil, fmt.Errorf("ZoneDefinitions: no zone scheme for signal %q", signal)
	}
	threshold := s.thresholdFor(signal)
	return &catalog.Definition{
		Name:        catalog.InstanceName("ZoneDefinitions", args),
		Description: fmt.Sprintf("Zone boundaries for %s", signal),
		Cache:       false,
		Deps:        []*catalog.Definition{threshold},
		Compute: func(_ *activity.Activity, deps catalog.Values) (any, error) {
			base, err := scalarDep(deps, threshold)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"boundaries": table.Boundaries(base),
				"labels":     table.Labels,
			}, nil
		},
	}, nil
}

// zonesFamily builds Zones[signal]: seconds spent in each of the signal's
// zones, keyed by zone label.
func (s *Set) zonesFamily(args []catalog.Arg) (*catalog.Definition, error) {
	signal, err := oneSignalArg("Zones", args)
	if err != nil {
		return nil, err
	}
	defs, err := s.Registry.Instance("ZoneDefinitions", args)
	if err != nil {
		return nil, err
	}
	return &catalog.Definition{
		Name:            catalog.InstanceName("Zones", args),
		Description:     fmt.Sprintf("Time in %s zones", signal),
		Cache:           false,
		RequiredColumns: []string{signal},
		Deps:            []*catalog.Definition{defs},
		Compute: func(act *activity.Activity, deps catalog.Values) (any, error) {
			v, ok := deps.Value(defs)
			if !ok {
				return nil, catalog.Computationf("zone definitions unavailable")
			}
			bounds, labels, err := decodeZoneDefs(v)
			if err != nil {
				return nil, catalog.Computationf("decoding zone definitions: %v", err)
			}
			return zones.TimeInZones(act.Signal(signal), bounds, labels)
		},
	}, nil
}

// timeInZoneFamily builds TimeInZone[signal, label]: seconds in one labeled
// zone, as a scalar.
func (s *Set) timeInZoneFamily(args []catalog.Arg) (*catalog.Definition, error) {
	if len(args) != 2 || args[0].Kind != catalog.ArgString || args[1].Kind != catalog.ArgString {
		return nil, fmt.Errorf("TimeInZone: want signal and zone label arguments, got %s", catalog.InstanceName("TimeInZone", args))
	}
	signal, label := args[0].Str, args[1].Str
	table, ok := zones.TableFor(signal)
	if !ok {
		return nil, fmt.Errorf("TimeInZone: no zone scheme for signal %q", signal)
	}
	if !contains(table.Labels, label) {
		return nil, fmt.Errorf("TimeInZone: signal %q has no zone %q", signal, label)
	}
	zonesDef, err := s.Registry.Instance("Zones", args[:1])
	if err != nil {
		return nil, err
	}
	return &catalog.Definition{
		Name:        catalog.InstanceName("TimeInZone", args),
		Description: fmt.Sprintf("Time in %s zone %s", signal, label),
		Unit:        "s",
		Format:      "%.0f",
		Cache:       false,
		Deps:        []*catalog.Definition{zonesDef},
		Compute: func(_ *activity.Activity, deps catalog.Values) (any, error) {
			v, ok := deps.Value(zonesDef)
			if !ok {
				return nil, catalog.Computationf("zone histogram unavailable")
			}
			hist, err := decodeZoneHist(v)
			if err != nil {
				return nil, catalog.Computationf("decoding zone histogram: %v", err)
			}
			return hist[label], nil
		},
	}, nil
}

// thresholdFor maps a signal to the configured threshold metric its zones
// scale from.
func (s *Set) thresholdFor(signal string) *catalog.Definition {
	if signal == activity.SignalPower {
		return s.FTP
	}
	return s.ThresholdHR
}

// decodeZoneDefs unpacks a zone-definitions value, tolerating the loosely
// typed shape a JSON round-trip through the cache produces.
func decodeZoneDefs(v catalog.Value) ([]float64, []string, error) {
	m, ok := v.Structured.(map[string]any)
	if !ok {
		return nil, nil, fmt.Errorf("want a map, got %T", v.Structured)
	}
	bounds, err := floatSlice(m["boundaries"])
	if err != nil {
		return nil, nil, fmt.Errorf("boundaries: %w", err)
	}
	labels, err := stringSlice(m["labels"])
	if err != nil {
		return nil, nil, fmt.Errorf("labels: %w", err)
	}
	return bounds, labels, nil
}

// decodeZoneHist unpacks a label-to-seconds histogram, tolerating the cache
// round-trip shape.
func decodeZoneHist(v catalog.Value) (map[string]float64, error) {
	switch m := v.Structured.(type) {
	case map[string]float64:
		return m, nil
	case map[string]any:
		out := make(map[string]float64, len(m))
		for k, raw := range m {
			f, ok := asFloat(raw)
			if !ok {
				return nil, fmt.Errorf("zone %q: want a number, got %T", k, raw)
			}
			out[k] = f
		}
		return out, nil
	default:
		return nil, fmt.Errorf("want a map, got %T", v.Structured)
	}
}

func floatSlice(v any) ([]float64, error) {
	switch vs := v.(type) {
	case []float64:
		return vs, nil
	case []any:
		out := make([]float64, len(vs))
		for i, raw := range vs {
			f, ok := asFloat(raw)
			if !ok {
				return nil, fmt.Errorf("index %d: want a number, got %T", i, raw)
			}
			out[i] = f
		}
		return out, nil
	default:
		return nil, fmt.Errorf("want a list, got %T", v)
	}
}

func stringSlice(v any) ([]string, error) {
	switch vs := v.(type) {
	case []string:
		return vs, nil
	case []any:
		out := make([]string, len(vs))
		for i, raw := range vs {
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("index %d: want a string, got %T", i, raw)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("want a list, got %T", v)
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return math.NaN(), false
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
