package engine

import (
	"errors"
	"fmt"
	"math"

	"fitengine/internal/activity"
	"fitengine/internal/catalog"
)

// Cache persists computed metric values per activity, keyed by canonical
// metric name.
type Cache interface {
	// Get returns the cached value for a metric and whether one exists.
	Get(activityID int64, metric string) (catalog.Value, bool, error)
	// Put stores a value. When overwrite is false an existing row is left
	// untouched; when true it is replaced.
	Put(activityID int64, metric string, v catalog.Value, overwrite bool) error
}

// Evaluator computes single metrics against the cache. It holds no
// per-activity state; callers thread a Results map through it.
type Evaluator struct {
	Cache Cache
	// Recompute bypasses cache reads and overwrites on write.
	Recompute bool
}

// Evaluate produces the outcome for one definition, consulting and filling
// the cache. Dependencies must already be present in results; use an order
// from graph.Order. A returned error is an unexpected failure (cache I/O or
// a compute error outside the contained kind) and aborts the activity.
func (e *Evaluator) Evaluate(def *catalog.Definition, act *activity.Activity, results Results) (Outcome, error) {
	deps := &depValues{def: def, results: results}

	if def.Cache && !e.Recompute && e.Cache != nil {
		v, ok, err := e.Cache.Get(act.ID, def.Name)
		if err != nil {
			return Outcome{}, fmt.Errorf("reading cache for %s: %w", def.Name, err)
		}
		if ok {
			return Outcome{Status: Computed, Value: v, FromCache: true}, nil
		}
	}

	for _, col := range def.RequiredColumns {
		if !act.HasColumn(col) {
			return Outcome{Status: NotApplicable, Reason: fmt.Sprintf("no %s signal", col)}, nil
		}
	}
	for _, p := range def.Predicates {
		if !p(act, deps) {
			return Outcome{Status: NotApplicable, Reason: "predicate rejected activity"}, nil
		}
	}

	for _, dep := range def.Deps {
		out, ok := results[dep]
		if !ok || out.Status != Computed {
			return Outcome{Status: Skipped, Reason: fmt.Sprintf("dependency %s not computed", dep.Name)}, nil
		}
	}

	raw, err := def.Compute(act, deps)
	if err != nil {
		var cerr *catalog.ComputationError
		if errors.As(err, &cerr) {
			return Outcome{Status: Failed, Err: err}, nil
		}
		return Outcome{}, fmt.Errorf("computing %s: %w", def.Name, err)
	}

	value := Normalize(raw)
	if def.Cache && e.Cache != nil {
		if err := e.Cache.Put(act.ID, def.Name, value, e.Recompute); err != nil {
			return Outcome{}, fmt.Errorf("caching %s: %w", def.Name, err)
		}
	}
	return Outcome{Status: Computed, Value: value}, nil
}

// Normalize maps a compute function's return value to the stored form:
// finite numerics become scalars, non-finite ones the empty value, nil the
// empty value, and anything else a structured value. A catalog.Value passes
// through.
func Normalize(raw any) catalog.Value {
	switch v := raw.(type) {
	case nil:
		return catalog.Value{}
	case catalog.Value:
		return v
	case float64:
		return normalizeFloat(v)
	case float32:
		return normalizeFloat(float64(v))
	case int:
		return catalog.Scalar(float64(v))
	case int64:
		return catalog.Scalar(float64(v))
	default:
		return catalog.Structured(raw)
	}
}

func normalizeFloat(f float64) catalog.Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return catalog.Value{}
	}
	return catalog.Scalar(f)
}

// depValues restricts a compute function's view of prior results to its
// declared dependencies. An undeclared read is a definition bug: it would
// silently depend on evaluation order, so it panics instead.
type depValues struct {
	def     *catalog.Definition
	results Results
}

func (d *depValues) Value(dep *catalog.Definition) (catalog.Value, bool) {
	if !d.declared(dep) {
		panic(fmt.Sprintf("metric %s read undeclared dependency %s", d.def.Name, dep.Name))
	}
	out, ok := d.results[dep]
	if !ok || out.Status != Computed || out.Value.IsNil() {
		return catalog.Value{}, false
	}
	return out.Value, true
}

func (d *depValues) declared(dep *catalog.Definition) bool {
	for _, candidate := range d.def.AllDeps() {
		if candidate == dep {
			return true
		}
	}
	return false
}
