// Package catalog holds the metric definition registry: statically declared
// metrics, parametrized metric families, and the small grammar that resolves
// metric names to definitions.
package catalog

import (
	"math"

	"fitengine/internal/activity"
)

// Aggregation describes how a metric's per-activity values roll up across
// activities on the same day.
type Aggregation string

const (
	AggregateSum  Aggregation = "sum"
	AggregateMean Aggregation = "mean"
	AggregateMax  Aggregation = "max"
)

// Value is a computed metric value: either a finite scalar or a structured
// (JSON-like) value, never both. The zero Value is "computed, no value".
type Value struct {
	Scalar     *float64
	Structured any
}

// Scalar wraps a float as a scalar Value.
func Scalar(f float64) Value {
	return Value{Scalar: &f}
}

// Structured wraps a nested value.
func Structured(v any) Value {
	return Value{Structured: v}
}

// IsNil reports whether neither representation is populated.
func (v Value) IsNil() bool {
	return v.Scalar == nil && v.Structured == nil
}

// Float returns the scalar representation, or NaN if the value is not a
// scalar.
func (v Value) Float() float64 {
	if v.Scalar == nil {
		return math.NaN()
	}
	return *v.Scalar
}

// Values gives a metric's compute function access to the values of its
// declared dependencies. Reading an undeclared dependency is a programming
// error and panics.
type Values interface {
	// Value returns the computed value of a declared dependency and whether
	// one is available (weak deps may have none).
	Value(def *Definition) (Value, bool)
}

// Predicate is one applicability condition. A definition is applicable to an
// activity only if all of its predicates hold; signal presence is checked
// separately through RequiredColumns.
type Predicate func(act *activity.Activity, deps Values) bool

// ComputeFunc computes a metric for one activity. The returned value is
// normalized by the evaluator: finite scalars are stored as scalars,
// anything else as a structured value, and nil is a valid "no value" result.
type ComputeFunc func(act *activity.Activity, deps Values) (any, error)

// Definition describes one metric. Definitions are created once, registered,
// and compared by identity: the same metric name always resolves to the same
// *Definition.
type Definition struct {
	// Name is the canonical metric name, usable as a cache key and parseable
	// back to this definition.
	Name        string
	Description string

	Unit   string
	Format string

	// Aggregation selects the cross-activity rollup; empty means the metric
	// does not participate in rollups.
	Aggregation Aggregation

	// Cache marks the value as persistable. Metrics whose correctness
	// depends on externally configured values are not cached and always
	// recomputed.
	Cache bool

	// RequiredColumns must all be present in the activity's signal manifest.
	RequiredColumns []string

	// Predicates are ANDed applicability conditions beyond signal presence.
	Predicates []Predicate

	// Deps are hard dependencies: evaluated first, and a missing cacheable
	// hard dep skips this metric.
	Deps []*Definition

	// WeakDeps order evaluation but never gate it; compute consults them as
	// a prioritized fallback list.
	WeakDeps []*Definition

	Compute ComputeFunc
}

// Applicable evaluates signal presence and all predicates for an activity.
func (d *Definition) Applicable(act *activity.Activity, deps Values) bool {
	for _, col := range d.RequiredColumns {
		if !act.HasColumn(col) {
			return false
		}
	}
	for _, p := range d.Predicates {
		if !p(act, deps) {
			return false
		}
	}
	return true
}

// AllDeps returns hard deps followed by weak deps.
func (d *Definition) AllDeps() []*Definition {
	if len(d.WeakDeps) == 0 {
		return d.Deps
	}
	all := make([]*Definition, 0, len(d.Deps)+len(d.WeakDeps))
	all = append(all, d.Deps...)
	all = append(all, d.WeakDeps...)
	return all
}
