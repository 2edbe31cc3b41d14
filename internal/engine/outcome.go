// Package engine evaluates metric definitions over activities: dependency
// ordering, cache-first evaluation, applicability gating, and batch runs.
package engine

import "fitengine/internal/catalog"

// Status classifies the outcome of evaluating one metric for one activity.
type Status int

const (
	// Computed means a value was produced (possibly the empty "no value").
	Computed Status = iota
	// NotApplicable means the activity lacks a required signal or an
	// applicability predicate rejected it.
	NotApplicable
	// Skipped means a hard dependency produced no value to build on.
	Skipped
	// Failed means the compute function reported a contained computation
	// error.
	Failed
)

func (s Status) String() string {
	switch s {
	case Computed:
		return "computed"
	case NotApplicable:
		return "not applicable"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of evaluating one metric for one activity.
type Outcome struct {
	Status Status
	Value  catalog.Value

	// Reason explains NotApplicable and Skipped outcomes.
	Reason string
	// Err holds the contained computation error of a Failed outcome.
	Err error

	// FromCache marks a Computed outcome served from the metric cache.
	FromCache bool
}

// Results maps definitions to their outcomes for a single activity.
// Definitions are compared by identity, so family instances resolve to the
// same entry no matter how they were obtained.
type Results map[*catalog.Definition]Outcome
