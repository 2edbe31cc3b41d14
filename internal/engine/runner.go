package engine

import (
	"context"
	"fmt"
	"log/slog"

	"fitengine/internal/activity"
	"fitengine/internal/catalog"
	"fitengine/internal/graph"
)

// Runner evaluates a set of requested metrics over many activities. One
// activity's failure never aborts the batch.
type Runner struct {
	Eval *Evaluator
	Log  *slog.Logger
}

// BatchReport summarizes a batch run.
type BatchReport struct {
	Activities int
	Aborted    int // activities that hit an unexpected error
	Computed   int
	Cached     int
	Failed     int // contained computation failures
}

// EvaluateAll computes the requested metrics (and their transitive
// dependencies) for one activity, in dependency order.
func (r *Runner) EvaluateAll(requested []*catalog.Definition, act *activity.Activity) (Results, error) {
	order, err := graph.Order(requested)
	if err != nil {
		return nil, err
	}
	results := make(Results, len(order))
	for _, def := range order {
		out, err := r.Eval.Evaluate(def, act, results)
		if err != nil {
			return nil, err
		}
		results[def] = out
	}
	return results, nil
}

// Run evaluates the requested metrics over every activity. Unexpected
// errors, including panics out of compute functions, abort only the
// offending activity; they are logged and counted, and the batch moves on.
func (r *Runner) Run(ctx context.Context, requested []*catalog.Definition, acts []*activity.Activity) (*BatchReport, error) {
	order, err := graph.Order(requested)
	if err != nil {
		return nil, err
	}

	report := &BatchReport{}
	for _, act := range acts {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Activities++
		results, err := r.runOne(order, act)
		if err != nil {
			report.Aborted++
			r.log().Error("activity aborted", "activity", act.ID, "name", act.Name, "err", err)
			continue
		}
		for def, out := range results {
			switch out.Status {
			case Computed:
				report.Computed++
				if out.FromCache {
					report.Cached++
				}
			case Failed:
				report.Failed++
				r.log().Warn("metric failed", "activity", act.ID, "metric", def.Name, "err", out.Err)
			}
		}
	}
	return report, nil
}

// runOne evaluates a pre-ordered definition list for one activity,
// converting panics into errors so the batch survives definition bugs.
func (r *Runner) runOne(order []*catalog.Definition, act *activity.Activity) (results Results, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			results = nil
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	results = make(Results, len(order))
	for _, def := range order {
		out, err := r.Eval.Evaluate(def, act, results)
		if err != nil {
			return nil, err
		}
		results[def] = out
	}
	return results, nil
}

func (r *Runner) log() *slog.Logger {
	if r.Log == nil {
		return slog.Default()
	}
	return r.Log
}
