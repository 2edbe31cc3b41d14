package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"fitengine/internal/activity"
	"fitengine/internal/catalog"
	"fitengine/internal/curve"
	"fitengine/internal/engine"
)

var recompute bool

var computeCmd = &cobra.Command{
	Use:   "compute [metric...]",
	Short: "Compute metrics for every stored activity",
	Long: `Compute the named metrics (or, with no arguments, the full built-in set)
for every stored activity. Values already in the cache are reused unless
--recompute is given.

Examples:
  fitengine compute
  fitengine compute CogganTSS 'Curve["power"]'
  fitengine compute --recompute StressScore`,
	RunE: runCompute,
}

func init() {
	computeCmd.Flags().BoolVar(&recompute, "recompute", false, "ignore cached values and overwrite them")
	rootCmd.AddCommand(computeCmd)
}

func runCompute(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	ids, err := e.db.ListActivityIDs()
	if err != nil {
		return err
	}
	acts := make([]*activity.Activity, 0, len(ids))
	for _, id := range ids {
		act, err := e.db.LoadActivity(id)
		if err != nil {
			return fmt.Errorf("loading activity %d: %w", id, err)
		}
		if err := ensureMeanMax(e, act); err != nil {
			return fmt.Errorf("mean-max for activity %d: %w", id, err)
		}
		acts = append(acts, act)
	}

	requested, err := requestedDefs(e, args)
	if err != nil {
		return err
	}

	runner := &engine.Runner{
		Eval: &engine.Evaluator{Cache: e.db, Recompute: recompute},
		Log:  e.log,
	}
	report, err := runner.Run(cmd.Context(), requested, acts)
	if err != nil {
		return err
	}

	e.log.Info("batch finished",
		"activities", report.Activities,
		"aborted", report.Aborted,
		"computed", report.Computed,
		"cached", report.Cached,
		"failed", report.Failed)
	fmt.Printf("%d activities, %d metric values (%d from cache), %d failed, %d activities aborted\n",
		report.Activities, report.Computed, report.Cached, report.Failed, report.Aborted)
	return nil
}

// ensureMeanMax derives and persists the mean-max tables of an activity's
// recorded signals on first sight, then attaches them to the read view.
func ensureMeanMax(e *env, act *activity.Activity) error {
	if act.HasMeanMax() {
		return nil
	}
	for _, signal := range activity.MeanMaxSignals {
		if !act.HasColumn(signal) {
			continue
		}
		points := curve.MeanMax(act.Signal(signal))
		if len(points) == 0 {
			continue
		}
		if err := e.db.SaveMeanMax(act.ID, signal, points); err != nil {
			return err
		}
		act.SetMeanMax(signal, points)
	}
	return nil
}

// requestedDefs resolves the metric names given on the command line, or
// assembles the default set: every static definition plus the curves of the
// standard signals.
func requestedDefs(e *env, names []string) ([]*catalog.Definition, error) {
	if len(names) > 0 {
		defs := make([]*catalog.Definition, 0, len(names))
		for _, name := range names {
			def, fields, err := e.set.Registry.Resolve(name)
			if err != nil {
				return nil, err
			}
			if len(fields) > 0 {
				return nil, fmt.Errorf("%s: field selection is for show, not compute", name)
			}
			defs = append(defs, def)
		}
		return defs, nil
	}

	defs := e.set.Registry.Definitions()
	for _, signal := range activity.MeanMaxSignals {
		def, err := e.set.Registry.Instance("Curve", []catalog.Arg{catalog.StringArg(signal)})
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}
