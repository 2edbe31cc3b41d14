package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"fitengine/internal/catalog"
	"fitengine/internal/engine"
	"fitengine/internal/zones"
)

var zonesCmd = &cobra.Command{
	Use:   "zones <activity-id> <signal>",
	Short: "Show time in training zones for one activity",
	Long: `Break one activity's recorded signal down into the configured training
zones.

Examples:
  fitengine zones 42 heartrate
  fitengine zones 42 power`,
	Args: cobra.ExactArgs(2),
	RunE: runZones,
}

func init() {
	rootCmd.AddCommand(zonesCmd)
}

func runZones(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("bad activity id %q", args[0])
	}
	signal := args[1]

	table, ok := zones.TableFor(signal)
	if !ok {
		return fmt.Errorf("no zone scheme for signal %q", signal)
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	act, err := e.db.LoadActivity(id)
	if err != nil {
		return err
	}

	def, err := e.set.Registry.Instance("Zones", []catalog.Arg{catalog.StringArg(signal)})
	if err != nil {
		return err
	}

	runner := &engine.Runner{
		Eval: &engine.Evaluator{Cache: e.db},
		Log:  e.log,
	}
	results, err := runner.EvaluateAll([]*catalog.Definition{def}, act)
	if err != nil {
		return err
	}
	out := results[def]
	if out.Status != engine.Computed || out.Value.IsNil() {
		return fmt.Errorf("no %s zones for activity %d (%s)", signal, id, out.Status)
	}

	hist, ok := out.Value.Structured.(map[string]float64)
	if !ok {
		return fmt.Errorf("unexpected zones value %T", out.Value.Structured)
	}

	fmt.Printf("%s zones, activity %d (%s)\n", signal, id, act.Name)
	for _, label := range table.Labels {
		seconds := hist[label]
		fmt.Printf("  %-3s %8s\n", label, time.Duration(seconds)*time.Second)
	}
	return nil
}
