package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"fitengine/internal/catalog"
	"fitengine/internal/engine"
)

var showCmd = &cobra.Command{
	Use:   "show <activity-id> <metric>...",
	Short: "Show metric values for one activity",
	Long: `Evaluate and print metrics for one activity. A trailing bracket group
selects into a structured value.

Examples:
  fitengine show 42 CogganTSS AverageHR
  fitengine show 42 'Curve["power"][models][omni][cp]'
  fitengine show 42 'TimeInZone["heartrate","Z3"]'`,
	Args: cobra.MinimumNArgs(2),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("bad activity id %q", args[0])
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
	if err := ensureMeanMax(e, act); err != nil {
		return err
	}

	type request struct {
		name   string
		def    *catalog.Definition
		fields []string
	}
	requests := make([]request, 0, len(args)-1)
	defs := make([]*catalog.Definition, 0, len(args)-1)
	for _, name := range args[1:] {
		def, fields, err := e.set.Registry.Resolve(name)
		if err != nil {
			return err
		}
		requests = append(requests, request{name: name, def: def, fields: fields})
		defs = append(defs, def)
	}

	runner := &engine.Runner{
		Eval: &engine.Evaluator{Cache: e.db},
		Log:  e.log,
	}
	results, err := runner.EvaluateAll(defs, act)
	if err != nil {
		return err
	}

	for _, req := range requests {
		out := results[req.def]
		if out.Status != engine.Computed {
			detail := out.Reason
			if out.Err != nil {
				detail = out.Err.Error()
			}
			fmt.Printf("%s: %s (%s)\n", req.name, out.Status, detail)
			continue
		}
		value := out.Value
		if len(req.fields) > 0 {
			value, err = value.Select(req.fields)
			if err != nil {
				return fmt.Errorf("%s: %w", req.name, err)
			}
		}
		fmt.Printf("%s: %s\n", req.name, formatValue(req.def, value))
	}
	return nil
}

func formatValue(def *catalog.Definition, v catalog.Value) string {
	if v.Scalar != nil {
		format := def.Format
		if format == "" {
			format = "%g"
		}
		s := fmt.Sprintf(format, *v.Scalar)
		if def.Unit != "" {
			s += " " + def.Unit
		}
		return s
	}
	if v.Structured != nil {
		data, err := json.MarshalIndent(v.Structured, "", "  ")
		if err != nil {
			return fmt.Sprintf("%v", v.Structured)
		}
		return string(data)
	}
	return "(no value)"
}
