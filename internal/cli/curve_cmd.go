package cli

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"fitengine/internal/catalog"
	"fitengine/internal/curve"
	"fitengine/internal/engine"
)

var curveCmd = &cobra.Command{
	Use:   "curve <activity-id> <signal>",
	Short: "Plot an activity's mean-max curve and its duration models",
	Long: `Plot the mean-max curve of one signal and print the parameters of every
duration model that could be fit to it.

Examples:
  fitengine curve 42 power
  fitengine curve 42 heartrate`,
	Args: cobra.ExactArgs(2),
	RunE: runCurve,
}

func init() {
	rootCmd.AddCommand(curveCmd)
}

func runCurve(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("bad activity id %q", args[0])
	}
	signal := args[1]

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

	def, err := e.set.Registry.Instance("Curve", []catalog.Arg{catalog.StringArg(signal)})
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
		return fmt.Errorf("no %s curve for activity %d (%s)", signal, id, out.Status)
	}

	yValue, err := out.Value.Select([]string{"y"})
	if err != nil {
		return err
	}
	ys, err := floatValues(yValue)
	if err != nil {
		return err
	}

	fmt.Printf("mean-max %s, activity %d (%s)\n", signal, id, act.Name)
	fmt.Println(asciigraph.Plot(ys, asciigraph.Height(8), asciigraph.Width(60)))

	modelsValue, err := out.Value.Select([]string{"models"})
	if err != nil {
		return err
	}
	printModels(modelsValue)
	return nil
}

// printModels lists every fitted model's parameters, stable across runs.
func printModels(v catalog.Value) {
	models, params := modelParams(v)
	if len(models) == 0 {
		fmt.Println("no duration model could be fit")
		return
	}
	for _, name := range models {
		fmt.Printf("%s:", name)
		p := params[name]
		keys := make([]string, 0, len(p))
		for k := range p {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf(" %s=%.2f", k, p[k])
		}
		fmt.Println()
	}
}

// modelParams flattens the models value, which arrives typed when freshly
// computed and loosely typed after a cache round-trip.
func modelParams(v catalog.Value) ([]string, map[string]map[string]float64) {
	params := make(map[string]map[string]float64)
	switch m := v.Structured.(type) {
	case map[string]map[string]float64:
		params = m
	case map[string]any:
		for name, raw := range m {
			inner, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			p := make(map[string]float64, len(inner))
			for k, rawVal := range inner {
				if f, ok := rawVal.(float64); ok {
					p[k] = f
				}
			}
			params[name] = p
		}
	}

	var names []string
	for _, m := range curve.Models() {
		if _, ok := params[m.Name]; ok {
			names = append(names, m.Name)
		}
	}
	return names, params
}

func floatValues(v catalog.Value) ([]float64, error) {
	switch vs := v.Structured.(type) {
	case []float64:
		return vs, nil
	case []any:
		out := make([]float64, 0, len(vs))
		for _, raw := range vs {
			f, ok := raw.(float64)
			if !ok {
				return nil, fmt.Errorf("want numbers, got %T", raw)
			}
			out = append(out, f)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("want a list, got %T", v.Structured)
	}
}
