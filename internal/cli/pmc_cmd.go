package cli

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"fitengine/internal/catalog"
	"fitengine/internal/pmc"
)

var pmcCmd = &cobra.Command{
	Use:   "pmc [metric]",
	Short: "Show the performance management chronicle",
	Long: `Roll a stress metric up per day and run the training load model over it:
short-term load (fatigue), long-term load (fitness), their balance (form)
and the ramp rate. Defaults to StressScore.

Examples:
  fitengine pmc
  fitengine pmc CogganTSS`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPMC,
}

func init() {
	rootCmd.AddCommand(pmcCmd)
}

func runPMC(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	def := e.set.StressScore
	if len(args) > 0 {
		resolved, fields, err := e.set.Registry.Resolve(args[0])
		if err != nil {
			return err
		}
		if len(fields) > 0 {
			return fmt.Errorf("%s: field selection does not apply here", args[0])
		}
		def = resolved
	}
	if def.Aggregation != catalog.AggregateSum {
		return fmt.Errorf("%s does not aggregate as a daily stress total", def.Name)
	}

	daily, err := e.db.DailyAggregates(def.Name, def.Aggregation)
	if err != nil {
		return err
	}
	if len(daily) == 0 {
		return fmt.Errorf("no cached %s values; run compute first", def.Name)
	}

	impulses := make([]pmc.Impulse, len(daily))
	for i, d := range daily {
		impulses[i] = pmc.Impulse{Date: d.Date, Value: d.Value}
	}
	points := pmc.Chronicle(impulses, e.cfg.Load.ShortDays, e.cfg.Load.LongDays)

	fitness := make([]float64, len(points))
	for i, pt := range points {
		fitness[i] = pt.LongTerm
	}
	fmt.Printf("%s fitness, %s to %s\n",
		def.Name,
		points[0].Date.Format("2006-01-02"),
		points[len(points)-1].Date.Format("2006-01-02"))
	fmt.Println(asciigraph.Plot(fitness, asciigraph.Height(8), asciigraph.Width(60)))

	last := points[len(points)-1]
	fmt.Printf("fitness %.1f  fatigue %.1f  form %.1f  ramp %.1f\n",
		last.LongTerm, last.ShortTerm, last.Balance, last.RampRate)
	return nil
}
