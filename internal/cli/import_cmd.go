package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"fitengine/internal/activity"
	"fitengine/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import <file.json>...",
	Short: "Import activities from JSON exports",
	Long: `Import one or more activities from JSON files. Each file holds one
activity: header, sessions and per-second records. Re-importing an id
replaces its records and drops nothing from the metric cache; run compute
with --recompute to refresh derived values.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

// activityFile is the JSON import format.
type activityFile struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	StartTime string  `json:"start_time"`
	TimerTime float64 `json:"timer_time"`
	Sessions  []struct {
		Sport    string `json:"sport"`
		SubSport string `json:"sub_sport"`
	} `json:"sessions"`
	Records []struct {
		Offset  int                `json:"offset"`
		Signals map[string]float64 `json:"signals"`
	} `json:"records"`
}

func runImport(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	for _, path := range args {
		if err := importFile(e, path); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func importFile(e *env, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var file activityFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing: %w", err)
	}
	if file.ID == 0 {
		return fmt.Errorf("activity id missing")
	}
	start, err := time.Parse(time.RFC3339, file.StartTime)
	if err != nil {
		return fmt.Errorf("bad start_time %q: %w", file.StartTime, err)
	}

	sessions := make([]activity.Sport, len(file.Sessions))
	for i, s := range file.Sessions {
		sessions[i] = activity.Sport{Sport: s.Sport, SubSport: s.SubSport}
	}
	samples := make([]activity.Sample, len(file.Records))
	for i, r := range file.Records {
		samples[i] = activity.Sample{Offset: r.Offset, Values: r.Signals}
	}

	if err := e.db.SaveActivity(&store.ActivitySummary{
		ID:        file.ID,
		Name:      file.Name,
		StartTime: start,
		TimerTime: file.TimerTime,
		Sessions:  sessions,
	}); err != nil {
		return err
	}
	if err := e.db.SaveRecords(file.ID, samples); err != nil {
		return err
	}

	e.log.Info("imported activity", "activity", file.ID, "name", file.Name, "records", len(samples))
	fmt.Printf("imported %d (%s), %d records\n", file.ID, file.Name, len(samples))
	return nil
}
