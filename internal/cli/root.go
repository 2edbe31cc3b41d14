// Package cli implements the fitengine command line interface.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"fitengine/internal/config"
	"fitengine/internal/logger"
	"fitengine/internal/metrics"
	"fitengine/internal/store"
)

var (
	// Global flags
	cfgFile  string
	dbPath   string
	logLevel string

	// Version info (set from main)
	Version = "0.1.0"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "fitengine",
	Short: "Fitness metric computation over recorded activities",
	Long: `Fitengine evaluates a dependency graph of fitness metrics over recorded
activities: training stress, power-duration curves, training zones and the
performance management chronicle, cached in a local SQLite database.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// SetVersion sets the version for the CLI
func SetVersion(v string) {
	Version = v
	rootCmd.Version = v
}

// env bundles everything a command needs: configuration, logging, the
// database and the metric set built against the configured athlete.
type env struct {
	cfg *config.Config
	log *slog.Logger
	db  *store.Store
	set *metrics.Set
}

func openEnv() (*env, error) {
	cfg, err := config.LoadFile(cfgFile)
	if errors.Is(err, config.ErrNoConfig) {
		defaults := config.DefaultConfig()
		cfg = &defaults
		err = nil
	}
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	log := logger.New(level, cfg.Log.Format)

	path := dbPath
	if path == "" {
		dir, err := config.DataDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "data.db")
	}
	db, err := store.Open(path)
	if err != nil {
		return nil, err
	}

	return &env{
		cfg: cfg,
		log: log,
		db:  db,
		set: metrics.New(cfg.Athlete),
	}, nil
}

func (e *env) Close() error {
	return e.db.Close()
}
