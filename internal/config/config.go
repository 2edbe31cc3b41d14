// Package config loads the athlete configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrNoConfig is returned when the config file doesn't exist.
var ErrNoConfig = errors.New("config file not found")

// Config represents the application configuration.
type Config struct {
	Athlete Athlete `yaml:"athlete"`
	Load    Load    `yaml:"load"`
	Log     Log     `yaml:"log"`
}

// Athlete holds the externally configured athlete values that threshold and
// power-model metrics depend on.
type Athlete struct {
	FTP              float64 `yaml:"ftp"`               // watts
	ThresholdHR      float64 `yaml:"threshold_hr"`      // bpm, lactate threshold
	CriticalVelocity float64 `yaml:"critical_velocity"` // m/s
	Height           float64 `yaml:"height"`            // meters
	Weight           float64 `yaml:"weight"`            // kilograms
}

// Load holds the training-load chronicle time constants.
type Load struct {
	ShortDays int `yaml:"short_days"`
	LongDays  int `yaml:"long_days"`
}

// Log holds logging preferences.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Athlete: Athlete{
			FTP:              206,
			ThresholdHR:      175,
			CriticalVelocity: 3.35,
			Height:           1.83,
			Weight:           73,
		},
		Load: Load{
			ShortDays: 7,
			LongDays:  42,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the configuration from the given path, or from
// ~/.fitengine/config.yaml when path is empty.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = defaultPath()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills zero values left by a partial config file.
func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()
	if cfg.Athlete.FTP == 0 {
		cfg.Athlete.FTP = defaults.Athlete.FTP
	}
	if cfg.Athlete.ThresholdHR == 0 {
		cfg.Athlete.ThresholdHR = defaults.Athlete.ThresholdHR
	}
	if cfg.Athlete.CriticalVelocity == 0 {
		cfg.Athlete.CriticalVelocity = defaults.Athlete.CriticalVelocity
	}
	if cfg.Athlete.Height == 0 {
		cfg.Athlete.Height = defaults.Athlete.Height
	}
	if cfg.Athlete.Weight == 0 {
		cfg.Athlete.Weight = defaults.Athlete.Weight
	}
	if cfg.Load.ShortDays == 0 {
		cfg.Load.ShortDays = defaults.Load.ShortDays
	}
	if cfg.Load.LongDays == 0 {
		cfg.Load.LongDays = defaults.Load.LongDays
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults.Log.Format
	}
}

// Validate checks the configuration for values the engine cannot work with.
func (c *Config) Validate() error {
	if c.Athlete.FTP <= 0 {
		return fmt.Errorf("athlete.ftp must be positive, got %v", c.Athlete.FTP)
	}
	if c.Athlete.ThresholdHR <= 0 {
		return fmt.Errorf("athlete.threshold_hr must be positive, got %v", c.Athlete.ThresholdHR)
	}
	if c.Athlete.CriticalVelocity <= 0 {
		return fmt.Errorf("athlete.critical_velocity must be positive, got %v", c.Athlete.CriticalVelocity)
	}
	if c.Athlete.Height <= 0 || c.Athlete.Weight <= 0 {
		return errors.New("athlete.height and athlete.weight must be positive")
	}
	if c.Load.ShortDays >= c.Load.LongDays {
		return fmt.Errorf("load.short_days (%d) must be less than load.long_days (%d)", c.Load.ShortDays, c.Load.LongDays)
	}
	return nil
}

// DataDir returns the directory holding the config file and database.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".fitengine"), nil
}

func defaultPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}
