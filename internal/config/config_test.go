package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadFileDefaultsForMissingFields(t *testing.T) {
	path := writeConfig(t, `
athlete:
  ftp: 250
log:
  level: debug
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if cfg.Athlete.FTP != 250 {
		t.Errorf("ftp = %v, want 250", cfg.Athlete.FTP)
	}
	// Unset fields fall back to defaults.
	if cfg.Athlete.ThresholdHR != 175 {
		t.Errorf("threshold_hr = %v, want default 175", cfg.Athlete.ThresholdHR)
	}
	if cfg.Load.ShortDays != 7 || cfg.Load.LongDays != 42 {
		t.Errorf("load = %+v, want 7/42", cfg.Load)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Errorf("log = %+v, want debug/text", cfg.Log)
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, ErrNoConfig) {
		t.Fatalf("LoadFile error = %v, want ErrNoConfig", err)
	}
}

func TestLoadFileRejectsBadYAML(t *testing.T) {
	path := writeConfig(t, "athlete: [not a map")
	if _, err := LoadFile(path); err == nil {
		t.Fatal("bad YAML accepted")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "defaults", mutate: func(*Config) {}, ok: true},
		{name: "negative ftp", mutate: func(c *Config) { c.Athlete.FTP = -1 }},
		{name: "zero threshold hr", mutate: func(c *Config) { c.Athlete.ThresholdHR = 0 }},
		{name: "zero critical velocity", mutate: func(c *Config) { c.Athlete.CriticalVelocity = 0 }},
		{name: "zero weight", mutate: func(c *Config) { c.Athlete.Weight = 0 }},
		{name: "short window not below long", mutate: func(c *Config) { c.Load.ShortDays = 42 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("Validate accepted invalid config")
			}
		})
	}
}
