package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Engine.Unit != "kg" {
		t.Errorf("Engine.Unit = %q, want %q", cfg.Engine.Unit, "kg")
	}
	if cfg.Engine.BaseIncrement != 2.5 {
		t.Errorf("Engine.BaseIncrement = %v, want 2.5", cfg.Engine.BaseIncrement)
	}
	if cfg.Engine.OneRepMaxModel != "epley" {
		t.Errorf("Engine.OneRepMaxModel = %q, want %q", cfg.Engine.OneRepMaxModel, "epley")
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("Storage.Driver = %q, want %q", cfg.Storage.Driver, "sqlite")
	}
	if cfg.Adaptive.FatigueThreshold != 70 {
		t.Errorf("Adaptive.FatigueThreshold = %v, want 70", cfg.Adaptive.FatigueThreshold)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v, want nil", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
		errContains string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:        "unknown driver",
			mutate:      func(c *Config) { c.Storage.Driver = "mysql" },
			expectError: true,
			errContains: "storage.driver",
		},
		{
			name:        "postgres without dsn",
			mutate:      func(c *Config) { c.Storage.Driver = "postgres" },
			expectError: true,
			errContains: "storage.dsn",
		},
		{
			name: "postgres with dsn",
			mutate: func(c *Config) {
				c.Storage.Driver = "postgres"
				c.Storage.DSN = "postgres://localhost/periodizer?sslmode=disable"
			},
		},
		{
			name:        "bad unit",
			mutate:      func(c *Config) { c.Engine.Unit = "stone" },
			expectError: true,
			errContains: "engine.unit",
		},
		{
			name:        "bad model",
			mutate:      func(c *Config) { c.Engine.OneRepMaxModel = "wathan" },
			expectError: true,
			errContains: "one_rep_max_model",
		},
		{
			name:        "bad experience level",
			mutate:      func(c *Config) { c.Engine.ExperienceLevel = "elite" },
			expectError: true,
			errContains: "experience_level",
		},
		{
			name:        "fatigue threshold out of range",
			mutate:      func(c *Config) { c.Adaptive.FatigueThreshold = 120 },
			expectError: true,
			errContains: "fatigue_threshold",
		},
		{
			name:        "bad cron spec",
			mutate:      func(c *Config) { c.Scheduler.Spec = "every night" },
			expectError: true,
			errContains: "scheduler.spec",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.expectError {
				if err == nil {
					t.Error("expected error, got nil")
				} else if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error %q should contain %q", err.Error(), tt.errContains)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadFromAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"engine":{"unit":"lb","base_increment":5}}`), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Engine.Unit != "lb" {
		t.Errorf("Engine.Unit = %q, want lb", cfg.Engine.Unit)
	}
	if cfg.Engine.BaseIncrement != 5 {
		t.Errorf("Engine.BaseIncrement = %v, want 5", cfg.Engine.BaseIncrement)
	}
	if cfg.Engine.OneRepMaxModel != "epley" {
		t.Errorf("Engine.OneRepMaxModel = %q, want epley default", cfg.Engine.OneRepMaxModel)
	}
	if cfg.Scheduler.Concurrency != 4 {
		t.Errorf("Scheduler.Concurrency = %d, want 4", cfg.Scheduler.Concurrency)
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	if err != ErrNoConfig {
		t.Errorf("LoadFrom(missing) error = %v, want ErrNoConfig", err)
	}
}

func TestLoadFromInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{not json`), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom(invalid) expected error, got nil")
	}
}
