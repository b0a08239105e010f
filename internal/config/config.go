package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/robfig/cron"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `json:"server"`
	Storage   StorageConfig   `json:"storage"`
	Engine    EngineConfig    `json:"engine"`
	Adaptive  AdaptiveConfig  `json:"adaptive"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Log       LogConfig       `json:"log"`
}

// ServerConfig holds the RPC listener settings
type ServerConfig struct {
	Addr string `json:"addr"`
	Mode string `json:"mode"` // gin mode: "debug", "release", "test"
}

// StorageConfig selects the database backend
type StorageConfig struct {
	Driver string `json:"driver"` // "sqlite" or "postgres"
	DSN    string `json:"dsn"`    // empty sqlite DSN means ~/.periodizer/data.db
}

// EngineConfig holds trainee-independent engine settings
type EngineConfig struct {
	Unit            string  `json:"unit"`              // "kg" or "lb"
	BaseIncrement   float64 `json:"base_increment"`    // weight added per progression step
	PlateIncrement  float64 `json:"plate_increment"`   // rounding step for prescribed weights
	OneRepMaxModel  string  `json:"one_rep_max_model"` // "epley", "brzycki", "lander"
	ExperienceLevel string  `json:"experience_level"`  // default for users without a profile
}

// AdaptiveConfig holds the default transition thresholds for new plans
type AdaptiveConfig struct {
	FatigueThreshold   float64 `json:"fatigue_threshold"`
	ProgressThreshold  float64 `json:"progress_threshold"`
	AdherenceThreshold float64 `json:"adherence_threshold"`
}

// SchedulerConfig controls the nightly phase-transition sweep
type SchedulerConfig struct {
	Spec        string `json:"spec"` // robfig/cron 6-field spec
	Concurrency int    `json:"concurrency"`
}

// LogConfig holds logging preferences
type LogConfig struct {
	Mode string `json:"mode"` // "dev" or "prod"
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr: ":8080",
			Mode: "release",
		},
		Storage: StorageConfig{
			Driver: "sqlite",
		},
		Engine: EngineConfig{
			Unit:            "kg",
			BaseIncrement:   2.5,
			PlateIncrement:  2.5,
			OneRepMaxModel:  "epley",
			ExperienceLevel: "intermediate",
		},
		Adaptive: AdaptiveConfig{
			FatigueThreshold:   70,
			ProgressThreshold:  1.0,
			AdherenceThreshold: 70,
		},
		Scheduler: SchedulerConfig{
			Spec:        "0 30 3 * * *",
			Concurrency: 4,
		},
		Log: LogConfig{
			Mode: "dev",
		},
	}
}

// Load reads the configuration from ~/.periodizer/config.json
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the configuration from path
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults fills zero values from DefaultConfig
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Server.Mode == "" {
		c.Server.Mode = defaults.Server.Mode
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = defaults.Storage.Driver
	}
	if c.Engine.Unit == "" {
		c.Engine.Unit = defaults.Engine.Unit
	}
	if c.Engine.BaseIncrement == 0 {
		c.Engine.BaseIncrement = defaults.Engine.BaseIncrement
	}
	if c.Engine.PlateIncrement == 0 {
		c.Engine.PlateIncrement = defaults.Engine.PlateIncrement
	}
	if c.Engine.OneRepMaxModel == "" {
		c.Engine.OneRepMaxModel = defaults.Engine.OneRepMaxModel
	}
	if c.Engine.ExperienceLevel == "" {
		c.Engine.ExperienceLevel = defaults.Engine.ExperienceLevel
	}
	if c.Adaptive.FatigueThreshold == 0 {
		c.Adaptive.FatigueThreshold = defaults.Adaptive.FatigueThreshold
	}
	if c.Adaptive.ProgressThreshold == 0 {
		c.Adaptive.ProgressThreshold = defaults.Adaptive.ProgressThreshold
	}
	if c.Adaptive.AdherenceThreshold == 0 {
		c.Adaptive.AdherenceThreshold = defaults.Adaptive.AdherenceThreshold
	}
	if c.Scheduler.Spec == "" {
		c.Scheduler.Spec = defaults.Scheduler.Spec
	}
	if c.Scheduler.Concurrency == 0 {
		c.Scheduler.Concurrency = defaults.Scheduler.Concurrency
	}
	if c.Log.Mode == "" {
		c.Log.Mode = defaults.Log.Mode
	}
}

// Save writes the configuration to ~/.periodizer/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	return Save(&example)
}

// Validate checks that the config values are usable
func (c *Config) Validate() error {
	if c.Storage.Driver != "sqlite" && c.Storage.Driver != "postgres" {
		return fmt.Errorf("storage.driver must be \"sqlite\" or \"postgres\", got %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "postgres" && c.Storage.DSN == "" {
		return errors.New("storage.dsn is required for the postgres driver")
	}

	if c.Engine.Unit != "kg" && c.Engine.Unit != "lb" {
		return fmt.Errorf("engine.unit must be \"kg\" or \"lb\", got %q", c.Engine.Unit)
	}
	if c.Engine.BaseIncrement < 0 {
		return fmt.Errorf("engine.base_increment must be positive, got %v", c.Engine.BaseIncrement)
	}
	if c.Engine.PlateIncrement < 0 {
		return fmt.Errorf("engine.plate_increment must be positive, got %v", c.Engine.PlateIncrement)
	}
	switch c.Engine.OneRepMaxModel {
	case "", "epley", "brzycki", "lander":
	default:
		return fmt.Errorf("engine.one_rep_max_model must be epley, brzycki or lander, got %q", c.Engine.OneRepMaxModel)
	}
	switch c.Engine.ExperienceLevel {
	case "", "beginner", "intermediate", "advanced", "expert":
	default:
		return fmt.Errorf("engine.experience_level %q is not recognised", c.Engine.ExperienceLevel)
	}

	if c.Adaptive.FatigueThreshold < 0 || c.Adaptive.FatigueThreshold > 100 {
		return fmt.Errorf("adaptive.fatigue_threshold (%v) must be within 0-100", c.Adaptive.FatigueThreshold)
	}
	if c.Adaptive.AdherenceThreshold < 0 || c.Adaptive.AdherenceThreshold > 100 {
		return fmt.Errorf("adaptive.adherence_threshold (%v) must be within 0-100", c.Adaptive.AdherenceThreshold)
	}

	if c.Scheduler.Spec != "" {
		if _, err := cron.Parse(c.Scheduler.Spec); err != nil {
			return fmt.Errorf("scheduler.spec %q: %w", c.Scheduler.Spec, err)
		}
	}
	if c.Scheduler.Concurrency < 0 {
		return fmt.Errorf("scheduler.concurrency must not be negative, got %d", c.Scheduler.Concurrency)
	}

	return nil
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".periodizer"), nil
}
