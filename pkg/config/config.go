// Package config provides configuration loading and management for md-dmri.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/filip-szczepankiewicz/md-dmri/pkg/voxelloop"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Voxel loop execution
	Loop struct {
		voxelloop.Options `yaml:",inline"`

		// NumWorkers is the size of the worker pool; 0 uses every CPU
		NumWorkers int `yaml:"numWorkers"`
	} `yaml:"mio"`

	// Signal model parameters
	Model struct {
		// Name selects the fit function: adc, moments or weighted
		Name string `yaml:"name"`

		// BValues are the diffusion weightings of the signal channels
		BValues []float64 `yaml:"bValues"`
	} `yaml:"model"`

	// Phantom parameters
	Phantom struct {
		Size        int     `yaml:"size"`
		S0          float64 `yaml:"s0"`
		Diffusivity float64 `yaml:"diffusivity"`
	} `yaml:"phantom"`

	// Output parameters
	Output struct {
		// MapsDir is where parameter-map slices are written; empty disables export
		MapsDir string `yaml:"mapsDir"`

		// LogLevel is a logrus level name
		LogLevel string `yaml:"logLevel"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Loop.NoParfor = false
	cfg.Loop.Verbose = false
	cfg.Loop.DoNewParfor = false
	cfg.Loop.NumWorkers = 0

	cfg.Model.Name = "adc"
	cfg.Model.BValues = []float64{0, 0.5, 1, 1.5, 2}

	cfg.Phantom.Size = 32
	cfg.Phantom.S0 = 1000
	cfg.Phantom.Diffusivity = 1

	cfg.Output.MapsDir = ""
	cfg.Output.LogLevel = "info"

	return cfg
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	if c.Loop.NumWorkers < 0 {
		return fmt.Errorf("numWorkers must be non-negative, got %d", c.Loop.NumWorkers)
	}
	if c.Phantom.Size < 1 {
		return fmt.Errorf("phantom size must be positive, got %d", c.Phantom.Size)
	}
	if len(c.Model.BValues) == 0 {
		return fmt.Errorf("at least one b-value is required")
	}
	switch c.Model.Name {
	case "adc", "moments", "weighted":
	default:
		return fmt.Errorf("unknown model %q", c.Model.Name)
	}
	return nil
}

// LoopOptions returns the voxel loop options
func (c *Config) LoopOptions() voxelloop.Options {
	return c.Loop.Options
}

// Pool returns the worker pool described by the configuration
func (c *Config) Pool() voxelloop.Pool {
	if c.Loop.NumWorkers == 0 {
		return voxelloop.CPUPool()
	}
	return voxelloop.FixedPool(c.Loop.NumWorkers)
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
