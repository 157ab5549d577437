// Package config handles experiment configuration loading.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mpraski/coins"
)

// Config is the root configuration structure.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	EM      EMConfig      `yaml:"em"`
	Restart RestartConfig `yaml:"restart"`
}

// ThetaConfig is a pair of coin biases.
type ThetaConfig struct {
	A float64 `yaml:"a"`
	B float64 `yaml:"b"`
}

func (t ThetaConfig) Theta() coins.Theta {
	return coins.Theta{A: t.A, B: t.B}
}

// DataConfig describes the simulated experiments.
type DataConfig struct {
	Truth       ThetaConfig `yaml:"truth"`
	Experiments int         `yaml:"experiments"`
	Tosses      int         `yaml:"tosses"`
	Seed        int64       `yaml:"seed"`
}

// EMConfig holds the engine settings for the single fit.
type EMConfig struct {
	Initial       ThetaConfig  `yaml:"initial"`
	Epsilon       float64      `yaml:"epsilon"`
	MaxIterations int          `yaml:"max_iterations"`
	Prior         *coins.Prior `yaml:"prior,omitempty"`
}

// RestartConfig holds the multi-restart settings.
type RestartConfig struct {
	Count   int   `yaml:"count"`
	Workers int   `yaml:"workers"` // 0 means GOMAXPROCS
	Seed    int64 `yaml:"seed"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Truth:       ThetaConfig{A: 0.8, B: 0.45},
			Experiments: 5,
			Tosses:      10,
			Seed:        1,
		},
		EM: EMConfig{
			Initial:       ThetaConfig{A: 0.6, B: 0.5},
			Epsilon:       coins.DefaultEpsilon,
			MaxIterations: coins.DefaultMaxIterations,
		},
		Restart: RestartConfig{
			Count: 20,
			Seed:  2,
		},
	}
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadOrDefault loads config from path, or returns default if not found.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	return Load(path)
}

// Save saves configuration to a file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks the settings the core would otherwise reject mid-run.
func (c *Config) Validate() error {
	if err := c.Data.Truth.Theta().Validate(); err != nil {
		return fmt.Errorf("data.truth: %w", err)
	}
	if c.Data.Experiments < 1 {
		return fmt.Errorf("data.experiments: %w", coins.ErrEmptySet)
	}
	if c.Data.Tosses < 1 {
		return fmt.Errorf("data.tosses: %w", coins.ErrInvalidTosses)
	}
	if err := c.EM.Initial.Theta().Validate(); err != nil {
		return fmt.Errorf("em.initial: %w", err)
	}
	if !(c.EM.Epsilon > 0) {
		return fmt.Errorf("em.epsilon: %w", coins.ErrZeroEpsilon)
	}
	if c.EM.MaxIterations < 1 {
		return fmt.Errorf("em.max_iterations: %w", coins.ErrZeroIterations)
	}
	if err := c.EM.Prior.Validate(); err != nil {
		return fmt.Errorf("em.prior: %w", err)
	}
	if c.Restart.Count < 1 {
		return fmt.Errorf("restart.count: %w", coins.ErrZeroRestarts)
	}
	return nil
}

// Engine builds the EM engine described by the configuration.
func (c *Config) Engine() (*coins.Engine, error) {
	e, err := coins.NewEngine(c.EM.MaxIterations, c.EM.Epsilon)
	if err != nil {
		return nil, err
	}

	return e.WithPrior(c.EM.Prior), nil
}
