package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ConfigPath is the variable which stores the config path command line parameter
	ConfigPath string

	// ErrInvalidConfig is returned when a configuration value is out of range
	ErrInvalidConfig = errors.New("invalid config")
)

// Config stores the config for the tool
type Config struct {
	// Environment configures the grid world the agent is trained on
	Environment EnvironmentConfig `json:"environment" yaml:"environment"`
	// Trainer holds the learning hyper parameters
	Trainer TrainerConfig `json:"trainer" yaml:"trainer"`
	// Store selects where value tables are persisted
	Store StoreConfig `json:"store" yaml:"store"`
	// Report configures the rolling success output
	Report ReportConfig `json:"report" yaml:"report"`
	// Server configures the optional HTTP server. Disabled when Addr is empty
	Server ServerConfig `json:"server" yaml:"server"`
	// LogConfig configuration for logging
	LogConfig LogConfig `json:"log" yaml:"log"`
}

// EnvironmentConfig stores the FrozenLake parameters
type EnvironmentConfig struct {
	// Map is one of `4x4`, `8x8` or `random`
	Map string `json:"map" yaml:"map"`
	// Slippery enables stochastic transitions
	Slippery bool `json:"slippery" yaml:"slippery"`
	// MaxSteps truncates an episode. 0 picks the default for the map size
	MaxSteps int `json:"max_steps" yaml:"max_steps"`
	// Seed for the transition source. 0 seeds from the clock
	Seed uint64 `json:"seed" yaml:"seed"`
	// RandomMapSize is the side length used when Map is `random`
	RandomMapSize int `json:"random_map_size" yaml:"random_map_size"`
	// RandomMapP is the probability of a frozen tile when Map is `random`
	RandomMapP float64 `json:"random_map_p" yaml:"random_map_p"`
}

// TrainerConfig stores the Q-learning hyper parameters
type TrainerConfig struct {
	LearningRate   float64 `json:"learning_rate" yaml:"learning_rate"`
	DiscountFactor float64 `json:"discount_factor" yaml:"discount_factor"`
	InitialEpsilon float64 `json:"initial_epsilon" yaml:"initial_epsilon"`
	EpsilonDecay   float64 `json:"epsilon_decay" yaml:"epsilon_decay"`
	SuccessReward  float64 `json:"success_reward" yaml:"success_reward"`
	// Window is the number of trailing episodes summed in the report
	Window int `json:"window" yaml:"window"`
	// Seed for the exploration source. 0 seeds from the clock
	Seed uint64 `json:"seed" yaml:"seed"`
	// LogEvery logs progress at debug level every n episodes. 0 disables it
	LogEvery int `json:"log_every" yaml:"log_every"`
}

// StoreConfig stores the persistence backend config
type StoreConfig struct {
	// Backend is one of `file`, `postgres` or `memory`
	Backend string `json:"backend" yaml:"backend"`
	// Dir is the directory of the file backend
	Dir string `json:"dir" yaml:"dir"`
	// DSN is the connection string of the postgres backend
	DSN string `json:"dsn" yaml:"dsn"`
}

// ReportConfig stores the reporting config
type ReportConfig struct {
	// ChartPath is where the HTML chart is written. Empty disables the chart
	ChartPath string `json:"chart_path" yaml:"chart_path"`
	// Progress prints a live progress line on the terminal
	Progress bool `json:"progress" yaml:"progress"`
}

// ServerConfig stores the API server config
type ServerConfig struct {
	// Addr the server listens on
	Addr string `json:"addr" yaml:"addr"`
}

// LogConfig stores the config for logging purpose
type LogConfig struct {
	// Path of the log file
	Path string `json:"path" yaml:"path"`
	// Format to log. `json` or `text`
	Format string `json:"format" yaml:"format"`
	// Level log level, one of panic|fatal|error|warn|warning|info|debug|trace
	Level string `json:"level" yaml:"level"`
}

// DefaultConfig returns the configuration used when no file overrides it.
// The trainer values are tuned for the 8x8 slippery lake.
func DefaultConfig() *Config {
	return &Config{
		Environment: EnvironmentConfig{
			Map:           "8x8",
			Slippery:      true,
			RandomMapSize: 8,
			RandomMapP:    0.8,
		},
		Trainer: TrainerConfig{
			LearningRate:   0.99,
			DiscountFactor: 0.99,
			InitialEpsilon: 0.9,
			EpsilonDecay:   0.00005,
			SuccessReward:  1,
			Window:         100,
			LogEvery:       1000,
		},
		Store: StoreConfig{
			Backend: "file",
			Dir:     ".",
		},
		Report: ReportConfig{
			ChartPath: "charts/rewards.html",
		},
		LogConfig: LogConfig{
			Path:   "",
			Format: "text",
			Level:  "info",
		},
	}
}

// ParseConfig parses config from the specificied file. Files ending in
// .yaml or .yml are decoded as YAML, everything else as JSON. An empty
// path returns the defaults.
func ParseConfig(path string) (*Config, error) {
	c := DefaultConfig()
	if path == "" {
		return c, nil
	}
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(bytes, c)
	default:
		err = json.Unmarshal(bytes, c)
	}
	if err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that all values are within their allowed ranges
func (c *Config) Validate() error {
	t := c.Trainer
	switch {
	case t.LearningRate <= 0 || t.LearningRate > 1:
		return fmt.Errorf("%w: learning_rate must be in (0, 1], got %v", ErrInvalidConfig, t.LearningRate)
	case t.DiscountFactor < 0 || t.DiscountFactor > 1:
		return fmt.Errorf("%w: discount_factor must be in [0, 1], got %v", ErrInvalidConfig, t.DiscountFactor)
	case t.InitialEpsilon < 0 || t.InitialEpsilon > 1:
		return fmt.Errorf("%w: initial_epsilon must be in [0, 1], got %v", ErrInvalidConfig, t.InitialEpsilon)
	case t.EpsilonDecay < 0:
		return fmt.Errorf("%w: epsilon_decay must not be negative, got %v", ErrInvalidConfig, t.EpsilonDecay)
	case t.Window <= 0:
		return fmt.Errorf("%w: window must be positive, got %d", ErrInvalidConfig, t.Window)
	case t.LogEvery < 0:
		return fmt.Errorf("%w: log_every must not be negative, got %d", ErrInvalidConfig, t.LogEvery)
	}

	e := c.Environment
	switch e.Map {
	case "4x4", "8x8":
	case "random":
		if e.RandomMapSize < 2 {
			return fmt.Errorf("%w: random_map_size must be at least 2, got %d", ErrInvalidConfig, e.RandomMapSize)
		}
		if e.RandomMapP <= 0 || e.RandomMapP > 1 {
			return fmt.Errorf("%w: random_map_p must be in (0, 1], got %v", ErrInvalidConfig, e.RandomMapP)
		}
	default:
		return fmt.Errorf("%w: unknown map %q", ErrInvalidConfig, e.Map)
	}
	if e.MaxSteps < 0 {
		return fmt.Errorf("%w: max_steps must not be negative, got %d", ErrInvalidConfig, e.MaxSteps)
	}

	switch c.Store.Backend {
	case "file", "memory":
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("%w: postgres store needs a dsn", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, c.Store.Backend)
	}
	return nil
}
