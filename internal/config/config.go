// Package config loads option-xray settings from an optional file and
// OPTIONXRAY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/contactkeval/option-xray/internal/logger"
	"github.com/contactkeval/option-xray/internal/pricing"
)

// EnvPrefix is prepended to every environment override, e.g.
// OPTIONXRAY_SOLVER_METHOD.
const EnvPrefix = "OPTIONXRAY"

const (
	SolverBrent     = "brent"
	SolverBisection = "bisection"
)

// Config is the root configuration.
type Config struct {
	// Model is the pricing model name passed to the x-ray run.
	Model     string         `mapstructure:"model"`
	Solver    SolverConfig   `mapstructure:"solver"`
	Scenarios ScenarioConfig `mapstructure:"scenarios"`
	Logger    logger.Config  `mapstructure:"logger"`
	Server    ServerConfig   `mapstructure:"server"`
	Massive   MassiveConfig  `mapstructure:"massive"`
	Data      DataConfig     `mapstructure:"data"`
}

// SolverConfig selects and tunes the implied volatility root finder.
type SolverConfig struct {
	// Method: brent or bisection
	Method  string  `mapstructure:"method"`
	VolLow  float64 `mapstructure:"vol_low"`
	VolHigh float64 `mapstructure:"vol_high"`
	Tol     float64 `mapstructure:"tol"`
	MaxIter int     `mapstructure:"max_iter"`
}

// ScenarioConfig controls scenario table evaluation.
type ScenarioConfig struct {
	// Workers > 1 prices rows concurrently.
	Workers int `mapstructure:"workers"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// Mode is the gin mode: debug, release or test.
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// MassiveConfig holds market data credentials.
type MassiveConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// DataConfig points at offline quote sources.
type DataConfig struct {
	// QuotesFile is a CSV of ticker,price rows.
	QuotesFile string `mapstructure:"quotes_file"`
}

func setDefaults(v *viper.Viper) {
	opts := pricing.DefaultSolverOptions()

	v.SetDefault("model", "bs")

	v.SetDefault("solver.method", SolverBrent)
	v.SetDefault("solver.vol_low", opts.VolLow)
	v.SetDefault("solver.vol_high", opts.VolHigh)
	v.SetDefault("solver.tol", opts.Tol)
	v.SetDefault("solver.max_iter", opts.MaxIter)

	v.SetDefault("scenarios.workers", 1)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
	v.SetDefault("logger.output", "stderr")
	v.SetDefault("logger.file_path", "logs/option-xray.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("massive.api_key", "")
	v.SetDefault("data.quotes_file", "")
}

// Load reads configuration from path (YAML, JSON or TOML by extension) when
// path is non-empty, applies defaults and environment overrides, and
// validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Massive.APIKey == "" {
		cfg.Massive.APIKey = os.Getenv("POLYGON_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration Load produces with no file and no
// environment overrides.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// defaults always decode
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Model == "" {
		return errors.New("model must not be empty")
	}
	if err := c.Solver.Validate(); err != nil {
		return fmt.Errorf("solver: %w", err)
	}
	if c.Scenarios.Workers < 0 {
		return fmt.Errorf("scenarios.workers must be >= 0, got %d", c.Scenarios.Workers)
	}
	switch strings.ToLower(c.Logger.Level) {
	case "error", "info", "debug", "trace":
	default:
		return fmt.Errorf("logger.level must be error, info, debug or trace, got %q", c.Logger.Level)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be debug, release or test, got %q", c.Server.Mode)
	}
	return nil
}

// Validate checks the solver method, bracket and stopping criteria.
func (s SolverConfig) Validate() error {
	switch strings.ToLower(s.Method) {
	case SolverBrent, SolverBisection:
	default:
		return fmt.Errorf("unknown method %q", s.Method)
	}
	if s.VolLow <= 0 || s.VolHigh <= s.VolLow {
		return fmt.Errorf("invalid bracket [%g, %g]", s.VolLow, s.VolHigh)
	}
	if s.Tol <= 0 {
		return fmt.Errorf("tol must be > 0, got %g", s.Tol)
	}
	if s.MaxIter <= 0 {
		return fmt.Errorf("max_iter must be > 0, got %d", s.MaxIter)
	}
	return nil
}

// Build returns the solver described by s.
func (s SolverConfig) Build() (*pricing.Solver, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	var finder pricing.RootFinder = pricing.Brent{}
	if strings.ToLower(s.Method) == SolverBisection {
		finder = pricing.Bisection{}
	}
	return pricing.NewSolver(finder, pricing.SolverOptions{
		VolLow:  s.VolLow,
		VolHigh: s.VolHigh,
		Tol:     s.Tol,
		MaxIter: s.MaxIter,
	}), nil
}
