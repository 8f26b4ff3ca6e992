package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dvirmail/cryptonew-sub003/internal/backtest"
	"github.com/dvirmail/cryptonew-sub003/internal/conviction"
	"github.com/dvirmail/cryptonew-sub003/internal/signals"
)

// Config is the top-level application configuration.
type Config struct {
	Backtest   backtest.Config         `yaml:"backtest"`
	Evaluator  signals.EvaluatorConfig `yaml:"evaluator"`
	Conviction *conviction.Config      `yaml:"conviction"`
	Postgres   PostgresConfig          `yaml:"postgres"`
	Redis      RedisConfig             `yaml:"redis"`
	OutputDir  string                  `yaml:"output_dir"`
}

// PostgresConfig holds strategy-store connection settings.
type PostgresConfig struct {
	DSN     string        `yaml:"dsn"`
	Timeout time.Duration `yaml:"timeout"` // Default: 5s
}

// RedisConfig holds candle-cache connection settings.
type RedisConfig struct {
	Addr     string        `yaml:"addr"` // Default: 127.0.0.1:6379
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // Default: 1h
}

// Default returns the standard configuration used when no file is given.
func Default() *Config {
	return &Config{
		Backtest:   backtest.DefaultConfig(),
		Evaluator:  signals.DefaultEvaluatorConfig(),
		Conviction: conviction.DefaultConfig(),
		Postgres: PostgresConfig{
			Timeout: 5 * time.Second,
		},
		Redis: RedisConfig{
			Addr: "127.0.0.1:6379",
			TTL:  time.Hour,
		},
		OutputDir: "./artifacts/backtest",
	}
}

// Load reads a YAML configuration file over the defaults and validates the
// result.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for internally inconsistent values.
func (c *Config) Validate() error {
	bt := c.Backtest
	if bt.RequiredSignals < 1 {
		return fmt.Errorf("backtest.required_signals must be >= 1, got %d", bt.RequiredSignals)
	}
	if bt.MaxSignals < bt.RequiredSignals {
		return fmt.Errorf("backtest.max_signals (%d) must be >= required_signals (%d)",
			bt.MaxSignals, bt.RequiredSignals)
	}
	if bt.MinCombinedStrength < 0 {
		return fmt.Errorf("backtest.min_combined_strength must be >= 0, got %.1f", bt.MinCombinedStrength)
	}
	if bt.WarmupBars < 0 {
		return fmt.Errorf("backtest.warmup_bars must be >= 0, got %d", bt.WarmupBars)
	}
	if c.Evaluator.RSIOversold >= c.Evaluator.RSIOverbought {
		return fmt.Errorf("evaluator.rsi_oversold (%.1f) must be below rsi_overbought (%.1f)",
			c.Evaluator.RSIOversold, c.Evaluator.RSIOverbought)
	}
	return nil
}
