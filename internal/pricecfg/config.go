// Package pricecfg loads the TOML configuration file consumed by
// cmd/pricecli and the pricing server: the evaluation defaults (interest
// rate, path count, concurrency) and the market calibration table. The TOML
// library and the "config struct + toml tags" shape are grounded on
// internal/tqw's use of github.com/BurntSushi/toml for the teacher's own
// structured-data files, and on server/config.go's Database/DBType
// validate-then-connect pattern.
package pricecfg

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// RunnerType selects which internal/runner variant eval uses.
type RunnerType string

const (
	RunnerSequential RunnerType = "sequential"
	RunnerPool       RunnerType = "pool"
)

// ParseRunnerType parses a string found in config or on the command line.
func ParseRunnerType(s string) (RunnerType, error) {
	switch strings.ToLower(s) {
	case string(RunnerSequential), "":
		return RunnerSequential, nil
	case string(RunnerPool):
		return RunnerPool, nil
	default:
		return "", fmt.Errorf("runner type not one of 'sequential' or 'pool': %q", s)
	}
}

// Config is the top-level shape of a pricing config file.
type Config struct {
	Evaluation Evaluation        `toml:"evaluation"`
	Calibration map[string]float64 `toml:"calibration"`
}

// Evaluation holds the evaluation kwargs that are not supplied per-request:
// the discounting rate, Monte-Carlo path count, and runner selection.
type Evaluation struct {
	InterestRate float64    `toml:"interest_rate"`
	PathCount    int        `toml:"path_count"`
	Runner       RunnerType `toml:"runner"`
	Workers      int        `toml:"workers"`
}

// Load reads and parses the config file at path.
func Load(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that Evaluation carries sane defaults, filling Runner in
// with RunnerSequential when unset.
func (c *Config) Validate() error {
	if c.Evaluation.PathCount <= 0 {
		return fmt.Errorf("evaluation.path_count must be positive, got %d", c.Evaluation.PathCount)
	}
	runner, err := ParseRunnerType(string(c.Evaluation.Runner))
	if err != nil {
		return fmt.Errorf("evaluation.runner: %w", err)
	}
	c.Evaluation.Runner = runner
	if c.Evaluation.Runner == RunnerPool && c.Evaluation.Workers <= 0 {
		c.Evaluation.Workers = 4
	}
	return nil
}
