// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the run configuration of xchg-sim.
//
// Values come from, by priority: explicit overrides (command-line flags),
// RSDXCHG_* environment variables, the configuration file, defaults. Nested
// keys use "_" in the environment: locality.near_score is
// RSDXCHG_LOCALITY_NEAR_SCORE.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/someonegg/rsdxchg/locality"
	"github.com/someonegg/rsdxchg/solver"
)

const EnvPrefix = "RSDXCHG"

type Config struct {
	// Scenario is the scenario file to run.
	Scenario string `mapstructure:"scenario"`
	Periods  int    `mapstructure:"periods"`

	// Solver is "greedy" or "lp".
	Solver      string  `mapstructure:"solver"`
	Tolerance   float64 `mapstructure:"tolerance"`
	Strict      bool    `mapstructure:"strict"`
	Concurrency int     `mapstructure:"concurrency"`

	// CommodityWeights scale the preferences of a commodity's requests.
	// Keys are matched case-insensitively.
	CommodityWeights map[string]float64 `mapstructure:"commodity_weights"`

	Locality LocalityConfig `mapstructure:"locality"`
	Log      LogConfig      `mapstructure:"log"`
	Output   OutputConfig   `mapstructure:"output"`
}

type LocalityConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	NearScore    float32 `mapstructure:"near_score"`
	RejectScore  float32 `mapstructure:"reject_score"`
	RemoteFactor float64 `mapstructure:"remote_factor"`
}

type LogConfig struct {
	// Verbosity is the logr V level printed.
	Verbosity int `mapstructure:"verbosity"`
}

type OutputConfig struct {
	// Trades is where executed trades are written as JSON lines, "-" for
	// stdout, empty for nowhere.
	Trades string `mapstructure:"trades"`
	// Metrics is where the prometheus metrics are written after the run,
	// "-" for stdout, empty for nowhere.
	Metrics string `mapstructure:"metrics"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scenario", "")
	v.SetDefault("periods", 10)
	v.SetDefault("solver", solver.GreedyStrategy.String())
	v.SetDefault("tolerance", 1e-6)
	v.SetDefault("strict", false)
	v.SetDefault("concurrency", 0)
	v.SetDefault("commodity_weights", map[string]float64{})
	v.SetDefault("locality.enabled", false)
	v.SetDefault("locality.near_score", locality.DefaultPolicy.NearScore)
	v.SetDefault("locality.reject_score", locality.DefaultPolicy.RejectScore)
	v.SetDefault("locality.remote_factor", locality.DefaultPolicy.RemoteFactor)
	v.SetDefault("log.verbosity", 0)
	v.SetDefault("output.trades", "")
	v.SetDefault("output.metrics", "")
}

// Load reads the configuration file at path, if any, then the environment,
// then the overrides, and validates the result.
func Load(path string, overrides map[string]any) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	for k, val := range overrides {
		v.Set(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks for invalid configuration values.
func (c *Config) Validate() error {
	if c.Periods < 0 {
		return fmt.Errorf("periods must be >= 0, got %d", c.Periods)
	}
	if _, err := solver.ParseStrategy(c.Solver); err != nil {
		return err
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("tolerance must be >= 0, got %v", c.Tolerance)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must be >= 0, got %d", c.Concurrency)
	}
	for k, w := range c.CommodityWeights {
		if !(w > 0) {
			return fmt.Errorf("commodity weight of %q must be > 0, got %v", k, w)
		}
	}
	l := c.Locality
	if l.RemoteFactor <= 0 || l.RemoteFactor > 1 {
		return fmt.Errorf("locality.remote_factor must be in (0, 1], got %v", l.RemoteFactor)
	}
	if l.RejectScore != 0 && l.RejectScore <= l.NearScore {
		return fmt.Errorf("locality.reject_score (%v) must be above locality.near_score (%v)", l.RejectScore, l.NearScore)
	}
	if c.Log.Verbosity < 0 {
		return fmt.Errorf("log.verbosity must be >= 0, got %d", c.Log.Verbosity)
	}
	return nil
}

// Policy returns the locality policy, or false when locality is disabled.
func (c *Config) Policy() (locality.Policy, bool) {
	return locality.Policy{
		NearScore:    c.Locality.NearScore,
		RejectScore:  c.Locality.RejectScore,
		RemoteFactor: c.Locality.RemoteFactor,
	}, c.Locality.Enabled
}

// SolverOptions returns the solver options with commodity weight keys mapped
// through canonical, which may be nil.
func (c *Config) SolverOptions(canonical func(string) (string, error)) (solver.Options, error) {
	opts := solver.Options{Tolerance: c.Tolerance}
	if len(c.CommodityWeights) == 0 {
		return opts, nil
	}
	opts.CommodityWeights = make(map[string]float64, len(c.CommodityWeights))
	for k, w := range c.CommodityWeights {
		if canonical != nil {
			canon, err := canonical(k)
			if err != nil {
				return solver.Options{}, fmt.Errorf("commodity weight: %w", err)
			}
			k = canon
		}
		opts.CommodityWeights[k] = w
	}
	return opts, nil
}

// NewSolver builds the configured solver.
func (c *Config) NewSolver(opts solver.Options) (solver.Solver, error) {
	s, err := solver.ParseStrategy(c.Solver)
	if err != nil {
		return nil, err
	}
	return solver.New(s, opts)
}
