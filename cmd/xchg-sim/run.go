// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/someonegg/rsdxchg/internal/config"
	"github.com/someonegg/rsdxchg/internal/metrics"
	"github.com/someonegg/rsdxchg/internal/scenario"
	"github.com/someonegg/rsdxchg/sim"
)

// loadConfig loads the configuration, letting the flags that were set
// override the keys they map to.
func loadConfig(ctx *cli.Context, flags map[string]string) (*config.Config, error) {
	overrides := make(map[string]any)
	for flag, key := range flags {
		if ctx.IsSet(flag) {
			overrides[key] = ctx.Value(flag)
		}
	}
	if ctx.IsSet("verbosity") {
		overrides["log.verbosity"] = ctx.Int("verbosity")
	}
	cfg, err := config.Load(ctx.String("config"), overrides)
	if err != nil {
		return nil, err
	}
	if cfg.Scenario == "" {
		return nil, errors.New("no scenario given")
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) logr.Logger {
	stdr.SetVerbosity(cfg.Log.Verbosity)
	return stdr.New(log.New(os.Stderr, "", log.LstdFlags)).WithName("xchg-sim")
}

// setup builds the driver of the configured scenario.
func setup(cfg *config.Config, observer sim.Observer) (*sim.Driver, error) {
	sc, err := scenario.Load(cfg.Scenario)
	if err != nil {
		return nil, fmt.Errorf("load scenario failed: %w", err)
	}
	world, err := sc.Build()
	if err != nil {
		return nil, fmt.Errorf("build scenario failed: %w", err)
	}

	opts, err := cfg.SolverOptions(world.Registry.Lookup)
	if err != nil {
		return nil, err
	}
	s, err := cfg.NewSolver(opts)
	if err != nil {
		return nil, err
	}

	dopts := sim.Options{
		Solver:      s,
		Strict:      cfg.Strict,
		Concurrency: cfg.Concurrency,
		Observer:    observer,
	}
	if policy, ok := cfg.Policy(); ok {
		if world.Scorer == nil {
			return nil, errors.New("locality is enabled but the scenario has no geography")
		}
		dopts.Scorer, dopts.Policy = world.Scorer, policy
	}
	return sim.NewDriver(world.Registry, world.Facilities, dopts)
}

func doRun(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	logger := newLogger(cfg)
	ctx = logr.NewContext(ctx, logger)

	reg := prometheus.NewRegistry()
	collector, err := metrics.New(reg)
	if err != nil {
		return err
	}

	d, err := setup(cfg, collector)
	if err != nil {
		return err
	}
	logger.Info("Running scenario", "scenario", cfg.Scenario, "periods", cfg.Periods,
		"facilities", len(d.Facilities()), "solver", cfg.Solver)

	reports, runErr := d.Run(ctx, cfg.Periods)

	if err := writeOutput(cfg.Output.Trades, stdout, func(w io.Writer) error {
		return writeTrades(w, reports)
	}); err != nil {
		return fmt.Errorf("write trades failed: %w", err)
	}
	if err := writeOutput(cfg.Output.Metrics, stdout, func(w io.Writer) error {
		return metrics.WriteText(w, reg)
	}); err != nil {
		return fmt.Errorf("write metrics failed: %w", err)
	}

	if runErr != nil {
		return runErr
	}

	var requested, traded float64
	for _, r := range reports {
		requested += r.Requested
		traded += r.Traded
	}
	logger.Info("Scenario done", "periods", len(reports), "requested", requested, "traded", traded)
	return nil
}

func doCheck(cfg *config.Config, stdout io.Writer) error {
	logger := newLogger(cfg)

	d, err := setup(cfg, nil)
	if err != nil {
		return err
	}
	for _, f := range d.Facilities() {
		fmt.Fprintf(stdout, "%d\t%s\t%v\t%v\n", f.ID(), f.Name(), f.Location(), f.Commodities())
	}
	logger.V(1).Info("Scenario is valid", "scenario", cfg.Scenario)
	return nil
}

func writeOutput(path string, stdout io.Writer, write func(io.Writer) error) error {
	switch path {
	case "":
		return nil
	case "-":
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeTrades(w io.Writer, reports []*sim.Report) error {
	enc := json.NewEncoder(w)
	for _, r := range reports {
		for _, tr := range r.Trades {
			if err := enc.Encode(tr); err != nil {
				return err
			}
		}
	}
	return nil
}
