// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "xchg-sim",
		Usage: "Run resource exchange scenarios",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "specify the config file (yaml, json or toml)",
			},
			&cli.IntFlag{
				Name:    "verbosity",
				Aliases: []string{"v"},
				Usage:   "specify the log verbosity",
			},
		},
		Commands: []*cli.Command{
			runCmd,
			checkCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error: ", err)
		os.Exit(1)
	}
}

var scenarioFlag = &cli.StringFlag{
	Name:    "scenario",
	Aliases: []string{"s"},
	Usage:   "specify the input scenario.yaml",
}

var runCmd = &cli.Command{
	Name:    "run",
	Usage:   "Run a scenario for a number of periods",
	Aliases: []string{"r"},
	Flags: []cli.Flag{
		scenarioFlag,
		&cli.IntFlag{
			Name:  "periods",
			Usage: "specify the number of periods",
		},
		&cli.StringFlag{
			Name:  "solver",
			Usage: "specify the solver (greedy, lp)",
		},
		&cli.BoolFlag{
			Name:  "strict",
			Usage: "verify every solution before executing it",
		},
		&cli.BoolFlag{
			Name:  "locality",
			Usage: "rank bids by distance",
		},
		&cli.StringFlag{
			Name:  "trades",
			Usage: "specify the output trades file, - for stdout",
		},
		&cli.StringFlag{
			Name:  "metrics",
			Usage: "specify the output metrics file, - for stdout",
		},
	},
	Action: func(ctx *cli.Context) error {
		cfg, err := loadConfig(ctx, map[string]string{
			"scenario": "scenario",
			"periods":  "periods",
			"solver":   "solver",
			"strict":   "strict",
			"locality": "locality.enabled",
			"trades":   "output.trades",
			"metrics":  "output.metrics",
		})
		if err != nil {
			return err
		}
		return doRun(ctx.Context, cfg, os.Stdout)
	},
}

var checkCmd = &cli.Command{
	Name:  "check",
	Usage: "Check a scenario and the configuration without running",
	Flags: []cli.Flag{
		scenarioFlag,
	},
	Action: func(ctx *cli.Context) error {
		cfg, err := loadConfig(ctx, map[string]string{"scenario": "scenario"})
		if err != nil {
			return err
		}
		return doCheck(cfg, os.Stdout)
	},
}
