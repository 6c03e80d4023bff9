// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package solver matches exchange graphs.
//
// A Solver returns matches that respect every node ceiling, group capacity,
// unit capacity and exclusivity rule of the graph. Finding nothing feasible
// is a valid outcome: the match set is simply empty.
package solver

import (
	"context"
	"fmt"
	"strings"

	"github.com/someonegg/rsdxchg/graph"
)

type Solver interface {
	Solve(ctx context.Context, g *graph.Graph) ([]graph.Match, error)
}

// Strategy selects a solver implementation.
type Strategy int

const (
	GreedyStrategy Strategy = iota
	LPStrategy
)

func (s Strategy) String() string {
	switch s {
	case GreedyStrategy:
		return "greedy"
	case LPStrategy:
		return "lp"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy parses a strategy name as printed by Strategy.String.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "greedy":
		return GreedyStrategy, nil
	case "lp", "simplex":
		return LPStrategy, nil
	}
	return 0, fmt.Errorf("unsupported solver strategy: %q", name)
}

// Options tune the solvers. The zero value is usable.
type Options struct {
	// CommodityWeights scale request group ordering (greedy) and arc
	// objective weights (lp) per commodity. Missing commodities weigh 1.
	CommodityWeights map[string]float64

	// Tolerance is the quantity below which a flow counts as zero.
	Tolerance float64
}

func (o Options) tol() float64 {
	if o.Tolerance > 0 {
		return o.Tolerance
	}
	return graph.DefaultTolerance
}

func (o Options) weight(commodity string) float64 {
	if w, ok := o.CommodityWeights[commodity]; ok {
		return w
	}
	return 1
}

// New is a factory that creates a solver for a strategy.
func New(strategy Strategy, opts Options) (Solver, error) {
	switch strategy {
	case GreedyStrategy:
		return NewGreedy(opts), nil
	case LPStrategy:
		return NewLP(opts), nil
	default:
		return nil, fmt.Errorf("unsupported solver strategy: %v", strategy)
	}
}
