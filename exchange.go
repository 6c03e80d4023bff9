// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rsdxchg

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/someonegg/rsdxchg/graph"
	"github.com/someonegg/rsdxchg/solver"
)

// Requester declares demand.
type Requester[T Resource] interface {
	Trader
	Requests(ctx context.Context, period int) ([]*RequestPortfolio[T], error)
}

// RequestSource is what bidders see of the period's demand.
type RequestSource[T Resource] interface {
	Requests() []*Request[T]
	RequestsFor(commodity string) []*Request[T]
}

// Bidder declares supply against the period's requests.
type Bidder[T Resource] interface {
	Trader
	Bids(ctx context.Context, period int, requests RequestSource[T]) ([]*BidPortfolio[T], error)
}

// PrefAdjuster is implemented by requesters that rank the bids they got.
type PrefAdjuster[T Resource] interface {
	AdjustPrefs(ctx context.Context, prefs *PrefTable[T])
}

// PrefTable is one requester's view of the preference table.
type PrefTable[T Resource] struct {
	ectx      *ExchangeContext[T]
	requester int
	bids      []*Bid[T]
}

// Bids returns the bids on the requester's requests.
func (t *PrefTable[T]) Bids() []*Bid[T] { return t.bids }

// Pref returns the current preference for a bid.
func (t *PrefTable[T]) Pref(b *Bid[T]) float64 {
	v, _ := t.ectx.Pref(b)
	return v
}

// Set changes the preference for a bid on one of the requester's requests.
// A negative preference removes the bid from the exchange.
func (t *PrefTable[T]) Set(b *Bid[T], pref float64) {
	if b.request.requester.ID() != t.requester {
		return
	}
	t.ectx.SetPref(b, pref)
}

// Resolution is the outcome of one period.
type Resolution[T Resource] struct {
	Period  int
	Context *ExchangeContext[T]
	Graph   *graph.Graph
	Matches []graph.Match
	Trades  []Trade[T]
}

// Exchange runs the resolution of one period over a fixed population of
// traders. Resolve calls must not overlap.
type Exchange[T Resource] struct {
	Requesters []Requester[T]
	Bidders    []Bidder[T]
	Solver     solver.Solver

	// Strict verifies the solver's matches before back translation.
	Strict bool

	// Concurrency bounds how many traders are asked at once, 0 is unbounded.
	Concurrency int
}

// Resolve collects the period's portfolios, translates, solves and
// back-translates them.
func (e *Exchange[T]) Resolve(ctx context.Context, period int) (*Resolution[T], error) {
	logger := logr.FromContextOrDiscard(ctx).WithValues("period", period)
	ctx = logr.NewContext(ctx, logger)

	ectx := NewExchangeContext[T]()

	rps, err := collect(ctx, e.Concurrency, e.Requesters, func(ctx context.Context, r Requester[T]) ([]*RequestPortfolio[T], error) {
		return r.Requests(ctx, period)
	})
	if err != nil {
		return nil, fmt.Errorf("collect requests: %w", err)
	}
	for _, rp := range rps {
		if rp == nil || len(rp.requests) == 0 {
			continue
		}
		if err := ectx.AddRequestPortfolio(rp); err != nil {
			return nil, fmt.Errorf("add request portfolio: %w", err)
		}
	}

	bps, err := collect(ctx, e.Concurrency, e.Bidders, func(ctx context.Context, b Bidder[T]) ([]*BidPortfolio[T], error) {
		return b.Bids(ctx, period, ectx)
	})
	if err != nil {
		return nil, fmt.Errorf("collect bids: %w", err)
	}
	for _, bp := range bps {
		if bp == nil || len(bp.bids) == 0 {
			continue
		}
		if err := ectx.AddBidPortfolio(bp); err != nil {
			return nil, fmt.Errorf("add bid portfolio: %w", err)
		}
	}

	for _, r := range e.Requesters {
		if adj, ok := r.(PrefAdjuster[T]); ok {
			adj.AdjustPrefs(ctx, &PrefTable[T]{ectx: ectx, requester: r.ID(), bids: ectx.BidsFor(r.ID())})
		}
	}

	logger.V(1).Info("Collected portfolios",
		"requestPortfolios", len(ectx.requests), "requests", len(ectx.allRequests),
		"bidPortfolios", len(ectx.bids), "bids", len(ectx.allBids))

	xlator := NewTranslator(ectx)
	g, err := xlator.Translate(ctx)
	if err != nil {
		return nil, err
	}

	matches, err := e.Solver.Solve(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}
	if e.Strict {
		if err := graph.CheckMatches(g, matches, 0); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSolverContract, err)
		}
	}

	trades := xlator.BackTranslate(matches)
	logger.V(1).Info("Resolved exchange", "arcs", g.NumArcs(), "trades", len(trades))

	return &Resolution[T]{
		Period:  period,
		Context: ectx,
		Graph:   g,
		Matches: matches,
		Trades:  trades,
	}, nil
}

// collect asks every trader concurrently and concatenates the answers in
// trader order.
func collect[A any, P any](ctx context.Context, limit int, traders []A, ask func(context.Context, A) ([]P, error)) ([]P, error) {
	results := make([][]P, len(traders))

	eg, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		eg.SetLimit(limit)
	}
	for i, tr := range traders {
		i, tr := i, tr
		eg.Go(func() error {
			ps, err := ask(ctx, tr)
			if err != nil {
				return err
			}
			results[i] = ps
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var out []P
	for _, ps := range results {
		out = append(out, ps...)
	}
	return out, nil
}
