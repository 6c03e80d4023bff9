// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-logr/logr"

	"github.com/someonegg/rsdxchg"
	"github.com/someonegg/rsdxchg/locality"
	"github.com/someonegg/rsdxchg/solver"
)

// TradeRecord is an executed trade, by facility name.
type TradeRecord struct {
	Period    int     `json:"period"`
	Requester string  `json:"requester"`
	Bidder    string  `json:"bidder"`
	Commodity string  `json:"commodity"`
	Amount    float64 `json:"amount"`
}

// Report summarises one period.
type Report struct {
	Period    int                `json:"period"`
	Requests  int                `json:"requests"`
	Bids      int                `json:"bids"`
	Arcs      int                `json:"arcs"`
	Requested float64            `json:"requested"`
	Traded    float64            `json:"traded"`
	Commodity map[string]float64 `json:"commodity"` // traded, by commodity
	Trades    []TradeRecord      `json:"trades"`
	Elapsed   time.Duration      `json:"elapsed"`
}

// Observer is told about every completed period.
type Observer interface {
	ObservePeriod(ctx context.Context, r *Report)
}

// Options configure a Driver.
type Options struct {
	Solver      solver.Solver
	Strict      bool
	Concurrency int

	// Scorer, when set, makes requesters rank bids by distance.
	Scorer locality.Scorer
	Policy locality.Policy

	Observer Observer
}

// Driver runs facilities through exchange periods: resolve, execute the
// trades, tick every facility.
type Driver struct {
	registry   *Registry
	facilities []Facility
	names      map[int]string
	exchange   *rsdxchg.Exchange[*Lot]
	observer   Observer
}

// NewDriver checks the facilities against the registry and wires them into
// an exchange. Facilities are ordered by id.
func NewDriver(registry *Registry, facilities []Facility, opts Options) (*Driver, error) {
	d := &Driver{
		registry: registry,
		names:    make(map[int]string),
		observer: opts.Observer,
	}

	fs := append([]Facility(nil), facilities...)
	sort.SliceStable(fs, func(i, j int) bool { return fs[i].ID() < fs[j].ID() })

	ex := &rsdxchg.Exchange[*Lot]{
		Solver:      opts.Solver,
		Strict:      opts.Strict,
		Concurrency: opts.Concurrency,
	}
	if ex.Solver == nil {
		ex.Solver = solver.NewGreedy(solver.Options{})
	}

	for _, f := range fs {
		if _, ok := d.names[f.ID()]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateFacility, f.ID())
		}
		d.names[f.ID()] = f.Name()
		for _, c := range f.Commodities() {
			canon, err := registry.Lookup(c)
			if err != nil {
				return nil, fmt.Errorf("facility %q: %w", f.Name(), err)
			}
			if canon != c {
				return nil, fmt.Errorf("facility %q: %w: %q is an alias of %q", f.Name(), ErrUnknownCommodity, c, canon)
			}
		}
		if r, ok := f.(rsdxchg.Requester[*Lot]); ok {
			ex.Requesters = append(ex.Requesters, r)
		}
		if b, ok := f.(rsdxchg.Bidder[*Lot]); ok {
			ex.Bidders = append(ex.Bidders, b)
		}
		if l, ok := f.(interface {
			UseLocality(locality.Scorer, locality.Policy)
		}); ok && opts.Scorer != nil {
			l.UseLocality(opts.Scorer, opts.Policy)
		}
	}

	d.facilities = fs
	d.exchange = ex
	return d, nil
}

// Facilities returns the facilities in id order.
func (d *Driver) Facilities() []Facility { return d.facilities }

// Step runs one period.
func (d *Driver) Step(ctx context.Context, period int) (*Report, error) {
	logger := logr.FromContextOrDiscard(ctx).WithValues("period", period)
	ctx = logr.NewContext(ctx, logger)
	start := time.Now()

	res, err := d.exchange.Resolve(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("period %d: %w", period, err)
	}
	if err := rsdxchg.ExecuteTrades(ctx, res.Trades); err != nil {
		return nil, fmt.Errorf("period %d: execute trades: %w", period, err)
	}
	for _, f := range d.facilities {
		if err := f.Tick(ctx, period); err != nil {
			return nil, fmt.Errorf("period %d: tick %q: %w", period, f.Name(), err)
		}
	}

	r := &Report{
		Period:    period,
		Requests:  len(res.Context.Requests()),
		Bids:      len(res.Context.Bids()),
		Arcs:      res.Graph.NumArcs(),
		Commodity: make(map[string]float64),
	}
	for _, rp := range res.Context.RequestPortfolios() {
		r.Requested += rp.Qty()
	}
	for _, tr := range res.Trades {
		c := tr.Request.Commodity()
		r.Traded += tr.Amount
		r.Commodity[c] += tr.Amount
		r.Trades = append(r.Trades, TradeRecord{
			Period:    period,
			Requester: d.names[tr.Request.Requester().ID()],
			Bidder:    d.names[tr.Bid.Bidder().ID()],
			Commodity: c,
			Amount:    tr.Amount,
		})
	}
	r.Elapsed = time.Since(start)

	logger.Info("Period done", "requested", r.Requested, "traded", r.Traded, "trades", len(r.Trades))
	if d.observer != nil {
		d.observer.ObservePeriod(ctx, r)
	}
	return r, nil
}

// Run runs periods [0, n). It stops at the first failing period or when ctx
// is done.
func (d *Driver) Run(ctx context.Context, n int) ([]*Report, error) {
	reports := make([]*Report, 0, n)
	for p := 0; p < n; p++ {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		r, err := d.Step(ctx, p)
		if err != nil {
			return reports, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}
