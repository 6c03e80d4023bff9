// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rsdxchg

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/someonegg/rsdxchg/graph"
	"github.com/someonegg/rsdxchg/solver"
)

type fakeRequester struct {
	id        int
	want      float64
	commodity string
	prefs     map[int]float64 // by bidder id
	err       error

	received []Response[widget]
}

func (f *fakeRequester) ID() int { return f.id }

func (f *fakeRequester) Requests(_ context.Context, period int) ([]*RequestPortfolio[widget], error) {
	if f.err != nil {
		return nil, f.err
	}
	rp := NewRequestPortfolio[widget]()
	if f.want == 0 {
		return []*RequestPortfolio[widget]{rp}, nil
	}
	if _, err := rp.AddRequest(f, RequestSpec[widget]{
		Target:    widget{fmt.Sprintf("%s@%d", f.commodity, period), f.want},
		Commodity: f.commodity,
	}); err != nil {
		return nil, err
	}
	return []*RequestPortfolio[widget]{rp}, nil
}

func (f *fakeRequester) AdjustPrefs(_ context.Context, t *PrefTable[widget]) {
	for _, b := range t.Bids() {
		if p, ok := f.prefs[b.Bidder().ID()]; ok {
			t.Set(b, p)
		}
	}
}

func (f *fakeRequester) Accept(_ context.Context, rs []Response[widget]) error {
	f.received = append(f.received, rs...)
	return nil
}

type fakeBidder struct {
	id        int
	stock     float64
	commodity string
	short     bool // answers one response less than asked

	supplied []Trade[widget]
}

func (f *fakeBidder) ID() int { return f.id }

func (f *fakeBidder) Bids(_ context.Context, _ int, src RequestSource[widget]) ([]*BidPortfolio[widget], error) {
	bp := NewBidPortfolio[widget]()
	for _, r := range src.RequestsFor(f.commodity) {
		offer := widget{fmt.Sprintf("%d/%d", f.id, r.ID()), math.Min(f.stock, r.Target().Quantity())}
		if _, err := bp.AddBid(f, BidSpec[widget]{Request: r, Offer: offer}); err != nil {
			return nil, err
		}
	}
	c, err := NewCapacityConstraint[widget](f.stock, nil)
	if err != nil {
		return nil, err
	}
	bp.AddConstraint(c)
	return []*BidPortfolio[widget]{bp}, nil
}

func (f *fakeBidder) Supply(_ context.Context, trades []Trade[widget]) ([]Response[widget], error) {
	f.supplied = append(f.supplied, trades...)
	var rs []Response[widget]
	for _, tr := range trades {
		rs = append(rs, Response[widget]{Trade: tr, Resource: widget{f.commodity, tr.Amount}})
	}
	if f.short {
		rs = rs[:len(rs)-1]
	}
	return rs, nil
}

type solverFunc func(context.Context, *graph.Graph) ([]graph.Match, error)

func (f solverFunc) Solve(ctx context.Context, g *graph.Graph) ([]graph.Match, error) {
	return f(ctx, g)
}

func TestExchange_ResolveAndExecute(t *testing.T) {
	req := &fakeRequester{id: 1, want: 10, commodity: "x", prefs: map[int]float64{3: 5}}
	b2 := &fakeBidder{id: 2, stock: 6, commodity: "x"}
	b3 := &fakeBidder{id: 3, stock: 6, commodity: "x"}

	ex := &Exchange[widget]{
		Requesters:  []Requester[widget]{req},
		Bidders:     []Bidder[widget]{b2, b3},
		Solver:      solver.NewGreedy(solver.Options{}),
		Strict:      true,
		Concurrency: 1,
	}
	res, err := ex.Resolve(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Period)
	require.Len(t, res.Trades, 2)
	assert.Equal(t, 3, res.Trades[0].Bid.Bidder().ID())
	assert.Equal(t, 6.0, res.Trades[0].Amount)
	assert.Equal(t, 2, res.Trades[1].Bid.Bidder().ID())
	assert.Equal(t, 4.0, res.Trades[1].Amount)

	require.NoError(t, ExecuteTrades(context.Background(), res.Trades))
	require.Len(t, b2.supplied, 1)
	require.Len(t, b3.supplied, 1)
	require.Len(t, req.received, 2)
	// suppliers are served in id order
	assert.Equal(t, 4.0, req.received[0].Resource.qty)
	assert.Equal(t, 6.0, req.received[1].Resource.qty)
}

func TestExchange_NegativePreferenceRejectsBidder(t *testing.T) {
	req := &fakeRequester{id: 1, want: 10, commodity: "x", prefs: map[int]float64{2: -1}}
	b2 := &fakeBidder{id: 2, stock: 10, commodity: "x"}
	b3 := &fakeBidder{id: 3, stock: 4, commodity: "x"}

	ex := &Exchange[widget]{
		Requesters: []Requester[widget]{req},
		Bidders:    []Bidder[widget]{b2, b3},
		Solver:     solver.NewLP(solver.Options{}),
	}
	res, err := ex.Resolve(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Graph.NumArcs())
	require.Len(t, res.Trades, 1)
	assert.Equal(t, 3, res.Trades[0].Bid.Bidder().ID())
	assert.InDelta(t, 4, res.Trades[0].Amount, 1e-6)
}

func TestExchange_ZeroPreferenceFailsPeriod(t *testing.T) {
	req := &fakeRequester{id: 1, want: 10, commodity: "x", prefs: map[int]float64{2: 0}}
	ex := &Exchange[widget]{
		Requesters: []Requester[widget]{req},
		Bidders:    []Bidder[widget]{&fakeBidder{id: 2, stock: 10, commodity: "x"}},
		Solver:     solver.NewGreedy(solver.Options{}),
	}
	_, err := ex.Resolve(context.Background(), 0)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.ErrorIs(t, err, ErrZeroPreference)
}

func TestExchange_Errors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("requester", func(t *testing.T) {
		ex := &Exchange[widget]{
			Requesters: []Requester[widget]{&fakeRequester{id: 1, err: boom}},
			Solver:     solver.NewGreedy(solver.Options{}),
		}
		_, err := ex.Resolve(context.Background(), 0)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("solver", func(t *testing.T) {
		ex := &Exchange[widget]{
			Requesters: []Requester[widget]{&fakeRequester{id: 1, want: 1, commodity: "x"}},
			Bidders:    []Bidder[widget]{&fakeBidder{id: 2, stock: 1, commodity: "x"}},
			Solver: solverFunc(func(context.Context, *graph.Graph) ([]graph.Match, error) {
				return nil, boom
			}),
		}
		_, err := ex.Resolve(context.Background(), 0)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("strict", func(t *testing.T) {
		ex := &Exchange[widget]{
			Requesters: []Requester[widget]{&fakeRequester{id: 1, want: 1, commodity: "x"}},
			Bidders:    []Bidder[widget]{&fakeBidder{id: 2, stock: 1, commodity: "x"}},
			Solver: solverFunc(func(context.Context, *graph.Graph) ([]graph.Match, error) {
				return []graph.Match{{Arc: 0, Qty: 2}}, nil
			}),
			Strict: true,
		}
		_, err := ex.Resolve(context.Background(), 0)
		assert.ErrorIs(t, err, ErrSolverContract)
	})
}

func TestExchange_EmptyPortfoliosAreSkipped(t *testing.T) {
	ex := &Exchange[widget]{
		Requesters: []Requester[widget]{&fakeRequester{id: 1, commodity: "x"}},
		Bidders:    []Bidder[widget]{&fakeBidder{id: 2, stock: 1, commodity: "x"}},
		Solver:     solver.NewGreedy(solver.Options{}),
	}
	res, err := ex.Resolve(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.Zero(t, res.Graph.NumNodes())
}

func TestPrefTable_SetOwnBidsOnly(t *testing.T) {
	ectx, _, b := simpleContext(t, 10, 10, 1, false)

	other := &PrefTable[widget]{ectx: ectx, requester: 7}
	other.Set(b, 9)
	assert.Equal(t, 1.0, other.Pref(b))

	own := &PrefTable[widget]{ectx: ectx, requester: 1, bids: ectx.BidsFor(1)}
	own.Set(b, 9)
	assert.Equal(t, 9.0, own.Pref(b))
	assert.Equal(t, []*Bid[widget]{b}, own.Bids())
}

func TestExecuteTrades_Errors(t *testing.T) {
	_, r, b := simpleContext(t, 10, 10, 1, false)
	err := ExecuteTrades(context.Background(), []Trade[widget]{{Request: r, Bid: b, Amount: 1}})
	assert.ErrorIs(t, err, ErrNotSupplier)

	req := &fakeRequester{id: 1, want: 2, commodity: "x"}
	short := &fakeBidder{id: 2, stock: 2, commodity: "x", short: true}
	ex := &Exchange[widget]{
		Requesters: []Requester[widget]{req},
		Bidders:    []Bidder[widget]{short},
		Solver:     solver.NewGreedy(solver.Options{}),
	}
	res, err := ex.Resolve(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)
	assert.ErrorIs(t, ExecuteTrades(context.Background(), res.Trades), ErrResponseMismatch)
	assert.Empty(t, req.received)

	assert.NoError(t, ExecuteTrades[widget](context.Background(), nil))
}
