// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/someonegg/rsdxchg"
	"github.com/someonegg/rsdxchg/locality"
)

// Converter turns an input commodity into an output commodity, one for one,
// at up to Capacity units per period. It requests enough input to keep its
// stocks at Capacity and offers what it has converted.
type Converter struct {
	Base

	in, out  string
	capacity float64

	stocks    float64 // unconverted input
	inventory float64 // converted output
}

type ConverterConfig struct {
	In       string
	Out      string
	Capacity float64
}

func NewConverter(id int, name string, loc locality.Location, cfg ConverterConfig) (*Converter, error) {
	if cfg.In == "" || cfg.Out == "" || !(cfg.Capacity > 0) || math.IsInf(cfg.Capacity, 0) {
		return nil, fmt.Errorf("%w: converter %q", ErrInvalidFacility, name)
	}
	return &Converter{
		Base:     NewBase(id, name, loc),
		in:       cfg.In,
		out:      cfg.Out,
		capacity: cfg.Capacity,
	}, nil
}

func (c *Converter) Commodities() []string { return []string{c.in, c.out} }

func (c *Converter) Stocks() float64 { return c.stocks }

func (c *Converter) Inventory() float64 { return c.inventory }

// Requests implements rsdxchg.Requester.
func (c *Converter) Requests(_ context.Context, _ int) ([]*rsdxchg.RequestPortfolio[*Lot], error) {
	want := c.capacity - c.stocks
	if want <= tolerance {
		return nil, nil
	}
	rp := rsdxchg.NewRequestPortfolio[*Lot]()
	if _, err := rp.AddRequest(c, rsdxchg.RequestSpec[*Lot]{
		Target:    &Lot{Commodity: c.in, Qty: want, Origin: c.id},
		Commodity: c.in,
	}); err != nil {
		return nil, err
	}
	return []*rsdxchg.RequestPortfolio[*Lot]{rp}, nil
}

// Bids implements rsdxchg.Bidder.
func (c *Converter) Bids(_ context.Context, _ int, src rsdxchg.RequestSource[*Lot]) ([]*rsdxchg.BidPortfolio[*Lot], error) {
	if c.inventory <= tolerance {
		return nil, nil
	}
	bp := rsdxchg.NewBidPortfolio[*Lot]()
	for _, r := range src.RequestsFor(c.out) {
		if r.Requester().ID() == c.id {
			continue
		}
		offer := &Lot{Commodity: c.out, Qty: math.Min(c.inventory, r.Target().Quantity()), Origin: c.id}
		if _, err := bp.AddBid(c, rsdxchg.BidSpec[*Lot]{Request: r, Offer: offer}); err != nil {
			return nil, err
		}
	}
	cc, err := rsdxchg.NewCapacityConstraint[*Lot](c.inventory, nil)
	if err != nil {
		return nil, err
	}
	bp.AddConstraint(cc)
	return []*rsdxchg.BidPortfolio[*Lot]{bp}, nil
}

// Supply implements rsdxchg.Supplier. Only the output commodity is sent.
func (c *Converter) Supply(_ context.Context, trades []rsdxchg.Trade[*Lot]) ([]rsdxchg.Response[*Lot], error) {
	rs := make([]rsdxchg.Response[*Lot], 0, len(trades))
	for _, tr := range trades {
		if tr.Bid.Offer().Commodity != c.out {
			return nil, fmt.Errorf("%w: converter %q only sends %q", ErrWrongCommodity, c.name, c.out)
		}
		if tr.Amount > c.inventory+tolerance {
			return nil, fmt.Errorf("%w: converter %q asked for %v, has %v", ErrInsufficientInventory, c.name, tr.Amount, c.inventory)
		}
		c.inventory = math.Max(0, c.inventory-tr.Amount)
		rs = append(rs, rsdxchg.Response[*Lot]{Trade: tr, Resource: deliver(tr)})
	}
	return rs, nil
}

// Accept implements rsdxchg.Receiver.
func (c *Converter) Accept(_ context.Context, rs []rsdxchg.Response[*Lot]) error {
	for _, r := range rs {
		if r.Resource.Commodity != c.in {
			return fmt.Errorf("%w: converter %q got %q", ErrWrongCommodity, c.name, r.Resource.Commodity)
		}
		c.stocks += r.Resource.Qty
	}
	return nil
}

// Tick converts stocks into inventory at capacity.
func (c *Converter) Tick(_ context.Context, _ int) error {
	n := math.Min(c.stocks, c.capacity)
	c.stocks -= n
	c.inventory += n
	return nil
}
