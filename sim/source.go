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

// Source produces up to Rate units of a commodity every period.
type Source struct {
	Base

	commodity string
	rate      float64
	batch     float64

	supplied float64
	produced float64
}

// SourceConfig configures a Source. With a positive Batch the source offers
// whole lots of Batch units, each to every request but exclusively.
type SourceConfig struct {
	Commodity string
	Rate      float64
	Batch     float64
}

func NewSource(id int, name string, loc locality.Location, cfg SourceConfig) (*Source, error) {
	if !(cfg.Rate >= 0) || math.IsInf(cfg.Rate, 0) || cfg.Batch < 0 || cfg.Batch > cfg.Rate {
		return nil, fmt.Errorf("%w: source %q rate %v batch %v", ErrInvalidFacility, name, cfg.Rate, cfg.Batch)
	}
	return &Source{
		Base:      NewBase(id, name, loc),
		commodity: cfg.Commodity,
		rate:      cfg.Rate,
		batch:     cfg.Batch,
	}, nil
}

func (s *Source) Commodities() []string { return []string{s.commodity} }

// Produced returns the total supplied so far.
func (s *Source) Produced() float64 { return s.produced }

// Bids implements rsdxchg.Bidder.
func (s *Source) Bids(_ context.Context, _ int, src rsdxchg.RequestSource[*Lot]) ([]*rsdxchg.BidPortfolio[*Lot], error) {
	if s.rate <= 0 {
		return nil, nil
	}
	bp := rsdxchg.NewBidPortfolio[*Lot]()

	var lots []*Lot
	if s.batch > 0 {
		for n := int(math.Floor(s.rate/s.batch + tolerance)); n > 0; n-- {
			lots = append(lots, &Lot{Commodity: s.commodity, Qty: s.batch, Origin: s.id})
		}
	}

	for _, r := range src.RequestsFor(s.commodity) {
		if r.Requester().ID() == s.id {
			continue
		}
		if s.batch > 0 {
			for _, lot := range lots {
				if _, err := bp.AddBid(s, rsdxchg.BidSpec[*Lot]{Request: r, Offer: lot, Exclusive: true}); err != nil {
					return nil, err
				}
			}
			continue
		}
		offer := &Lot{Commodity: s.commodity, Qty: math.Min(s.rate, r.Target().Quantity()), Origin: s.id}
		if _, err := bp.AddBid(s, rsdxchg.BidSpec[*Lot]{Request: r, Offer: offer}); err != nil {
			return nil, err
		}
	}

	c, err := rsdxchg.NewCapacityConstraint[*Lot](s.rate, nil)
	if err != nil {
		return nil, err
	}
	bp.AddConstraint(c)
	return []*rsdxchg.BidPortfolio[*Lot]{bp}, nil
}

// Supply implements rsdxchg.Supplier.
func (s *Source) Supply(_ context.Context, trades []rsdxchg.Trade[*Lot]) ([]rsdxchg.Response[*Lot], error) {
	rs := make([]rsdxchg.Response[*Lot], 0, len(trades))
	for _, tr := range trades {
		if s.supplied+tr.Amount > s.rate+tolerance {
			return nil, fmt.Errorf("%w: source %q asked for %v, %v left", ErrInsufficientInventory, s.name, tr.Amount, s.rate-s.supplied)
		}
		s.supplied += tr.Amount
		rs = append(rs, rsdxchg.Response[*Lot]{Trade: tr, Resource: deliver(tr)})
	}
	return rs, nil
}

func (s *Source) Tick(_ context.Context, _ int) error {
	s.produced += s.supplied
	s.supplied = 0
	return nil
}

// deliver returns the offered lot when it is traded whole and a new lot of
// the traded amount otherwise.
func deliver(tr rsdxchg.Trade[*Lot]) *Lot {
	offer := tr.Bid.Offer()
	if math.Abs(offer.Qty-tr.Amount) <= tolerance {
		return offer
	}
	return &Lot{Commodity: offer.Commodity, Qty: tr.Amount, Origin: offer.Origin}
}
