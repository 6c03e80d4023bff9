// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rsdxchg

import (
	"fmt"
	"math"
)

// Bid offers a resource instance against one request.
type Bid[T Resource] struct {
	id         int
	offer      T
	bidder     Trader
	request    *Request[T]
	preference float64 // 0 when the bid leaves it to the request
	exclusive  bool
	portfolio  *BidPortfolio[T]
}

// ID is assigned when the owning portfolio joins an ExchangeContext, -1 before.
func (b *Bid[T]) ID() int { return b.id }

func (b *Bid[T]) Offer() T { return b.offer }

func (b *Bid[T]) Bidder() Trader { return b.bidder }

func (b *Bid[T]) Request() *Request[T] { return b.request }

// Preference is the preference the bid asks for, or the preference of the
// request it answers when it asks for none. It seeds the exchange context's
// preference table.
func (b *Bid[T]) Preference() float64 {
	if b.preference != 0 {
		return b.preference
	}
	return b.request.preference
}

func (b *Bid[T]) Exclusive() bool { return b.exclusive }

func (b *Bid[T]) Portfolio() *BidPortfolio[T] { return b.portfolio }

// BidSpec describes a bid to add to a portfolio.
type BidSpec[T Resource] struct {
	Request    *Request[T]
	Offer      T
	Preference float64 // the request's preference when zero
	Exclusive  bool
}

// BidPortfolio is a bidder's set of bids on one commodity for one period.
type BidPortfolio[T Resource] struct {
	bidder      Trader
	commodity   string
	bids        []*Bid[T]
	constraints constraintSet[T]
	qty         float64
	converter   Converter[T]
	owned       bool
}

// NewBidPortfolio creates an empty portfolio.
func NewBidPortfolio[T Resource]() *BidPortfolio[T] {
	return &BidPortfolio[T]{converter: QuantityConverter[T]{}}
}

// AddBid adds a bid made by bidder.
func (p *BidPortfolio[T]) AddBid(bidder Trader, spec BidSpec[T]) (*Bid[T], error) {
	if bidder == nil {
		return nil, fmt.Errorf("%w: nil bidder", ErrBidderMismatch)
	}
	if spec.Request == nil {
		return nil, fmt.Errorf("%w: nil request", ErrUnknownRequest)
	}
	if p.bidder != nil && p.bidder.ID() != bidder.ID() {
		return nil, fmt.Errorf("%w: %d != %d", ErrBidderMismatch, bidder.ID(), p.bidder.ID())
	}
	if len(p.bids) > 0 && p.commodity != spec.Request.commodity {
		return nil, fmt.Errorf("%w: %q != %q", ErrCommodityMismatch, spec.Request.commodity, p.commodity)
	}
	if q := spec.Offer.Quantity(); !(q > 0) || math.IsInf(q, 0) {
		return nil, fmt.Errorf("%w: offer %v", ErrInvalidQuantity, q)
	}
	if math.IsNaN(spec.Preference) {
		return nil, fmt.Errorf("%w: bid preference", ErrInvalidPreference)
	}

	p.bidder = bidder
	p.commodity = spec.Request.commodity
	b := &Bid[T]{
		id:         -1,
		offer:      spec.Offer,
		bidder:     bidder,
		request:    spec.Request,
		preference: spec.Preference,
		exclusive:  spec.Exclusive,
		portfolio:  p,
	}
	p.bids = append(p.bids, b)
	p.qty += spec.Offer.Quantity()
	return b, nil
}

// AddConstraint adds a capacity constraint. Duplicates are ignored.
func (p *BidPortfolio[T]) AddConstraint(c CapacityConstraint[T]) {
	p.constraints.add(c)
}

func (p *BidPortfolio[T]) Bidder() Trader { return p.bidder }

func (p *BidPortfolio[T]) Commodity() string { return p.commodity }

func (p *BidPortfolio[T]) Bids() []*Bid[T] { return p.bids }

func (p *BidPortfolio[T]) Constraints() []CapacityConstraint[T] { return p.constraints }

// Qty is the total quantity offered.
func (p *BidPortfolio[T]) Qty() float64 { return p.qty }

// SetQtyConverter replaces the converter that measures the portfolio's
// offers against Qty.
func (p *BidPortfolio[T]) SetQtyConverter(c Converter[T]) {
	if c == nil {
		c = QuantityConverter[T]{}
	}
	p.converter = c
}

func (p *BidPortfolio[T]) QtyConverter() Converter[T] { return p.converter }
