// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rsdxchg

import "fmt"

// PrefKey identifies the preference a requester assigns to one bid on one of
// its requests.
type PrefKey struct {
	Requester int
	Request   int
	Bid       int
}

// ExchangeContext holds everything declared for one resolution period. It is
// built fresh every period, translated once and then dropped. It is not safe
// for concurrent use.
type ExchangeContext[T Resource] struct {
	requests []*RequestPortfolio[T]
	bids     []*BidPortfolio[T]
	prefs    map[PrefKey]float64

	allRequests []*Request[T]
	allBids     []*Bid[T]
	byCommodity map[string][]*Request[T]
}

// NewExchangeContext returns an empty context.
func NewExchangeContext[T Resource]() *ExchangeContext[T] {
	return &ExchangeContext[T]{
		prefs:       make(map[PrefKey]float64),
		byCommodity: make(map[string][]*Request[T]),
	}
}

// AddRequestPortfolio registers a portfolio and numbers its requests.
func (c *ExchangeContext[T]) AddRequestPortfolio(rp *RequestPortfolio[T]) error {
	if rp == nil || len(rp.requests) == 0 {
		return ErrNilPortfolio
	}
	if rp.owned {
		return ErrPortfolioReused
	}
	rp.owned = true
	c.requests = append(c.requests, rp)
	for _, r := range rp.requests {
		r.id = len(c.allRequests)
		c.allRequests = append(c.allRequests, r)
		c.byCommodity[r.commodity] = append(c.byCommodity[r.commodity], r)
	}
	return nil
}

// AddBidPortfolio registers a portfolio, numbers its bids and seeds each
// (request, bid) preference with the bid's preference, which falls back to
// the request's.
func (c *ExchangeContext[T]) AddBidPortfolio(bp *BidPortfolio[T]) error {
	if bp == nil || len(bp.bids) == 0 {
		return ErrNilPortfolio
	}
	if bp.owned {
		return ErrPortfolioReused
	}
	for _, b := range bp.bids {
		if !c.known(b.request) {
			return fmt.Errorf("%w: commodity %q", ErrUnknownRequest, b.request.commodity)
		}
	}
	bp.owned = true
	c.bids = append(c.bids, bp)
	for _, b := range bp.bids {
		b.id = len(c.allBids)
		c.allBids = append(c.allBids, b)
		c.prefs[c.key(b)] = b.Preference()
	}
	return nil
}

func (c *ExchangeContext[T]) known(r *Request[T]) bool {
	return r.id >= 0 && r.id < len(c.allRequests) && c.allRequests[r.id] == r
}

func (c *ExchangeContext[T]) key(b *Bid[T]) PrefKey {
	return PrefKey{Requester: b.request.requester.ID(), Request: b.request.id, Bid: b.id}
}

// RequestPortfolios returns the registered request portfolios in order.
func (c *ExchangeContext[T]) RequestPortfolios() []*RequestPortfolio[T] { return c.requests }

// BidPortfolios returns the registered bid portfolios in order.
func (c *ExchangeContext[T]) BidPortfolios() []*BidPortfolio[T] { return c.bids }

// Requests returns every registered request, indexed by request id.
func (c *ExchangeContext[T]) Requests() []*Request[T] { return c.allRequests }

// Bids returns every registered bid, indexed by bid id.
func (c *ExchangeContext[T]) Bids() []*Bid[T] { return c.allBids }

// RequestsFor returns the requests for a commodity, in registration order.
func (c *ExchangeContext[T]) RequestsFor(commodity string) []*Request[T] {
	return c.byCommodity[commodity]
}

// Pref returns the preference of the bid's requester for the bid.
func (c *ExchangeContext[T]) Pref(b *Bid[T]) (float64, bool) {
	v, ok := c.prefs[c.key(b)]
	return v, ok
}

// SetPref overrides the preference of the bid's requester for the bid.
func (c *ExchangeContext[T]) SetPref(b *Bid[T], pref float64) {
	c.prefs[c.key(b)] = pref
}

// DeletePref forgets a preference. Translating a context with a bid whose
// preference is missing fails.
func (c *ExchangeContext[T]) DeletePref(b *Bid[T]) {
	delete(c.prefs, c.key(b))
}

// BidsFor returns the bids answering requests of the given requester, in bid
// id order. Used by requesters adjusting their preferences.
func (c *ExchangeContext[T]) BidsFor(requester int) []*Bid[T] {
	var out []*Bid[T]
	for _, b := range c.allBids {
		if b.request.requester.ID() == requester {
			out = append(out, b)
		}
	}
	return out
}
