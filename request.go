// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rsdxchg

import (
	"fmt"
	"math"
)

// DefaultPreference is the preference a request assigns to its bids unless
// told otherwise.
const DefaultPreference = 1.0

// Request is one agent's demand for a quantity of a commodity.
type Request[T Resource] struct {
	id         int
	target     T
	requester  Trader
	commodity  string
	preference float64
	exclusive  bool
	portfolio  *RequestPortfolio[T]
}

// ID is assigned when the owning portfolio joins an ExchangeContext, -1 before.
func (r *Request[T]) ID() int { return r.id }

func (r *Request[T]) Target() T { return r.target }

func (r *Request[T]) Requester() Trader { return r.requester }

func (r *Request[T]) Commodity() string { return r.commodity }

func (r *Request[T]) Preference() float64 { return r.preference }

func (r *Request[T]) Exclusive() bool { return r.exclusive }

func (r *Request[T]) Portfolio() *RequestPortfolio[T] { return r.portfolio }

// RequestSpec describes a request to add to a portfolio.
type RequestSpec[T Resource] struct {
	Target     T
	Commodity  string
	Preference float64 // DefaultPreference when zero
	Exclusive  bool
}

// RequestPortfolio is a requester's set of requests for one period. Its
// quantity is the total it wants; requests added together through
// AddMutualRequests are alternatives and count once, on average.
type RequestPortfolio[T Resource] struct {
	requester   Trader
	requests    []*Request[T]
	constraints constraintSet[T]
	qty         float64
	converter   Converter[T]
	aggregated  bool
	owned       bool
}

// NewRequestPortfolio creates an empty portfolio.
func NewRequestPortfolio[T Resource]() *RequestPortfolio[T] {
	return &RequestPortfolio[T]{converter: QuantityConverter[T]{}}
}

// AddRequest adds a request made by requester. Every request of a portfolio
// must come from the same requester.
func (p *RequestPortfolio[T]) AddRequest(requester Trader, spec RequestSpec[T]) (*Request[T], error) {
	r, err := p.newRequest(requester, spec)
	if err != nil {
		return nil, err
	}
	p.requests = append(p.requests, r)
	p.qty += r.target.Quantity()
	return r, nil
}

// AddMutualRequests adds requests of which at most one is expected to be
// satisfied. They raise the portfolio quantity by their mean quantity.
func (p *RequestPortfolio[T]) AddMutualRequests(requester Trader, specs []RequestSpec[T]) ([]*Request[T], error) {
	if len(specs) == 0 {
		return nil, nil
	}
	rs := make([]*Request[T], len(specs))
	sum := 0.0
	for i, spec := range specs {
		r, err := p.newRequest(requester, spec)
		if err != nil {
			return nil, err
		}
		rs[i] = r
		sum += r.target.Quantity()
	}
	p.requests = append(p.requests, rs...)
	p.qty += sum / float64(len(rs))
	return rs, nil
}

func (p *RequestPortfolio[T]) newRequest(requester Trader, spec RequestSpec[T]) (*Request[T], error) {
	if requester == nil {
		return nil, fmt.Errorf("%w: nil requester", ErrRequesterMismatch)
	}
	if p.requester != nil && p.requester.ID() != requester.ID() {
		return nil, fmt.Errorf("%w: %d != %d", ErrRequesterMismatch, requester.ID(), p.requester.ID())
	}
	if q := spec.Target.Quantity(); !(q > 0) || math.IsInf(q, 0) {
		return nil, fmt.Errorf("%w: request target %v", ErrInvalidQuantity, q)
	}
	p.requester = requester
	pref := spec.Preference
	if pref == 0 {
		pref = DefaultPreference
	}
	return &Request[T]{
		id:         -1,
		target:     spec.Target,
		requester:  requester,
		commodity:  spec.Commodity,
		preference: pref,
		exclusive:  spec.Exclusive,
		portfolio:  p,
	}, nil
}

// AddConstraint adds a capacity constraint. Duplicates are ignored.
func (p *RequestPortfolio[T]) AddConstraint(c CapacityConstraint[T]) {
	p.constraints.add(c)
}

// SetQtyConverter replaces the converter used for the portfolio's aggregate
// quantity constraint.
func (p *RequestPortfolio[T]) SetQtyConverter(c Converter[T]) {
	if c == nil {
		c = QuantityConverter[T]{}
	}
	p.converter = c
}

func (p *RequestPortfolio[T]) Requester() Trader { return p.requester }

func (p *RequestPortfolio[T]) Requests() []*Request[T] { return p.requests }

func (p *RequestPortfolio[T]) Constraints() []CapacityConstraint[T] { return p.constraints }

func (p *RequestPortfolio[T]) Qty() float64 { return p.qty }

func (p *RequestPortfolio[T]) QtyConverter() Converter[T] { return p.converter }

// ensureAggregate injects the constraint derived from the portfolio's own
// quantity, once.
func (p *RequestPortfolio[T]) ensureAggregate() {
	if p.aggregated {
		return
	}
	p.aggregated = true
	p.constraints.add(CapacityConstraint[T]{capacity: p.qty, converter: p.converter})
}
