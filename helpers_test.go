// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rsdxchg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type widget struct {
	name string
	qty  float64
}

func (w widget) Quantity() float64 { return w.qty }

type agent int

func (a agent) ID() int { return int(a) }

func mustRequest(t testing.TB, rp *RequestPortfolio[widget], by Trader, spec RequestSpec[widget]) *Request[widget] {
	t.Helper()
	r, err := rp.AddRequest(by, spec)
	require.NoError(t, err)
	return r
}

func mustBid(t testing.TB, bp *BidPortfolio[widget], by Trader, spec BidSpec[widget]) *Bid[widget] {
	t.Helper()
	b, err := bp.AddBid(by, spec)
	require.NoError(t, err)
	return b
}

// simpleContext builds one request for qty units of "x" and one bid
// offering offer units against it.
func simpleContext(t testing.TB, qty, offer, pref float64, exclusive bool) (*ExchangeContext[widget], *Request[widget], *Bid[widget]) {
	t.Helper()
	ectx := NewExchangeContext[widget]()

	rp := NewRequestPortfolio[widget]()
	r := mustRequest(t, rp, agent(1), RequestSpec[widget]{
		Target:     widget{"x", qty},
		Commodity:  "x",
		Preference: pref,
	})
	require.NoError(t, ectx.AddRequestPortfolio(rp))

	bp := NewBidPortfolio[widget]()
	b := mustBid(t, bp, agent(2), BidSpec[widget]{
		Request:   r,
		Offer:     widget{"x", offer},
		Exclusive: exclusive,
	})
	require.NoError(t, ectx.AddBidPortfolio(bp))
	return ectx, r, b
}
