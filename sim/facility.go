// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/someonegg/rsdxchg"
	"github.com/someonegg/rsdxchg/locality"
)

// Facility is a simulated agent. Facilities take part in the exchange by
// also implementing the rsdxchg requester, bidder, supplier and receiver
// interfaces over *Lot.
type Facility interface {
	rsdxchg.Trader
	Name() string
	Location() locality.Location
	// Commodities lists every commodity the facility trades.
	Commodities() []string
	// Tick ends a period, after its trades were executed.
	Tick(ctx context.Context, period int) error
}

// Located is implemented by traders with a location.
type Located interface {
	Location() locality.Location
}

// Base carries what every facility has: identity, location and the
// locality policy applied to the bids it receives.
type Base struct {
	id   int
	name string
	loc  locality.Location

	scorer locality.Scorer
	policy locality.Policy
}

func NewBase(id int, name string, loc locality.Location) Base {
	return Base{id: id, name: name, loc: loc}
}

func (b *Base) ID() int { return b.id }

func (b *Base) Name() string { return b.name }

func (b *Base) Location() locality.Location { return b.loc }

// UseLocality makes the facility rank the bids it receives by distance.
func (b *Base) UseLocality(scorer locality.Scorer, policy locality.Policy) {
	b.scorer, b.policy = scorer, policy
}

// AdjustPrefs implements rsdxchg.PrefAdjuster.
func (b *Base) AdjustPrefs(ctx context.Context, t *rsdxchg.PrefTable[*Lot]) {
	if b.scorer == nil {
		return
	}
	logger := logr.FromContextOrDiscard(ctx)
	for _, bid := range t.Bids() {
		l, ok := bid.Bidder().(Located)
		if !ok {
			continue
		}
		score, local := b.scorer.Score(b.loc, l.Location())
		pref := b.policy.Preference(t.Pref(bid), score, local)
		t.Set(bid, pref)
		logger.V(4).Info("Adjusted preference",
			"requester", b.id, "bidder", bid.Bidder().ID(), "score", score, "local", local, "pref", pref)
	}
}
