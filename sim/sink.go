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

// Sink consumes commodities. With more than one commodity, they are
// alternatives: the sink asks for its demand in any of them.
type Sink struct {
	Base

	commodities []string
	prefs       map[string]float64
	demand      float64
	capacity    float64
	exclusive   bool

	received float64
}

// SinkConfig configures a Sink. Capacity bounds what the sink ever holds,
// 0 means no bound. Prefs are per commodity preferences, 1 by default.
type SinkConfig struct {
	Commodities []string
	Prefs       map[string]float64
	Demand      float64
	Capacity    float64
	Exclusive   bool
}

func NewSink(id int, name string, loc locality.Location, cfg SinkConfig) (*Sink, error) {
	if len(cfg.Commodities) == 0 || !(cfg.Demand >= 0) || math.IsInf(cfg.Demand, 0) || cfg.Capacity < 0 {
		return nil, fmt.Errorf("%w: sink %q", ErrInvalidFacility, name)
	}
	for c, p := range cfg.Prefs {
		if !(p > 0) {
			return nil, fmt.Errorf("%w: sink %q preference %v for %q", ErrInvalidFacility, name, p, c)
		}
	}
	return &Sink{
		Base:        NewBase(id, name, loc),
		commodities: append([]string(nil), cfg.Commodities...),
		prefs:       cfg.Prefs,
		demand:      cfg.Demand,
		capacity:    cfg.Capacity,
		exclusive:   cfg.Exclusive,
	}, nil
}

func (s *Sink) Commodities() []string { return s.commodities }

// Received returns the total received so far.
func (s *Sink) Received() float64 { return s.received }

func (s *Sink) want() float64 {
	w := s.demand
	if s.capacity > 0 {
		w = math.Min(w, s.capacity-s.received)
	}
	return w
}

// Requests implements rsdxchg.Requester.
func (s *Sink) Requests(_ context.Context, period int) ([]*rsdxchg.RequestPortfolio[*Lot], error) {
	want := s.want()
	if want <= tolerance {
		return nil, nil
	}

	specs := make([]rsdxchg.RequestSpec[*Lot], len(s.commodities))
	for i, c := range s.commodities {
		specs[i] = rsdxchg.RequestSpec[*Lot]{
			Target:     &Lot{Commodity: c, Qty: want, Origin: s.id},
			Commodity:  c,
			Preference: s.prefs[c],
			Exclusive:  s.exclusive,
		}
	}

	rp := rsdxchg.NewRequestPortfolio[*Lot]()
	var err error
	if len(specs) == 1 {
		_, err = rp.AddRequest(s, specs[0])
	} else {
		_, err = rp.AddMutualRequests(s, specs)
	}
	if err != nil {
		return nil, fmt.Errorf("sink %q period %d: %w", s.name, period, err)
	}
	return []*rsdxchg.RequestPortfolio[*Lot]{rp}, nil
}

// Accept implements rsdxchg.Receiver.
func (s *Sink) Accept(_ context.Context, rs []rsdxchg.Response[*Lot]) error {
	for _, r := range rs {
		if !s.takes(r.Resource.Commodity) {
			return fmt.Errorf("%w: sink %q got %q", ErrWrongCommodity, s.name, r.Resource.Commodity)
		}
		s.received += r.Resource.Qty
	}
	return nil
}

func (s *Sink) takes(c string) bool {
	for _, o := range s.commodities {
		if o == c {
			return true
		}
	}
	return false
}

func (s *Sink) Tick(_ context.Context, _ int) error { return nil }
