// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"math"

	"github.com/someonegg/rsdxchg/graph"
)

// state tracks what is left of every node, group demand and group capacity
// while matches are committed one arc at a time.
type state struct {
	g   *graph.Graph
	tol float64

	nodeRest   []float64
	demandRest []float64   // by request group index
	reqCaps    [][]float64 // by request group index
	supCaps    [][]float64 // by supply group index
	blocked    []bool      // by node, set when an exclusive set mate matched
	exclSets   map[graph.NodeID][][]graph.NodeID
}

func newState(g *graph.Graph, tol float64) *state {
	s := &state{
		g:          g,
		tol:        tol,
		nodeRest:   make([]float64, g.NumNodes()),
		demandRest: make([]float64, len(g.RequestGroups())),
		reqCaps:    make([][]float64, len(g.RequestGroups())),
		supCaps:    make([][]float64, len(g.SupplyGroups())),
		blocked:    make([]bool, g.NumNodes()),
		exclSets:   make(map[graph.NodeID][][]graph.NodeID),
	}
	for i := range s.nodeRest {
		s.nodeRest[i] = g.Node(graph.NodeID(i)).Qty
	}
	index := func(ng *graph.NodeGroup) {
		for _, set := range ng.ExclSets {
			for _, id := range set {
				s.exclSets[id] = append(s.exclSets[id], set)
			}
		}
	}
	for i, rg := range g.RequestGroups() {
		s.demandRest[i] = rg.Qty
		s.reqCaps[i] = append([]float64(nil), rg.Capacities...)
		index(&rg.NodeGroup)
	}
	for i, sg := range g.SupplyGroups() {
		s.supCaps[i] = append([]float64(nil), sg.Capacities...)
		index(sg)
	}
	return s
}

func (s *state) groupRest(id graph.NodeID) []float64 {
	n := s.g.Node(id)
	if n.IsRequest() {
		return s.reqCaps[n.Group().Index()]
	}
	return s.supCaps[n.Group().Index()]
}

func (s *state) groupLimit(id graph.NodeID, arc graph.ArcID) float64 {
	limit := math.Inf(1)
	rest := s.groupRest(id)
	for i, unit := range s.g.UnitCapacities(id, arc) {
		if unit > 0 {
			limit = math.Min(limit, rest[i]/unit)
		}
	}
	return limit
}

// capacity returns the largest quantity the arc can still carry.
func (s *state) capacity(arc graph.ArcID) float64 {
	a := s.g.Arc(arc)
	if s.blocked[a.U] || s.blocked[a.V] {
		return 0
	}
	c := math.Min(s.nodeRest[a.U], s.nodeRest[a.V])
	c = math.Min(c, s.demandRest[s.g.Node(a.U).Group().Index()])
	c = math.Min(c, s.groupLimit(a.U, arc))
	c = math.Min(c, s.groupLimit(a.V, arc))
	return math.Max(c, 0)
}

// fit returns the quantity the arc would carry if committed now, honouring
// the all-or-nothing rule of exclusive arcs.
func (s *state) fit(arc graph.ArcID) float64 {
	c := s.capacity(arc)
	if !s.g.Exclusive(arc) {
		if c <= s.tol {
			return 0
		}
		return c
	}
	a := s.g.Arc(arc)
	ev := s.g.ExclusiveValue(arc)
	if ev <= s.tol || c < ev-s.tol {
		return 0
	}
	// an exclusive node is matched once and in full
	if n := s.g.Node(a.U); n.Exclusive && s.nodeRest[a.U] < n.Qty-s.tol {
		return 0
	}
	if n := s.g.Node(a.V); n.Exclusive && s.nodeRest[a.V] < n.Qty-s.tol {
		return 0
	}
	return ev
}

func (s *state) commit(arc graph.ArcID, qty float64) {
	a := s.g.Arc(arc)
	s.nodeRest[a.U] -= qty
	s.nodeRest[a.V] -= qty
	s.demandRest[s.g.Node(a.U).Group().Index()] -= qty
	for _, id := range []graph.NodeID{a.U, a.V} {
		rest := s.groupRest(id)
		for i, unit := range s.g.UnitCapacities(id, arc) {
			rest[i] -= unit * qty
		}
		for _, set := range s.exclSets[id] {
			for _, mate := range set {
				if mate != id {
					s.blocked[mate] = true
				}
			}
		}
	}
}
