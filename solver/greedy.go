// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"context"
	"sort"

	"github.com/go-logr/logr"

	"github.com/someonegg/rsdxchg/graph"
)

// Greedy serves request groups one after another, the ones with the highest
// (commodity weighted) mean preference first. Inside a group, arcs are taken
// in preference order, each carrying as much as every constraint still
// allows.
type Greedy struct {
	opts Options
}

func NewGreedy(opts Options) *Greedy {
	return &Greedy{opts: opts}
}

type greedyGroup struct {
	group *graph.RequestGroup
	pref  float64
}

func (s *Greedy) meanPref(g *graph.Graph, rg *graph.RequestGroup) float64 {
	sum, n := 0.0, 0
	for _, id := range rg.Nodes {
		w := s.opts.weight(g.Node(id).Commodity)
		for _, arc := range g.ArcsOf(id) {
			sum += w * g.Pref(arc)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Solve implements Solver.
func (s *Greedy) Solve(ctx context.Context, g *graph.Graph) ([]graph.Match, error) {
	logger := logr.FromContextOrDiscard(ctx).WithName("greedy")

	groups := make([]greedyGroup, len(g.RequestGroups()))
	for i, rg := range g.RequestGroups() {
		groups[i] = greedyGroup{group: rg, pref: s.meanPref(g, rg)}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].pref > groups[j].pref
	})

	st := newState(g, s.opts.tol())
	var matches []graph.Match

	for _, gg := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var arcs []graph.ArcID
		for _, id := range gg.group.Nodes {
			arcs = append(arcs, g.ArcsOf(id)...)
		}
		sort.SliceStable(arcs, func(i, j int) bool {
			return g.Pref(arcs[i]) > g.Pref(arcs[j])
		})
		for _, arc := range arcs {
			qty := st.fit(arc)
			if qty <= 0 {
				continue
			}
			st.commit(arc, qty)
			matches = append(matches, graph.Match{Arc: arc, Qty: qty})
			a := g.Arc(arc)
			logger.V(3).Info("Matched arc",
				"arc", arc, "pref", g.Pref(arc), "qty", qty,
				"requester", g.Node(a.U).AgentID, "bidder", g.Node(a.V).AgentID)
		}
	}

	logger.V(1).Info("Solved exchange graph", "arcs", g.NumArcs(), "matches", len(matches))
	return matches, nil
}
