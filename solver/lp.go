// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-logr/logr"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/someonegg/rsdxchg/graph"
)

// LP maximises the preference weighted flow of the linear relaxation with
// the simplex method, then commits the relaxed flows arc by arc, largest
// first, through the same bookkeeping the greedy solver uses. Exclusive arcs
// are committed whole or not at all, and a final pass in preference order
// fills whatever capacity the rounding left.
type LP struct {
	opts Options
}

func NewLP(opts Options) *LP {
	return &LP{opts: opts}
}

// program is the relaxation in standard form: minimise c·z, A z = b, z >= 0,
// with z = [arc flows, slacks].
type program struct {
	c    []float64
	a    *mat.Dense
	b    []float64
	arcs int
}

func (s *LP) build(g *graph.Graph) *program {
	var rows [][]float64
	var rhs []float64
	n := g.NumArcs()

	row := func() []float64 {
		r := make([]float64, n)
		rows = append(rows, r)
		return r
	}

	for id := 0; id < g.NumNodes(); id++ {
		nid := graph.NodeID(id)
		arcs := g.ArcsOf(nid)
		if len(arcs) == 0 {
			continue
		}
		r := row()
		for _, arc := range arcs {
			r[arc] = 1
		}
		rhs = append(rhs, g.Node(nid).Qty)
	}

	group := func(ng *graph.NodeGroup) {
		for i, capacity := range ng.Capacities {
			r := make([]float64, n)
			nz := false
			for _, id := range ng.Nodes {
				for _, arc := range g.ArcsOf(id) {
					if u := g.UnitCapacities(id, arc)[i]; u != 0 {
						r[arc] += u
						nz = true
					}
				}
			}
			if nz {
				rows = append(rows, r)
				rhs = append(rhs, capacity)
			}
		}
	}
	for _, rg := range g.RequestGroups() {
		r := make([]float64, n)
		nz := false
		for _, id := range rg.Nodes {
			for _, arc := range g.ArcsOf(id) {
				r[arc] = 1
				nz = true
			}
		}
		if nz {
			rows = append(rows, r)
			rhs = append(rhs, rg.Qty)
		}
		group(&rg.NodeGroup)
	}
	for _, sg := range g.SupplyGroups() {
		group(sg)
	}

	m := len(rows)
	a := mat.NewDense(m, n+m, nil)
	for i, r := range rows {
		for j, v := range r {
			if v != 0 {
				a.Set(i, j, v)
			}
		}
		a.Set(i, n+i, 1)
	}
	c := make([]float64, n+m)
	for j := 0; j < n; j++ {
		arc := graph.ArcID(j)
		c[j] = -s.opts.weight(g.Node(g.Arc(arc).U).Commodity) * g.Pref(arc)
	}
	return &program{c: c, a: a, b: rhs, arcs: n}
}

// Solve implements Solver.
func (s *LP) Solve(ctx context.Context, g *graph.Graph) ([]graph.Match, error) {
	logger := logr.FromContextOrDiscard(ctx).WithName("lp")

	if g.NumArcs() == 0 {
		return nil, nil
	}

	p := s.build(g)
	m := len(p.b)
	basic := make([]int, m)
	for i := range basic {
		basic[i] = p.arcs + i
	}

	tol := s.opts.tol()
	obj, x, err := lp.Simplex(p.c, p.a, p.b, tol*1e-3, basic)
	if err != nil {
		// the relaxation is always feasible and bounded; a failure here is
		// numerical, so fall back to committing in preference order only
		logger.Error(fmt.Errorf("lp: simplex: %w", err), "Relaxation failed, using preference order",
			"rows", m, "arcs", p.arcs)
		x = make([]float64, p.arcs+m)
	} else {
		logger.V(2).Info("Solved relaxation", "rows", m, "arcs", p.arcs, "objective", -obj)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	order := make([]graph.ArcID, p.arcs)
	for j := range order {
		order[j] = graph.ArcID(j)
	}
	sort.SliceStable(order, func(i, j int) bool {
		return x[order[i]] > x[order[j]]
	})

	st := newState(g, tol)
	flow := make([]float64, p.arcs)

	for _, arc := range order {
		if x[arc] <= tol {
			break
		}
		qty := st.fit(arc)
		if qty <= 0 {
			continue
		}
		if !g.Exclusive(arc) && qty > x[arc] {
			qty = x[arc]
		}
		st.commit(arc, qty)
		flow[arc] += qty
	}

	// fill
	sort.SliceStable(order, func(i, j int) bool {
		return g.Pref(order[i]) > g.Pref(order[j])
	})
	for _, arc := range order {
		if g.Exclusive(arc) && flow[arc] > 0 {
			continue
		}
		qty := st.fit(arc)
		if qty <= 0 {
			continue
		}
		st.commit(arc, qty)
		flow[arc] += qty
	}

	var matches []graph.Match
	for j, q := range flow {
		if q > tol {
			matches = append(matches, graph.Match{Arc: graph.ArcID(j), Qty: q})
		}
	}
	logger.V(1).Info("Solved exchange graph", "arcs", g.NumArcs(), "matches", len(matches))
	return matches, nil
}
