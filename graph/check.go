// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

import (
	"errors"
	"fmt"
	"math"
)

// ErrInfeasibleMatch is wrapped by every violation CheckMatches reports.
var ErrInfeasibleMatch = errors.New("graph: infeasible match set")

// DefaultTolerance is the absolute slack allowed when comparing quantities.
const DefaultTolerance = 1e-6

// CheckMatches verifies that a match set satisfies every constraint the graph
// declares: node ceilings, request group demand, aggregate and weighted unit
// capacities, all-or-nothing exclusive nodes and at most one matched node per
// exclusive set. An exclusive node may be served by several arcs as long as
// they add up to its full quantity.
func CheckMatches(g *Graph, matches []Match, tol float64) error {
	if tol <= 0 {
		tol = DefaultTolerance
	}

	nodeQty := make([]float64, len(g.nodes))
	for i, m := range matches {
		if m.Arc < 0 || int(m.Arc) >= len(g.arcs) {
			return fmt.Errorf("%w: match %d references unknown arc %d", ErrInfeasibleMatch, i, m.Arc)
		}
		if m.Qty < 0 || math.IsNaN(m.Qty) || math.IsInf(m.Qty, 0) {
			return fmt.Errorf("%w: match %d has invalid quantity %v", ErrInfeasibleMatch, i, m.Qty)
		}
		a := g.arcs[m.Arc]
		nodeQty[a.U] += m.Qty
		nodeQty[a.V] += m.Qty
	}

	for id := range g.nodes {
		n := &g.nodes[id]
		q := nodeQty[id]
		if q > n.Qty+tol {
			return fmt.Errorf("%w: node %d matched %v over its quantity %v", ErrInfeasibleMatch, id, q, n.Qty)
		}
		if n.Exclusive && q > tol && math.Abs(q-n.Qty) > tol {
			return fmt.Errorf("%w: exclusive node %d partially matched (%v of %v)", ErrInfeasibleMatch, id, q, n.Qty)
		}
	}

	check := func(ng *NodeGroup) error {
		used := make([]float64, len(ng.Capacities))
		for _, id := range ng.Nodes {
			for _, m := range matches {
				a := g.arcs[m.Arc]
				if a.U != id && a.V != id {
					continue
				}
				caps := g.nodes[id].unitCaps[m.Arc]
				for i := range used {
					used[i] += caps[i] * m.Qty
				}
			}
		}
		for i, c := range ng.Capacities {
			if used[i] > c+tol {
				return fmt.Errorf("%w: group capacity %d used %v over %v", ErrInfeasibleMatch, i, used[i], c)
			}
		}
		for _, set := range ng.ExclSets {
			matched := 0
			for _, id := range set {
				if nodeQty[id] > tol {
					matched++
				}
			}
			if matched > 1 {
				return fmt.Errorf("%w: %d nodes of one exclusive set matched", ErrInfeasibleMatch, matched)
			}
		}
		return nil
	}

	for _, rg := range g.requestGroups {
		sum := 0.0
		for _, id := range rg.Nodes {
			sum += nodeQty[id]
		}
		if sum > rg.Qty+tol {
			return fmt.Errorf("%w: request group %d matched %v over demand %v", ErrInfeasibleMatch, rg.index, sum, rg.Qty)
		}
		if err := check(&rg.NodeGroup); err != nil {
			return err
		}
	}
	for _, sg := range g.supplyGroups {
		if err := check(sg); err != nil {
			return err
		}
	}
	return nil
}
