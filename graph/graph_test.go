// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

import (
	"errors"
	"testing"
)

// buildSimple returns a graph with one request node (qty rq) and one supply
// node (qty sq), each in its own single-capacity group, connected by one arc.
func buildSimple(t *testing.T, rq, sq float64, rexcl, sexcl bool) (*Graph, ArcID) {
	t.Helper()

	g := New()
	u := g.NewNode(Node{Qty: rq, Exclusive: rexcl, Commodity: "x", AgentID: 1})
	v := g.NewNode(Node{Qty: sq, Exclusive: sexcl, Commodity: "x", AgentID: 2})

	rg := NewRequestGroup(rq)
	rg.AddNode(u)
	rg.AddCapacity(rq)
	if err := g.AddRequestGroup(rg); err != nil {
		t.Fatalf("AddRequestGroup: %v", err)
	}

	sg := &NodeGroup{}
	sg.AddNode(v)
	sg.AddCapacity(sq)
	if err := g.AddSupplyGroup(sg); err != nil {
		t.Fatalf("AddSupplyGroup: %v", err)
	}

	id, err := g.AddArc(Arc{U: u, V: v, Pref: 5, UCaps: []float64{1}, VCaps: []float64{1}})
	if err != nil {
		t.Fatalf("AddArc: %v", err)
	}
	return g, id
}

func TestGraph_Groups(t *testing.T) {
	t.Run("EmptyGroup", func(t *testing.T) {
		g := New()
		if err := g.AddRequestGroup(NewRequestGroup(1)); !errors.Is(err, ErrEmptyGroup) {
			t.Errorf("Expected ErrEmptyGroup, got %v", err)
		}
		if err := g.AddSupplyGroup(&NodeGroup{}); !errors.Is(err, ErrEmptyGroup) {
			t.Errorf("Expected ErrEmptyGroup, got %v", err)
		}
	})

	t.Run("DuplicateGroup", func(t *testing.T) {
		g := New()
		sg := &NodeGroup{}
		sg.AddNode(g.NewNode(Node{Qty: 1}))
		if err := g.AddSupplyGroup(sg); err != nil {
			t.Fatalf("Unexpected error %v", err)
		}
		if err := g.AddSupplyGroup(sg); !errors.Is(err, ErrDuplicateGroup) {
			t.Errorf("Expected ErrDuplicateGroup, got %v", err)
		}
		if len(g.SupplyGroups()) != 1 {
			t.Errorf("Expected 1 supply group, got %d", len(g.SupplyGroups()))
		}
	})

	t.Run("NodeInTwoGroups", func(t *testing.T) {
		g := New()
		n := g.NewNode(Node{Qty: 1})
		a, b := &NodeGroup{}, &NodeGroup{}
		a.AddNode(n)
		b.AddNode(n)
		if err := g.AddSupplyGroup(a); err != nil {
			t.Fatalf("Unexpected error %v", err)
		}
		defer func() {
			if recover() == nil {
				t.Error("Expected panic for a node in two groups")
			}
		}()
		_ = g.AddSupplyGroup(b)
	})

	t.Run("RepeatedNode", func(t *testing.T) {
		g := New()
		n := g.NewNode(Node{Qty: 1})
		sg := &NodeGroup{}
		sg.AddNode(n)
		sg.AddNode(n)
		if err := g.AddSupplyGroup(sg); !errors.Is(err, ErrRepeatedNode) {
			t.Errorf("Expected ErrRepeatedNode, got %v", err)
		}
		if len(g.SupplyGroups()) != 0 {
			t.Errorf("Expected no supply group, got %d", len(g.SupplyGroups()))
		}
		if g.Node(n).Group() != nil {
			t.Error("Expected the node to stay ungrouped")
		}
	})

	t.Run("UnknownNode", func(t *testing.T) {
		g := New()
		sg := &NodeGroup{}
		sg.AddNode(NodeID(3))
		if err := g.AddSupplyGroup(sg); !errors.Is(err, ErrUnknownNode) {
			t.Errorf("Expected ErrUnknownNode, got %v", err)
		}
	})

	t.Run("Indexes", func(t *testing.T) {
		g := New()
		for i := 0; i < 3; i++ {
			rg := NewRequestGroup(1)
			rg.AddNode(g.NewNode(Node{Qty: 1}))
			if err := g.AddRequestGroup(rg); err != nil {
				t.Fatalf("Unexpected error %v", err)
			}
			if rg.Index() != i {
				t.Errorf("Expected index %d, got %d", i, rg.Index())
			}
		}
	})
}

func TestGraph_AddArc(t *testing.T) {
	t.Run("Simple", func(t *testing.T) {
		g, id := buildSimple(t, 10, 10, false, false)
		a := g.Arc(id)
		if g.Pref(id) != 5 {
			t.Errorf("Expected pref 5, got %v", g.Pref(id))
		}
		if len(g.UnitCapacities(a.U, id)) != 1 || len(g.UnitCapacities(a.V, id)) != 1 {
			t.Error("Expected one unit capacity per endpoint")
		}
		if len(g.ArcsOf(a.U)) != 1 || len(g.ArcsOf(a.V)) != 1 {
			t.Error("Expected arc to be indexed on both endpoints")
		}
		if !g.Node(a.U).IsRequest() || g.Node(a.V).IsRequest() {
			t.Error("Expected U on the request side and V on the supply side")
		}

		n := g.Node(a.U)
		n.Qty, n.Exclusive = 0, true
		if g.Node(a.U).Qty != 10 || g.Node(a.U).Exclusive {
			t.Error("Expected the graph to be unaffected by changes to a returned node")
		}
	})

	t.Run("Ungrouped", func(t *testing.T) {
		g := New()
		u := g.NewNode(Node{Qty: 1})
		v := g.NewNode(Node{Qty: 1})
		if _, err := g.AddArc(Arc{U: u, V: v, Pref: 1}); !errors.Is(err, ErrUngroupedNode) {
			t.Errorf("Expected ErrUngroupedNode, got %v", err)
		}
	})

	t.Run("Orientation", func(t *testing.T) {
		g, id := buildSimple(t, 1, 1, false, false)
		a := g.Arc(id)
		_, err := g.AddArc(Arc{U: a.V, V: a.U, Pref: 1, UCaps: []float64{1}, VCaps: []float64{1}})
		if !errors.Is(err, ErrArcOrientation) {
			t.Errorf("Expected ErrArcOrientation, got %v", err)
		}
	})

	t.Run("CapacityMismatch", func(t *testing.T) {
		g, id := buildSimple(t, 1, 1, false, false)
		a := g.Arc(id)
		_, err := g.AddArc(Arc{U: a.U, V: a.V, Pref: 1, UCaps: []float64{1, 2}, VCaps: []float64{1}})
		if !errors.Is(err, ErrUnitCapacityMismatch) {
			t.Errorf("Expected ErrUnitCapacityMismatch, got %v", err)
		}
	})
}

func TestGraph_ExclusiveValue(t *testing.T) {
	tests := []struct {
		name         string
		rq, sq       float64
		rexcl, sexcl bool
		want         float64
	}{
		{"Neither", 6, 10, false, false, 0},
		{"Request", 6, 10, true, false, 6},
		{"Supply", 6, 10, false, true, 10},
		{"BothEqual", 10, 10, true, true, 10},
		{"BothDiffer", 6, 10, true, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, id := buildSimple(t, tt.rq, tt.sq, tt.rexcl, tt.sexcl)
			if got := g.ExclusiveValue(id); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
			if g.Exclusive(id) != (tt.rexcl || tt.sexcl) {
				t.Errorf("Expected exclusive %v", tt.rexcl || tt.sexcl)
			}
		})
	}
}

func TestCheckMatches(t *testing.T) {
	t.Run("Feasible", func(t *testing.T) {
		g, id := buildSimple(t, 10, 10, false, false)
		if err := CheckMatches(g, []Match{{id, 10}}, 0); err != nil {
			t.Errorf("Unexpected error %v", err)
		}
		if err := CheckMatches(g, nil, 0); err != nil {
			t.Errorf("Unexpected error for empty match set %v", err)
		}
	})

	t.Run("OverNode", func(t *testing.T) {
		g, id := buildSimple(t, 10, 8, false, false)
		if err := CheckMatches(g, []Match{{id, 9}}, 0); !errors.Is(err, ErrInfeasibleMatch) {
			t.Errorf("Expected ErrInfeasibleMatch, got %v", err)
		}
	})

	t.Run("ExclusivePartial", func(t *testing.T) {
		g, id := buildSimple(t, 6, 10, false, true)
		if err := CheckMatches(g, []Match{{id, 6}}, 0); !errors.Is(err, ErrInfeasibleMatch) {
			t.Errorf("Expected ErrInfeasibleMatch, got %v", err)
		}
	})

	t.Run("UnknownArc", func(t *testing.T) {
		g, _ := buildSimple(t, 6, 10, false, false)
		if err := CheckMatches(g, []Match{{ArcID(7), 1}}, 0); !errors.Is(err, ErrInfeasibleMatch) {
			t.Errorf("Expected ErrInfeasibleMatch, got %v", err)
		}
	})

	t.Run("WeightedCapacity", func(t *testing.T) {
		g := New()
		u := g.NewNode(Node{Qty: 10})
		v := g.NewNode(Node{Qty: 10})
		rg := NewRequestGroup(10)
		rg.AddNode(u)
		rg.AddCapacity(10)
		_ = g.AddRequestGroup(rg)
		sg := &NodeGroup{}
		sg.AddNode(v)
		sg.AddCapacity(10)
		sg.AddCapacity(5) // a second, weighted capacity
		_ = g.AddSupplyGroup(sg)
		id, err := g.AddArc(Arc{U: u, V: v, Pref: 1, UCaps: []float64{1}, VCaps: []float64{1, 2}})
		if err != nil {
			t.Fatalf("AddArc: %v", err)
		}
		if err := CheckMatches(g, []Match{{id, 2.5}}, 0); err != nil {
			t.Errorf("Unexpected error %v", err)
		}
		if err := CheckMatches(g, []Match{{id, 3}}, 0); !errors.Is(err, ErrInfeasibleMatch) {
			t.Errorf("Expected ErrInfeasibleMatch, got %v", err)
		}
	})

	t.Run("ExclusiveSet", func(t *testing.T) {
		g := New()
		u1 := g.NewNode(Node{Qty: 5})
		u2 := g.NewNode(Node{Qty: 5})
		v1 := g.NewNode(Node{Qty: 5, Exclusive: true})
		v2 := g.NewNode(Node{Qty: 5, Exclusive: true})
		for _, u := range []NodeID{u1, u2} {
			rg := NewRequestGroup(5)
			rg.AddNode(u)
			rg.AddCapacity(5)
			_ = g.AddRequestGroup(rg)
		}
		sg := &NodeGroup{}
		sg.AddNode(v1)
		sg.AddNode(v2)
		sg.AddCapacity(10)
		sg.AddExclSet([]NodeID{v1, v2})
		_ = g.AddSupplyGroup(sg)
		a1, _ := g.AddArc(Arc{U: u1, V: v1, Pref: 1, UCaps: []float64{1}, VCaps: []float64{1}})
		a2, _ := g.AddArc(Arc{U: u2, V: v2, Pref: 1, UCaps: []float64{1}, VCaps: []float64{1}})
		if err := CheckMatches(g, []Match{{a1, 5}}, 0); err != nil {
			t.Errorf("Unexpected error %v", err)
		}
		if err := CheckMatches(g, []Match{{a1, 5}, {a2, 5}}, 0); !errors.Is(err, ErrInfeasibleMatch) {
			t.Errorf("Expected ErrInfeasibleMatch, got %v", err)
		}
	})
}
