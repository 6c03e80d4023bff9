// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package graph provides the resource-neutral exchange graph: request groups
// and supply groups of nodes connected by weighted, capacity-annotated arcs.
//
// Nodes and arcs live in arenas owned by the Graph and are addressed by
// integer handles, so a translator can keep bijective handle tables instead
// of aliasing pointers. The graph itself never solves; solvers read it
// through the accessors below and answer with Matches.
package graph

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyGroup           = errors.New("graph: empty group")
	ErrDuplicateGroup       = errors.New("graph: group already added")
	ErrUngroupedNode        = errors.New("graph: arc endpoint is not in a group")
	ErrArcOrientation       = errors.New("graph: arc must connect a request node to a supply node")
	ErrUnitCapacityMismatch = errors.New("graph: unit capacities do not match group capacities")
	ErrUnknownNode          = errors.New("graph: unknown node")
	ErrRepeatedNode         = errors.New("graph: node listed twice in a group")
)

// NodeID is a handle into the graph's node arena.
type NodeID int

// ArcID is a handle into the graph's arc arena.
type ArcID int

// Node is a resource-neutral vertex.
type Node struct {
	Qty       float64 // quantity ceiling
	Exclusive bool    // matched at Qty or not at all
	Commodity string
	AgentID   int

	group    *NodeGroup
	request  bool
	unitCaps map[ArcID][]float64
	prefs    map[ArcID]float64
	arcs     []ArcID
}

// Group returns the group the node belongs to, nil if it is ungrouped.
func (n Node) Group() *NodeGroup { return n.group }

// IsRequest reports whether the node belongs to a request group.
func (n Node) IsRequest() bool { return n.request }

// Arc connects a request node U with a supply node V.
//
// UCaps and VCaps carry one unit capacity per capacity of the endpoint's
// group, in the same order. They are copied into the endpoints' tables when
// the arc is added.
type Arc struct {
	U, V  NodeID
	Pref  float64
	UCaps []float64
	VCaps []float64
}

// NodeGroup is a set of nodes sharing aggregate capacities.
type NodeGroup struct {
	Nodes      []NodeID
	Capacities []float64
	ExclSets   [][]NodeID

	index int
	added bool
}

// AddNode appends a node to the group.
func (g *NodeGroup) AddNode(id NodeID) { g.Nodes = append(g.Nodes, id) }

// AddCapacity appends an aggregate capacity.
func (g *NodeGroup) AddCapacity(c float64) { g.Capacities = append(g.Capacities, c) }

// AddExclSet declares nodes of which at most one may be matched.
func (g *NodeGroup) AddExclSet(ids []NodeID) {
	set := make([]NodeID, len(ids))
	copy(set, ids)
	g.ExclSets = append(g.ExclSets, set)
}

// Index returns the group position inside its side of the graph.
func (g *NodeGroup) Index() int { return g.index }

// RequestGroup is a NodeGroup that also carries the aggregate demand.
type RequestGroup struct {
	NodeGroup
	Qty float64
}

// NewRequestGroup creates an empty request group demanding qty.
func NewRequestGroup(qty float64) *RequestGroup {
	return &RequestGroup{Qty: qty}
}

// Match is a solved (arc, quantity) pair.
type Match struct {
	Arc ArcID
	Qty float64
}

// Graph is the bipartite exchange graph.
type Graph struct {
	nodes         []Node
	arcs          []Arc
	requestGroups []*RequestGroup
	supplyGroups  []*NodeGroup
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{}
}

// NewNode allocates an ungrouped node and returns its handle.
func (g *Graph) NewNode(n Node) NodeID {
	n.group = nil
	n.request = false
	n.unitCaps = make(map[ArcID][]float64)
	n.prefs = make(map[ArcID]float64)
	n.arcs = nil
	g.nodes = append(g.nodes, n)
	return NodeID(len(g.nodes) - 1)
}

// AddRequestGroup appends a request group.
func (g *Graph) AddRequestGroup(rg *RequestGroup) error {
	if err := g.adopt(&rg.NodeGroup, true); err != nil {
		return err
	}
	rg.index = len(g.requestGroups)
	g.requestGroups = append(g.requestGroups, rg)
	return nil
}

// AddSupplyGroup appends a supply group.
func (g *Graph) AddSupplyGroup(sg *NodeGroup) error {
	if err := g.adopt(sg, false); err != nil {
		return err
	}
	sg.index = len(g.supplyGroups)
	g.supplyGroups = append(g.supplyGroups, sg)
	return nil
}

func (g *Graph) adopt(ng *NodeGroup, request bool) error {
	if len(ng.Nodes) == 0 {
		return ErrEmptyGroup
	}
	if ng.added {
		return ErrDuplicateGroup
	}
	seen := make(map[NodeID]bool, len(ng.Nodes))
	for _, id := range ng.Nodes {
		if !g.valid(id) {
			return fmt.Errorf("%w: %d", ErrUnknownNode, id)
		}
		if seen[id] {
			return fmt.Errorf("%w: %d", ErrRepeatedNode, id)
		}
		seen[id] = true
		if n := &g.nodes[id]; n.group != nil && n.group != ng {
			panic(fmt.Sprintf("graph: node %d already belongs to another group", id))
		}
	}
	for _, id := range ng.Nodes {
		g.nodes[id].group = ng
		g.nodes[id].request = request
	}
	ng.added = true
	return nil
}

// AddArc adds an arc between two grouped nodes.
func (g *Graph) AddArc(a Arc) (ArcID, error) {
	if !g.valid(a.U) || !g.valid(a.V) {
		return -1, ErrUnknownNode
	}
	u, v := &g.nodes[a.U], &g.nodes[a.V]
	if u.group == nil || v.group == nil {
		return -1, ErrUngroupedNode
	}
	if !u.request || v.request {
		return -1, ErrArcOrientation
	}
	if len(a.UCaps) != len(u.group.Capacities) || len(a.VCaps) != len(v.group.Capacities) {
		return -1, fmt.Errorf("%w: u %d/%d, v %d/%d", ErrUnitCapacityMismatch,
			len(a.UCaps), len(u.group.Capacities), len(a.VCaps), len(v.group.Capacities))
	}

	id := ArcID(len(g.arcs))
	g.arcs = append(g.arcs, a)

	u.prefs[id] = a.Pref
	u.unitCaps[id] = a.UCaps
	v.unitCaps[id] = a.VCaps
	u.arcs = append(u.arcs, id)
	v.arcs = append(v.arcs, id)
	return id, nil
}

func (g *Graph) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(g.nodes)
}

// Node returns a copy of the node behind a handle. Changing it does not
// change the graph.
func (g *Graph) Node(id NodeID) Node { return g.nodes[id] }

// NumNodes returns the number of allocated nodes.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// Arc returns the arc behind a handle.
func (g *Graph) Arc(id ArcID) Arc { return g.arcs[id] }

// NumArcs returns the number of arcs.
func (g *Graph) NumArcs() int { return len(g.arcs) }

// RequestGroups returns the request groups in insertion order.
func (g *Graph) RequestGroups() []*RequestGroup { return g.requestGroups }

// SupplyGroups returns the supply groups in insertion order.
func (g *Graph) SupplyGroups() []*NodeGroup { return g.supplyGroups }

// ArcsOf returns the arcs touching a node, in insertion order.
func (g *Graph) ArcsOf(id NodeID) []ArcID { return g.nodes[id].arcs }

// UnitCapacities returns the node's unit capacities on an arc.
func (g *Graph) UnitCapacities(id NodeID, arc ArcID) []float64 {
	return g.nodes[id].unitCaps[arc]
}

// Pref returns the preference the requesting node assigned to an arc.
func (g *Graph) Pref(arc ArcID) float64 {
	return g.nodes[g.arcs[arc].U].prefs[arc]
}

// Exclusive reports whether either endpoint of the arc is exclusive.
func (g *Graph) Exclusive(arc ArcID) bool {
	a := g.arcs[arc]
	return g.nodes[a.U].Exclusive || g.nodes[a.V].Exclusive
}

// ExclusiveValue returns the only non-zero quantity an exclusive arc may
// carry. When both endpoints are exclusive their quantities must agree,
// otherwise the arc can never be matched and 0 is returned.
func (g *Graph) ExclusiveValue(arc ArcID) float64 {
	a := g.arcs[arc]
	u, v := &g.nodes[a.U], &g.nodes[a.V]
	switch {
	case u.Exclusive && v.Exclusive:
		if u.Qty == v.Qty {
			return u.Qty
		}
		return 0
	case u.Exclusive:
		return u.Qty
	case v.Exclusive:
		return v.Qty
	}
	return 0
}
