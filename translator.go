// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rsdxchg

import (
	"context"
	"fmt"
	"math"

	"github.com/go-logr/logr"

	"github.com/someonegg/rsdxchg/graph"
)

// Trade is a back-translated match.
type Trade[T Resource] struct {
	Request *Request[T]
	Bid     *Bid[T]
	Amount  float64
}

// TranslationContext is the request/bid ↔ node correspondence of one
// translation. Every node has exactly one origin.
type TranslationContext[T Resource] struct {
	requestNode []graph.NodeID // by request id
	bidNode     []graph.NodeID // by bid id
	nodeRequest []*Request[T]  // by node id
	nodeBid     []*Bid[T]      // by node id
}

func newTranslationContext[T Resource](requests, bids int) *TranslationContext[T] {
	x := &TranslationContext[T]{
		requestNode: make([]graph.NodeID, requests),
		bidNode:     make([]graph.NodeID, bids),
		nodeRequest: make([]*Request[T], 0, requests+bids),
		nodeBid:     make([]*Bid[T], 0, requests+bids),
	}
	for i := range x.requestNode {
		x.requestNode[i] = -1
	}
	for i := range x.bidNode {
		x.bidNode[i] = -1
	}
	return x
}

func (x *TranslationContext[T]) grow(n graph.NodeID) {
	for len(x.nodeRequest) <= int(n) {
		x.nodeRequest = append(x.nodeRequest, nil)
		x.nodeBid = append(x.nodeBid, nil)
	}
}

func (x *TranslationContext[T]) addRequest(r *Request[T], n graph.NodeID) {
	x.grow(n)
	x.requestNode[r.id] = n
	x.nodeRequest[n] = r
}

func (x *TranslationContext[T]) addBid(b *Bid[T], n graph.NodeID) {
	x.grow(n)
	x.bidNode[b.id] = n
	x.nodeBid[n] = b
}

// NodeOfRequest returns the node translated from a request.
func (x *TranslationContext[T]) NodeOfRequest(r *Request[T]) (graph.NodeID, bool) {
	if r.id < 0 || r.id >= len(x.requestNode) || x.requestNode[r.id] < 0 {
		return -1, false
	}
	n := x.requestNode[r.id]
	return n, x.nodeRequest[n] == r
}

// NodeOfBid returns the node translated from a bid.
func (x *TranslationContext[T]) NodeOfBid(b *Bid[T]) (graph.NodeID, bool) {
	if b.id < 0 || b.id >= len(x.bidNode) || x.bidNode[b.id] < 0 {
		return -1, false
	}
	n := x.bidNode[b.id]
	return n, x.nodeBid[n] == b
}

// RequestOf returns the request a node was translated from.
func (x *TranslationContext[T]) RequestOf(n graph.NodeID) (*Request[T], bool) {
	if n < 0 || int(n) >= len(x.nodeRequest) || x.nodeRequest[n] == nil {
		return nil, false
	}
	return x.nodeRequest[n], true
}

// BidOf returns the bid a node was translated from.
func (x *TranslationContext[T]) BidOf(n graph.NodeID) (*Bid[T], bool) {
	if n < 0 || int(n) >= len(x.nodeBid) || x.nodeBid[n] == nil {
		return nil, false
	}
	return x.nodeBid[n], true
}

// Translator converts an ExchangeContext into a graph.Graph and solved
// matches back into Trades. It keeps the correspondence of its latest
// translation.
type Translator[T Resource] struct {
	ectx  *ExchangeContext[T]
	xctx  *TranslationContext[T]
	graph *graph.Graph
}

// NewTranslator creates a translator for an exchange context.
func NewTranslator[T Resource](ectx *ExchangeContext[T]) *Translator[T] {
	return &Translator[T]{ectx: ectx}
}

// TranslationContext returns the correspondence of the latest translation.
func (t *Translator[T]) TranslationContext() *TranslationContext[T] { return t.xctx }

// Graph returns the latest translated graph.
func (t *Translator[T]) Graph() *graph.Graph { return t.graph }

// Translate builds the exchange graph. On error no graph is returned and the
// previous translation, if any, is kept.
func (t *Translator[T]) Translate(ctx context.Context) (*graph.Graph, error) {
	logger := logr.FromContextOrDiscard(ctx)

	g := graph.New()
	xctx := newTranslationContext[T](len(t.ectx.allRequests), len(t.ectx.allBids))

	for _, rp := range t.ectx.requests {
		rp.ensureAggregate()
		rg := translateRequestPortfolio(g, xctx, rp)
		logger.V(2).Info("Translated request portfolio",
			"requester", rp.requester.ID(), "qty", rp.qty,
			"requests", len(rp.requests), "capacities", len(rg.Capacities))
		if err := g.AddRequestGroup(rg); err != nil {
			return nil, invalid("translate request portfolio", err)
		}
	}

	for _, bp := range t.ectx.bids {
		sg := translateBidPortfolio(g, xctx, bp)
		logger.V(2).Info("Translated bid portfolio",
			"bidder", bp.bidder.ID(), "commodity", bp.commodity,
			"bids", len(bp.bids), "capacities", len(sg.Capacities))
		if err := g.AddSupplyGroup(sg); err != nil {
			return nil, invalid("translate bid portfolio", err)
		}

		for _, b := range bp.bids {
			if err := t.addArc(logger, g, xctx, b); err != nil {
				return nil, err
			}
		}
	}

	logger.V(1).Info("Translated exchange",
		"requestGroups", len(g.RequestGroups()), "supplyGroups", len(g.SupplyGroups()),
		"nodes", g.NumNodes(), "arcs", g.NumArcs())

	t.graph, t.xctx = g, xctx
	return g, nil
}

// addArc adds the request-bid arc when the requester accepts the bid.
func (t *Translator[T]) addArc(logger logr.Logger, g *graph.Graph, xctx *TranslationContext[T], b *Bid[T]) error {
	req := b.request
	pref, ok := t.ectx.Pref(b)
	switch {
	case !ok:
		return invalid("translate arc", fmt.Errorf("%w: requester %d, request %d, bid %d",
			ErrMissingPreference, req.requester.ID(), req.id, b.id))
	case math.IsNaN(pref):
		return invalid("translate arc", fmt.Errorf("%w: request %d, bid %d", ErrInvalidPreference, req.id, b.id))
	case pref < 0:
		logger.V(1).Info("Removing arc because of negative preference",
			"requester", req.requester.ID(), "request", req.id, "bid", b.id, "pref", pref)
		return nil
	case pref == 0:
		return invalid("translate arc", fmt.Errorf("%w: request %d, bid %d", ErrZeroPreference, req.id, b.id))
	}

	arc, err := translateArc(xctx, b, pref)
	if err != nil {
		return invalid("translate arc", err)
	}
	logger.V(5).Info("Updating preference for a trade node",
		"requester", req.requester.ID(), "pref", pref)
	if _, err := g.AddArc(arc); err != nil {
		return invalid("translate arc", err)
	}
	return nil
}

func translateRequestPortfolio[T Resource](g *graph.Graph, xctx *TranslationContext[T], rp *RequestPortfolio[T]) *graph.RequestGroup {
	rg := graph.NewRequestGroup(rp.qty)
	for _, r := range rp.requests {
		n := g.NewNode(graph.Node{
			Qty:       r.target.Quantity(),
			Exclusive: r.exclusive,
			Commodity: r.commodity,
			AgentID:   r.requester.ID(),
		})
		rg.AddNode(n)
		xctx.addRequest(r, n)
	}
	for _, c := range rp.constraints {
		rg.AddCapacity(c.capacity)
	}
	return rg
}

func translateBidPortfolio[T Resource](g *graph.Graph, xctx *TranslationContext[T], bp *BidPortfolio[T]) *graph.NodeGroup {
	sg := &graph.NodeGroup{}

	var offers []T
	excl := make(map[T][]graph.NodeID)
	for _, b := range bp.bids {
		n := g.NewNode(graph.Node{
			Qty:       b.offer.Quantity(),
			Exclusive: b.exclusive,
			Commodity: b.request.commodity,
			AgentID:   b.bidder.ID(),
		})
		sg.AddNode(n)
		xctx.addBid(b, n)
		if b.exclusive {
			if _, ok := excl[b.offer]; !ok {
				offers = append(offers, b.offer)
			}
			excl[b.offer] = append(excl[b.offer], n)
		}
	}
	for _, o := range offers {
		sg.AddExclSet(excl[o])
	}

	for _, c := range bp.constraints {
		sg.AddCapacity(c.capacity)
	}
	return sg
}

// translateArc builds the arc for a bid and computes both endpoints' unit
// capacities against the offered resource.
func translateArc[T Resource](xctx *TranslationContext[T], b *Bid[T], pref float64) (graph.Arc, error) {
	u, ok := xctx.NodeOfRequest(b.request)
	if !ok {
		return graph.Arc{}, fmt.Errorf("%w: request %d", ErrUnknownRequest, b.request.id)
	}
	v, ok := xctx.NodeOfBid(b)
	if !ok {
		return graph.Arc{}, fmt.Errorf("%w: bid %d not translated", ErrUnknownRequest, b.id)
	}

	arc := graph.Arc{U: u, V: v, Pref: pref}
	vcaps, err := unitCapacities(b.offer, b.portfolio.constraints, arc, xctx)
	if err != nil {
		return graph.Arc{}, err
	}
	ucaps, err := unitCapacities(b.offer, b.request.portfolio.constraints, arc, xctx)
	if err != nil {
		return graph.Arc{}, err
	}
	arc.UCaps, arc.VCaps = ucaps, vcaps
	return arc, nil
}

func unitCapacities[T Resource](offer T, cs constraintSet[T], arc graph.Arc, xctx *TranslationContext[T]) ([]float64, error) {
	caps := make([]float64, len(cs))
	qty := offer.Quantity()
	for i, c := range cs {
		u := c.Convert(offer, arc, xctx) / qty
		if u < 0 || math.IsNaN(u) || math.IsInf(u, 0) {
			return nil, fmt.Errorf("%w: unit capacity %v", ErrInvalidCapacity, u)
		}
		caps[i] = u
	}
	return caps, nil
}

// BackTranslate turns matches on the latest translated graph into trades, in
// match order. A match whose endpoints were not produced by that translation
// is a programming error and panics.
func (t *Translator[T]) BackTranslate(matches []graph.Match) []Trade[T] {
	if len(matches) == 0 {
		return nil
	}
	if t.graph == nil {
		panic("rsdxchg: back translation before translation")
	}
	trades := make([]Trade[T], 0, len(matches))
	for _, m := range matches {
		trades = append(trades, t.backTranslateMatch(m))
	}
	return trades
}

func (t *Translator[T]) backTranslateMatch(m graph.Match) Trade[T] {
	if m.Arc < 0 || int(m.Arc) >= t.graph.NumArcs() {
		panic(fmt.Sprintf("rsdxchg: match references unknown arc %d", m.Arc))
	}
	a := t.graph.Arc(m.Arc)
	req, ok := t.xctx.RequestOf(a.U)
	if !ok {
		panic(fmt.Sprintf("rsdxchg: node %d has no originating request", a.U))
	}
	bid, ok := t.xctx.BidOf(a.V)
	if !ok {
		panic(fmt.Sprintf("rsdxchg: node %d has no originating bid", a.V))
	}
	return Trade[T]{Request: req, Bid: bid, Amount: m.Qty}
}
