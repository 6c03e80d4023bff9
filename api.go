// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rsdxchg resolves per-period resource exchanges between agents.
//
// Agents declare demand as RequestPortfolios and supply as BidPortfolios.
// An ExchangeContext gathers them together with the preferences requesters
// assign to the bids they received. A Translator turns the context into a
// resource-neutral graph.Graph, a solver.Solver matches it, and the
// Translator turns the matches back into Trades naming the original
// requests and bids.
package rsdxchg

import "github.com/someonegg/rsdxchg/graph"

// Resource is anything that can be exchanged. The value itself is the
// resource instance: bids offering the same value offer the same instance.
type Resource interface {
	comparable
	Quantity() float64
}

// Trader identifies the agent behind a request or a bid.
type Trader interface {
	ID() int
}

// Converter maps an offered resource, on a given arc, onto the amount of a
// capacity it consumes. It must be deterministic for a fixed argument set.
type Converter[T Resource] interface {
	Convert(offer T, arc graph.Arc, xctx *TranslationContext[T]) float64
}

// QuantityConverter consumes capacity equal to the offer's quantity.
type QuantityConverter[T Resource] struct{}

func (QuantityConverter[T]) Convert(offer T, _ graph.Arc, _ *TranslationContext[T]) float64 {
	return offer.Quantity()
}

// ScaledConverter consumes Factor units of capacity per unit of offer.
type ScaledConverter[T Resource] struct {
	Factor float64
}

func (c ScaledConverter[T]) Convert(offer T, _ graph.Arc, _ *TranslationContext[T]) float64 {
	return c.Factor * offer.Quantity()
}
