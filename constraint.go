// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rsdxchg

import (
	"fmt"
	"math"
	"reflect"

	"github.com/someonegg/rsdxchg/graph"
)

// CapacityConstraint bounds what a portfolio may exchange: the sum over
// matched arcs of Convert(offer)/offer.Quantity() times the matched quantity
// never exceeds Capacity.
type CapacityConstraint[T Resource] struct {
	capacity  float64
	converter Converter[T]
}

// NewCapacityConstraint pairs a capacity with its converter. A nil converter
// means QuantityConverter.
func NewCapacityConstraint[T Resource](capacity float64, converter Converter[T]) (CapacityConstraint[T], error) {
	if capacity < 0 || math.IsNaN(capacity) || math.IsInf(capacity, 0) {
		return CapacityConstraint[T]{}, fmt.Errorf("%w: %v", ErrInvalidCapacity, capacity)
	}
	if converter == nil {
		converter = QuantityConverter[T]{}
	}
	return CapacityConstraint[T]{capacity: capacity, converter: converter}, nil
}

func (c CapacityConstraint[T]) Capacity() float64 { return c.capacity }

func (c CapacityConstraint[T]) Converter() Converter[T] { return c.converter }

// Convert evaluates the constraint's converter.
func (c CapacityConstraint[T]) Convert(offer T, arc graph.Arc, xctx *TranslationContext[T]) float64 {
	return c.converter.Convert(offer, arc, xctx)
}

// Equal reports whether both constraints have the same capacity and the same
// converter. Converters of non-comparable dynamic types never compare equal.
func (c CapacityConstraint[T]) Equal(o CapacityConstraint[T]) bool {
	if c.capacity != o.capacity {
		return false
	}
	ct, ot := reflect.TypeOf(c.converter), reflect.TypeOf(o.converter)
	if ct != ot || ct == nil || !ct.Comparable() {
		return false
	}
	return c.converter == o.converter
}

// constraintSet keeps unique constraints in insertion order.
type constraintSet[T Resource] []CapacityConstraint[T]

func (s *constraintSet[T]) add(c CapacityConstraint[T]) bool {
	if c.converter == nil {
		c.converter = QuantityConverter[T]{}
	}
	for _, o := range *s {
		if o.Equal(c) {
			return false
		}
	}
	*s = append(*s, c)
	return true
}
