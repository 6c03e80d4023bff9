// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sim runs a population of facilities through successive exchange
// periods.
package sim

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownCommodity      = errors.New("sim: unknown commodity")
	ErrDuplicateFacility     = errors.New("sim: duplicate facility id")
	ErrInvalidFacility       = errors.New("sim: invalid facility")
	ErrInsufficientInventory = errors.New("sim: insufficient inventory")
	ErrWrongCommodity        = errors.New("sim: wrong commodity")
)

// Lot is a quantity of one commodity. Lots are passed by pointer, every lot
// is a distinct resource instance.
type Lot struct {
	Commodity string
	Qty       float64
	Origin    int // facility that produced the lot
}

func (l *Lot) Quantity() float64 { return l.Qty }

func (l *Lot) String() string {
	return fmt.Sprintf("%v %s from %d", l.Qty, l.Commodity, l.Origin)
}

const tolerance = 1e-9
