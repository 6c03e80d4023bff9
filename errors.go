// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rsdxchg

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity   = errors.New("rsdxchg: quantity must be positive")
	ErrInvalidCapacity   = errors.New("rsdxchg: capacity must be finite and non-negative")
	ErrRequesterMismatch = errors.New("rsdxchg: requesters do not match")
	ErrBidderMismatch    = errors.New("rsdxchg: bidders do not match")
	ErrCommodityMismatch = errors.New("rsdxchg: multi-commodity bid portfolios are not allowed")
	ErrNilPortfolio      = errors.New("rsdxchg: nil or empty portfolio")
	ErrPortfolioReused   = errors.New("rsdxchg: portfolio already belongs to an exchange context")
	ErrUnknownRequest    = errors.New("rsdxchg: bid answers a request outside the exchange context")
	ErrMissingPreference = errors.New("rsdxchg: no preference for request/bid pair")
	ErrZeroPreference    = errors.New("rsdxchg: 0-valued preferences are not allowed, make the preference positive or negative")
	ErrInvalidPreference = errors.New("rsdxchg: preference is not a number")
	ErrSolverContract    = errors.New("rsdxchg: solver returned an infeasible match set")
)

// ValidationError reports malformed exchange input found while translating.
// The period's input is rejected as a whole; retrying it cannot succeed.
type ValidationError struct {
	Op  string
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(op string, err error) error {
	return &ValidationError{Op: op, Err: err}
}
