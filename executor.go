// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rsdxchg

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-logr/logr"
)

var (
	ErrNotSupplier      = errors.New("rsdxchg: bidder cannot supply trades")
	ErrNotReceiver      = errors.New("rsdxchg: requester cannot accept trades")
	ErrResponseMismatch = errors.New("rsdxchg: supplier answered a different number of trades")
)

// Response is a trade together with the resource actually sent.
type Response[T Resource] struct {
	Trade    Trade[T]
	Resource T
}

// Supplier produces the resources for the trades it won.
type Supplier[T Resource] interface {
	Trader
	Supply(ctx context.Context, trades []Trade[T]) ([]Response[T], error)
}

// Receiver takes delivery of the resources it was sent.
type Receiver[T Resource] interface {
	Trader
	Accept(ctx context.Context, responses []Response[T]) error
}

// ExecuteTrades asks each bidder for the resources of its trades and hands
// them to the requesters. Traders are served in id order; each trader sees
// its trades in their original order.
func ExecuteTrades[T Resource](ctx context.Context, trades []Trade[T]) error {
	logger := logr.FromContextOrDiscard(ctx)

	type supply struct {
		supplier Supplier[T]
		trades   []Trade[T]
	}
	suppliers := make(map[int]*supply)
	for _, tr := range trades {
		bidder := tr.Bid.bidder
		s, ok := suppliers[bidder.ID()]
		if !ok {
			sp, isSupplier := bidder.(Supplier[T])
			if !isSupplier {
				return fmt.Errorf("%w: trader %d", ErrNotSupplier, bidder.ID())
			}
			s = &supply{supplier: sp}
			suppliers[bidder.ID()] = s
		}
		s.trades = append(s.trades, tr)
	}

	type delivery struct {
		receiver  Receiver[T]
		responses []Response[T]
	}
	receivers := make(map[int]*delivery)

	for _, id := range sortedKeys(suppliers) {
		s := suppliers[id]
		responses, err := s.supplier.Supply(ctx, s.trades)
		if err != nil {
			return fmt.Errorf("supply trades of trader %d: %w", id, err)
		}
		if len(responses) != len(s.trades) {
			return fmt.Errorf("%w: trader %d, %d trades, %d responses", ErrResponseMismatch, id, len(s.trades), len(responses))
		}
		for _, r := range responses {
			requester := r.Trade.Request.requester
			d, ok := receivers[requester.ID()]
			if !ok {
				rc, isReceiver := requester.(Receiver[T])
				if !isReceiver {
					return fmt.Errorf("%w: trader %d", ErrNotReceiver, requester.ID())
				}
				d = &delivery{receiver: rc}
				receivers[requester.ID()] = d
			}
			d.responses = append(d.responses, r)
		}
	}

	for _, id := range sortedKeys(receivers) {
		d := receivers[id]
		if err := d.receiver.Accept(ctx, d.responses); err != nil {
			return fmt.Errorf("deliver trades to trader %d: %w", id, err)
		}
		logger.V(2).Info("Delivered trades", "trader", id, "count", len(d.responses))
	}
	return nil
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
