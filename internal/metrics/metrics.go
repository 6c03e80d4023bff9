// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package metrics exports simulation periods as prometheus metrics.
package metrics

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/someonegg/rsdxchg/sim"
)

const namespace = "rsdxchg"

// Collector implements sim.Observer.
type Collector struct {
	periods   prometheus.Counter
	requested prometheus.Counter
	traded    *prometheus.CounterVec
	trades    *prometheus.CounterVec
	arcs      prometheus.Gauge
	fill      prometheus.Gauge
	elapsed   prometheus.Histogram
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		periods: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "periods_total",
			Help:      "Resolved exchange periods.",
		}),
		requested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requested_quantity_total",
			Help:      "Quantity requested over all periods.",
		}),
		traded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "traded_quantity_total",
			Help:      "Quantity traded, by commodity.",
		}, []string{"commodity"}),
		trades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_total",
			Help:      "Executed trades, by commodity.",
		}, []string{"commodity"}),
		arcs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_arcs",
			Help:      "Arcs of the latest exchange graph.",
		}),
		fill: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fill_ratio",
			Help:      "Traded over requested quantity in the latest period.",
		}),
		elapsed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "period_duration_seconds",
			Help:      "Wall time of a period.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}

	for _, col := range []prometheus.Collector{c.periods, c.requested, c.traded, c.trades, c.arcs, c.fill, c.elapsed} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return c, nil
}

// ObservePeriod implements sim.Observer.
func (c *Collector) ObservePeriod(_ context.Context, r *sim.Report) {
	c.periods.Inc()
	c.requested.Add(r.Requested)
	c.arcs.Set(float64(r.Arcs))
	if r.Requested > 0 {
		c.fill.Set(r.Traded / r.Requested)
	} else {
		c.fill.Set(0)
	}
	for commodity, q := range r.Commodity {
		c.traded.WithLabelValues(commodity).Add(q)
	}
	for _, tr := range r.Trades {
		c.trades.WithLabelValues(tr.Commodity).Inc()
	}
	c.elapsed.Observe(r.Elapsed.Seconds())
}

// WriteText writes every metric gathered by g in the text exposition
// format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	mfs, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
