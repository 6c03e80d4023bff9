// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scenario reads simulation scenarios from YAML.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/someonegg/rsdxchg/locality"
	"github.com/someonegg/rsdxchg/sim"
)

var ErrUnknownKind = errors.New("scenario: unknown facility kind")

// Facility kinds.
const (
	KindSource    = "source"
	KindSink      = "sink"
	KindConverter = "converter"
)

type Scenario struct {
	Commodities []Commodity `yaml:"commodities"`
	Geography   *Geography  `yaml:"geography,omitempty"`
	Facilities  []Facility  `yaml:"facilities"`
}

type Commodity struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases,omitempty"`
}

type Geography struct {
	Regions    map[string][]string `yaml:"regions"`
	Neighbours map[string][]string `yaml:"neighbours,omitempty"`
	Carriers   map[string][]string `yaml:"carriers,omitempty"` // canonical carrier to aliases
	Sites      map[string][]string `yaml:"sites,omitempty"`    // canonical site to aliases
	Overrides  []ScoreOverride     `yaml:"overrides,omitempty"`
}

type Location struct {
	Carrier string `yaml:"carrier"`
	Site    string `yaml:"site"`
}

func (l Location) locality() locality.Location {
	return locality.Location{Carrier: l.Carrier, Site: l.Site}
}

type ScoreOverride struct {
	Requester Location `yaml:"requester"`
	Bidder    Location `yaml:"bidder"`
	Score     float32  `yaml:"score"`
	Local     bool     `yaml:"local,omitempty"`
}

// Facility is the union of every facility kind's settings.
type Facility struct {
	ID       int    `yaml:"id"`
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Location `yaml:",inline"`

	// source
	Commodity string  `yaml:"commodity,omitempty"`
	Rate      float64 `yaml:"rate,omitempty"`
	Batch     float64 `yaml:"batch,omitempty"`

	// sink
	Commodities []string           `yaml:"commodities,omitempty"`
	Prefs       map[string]float64 `yaml:"prefs,omitempty"`
	Demand      float64            `yaml:"demand,omitempty"`
	Exclusive   bool               `yaml:"exclusive,omitempty"`

	// sink and converter
	Capacity float64 `yaml:"capacity,omitempty"`

	// converter
	In  string `yaml:"in,omitempty"`
	Out string `yaml:"out,omitempty"`
}

// Load reads a scenario file.
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a scenario.
func Parse(data []byte) (*Scenario, error) {
	return Decode(bytes.NewReader(data))
}

// Decode decodes a scenario, rejecting unknown fields.
func Decode(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var s Scenario
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	return &s, nil
}

// World is a scenario ready to run.
type World struct {
	Registry   *sim.Registry
	Facilities []sim.Facility
	// Scorer is nil when the scenario has no geography.
	Scorer locality.Scorer
}

// Build creates the registry, facilities and scorer of a scenario.
// Commodity aliases are resolved, facilities get canonical names only.
func (s *Scenario) Build() (*World, error) {
	w := &World{Registry: sim.NewRegistry()}
	for _, c := range s.Commodities {
		if err := w.Registry.Register(c.Name, c.Aliases...); err != nil {
			return nil, err
		}
	}

	if s.Geography != nil {
		scorer, err := s.Geography.build()
		if err != nil {
			return nil, err
		}
		w.Scorer = scorer
	}

	for i := range s.Facilities {
		f, err := s.Facilities[i].build(w.Registry)
		if err != nil {
			return nil, err
		}
		w.Facilities = append(w.Facilities, f)
	}
	return w, nil
}

func (g *Geography) build() (locality.Scorer, error) {
	geo, err := locality.NewGeography(g.Regions, g.Neighbours)
	if err != nil {
		return nil, err
	}
	carriers, err := locality.NewAliasTable(g.Carriers)
	if err != nil {
		return nil, fmt.Errorf("carriers: %w", err)
	}
	sites, err := locality.NewAliasTable(g.Sites)
	if err != nil {
		return nil, fmt.Errorf("sites: %w", err)
	}
	scorer := locality.Scorer(locality.NewRegionScorer(geo, locality.AliasUnifier{Carriers: carriers, Sites: sites}))
	if len(g.Overrides) == 0 {
		return scorer, nil
	}
	recs := make([]locality.ScoreRecord, len(g.Overrides))
	for i, o := range g.Overrides {
		recs[i] = locality.ScoreRecord{
			ScoreKey: locality.ScoreKey{Requester: o.Requester.locality(), Bidder: o.Bidder.locality()},
			ScoreVal: locality.ScoreVal{Score: o.Score, Local: o.Local},
		}
	}
	return locality.NewTableScorer(scorer, recs), nil
}

func (f *Facility) build(reg *sim.Registry) (sim.Facility, error) {
	lookup := func(names ...string) ([]string, error) {
		out := make([]string, len(names))
		for i, n := range names {
			c, err := reg.Lookup(n)
			if err != nil {
				return nil, fmt.Errorf("facility %q: %w", f.Name, err)
			}
			out[i] = c
		}
		return out, nil
	}
	loc := f.Location.locality()

	switch f.Kind {
	case KindSource:
		cs, err := lookup(f.Commodity)
		if err != nil {
			return nil, err
		}
		src, err := sim.NewSource(f.ID, f.Name, loc, sim.SourceConfig{Commodity: cs[0], Rate: f.Rate, Batch: f.Batch})
		if err != nil {
			return nil, err
		}
		return src, nil

	case KindSink:
		cs, err := lookup(f.Commodities...)
		if err != nil {
			return nil, err
		}
		var prefs map[string]float64
		if len(f.Prefs) > 0 {
			prefs = make(map[string]float64, len(f.Prefs))
			for k, p := range f.Prefs {
				c, err := lookup(k)
				if err != nil {
					return nil, err
				}
				prefs[c[0]] = p
			}
		}
		sink, err := sim.NewSink(f.ID, f.Name, loc, sim.SinkConfig{
			Commodities: cs,
			Prefs:       prefs,
			Demand:      f.Demand,
			Capacity:    f.Capacity,
			Exclusive:   f.Exclusive,
		})
		if err != nil {
			return nil, err
		}
		return sink, nil

	case KindConverter:
		cs, err := lookup(f.In, f.Out)
		if err != nil {
			return nil, err
		}
		conv, err := sim.NewConverter(f.ID, f.Name, loc, sim.ConverterConfig{In: cs[0], Out: cs[1], Capacity: f.Capacity})
		if err != nil {
			return nil, err
		}
		return conv, nil
	}
	return nil, fmt.Errorf("%w: %q for facility %q", ErrUnknownKind, f.Kind, f.Name)
}
