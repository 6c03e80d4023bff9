// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package locality

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrSiteInTwoRegions = errors.New("locality: site belongs to more than one region")
	ErrUnknownRegion    = errors.New("locality: unknown region")
)

// Geography groups sites into regions and knows which regions border each
// other.
type Geography struct {
	regionOf   map[string]string
	neighbours map[string]map[string]bool
}

// NewGeography builds a geography. Neighbourhood is made symmetric.
func NewGeography(regions map[string][]string, neighbours map[string][]string) (*Geography, error) {
	g := &Geography{
		regionOf:   make(map[string]string),
		neighbours: make(map[string]map[string]bool),
	}
	for region, sites := range regions {
		g.neighbours[region] = make(map[string]bool)
		for _, site := range sites {
			if other, ok := g.regionOf[site]; ok && other != region {
				return nil, fmt.Errorf("%w: %q in %q and %q", ErrSiteInTwoRegions, site, other, region)
			}
			g.regionOf[site] = region
		}
	}
	for region, ns := range neighbours {
		if _, ok := g.neighbours[region]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownRegion, region)
		}
		for _, n := range ns {
			if _, ok := g.neighbours[n]; !ok {
				return nil, fmt.Errorf("%w: %q, neighbour of %q", ErrUnknownRegion, n, region)
			}
			g.neighbours[region][n] = true
			g.neighbours[n][region] = true
		}
	}
	return g, nil
}

// Region returns the region of a site.
func (g *Geography) Region(site string) (string, bool) {
	r, ok := g.regionOf[site]
	return r, ok
}

// Regions returns the region names in order.
func (g *Geography) Regions() []string {
	rs := make([]string, 0, len(g.neighbours))
	for r := range g.neighbours {
		rs = append(rs, r)
	}
	sort.Strings(rs)
	return rs
}

// Neighbours reports whether two distinct regions border each other.
func (g *Geography) Neighbours(a, b string) bool {
	return g.neighbours[a][b]
}

// RegionScorer scores by carrier and region:
//
//	Carrier_Site: 10
//	Carrier_Region: 20
//	Carrier_NeighbourRegion: 30
//	Site: 50
//	Region: 60
//	Carrier: 70
//	NeighbourRegion: 80
//	Other: 90
//	Unknown site: 100
type RegionScorer struct {
	geo     *Geography
	unifier Unifier
}

// NewRegionScorer creates a scorer. Locations are unified first when a
// unifier is given.
func NewRegionScorer(geo *Geography, unifier Unifier) *RegionScorer {
	return &RegionScorer{geo: geo, unifier: unifier}
}

func (s *RegionScorer) Score(requester, bidder Location) (score float32, local bool) {
	a, b := requester, bidder
	if s.unifier != nil {
		a, b = s.unifier.Unify(a), s.unifier.Unify(b)
	}
	rA, okA := s.geo.Region(a.Site)
	rB, okB := s.geo.Region(b.Site)
	if !okA || !okB {
		return ScoreUnknown, false
	}
	sameRegion := rA == rB
	neighbour := s.geo.Neighbours(rA, rB)

	if a.Carrier == b.Carrier {
		switch {
		case a.Site == b.Site:
			return ScoreCarrierSite, true
		case sameRegion:
			return ScoreCarrierRegion, false
		case neighbour:
			return ScoreCarrierNeighbour, false
		}
		return ScoreCarrier, false
	}

	switch {
	case a.Site == b.Site:
		return ScoreSite, false
	case sameRegion:
		return ScoreRegion, false
	case neighbour:
		return ScoreNeighbour, false
	}
	return ScoreOther, false
}
