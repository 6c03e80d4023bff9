// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package locality_test

import (
	"errors"
	"math"
	"testing"

	. "github.com/someonegg/rsdxchg/locality"
)

func testGeography(t *testing.T) *Geography {
	t.Helper()
	geo, err := NewGeography(
		map[string][]string{
			"north": {"oslo", "bergen"},
			"west":  {"paris", "lyon"},
			"south": {"rome"},
			"east":  {"kyiv"},
		},
		map[string][]string{
			"north": {"west"},
			"west":  {"south"},
		},
	)
	if err != nil {
		t.Fatalf("NewGeography: %v", err)
	}
	return geo
}

func TestRegionScorer(t *testing.T) {
	scorer := NewRegionScorer(testGeography(t), nil)

	cases := []struct {
		name      string
		requester Location
		bidder    Location
		wantScore float32
		wantLocal bool
	}{
		{"Carrier_Site", Location{"fiber", "oslo"}, Location{"fiber", "oslo"}, ScoreCarrierSite, true},
		{"Carrier_Region", Location{"fiber", "oslo"}, Location{"fiber", "bergen"}, ScoreCarrierRegion, false},
		{"Carrier_Neighbour", Location{"fiber", "oslo"}, Location{"fiber", "lyon"}, ScoreCarrierNeighbour, false},
		{"Carrier_NeighbourSymmetric", Location{"fiber", "lyon"}, Location{"fiber", "oslo"}, ScoreCarrierNeighbour, false},
		{"Carrier", Location{"fiber", "oslo"}, Location{"fiber", "rome"}, ScoreCarrier, false},
		{"Site", Location{"fiber", "paris"}, Location{"radio", "paris"}, ScoreSite, false},
		{"Region", Location{"fiber", "paris"}, Location{"radio", "lyon"}, ScoreRegion, false},
		{"Neighbour", Location{"fiber", "paris"}, Location{"radio", "rome"}, ScoreNeighbour, false},
		{"Other", Location{"fiber", "kyiv"}, Location{"radio", "rome"}, ScoreOther, false},
		{"Unknown", Location{"fiber", "atlantis"}, Location{"fiber", "atlantis"}, ScoreUnknown, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			score, local := scorer.Score(tc.requester, tc.bidder)
			if score != tc.wantScore || local != tc.wantLocal {
				t.Errorf("Score(%+v, %+v) = (%v, %v), want (%v, %v)",
					tc.requester, tc.bidder, score, local, tc.wantScore, tc.wantLocal)
			}
		})
	}
}

func TestRegionScorer_Unifier(t *testing.T) {
	sites, err := NewAliasTable(map[string][]string{"oslo": {"OSL", "Christiania"}})
	if err != nil {
		t.Fatal(err)
	}
	carriers, err := NewAliasTable(map[string][]string{"fiber": {"ftth"}})
	if err != nil {
		t.Fatal(err)
	}
	scorer := NewRegionScorer(testGeography(t), AliasUnifier{Carriers: carriers, Sites: sites})

	score, local := scorer.Score(Location{"FTTH", "osl"}, Location{"fiber", "christiania"})
	if score != ScoreCarrierSite || !local {
		t.Errorf("Expected local carrier site score, got (%v, %v)", score, local)
	}
}

func TestNewGeography_Errors(t *testing.T) {
	_, err := NewGeography(map[string][]string{"a": {"x"}, "b": {"x"}}, nil)
	if !errors.Is(err, ErrSiteInTwoRegions) {
		t.Errorf("Expected ErrSiteInTwoRegions, got %v", err)
	}

	_, err = NewGeography(map[string][]string{"a": {"x"}}, map[string][]string{"a": {"c"}})
	if !errors.Is(err, ErrUnknownRegion) {
		t.Errorf("Expected ErrUnknownRegion, got %v", err)
	}

	geo := testGeography(t)
	if got := geo.Regions(); len(got) != 4 || got[0] != "east" {
		t.Errorf("Expected sorted regions, got %v", got)
	}
	if r, ok := geo.Region("rome"); !ok || r != "south" {
		t.Errorf("Expected rome in south, got %q %v", r, ok)
	}
}

func TestAliasTable(t *testing.T) {
	table, err := NewAliasTable(map[string][]string{
		"grain": {"Wheat", "corn"},
		"ore":   {"iron"},
	})
	if err != nil {
		t.Fatal(err)
	}

	cases := map[string]string{
		"grain": "grain",
		"WHEAT": "grain",
		"corn":  "grain",
		"Iron":  "ore",
		"Salt":  "salt",
	}
	for in, want := range cases {
		if got := table.Canonical(in); got != want {
			t.Errorf("Canonical(%q) = %q, want %q", in, got, want)
		}
	}
	if !table.Known("Corn") || table.Known("salt") {
		t.Error("Known reports wrong membership")
	}

	var empty *AliasTable
	if got := empty.Canonical("Salt"); got != "salt" {
		t.Errorf("nil table Canonical = %q", got)
	}

	_, err = NewAliasTable(map[string][]string{"grain": {"mix"}, "ore": {"mix"}})
	if !errors.Is(err, ErrDuplicateAlias) {
		t.Errorf("Expected ErrDuplicateAlias, got %v", err)
	}
}

type fixedScorer struct{}

func (fixedScorer) Score(_, _ Location) (float32, bool) { return 50, false }

func TestTableOverrides(t *testing.T) {
	a := Location{"fiber", "oslo"}
	b := Location{"fiber", "rome"}

	scorer := NewTableScorer(fixedScorer{}, []ScoreRecord{
		{ScoreKey{Requester: a, Bidder: b}, ScoreVal{Score: 15, Local: true}},
	})
	if score, local := scorer.Score(a, b); score != 15 || !local {
		t.Errorf("Expected override (15, true), got (%v, %v)", score, local)
	}
	if score, local := scorer.Score(b, a); score != 50 || local {
		t.Errorf("Expected fallback (50, false), got (%v, %v)", score, local)
	}

	unifier := NewTableUnifier(nil, []UnifyRecord{{Source: Location{"x", "old"}, Target: a}})
	if got := unifier.Unify(Location{"x", "old"}); got != a {
		t.Errorf("Unify = %+v, want %+v", got, a)
	}
	if got := unifier.Unify(b); got != b {
		t.Errorf("Unify = %+v, want %+v", got, b)
	}

	chained := NewTableUnifier(AliasUnifier{}, nil)
	if got := chained.Unify(Location{"FIBER", "Oslo"}); got != a {
		t.Errorf("Unify = %+v, want %+v", got, a)
	}
}

func TestPolicy(t *testing.T) {
	p := Policy{NearScore: 20, RejectScore: 90, RemoteFactor: 0.5}

	cases := []struct {
		score float32
		local bool
		want  float64
	}{
		{ScoreCarrierSite, true, 4},
		{ScoreCarrierRegion, false, 4},
		{ScoreCarrierNeighbour, false, 2},
		{ScoreSite, false, 0.5},
		{ScoreOther, false, -1},
		{ScoreUnknown, false, -1},
		{ScoreUnknown, true, 4},
	}
	for _, tc := range cases {
		if got := p.Preference(4, tc.score, tc.local); math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("Preference(4, %v, %v) = %v, want %v", tc.score, tc.local, got, tc.want)
		}
	}

	if got := DefaultPolicy.Preference(1, ScoreUnknown, false); got <= 0 {
		t.Errorf("DefaultPolicy rejected a bid: %v", got)
	}
	if got := (Policy{RemoteFactor: 3}).Preference(1, ScoreCarrierSite, false); got != DefaultPolicy.RemoteFactor {
		t.Errorf("Expected default factor, got %v", got)
	}
}
