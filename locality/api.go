// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package locality scores how close a bidder is to a requester so that
// requesters can turn distance into exchange preferences.
package locality

// Location places a trader on a carrier network at a site.
type Location struct {
	Carrier string
	Site    string
}

// Unifier maps the spellings a location may come with onto one canonical
// location.
type Unifier interface {
	Unify(l Location) Location
}

// Scorer rates the distance from a requester to a bidder. Lower is closer;
// local reports whether the two share carrier and site.
type Scorer interface {
	Score(requester, bidder Location) (score float32, local bool)
}

// Scores produced by RegionScorer.
const (
	ScoreCarrierSite      float32 = 10
	ScoreCarrierRegion    float32 = 20
	ScoreCarrierNeighbour float32 = 30
	ScoreSite             float32 = 50
	ScoreRegion           float32 = 60
	ScoreCarrier          float32 = 70
	ScoreNeighbour        float32 = 80
	ScoreOther            float32 = 90
	ScoreUnknown          float32 = 100
)
