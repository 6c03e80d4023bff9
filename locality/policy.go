// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package locality

// Policy turns a distance score into an exchange preference.
type Policy struct {
	// Scores up to NearScore keep the base preference.
	NearScore float32
	// Scores at or above RejectScore reject the bid; 0 never rejects.
	RejectScore float32
	// RemoteFactor scales the base preference of the remaining scores. It
	// is applied once per ScoreCarrierSite step beyond NearScore.
	RemoteFactor float64
}

// DefaultPolicy prefers the same region and never rejects.
var DefaultPolicy = Policy{
	NearScore:    ScoreCarrierRegion,
	RejectScore:  0,
	RemoteFactor: 0.8,
}

// Preference returns the preference for a bid at the given distance. A
// negative result means the bid must not be considered.
func (p Policy) Preference(base float64, score float32, local bool) float64 {
	if local || score <= p.NearScore {
		return base
	}
	if p.RejectScore > 0 && score >= p.RejectScore {
		return -1
	}
	f := p.RemoteFactor
	if f <= 0 || f > 1 {
		f = DefaultPolicy.RemoteFactor
	}
	start := p.NearScore
	if start < 0 {
		start = 0
	}
	pref := base
	for s := start; s < score; s += ScoreCarrierSite {
		pref *= f
	}
	return pref
}
