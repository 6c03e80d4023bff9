// Copyright 2022 someonegg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package locality

type UnifyRecord struct {
	Source Location
	Target Location
}

type tableUnifier struct {
	orig Unifier
	recs map[Location]Location
}

// NewTableUnifier overrides orig for the recorded locations. A nil orig
// leaves unrecorded locations unchanged.
func NewTableUnifier(orig Unifier, records []UnifyRecord) Unifier {
	recs := make(map[Location]Location)
	for _, rec := range records {
		recs[rec.Source] = rec.Target
	}
	return &tableUnifier{
		orig: orig,
		recs: recs,
	}
}

func (u *tableUnifier) Unify(l Location) Location {
	if t, ok := u.recs[l]; ok {
		return t
	}
	if u.orig == nil {
		return l
	}
	return u.orig.Unify(l)
}

type ScoreRecord struct {
	ScoreKey
	ScoreVal
}

type ScoreKey struct {
	Requester Location
	Bidder    Location
}

type ScoreVal struct {
	Score float32
	Local bool
}

type tableScorer struct {
	orig Scorer
	recs map[ScoreKey]ScoreVal
}

// NewTableScorer overrides orig for the recorded location pairs.
func NewTableScorer(orig Scorer, records []ScoreRecord) Scorer {
	recs := make(map[ScoreKey]ScoreVal)
	for _, rec := range records {
		recs[rec.ScoreKey] = rec.ScoreVal
	}
	return &tableScorer{
		orig: orig,
		recs: recs,
	}
}

func (s *tableScorer) Score(requester, bidder Location) (score float32, local bool) {
	key := ScoreKey{Requester: requester, Bidder: bidder}
	if val, ok := s.recs[key]; ok {
		return val.Score, val.Local
	}
	return s.orig.Score(requester, bidder)
}
