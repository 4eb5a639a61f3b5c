// Copyright 2024 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

// Package planner implements the multi-predicate query planner (component
// E): per-predicate pattern analysis, a selectivity score, tier-based
// execution ordering, and the AND-in-place execution loop with early exit
// on an empty candidate set.
package planner

import (
	"cmp"

	"golang.org/x/exp/slices"

	"github.com/erigontech/likeidx/internal/bitmap"
	"github.com/erigontech/likeidx/internal/engineerr"
	"github.com/erigontech/likeidx/internal/pattern"
)

// Mode is the LIKE/ILIKE variant of a predicate. Values match the
// operator strategy numbers the engine advertises to the host:
// 1=LIKE, 2=NOT LIKE, 3=ILIKE, 4=NOT ILIKE.
type Mode int

const (
	LIKE     Mode = 1
	NotLike  Mode = 2
	ILike    Mode = 3
	NotILike Mode = 4
)

// Folded reports whether this mode matches against the folded shadow
// index (ILIKE variants).
func (m Mode) Folded() bool { return m == ILike || m == NotILike }

// Negated reports whether this mode's result is the complement of the
// underlying (I)LIKE match (NOT variants).
func (m Mode) Negated() bool { return m == NotLike || m == NotILike }

// Predicate is one column's pattern constraint in a multi-predicate query.
type Predicate struct {
	Column  int
	Pattern string
	Mode    Mode
}

// ColumnSource supplies the sensitive and folded pattern.Source for one
// column, so the planner can pick the right shadow index per predicate
// mode without knowing anything about charindex/lengthindex directly.
type ColumnSource interface {
	Sensitive() pattern.Source
	Folded() pattern.Source
}

// SourceProvider resolves a column index to its ColumnSource.
type SourceProvider interface {
	Column(idx int) ColumnSource
}

// Analysis is one predicate's parsed pattern plus the tags/counts/score
// used both to order execution and (via Parsed) to run the match itself.
type Analysis struct {
	Pred     Predicate
	Parsed   *pattern.Pattern
	IsExact  bool
	IsPrefix bool
	IsSuffix bool
	IsSubstr bool

	ConcreteChars   int
	UnderscoreCount int
	PercentRuns     int
	PartitionCount  int
	AnchorStrength  int

	Score    float64
	Tier     int
	Priority int
}

// Analyze parses pred.Pattern (folded if the mode is an ILIKE variant) and
// computes its selectivity tags, counts, score, and tier.
func Analyze(pred Predicate) (*Analysis, error) {
	var p *pattern.Pattern
	var err error
	if pred.Mode.Folded() {
		p, err = pattern.ParseFolded(pred.Pattern)
	} else {
		p, err = pattern.Parse(pred.Pattern)
	}
	if err != nil {
		return nil, err
	}

	a := &Analysis{
		Pred:            pred,
		Parsed:          p,
		ConcreteChars:   p.ConcreteChars,
		UnderscoreCount: p.UnderscoreCount,
		PercentRuns:     p.PercentRuns,
		PartitionCount:  len(p.Segments),
	}
	a.IsExact = !p.HasPercent() && p.UnderscoreCount == 0
	a.IsPrefix = len(p.Segments) == 1 && !p.LeadingPercent && p.TrailingPercent
	a.IsSuffix = len(p.Segments) == 1 && p.LeadingPercent && !p.TrailingPercent
	a.IsSubstr = p.LeadingPercent && p.TrailingPercent
	a.AnchorStrength = anchorStrength(p)
	a.Score = selectivityScore(a)
	a.Tier = tier(a)
	a.Priority = a.Tier + int(10*a.Score)
	return a, nil
}

// anchorStrength sums 10 per concrete char and 3 per '_' across the
// leading and trailing anchor runs (the first segment when the pattern
// has no leading %, the last segment when it has no trailing %; a
// single-segment no-% pattern is its own anchor on both sides and is
// counted once), capped at 100.
func anchorStrength(p *pattern.Pattern) int {
	if len(p.Segments) == 0 {
		return 0
	}
	leadIdx, trailIdx := -1, -1
	if !p.LeadingPercent {
		leadIdx = 0
	}
	if !p.TrailingPercent {
		trailIdx = len(p.Segments) - 1
	}
	sum := 0
	counted := map[int]bool{}
	for _, idx := range []int{leadIdx, trailIdx} {
		if idx < 0 || counted[idx] {
			continue
		}
		counted[idx] = true
		for _, r := range p.Segments[idx].Text {
			if r == '_' {
				sum += 3
			} else {
				sum += 10
			}
		}
	}
	if sum > 100 {
		sum = 100
	}
	return sum
}

// selectivityScore computes a lower-is-more-selective score from a
// predicate's pattern shape: fewer concrete characters, more segments, and
// an unanchored substring all push the score up toward being tried last,
// while each underscore and a stronger anchor pull it down.
func selectivityScore(a *Analysis) float64 {
	base := 1.0 / float64(a.ConcreteChars+1)
	var s float64
	if a.IsExact {
		s = base * 0.1
	} else {
		s = base
	}
	s -= 0.05 * float64(a.UnderscoreCount)
	s += 0.15 * float64(a.PartitionCount)
	s -= float64(a.AnchorStrength) / 200
	if a.IsSubstr {
		s += 0.5
	}
	if s < 0.01 {
		s = 0.01
	}
	if s > 1.0 {
		s = 1.0
	}
	return s
}

// tier assigns the coarse execution-order bucket: exact matches first, then no-% patterns with underscores, then anchored
// single-segment patterns (split by anchor strength), then general
// multi-segment patterns, then unanchored substrings last. A pattern that
// is simultaneously a substring (leading+trailing %) and multi-segment is
// treated as substring: the absence of any anchor dominates selectivity
// more than the extra segment does.
func tier(a *Analysis) int {
	switch {
	case !a.Parsed.HasPercent():
		if a.UnderscoreCount == 0 {
			return 0
		}
		return 10
	case a.IsSubstr:
		return 50
	case a.PartitionCount >= 2:
		return 40
	case a.IsPrefix || a.IsSuffix:
		if a.AnchorStrength >= 50 {
			return 20
		}
		return 30
	default:
		return 35
	}
}

// Plan analyzes every predicate and returns them in execution order
// (lower priority first; ties broken by selectivity, then column index).
func Plan(preds []Predicate) ([]*Analysis, error) {
	out := make([]*Analysis, 0, len(preds))
	for _, p := range preds {
		a, err := Analyze(p)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	slices.SortStableFunc(out, func(x, y *Analysis) int {
		if c := cmp.Compare(x.Priority, y.Priority); c != 0 {
			return c
		}
		if c := cmp.Compare(x.Score, y.Score); c != 0 {
			return c
		}
		return cmp.Compare(x.Pred.Column, y.Pred.Column)
	})
	return out, nil
}

// Execute runs the planned predicates in order against cols, AND-ing each
// subsequent predicate's bitmap into the running candidate set and
// stopping early once it goes empty, then subtracts tombstones.
func Execute(plan []*Analysis, cols SourceProvider, tombstones bitmap.Bitmap) bitmap.Bitmap {
	result, _ := ExecuteCancelable(plan, cols, tombstones, nil)
	return result
}

// ExecuteCancelable is Execute with an optional interrupt hook, checked
// between predicates for cooperative cancellation. A nil interrupt behaves
// exactly like Execute. When interrupt reports true,
// ExecuteCancelable stops and returns engineerr.ErrCancelled.
func ExecuteCancelable(plan []*Analysis, cols SourceProvider, tombstones bitmap.Bitmap, interrupt func() bool) (bitmap.Bitmap, error) {
	if len(plan) == 0 {
		return bitmap.New(), nil
	}
	var result bitmap.Bitmap
	for _, a := range plan {
		if interrupt != nil && interrupt() {
			return bitmap.New(), engineerr.ErrCancelled
		}
		col := cols.Column(a.Pred.Column)
		var src pattern.Source
		if a.Pred.Mode.Folded() {
			src = col.Folded()
		} else {
			src = col.Sensitive()
		}
		bm := pattern.Match(src, a.Parsed)
		if a.Pred.Mode.Negated() {
			complement := src.AllLive().Clone()
			complement.AndNotInPlace(bm)
			bm = complement
		}
		if result == nil {
			result = bm.Clone()
		} else {
			result.AndInPlace(bm)
		}
		if result.IsEmpty() {
			break
		}
	}
	if result == nil {
		result = bitmap.New()
	}
	result.AndNotInPlace(tombstones)
	return result, nil
}
