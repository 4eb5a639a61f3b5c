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

// Package pattern implements the LIKE/ILIKE parser and matcher (component
// D): it turns a pattern into an ordered list of segments plus
// leading/trailing `%` flags, applies cheap fast paths before falling
// back to the recursive windowed placement search, and folds ILIKE
// patterns through the same control flow as LIKE.
package pattern

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/erigontech/likeidx/internal/engineerr"
	"github.com/erigontech/likeidx/internal/fold"
)

// MaxPatternBytes bounds pattern length; exceeding it is reported as
// ErrInvalidPattern.
const MaxPatternBytes = 4096

// Segment is a maximal substring of a pattern containing no `%` (it may
// contain `_`).
type Segment struct {
	Text    string // raw characters, '_' included literally as a wildcard marker
	ByteLen int    // len(Text) in bytes
	CharLen int    // rune count of Text
}

// Pattern is the parsed form of a LIKE pattern.
type Pattern struct {
	Raw             string
	Segments        []Segment
	LeadingPercent  bool
	TrailingPercent bool
	UnderscoreCount int // total '_' across all segments
	PercentRuns     int // number of maximal runs of '%' (>=1 each)
	ConcreteChars   int // total non-'_' characters across all segments
}

// Parse parses raw into a Pattern, applying the case-sensitive (LIKE)
// reading. Use ParseFolded for ILIKE.
func Parse(raw string) (*Pattern, error) {
	if err := validate(raw); err != nil {
		return nil, err
	}
	return parse(raw), nil
}

// ParseFolded lowercase-folds raw before parsing, so every lookup the
// matcher performs afterwards goes against the folded shadow index (spec
// §4.4: "the parser lowercase-folds the pattern before parsing").
func ParseFolded(raw string) (*Pattern, error) {
	if err := validate(raw); err != nil {
		return nil, err
	}
	return parse(fold.Fold(raw)), nil
}

func validate(raw string) error {
	if len(raw) > MaxPatternBytes {
		return fmt.Errorf("%w: pattern exceeds %d bytes", engineerr.ErrInvalidPattern, MaxPatternBytes)
	}
	if strings.IndexByte(raw, 0) >= 0 {
		return fmt.Errorf("%w: pattern contains an embedded NUL", engineerr.ErrInvalidPattern)
	}
	return nil
}

func parse(raw string) *Pattern {
	p := &Pattern{Raw: raw}
	if raw == "" {
		return p
	}
	p.LeadingPercent = raw[0] == '%'
	p.TrailingPercent = raw[len(raw)-1] == '%'

	var parts []string
	var cur strings.Builder
	inPercentRun := false
	for _, r := range raw {
		if r == '%' {
			if !inPercentRun {
				p.PercentRuns++
				inPercentRun = true
			}
			if cur.Len() > 0 {
				parts = append(parts, cur.String())
				cur.Reset()
			}
			continue
		}
		inPercentRun = false
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}

	for _, s := range parts {
		seg := Segment{Text: s, ByteLen: len(s), CharLen: utf8.RuneCountInString(s)}
		p.Segments = append(p.Segments, seg)
		for _, r := range s {
			if r == '_' {
				p.UnderscoreCount++
			} else {
				p.ConcreteChars++
			}
		}
	}
	return p
}

// IsEmpty reports whether the pattern is the empty string.
func (p *Pattern) IsEmpty() bool { return p.Raw == "" }

// IsAllPercent reports whether the pattern is exactly "%".
func (p *Pattern) IsAllPercent() bool {
	return p.Raw == "%"
}

// HasPercent reports whether the pattern contains at least one `%`.
func (p *Pattern) HasPercent() bool { return p.PercentRuns > 0 }

// OnlyWildcards reports whether every character in the pattern is `%` or
// `_` (no concrete characters at all).
func (p *Pattern) OnlyWildcards() bool { return p.ConcreteChars == 0 }

// TotalCharLen is the sum of every segment's character length (the
// concrete + '_' characters, excluding `%` which contributes no length).
func (p *Pattern) TotalCharLen() int {
	n := 0
	for _, s := range p.Segments {
		n += s.CharLen
	}
	return n
}
