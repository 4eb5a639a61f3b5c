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

// Package fold implements the deterministic, locale-unaware lowercase fold
// used by the ILIKE shadow index. It deliberately does not perform
// collation-aware or Unicode-normalization-aware case conversion beyond
// simple lowercasing (spec Non-goals).
package fold

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// caser is locale-independent (language.Und means "undetermined": no
// per-language tailoring rules are applied), which is what keeps this
// simple lowercasing rather than collation-aware folding.
var caser = cases.Lower(language.Und)

// Fold returns the lowercase form of s. Fold(Fold(x)) == Fold(x).
func Fold(s string) string {
	return caser.String(s)
}
