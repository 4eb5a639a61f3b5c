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

package charindex_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/likeidx/internal/bitmap"
	"github.com/erigontech/likeidx/internal/charindex"
)

func TestIndexPositiveAndNegativePositions(t *testing.T) {
	bi := charindex.NewByteIndex()
	bi.Index(1, "apple")

	// 'a' is at char position 0, and -5 (5 chars total).
	require.True(t, bi.GetPos('a', 0).Contains(1))
	require.True(t, bi.GetNeg('a', -5).Contains(1))
	// 'e' is the last char: position 4, negative position -1.
	require.True(t, bi.GetPos('e', 4).Contains(1))
	require.True(t, bi.GetNeg('e', -1).Contains(1))

	require.True(t, bi.Cache('p').Contains(1))
	require.True(t, bi.GetPos('z', 0).IsEmpty())
}

func TestMultiByteCharacterSamePosition(t *testing.T) {
	bi := charindex.NewByteIndex()
	// 'é' encodes as bytes 0xC3 0xA9; both must land at the same char
	// position (3, the last character of "café"), and at negative -1.
	bi.Index(7, "café")
	require.True(t, bi.GetPos(0xC3, 3).Contains(7))
	require.True(t, bi.GetPos(0xA9, 3).Contains(7))
	require.True(t, bi.GetNeg(0xC3, -1).Contains(7))
	require.True(t, bi.GetNeg(0xA9, -1).Contains(7))
}

func TestUnindexRemovesExactly(t *testing.T) {
	bi := charindex.NewByteIndex()
	bi.Index(1, "abc")
	bi.Index(2, "abc")
	bi.Unindex(1, "abc")

	require.False(t, bi.GetPos('a', 0).Contains(1))
	require.True(t, bi.GetPos('a', 0).Contains(2))
}

func TestCompactSubtractsTombstones(t *testing.T) {
	bi := charindex.NewByteIndex()
	bi.Index(1, "abc")
	bi.Index(2, "abc")

	tomb := bitmap.New()
	tomb.Add(1)
	bi.Compact(tomb)

	require.False(t, bi.GetPos('a', 0).Contains(1))
	require.True(t, bi.GetPos('a', 0).Contains(2))
}
