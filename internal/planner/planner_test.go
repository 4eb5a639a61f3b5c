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

package planner_test

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/likeidx/internal/bitmap"
	"github.com/erigontech/likeidx/internal/charindex"
	"github.com/erigontech/likeidx/internal/lengthindex"
	"github.com/erigontech/likeidx/internal/pattern"
	"github.com/erigontech/likeidx/internal/planner"
)

// fakeColumn is a minimal pattern.Source backed by the real charindex and
// lengthindex components (the planner never needs ILIKE folding in these
// tests, so Sensitive and Folded share the same backing index).
type fakeColumn struct {
	chars *charindex.ByteIndex
	lens  *lengthindex.Index
	texts map[uint32]string
	live  bitmap.Bitmap
}

func newFakeColumn() *fakeColumn {
	return &fakeColumn{
		chars: charindex.NewByteIndex(),
		lens:  lengthindex.New(),
		texts: map[uint32]string{},
		live:  bitmap.New(),
	}
}

func (f *fakeColumn) put(id uint32, text string) {
	f.chars.Index(id, text)
	f.lens.Insert(id, utf8.RuneCountInString(text))
	f.texts[id] = text
	f.live.Add(id)
}

func (f *fakeColumn) BytePos(b byte, pos int) bitmap.Bitmap { return f.chars.GetPos(b, pos) }
func (f *fakeColumn) ByteNeg(b byte, pos int) bitmap.Bitmap { return f.chars.GetNeg(b, pos) }
func (f *fakeColumn) ByteCache(b byte) bitmap.Bitmap        { return f.chars.Cache(b) }
func (f *fakeColumn) LengthExact(n int) bitmap.Bitmap       { return f.lens.Exact(n) }
func (f *fakeColumn) LengthGE(n int) bitmap.Bitmap          { return f.lens.GE(n) }
func (f *fakeColumn) MaxLength() int                        { return f.lens.MaxLength() }
func (f *fakeColumn) AllLive() bitmap.Bitmap                { return f.live }
func (f *fakeColumn) Text(id uint32) (string, bool) {
	t, ok := f.texts[id]
	return t, ok
}

func (f *fakeColumn) Sensitive() pattern.Source { return f }
func (f *fakeColumn) Folded() pattern.Source    { return f }

type fakeProvider struct {
	cols []*fakeColumn
}

func (p *fakeProvider) Column(idx int) planner.ColumnSource { return p.cols[idx] }

func TestPlanOrdersExactBeforePrefix(t *testing.T) {
	preds := []planner.Predicate{
		{Column: 0, Pattern: "Alic%", Mode: planner.LIKE},
		{Column: 1, Pattern: "NYC", Mode: planner.LIKE},
	}
	plan, err := planner.Plan(preds)
	require.NoError(t, err)
	require.Len(t, plan, 2)
	require.Equal(t, 1, plan[0].Pred.Column, "exact 'NYC' predicate must execute before the 'Alic%' prefix")
	require.True(t, plan[0].IsExact)
	require.False(t, plan[1].IsExact)
}

func TestExecuteMultiColumnAndInPlace(t *testing.T) {
	name := newFakeColumn()
	name.put(1, "Alice")
	name.put(2, "Alicia")
	name.put(3, "Alice")

	city := newFakeColumn()
	city.put(1, "NYC")
	city.put(2, "NYC")
	city.put(3, "LA")

	provider := &fakeProvider{cols: []*fakeColumn{name, city}}
	preds := []planner.Predicate{
		{Column: 0, Pattern: "Alic%", Mode: planner.LIKE},
		{Column: 1, Pattern: "NYC", Mode: planner.LIKE},
	}
	plan, err := planner.Plan(preds)
	require.NoError(t, err)

	result := planner.Execute(plan, provider, bitmap.New())
	require.ElementsMatch(t, []uint32{1, 2}, result.ToSlice())
}

func TestExecuteNotLikeComplement(t *testing.T) {
	col := newFakeColumn()
	col.put(1, "abc")
	col.put(2, "abd")
	col.put(3, "xyz")

	provider := &fakeProvider{cols: []*fakeColumn{col}}
	preds := []planner.Predicate{
		{Column: 0, Pattern: "ab%", Mode: planner.NotLike},
	}
	plan, err := planner.Plan(preds)
	require.NoError(t, err)

	result := planner.Execute(plan, provider, bitmap.New())
	require.ElementsMatch(t, []uint32{3}, result.ToSlice())
}

func TestExecuteSubtractsTombstones(t *testing.T) {
	col := newFakeColumn()
	col.put(1, "abc")
	col.put(2, "abd")

	provider := &fakeProvider{cols: []*fakeColumn{col}}
	preds := []planner.Predicate{{Column: 0, Pattern: "ab%", Mode: planner.LIKE}}
	plan, err := planner.Plan(preds)
	require.NoError(t, err)

	tomb := bitmap.New()
	tomb.Add(2)
	result := planner.Execute(plan, provider, tomb)
	require.ElementsMatch(t, []uint32{1}, result.ToSlice())
}
