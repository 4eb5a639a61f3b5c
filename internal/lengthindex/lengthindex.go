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

// Package lengthindex implements the length index (component C):
// exact-length and length->= bitmaps per column/fold, with the invariant
// LengthGEBitmap[k] = union over j>=k of LengthExactBitmap[j].
//
// Arrays grow geometrically and use a half-open [0, max) convention
// throughout: index max is never a valid slot, growth always allocates at
// least length+1 entries.
package lengthindex

import (
	"github.com/erigontech/likeidx/internal/bitmap"
	"github.com/erigontech/likeidx/internal/xmath"
)

// Index holds the exact/GE arrays for one (column, fold) pair.
type Index struct {
	exact []bitmap.Bitmap
	ge    []bitmap.Bitmap
}

// New constructs an empty length index.
func New() *Index { return &Index{} }

func (ix *Index) ensure(need int) {
	if need <= len(ix.exact) {
		return
	}
	newCap := xmath.GrowCapacity(len(ix.exact), need)
	grownExact := make([]bitmap.Bitmap, newCap)
	grownGE := make([]bitmap.Bitmap, newCap)
	copy(grownExact, ix.exact)
	copy(grownGE, ix.ge)
	for i := len(ix.exact); i < newCap; i++ {
		grownExact[i] = bitmap.New()
		grownGE[i] = bitmap.New()
	}
	ix.exact = grownExact
	ix.ge = grownGE
}

// Insert adds id to LengthExactBitmap[length] and to LengthGEBitmap[k] for
// every k in [0, length].
func (ix *Index) Insert(id uint32, length int) {
	ix.ensure(length + 1)
	ix.exact[length].Add(id)
	for k := 0; k <= length; k++ {
		ix.ge[k].Add(id)
	}
}

// Unindex removes id from LengthExactBitmap[length] and from
// LengthGEBitmap[k] for every k in [0, length], symmetric with Insert.
// Used on the update-by-reinsert path, where the record's old length must
// be un-recorded immediately rather than waiting for tombstone compaction.
func (ix *Index) Unindex(id uint32, length int) {
	if length >= 0 && length < len(ix.exact) {
		ix.exact[length].Remove(id)
	}
	top := length
	if top >= len(ix.ge) {
		top = len(ix.ge) - 1
	}
	for k := 0; k <= top; k++ {
		ix.ge[k].Remove(id)
	}
}

// Exact returns LengthExactBitmap[length], or empty if length was never
// indexed.
func (ix *Index) Exact(length int) bitmap.Bitmap {
	if length < 0 || length >= len(ix.exact) {
		return bitmap.Empty()
	}
	return ix.exact[length]
}

// GE returns LengthGEBitmap[k]: records whose length is >= k. k<=0 is
// treated as 0 (every indexed record); k at or beyond the allocated array
// length returns empty.
func (ix *Index) GE(k int) bitmap.Bitmap {
	if k <= 0 {
		k = 0
	}
	if k >= len(ix.ge) {
		return bitmap.Empty()
	}
	return ix.ge[k]
}

// MaxLength returns the half-open upper bound of indexed lengths: valid
// lengths are [0, MaxLength()).
func (ix *Index) MaxLength() int { return len(ix.exact) }

// Compact subtracts tombstones from every exact/GE bitmap in place.
func (ix *Index) Compact(tombstones bitmap.Bitmap) {
	for i := range ix.exact {
		ix.exact[i].AndNotInPlace(tombstones)
		ix.ge[i].AndNotInPlace(tombstones)
	}
}

// Column bundles the case-sensitive and folded length indexes for one
// indexed column (folded text may have a different character length than
// the sensitive text, e.g. 'İ' lowercasing to 'i' plus a combining dot,
// hence two independent sets of
// arrays rather than one shared by length value).
type Column struct {
	Sensitive *Index
	Folded    *Index
}

// NewColumn constructs an empty Column.
func NewColumn() *Column { return &Column{Sensitive: New(), Folded: New()} }

// Insert indexes both the sensitive and folded character lengths for id.
func (c *Column) Insert(id uint32, length, foldedLength int) {
	c.Sensitive.Insert(id, length)
	c.Folded.Insert(id, foldedLength)
}

// Unindex removes id's sensitive and folded character lengths, symmetric
// with Insert.
func (c *Column) Unindex(id uint32, length, foldedLength int) {
	c.Sensitive.Unindex(id, length)
	c.Folded.Unindex(id, foldedLength)
}

// Compact drops tombstoned ids from both shadow indexes.
func (c *Column) Compact(tombstones bitmap.Bitmap) {
	c.Sensitive.Compact(tombstones)
	c.Folded.Compact(tombstones)
}
