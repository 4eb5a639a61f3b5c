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

package bitmap

import "github.com/RoaringBitmap/roaring/v2"

// Roaring is the default Bitmap backend: a compressed, SIMD-friendly set of
// uint32s well suited to the sparse, clustered RecordId sets a positional
// character index produces.
type Roaring struct {
	rb *roaring.Bitmap
}

// New constructs the default (Roaring) backend.
func New() Bitmap {
	return &Roaring{rb: roaring.New()}
}

// NewRoaring is the explicit constructor, for callers that want to pin the
// backend rather than take the package default.
func NewRoaring() *Roaring { return &Roaring{rb: roaring.New()} }

func (b *Roaring) Add(x uint32)      { b.rb.Add(x) }
func (b *Roaring) Remove(x uint32)   { b.rb.Remove(x) }
func (b *Roaring) Contains(x uint32) bool { return b.rb.Contains(x) }
func (b *Roaring) Cardinality() uint64    { return b.rb.GetCardinality() }
func (b *Roaring) IsEmpty() bool          { return b.rb.IsEmpty() }

func (b *Roaring) Clone() Bitmap {
	return &Roaring{rb: b.rb.Clone()}
}

func (b *Roaring) AndInPlace(other Bitmap) {
	o, ok := other.(*Roaring)
	if !ok {
		b.AndInPlace(toRoaring(other))
		return
	}
	b.rb.And(o.rb)
}

func (b *Roaring) OrInPlace(other Bitmap) {
	o, ok := other.(*Roaring)
	if !ok {
		b.OrInPlace(toRoaring(other))
		return
	}
	b.rb.Or(o.rb)
}

func (b *Roaring) AndNotInPlace(other Bitmap) {
	o, ok := other.(*Roaring)
	if !ok {
		b.AndNotInPlace(toRoaring(other))
		return
	}
	b.rb.AndNot(o.rb)
}

func (b *Roaring) AddRange(lo, hi uint64) { b.rb.AddRange(lo, hi) }

func (b *Roaring) ToSlice() []uint32 { return b.rb.ToArray() }

func (b *Roaring) Iterator() Iterator {
	return &roaringIterator{it: b.rb.Iterator()}
}

type roaringIterator struct {
	it roaring.IntPeekable
}

func (r *roaringIterator) HasNext() bool { return r.it.HasNext() }
func (r *roaringIterator) Next() uint32  { return r.it.Next() }

// toRoaring converts any Bitmap implementation into a *Roaring, used only
// on the (rare) cross-backend operation path.
func toRoaring(b Bitmap) *Roaring {
	if r, ok := b.(*Roaring); ok {
		return r
	}
	rb := roaring.New()
	it := b.Iterator()
	for it.HasNext() {
		rb.Add(it.Next())
	}
	return &Roaring{rb: rb}
}
