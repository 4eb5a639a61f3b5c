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

// Package bitmap is the compressed RecordId-set primitive (component A):
// create/add/remove/contains/cardinality/clone, in-place AND/OR/AND-NOT,
// add_range, and a forward-only iterator. Two backends satisfy the Bitmap
// interface — Roaring (the default, SIMD-friendly compressed backend) and
// Dense (a trivial bit-array fallback) — callers pick one constructor and
// never observe which is behind the interface.
package bitmap

// Bitmap is a compressed set of 32-bit RecordIds.
type Bitmap interface {
	Add(x uint32)
	Remove(x uint32)
	Contains(x uint32) bool
	Cardinality() uint64
	IsEmpty() bool
	Clone() Bitmap
	AndInPlace(other Bitmap)
	OrInPlace(other Bitmap)
	AndNotInPlace(other Bitmap)
	AddRange(lo, hi uint64)
	Iterator() Iterator
	ToSlice() []uint32
}

// Iterator yields RecordIds in ascending order. Callers must not mutate the
// source bitmap while iterating.
type Iterator interface {
	HasNext() bool
	Next() uint32
}

// Empty returns a shared empty bitmap sentinel used when a (byte, position)
// lookup misses; callers must treat it as read-only.
func Empty() Bitmap { return emptySentinel }

var emptySentinel = New()
