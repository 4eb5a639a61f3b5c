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

// Package xmath holds the small overflow-checked integer helpers the index
// engine needs for capacity growth and chunk sizing.
package xmath

import "math/bits"

// SafeAdd returns x+y and whether the addition overflowed uint64.
func SafeAdd(x, y uint64) (uint64, bool) {
	sum, carryOut := bits.Add64(x, y, 0)
	return sum, carryOut != 0
}

// SafeMul returns x*y and whether the multiplication overflowed uint64.
func SafeMul(x, y uint64) (uint64, bool) {
	hi, lo := bits.Mul64(x, y)
	return lo, hi != 0
}

// CeilDiv returns ceil(x/y), or 0 when y is 0.
func CeilDiv(x, y int) int {
	if y == 0 {
		return 0
	}
	return (x + y - 1) / y
}

// GrowCapacity doubles cur until it is >= need, starting from a floor of 8.
// Used by lengthindex for geometric array growth.
func GrowCapacity(cur, need int) int {
	if cur < 8 {
		cur = 8
	}
	for cur < need {
		grown, overflow := SafeMul(uint64(cur), 2)
		if overflow || grown > uint64(^uint(0)>>1) {
			return need
		}
		cur = int(grown)
	}
	return cur
}

// ChunkCount picks how many workers (2-4) should split cardinality c for
// parallel TID assembly, per the engine's large-result-set fan-out rule.
func ChunkCount(c int) int {
	switch {
	case c <= 0:
		return 0
	case c < 40000:
		return 2
	case c < 200000:
		return 3
	default:
		return 4
	}
}
