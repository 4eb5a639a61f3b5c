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

import "math/bits"

// Dense is the trivial bit-array fallback backend: a plain []uint64 word
// array, grown on demand. No third-party dependency fits "bit array"
// better than the language's own word-sized integers.
type Dense struct {
	words []uint64
}

// NewDense constructs the bit-array fallback backend.
func NewDense() *Dense { return &Dense{} }

func (b *Dense) wordIndex(x uint32) int { return int(x >> 6) }
func (b *Dense) bitMask(x uint32) uint64 { return uint64(1) << (x & 63) }

func (b *Dense) ensure(wordIdx int) {
	if wordIdx < len(b.words) {
		return
	}
	grown := make([]uint64, wordIdx+1)
	copy(grown, b.words)
	b.words = grown
}

func (b *Dense) Add(x uint32) {
	wi := b.wordIndex(x)
	b.ensure(wi)
	b.words[wi] |= b.bitMask(x)
}

func (b *Dense) Remove(x uint32) {
	wi := b.wordIndex(x)
	if wi >= len(b.words) {
		return
	}
	b.words[wi] &^= b.bitMask(x)
}

func (b *Dense) Contains(x uint32) bool {
	wi := b.wordIndex(x)
	if wi >= len(b.words) {
		return false
	}
	return b.words[wi]&b.bitMask(x) != 0
}

func (b *Dense) Cardinality() uint64 {
	var n uint64
	for _, w := range b.words {
		n += uint64(bits.OnesCount64(w))
	}
	return n
}

func (b *Dense) IsEmpty() bool {
	for _, w := range b.words {
		if w != 0 {
			return false
		}
	}
	return true
}

func (b *Dense) Clone() Bitmap {
	words := make([]uint64, len(b.words))
	copy(words, b.words)
	return &Dense{words: words}
}

func (b *Dense) AndInPlace(other Bitmap) {
	o := toDense(other)
	n := len(b.words)
	if len(o.words) < n {
		n = len(o.words)
	}
	for i := 0; i < n; i++ {
		b.words[i] &= o.words[i]
	}
	for i := n; i < len(b.words); i++ {
		b.words[i] = 0
	}
}

func (b *Dense) OrInPlace(other Bitmap) {
	o := toDense(other)
	if len(o.words) > len(b.words) {
		b.ensure(len(o.words) - 1)
	}
	for i, w := range o.words {
		b.words[i] |= w
	}
}

func (b *Dense) AndNotInPlace(other Bitmap) {
	o := toDense(other)
	n := len(b.words)
	if len(o.words) < n {
		n = len(o.words)
	}
	for i := 0; i < n; i++ {
		b.words[i] &^= o.words[i]
	}
}

func (b *Dense) AddRange(lo, hi uint64) {
	for x := lo; x < hi; x++ {
		b.Add(uint32(x))
	}
}

func (b *Dense) ToSlice() []uint32 {
	out := make([]uint32, 0, b.Cardinality())
	it := b.Iterator()
	for it.HasNext() {
		out = append(out, it.Next())
	}
	return out
}

func (b *Dense) Iterator() Iterator {
	return &denseIterator{d: b}
}

type denseIterator struct {
	d       *Dense
	wordIdx int
	bitIdx  uint
	primed  bool
	next    uint32
	done    bool
}

func (it *denseIterator) advance() {
	for it.wordIdx < len(it.d.words) {
		w := it.d.words[it.wordIdx] >> it.bitIdx
		if w == 0 {
			it.wordIdx++
			it.bitIdx = 0
			continue
		}
		shift := bits.TrailingZeros64(w)
		it.next = uint32(it.wordIdx)*64 + uint32(it.bitIdx) + uint32(shift)
		it.bitIdx += uint(shift) + 1
		if it.bitIdx >= 64 {
			it.wordIdx++
			it.bitIdx = 0
		}
		it.primed = true
		return
	}
	it.done = true
}

func (it *denseIterator) HasNext() bool {
	if it.done {
		return false
	}
	if !it.primed {
		it.advance()
	}
	return !it.done
}

func (it *denseIterator) Next() uint32 {
	if !it.primed {
		it.advance()
	}
	v := it.next
	it.primed = false
	return v
}

func toDense(b Bitmap) *Dense {
	if d, ok := b.(*Dense); ok {
		return d
	}
	d := NewDense()
	it := b.Iterator()
	for it.HasNext() {
		d.Add(it.Next())
	}
	return d
}

