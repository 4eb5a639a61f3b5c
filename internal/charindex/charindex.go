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

// Package charindex implements the positional character index (component
// B): for every indexed byte, an ordered map from character position to the
// bitmap of RecordIds whose text has that byte at that position, kept both
// forward (position >= 0, relative to the start of the text) and reverse
// (position < 0, relative to the end). A coarse per-byte "cache" union is
// kept alongside as a pre-filter.
package charindex

import (
	"unicode/utf8"

	"github.com/google/btree"

	"github.com/erigontech/likeidx/internal/bitmap"
)

// posEntry is one node of the per-byte ordered position map.
type posEntry struct {
	pos int32
	bm  bitmap.Bitmap
}

func lessEntry(a, b posEntry) bool { return a.pos < b.pos }

const btreeDegree = 32

// ByteIndex holds the pos/neg/cache structures for all 256 byte values of
// one (column, fold) pair.
type ByteIndex struct {
	pos   [256]*btree.BTreeG[posEntry]
	neg   [256]*btree.BTreeG[posEntry]
	cache [256]bitmap.Bitmap
}

// NewByteIndex constructs an empty positional index for one column/fold.
func NewByteIndex() *ByteIndex {
	return &ByteIndex{}
}

func (bi *ByteIndex) treeFor(tbl *[256]*btree.BTreeG[posEntry], b byte) *btree.BTreeG[posEntry] {
	if tbl[b] == nil {
		tbl[b] = btree.NewG(btreeDegree, lessEntry)
	}
	return tbl[b]
}

func unionInto(tbl *[256]bitmap.Bitmap, b byte, id uint32) {
	if tbl[b] == nil {
		tbl[b] = bitmap.New()
	}
	tbl[b].Add(id)
}

// IndexCharacter creates or unions id into pos[b][charPos],
// neg[b][charPos-textLen], and cache[b].
// Callers must invoke this for every byte of every UTF-8 character, using
// the same charPos for every byte of one character.
func (bi *ByteIndex) IndexCharacter(id uint32, charPos int, textLen int, b byte) {
	bi.upsert(&bi.pos, b, int32(charPos), id)
	bi.upsert(&bi.neg, b, int32(charPos-textLen), id)
	unionInto(&bi.cache, b, id)
}

func (bi *ByteIndex) upsert(tbl *[256]*btree.BTreeG[posEntry], b byte, pos int32, id uint32) {
	tr := bi.treeFor(tbl, b)
	e, ok := tr.Get(posEntry{pos: pos})
	if !ok {
		e = posEntry{pos: pos, bm: bitmap.New()}
	}
	e.bm.Add(id)
	tr.ReplaceOrInsert(e)
}

// UnindexCharacter removes id from the same three locations IndexCharacter
// would have populated, symmetric by construction. Used on the
// update-by-reinsert path (store.Insert reclaiming an existing ExternalRef's
// slot) where the exact prior positions must be un-recorded immediately
// rather than waiting for tombstone compaction.
func (bi *ByteIndex) UnindexCharacter(id uint32, charPos int, textLen int, b byte) {
	bi.remove(&bi.pos, b, int32(charPos), id)
	bi.remove(&bi.neg, b, int32(charPos-textLen), id)
	if bi.cache[b] != nil {
		bi.cache[b].Remove(id)
	}
}

func (bi *ByteIndex) remove(tbl *[256]*btree.BTreeG[posEntry], b byte, pos int32, id uint32) {
	tr := tbl[b]
	if tr == nil {
		return
	}
	e, ok := tr.Get(posEntry{pos: pos})
	if !ok {
		return
	}
	e.bm.Remove(id)
	if e.bm.IsEmpty() {
		tr.Delete(posEntry{pos: pos})
	}
}

// GetPos returns the bitmap at pos[b][p], or the shared empty sentinel.
// Never heap-allocates on a miss.
func (bi *ByteIndex) GetPos(b byte, p int) bitmap.Bitmap {
	return lookup(bi.pos[b], int32(p))
}

// GetNeg returns the bitmap at neg[b][p] (p expected <= -1), or empty.
func (bi *ByteIndex) GetNeg(b byte, p int) bitmap.Bitmap {
	return lookup(bi.neg[b], int32(p))
}

// Cache returns the coarse union bitmap for byte b, or empty.
func (bi *ByteIndex) Cache(b byte) bitmap.Bitmap {
	if bi.cache[b] == nil {
		return bitmap.Empty()
	}
	return bi.cache[b]
}

func lookup(tr *btree.BTreeG[posEntry], pos int32) bitmap.Bitmap {
	if tr == nil {
		return bitmap.Empty()
	}
	e, ok := tr.Get(posEntry{pos: pos})
	if !ok {
		return bitmap.Empty()
	}
	return e.bm
}

// Compact removes tombstoned ids from every bitmap this index owns — the
// positional pos/neg entries and the per-byte cache — in place, so that
// no tombstoned id remains reachable through any positional bitmap after
// compaction. Entries that become empty are dropped so the tree does not
// grow without bound across repeated delete/compact cycles.
func (bi *ByteIndex) Compact(tombstones bitmap.Bitmap) {
	for b := 0; b < 256; b++ {
		compactTree(bi.pos[b], tombstones)
		compactTree(bi.neg[b], tombstones)
		if bi.cache[b] != nil {
			bi.cache[b].AndNotInPlace(tombstones)
		}
	}
}

func compactTree(tr *btree.BTreeG[posEntry], tombstones bitmap.Bitmap) {
	if tr == nil {
		return
	}
	var toDelete []posEntry
	tr.Ascend(func(e posEntry) bool {
		e.bm.AndNotInPlace(tombstones)
		if e.bm.IsEmpty() {
			toDelete = append(toDelete, e)
		}
		return true
	})
	for _, e := range toDelete {
		tr.Delete(e)
	}
}

// Index walks text character-by-character (UTF-8 aware) and indexes every
// byte of every character at that character's position: for every byte of
// every character, it inserts the record id into the (byte, char-position)
// bitmap at both positive and negative positions.
func (bi *ByteIndex) Index(id uint32, text string) {
	charLen := utf8.RuneCountInString(text)
	charPos := 0
	for i := 0; i < len(text); {
		_, size := utf8.DecodeRuneInString(text[i:])
		for j := 0; j < size; j++ {
			bi.IndexCharacter(id, charPos, charLen, text[i+j])
		}
		i += size
		charPos++
	}
}

// Unindex is the inverse of Index, used on the update-by-reinsert path.
func (bi *ByteIndex) Unindex(id uint32, text string) {
	charLen := utf8.RuneCountInString(text)
	charPos := 0
	for i := 0; i < len(text); {
		_, size := utf8.DecodeRuneInString(text[i:])
		for j := 0; j < size; j++ {
			bi.UnindexCharacter(id, charPos, charLen, text[i+j])
		}
		i += size
		charPos++
	}
}

// Column bundles the case-sensitive and folded positional indexes for one
// indexed column.
type Column struct {
	Sensitive *ByteIndex
	Folded    *ByteIndex
}

// NewColumn constructs an empty Column.
func NewColumn() *Column {
	return &Column{Sensitive: NewByteIndex(), Folded: NewByteIndex()}
}

// Index indexes text (case-sensitive) and foldedText (its lowercase fold)
// for id, keeping both shadow indexes in lockstep.
func (c *Column) Index(id uint32, text, foldedText string) {
	c.Sensitive.Index(id, text)
	c.Folded.Index(id, foldedText)
}

// Unindex is the inverse of Index.
func (c *Column) Unindex(id uint32, text, foldedText string) {
	c.Sensitive.Unindex(id, text)
	c.Folded.Unindex(id, foldedText)
}

// Compact drops tombstoned ids from both shadow indexes.
func (c *Column) Compact(tombstones bitmap.Bitmap) {
	c.Sensitive.Compact(tombstones)
	c.Folded.Compact(tombstones)
}
