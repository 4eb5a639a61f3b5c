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

// Package store implements the record store and CRUD layer (component F):
// the RecordId allocator (monotonic with FreeList reuse), the ExternalRef
// parallel array, insert-on-existing-ExternalRef as the update path, bulk
// delete with threshold-triggered compaction, and the per-column
// charindex/lengthindex wiring insert/delete drive.
package store

import (
	"fmt"
	"unicode/utf8"

	"github.com/erigontech/likeidx/internal/bitmap"
	"github.com/erigontech/likeidx/internal/charindex"
	"github.com/erigontech/likeidx/internal/fold"
	"github.com/erigontech/likeidx/internal/lengthindex"
	"github.com/erigontech/likeidx/internal/pattern"
	"github.com/erigontech/likeidx/internal/planner"
)

// ExternalRef is the host's opaque, fixed-size row identifier. It doubles
// as the sequential-scan sort key: block number, then the record's slot
// offset within that block.
type ExternalRef struct {
	Block  uint64
	Offset uint32
}

// Less orders refs by block number, then offset, for the sequential-scan
// sort path.
func (r ExternalRef) Less(other ExternalRef) bool {
	if r.Block != other.Block {
		return r.Block < other.Block
	}
	return r.Offset < other.Offset
}

// DefaultCompactAt is the tombstone-count threshold that triggers an
// automatic compaction pass after a bulk delete.
const DefaultCompactAt = 1000

// columnSource adapts one shadow (sensitive or folded) of one column's
// charindex.ByteIndex + lengthindex.Index + cached text slice into
// pattern.Source, so the planner/matcher never need to know this package
// exists.
type columnSource struct {
	chars *charindex.ByteIndex
	lens  *lengthindex.Index
	texts *[]string
	live  *bitmap.Bitmap
}

func (c *columnSource) BytePos(b byte, pos int) bitmap.Bitmap { return c.chars.GetPos(b, pos) }
func (c *columnSource) ByteNeg(b byte, pos int) bitmap.Bitmap { return c.chars.GetNeg(b, pos) }
func (c *columnSource) ByteCache(b byte) bitmap.Bitmap        { return c.chars.Cache(b) }
func (c *columnSource) LengthExact(n int) bitmap.Bitmap       { return c.lens.Exact(n) }
func (c *columnSource) LengthGE(n int) bitmap.Bitmap          { return c.lens.GE(n) }
func (c *columnSource) MaxLength() int                        { return c.lens.MaxLength() }
func (c *columnSource) AllLive() bitmap.Bitmap                { return *c.live }
func (c *columnSource) Text(id uint32) (string, bool) {
	texts := *c.texts
	if int(id) >= len(texts) {
		return "", false
	}
	return texts[id], true
}

// column holds both shadows (case-sensitive and lowercase-folded) of one
// indexed column, plus their respective cached-text arrays.
type column struct {
	chars       *charindex.Column
	lens        *lengthindex.Column
	texts       []string
	foldedTexts []string

	sensitive columnSource
	folded    columnSource
}

func newColumn() *column {
	c := &column{
		chars: charindex.NewColumn(),
		lens:  lengthindex.NewColumn(),
	}
	c.sensitive = columnSource{chars: c.chars.Sensitive, lens: c.lens.Sensitive, texts: &c.texts}
	c.folded = columnSource{chars: c.chars.Folded, lens: c.lens.Folded, texts: &c.foldedTexts}
	return c
}

func (c *column) ensure(id uint32) {
	for uint32(len(c.texts)) <= id {
		c.texts = append(c.texts, "")
		c.foldedTexts = append(c.foldedTexts, "")
	}
}

func (c *column) set(id uint32, text string) {
	c.ensure(id)
	folded := fold.Fold(text)
	c.texts[id] = text
	c.foldedTexts[id] = folded
	c.chars.Index(id, text, folded)
	c.lens.Insert(id, utf8.RuneCountInString(text), utf8.RuneCountInString(folded))
}

func (c *column) unset(id uint32) {
	if int(id) >= len(c.texts) {
		return
	}
	c.chars.Unindex(id, c.texts[id], c.foldedTexts[id])
	c.lens.Unindex(id, utf8.RuneCountInString(c.texts[id]), utf8.RuneCountInString(c.foldedTexts[id]))
	c.texts[id] = ""
	c.foldedTexts[id] = ""
}

// Store is one index instance's record layer: RecordId allocation,
// ExternalRef resolution, tombstones, and the columns it keeps indexed.
type Store struct {
	columns   []*column
	refs      []ExternalRef
	refIndex  map[ExternalRef]uint32
	live      bitmap.Bitmap
	tombstone bitmap.Bitmap
	freeList  []uint32
	nextID    uint32
	compactAt int
}

// New constructs an empty store for numColumns indexed columns.
// compactAt <= 0 uses DefaultCompactAt.
func New(numColumns int, compactAt int) *Store {
	if compactAt <= 0 {
		compactAt = DefaultCompactAt
	}
	s := &Store{
		columns:   make([]*column, numColumns),
		refIndex:  map[ExternalRef]uint32{},
		live:      bitmap.New(),
		tombstone: bitmap.New(),
		compactAt: compactAt,
	}
	for i := range s.columns {
		s.columns[i] = newColumn()
		s.columns[i].sensitive.live = &s.live
		s.columns[i].folded.live = &s.live
	}
	return s
}

// NumColumns returns the number of indexed columns.
func (s *Store) NumColumns() int { return len(s.columns) }

// Sensitive and Folded return the case-sensitive and folded pattern.Source
// for column idx; StoreColumn wraps them to implement planner.ColumnSource.
func (s *Store) Sensitive(idx int) pattern.Source { return &s.columns[idx].sensitive }
func (s *Store) Folded(idx int) pattern.Source     { return &s.columns[idx].folded }

// Column implements planner.SourceProvider over this store, so a Store
// can be passed directly to planner.Execute.
func (s *Store) Column(idx int) planner.ColumnSource {
	return &StoreColumn{store: s, idx: idx}
}

// StoreColumn adapts one Store column to planner.ColumnSource.
type StoreColumn struct {
	store *Store
	idx   int
}

func (sc *StoreColumn) Sensitive() pattern.Source { return sc.store.Sensitive(sc.idx) }
func (sc *StoreColumn) Folded() pattern.Source     { return sc.store.Folded(sc.idx) }

// Live returns the current liveness bitmap (not a copy; callers must not
// mutate it).
func (s *Store) Live() bitmap.Bitmap { return s.live }

// Tombstone returns the current tombstone bitmap (not a copy).
func (s *Store) Tombstone() bitmap.Bitmap { return s.tombstone }

// HasRef reports whether ref currently names a live record, so a caller
// can distinguish Insert's fresh-insert path from its update-by-reinsert
// path before calling it.
func (s *Store) HasRef(ref ExternalRef) bool {
	_, ok := s.refIndex[ref]
	return ok
}

// Ref resolves id to its ExternalRef. ok is false for an id that was
// never assigned or is currently tombstoned.
func (s *Store) Ref(id uint32) (ref ExternalRef, ok bool) {
	if int(id) >= len(s.refs) || !s.live.Contains(id) {
		return ExternalRef{}, false
	}
	return s.refs[id], true
}

// Insert writes a record for ref with one value per column. If ref
// already names a live record, that slot is reclaimed and
// re-indexed in place (the update path) rather than allocating a new id.
func (s *Store) Insert(ref ExternalRef, values []string) (uint32, error) {
	if len(values) != len(s.columns) {
		return 0, fmt.Errorf("likeidx: insert expects %d column values, got %d", len(s.columns), len(values))
	}

	var id uint32
	if existing, ok := s.refIndex[ref]; ok {
		id = existing
		for _, c := range s.columns {
			c.unset(id)
		}
	} else if n := len(s.freeList); n > 0 {
		id = s.freeList[n-1]
		s.freeList = s.freeList[:n-1]
		s.tombstone.Remove(id)
	} else {
		id = s.nextID
		s.nextID++
	}

	for i, v := range values {
		s.columns[i].set(id, v)
	}
	for uint32(len(s.refs)) <= id {
		s.refs = append(s.refs, ExternalRef{})
	}
	s.refs[id] = ref
	s.refIndex[ref] = id
	s.live.Add(id)
	return id, nil
}

// BulkDelete invokes shouldDelete for every live record's ExternalRef,
// tombstoning and free-listing every match, and triggers Compact once the
// tombstone count reaches the configured threshold. Returns the number of
// records deleted.
func (s *Store) BulkDelete(shouldDelete func(ExternalRef) bool) int {
	deleted := 0
	it := s.live.Iterator()
	var toDelete []uint32
	for it.HasNext() {
		id := it.Next()
		if shouldDelete(s.refs[id]) {
			toDelete = append(toDelete, id)
		}
	}
	for _, id := range toDelete {
		ref := s.refs[id]
		s.tombstone.Add(id)
		s.live.Remove(id)
		delete(s.refIndex, ref)
		s.freeList = append(s.freeList, id)
		deleted++
	}
	if int(s.tombstone.Cardinality()) >= s.compactAt {
		s.Compact()
	}
	return deleted
}

// Compact subtracts the tombstone set from every bitmap the engine
// maintains and releases the cached strings of freed slots, then clears
// the tombstone bitmap. FreeList is deliberately left untouched and is no
// longer a subset of Tombstone afterward: the tombstone bitmap only tracks
// pending, not-yet-subtracted deletions for scan-time AND-NOT filtering,
// not a permanent ledger of every id ever freed. FreeList ids remain
// reusable either way — Insert's reclaim path tolerates an
// already-cleared tombstone bit (Remove on an empty bitmap is a no-op).
func (s *Store) Compact() {
	it := s.tombstone.Iterator()
	var freed []uint32
	for it.HasNext() {
		freed = append(freed, it.Next())
	}
	for _, c := range s.columns {
		c.chars.Compact(s.tombstone)
		c.lens.Compact(s.tombstone)
		// chars.Compact already subtracted these ids from every positional
		// bitmap; just release the cached strings, no need to re-Unindex.
		for _, id := range freed {
			if int(id) < len(c.texts) {
				c.texts[id] = ""
				c.foldedTexts[id] = ""
			}
		}
	}
	s.tombstone = bitmap.New()
}

// Cardinality returns the number of live (non-tombstoned) records.
func (s *Store) Cardinality() uint64 { return s.live.Cardinality() }

// ColumnMaxLength returns the highest character length present in column
// idx's case-sensitive length index (0 when it is empty), for Stats
// introspection. Tombstoned records still count until compaction.
func (s *Store) ColumnMaxLength(idx int) int {
	lens := s.columns[idx].lens.Sensitive
	for k := lens.MaxLength() - 1; k > 0; k-- {
		if !lens.Exact(k).IsEmpty() {
			return k
		}
	}
	return 0
}
