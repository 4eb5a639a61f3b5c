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

package engine

import "time"

// Stats is an in-process introspection snapshot: not the host's SQL-level
// statistics function, just enough for the dev CLI and tests to assert
// the compaction/tombstone invariants directly, plus cumulative CRUD
// counters for operational visibility.
type Stats struct {
	LiveCount        uint64
	TombstoneCount   uint64
	ColumnMaxLengths []int
	LastCompaction   time.Time
	InsertCount      uint64
	UpdateCount      uint64
	DeleteCount      uint64
}

// Stats takes a snapshot of the engine's current state.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	maxLens := make([]int, e.store.NumColumns())
	for i := range maxLens {
		maxLens[i] = e.store.ColumnMaxLength(i)
	}
	return Stats{
		LiveCount:        e.store.Cardinality(),
		TombstoneCount:   e.store.Tombstone().Cardinality(),
		ColumnMaxLengths: maxLens,
		LastCompaction:   e.lastCompaction,
		InsertCount:      e.insertCount,
		UpdateCount:      e.updateCount,
		DeleteCount:      e.deleteCount,
	}
}
