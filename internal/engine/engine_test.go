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

package engine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erigontech/likeidx/internal/engine"
	"github.com/erigontech/likeidx/internal/planner"
	"github.com/erigontech/likeidx/internal/registry"
	"github.com/erigontech/likeidx/internal/store"
)

var _ registry.Engine = (*engine.Engine)(nil)

func refsOf(blocks ...uint64) []store.ExternalRef {
	out := make([]store.ExternalRef, len(blocks))
	for i, b := range blocks {
		out[i] = store.ExternalRef{Block: b}
	}
	return out
}

func requireSameRefs(t *testing.T, want, got []store.ExternalRef) {
	t.Helper()
	require.ElementsMatch(t, want, got)
}

// S1: prefix, suffix, and underscore-wildcard queries over a small corpus.
func TestScenarioPrefixSuffixUnderscore(t *testing.T) {
	eng, err := engine.Open(engine.Config{}, 1)
	require.NoError(t, err)

	words := map[uint64]string{0: "apple", 1: "apply", 2: "grape", 3: "grail"}
	for b, w := range words {
		_, err := eng.Insert(store.ExternalRef{Block: b}, []string{w})
		require.NoError(t, err)
	}

	refs, err := eng.Query([]planner.Predicate{{Column: 0, Pattern: "app%", Mode: planner.LIKE}}, nil)
	require.NoError(t, err)
	requireSameRefs(t, refsOf(0, 1), refs)

	refs, err = eng.Query([]planner.Predicate{{Column: 0, Pattern: "%ple", Mode: planner.LIKE}}, nil)
	require.NoError(t, err)
	requireSameRefs(t, refsOf(0), refs)

	refs, err = eng.Query([]planner.Predicate{{Column: 0, Pattern: "g_a%", Mode: planner.LIKE}}, nil)
	require.NoError(t, err)
	requireSameRefs(t, refsOf(2, 3), refs)
}

// S2: ILIKE folds case, LIKE stays case-sensitive.
func TestScenarioILikeFoldsCase(t *testing.T) {
	eng, err := engine.Open(engine.Config{}, 1)
	require.NoError(t, err)

	words := map[uint64]string{0: "Abc", 1: "abc", 2: "ABC", 3: "abd"}
	for b, w := range words {
		_, err := eng.Insert(store.ExternalRef{Block: b}, []string{w})
		require.NoError(t, err)
	}

	refs, err := eng.Query([]planner.Predicate{{Column: 0, Pattern: "abc", Mode: planner.ILike}}, nil)
	require.NoError(t, err)
	requireSameRefs(t, refsOf(0, 1, 2), refs)

	refs, err = eng.Query([]planner.Predicate{{Column: 0, Pattern: "abc", Mode: planner.LIKE}}, nil)
	require.NoError(t, err)
	requireSameRefs(t, refsOf(1), refs)
}

// S3: bulk delete, tombstone accounting, and threshold-triggered compaction.
func TestScenarioBulkDeleteAndCompaction(t *testing.T) {
	eng, err := engine.Open(engine.Config{TombstoneCompactAt: 6000}, 1)
	require.NoError(t, err)

	for i := 0; i < 10000; i++ {
		_, err := eng.Insert(store.ExternalRef{Block: uint64(i)}, []string{"x"})
		require.NoError(t, err)
	}

	deleted, err := eng.BulkDelete(func(r store.ExternalRef) bool { return r.Block < 5000 })
	require.NoError(t, err)
	require.Equal(t, 5000, deleted)

	refs, err := eng.Query([]planner.Predicate{{Column: 0, Pattern: "%", Mode: planner.LIKE}}, nil)
	require.NoError(t, err)
	require.Len(t, refs, 5000)
	require.EqualValues(t, 5000, eng.Stats().TombstoneCount)

	deleted, err = eng.BulkDelete(func(r store.ExternalRef) bool { return r.Block >= 5000 && r.Block < 6000 })
	require.NoError(t, err)
	require.Equal(t, 1000, deleted)
	require.EqualValues(t, 0, eng.Stats().TombstoneCount, "threshold of 6000 should have fired compaction")

	refs, err = eng.Query([]planner.Predicate{{Column: 0, Pattern: "%", Mode: planner.LIKE}}, nil)
	require.NoError(t, err)
	require.Len(t, refs, 4000)
}

// S4: the planner must run the exact predicate before the prefix predicate.
func TestScenarioMultiColumnPlannerOrder(t *testing.T) {
	eng, err := engine.Open(engine.Config{}, 2)
	require.NoError(t, err)

	rows := []struct {
		block uint64
		name  string
		city  string
	}{
		{0, "Alice", "NYC"},
		{1, "Alicia", "NYC"},
		{2, "Alice", "LA"},
	}
	for _, r := range rows {
		_, err := eng.Insert(store.ExternalRef{Block: r.block}, []string{r.name, r.city})
		require.NoError(t, err)
	}

	preds := []planner.Predicate{
		{Column: 0, Pattern: "Alic%", Mode: planner.LIKE},
		{Column: 1, Pattern: "NYC", Mode: planner.LIKE},
	}
	plan, err := planner.Plan(preds)
	require.NoError(t, err)
	require.Equal(t, 1, plan[0].Pred.Column, "the exact city predicate must be planned before the name prefix")

	refs, err := eng.Query(preds, nil)
	require.NoError(t, err)
	requireSameRefs(t, refsOf(0, 1), refs)
}

// S5: multi-byte characters count as one character for both byte matching
// and underscore-wildcard length matching.
func TestScenarioMultiByteUnderscoreLength(t *testing.T) {
	eng, err := engine.Open(engine.Config{}, 1)
	require.NoError(t, err)
	_, err = eng.Insert(store.ExternalRef{Block: 0}, []string{"café"})
	require.NoError(t, err)

	cases := []struct {
		pattern string
		want    int
	}{
		{"%é%", 1},
		{"_af_", 1},
		{"____", 1},
		{"_____", 0},
	}
	for _, c := range cases {
		refs, err := eng.Query([]planner.Predicate{{Column: 0, Pattern: c.pattern, Mode: planner.LIKE}}, nil)
		require.NoError(t, err)
		require.Lenf(t, refs, c.want, "pattern %q", c.pattern)
	}
}

// S6: the recursive windowed matcher must respect segment ordering.
func TestScenarioWindowedMatcherOrdering(t *testing.T) {
	eng, err := engine.Open(engine.Config{}, 1)
	require.NoError(t, err)
	_, err = eng.Insert(store.ExternalRef{Block: 0}, []string{"AxBxCxD"})
	require.NoError(t, err)

	refs, err := eng.Query([]planner.Predicate{{Column: 0, Pattern: "A%B%C%D", Mode: planner.LIKE}}, nil)
	require.NoError(t, err)
	requireSameRefs(t, refsOf(0), refs)

	refs, err = eng.Query([]planner.Predicate{{Column: 0, Pattern: "A%D%B", Mode: planner.LIKE}}, nil)
	require.NoError(t, err)
	require.Empty(t, refs)
}

func TestInsertOnExistingRefIsUpdateNotDuplicate(t *testing.T) {
	eng, err := engine.Open(engine.Config{}, 1)
	require.NoError(t, err)
	ref := store.ExternalRef{Block: 1}
	id1, err := eng.Insert(ref, []string{"apple"})
	require.NoError(t, err)
	id2, err := eng.Insert(ref, []string{"grape"})
	require.NoError(t, err)
	require.Equal(t, id1, id2)
	require.EqualValues(t, 1, eng.Stats().LiveCount)
	require.EqualValues(t, 1, eng.Stats().InsertCount)
	require.EqualValues(t, 1, eng.Stats().UpdateCount)
}

// An update that shortens a column's character length must retract the
// record's old length-index membership, not just its char-index entries.
func TestUpdateReinsertRetractsOldLengthIndexEntry(t *testing.T) {
	eng, err := engine.Open(engine.Config{}, 1)
	require.NoError(t, err)
	ref := store.ExternalRef{Block: 1}
	_, err = eng.Insert(ref, []string{"abc"})
	require.NoError(t, err)

	refs, err := eng.Query([]planner.Predicate{{Column: 0, Pattern: "___", Mode: planner.LIKE}}, nil)
	require.NoError(t, err)
	requireSameRefs(t, refsOf(1), refs)

	_, err = eng.Insert(ref, []string{"ab"})
	require.NoError(t, err)

	refs, err = eng.Query([]planner.Predicate{{Column: 0, Pattern: "___", Mode: planner.LIKE}}, nil)
	require.NoError(t, err)
	require.Empty(t, refs, "old length-3 membership must not survive the update to a length-2 value")

	refs, err = eng.Query([]planner.Predicate{{Column: 0, Pattern: "__", Mode: planner.LIKE}}, nil)
	require.NoError(t, err)
	requireSameRefs(t, refsOf(1), refs)
}

func TestCompactIsIdempotent(t *testing.T) {
	eng, err := engine.Open(engine.Config{}, 1)
	require.NoError(t, err)
	_, err = eng.Insert(store.ExternalRef{Block: 1}, []string{"apple"})
	require.NoError(t, err)
	_, err = eng.BulkDelete(func(store.ExternalRef) bool { return true })
	require.NoError(t, err)
	require.NoError(t, eng.Compact())
	before := eng.Stats()
	require.NoError(t, eng.Compact())
	after := eng.Stats()
	require.Equal(t, before.LiveCount, after.LiveCount)
	require.Equal(t, before.TombstoneCount, after.TombstoneCount)
}

func TestInvalidateReleasesArenaAndTolerateReopen(t *testing.T) {
	eng, err := engine.Open(engine.Config{}, 1)
	require.NoError(t, err)
	_, err = eng.Insert(store.ExternalRef{Block: 1}, []string{"apple"})
	require.NoError(t, err)
	require.EqualValues(t, 1, eng.Stats().LiveCount)

	eng.Invalidate()
	require.EqualValues(t, 0, eng.Stats().LiveCount)

	_, err = eng.Insert(store.ExternalRef{Block: 2}, []string{"banana"})
	require.NoError(t, err)
	require.EqualValues(t, 1, eng.Stats().LiveCount)
}

func TestCloseRejectsFurtherOperations(t *testing.T) {
	eng, err := engine.Open(engine.Config{}, 1)
	require.NoError(t, err)
	require.NoError(t, eng.Close())

	_, err = eng.Insert(store.ExternalRef{Block: 1}, []string{"apple"})
	require.Error(t, err)

	_, err = eng.Query([]planner.Predicate{{Column: 0, Pattern: "%", Mode: planner.LIKE}}, nil)
	require.Error(t, err)
}

func TestQueryOrderedSortsByBlockThenOffset(t *testing.T) {
	eng, err := engine.Open(engine.Config{}, 1)
	require.NoError(t, err)
	for _, ref := range []store.ExternalRef{{Block: 3, Offset: 1}, {Block: 1, Offset: 5}, {Block: 1, Offset: 2}} {
		_, err := eng.Insert(ref, []string{"x"})
		require.NoError(t, err)
	}
	refs, err := eng.QueryOrdered([]planner.Predicate{{Column: 0, Pattern: "%", Mode: planner.LIKE}}, nil)
	require.NoError(t, err)
	require.Equal(t, []store.ExternalRef{{Block: 1, Offset: 2}, {Block: 1, Offset: 5}, {Block: 3, Offset: 1}}, refs)
}
