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

import (
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/erigontech/likeidx/internal/bitmap"
	"github.com/erigontech/likeidx/internal/engineerr"
	"github.com/erigontech/likeidx/internal/store"
	"github.com/erigontech/likeidx/internal/xmath"
)

// assembleTIDs resolves every RecordId set in bm to its ExternalRef:
// directly on the calling goroutine below cfg.SmallResultLimit, or fanned
// out across 2-4 errgroup workers above it for bulk result sets.
func (e *Engine) assembleTIDs(bm bitmap.Bitmap, interrupt func() bool) ([]store.ExternalRef, error) {
	n := int(bm.Cardinality())
	if n == 0 {
		return nil, nil
	}
	if n < e.cfg.SmallResultLimit {
		refs := make([]store.ExternalRef, 0, n)
		it := bm.Iterator()
		for it.HasNext() {
			if interrupt != nil && interrupt() {
				return nil, engineerr.ErrCancelled
			}
			id := it.Next()
			if ref, ok := e.store.Ref(id); ok {
				refs = append(refs, ref)
			}
		}
		return refs, nil
	}

	ids := bm.ToSlice()
	chunks := xmath.ChunkCount(len(ids))
	chunkSize := xmath.CeilDiv(len(ids), chunks)
	out := make([]store.ExternalRef, len(ids))
	found := make([]bool, len(ids))

	var g errgroup.Group
	for c := 0; c < chunks; c++ {
		start := c * chunkSize
		end := start + chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		if start >= end {
			continue
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				if interrupt != nil && interrupt() {
					return engineerr.ErrCancelled
				}
				if ref, ok := e.store.Ref(ids[i]); ok {
					out[i] = ref
					found[i] = true
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Drop the slots of ids Ref did not resolve (not live). Misses are
	// tracked in found because a zero-value ExternalRef is itself a valid
	// ref.
	live := out[:0]
	for i, ref := range out {
		if found[i] {
			live = append(live, ref)
		}
	}
	return live, nil
}

// sequentialSortRadixThreshold is the ExternalRef count above which
// SortForSequentialScan switches from a comparison sort to radix sort.
const sequentialSortRadixThreshold = 5000

// SortForSequentialScan orders refs the way a sequential index scan must
// return rows: by block number, then offset. Bitmap/aggregate
// scans should call Query directly and skip this — only an ordered scan
// needs the cost of sorting.
func SortForSequentialScan(refs []store.ExternalRef) {
	if len(refs) < sequentialSortRadixThreshold {
		sort.SliceStable(refs, func(i, j int) bool { return refs[i].Less(refs[j]) })
		return
	}
	radixSortRefs(refs)
}

// radixSortRefs is a two-pass LSD radix sort over ExternalRef.Block's low
// and high 32-bit halves (each pass itself byte-wise for a fixed 256-bucket
// working set), followed by a byte-radix sort of Offset within each
// contiguous same-Block run — an offset-wise "counting sort" in spirit,
// implemented via the same byte-radix primitive since Offset's full range
// is too wide for a literal counting sort bucket array.
func radixSortRefs(refs []store.ExternalRef) {
	byteRadixSort(refs, 4, func(r store.ExternalRef) uint64 { return uint64(uint32(r.Block)) })       // pass 1: low 32 bits
	byteRadixSort(refs, 4, func(r store.ExternalRef) uint64 { return uint64(uint32(r.Block >> 32)) }) // pass 2: high 32 bits, stable over pass 1's order

	n := len(refs)
	i := 0
	for i < n {
		j := i
		for j < n && refs[j].Block == refs[i].Block {
			j++
		}
		byteRadixSort(refs[i:j], 4, func(r store.ExternalRef) uint64 { return uint64(r.Offset) })
		i = j
	}
}

// byteRadixSort stably sorts items by the low passes*8 bits of key, one
// byte at a time. passes must be even, so the final result always lands
// back in items rather than the internal scratch buffer.
func byteRadixSort(items []store.ExternalRef, passes int, key func(store.ExternalRef) uint64) {
	n := len(items)
	if n < 2 {
		return
	}
	tmp := make([]store.ExternalRef, n)
	src, dst := items, tmp
	for p := 0; p < passes; p++ {
		shift := uint(p * 8)
		var count [257]int
		for _, r := range src {
			b := byte(key(r) >> shift)
			count[b+1]++
		}
		for i := 0; i < 256; i++ {
			count[i+1] += count[i]
		}
		for _, r := range src {
			b := byte(key(r) >> shift)
			dst[count[b]] = r
			count[b]++
		}
		src, dst = dst, src
	}
}
