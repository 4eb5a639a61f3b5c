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

// Package engine is the public façade tying components A-F together: a
// per-index Engine guarding a *store.Store with an RWMutex (shared for
// Query/Stats, exclusive for mutation), the planner-driven Query path, TID
// assembly and ordering, rebuild-from-source, and the metadata marker page.
package engine

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/erigontech/likeidx/internal/engineerr"
	"github.com/erigontech/likeidx/internal/planner"
	"github.com/erigontech/likeidx/internal/store"
)

// errClosed is returned by any operation on an Engine after Close.
var errClosed = errors.New("likeidx: engine is closed")

// Operator strategy numbers the engine advertises to a host planner (spec
// §6), shared with planner.Mode's values.
const (
	StrategyLike     = int(planner.LIKE)
	StrategyNotLike  = int(planner.NotLike)
	StrategyILike    = int(planner.ILike)
	StrategyNotILike = int(planner.NotILike)
)

// Cost hint constants: a LIKE-indexed scan has no startup cost, near-best
// selectivity, and claims perfect correlation.
const (
	CostStartup     = 0.0
	CostSelectivity = 0.01
	CostCorrelation = 1.0
)

// CostTotal estimates total scan cost for pages candidate pages at the
// given random-page cost.
func CostTotal(pages, randomPageCost float64) float64 {
	return 0.01 + pages*randomPageCost
}

// Engine is one open index instance: a record store, its wiring config,
// and the injected logger/metrics collaborators.
type Engine struct {
	mu  sync.RWMutex
	cfg Config

	store   *store.Store
	logger  *zap.SugaredLogger
	metrics *metrics

	lastCompaction time.Time
	closed         bool

	insertCount uint64
	updateCount uint64
	deleteCount uint64
}

// Open constructs an Engine over numColumns indexed columns. If
// cfg.MetadataPath names an existing marker page, Open reads it purely for
// informational purposes — there is no on-disk bitmap corpus to restore
// from, so the host must still call RebuildFromSource to populate the
// index. A marker with the wrong magic or version is logged as a warning
// rather than failing Open; a marker file that cannot be read or decoded
// is returned as an error.
func Open(cfg Config, numColumns int) (*Engine, error) {
	cfg = cfg.withDefaults()
	e := &Engine{
		cfg:     cfg,
		store:   store.New(numColumns, cfg.TombstoneCompactAt),
		logger:  cfg.Logger,
		metrics: newMetrics(cfg.Registerer),
	}
	if _, found, err := e.readMarker(); errors.Is(err, engineerr.ErrIntegrity) {
		e.logger.Warnw("likeidx: metadata marker failed integrity check, awaiting rebuild", "path", cfg.MetadataPath, "error", err)
	} else if err != nil {
		return nil, err
	} else if found {
		e.logger.Infow("likeidx: found existing metadata marker, awaiting rebuild", "path", cfg.MetadataPath)
	}
	return e, nil
}

// Insert writes or updates one record. Reinserting an already live
// ExternalRef reclaims its slot rather than allocating a new one.
func (e *Engine) Insert(ref store.ExternalRef, columnValues []string) (uint32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0, errClosed
	}
	isUpdate := e.store.HasRef(ref)
	id, err := e.store.Insert(ref, columnValues)
	if err != nil {
		e.logger.Errorw("likeidx: insert failed", "error", err)
		return 0, err
	}
	if isUpdate {
		e.updateCount++
	} else {
		e.insertCount++
	}
	return id, nil
}

// BulkDelete tombstones every live record for which shouldDelete reports
// true, auto-compacting once the configured tombstone threshold is
// crossed, and returns the number of records deleted.
func (e *Engine) BulkDelete(shouldDelete func(store.ExternalRef) bool) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0, errClosed
	}
	before := e.store.Tombstone().Cardinality()
	n := e.store.BulkDelete(shouldDelete)
	e.deleteCount += uint64(n)
	if n > 0 && e.store.Tombstone().Cardinality() < before+uint64(n) {
		// Tombstone count did not grow by n: BulkDelete's internal
		// threshold fired and ran a compaction pass.
		e.metrics.compactionsTotal.Inc()
		e.lastCompaction = time.Now()
		e.logger.Infow("likeidx: automatic compaction ran", "deleted", n)
	}
	return n, nil
}

// Compact forces an out-of-cycle compaction pass.
func (e *Engine) Compact() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return errClosed
	}
	e.store.Compact()
	e.metrics.compactionsTotal.Inc()
	e.lastCompaction = time.Now()
	e.logger.Info("likeidx: manual compaction ran")
	return nil
}

// Query plans and executes preds, returning the matching ExternalRefs in no
// particular order — callers driving a bitmap or aggregate scan should stop
// here. Use QueryOrdered for a sequential-scan-style ordered result.
func (e *Engine) Query(preds []planner.Predicate, interrupt func() bool) ([]store.ExternalRef, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, errClosed
	}

	plan, err := planner.Plan(preds)
	if err != nil {
		return nil, err
	}
	candidates, err := planner.ExecuteCancelable(plan, e.store, e.store.Tombstone(), interrupt)
	if err != nil {
		return nil, err
	}

	e.metrics.queriesTotal.Inc()
	if len(plan) > 0 {
		e.metrics.observeTier(plan[0].Tier)
	}
	e.metrics.candidateCardinality.Observe(float64(candidates.Cardinality()))

	return e.assembleTIDs(candidates, interrupt)
}

// QueryOrdered is Query followed by SortForSequentialScan.
func (e *Engine) QueryOrdered(preds []planner.Predicate, interrupt func() bool) ([]store.ExternalRef, error) {
	refs, err := e.Query(preds, interrupt)
	if err != nil {
		return nil, err
	}
	SortForSequentialScan(refs)
	return refs, nil
}

// Invalidate releases the index's entire in-memory arena, per the host's
// relation-cache invalidation hook: the instance remains usable
// afterward, starting from an empty store, until the next
// RebuildFromSource.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store = store.New(e.store.NumColumns(), e.cfg.TombstoneCompactAt)
	e.logger.Warn("likeidx: index invalidated, arena released")
}

// Close marks the engine closed. It does not block a subsequent Invalidate
// or registry lookup; the host's module-shutdown hook calls this once per
// registered instance.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
