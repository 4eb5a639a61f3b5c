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
	"github.com/c2h5oh/datasize"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/erigontech/likeidx/internal/store"
)

// Config carries the tunables a host sets when opening an index. Zero
// values pick the documented defaults; there is no file format of its own.
type Config struct {
	// TombstoneCompactAt is the pending-tombstone count that triggers an
	// automatic compaction after a bulk delete. Defaults to
	// store.DefaultCompactAt.
	TombstoneCompactAt int
	// SmallResultLimit is the candidate-set cardinality below which TID
	// assembly runs on the calling goroutine instead of fanning out.
	// Defaults to 10000.
	SmallResultLimit int
	// BitmapMemoryBudget records an advisory ceiling on the in-memory
	// bitmap corpus. No code path reads it: neither Stats nor the logger
	// checks it, and nothing is enforced.
	BitmapMemoryBudget datasize.ByteSize
	// MetadataPath, if set, names the marker page file RebuildFromSource
	// and Open use to detect a stale or foreign index on disk.
	MetadataPath string
	// Logger receives build/compact/rebuild/warning events. Defaults to a
	// no-op logger.
	Logger *zap.SugaredLogger
	// Registerer receives the engine's prometheus collectors. A nil value
	// uses a private, unregistered registry (metrics are tracked but never
	// exposed) so embedding an engine never fights the host for the
	// default registry.
	Registerer prometheus.Registerer
}

const defaultSmallResultLimit = 10000

func (c Config) withDefaults() Config {
	if c.TombstoneCompactAt <= 0 {
		c.TombstoneCompactAt = store.DefaultCompactAt
	}
	if c.SmallResultLimit <= 0 {
		c.SmallResultLimit = defaultSmallResultLimit
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop().Sugar()
	}
	return c
}
