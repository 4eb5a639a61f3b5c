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

// Package engineerr holds the four sentinel error kinds shared across the
// engine's components, kept in their own leaf package so internal/pattern
// and internal/planner can report them without importing internal/engine.
package engineerr

import "errors"

var (
	// ErrInvalidPattern: pattern contains embedded NULs or exceeds the
	// implementation-defined length bound.
	ErrInvalidPattern = errors.New("likeidx: invalid pattern")
	// ErrOutOfMemory: allocator failed during build or bitmap growth.
	ErrOutOfMemory = errors.New("likeidx: out of memory")
	// ErrCancelled: interrupt/context cancellation observed during a long
	// enumeration or planner pass.
	ErrCancelled = errors.New("likeidx: cancelled")
	// ErrIntegrity: metadata magic mismatch or source table inconsistent
	// with the cached record count on open.
	ErrIntegrity = errors.New("likeidx: integrity check failed")
)
