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

import "github.com/erigontech/likeidx/internal/engineerr"

// The four sentinel error kinds, re-exported at package level so
// internal/engineerr stays an implementation detail.
var (
	ErrInvalidPattern = engineerr.ErrInvalidPattern
	ErrOutOfMemory    = engineerr.ErrOutOfMemory
	ErrCancelled      = engineerr.ErrCancelled
	ErrIntegrity      = engineerr.ErrIntegrity
)
