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

package pattern

import "github.com/erigontech/likeidx/internal/bitmap"

// Source is everything the matcher needs from one (column, fold) pair's
// charindex+lengthindex. Decoupling the matcher from the concrete index
// types keeps this package testable with a fake and importable from
// internal/engine without a dependency cycle.
type Source interface {
	BytePos(b byte, pos int) bitmap.Bitmap
	ByteNeg(b byte, pos int) bitmap.Bitmap
	ByteCache(b byte) bitmap.Bitmap
	LengthExact(n int) bitmap.Bitmap
	LengthGE(n int) bitmap.Bitmap
	MaxLength() int
	AllLive() bitmap.Bitmap
	// Text returns the cached value for id, used only for the multi-byte
	// substring post-verification pass.
	Text(id uint32) (string, bool)
}
