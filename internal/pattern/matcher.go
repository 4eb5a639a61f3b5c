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

import (
	"unicode/utf8"

	"github.com/erigontech/likeidx/internal/bitmap"
)

// Match computes the result bitmap for pattern p against src, applying
// cheap fast paths in order before falling back to the recursive windowed
// placement search.
func Match(src Source, p *Pattern) bitmap.Bitmap {
	switch {
	case p.IsEmpty():
		return src.LengthExact(0).Clone()
	case p.IsAllPercent():
		return src.AllLive().Clone()
	case p.HasPercent() && len(p.Segments) == 0:
		// A pattern of only `%` runs (e.g. "%%%") is equivalent to "%".
		return src.AllLive().Clone()
	case p.OnlyWildcards() && p.HasPercent():
		return src.LengthGE(p.UnderscoreCount).Clone()
	case p.OnlyWildcards() && !p.HasPercent():
		return src.LengthExact(p.UnderscoreCount).Clone()
	case !p.HasPercent():
		seg := Segment{Text: p.Raw, ByteLen: len(p.Raw), CharLen: p.TotalCharLen()}
		bm, has := matchForwardAt(src, seg, 0)
		result := src.LengthExact(seg.CharLen).Clone()
		if has {
			result.AndInPlace(bm)
		}
		return result
	case len(p.Segments) == 1 && !p.LeadingPercent && p.TrailingPercent:
		bm, has := matchForwardAt(src, p.Segments[0], 0)
		result := src.LengthGE(p.Segments[0].CharLen).Clone()
		if has {
			result.AndInPlace(bm)
		}
		return result
	case len(p.Segments) == 1 && p.LeadingPercent && !p.TrailingPercent:
		bm, has := matchReverseAt(src, p.Segments[0], -1)
		result := src.LengthGE(p.Segments[0].CharLen).Clone()
		if has {
			result.AndInPlace(bm)
		}
		return result
	case len(p.Segments) == 1 && p.LeadingPercent && p.TrailingPercent:
		return matchSubstring(src, p.Segments[0])
	default:
		return windowedMatch(src, p)
	}
}

// matchForwardAt ANDs the per-byte position bitmaps for seg's concrete
// characters starting at character position startPos, skipping '_'
// wildcards. has is false when the segment has no concrete characters at
// all (pure underscores), in which case the caller applies only the length
// constraint.
func matchForwardAt(src Source, seg Segment, startPos int) (bm bitmap.Bitmap, has bool) {
	pos := startPos
	for _, r := range seg.Text {
		if r == '_' {
			pos++
			continue
		}
		next, ok := andRuneBytes(src.BytePos, pos, r)
		if !ok {
			return bitmap.Empty(), true
		}
		if bm == nil {
			bm = next
		} else {
			bm.AndInPlace(next)
			if bm.IsEmpty() {
				return bm, true
			}
		}
		pos++
	}
	return bm, bm != nil
}

// matchReverseAt is the mirror of matchForwardAt, anchored so that the
// segment's last character lands at endPos (expected <= -1).
func matchReverseAt(src Source, seg Segment, endPos int) (bm bitmap.Bitmap, has bool) {
	start := endPos - seg.CharLen + 1
	pos := start
	for _, r := range seg.Text {
		if r == '_' {
			pos++
			continue
		}
		next, ok := andRuneBytes(src.ByteNeg, pos, r)
		if !ok {
			return bitmap.Empty(), true
		}
		if bm == nil {
			bm = next
		} else {
			bm.AndInPlace(next)
			if bm.IsEmpty() {
				return bm, true
			}
		}
		pos++
	}
	return bm, bm != nil
}

// andRuneBytes ANDs together the bitmaps for every byte of r at position
// pos via lookup (either BytePos or ByteNeg): all bytes of a multi-byte
// character must be indexed at the same character position.
func andRuneBytes(lookup func(b byte, pos int) bitmap.Bitmap, pos int, r rune) (bitmap.Bitmap, bool) {
	var buf [utf8.UTFMax]byte
	n := utf8.EncodeRune(buf[:], r)
	var result bitmap.Bitmap
	for i := 0; i < n; i++ {
		b := lookup(buf[i], pos)
		if b.IsEmpty() {
			return bitmap.Empty(), false
		}
		if result == nil {
			result = b.Clone()
		} else {
			result.AndInPlace(b)
			if result.IsEmpty() {
				return result, false
			}
		}
	}
	return result, true
}

// windowedMatch implements the recursive windowed placement search for
// patterns with two or more segments: it places each segment at every
// character position consistent with (a) being >= the prior segment's
// end, (b) leaving room for all remaining segments, and (c) being
// anchored at the end when it is the last segment and the pattern has no
// trailing %.
func windowedMatch(src Source, p *Pattern) bitmap.Bitmap {
	total := p.TotalCharLen()
	base := src.LengthGE(total).Clone()
	if base.IsEmpty() {
		return base
	}
	maxLen := src.MaxLength()
	return placeSegment(src, p, 0, 0, base, maxLen)
}

func placeSegment(src Source, p *Pattern, idx int, minPos int, candidate bitmap.Bitmap, maxLen int) bitmap.Bitmap {
	if candidate.IsEmpty() {
		return candidate
	}
	segs := p.Segments
	seg := segs[idx]
	isLast := idx == len(segs)-1
	anchoredStart := idx == 0 && !p.LeadingPercent
	anchoredEnd := isLast && !p.TrailingPercent

	if anchoredEnd {
		bm, has := matchReverseAt(src, seg, -1)
		step := candidate.Clone()
		step.AndInPlace(src.LengthGE(minPos + seg.CharLen))
		if has {
			step.AndInPlace(bm)
		}
		return step
	}

	if anchoredStart {
		bm, has := matchForwardAt(src, seg, minPos)
		step := candidate.Clone()
		step.AndInPlace(src.LengthGE(minPos + seg.CharLen))
		if has {
			step.AndInPlace(bm)
		}
		if step.IsEmpty() || isLast {
			return step
		}
		return placeSegment(src, p, idx+1, minPos+seg.CharLen, step, maxLen)
	}

	remainingAfter := 0
	for j := idx + 1; j < len(segs); j++ {
		remainingAfter += segs[j].CharLen
	}
	hi := maxLen - 1 - remainingAfter - seg.CharLen

	var out bitmap.Bitmap
	for pos := minPos; pos <= hi; pos++ {
		bm, has := matchForwardAt(src, seg, pos)
		step := candidate.Clone()
		step.AndInPlace(src.LengthGE(pos + seg.CharLen))
		if has {
			step.AndInPlace(bm)
		}
		if step.IsEmpty() {
			continue
		}
		var leaf bitmap.Bitmap
		if isLast {
			leaf = step
		} else {
			leaf = placeSegment(src, p, idx+1, pos+seg.CharLen, step, maxLen)
		}
		if leaf.IsEmpty() {
			continue
		}
		if out == nil {
			out = leaf.Clone()
		} else {
			out.OrInPlace(leaf)
		}
	}
	if out == nil {
		return bitmap.Empty()
	}
	return out
}

// matchSubstring implements the "%X%" path: a coarse cache-based
// superset filter (AND of per-byte caches), then a character-aligned
// substring post-verification pass against each candidate's cached text.
// This is exact for both single-byte and multi-byte segments and avoids
// scanning every start position the way windowedMatch does for its
// interior segments.
func matchSubstring(src Source, seg Segment) bitmap.Bitmap {
	if seg.CharLen == 0 {
		return src.AllLive().Clone()
	}
	var candidate bitmap.Bitmap
	seen := map[byte]bool{}
	for i := 0; i < len(seg.Text); i++ {
		b := seg.Text[i]
		if b == '_' || seen[b] {
			continue
		}
		seen[b] = true
		cache := src.ByteCache(b)
		if cache.IsEmpty() {
			return bitmap.Empty()
		}
		if candidate == nil {
			candidate = cache.Clone()
		} else {
			candidate.AndInPlace(cache)
			if candidate.IsEmpty() {
				return candidate
			}
		}
	}
	if candidate == nil {
		// segment is pure underscores but CharLen>0: length is the only
		// constraint.
		return src.LengthGE(seg.CharLen).Clone()
	}

	result := bitmap.New()
	it := candidate.Iterator()
	for it.HasNext() {
		id := it.Next()
		text, ok := src.Text(id)
		if !ok {
			continue
		}
		if containsAligned(text, seg.Text) {
			result.Add(id)
		}
	}
	return result
}

// containsAligned reports whether needle (which may contain '_' wildcards)
// occurs as a character-aligned substring of haystack.
func containsAligned(haystack, needle string) bool {
	hRunes := []rune(haystack)
	nRunes := []rune(needle)
	if len(nRunes) > len(hRunes) {
		return false
	}
	for start := 0; start+len(nRunes) <= len(hRunes); start++ {
		match := true
		for i, nr := range nRunes {
			if nr == '_' {
				continue
			}
			if hRunes[start+i] != nr {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
