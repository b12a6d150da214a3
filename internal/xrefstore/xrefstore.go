// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package xrefstore implements the bisection-based crossref lookup over the
// two mmap'd crossref files (spec §4.2): an inline file of sorted two-line
// "!SYMBOL\nPAYLOAD\n" records, and an extra file holding overflow JSON
// payloads referenced by "@offset length" pointers.
package xrefstore

import (
	"bytes"
	"encoding/json"
	"os"
	"strconv"

	"github.com/edsrzf/mmap-go"

	"github.com/kraklabs/xref/internal/ixerrors"
	"github.com/kraklabs/xref/internal/metrics"
)

// Store is a read-only, mmap-backed crossref symbol->JSON lookup table.
// It is safe for concurrent use: all operations are read-only scans over
// immutable mmap'd memory (spec §5, "shared resources ... no mutation after
// server construction").
type Store struct {
	inlineFile *os.File
	extraFile  *os.File
	inline     mmap.MMap
	extra      mmap.MMap
}

// Open mmaps the inline crossref file at inlinePath, and the extra file at
// extraPath when it exists. extraPath may be absent if the index has no
// externally-stored payloads; the store then opens without it, and a lookup
// that reaches an external payload returns a sticky data error, not a panic.
func Open(inlinePath, extraPath string) (*Store, error) {
	inlineFile, err := os.Open(inlinePath)
	if err != nil {
		return nil, ixerrors.Data(err, "cannot open crossref store %q", inlinePath)
	}
	inlineMap, err := mapFile(inlineFile)
	if err != nil {
		inlineFile.Close()
		return nil, ixerrors.Data(err, "cannot mmap crossref store %q", inlinePath)
	}

	s := &Store{inlineFile: inlineFile, inline: inlineMap}

	if extraFile, err := os.Open(extraPath); err == nil {
		extraMap, err := mapFile(extraFile)
		if err != nil {
			extraFile.Close()
			s.Close()
			return nil, ixerrors.Data(err, "cannot mmap crossref extra store %q", extraPath)
		}
		s.extraFile = extraFile
		s.extra = extraMap
	}

	return s, nil
}

func mapFile(f *os.File) (mmap.MMap, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		// mmap-go refuses to map a zero-length file; treat as an empty store.
		return mmap.MMap{}, nil
	}
	return mmap.Map(f, mmap.RDONLY, 0)
}

// Close unmaps and closes both underlying files.
func (s *Store) Close() error {
	var firstErr error
	if s.inline != nil {
		if err := s.inline.Unmap(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.inlineFile != nil {
		if err := s.inlineFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.extra != nil {
		if err := s.extra.Unmap(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.extraFile != nil {
		if err := s.extraFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Lookup returns the raw JSON payload for sym, or nil (with a nil error) on
// a miss, per spec §4.2/§7 ("unknown symbols are not errors"). The
// bisection narrows an exact [first, first+count) byte window known to
// contain the match at every step, the same invariant crossref_lookup.rs's
// bisect_for_payload maintains via its first/count/step bookkeeping.
func (s *Store) Lookup(sym string) (json.RawMessage, error) {
	data := []byte(s.inline)
	needle := []byte(sym)

	first := 0
	count := len(data)
	comparisons := 0
	defer func() {
		if comparisons > 0 {
			metrics.BisectionComparisons(comparisons)
		}
	}()

	for count > 0 {
		pos := first + count/2
		if pos >= len(data) {
			pos = len(data) - 1
		}

		idStart, ok := enclosingIDLine(data, pos)
		if !ok {
			// Malformed store: no id line could be located. Treat as a miss
			// rather than crash on adversarial/corrupt on-disk data.
			return nil, nil
		}

		idEnd := indexFrom(data, idStart, '\n')
		if idEnd < 0 {
			idEnd = len(data)
		}
		symBytes := data[idStart+1 : idEnd]
		comparisons++

		// first and first+count always bound a record boundary-aligned
		// window known to contain the match, if any. Each branch narrows
		// that window to an exact (not approximate) sub-range so the
		// search is guaranteed to terminate and never skip a candidate.
		switch bytes.Compare(symBytes, needle) {
		case 0:
			return s.readPayload(data, idEnd)
		case -1:
			payloadEnd := indexFrom(data, idEnd+1, '\n')
			if payloadEnd < 0 {
				payloadEnd = len(data)
			}
			windowEnd := first + count
			newFirst := payloadEnd + 1
			first = newFirst
			count = windowEnd - newFirst
		default:
			count = idStart - first
		}
	}

	return nil, nil
}

// enclosingIDLine walks backward from pos to the nearest line beginning
// with '!' (spec §4.2: "locate the enclosing identifier line by walking
// backward ... never walk forward").
func enclosingIDLine(data []byte, pos int) (int, bool) {
	lineStart := lineStartAt(data, pos)
	for data[lineStart] != '!' {
		if lineStart == 0 {
			return 0, false
		}
		lineStart = lineStartAt(data, lineStart-1)
	}
	return lineStart, true
}

func lineStartAt(data []byte, pos int) int {
	for pos > 0 && data[pos-1] != '\n' {
		pos--
	}
	return pos
}

func indexFrom(data []byte, from int, b byte) int {
	if from >= len(data) {
		return -1
	}
	idx := bytes.IndexByte(data[from:], b)
	if idx < 0 {
		return -1
	}
	return from + idx
}

// readPayload decodes the payload line following the id line ending at idEnd.
func (s *Store) readPayload(data []byte, idEnd int) (json.RawMessage, error) {
	payloadStart := idEnd + 1
	payloadEnd := indexFrom(data, payloadStart, '\n')
	if payloadEnd < 0 {
		payloadEnd = len(data)
	}
	payload := data[payloadStart:payloadEnd]

	if len(payload) == 0 {
		return nil, nil
	}
	if len(payload) < 3 {
		return nil, ixerrors.Data(nil, "crossref payload too short (%d bytes)", len(payload))
	}

	switch payload[0] {
	case ':':
		return json.RawMessage(payload[1:]), nil
	case '@':
		return s.readExternal(payload[1:])
	default:
		return nil, ixerrors.Data(nil, "crossref payload has unknown tag byte %q", payload[0])
	}
}

// readExternal resolves an "@<hex offset> <hex length>" pointer into the
// extra file. length includes the trailing newline, which is excluded from
// the returned slice (spec §4.2).
func (s *Store) readExternal(ref []byte) (json.RawMessage, error) {
	parts := bytes.SplitN(ref, []byte(" "), 2)
	if len(parts) != 2 {
		return nil, ixerrors.Data(nil, "malformed external crossref pointer %q", ref)
	}
	offset, err := strconv.ParseInt(string(parts[0]), 16, 64)
	if err != nil {
		return nil, ixerrors.Data(err, "malformed external crossref offset %q", parts[0])
	}
	length, err := strconv.ParseInt(string(bytes.TrimSpace(parts[1])), 16, 64)
	if err != nil {
		return nil, ixerrors.Data(err, "malformed external crossref length %q", parts[1])
	}
	if s.extra == nil {
		return nil, ixerrors.Data(nil, "crossref entry references extra file but none is open")
	}
	extra := []byte(s.extra)
	start := offset
	end := offset + length - 1
	if start < 0 || end > int64(len(extra)) || start > end {
		return nil, ixerrors.Data(nil, "external crossref pointer [%x,%x) out of range (extra file is %d bytes)", start, end, len(extra))
	}
	out := make([]byte, end-start)
	copy(out, extra[start:end])
	return json.RawMessage(out), nil
}
