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

// Package identstore implements prefix/exact/case-folded identifier search
// over the mmap'd identifier file (spec §4.3): lines of "<identifier>
// <symbol>" sorted such that upper-casing both sides at compare time yields
// a well-defined case-insensitive collation.
package identstore

import (
	"bytes"
	"os"
	"strings"

	"github.com/edsrzf/mmap-go"

	"github.com/kraklabs/xref/internal/metrics"
	"github.com/kraklabs/xref/internal/valuestream"
)

// Store is a read-only, mmap-backed identifier search index.
type Store struct {
	file *os.File
	data mmap.MMap
}

// Open mmaps the identifier file at path.
func Open(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	var m mmap.MMap
	if info.Size() > 0 {
		m, err = mmap.Map(f, mmap.RDONLY, 0)
		if err != nil {
			f.Close()
			return nil, err
		}
	} else {
		m = mmap.MMap{}
	}
	return &Store{file: f, data: m}, nil
}

// Close unmaps and closes the underlying file.
func (s *Store) Close() error {
	var firstErr error
	if s.data != nil {
		if err := s.data.Unmap(); err != nil {
			firstErr = err
		}
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Hit is one matched (identifier, symbol) pair. Identifier is replaced with
// the demangled form when demangling changes it; Symbol is always the raw,
// undemangled symbol (spec §4.3, mirroring the on-disk identifiers.rs
// behavior of promoting a successfully-demangled name into the displayed
// identifier while keeping the opaque symbol untouched).
type Hit struct {
	Identifier string
	Symbol     string
}

// upperFold upper-cases ASCII letters only; the identifier file's collation
// is defined purely in terms of ASCII case-folding (spec §4.3/§6).
func upperFold(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return out
}

// getLine expands pos to the full line (without its trailing newline) that
// contains it.
func getLine(data []byte, pos int) []byte {
	if pos < len(data) && data[pos] == '\n' {
		pos--
	}
	start, end := pos, pos
	for start > 0 && data[start-1] != '\n' {
		start--
	}
	size := len(data)
	for end < size && data[end] != '\n' {
		end++
	}
	return data[start:end]
}

// bisect finds the lower (upperBound=false) or upper (upperBound=true)
// bound offset for needle among the store's sorted, case-folded lines.
func bisect(data []byte, needle []byte, upperBound bool) int {
	key := upperFold(needle)
	if upperBound {
		key = append(key, '~') // sorts after any legal identifier character
	}

	first := 0
	count := len(data)
	comparisons := 0
	for count > 0 {
		step := count / 2
		pos := first + step

		line := getLine(data, pos)
		lineUpper := upperFold(line)
		comparisons++

		if bytes.Compare(lineUpper, key) < 0 || (upperBound && bytes.Equal(lineUpper, key)) {
			first = pos + 1
			count -= step + 1
		} else {
			count = step
		}
	}
	if comparisons > 0 {
		metrics.BisectionComparisons(comparisons)
	}
	return first
}

// Search looks up needle in the identifier store (spec §4.3). complete
// requires an exact identifier match (modulo fold_case); foldCase makes the
// comparison case-insensitive; limit bounds the number of returned hits (0
// means unlimited).
func (s *Store) Search(needle string, complete, foldCase bool, limit int) []Hit {
	data := []byte(s.data)
	if len(data) == 0 {
		return nil
	}

	needleBytes := []byte(needle)
	start := bisect(data, needleBytes, false)
	end := bisect(data, needleBytes, true)
	if start >= end || start >= len(data) {
		return nil
	}

	var hits []Hit
	for _, line := range bytes.Split(data[start:end], []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		sp := bytes.IndexByte(line, ' ')
		if sp < 0 {
			continue
		}
		ident := string(line[:sp])
		sym := string(line[sp+1:])

		if len(ident) < len(needle) {
			continue
		}
		suffix := ident[len(needle):]
		if strings.ContainsAny(suffix, ":.") {
			continue
		}
		if complete && suffix != "" {
			continue
		}
		if !foldCase && !strings.HasPrefix(ident, needle) {
			continue
		}

		displayIdent := ident
		if demangled := demangleOrPassthrough(sym); demangled != sym {
			displayIdent = demangled
		}

		hits = append(hits, Hit{Identifier: displayIdent, Symbol: sym})
		if limit > 0 && len(hits) == limit {
			break
		}
	}
	return hits
}

// demangleOrPassthrough is overridden by internal/demangle at server wiring
// time; by default it passes the symbol through unchanged.
var demangleOrPassthrough = func(sym string) string { return sym }

// SetDemangler installs the function used to demangle symbols returned from
// Search. Demangling failures must pass the raw symbol through (spec §4.3).
func SetDemangler(f func(string) string) {
	if f == nil {
		demangleOrPassthrough = func(sym string) string { return sym }
		return
	}
	demangleOrPassthrough = f
}

// ToSymbolHits converts identifier-store hits into value-stream SymbolHits.
func ToSymbolHits(hits []Hit, identifier string) []valuestream.SymbolHit {
	out := make([]valuestream.SymbolHit, 0, len(hits))
	for _, h := range hits {
		out = append(out, valuestream.SymbolHit{Sym: h.Symbol, Pretty: h.Identifier, Identifier: identifier})
	}
	return out
}
