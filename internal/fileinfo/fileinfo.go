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

// Package fileinfo holds the in-memory per-file metadata map (spec §2/§3):
// path -> {is_dir, bugzilla_component, test_info, coverage}, loaded once
// from concise-per-file-info.json and enumerable with a path regex filter.
package fileinfo

import (
	"encoding/json"
	"os"
	"regexp"
	"sort"

	"github.com/kraklabs/xref/internal/ixerrors"
	"github.com/kraklabs/xref/internal/pathnorm"
)

// Info is the per-file metadata record (spec §3).
type Info struct {
	Path              string `json:"path"`
	IsDir             bool   `json:"is_dir"`
	BugzillaComponent string `json:"bugzilla_component,omitempty"`
	TestInfo          string `json:"test_info,omitempty"`
	Coverage          string `json:"coverage,omitempty"`
}

// Map is an immutable, path-keyed collection of per-file metadata, built
// once at server construction and shared read-only across all requests
// (spec §5: "no mutation after server construction").
type Map struct {
	byPath map[string]Info
	paths  []string // sorted, for deterministic enumeration
}

// Load reads concise-per-file-info.json, mapping path -> {is_dir, ...}.
func Load(path string) (*Map, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, ixerrors.Data(err, "cannot read per-file info map %q", path)
	}

	var decoded map[string]Info
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, ixerrors.Data(err, "malformed per-file info map %q", path)
	}

	m := &Map{byPath: make(map[string]Info, len(decoded))}
	for p, info := range decoded {
		norm := pathnorm.Normalize(p)
		info.Path = norm
		m.byPath[norm] = info
		m.paths = append(m.paths, norm)
	}
	sort.Strings(m.paths)
	return m, nil
}

// Lookup returns the Info for path, or (Info{}, false) if not indexed.
func (m *Map) Lookup(path string) (Info, bool) {
	info, ok := m.byPath[pathnorm.Normalize(path)]
	return info, ok
}

// Enumerate returns, in sorted path order, every entry whose path matches
// pathRe. If includeDirs is false, directory entries are skipped.
func (m *Map) Enumerate(pathRe *regexp.Regexp, includeDirs bool, limit int) []Info {
	var out []Info
	for _, p := range m.paths {
		info := m.byPath[p]
		if info.IsDir && !includeDirs {
			continue
		}
		if pathRe != nil && !pathRe.MatchString(p) {
			continue
		}
		out = append(out, info)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Len returns the number of indexed files and directories.
func (m *Map) Len() int {
	return len(m.paths)
}
