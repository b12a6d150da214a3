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

// Package pathnorm normalizes tree-relative file paths so they compare and
// sort consistently regardless of the platform that produced the index
// (spec §4.2/§4.3: path keys in the crossref and identifier stores must be
// stable across index builds).
package pathnorm

import (
	"path/filepath"
	"strings"
)

// Normalize puts a path into the canonical form used as a store key:
// forward slashes, no leading "./", no leading "/", and filepath.Clean'd.
func Normalize(path string) string {
	if strings.HasPrefix(path, "./") {
		path = path[2:]
	}
	path = filepath.Clean(path)
	path = filepath.ToSlash(path)
	if strings.HasPrefix(path, "/") {
		path = path[1:]
	}
	return path
}

// Join normalizes the result of joining a tree root with a relative path,
// guarding against path traversal outside the tree root (spec §4.4: the
// local backend must never resolve a path outside its configured root).
func Join(root, rel string) (string, bool) {
	rel = Normalize(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return filepath.Join(root, filepath.FromSlash(rel)), true
}
