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

// Package server defines the AbstractServer capability facade that unifies
// access to a local on-disk index and a remote searchfox-style HTTP server
// (spec §4.1/§4.4/§4.5). Pipeline stages depend only on this interface;
// treeconfig.IsRemote decides at composition time which concrete
// implementation backs it.
package server

import (
	"context"
	"encoding/json"

	"github.com/kraklabs/xref/internal/treeconfig"
	"github.com/kraklabs/xref/internal/valuestream"
)

// HTMLRoot selects which rendered-HTML tree a fetch_html/translate_path call
// is rooted at (spec §4.1).
type HTMLRoot int

const (
	FormattedFile HTMLRoot = iota
	IndexTemplates
	DirListing
)

// TreeInfo is the result of AbstractServer.TreeInfo.
type TreeInfo struct {
	Name string `json:"name"`
}

// AbstractServer is the capability facade every pipeline stage is written
// against (spec §4.1). Every method returns either a value or an
// *ixerrors.Error carrying a Layer/Retry pair; none panics on bad input.
type AbstractServer interface {
	// FetchRawAnalysis reads newline-delimited JSON from the analysis blob
	// for sfPath (a tree-relative source path).
	FetchRawAnalysis(ctx context.Context, sfPath string) ([]json.RawMessage, error)

	// FetchHTML fetches previously-rendered HTML; root selects
	// formatted-file / templates / dir-listing.
	FetchHTML(ctx context.Context, root HTMLRoot, sfPath string) (string, error)

	// FetchRawSource fetches the raw (unformatted) source text for sfPath.
	FetchRawSource(ctx context.Context, sfPath string) (string, error)

	// PerformQuery delegates a human-style query string to a search
	// front-end and returns the decoded JSON result.
	PerformQuery(ctx context.Context, q string) (json.RawMessage, error)

	// CrossrefLookup returns the full crossref entry for sym, or nil (with
	// a nil error) when the symbol is unknown.
	CrossrefLookup(ctx context.Context, sym string) (json.RawMessage, error)

	// JumprefLookup returns the condensed jumpref form for sym.
	JumprefLookup(ctx context.Context, sym string) (json.RawMessage, error)

	// SearchIdentifiers returns matching (sym, pretty) pairs for needle.
	SearchIdentifiers(ctx context.Context, needle string, exact, foldCase bool, limit int) ([]valuestream.SymbolHit, error)

	// SearchText runs a regex against the tree's fulltext-search backend.
	SearchText(ctx context.Context, re string, foldCase bool, pathRe string, limit int) (valuestream.TextMatches, error)

	// SearchFiles enumerates paths matching pathRe.
	SearchFiles(ctx context.Context, pathRe string, includeDirs bool, limit int) (valuestream.FileMatches, error)

	// TreeInfo returns metadata about the tree this server is bound to.
	TreeInfo(ctx context.Context) (TreeInfo, error)

	// TranslatePath resolves a tree-relative path to an absolute path under
	// the given HTMLRoot.
	TranslatePath(root HTMLRoot, rel string) (string, error)

	// TranslateAnalysisPath resolves a tree-relative path to the absolute
	// path of its analysis blob.
	TranslateAnalysisPath(rel string) (string, error)

	// Clone returns a handle suitable for a concurrent request/executor.
	// Because every AbstractServer implementation here holds only
	// read-only, already-shared state (mmap'd stores, an HTTP client), a
	// clone is simply the same handle (spec §9: "share them behind
	// reference-counted handles so each request handler holds a cheap
	// clone" — in Go the GC already makes the pointer itself cheap to
	// share, so no reference count is needed).
	Clone() AbstractServer
}

// New builds the concrete AbstractServer for target: a RemoteServer when
// target.Server parses as an absolute URL, a LocalServer (rooted at
// target.Server, treated as an index path) otherwise (spec §4.6).
func New(target treeconfig.Target) (AbstractServer, error) {
	if treeconfig.IsRemote(target.Server) {
		return NewRemoteServer(target.Server, target.Tree)
	}
	return NewLocalServer(target.Server, target.Tree), nil
}
