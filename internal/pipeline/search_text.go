// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"
	"regexp"

	"github.com/kraklabs/xref/internal/ixerrors"
	"github.com/kraklabs/xref/internal/server"
	"github.com/kraklabs/xref/internal/valuestream"
)

// SearchText runs a full-text regex search (spec §4.7, grounded on
// cmd_search_text.rs). Ignores pipeline input entirely; the text/re and
// path/pathre pairs are mutually exclusive ways to specify the same filter.
type SearchText struct {
	Text       string
	Re         string
	Path       string
	PathRe     string
	CaseFold   bool
	Limit      int
}

// Execute implements Stage.
func (s SearchText) Execute(ctx context.Context, srv server.AbstractServer, _ valuestream.Value) (valuestream.Value, error) {
	rePattern := s.Re
	if rePattern == "" {
		if s.Text == "" {
			return valuestream.Value{}, ixerrors.BadInputf("", "pass a search text or --re", "missing search text or `re` pattern")
		}
		rePattern = regexp.QuoteMeta(s.Text)
	}

	pathRePattern := s.PathRe
	if pathRePattern == "" && s.Path != "" {
		pathRePattern = pathGlobTransform(s.Path)
	}

	matches, err := srv.SearchText(ctx, rePattern, s.CaseFold, pathRePattern, s.Limit)
	if err != nil {
		return valuestream.Value{}, err
	}
	return valuestream.TextMatchesValue(matches), nil
}
