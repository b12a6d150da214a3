// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"
	"path"

	"github.com/kraklabs/xref/internal/server"
	"github.com/kraklabs/xref/internal/valuestream"
)

// fileMatchLimit mirrors cmd_search_files.rs's FILE_MATCH_LIMIT: the clamp
// applied when no caller-supplied limit is given.
const fileMatchLimit = 2_000_000

// SearchFiles enumerates paths matching a glob or regex (spec §4.7,
// grounded on cmd_search_files.rs). When GroupByDirectory is set, matches are
// grouped by containing directory into BatchGroups (a flat path-list
// simplification of the Rust original's nested FileMatches groups).
type SearchFiles struct {
	Path            string
	PathRe          string
	IncludeDirs     bool
	Limit           int
	GroupByDirectory bool
}

// Execute implements Stage.
func (s SearchFiles) Execute(ctx context.Context, srv server.AbstractServer, _ valuestream.Value) (valuestream.Value, error) {
	pathRePattern := s.PathRe
	if pathRePattern == "" && s.Path != "" {
		pathRePattern = pathGlobTransform(s.Path)
	}

	limit := s.Limit
	if limit <= 0 || limit > fileMatchLimit {
		limit = fileMatchLimit
	}

	matches, err := srv.SearchFiles(ctx, pathRePattern, s.IncludeDirs, limit)
	if err != nil {
		return valuestream.Value{}, err
	}

	if !s.GroupByDirectory {
		return valuestream.FileMatchesValue(matches), nil
	}

	order := make([]string, 0)
	byDir := make(map[string][]string)
	for _, m := range matches.Matches {
		dir := path.Dir(m.Path)
		if _, ok := byDir[dir]; !ok {
			order = append(order, dir)
		}
		byDir[dir] = append(byDir[dir], m.Path)
	}

	groups := make([]valuestream.BatchGroup, 0, len(order))
	for _, dir := range order {
		groups = append(groups, valuestream.BatchGroup{Key: dir, Items: byDir[dir]})
	}
	return valuestream.BatchGroupsValue(valuestream.BatchGroups{Groups: groups}), nil
}
