// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"
	"encoding/json"

	"github.com/kraklabs/xref/internal/ixerrors"
	"github.com/kraklabs/xref/internal/server"
	"github.com/kraklabs/xref/internal/valuestream"
)

// MergeAnalyses combines per-platform analysis records for the same set of
// files into one record stream keyed by the first file's path (spec §4.7,
// grounded on cmd_merge_analyses.rs). The Rust original delegates to an
// external file_format::merger::merge_files helper that isn't present in
// this tree; this reimplements its observable effect directly — concatenate
// every input file's records, tagging each with its source platform, and
// dedup exact (sym, loc, platform) triples.
type MergeAnalyses struct {
	Files     []string
	Platforms []string
}

// Execute implements Stage.
func (m MergeAnalyses) Execute(ctx context.Context, srv server.AbstractServer, _ valuestream.Value) (valuestream.Value, error) {
	if len(m.Files) == 0 {
		return valuestream.Value{}, ixerrors.Config("merge-analyses needs at least one file")
	}

	type key struct{ sym, loc, platform string }
	seen := make(map[key]bool)
	var merged []map[string]any

	for i, file := range m.Files {
		platform := ""
		if i < len(m.Platforms) {
			platform = m.Platforms[i]
		}

		raw, err := srv.FetchRawAnalysis(ctx, file)
		if err != nil {
			return valuestream.Value{}, err
		}

		for _, line := range raw {
			var rec map[string]any
			if err := json.Unmarshal(line, &rec); err != nil {
				return valuestream.Value{}, ixerrors.Data(err, "malformed analysis record in %q", file)
			}
			sym, _ := rec["sym"].(string)
			loc, _ := rec["loc"].(string)
			k := key{sym, loc, platform}
			if seen[k] {
				continue
			}
			seen[k] = true

			if platform != "" {
				rec["platform"] = platform
			}
			merged = append(merged, rec)
		}
	}

	return valuestream.JSONRecordsValue([]valuestream.JSONRecordsByFile{
		{Path: m.Files[0], Records: merged},
	}), nil
}
