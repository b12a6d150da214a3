// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"
	"html/template"
	"strings"

	"github.com/kraklabs/xref/internal/ixerrors"
	"github.com/kraklabs/xref/internal/server"
	"github.com/kraklabs/xref/internal/valuestream"
)

// BatchRender takes a BatchGroups value (typically from search-files
// --group-by-directory) and, for each group, renders the named template
// against that group's items and writes the result under the tree's
// DirListing root keyed by the group (spec §4.7/SPEC_FULL.md supplement,
// grounded on cmd_render.rs's doc comment describing exactly this
// BatchGroups-to-per-group-template flow; cmd_batch_render.rs's own body in
// the original is dead code that references fields its own struct never
// declares, so this follows the doc comment's described behavior instead —
// see DESIGN.md).
type BatchRender struct {
	Task string
}

var batchRenderTemplates = map[string]string{
	"dir-listing": `<!doctype html><html><body><ul>{{range .Items}}<li>{{.}}</li>{{end}}</ul></body></html>`,
}

// Execute implements Stage.
func (b BatchRender) Execute(ctx context.Context, srv server.AbstractServer, input valuestream.Value) (valuestream.Value, error) {
	if input.Kind != valuestream.KindBatchGroups {
		return valuestream.Value{}, ixerrors.Config("batch-render needs BatchGroups, got %s", input.Kind)
	}

	source, ok := batchRenderTemplates[b.Task]
	if !ok {
		return valuestream.Value{}, ixerrors.Config("batch-render: unknown task %q", b.Task)
	}
	tmpl, err := template.New(b.Task).Parse(source)
	if err != nil {
		return valuestream.Value{}, ixerrors.Config("batch-render: template problem: %v", err)
	}

	for _, group := range input.Batch.Groups {
		var rendered strings.Builder
		if err := tmpl.Execute(&rendered, group); err != nil {
			return valuestream.Value{}, ixerrors.Config("batch-render: template problem: %v", err)
		}

		rel := strings.TrimSuffix(group.Key, "/") + "/index.html"
		outputPath, err := srv.TranslatePath(server.DirListing, rel)
		if err != nil {
			return valuestream.Value{}, err
		}
		if err := writeFileEnsuringParentDir(outputPath, rendered.String()); err != nil {
			return valuestream.Value{}, err
		}
	}

	return valuestream.Value{}, nil
}
