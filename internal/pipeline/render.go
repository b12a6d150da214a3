// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/kraklabs/xref/internal/ixerrors"
	"github.com/kraklabs/xref/internal/server"
	"github.com/kraklabs/xref/internal/valuestream"
)

// Render expands a preconfigured template task against the tree's name and
// writes it under the index's template root (spec §4.7, grounded on
// cmd_render.rs). The Rust original uses the liquid templating crate; no
// liquid-equivalent appears anywhere in the example corpus, so this uses
// html/template from the standard library instead (see DESIGN.md).
type Render struct {
	Task string
}

var renderTemplates = map[string]struct {
	source   string
	filename string
}{
	"search-template": {
		source:   `<!doctype html><html><head><title>Search {{.Tree}}</title></head><body><form id="search-box" data-tree="{{.Tree}}"></form></body></html>`,
		filename: "search.html",
	},
	"help": {
		source:   `<!doctype html><html><head><title>Help: {{.Tree}}</title></head><body>{{.Content}}</body></html>`,
		filename: "help.html",
	},
}

// Execute implements Stage.
func (r Render) Execute(ctx context.Context, srv server.AbstractServer, _ valuestream.Value) (valuestream.Value, error) {
	task, ok := renderTemplates[r.Task]
	if !ok {
		return valuestream.Value{}, ixerrors.Config("render: unknown task %q", r.Task)
	}

	info, err := srv.TreeInfo(ctx)
	if err != nil {
		return valuestream.Value{}, err
	}

	data := struct {
		Tree    string
		Content string
	}{Tree: info.Name}

	if r.Task == "help" {
		helpPath, err := srv.TranslatePath(server.IndexTemplates, "help-content.html")
		if err != nil {
			return valuestream.Value{}, err
		}
		content, err := os.ReadFile(helpPath)
		if err != nil {
			return valuestream.Value{}, ixerrors.Data(err, "reading help content at %q", helpPath)
		}
		data.Content = string(content)
	}

	tmpl, err := template.New(r.Task).Parse(task.source)
	if err != nil {
		return valuestream.Value{}, ixerrors.Config("render: template problem: %v", err)
	}

	var rendered strings.Builder
	if err := tmpl.Execute(&rendered, data); err != nil {
		return valuestream.Value{}, ixerrors.Config("render: template problem: %v", err)
	}

	outputPath, err := srv.TranslatePath(server.IndexTemplates, task.filename)
	if err != nil {
		return valuestream.Value{}, err
	}
	if err := writeFileEnsuringParentDir(outputPath, rendered.String()); err != nil {
		return valuestream.Value{}, err
	}

	return valuestream.Value{}, nil
}

// writeFileEnsuringParentDir writes content to path atomically (temp file
// in the same directory, then rename), creating parent directories as
// needed.
func writeFileEnsuringParentDir(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ixerrors.Data(err, "creating directory %q", dir)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(content), 0o644); err != nil {
		return ixerrors.Data(err, "writing %q", tmpPath)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return ixerrors.Data(err, "renaming %q to %q", tmpPath, path)
	}
	return nil
}
