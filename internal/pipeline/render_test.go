// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/xref/internal/server"
	"github.com/kraklabs/xref/internal/valuestream"
)

type renderTestServer struct {
	fakeServer
	root string
}

func (s *renderTestServer) TranslatePath(_ server.HTMLRoot, rel string) (string, error) {
	return filepath.Join(s.root, rel), nil
}

func TestRenderSearchTemplateWritesFile(t *testing.T) {
	dir := t.TempDir()
	srv := &renderTestServer{fakeServer: fakeServer{tree: "mozilla-central"}, root: dir}

	stage := Render{Task: "search-template"}
	_, err := stage.Execute(context.Background(), srv, valuestream.Value{})
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "search.html"))
	require.NoError(t, err)
	require.Contains(t, string(content), "mozilla-central")
}

func TestRenderUnknownTaskIsConfigError(t *testing.T) {
	stage := Render{Task: "nonexistent"}
	_, err := stage.Execute(context.Background(), &fakeServer{}, valuestream.Value{})
	require.Error(t, err)
}

func TestBatchRenderWritesOnePerGroup(t *testing.T) {
	dir := t.TempDir()
	srv := &renderTestServer{root: dir}

	input := valuestream.BatchGroupsValue(valuestream.BatchGroups{Groups: []valuestream.BatchGroup{
		{Key: "js/src", Items: []string{"js/src/a.cpp", "js/src/b.cpp"}},
	}})
	stage := BatchRender{Task: "dir-listing"}
	_, err := stage.Execute(context.Background(), srv, input)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "js/src/index.html"))
	require.NoError(t, err)
	require.Contains(t, string(content), "js/src/a.cpp")
}

func TestBatchRenderNeedsBatchGroups(t *testing.T) {
	stage := BatchRender{Task: "dir-listing"}
	_, err := stage.Execute(context.Background(), &fakeServer{}, valuestream.Value{})
	require.Error(t, err)
}
