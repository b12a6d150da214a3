// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGzipped(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
}

func TestLocalServerFetchRawAnalysis(t *testing.T) {
	root := t.TempDir()
	writeGzipped(t, filepath.Join(root, "analysis", "dir", "file.cpp.gz"),
		"{\"loc\":\"1:0\"}\n{\"loc\":\"2:0\"}\n")

	s := NewLocalServer(root, "mozilla-central")
	recs, err := s.FetchRawAnalysis(context.Background(), "dir/file.cpp")
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestLocalServerFetchHTML(t *testing.T) {
	root := t.TempDir()
	writeGzipped(t, filepath.Join(root, "file", "dir", "file.cpp.gz"), "<html>hi</html>")

	s := NewLocalServer(root, "mozilla-central")
	html, err := s.FetchHTML(context.Background(), FormattedFile, "dir/file.cpp")
	require.NoError(t, err)
	assert.Equal(t, "<html>hi</html>", html)
}

func TestLocalServerMissingFileIsDataError(t *testing.T) {
	root := t.TempDir()
	s := NewLocalServer(root, "mozilla-central")
	_, err := s.FetchRawAnalysis(context.Background(), "nope.cpp")
	require.Error(t, err)
}

func TestLocalServerRejectsPathTraversal(t *testing.T) {
	root := t.TempDir()
	s := NewLocalServer(root, "mozilla-central")
	_, err := s.FetchRawAnalysis(context.Background(), "../../etc/passwd")
	require.Error(t, err)
}

func TestLocalServerPerformQueryUnsupported(t *testing.T) {
	s := NewLocalServer(t.TempDir(), "mozilla-central")
	_, err := s.PerformQuery(context.Background(), "q")
	require.Error(t, err)
}

func TestLocalServerCrossrefLookup(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "crossref"),
		[]byte("!S_Foo\n:{\"pretty\":\"Foo\",\"defs\":[]}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "crossref-extra"), nil, 0o644))

	s := NewLocalServer(root, "mozilla-central")
	got, err := s.CrossrefLookup(context.Background(), "S_Foo")
	require.NoError(t, err)
	assert.JSONEq(t, `{"pretty":"Foo","defs":[]}`, string(got))

	miss, err := s.CrossrefLookup(context.Background(), "S_Nope")
	require.NoError(t, err)
	assert.Nil(t, miss)
}

func TestLocalServerJumprefLookupDerivesFromSingleDef(t *testing.T) {
	root := t.TempDir()
	entry := `{"pretty":"Foo","defs":[{"path":"dir/file.cpp","lines":[{"lno":42}]}]}`
	require.NoError(t, os.WriteFile(filepath.Join(root, "crossref"),
		[]byte("!S_Foo\n:"+entry+"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "crossref-extra"), nil, 0o644))

	s := NewLocalServer(root, "mozilla-central")
	got, err := s.JumprefLookup(context.Background(), "S_Foo")
	require.NoError(t, err)
	assert.JSONEq(t, `{"sym":"S_Foo","pretty":"Foo","jumps":{"def":"dir/file.cpp#42"}}`, string(got))
}

func TestLocalServerSearchIdentifiers(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "identifiers"),
		[]byte("Foo S_Foo\nFooBar S_FooBar\n"), 0o644))

	s := NewLocalServer(root, "mozilla-central")
	hits, err := s.SearchIdentifiers(context.Background(), "Foo", false, false, 0)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestLocalServerSearchFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "concise-per-file-info.json"),
		[]byte(`{"dir/file.cpp":{"path":"dir/file.cpp","is_dir":false},"dir":{"path":"dir","is_dir":true}}`), 0o644))

	s := NewLocalServer(root, "mozilla-central")
	matches, err := s.SearchFiles(context.Background(), "", false, 0)
	require.NoError(t, err)
	require.Len(t, matches.Matches, 1)
	assert.Equal(t, "dir/file.cpp", matches.Matches[0].Path)
}

func TestLocalServerTreeInfoAndTranslatePath(t *testing.T) {
	root := t.TempDir()
	s := NewLocalServer(root, "mozilla-central")

	info, err := s.TreeInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "mozilla-central", info.Name)

	path, err := s.TranslatePath(FormattedFile, "dir/file.cpp")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "file", "dir/file.cpp"), path)

	_, err = s.TranslatePath(FormattedFile, "../../etc/passwd")
	require.Error(t, err)
}
