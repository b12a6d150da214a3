// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package treeconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePrefersFlags(t *testing.T) {
	t.Setenv(EnvServerPrimary, "https://example.org/searchfox")
	t.Setenv(EnvTreePrimary, "mozilla-central")

	target := Resolve("/trees/other", "other-tree")
	assert.Equal(t, "/trees/other", target.Server)
	assert.Equal(t, "other-tree", target.Tree)
}

func TestResolveFallsBackToEnv(t *testing.T) {
	t.Setenv(EnvServerPrimary, "https://example.org/searchfox")
	t.Setenv(EnvTreePrimary, "mozilla-central")
	t.Setenv(EnvServerAlias, "")
	t.Setenv(EnvTreeAlias, "")

	target := Resolve("", "")
	assert.Equal(t, "https://example.org/searchfox", target.Server)
	assert.Equal(t, "mozilla-central", target.Tree)
}

func TestResolveAliasWhenPrimaryUnset(t *testing.T) {
	t.Setenv(EnvServerPrimary, "")
	t.Setenv(EnvTreePrimary, "")
	t.Setenv(EnvServerAlias, "/trees/local")
	t.Setenv(EnvTreeAlias, "local-tree")

	target := Resolve("", "")
	assert.Equal(t, "/trees/local", target.Server)
	assert.Equal(t, "local-tree", target.Tree)
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://searchfox.example.org/mozilla-central"))
	assert.True(t, IsRemote("http://localhost:8000"))
	assert.False(t, IsRemote("/trees/mozilla-central"))
	assert.False(t, IsRemote("mozilla-central"))
}

func TestLoadMissingConfigIsZeroValue(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Tree{}, cfg)
}

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".xref"), 0o755))
	content := "display_name: Mozilla Central\ntemplates_dir: templates\ngit_remote_url: https://github.com/mozilla/gecko-dev\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, configRelPath), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "Mozilla Central", cfg.DisplayName)
	assert.Equal(t, "templates", cfg.TemplatesDir)
	assert.Equal(t, "https://github.com/mozilla/gecko-dev", cfg.GitRemoteURL)
}

func TestLoadMalformedYAMLIsConfigError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".xref"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, configRelPath), []byte("display_name: [unterminated"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
}
