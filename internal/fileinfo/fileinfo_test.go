// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package fileinfo

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `{
	"dom/base/nsDocument.cpp": {"path": "dom/base/nsDocument.cpp", "is_dir": false, "bugzilla_component": "Core::DOM"},
	"dom/base": {"path": "dom/base", "is_dir": true},
	"dom/base/nsDocument.h": {"path": "dom/base/nsDocument.h", "is_dir": false, "test_info": "mochitest"},
	"js/src/jsapi.cpp": {"path": "js/src/jsapi.cpp", "is_dir": false, "coverage": "82%"}
}`

func writeMap(t *testing.T) *Map {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "concise-per-file-info.json")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))
	m, err := Load(path)
	require.NoError(t, err)
	return m
}

func TestLoadAndLookup(t *testing.T) {
	m := writeMap(t)
	assert.Equal(t, 4, m.Len())

	info, ok := m.Lookup("dom/base/nsDocument.cpp")
	require.True(t, ok)
	assert.Equal(t, "Core::DOM", info.BugzillaComponent)

	info, ok = m.Lookup("./dom/base/nsDocument.cpp")
	require.True(t, ok)
	assert.Equal(t, "Core::DOM", info.BugzillaComponent)

	_, ok = m.Lookup("does/not/exist.cpp")
	assert.False(t, ok)
}

func TestEnumerateExcludesDirsByDefault(t *testing.T) {
	m := writeMap(t)
	results := m.Enumerate(nil, false, 0)
	for _, r := range results {
		assert.False(t, r.IsDir)
	}
	assert.Len(t, results, 3)
}

func TestEnumerateWithPathRegex(t *testing.T) {
	m := writeMap(t)
	re := regexp.MustCompile(`^dom/`)
	results := m.Enumerate(re, true, 0)
	assert.Len(t, results, 3) // nsDocument.cpp, nsDocument.h, dom/base dir
}

func TestEnumerateLimit(t *testing.T) {
	m := writeMap(t)
	results := m.Enumerate(nil, true, 2)
	assert.Len(t, results, 2)
}

func TestEnumerateSortedOrder(t *testing.T) {
	m := writeMap(t)
	results := m.Enumerate(nil, true, 0)
	for i := 1; i < len(results); i++ {
		assert.Less(t, results[i-1].Path, results[i].Path)
	}
}
