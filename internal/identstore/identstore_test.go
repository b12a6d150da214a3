// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package identstore

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeStore(t *testing.T, lines []string) *Store {
	t.Helper()
	sorted := make([]string, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool {
		return string(upperFold([]byte(sorted[i]))) < string(upperFold([]byte(sorted[j])))
	})

	content := ""
	for _, l := range sorted {
		content += l + "\n"
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "identifiers")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func symbols(hits []Hit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Symbol
	}
	sort.Strings(out)
	return out
}

func TestSearchExactMatch(t *testing.T) {
	s := writeStore(t, []string{
		"nsIFoo S_nsIFoo",
		"nsIFooBar S_nsIFooBar",
		"nsIFooBaz S_nsIFooBaz",
	})

	hits := s.Search("nsIFoo", true, false, 0)
	assert.Equal(t, []string{"S_nsIFoo"}, symbols(hits))
}

func TestSearchPrefixMatch(t *testing.T) {
	s := writeStore(t, []string{
		"nsIFoo S_nsIFoo",
		"nsIFooBar S_nsIFooBar",
		"nsIFooBaz S_nsIFooBaz",
		"nsIOther S_nsIOther",
	})

	hits := s.Search("nsIFoo", false, false, 0)
	assert.ElementsMatch(t, []string{"S_nsIFoo", "S_nsIFooBar", "S_nsIFooBaz"}, symbols(hits))
}

func TestSearchRejectsScopeTransitionSuffix(t *testing.T) {
	s := writeStore(t, []string{
		"Foo::bar S_Foo_bar",
		"Foo.baz S_Foo_baz",
		"FooQux S_FooQux",
	})

	hits := s.Search("Foo", false, false, 0)
	assert.Equal(t, []string{"S_FooQux"}, symbols(hits))
}

func TestSearchCaseFoldOrderingIndependence(t *testing.T) {
	s := writeStore(t, []string{
		"NsFoo S_NsFoo",
		"nsfoo S_nsfoo_lower",
		"NSFOO S_NSFOO_upper",
	})

	base := symbols(s.Search("nsfoo", false, true, 0))
	upper := symbols(s.Search("NSFOO", false, true, 0))
	mixed := symbols(s.Search("NsFoO", false, true, 0))

	assert.Equal(t, base, upper)
	assert.Equal(t, base, mixed)
	assert.Len(t, base, 3)
}

func TestSearchLimit(t *testing.T) {
	s := writeStore(t, []string{
		"nsIFooA S_A",
		"nsIFooB S_B",
		"nsIFooC S_C",
	})

	hits := s.Search("nsIFoo", false, false, 2)
	assert.Len(t, hits, 2)
}

func TestSearchNoMatch(t *testing.T) {
	s := writeStore(t, []string{
		"Alpha S_Alpha",
		"Bravo S_Bravo",
	})
	hits := s.Search("Zulu", false, false, 0)
	assert.Empty(t, hits)
}

func TestSetDemangler(t *testing.T) {
	t.Cleanup(func() { SetDemangler(nil) })
	SetDemangler(func(sym string) string { return "demangled:" + sym })

	s := writeStore(t, []string{"nsIFoo S_nsIFoo"})
	hits := s.Search("nsIFoo", true, false, 0)
	require.Len(t, hits, 1)
	// Symbol always stays raw; only the displayed Identifier is replaced
	// when demangling actually changes the name.
	assert.Equal(t, "S_nsIFoo", hits[0].Symbol)
	assert.Equal(t, "demangled:S_nsIFoo", hits[0].Identifier)
}
