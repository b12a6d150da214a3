// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package valuestream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSymbolMetaFlagsUnion(t *testing.T) {
	a := FlagSource
	b := FlagTarget
	u := a.Union(b)
	assert.True(t, u.Has(FlagSource))
	assert.True(t, u.Has(FlagTarget))
	assert.False(t, FlagSource.Has(FlagTarget))
}

func TestJSONRecordsByFileLineSet(t *testing.T) {
	recs := JSONRecordsByFile{
		Path: "foo.cpp",
		Records: []map[string]any{
			{"loc": "10:3-8"},
			{"loc": "10:20-25"},
			{"loc": "42:1-2"},
			{"loc": ""},
			{"no_loc": true},
		},
	}
	assert.Equal(t, []int{10, 42}, recs.LineSet())
}

func TestValueToJSONVoid(t *testing.T) {
	v := Void()
	assert.Nil(t, v.ToJSON())
}

func TestValueToJSONIdentifierList(t *testing.T) {
	v := IdentifierList([]string{"Foo", "Bar"})
	got, ok := v.ToJSON().([]string)
	assert.True(t, ok)
	assert.Equal(t, []string{"Foo", "Bar"}, got)
}

func TestSymbolCrossrefInfoListCarriesUnknown(t *testing.T) {
	v := SymbolCrossrefInfoList(
		[]SymbolCrossrefInfo{{Sym: "T_Foo::bar", Flags: FlagSource}},
		[]string{"T_Missing::baz"},
	)
	assert.Equal(t, KindSymbolCrossrefInfoList, v.Kind)
	assert.Len(t, v.Crossrefs, 1)
	assert.Equal(t, []string{"T_Missing::baz"}, v.Unknown)

	asJSON, ok := v.ToJSON().(map[string]any)
	assert.True(t, ok)
	assert.Contains(t, asJSON, "unknown_symbols")
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "Void", KindVoid.String())
	assert.Equal(t, "GraphResultsBundle", KindGraphResultsBundle.String())
	assert.Equal(t, "Unknown", Kind(999).String())
}
