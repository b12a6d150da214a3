// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/xref/internal/valuestream"
)

func TestJumprefLookupResolvesExplicitSymbols(t *testing.T) {
	srv := &fakeServer{jumprefs: map[string]json.RawMessage{
		"Foo::bar": json.RawMessage(`{"path":"foo.cpp","line":10}`),
	}}
	stage := JumprefLookup{Symbols: []string{"Foo::bar"}}
	v, err := stage.Execute(context.Background(), srv, valuestream.Value{})
	require.NoError(t, err)
	require.Equal(t, valuestream.KindJSONValueList, v.Kind)
	require.Len(t, v.JSONList, 1)
}

func TestJumprefLookupUnknownSymbolYieldsNil(t *testing.T) {
	srv := &fakeServer{jumprefs: map[string]json.RawMessage{}}
	stage := JumprefLookup{Symbols: []string{"Unknown::sym"}}
	v, err := stage.Execute(context.Background(), srv, valuestream.Value{})
	require.NoError(t, err)
	require.Equal(t, []any{nil}, v.JSONList)
}

func TestJumprefLookupTakesSymbolsFromInputList(t *testing.T) {
	srv := &fakeServer{jumprefs: map[string]json.RawMessage{
		"S1": json.RawMessage(`"one"`),
		"S2": json.RawMessage(`"two"`),
	}}
	input := valuestream.SymbolList([]valuestream.SymbolHit{{Sym: "S1"}, {Sym: "S2"}})
	stage := JumprefLookup{}
	v, err := stage.Execute(context.Background(), srv, input)
	require.NoError(t, err)
	require.Equal(t, []any{"one", "two"}, v.JSONList)
}

func TestJumprefLookupRejectsWrongInputKind(t *testing.T) {
	stage := JumprefLookup{}
	_, err := stage.Execute(context.Background(), &fakeServer{}, valuestream.JSONValue(1))
	require.Error(t, err)
}
