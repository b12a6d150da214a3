// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/xref/internal/valuestream"
)

func TestTokenizeSourceRawReturnsText(t *testing.T) {
	srv := &fakeServer{source: map[string]string{"f.go": "package main\n"}}
	stage := TokenizeSource{File: "f.go"}
	v, err := stage.Execute(context.Background(), srv, valuestream.Value{})
	require.NoError(t, err)
	require.Equal(t, valuestream.KindTextFile, v.Kind)
	require.Equal(t, "package main\n", v.Text.Content)
}

func TestTokenizeSourceOutlineGoFunctions(t *testing.T) {
	srv := &fakeServer{source: map[string]string{
		"f.go": "package main\n\nfunc Foo() {\n}\n\nfunc Bar() {\n}\n",
	}}
	stage := TokenizeSource{File: "f.go", Outline: true}
	v, err := stage.Execute(context.Background(), srv, valuestream.Value{})
	require.NoError(t, err)
	require.Equal(t, valuestream.KindSymbolTreeTableList, v.Kind)
	names := map[string]bool{}
	for _, n := range v.Tree.Roots {
		names[n.Name] = true
	}
	require.True(t, names["Foo"])
	require.True(t, names["Bar"])
}

func TestTokenizeSourceOutlineUnsupportedExtension(t *testing.T) {
	srv := &fakeServer{source: map[string]string{"f.xyz": "???"}}
	stage := TokenizeSource{File: "f.xyz", Outline: true}
	_, err := stage.Execute(context.Background(), srv, valuestream.Value{})
	require.Error(t, err)
}
