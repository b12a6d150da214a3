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

func TestJqSingleResult(t *testing.T) {
	input := valuestream.JSONValue(map[string]any{"a": 1.0, "b": 2.0})
	stage := Jq{Filter: ".a"}
	v, err := stage.Execute(context.Background(), &fakeServer{}, input)
	require.NoError(t, err)
	require.Equal(t, valuestream.KindJSONValue, v.Kind)
	require.Equal(t, 1.0, v.JSON)
}

func TestJqMultipleResultsBecomeList(t *testing.T) {
	input := valuestream.JSONValueList([]any{map[string]any{"a": 1.0}, map[string]any{"a": 2.0}})
	stage := Jq{Filter: ".[].a"}
	v, err := stage.Execute(context.Background(), &fakeServer{}, input)
	require.NoError(t, err)
	require.Equal(t, valuestream.KindJSONValueList, v.Kind)
	require.Len(t, v.JSONList, 2)
}

func TestJqMalformedFilterIsBadInput(t *testing.T) {
	stage := Jq{Filter: "("}
	_, err := stage.Execute(context.Background(), &fakeServer{}, valuestream.Value{})
	require.Error(t, err)
}
