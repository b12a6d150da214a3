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

func TestRunChainsStagesInOrder(t *testing.T) {
	srv := &fakeServer{query: json.RawMessage(`{"a": 1, "b": 2}`)}
	p := &Pipeline{
		Server: srv,
		Graph: linearGraph([]Node{
			{ID: "n0", Name: "query", Stage: Query{Expr: "foo()"}},
			{ID: "n1", Name: "jq", Stage: Jq{Filter: ".a"}},
		}),
	}
	v, err := Run(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, valuestream.KindJSONValue, v.Kind)
	require.Equal(t, float64(1), v.JSON)
}

func TestRunStopsOnFirstError(t *testing.T) {
	srv := &fakeServer{}
	p := &Pipeline{
		Server: srv,
		Graph: linearGraph([]Node{
			{ID: "n0", Name: "query", Stage: Query{Expr: "foo()"}},
			{ID: "n1", Name: "show-html", Stage: ShowHTML{}},
		}),
	}
	_, err := Run(context.Background(), p)
	require.Error(t, err)
}

func TestRunInvokesJunctionWithSingleBranchWhenLinear(t *testing.T) {
	srv := &fakeServer{crossrefs: map[string]json.RawMessage{
		"Foo::bar": json.RawMessage(`{"symbol":"Foo::bar"}`),
	}}
	p := &Pipeline{
		Server: srv,
		Graph: linearGraph([]Node{
			{ID: "n0", Name: "crossref-lookup", Stage: CrossrefLookup{Symbols: []string{"Foo::bar"}}},
			{ID: "n1", Name: "fuse-crossrefs", Junction: FuseCrossrefs{}},
		}),
	}
	v, err := Run(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, valuestream.KindSymbolCrossrefInfoList, v.Kind)
	require.Len(t, v.Crossrefs, 1)
}

// TestRunGraphFansOutAndFusesLabeledBranches drives a genuine DAG: two
// independent crossref-lookup branches feed one fuse-crossrefs junction,
// each arriving under its own edge label, exercising real multi-branch
// junction input rather than the composer's single-chain degenerate case.
func TestRunGraphFansOutAndFusesLabeledBranches(t *testing.T) {
	srv := &fakeServer{crossrefs: map[string]json.RawMessage{
		"Foo::bar": json.RawMessage(`{"symbol":"Foo::bar"}`),
		"Foo::baz": json.RawMessage(`{"symbol":"Foo::baz"}`),
	}}
	desc := &PipelineDescription{
		Nodes: []Node{
			{ID: "source", Name: "crossref-lookup", Stage: CrossrefLookup{Symbols: []string{"Foo::bar"}}},
			{ID: "target", Name: "crossref-lookup", Stage: CrossrefLookup{Symbols: []string{"Foo::baz"}}},
			{ID: "fuse", Name: "fuse-crossrefs", Junction: FuseCrossrefs{}},
		},
		Edges: []Edge{
			{From: "source", To: "fuse", Label: "source"},
			{From: "target", To: "fuse", Label: "target"},
		},
		Output: "fuse",
	}
	v, err := RunGraph(context.Background(), srv, desc)
	require.NoError(t, err)
	require.Equal(t, valuestream.KindSymbolCrossrefInfoList, v.Kind)
	require.Len(t, v.Crossrefs, 2)
	require.True(t, v.Crossrefs[0].Flags.Has(valuestream.FlagSource))
	require.True(t, v.Crossrefs[1].Flags.Has(valuestream.FlagTarget))
}

func TestRunGraphDetectsCycle(t *testing.T) {
	desc := &PipelineDescription{
		Nodes: []Node{
			{ID: "a", Name: "jq", Stage: Jq{Filter: "."}},
			{ID: "b", Name: "jq", Stage: Jq{Filter: "."}},
		},
		Edges: []Edge{
			{From: "a", To: "b"},
			{From: "b", To: "a"},
		},
		Output: "b",
	}
	_, err := RunGraph(context.Background(), &fakeServer{}, desc)
	require.Error(t, err)
}

func TestRunGraphRejectsMultipleEdgesIntoNonJunction(t *testing.T) {
	desc := &PipelineDescription{
		Nodes: []Node{
			{ID: "a", Name: "query", Stage: Query{Expr: "foo()"}},
			{ID: "b", Name: "query", Stage: Query{Expr: "bar()"}},
			{ID: "c", Name: "jq", Stage: Jq{Filter: "."}},
		},
		Edges: []Edge{
			{From: "a", To: "c"},
			{From: "b", To: "c"},
		},
		Output: "c",
	}
	srv := &fakeServer{query: json.RawMessage(`{}`)}
	_, err := RunGraph(context.Background(), srv, desc)
	require.Error(t, err)
}
