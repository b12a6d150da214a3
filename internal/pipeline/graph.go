// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"

	"github.com/kraklabs/xref/internal/ixerrors"
	"github.com/kraklabs/xref/internal/server"
	"github.com/kraklabs/xref/internal/valuestream"
)

// NodeID names one node in a PipelineDescription's graph.
type NodeID string

// Node is one instantiated stage or junction bound into a pipeline graph.
type Node struct {
	ID       NodeID
	Name     string
	Stage    Stage
	Junction JunctionStage
}

// Edge connects one node's output to another node's input. Label selects
// which branch a value arrives as at a junction node (e.g. "source"/
// "target" for fuse-crossrefs); it is meaningless for a non-junction To and
// is left empty there.
type Edge struct {
	From  NodeID
	To    NodeID
	Label string
}

// PipelineDescription is the "richer form" pipeline graph spec §4.6
// describes: a DAG of typed nodes joined by labeled edges, with zero or
// more junction nodes. The shell-word composer's linear output (builder.go)
// is represented as the degenerate case of this same structure — one edge
// between each consecutive pair of nodes — so RunGraph is the single
// executor for both forms (spec §4.8: "For a linear pipeline ... For a
// graph ...").
type PipelineDescription struct {
	Nodes  []Node
	Edges  []Edge
	Output NodeID
}

// RunGraph executes desc's nodes in topological order (spec §4.8). A node
// with no incoming edge is seeded with Void. A non-junction node must have
// at most one incoming edge, whose value becomes its input directly; a
// junction node receives every incoming edge as a LabeledValue, so
// junctions genuinely observe multiple labeled branches rather than a
// single synthesized one. Ties among nodes that become ready at the same
// time are broken by declaration order in desc.Nodes, so repeated runs over
// the same description are reproducible (spec §5 "deterministic order of
// equal-priority branches is required").
func RunGraph(ctx context.Context, srv server.AbstractServer, desc *PipelineDescription) (valuestream.Value, error) {
	inbound := make(map[NodeID][]Edge, len(desc.Nodes))
	indegree := make(map[NodeID]int, len(desc.Nodes))
	for _, e := range desc.Edges {
		inbound[e.To] = append(inbound[e.To], e)
		indegree[e.To]++
	}

	done := make(map[NodeID]bool, len(desc.Nodes))
	outputs := make(map[NodeID]valuestream.Value, len(desc.Nodes))

	for remaining := len(desc.Nodes); remaining > 0; remaining-- {
		if err := ctx.Err(); err != nil {
			return valuestream.Value{}, err
		}

		next := nextReadyNode(desc.Nodes, done, indegree)
		if next == nil {
			return valuestream.Value{}, ixerrors.Config("pipeline graph has a cycle or an unreachable node")
		}

		out, err := executeNode(ctx, srv, next, inbound[next.ID], outputs)
		if err != nil {
			return valuestream.Value{}, err
		}

		outputs[next.ID] = out
		done[next.ID] = true
		for _, e := range desc.Edges {
			if e.From == next.ID {
				indegree[e.To]--
			}
		}
	}

	result, ok := outputs[desc.Output]
	if !ok {
		return valuestream.Value{}, ixerrors.Config("pipeline graph output node %q never ran", desc.Output)
	}
	return result, nil
}

// nextReadyNode returns the lowest-declaration-index node with no
// unresolved incoming edge that hasn't run yet, or nil if none remain.
func nextReadyNode(nodes []Node, done map[NodeID]bool, indegree map[NodeID]int) *Node {
	for i := range nodes {
		n := &nodes[i]
		if done[n.ID] || indegree[n.ID] > 0 {
			continue
		}
		return n
	}
	return nil
}

func executeNode(ctx context.Context, srv server.AbstractServer, n *Node, edges []Edge, outputs map[NodeID]valuestream.Value) (valuestream.Value, error) {
	switch {
	case n.Junction != nil:
		inputs := make([]LabeledValue, 0, len(edges))
		for _, e := range edges {
			inputs = append(inputs, LabeledValue{Label: e.Label, Value: outputs[e.From]})
		}
		return n.Junction.ExecuteJunction(ctx, srv, inputs)

	case n.Stage != nil:
		var input valuestream.Value
		switch len(edges) {
		case 0:
		case 1:
			input = outputs[edges[0].From]
		default:
			return valuestream.Value{}, ixerrors.Config("pipeline node %q is not a junction but has %d incoming edges", n.Name, len(edges))
		}
		return n.Stage.Execute(ctx, srv, input)

	default:
		return valuestream.Value{}, ixerrors.Config("pipeline node %q has neither a stage nor a junction", n.Name)
	}
}
