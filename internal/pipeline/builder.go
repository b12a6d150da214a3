// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"fmt"

	"github.com/google/shlex"
	"github.com/spf13/pflag"

	"github.com/kraklabs/xref/internal/contract"
	"github.com/kraklabs/xref/internal/ixerrors"
	"github.com/kraklabs/xref/internal/server"
	"github.com/kraklabs/xref/internal/treeconfig"
)

// Pipeline is a fully parsed, server-bound pipeline expression, ready to be
// handed to Run (spec §4.6).
type Pipeline struct {
	Server       server.AbstractServer
	OutputFormat OutputFormat
	Graph        *PipelineDescription
}

// Build parses a shell-word pipeline expression (segments separated by a
// literal "|") into a Pipeline, constructing the backend AbstractServer from
// the first segment's --server/--tree flags (spec §4.6, grounded on
// cmd_pipeline/builder.rs's build_pipeline). The shell grammar itself is
// strictly linear — builder.rs/parser.rs carry no DAG/branch syntax — so
// Build always produces the degenerate single-chain PipelineDescription
// (see linearGraph); a declarative multi-branch graph plan is constructed
// directly via PipelineDescription/Node/Edge and run with RunGraph instead
// of going through this shell-word entry point.
func Build(expr string) (*Pipeline, error) {
	if msg := contract.ValidatePipelineScript(expr); !msg.OK {
		return nil, ixerrors.BadInputf(msg.Message, "shorten or simplify the pipeline expression", "%s", msg.Message)
	}

	words, err := shlex.Split(expr)
	if err != nil {
		return nil, ixerrors.BadInputf(err.Error(), "check quoting in the pipeline expression", "failed to tokenize pipeline expression: %v", err)
	}

	var segmentWords [][]string
	var cur []string
	for _, w := range words {
		if w == "|" {
			segmentWords = append(segmentWords, cur)
			cur = nil
			continue
		}
		cur = append(cur, w)
	}
	segmentWords = append(segmentWords, cur)

	if len(segmentWords) == 0 || len(segmentWords[0]) == 0 {
		return nil, ixerrors.BadInputf("empty pipeline expression", "pass at least one stage", "empty pipeline expression")
	}

	globalServer, globalTree, outputFormat, firstWords, err := parseToolOpts(segmentWords[0])
	if err != nil {
		return nil, err
	}

	target := treeconfig.Resolve(globalServer, globalTree)
	srv, err := server.New(target)
	if err != nil {
		return nil, err
	}

	nodes := make([]Node, 0, len(segmentWords))
	name, stage, junction, err := parseStage(firstWords)
	if err != nil {
		return nil, err
	}
	nodes = append(nodes, Node{ID: nodeID(0), Name: name, Stage: stage, Junction: junction})

	for i, sw := range segmentWords[1:] {
		name, stage, junction, err := parseStage(sw)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, Node{ID: nodeID(i + 1), Name: name, Stage: stage, Junction: junction})
	}

	return &Pipeline{Server: srv, OutputFormat: outputFormat, Graph: linearGraph(nodes)}, nil
}

func nodeID(i int) NodeID {
	return NodeID(fmt.Sprintf("n%d", i))
}

// linearGraph represents a shell-composed stage chain as the degenerate
// single-chain case of a pipeline graph (spec §4.6/§4.8): node i's sole
// incoming edge comes from node i-1, carrying no label, and the last node
// is the graph's output.
func linearGraph(nodes []Node) *PipelineDescription {
	edges := make([]Edge, 0, len(nodes)-1)
	for i := 1; i < len(nodes); i++ {
		edges = append(edges, Edge{From: nodes[i-1].ID, To: nodes[i].ID})
	}
	var output NodeID
	if len(nodes) > 0 {
		output = nodes[len(nodes)-1].ID
	}
	return &PipelineDescription{Nodes: nodes, Edges: edges, Output: output}
}

// parseToolOpts strips the leading --server/--tree/--output-format flags
// (only meaningful on the first segment) off words and returns the
// remaining words as that segment's own subcommand + args.
func parseToolOpts(words []string) (srv, tree string, format OutputFormat, rest []string, err error) {
	if len(words) == 0 {
		return "", "", "", nil, ixerrors.BadInputf("empty pipeline segment", "add a stage name", "empty pipeline segment")
	}

	fs := pflag.NewFlagSet("tool-opts", pflag.ContinueOnError)
	fs.Usage = func() {}
	fs.SetInterspersed(false)

	serverFlag := fs.String("server", "", "server URL or local index root")
	treeFlag := fs.String("tree", "", "tree name")
	formatFlag := fs.StringP("output-format", "o", string(OutputConcise), "pretty|concise")

	if err := fs.Parse(words); err != nil {
		return "", "", "", nil, ixerrors.BadInputf(err.Error(), "check --server/--tree/--output-format flags", "%v", err)
	}

	of := OutputFormat(*formatFlag)
	if of != OutputPretty && of != OutputConcise {
		return "", "", "", nil, ixerrors.BadInputf("invalid --output-format", `use "pretty" or "concise"`, "invalid --output-format %q", *formatFlag)
	}

	return *serverFlag, *treeFlag, of, fs.Args(), nil
}
