// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"

	"github.com/kraklabs/xref/internal/valuestream"
)

// Run executes p's graph to completion (spec §4.6/§4.8, grounded on
// cmd_pipeline/builder.rs's ServerPipeline for the linear case — the pack
// carries no concrete CLI syntax for a multi-branch fan-out, so Build always
// produces the degenerate single-chain PipelineDescription, and a
// fuse-crossrefs node reached by Build's output genuinely has only one
// incoming edge). RunGraph itself is the one executor for both the linear
// chain and a true declarative DAG plan (spec §4.8: "For a linear pipeline
// ... For a graph ...").
func Run(ctx context.Context, p *Pipeline) (valuestream.Value, error) {
	return RunGraph(ctx, p.Server, p.Graph)
}
