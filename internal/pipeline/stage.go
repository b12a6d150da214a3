// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pipeline implements the composable query pipeline: a text
// expression of "|"-separated stages is parsed into a chain of Stage values,
// each consuming the previous stage's output and producing the next one's
// input, run against an AbstractServer (spec §4.6/§4.7/§4.8).
package pipeline

import (
	"context"

	"github.com/kraklabs/xref/internal/server"
	"github.com/kraklabs/xref/internal/valuestream"
)

// Stage is one pipeline command: it consumes the prior stage's output value
// and produces the next one, or returns a sticky *ixerrors.Error when given a
// Value of the wrong Kind (spec §7: "a stage receiving an unexpected
// variant returns a sticky ConfigLayer error").
type Stage interface {
	Execute(ctx context.Context, srv server.AbstractServer, input valuestream.Value) (valuestream.Value, error)
}

// LabeledValue is one input to a JunctionStage: a branch label (e.g.
// "source"/"target") paired with that branch's output value.
type LabeledValue struct {
	Label string
	Value valuestream.Value
}

// JunctionStage merges multiple labeled branch outputs into one value
// (spec §4.8; fuse-crossrefs is the one junction implemented here). Used at
// DAG join points by
// the graph executor.
type JunctionStage interface {
	ExecuteJunction(ctx context.Context, srv server.AbstractServer, inputs []LabeledValue) (valuestream.Value, error)
}

// StageFunc adapts a plain function to the Stage interface.
type StageFunc func(ctx context.Context, srv server.AbstractServer, input valuestream.Value) (valuestream.Value, error)

// Execute implements Stage.
func (f StageFunc) Execute(ctx context.Context, srv server.AbstractServer, input valuestream.Value) (valuestream.Value, error) {
	return f(ctx, srv, input)
}
