// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"
	"encoding/json"

	"github.com/itchyny/gojq"

	"github.com/kraklabs/xref/internal/ixerrors"
	"github.com/kraklabs/xref/internal/server"
	"github.com/kraklabs/xref/internal/valuestream"
)

// Jq runs a jq filter against a value's lossless JSON projection
// (spec §4.7, grounded on cmd_jq.rs). Value.ToJSON's result is round-tripped
// through encoding/json into generic maps, slices and float64s, so this
// stage needs no per-variant match the way the Rust original does.
type Jq struct {
	Filter string
}

// Execute implements Stage.
func (j Jq) Execute(_ context.Context, _ server.AbstractServer, input valuestream.Value) (valuestream.Value, error) {
	query, err := gojq.Parse(j.Filter)
	if err != nil {
		return valuestream.Value{}, ixerrors.BadInputf(err.Error(), "pass a valid jq filter", "malformed jq filter %q", j.Filter)
	}

	raw, err := json.Marshal(input.ToJSON())
	if err != nil {
		return valuestream.Value{}, ixerrors.Data(err, "cannot encode %s value as JSON", input.Kind)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return valuestream.Value{}, ixerrors.Data(err, "cannot decode %s value as JSON", input.Kind)
	}

	iter := query.Run(doc)
	var out []any
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return valuestream.Value{}, ixerrors.Data(err, "jq filter %q failed", j.Filter)
		}
		out = append(out, v)
	}

	if len(out) == 1 {
		return valuestream.JSONValue(out[0]), nil
	}
	return valuestream.JSONValueList(out), nil
}
