// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"
	"encoding/json"

	"github.com/kraklabs/xref/internal/contract"
	"github.com/kraklabs/xref/internal/ixerrors"
	"github.com/kraklabs/xref/internal/server"
	"github.com/kraklabs/xref/internal/valuestream"
)

// JumprefLookup resolves each input symbol's condensed jumpref form
// (spec §4.7, grounded on cmd_jumpref_lookup.rs).
type JumprefLookup struct {
	Symbols []string
}

// Execute implements Stage.
func (j JumprefLookup) Execute(ctx context.Context, srv server.AbstractServer, input valuestream.Value) (valuestream.Value, error) {
	symbols := j.Symbols
	if len(symbols) == 0 {
		switch input.Kind {
		case valuestream.KindSymbolList:
			for _, s := range input.Symbols {
				symbols = append(symbols, s.Sym)
			}
		case valuestream.KindVoid:
		default:
			return valuestream.Value{}, ixerrors.Config("jumpref-lookup needs a Void or SymbolList, got %s", input.Kind)
		}
	}

	if msg := contract.ValidateSymbolBatch(symbols); !msg.OK {
		return valuestream.Value{}, ixerrors.BadInputf(msg.Message, "split the request into smaller batches", "%s", msg.Message)
	}

	out := make([]any, 0, len(symbols))
	for _, sym := range symbols {
		raw, err := srv.JumprefLookup(ctx, sym)
		if err != nil {
			return valuestream.Value{}, err
		}
		if raw == nil {
			out = append(out, nil)
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return valuestream.Value{}, ixerrors.Data(err, "malformed jumpref entry for %q", sym)
		}
		out = append(out, v)
	}

	return valuestream.JSONValueList(out), nil
}
