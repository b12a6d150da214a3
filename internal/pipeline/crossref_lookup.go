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

// CrossrefLookup resolves each input symbol's full crossref entry
// (spec §4.7). With RecursiveDepth > 0, it breadth-first expands through
// each entry's `meta.slotOwner.sym` and `meta.bindingSlots[*].sym` fields up
// to that many hops, deduplicating visited symbols so a cycle terminates
// (SPEC_FULL supplemented semantics).
type CrossrefLookup struct {
	Symbols        []string
	RecursiveDepth int
}

// Execute implements Stage.
func (c CrossrefLookup) Execute(ctx context.Context, srv server.AbstractServer, input valuestream.Value) (valuestream.Value, error) {
	symbols := c.Symbols
	if len(symbols) == 0 {
		switch input.Kind {
		case valuestream.KindSymbolList:
			for _, s := range input.Symbols {
				symbols = append(symbols, s.Sym)
			}
		case valuestream.KindVoid:
			// nothing to expand; falls through to the empty result below.
		default:
			return valuestream.Value{}, ixerrors.Config("crossref-lookup needs a Void or SymbolList, got %s", input.Kind)
		}
	}

	if msg := contract.ValidateSymbolBatch(symbols); !msg.OK {
		return valuestream.Value{}, ixerrors.BadInputf(msg.Message, "split the request into smaller batches", "%s", msg.Message)
	}

	visited := make(map[string]bool, len(symbols))
	var items []valuestream.SymbolCrossrefInfo
	var unknown []string

	frontier := append([]string(nil), symbols...)
	for depth := 0; depth <= c.RecursiveDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, sym := range frontier {
			if visited[sym] {
				continue
			}
			visited[sym] = true

			raw, err := srv.CrossrefLookup(ctx, sym)
			if err != nil {
				return valuestream.Value{}, err
			}
			if raw == nil {
				unknown = append(unknown, sym)
				continue
			}

			var entry map[string]any
			if err := json.Unmarshal(raw, &entry); err != nil {
				return valuestream.Value{}, ixerrors.Data(err, "malformed crossref entry for %q", sym)
			}
			items = append(items, valuestream.SymbolCrossrefInfo{Sym: sym, CrossrefInfo: entry})

			if depth < c.RecursiveDepth {
				next = append(next, relatedSymbols(entry)...)
			}
		}
		frontier = next
	}

	return valuestream.SymbolCrossrefInfoList(items, unknown), nil
}

// relatedSymbols extracts the binding-slot graph neighbors of a crossref
// entry's meta block, used by CrossrefLookup's recursive expansion.
func relatedSymbols(entry map[string]any) []string {
	meta, _ := entry["meta"].(map[string]any)
	if meta == nil {
		return nil
	}

	var out []string
	if owner, ok := meta["slotOwner"].(map[string]any); ok {
		if sym, ok := owner["sym"].(string); ok && sym != "" {
			out = append(out, sym)
		}
	}
	if slots, ok := meta["bindingSlots"].([]any); ok {
		for _, s := range slots {
			slot, ok := s.(map[string]any)
			if !ok {
				continue
			}
			if sym, ok := slot["sym"].(string); ok && sym != "" {
				out = append(out, sym)
			}
		}
	}
	return out
}
