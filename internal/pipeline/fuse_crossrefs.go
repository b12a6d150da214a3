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

// FuseCrossrefs merges labeled SymbolCrossrefInfoList branches (spec §4.8,
// grounded on cmd_fuse_crossrefs.rs). A branch labeled "source" or "target"
// ORs the corresponding SymbolMetaFlags bit onto each of its entries; any
// other label contributes flag 0. Entries and unknown symbols are
// concatenated across every input in order — duplicates are never
// coalesced, matching the Rust original's observed behavior (see
// DESIGN.md's Open Questions section).
type FuseCrossrefs struct{}

// ExecuteJunction implements JunctionStage.
func (FuseCrossrefs) ExecuteJunction(_ context.Context, _ server.AbstractServer, inputs []LabeledValue) (valuestream.Value, error) {
	var items []valuestream.SymbolCrossrefInfo
	var unknown []string

	for _, in := range inputs {
		if in.Value.Kind != valuestream.KindSymbolCrossrefInfoList {
			return valuestream.Value{}, ixerrors.Config("fuse-crossrefs got something weird")
		}

		flag := labelFlag(in.Label)
		for _, c := range in.Value.Crossrefs {
			c.Flags = c.Flags.Union(flag)
			items = append(items, c)
		}
		unknown = append(unknown, in.Value.Unknown...)
	}

	return valuestream.SymbolCrossrefInfoList(items, unknown), nil
}

func labelFlag(label string) valuestream.SymbolMetaFlags {
	switch label {
	case "source":
		return valuestream.FlagSource
	case "target":
		return valuestream.FlagTarget
	default:
		return 0
	}
}
