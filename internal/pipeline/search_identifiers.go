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

// SearchIdentifiers resolves identifier needles into symbols
// (spec §4.7, grounded on cmd_search_identifiers.rs). Unlike the Rust
// original's silent Void-on-wrong-input quirk, a Value of the wrong Kind is
// a sticky ConfigLayer error, per spec §7's normative policy.
type SearchIdentifiers struct {
	Identifiers []string
	ExactMatch  bool
	CaseFold    bool
	Limit       int
}

// Execute implements Stage.
func (s SearchIdentifiers) Execute(ctx context.Context, srv server.AbstractServer, input valuestream.Value) (valuestream.Value, error) {
	identifiers := s.Identifiers
	if len(identifiers) == 0 {
		switch input.Kind {
		case valuestream.KindIdentifierList:
			identifiers = input.Identifiers
		case valuestream.KindVoid:
		default:
			return valuestream.Value{}, ixerrors.Config("search-identifiers needs a Void or IdentifierList, got %s", input.Kind)
		}
	}

	var hits []valuestream.SymbolHit
	for _, id := range identifiers {
		found, err := srv.SearchIdentifiers(ctx, id, s.ExactMatch, s.CaseFold, s.Limit)
		if err != nil {
			return valuestream.Value{}, err
		}
		hits = append(hits, found...)
	}

	return valuestream.SymbolList(hits), nil
}
