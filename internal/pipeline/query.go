// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"
	"encoding/json"

	"github.com/kraklabs/xref/internal/ixerrors"
	"github.com/kraklabs/xref/internal/server"
	"github.com/kraklabs/xref/internal/valuestream"
)

// Query delegates an opaque query string to the server's search front-end
// (spec §4.7, grounded on cmd_query.rs).
type Query struct {
	Expr string
}

// Execute implements Stage.
func (q Query) Execute(ctx context.Context, srv server.AbstractServer, _ valuestream.Value) (valuestream.Value, error) {
	raw, err := srv.PerformQuery(ctx, q.Expr)
	if err != nil {
		return valuestream.Value{}, err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return valuestream.Value{}, ixerrors.Data(err, "malformed query response")
	}
	return valuestream.JSONValue(v), nil
}
