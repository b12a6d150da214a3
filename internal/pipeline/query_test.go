// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kraklabs/xref/internal/valuestream"
)

func TestQueryWrapsPerformQueryResult(t *testing.T) {
	srv := &fakeServer{query: json.RawMessage(`{"ok": true}`)}
	stage := Query{Expr: "foo"}
	v, err := stage.Execute(context.Background(), srv, valuestream.Value{})
	require.NoError(t, err)
	require.Equal(t, valuestream.KindJSONValue, v.Kind)
	require.Equal(t, map[string]any{"ok": true}, v.JSON)
}
