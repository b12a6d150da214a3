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

func TestFilterAnalysisBySymbol(t *testing.T) {
	srv := &fakeServer{
		analysis: map[string][]json.RawMessage{
			"js/src/foo.cpp": {
				json.RawMessage(`{"source": 1, "syntax": "def,function", "sym": "A,B"}`),
				json.RawMessage(`{"source": 1, "syntax": "def,function", "sym": "C"}`),
			},
		},
	}
	stage := FilterAnalysis{File: "js/src/foo.cpp", Symbol: "A"}
	v, err := stage.Execute(context.Background(), srv, valuestream.Value{})
	require.NoError(t, err)
	require.Equal(t, valuestream.KindJSONRecords, v.Kind)
	require.Len(t, v.Records, 1)
	require.Equal(t, 1, len(v.Records[0].Records))
}

func TestFilterAnalysisByKindSourceRecord(t *testing.T) {
	srv := &fakeServer{
		analysis: map[string][]json.RawMessage{
			"f.cpp": {
				json.RawMessage(`{"source": 1, "syntax": "def,function", "sym": "A"}`),
				json.RawMessage(`{"source": 1, "syntax": "use,variable", "sym": "B"}`),
			},
		},
	}
	stage := FilterAnalysis{File: "f.cpp", Kind: "def"}
	v, err := stage.Execute(context.Background(), srv, valuestream.Value{})
	require.NoError(t, err)
	require.Len(t, v.Records[0].Records, 1)
}
