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

func TestMergeAnalysesDedupesByTripleAndTagsPlatform(t *testing.T) {
	srv := &fakeServer{
		analysis: map[string][]json.RawMessage{
			"linux/f.cpp": {
				json.RawMessage(`{"sym": "A", "loc": "1:2-3"}`),
				json.RawMessage(`{"sym": "B", "loc": "4:5-6"}`),
			},
			"mac/f.cpp": {
				json.RawMessage(`{"sym": "A", "loc": "1:2-3"}`),
				json.RawMessage(`{"sym": "C", "loc": "7:8-9"}`),
			},
		},
	}
	stage := MergeAnalyses{Files: []string{"linux/f.cpp", "mac/f.cpp"}, Platforms: []string{"linux", "mac"}}
	v, err := stage.Execute(context.Background(), srv, valuestream.Value{})
	require.NoError(t, err)
	require.Len(t, v.Records, 1)
	require.Len(t, v.Records[0].Records, 4)
}

func TestMergeAnalysesNeedsAtLeastOneFile(t *testing.T) {
	stage := MergeAnalyses{}
	_, err := stage.Execute(context.Background(), &fakeServer{}, valuestream.Value{})
	require.Error(t, err)
}
