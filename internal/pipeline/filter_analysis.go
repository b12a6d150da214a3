// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/kraklabs/xref/internal/ixerrors"
	"github.com/kraklabs/xref/internal/server"
	"github.com/kraklabs/xref/internal/valuestream"
)

// FilterAnalysis fetches a file's raw analysis records and filters them by
// record type, kind, symbol, or identifier (spec §4.7, grounded on
// cmd_filter_analysis.rs).
type FilterAnalysis struct {
	File       string
	RecordType []string // any of "source", "target", "structured"
	Kind       string
	Symbol     string
	Identifier string
}

// Execute implements Stage.
func (f FilterAnalysis) Execute(ctx context.Context, srv server.AbstractServer, _ valuestream.Value) (valuestream.Value, error) {
	raw, err := srv.FetchRawAnalysis(ctx, f.File)
	if err != nil {
		return valuestream.Value{}, err
	}

	var filtered []map[string]any
	for _, line := range raw {
		var rec map[string]any
		if err := json.Unmarshal(line, &rec); err != nil {
			return valuestream.Value{}, ixerrors.Data(err, "malformed analysis record in %q", f.File)
		}
		if !f.matchesRecordType(rec) {
			continue
		}
		if f.Kind != "" && !f.matchesKind(rec) {
			continue
		}
		if f.Symbol != "" && !f.matchesSymbol(rec) {
			continue
		}
		if f.Identifier != "" && !f.matchesIdentifier(rec) {
			continue
		}
		filtered = append(filtered, rec)
	}

	return valuestream.JSONRecordsValue([]valuestream.JSONRecordsByFile{
		{Path: f.File, Records: filtered},
	}), nil
}

func (f FilterAnalysis) matchesRecordType(rec map[string]any) bool {
	if len(f.RecordType) == 0 {
		return true
	}
	for _, t := range f.RecordType {
		if _, ok := rec[t]; ok {
			return true
		}
	}
	return false
}

// matchesKind branches on whether the record is a source record
// (numeric "source" field) or a target record (numeric "target" field), per
// cmd_filter_analysis.rs: source records take the first comma-separated
// token of "syntax"; target records compare "kind" directly.
func (f FilterAnalysis) matchesKind(rec map[string]any) bool {
	if _, ok := rec["source"].(float64); ok {
		syntax, _ := rec["syntax"].(string)
		first := strings.SplitN(syntax, ",", 2)[0]
		return first == f.Kind
	}
	if _, ok := rec["target"].(float64); ok {
		kind, _ := rec["kind"].(string)
		return kind == f.Kind
	}
	return false
}

func (f FilterAnalysis) matchesSymbol(rec map[string]any) bool {
	sym, _ := rec["sym"].(string)
	for _, s := range strings.Split(sym, ",") {
		if s == f.Symbol {
			return true
		}
	}
	return false
}

func (f FilterAnalysis) matchesIdentifier(rec map[string]any) bool {
	pretty, _ := rec["pretty"].(string)
	fields := strings.Fields(pretty)
	if len(fields) == 0 {
		return false
	}
	return fields[len(fields)-1] == f.Identifier
}
