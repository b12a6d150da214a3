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

// fakeServer is a minimal in-memory AbstractServer double for stage tests.
type fakeServer struct {
	analysis  map[string][]json.RawMessage
	html      map[string]string
	source    map[string]string
	crossrefs map[string]json.RawMessage
	jumprefs  map[string]json.RawMessage
	idents    []valuestream.SymbolHit
	query     json.RawMessage
	tree      string
}

func (f *fakeServer) FetchRawAnalysis(_ context.Context, sfPath string) ([]json.RawMessage, error) {
	recs, ok := f.analysis[sfPath]
	if !ok {
		return nil, ixerrors.Data(nil, "no analysis for %q", sfPath)
	}
	return recs, nil
}

func (f *fakeServer) FetchHTML(_ context.Context, _ server.HTMLRoot, sfPath string) (string, error) {
	html, ok := f.html[sfPath]
	if !ok {
		return "", ixerrors.Data(nil, "no html for %q", sfPath)
	}
	return html, nil
}

func (f *fakeServer) FetchRawSource(_ context.Context, sfPath string) (string, error) {
	src, ok := f.source[sfPath]
	if !ok {
		return "", ixerrors.Data(nil, "no source for %q", sfPath)
	}
	return src, nil
}

func (f *fakeServer) PerformQuery(_ context.Context, _ string) (json.RawMessage, error) {
	return f.query, nil
}

func (f *fakeServer) CrossrefLookup(_ context.Context, sym string) (json.RawMessage, error) {
	return f.crossrefs[sym], nil
}

func (f *fakeServer) JumprefLookup(_ context.Context, sym string) (json.RawMessage, error) {
	return f.jumprefs[sym], nil
}

func (f *fakeServer) SearchIdentifiers(_ context.Context, _ string, _, _ bool, _ int) ([]valuestream.SymbolHit, error) {
	return f.idents, nil
}

func (f *fakeServer) SearchText(context.Context, string, bool, string, int) (valuestream.TextMatches, error) {
	return valuestream.TextMatches{}, nil
}

func (f *fakeServer) SearchFiles(context.Context, string, bool, int) (valuestream.FileMatches, error) {
	return valuestream.FileMatches{}, nil
}

func (f *fakeServer) TreeInfo(context.Context) (server.TreeInfo, error) {
	return server.TreeInfo{Name: f.tree}, nil
}

func (f *fakeServer) TranslatePath(_ server.HTMLRoot, rel string) (string, error) {
	return "/index/" + rel, nil
}

func (f *fakeServer) TranslateAnalysisPath(rel string) (string, error) {
	return "/index/analysis/" + rel, nil
}

func (f *fakeServer) Clone() server.AbstractServer { return f }

var _ server.AbstractServer = (*fakeServer)(nil)
