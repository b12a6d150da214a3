// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteServerFetchRawAnalysis(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/mozilla-central/raw-analysis/dir/file.cpp", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "{\"loc\":\"1:0\"}\n{\"loc\":\"2:0\"}\n")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s, err := NewRemoteServer(srv.URL+"/", "mozilla-central")
	require.NoError(t, err)

	recs, err := s.FetchRawAnalysis(context.Background(), "dir/file.cpp")
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestRemoteServerFetchHTML(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/mozilla-central/file/dir/file.cpp", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>hi</html>")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s, err := NewRemoteServer(srv.URL+"/", "mozilla-central")
	require.NoError(t, err)

	html, err := s.FetchHTML(context.Background(), FormattedFile, "dir/file.cpp")
	require.NoError(t, err)
	assert.Equal(t, "<html>hi</html>", html)
}

func TestRemoteServerPerformQuery(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/mozilla-central/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "symbol:Foo", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"normal":[]}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s, err := NewRemoteServer(srv.URL+"/", "mozilla-central")
	require.NoError(t, err)

	raw, err := s.PerformQuery(context.Background(), "symbol:Foo")
	require.NoError(t, err)
	assert.JSONEq(t, `{"normal":[]}`, string(raw))
}

func TestRemoteServer404IsStickyDataError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/mozilla-central/raw-analysis/missing.cpp", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s, err := NewRemoteServer(srv.URL+"/", "mozilla-central")
	require.NoError(t, err)

	_, err = s.FetchRawAnalysis(context.Background(), "missing.cpp")
	require.Error(t, err)
}

func TestRemoteServerCrossrefLookupMissReturnsNil(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/mozilla-central/crossref/S_Nope", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s, err := NewRemoteServer(srv.URL+"/", "mozilla-central")
	require.NoError(t, err)

	got, err := s.CrossrefLookup(context.Background(), "S_Nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRemoteServerTreeInfo(t *testing.T) {
	s, err := NewRemoteServer("https://searchfox.org/", "mozilla-central")
	require.NoError(t, err)

	info, err := s.TreeInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "mozilla-central", info.Name)
}

func TestRemoteServer500IsTransient(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/mozilla-central/raw-analysis/broken.cpp", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s, err := NewRemoteServer(srv.URL+"/", "mozilla-central")
	require.NoError(t, err)

	_, err = s.FetchRawAnalysis(context.Background(), "broken.cpp")
	require.Error(t, err)
}
