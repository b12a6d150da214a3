// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kraklabs/xref/internal/ixerrors"
	"github.com/kraklabs/xref/internal/metrics"
	"github.com/kraklabs/xref/internal/valuestream"
)

// RemoteServer talks to a searchfox-style web server's raw-analysis, source,
// HTML, crossref, and search endpoints over HTTP (spec §4.5).
type RemoteServer struct {
	treeName      string
	treeBaseURL   *url.URL
	sourceBaseURL *url.URL
	analysisURL   *url.URL
	htmlFileURL   *url.URL
	templatesURL  *url.URL
	dirListURL    *url.URL
	searchURL     *url.URL
	crossrefURL   *url.URL
	jumprefURL    *url.URL
	httpClient    *http.Client
}

// NewRemoteServer builds a RemoteServer for treeName under serverBaseURL,
// e.g. "https://searchfox.org/" + "mozilla-central".
func NewRemoteServer(serverBaseURL, treeName string) (*RemoteServer, error) {
	base, err := url.Parse(serverBaseURL)
	if err != nil {
		return nil, ixerrors.BadInputf(err.Error(), "pass a valid server URL", "malformed server URL %q", serverBaseURL)
	}
	treeBase, err := base.Parse(treeName + "/")
	if err != nil {
		return nil, ixerrors.BadInputf(err.Error(), "pass a valid tree name", "malformed tree URL for %q", treeName)
	}

	join := func(rel string) (*url.URL, error) {
		u, err := treeBase.Parse(rel)
		if err != nil {
			return nil, ixerrors.BadInputf(err.Error(), "", "cannot build %q URL", rel)
		}
		return u, nil
	}

	sourceBase, err := join("source/")
	if err != nil {
		return nil, err
	}
	analysisBase, err := join("raw-analysis/")
	if err != nil {
		return nil, err
	}
	htmlFileBase, err := join("file/")
	if err != nil {
		return nil, err
	}
	templatesBase, err := join("templates/")
	if err != nil {
		return nil, err
	}
	dirListBase, err := join("dir/")
	if err != nil {
		return nil, err
	}
	searchURL, err := join("search")
	if err != nil {
		return nil, err
	}
	crossrefBase, err := join("crossref/")
	if err != nil {
		return nil, err
	}
	jumprefBase, err := join("jumpref/")
	if err != nil {
		return nil, err
	}

	return &RemoteServer{
		treeName:      treeName,
		treeBaseURL:   treeBase,
		sourceBaseURL: sourceBase,
		analysisURL:   analysisBase,
		htmlFileURL:   htmlFileBase,
		templatesURL:  templatesBase,
		dirListURL:    dirListBase,
		searchURL:     searchURL,
		crossrefURL:   crossrefBase,
		jumprefURL:    jumprefBase,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Clone implements AbstractServer. The HTTP client and derived URLs are
// immutable after construction, so a clone is the same handle.
func (s *RemoteServer) Clone() AbstractServer { return s }

// classifyStatus turns a non-2xx HTTP status into the appropriate
// sticky/transient *ixerrors.Error per spec §4.5: 5xx may succeed on retry,
// anything else (typically 404) will not.
func classifyStatus(status int, statusText string) error {
	if status >= 500 {
		metrics.BackendError("remote", string(ixerrors.ServerLayer))
		return ixerrors.Server(nil, "remote server responded %d %s", status, statusText)
	}
	metrics.BackendError("remote", string(ixerrors.DataLayer))
	return ixerrors.Data(nil, "remote server responded %d %s", status, statusText)
}

func (s *RemoteServer) get(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, ixerrors.BadInputf(err.Error(), "", "cannot build request for %q", u)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, ixerrors.Server(err, "request to %q failed", u)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus(resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ixerrors.Server(err, "reading response from %q failed", u)
	}
	return body, nil
}

func (s *RemoteServer) getJSON(ctx context.Context, u *url.URL) (json.RawMessage, error) {
	body, err := s.get(ctx, u)
	if err != nil || body == nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, ixerrors.Data(nil, "non-JSON response from %q", u)
	}
	return json.RawMessage(body), nil
}

// FetchRawAnalysis implements AbstractServer.
func (s *RemoteServer) FetchRawAnalysis(ctx context.Context, sfPath string) ([]json.RawMessage, error) {
	u, err := s.analysisURL.Parse(sfPath)
	if err != nil {
		return nil, ixerrors.BadInputf(err.Error(), "", "malformed analysis path %q", sfPath)
	}
	body, err := s.get(ctx, u)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, ixerrors.Data(nil, "no analysis data at %q", u)
	}

	var out []json.RawMessage
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			return nil, ixerrors.Data(nil, "malformed analysis line from %q: %s", u, strings.TrimSpace(string(line)))
		}
		rec := make(json.RawMessage, len(line))
		copy(rec, line)
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, ixerrors.Server(err, "reading analysis stream from %q failed", u)
	}
	return out, nil
}

func (s *RemoteServer) htmlRootURL(root HTMLRoot) *url.URL {
	switch root {
	case IndexTemplates:
		return s.templatesURL
	case DirListing:
		return s.dirListURL
	default:
		return s.htmlFileURL
	}
}

// FetchHTML implements AbstractServer.
func (s *RemoteServer) FetchHTML(ctx context.Context, root HTMLRoot, sfPath string) (string, error) {
	u, err := s.htmlRootURL(root).Parse(sfPath)
	if err != nil {
		return "", ixerrors.BadInputf(err.Error(), "", "malformed html path %q", sfPath)
	}
	body, err := s.get(ctx, u)
	if err != nil {
		return "", err
	}
	if body == nil {
		return "", ixerrors.Data(nil, "no html at %q", u)
	}
	return string(body), nil
}

// FetchRawSource implements AbstractServer.
func (s *RemoteServer) FetchRawSource(ctx context.Context, sfPath string) (string, error) {
	u, err := s.sourceBaseURL.Parse(sfPath)
	if err != nil {
		return "", ixerrors.BadInputf(err.Error(), "", "malformed source path %q", sfPath)
	}
	body, err := s.get(ctx, u)
	if err != nil {
		return "", err
	}
	if body == nil {
		return "", ixerrors.Data(nil, "no source at %q", u)
	}
	return string(body), nil
}

// PerformQuery implements AbstractServer, issuing q as the "q" query
// parameter against the tree's /search endpoint.
func (s *RemoteServer) PerformQuery(ctx context.Context, q string) (json.RawMessage, error) {
	u := *s.searchURL
	qs := u.Query()
	qs.Set("q", q)
	u.RawQuery = qs.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, ixerrors.BadInputf(err.Error(), "", "cannot build search request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, ixerrors.Server(err, "search request to %q failed", u.String())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus(resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ixerrors.Server(err, "reading search response failed")
	}
	if !json.Valid(body) {
		return nil, ixerrors.Data(nil, "search endpoint returned non-JSON response")
	}
	return json.RawMessage(body), nil
}

// CrossrefLookup implements AbstractServer against the tree's /crossref/<sym>
// endpoint, mirroring the local store's nil-on-miss contract.
func (s *RemoteServer) CrossrefLookup(ctx context.Context, sym string) (json.RawMessage, error) {
	u, err := s.crossrefURL.Parse(url.PathEscape(sym))
	if err != nil {
		return nil, ixerrors.BadInputf(err.Error(), "", "malformed symbol %q", sym)
	}
	return s.getJSON(ctx, u)
}

// JumprefLookup implements AbstractServer against the tree's /jumpref/<sym>
// endpoint.
func (s *RemoteServer) JumprefLookup(ctx context.Context, sym string) (json.RawMessage, error) {
	u, err := s.jumprefURL.Parse(url.PathEscape(sym))
	if err != nil {
		return nil, ixerrors.BadInputf(err.Error(), "", "malformed symbol %q", sym)
	}
	return s.getJSON(ctx, u)
}

// SearchIdentifiers implements AbstractServer against the /search endpoint in
// its "identifier search" mode.
func (s *RemoteServer) SearchIdentifiers(ctx context.Context, needle string, exact, foldCase bool, limit int) ([]valuestream.SymbolHit, error) {
	u := *s.searchURL
	qs := u.Query()
	qs.Set("identifier", needle)
	qs.Set("exact", boolParam(exact))
	qs.Set("case", boolParam(!foldCase))
	if limit > 0 {
		qs.Set("limit", itoa(limit))
	}
	u.RawQuery = qs.Encode()

	body, err := s.get(ctx, &u)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, nil
	}

	var decoded struct {
		Symbols []valuestream.SymbolHit `json:"symbols"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, ixerrors.Data(err, "malformed identifier search response from %q", u.String())
	}
	return decoded.Symbols, nil
}

// SearchText implements AbstractServer. The production searchfox server
// proxies this to an external livegrep/codesearch peer (spec §4.7); this
// client simply forwards the equivalent query string to the same /search
// endpoint.
func (s *RemoteServer) SearchText(ctx context.Context, re string, foldCase bool, pathRe string, limit int) (valuestream.TextMatches, error) {
	u := *s.searchURL
	qs := u.Query()
	qs.Set("re", re)
	qs.Set("case", boolParam(!foldCase))
	if pathRe != "" {
		qs.Set("pathre", pathRe)
	}
	if limit > 0 {
		qs.Set("limit", itoa(limit))
	}
	u.RawQuery = qs.Encode()

	body, err := s.get(ctx, &u)
	if err != nil {
		return valuestream.TextMatches{}, err
	}
	if body == nil {
		return valuestream.TextMatches{}, nil
	}

	var out valuestream.TextMatches
	if err := json.Unmarshal(body, &out); err != nil {
		return valuestream.TextMatches{}, ixerrors.Data(err, "malformed text search response from %q", u.String())
	}
	return out, nil
}

// SearchFiles implements AbstractServer.
func (s *RemoteServer) SearchFiles(ctx context.Context, pathRe string, includeDirs bool, limit int) (valuestream.FileMatches, error) {
	u := *s.searchURL
	qs := u.Query()
	qs.Set("pathre", pathRe)
	qs.Set("include_dirs", boolParam(includeDirs))
	if limit > 0 {
		qs.Set("limit", itoa(limit))
	}
	u.RawQuery = qs.Encode()

	body, err := s.get(ctx, &u)
	if err != nil {
		return valuestream.FileMatches{}, err
	}
	if body == nil {
		return valuestream.FileMatches{}, nil
	}

	var out valuestream.FileMatches
	if err := json.Unmarshal(body, &out); err != nil {
		return valuestream.FileMatches{}, ixerrors.Data(err, "malformed file search response from %q", u.String())
	}
	return out, nil
}

// TreeInfo implements AbstractServer.
func (s *RemoteServer) TreeInfo(context.Context) (TreeInfo, error) {
	return TreeInfo{Name: s.treeName}, nil
}

// TranslatePath implements AbstractServer, returning the fully-qualified URL
// string for rel under the given HTMLRoot.
func (s *RemoteServer) TranslatePath(root HTMLRoot, rel string) (string, error) {
	u, err := s.htmlRootURL(root).Parse(rel)
	if err != nil {
		return "", ixerrors.BadInputf(err.Error(), "", "malformed path %q", rel)
	}
	return u.String(), nil
}

// TranslateAnalysisPath implements AbstractServer.
func (s *RemoteServer) TranslateAnalysisPath(rel string) (string, error) {
	u, err := s.analysisURL.Parse(rel)
	if err != nil {
		return "", ixerrors.BadInputf(err.Error(), "", "malformed path %q", rel)
	}
	return u.String(), nil
}

func boolParam(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
