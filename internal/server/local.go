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
	"os"
	"path/filepath"
	"regexp"

	"github.com/klauspost/compress/gzip"

	"github.com/kraklabs/xref/internal/demangle"
	"github.com/kraklabs/xref/internal/fileinfo"
	"github.com/kraklabs/xref/internal/identstore"
	"github.com/kraklabs/xref/internal/ixerrors"
	"github.com/kraklabs/xref/internal/pathnorm"
	"github.com/kraklabs/xref/internal/valuestream"
	"github.com/kraklabs/xref/internal/xrefstore"
)

func init() {
	identstore.SetDemangler(demangle.Name)
}

// LocalServer composes the mmap'd crossref/identifier stores, the per-file
// info map, and gzipped blob I/O over an on-disk index root laid out per
// spec §4.4/§6:
//
//	<root>/analysis/<path>.gz
//	<root>/file/<path>.gz
//	<root>/crossref, <root>/crossref-extra
//	<root>/identifiers
//	<root>/concise-per-file-info.json
type LocalServer struct {
	indexRoot string
	treeName  string

	crossref *xrefstore.Store
	idents   *identstore.Store
	files    *fileinfo.Map
}

// NewLocalServer builds a LocalServer rooted at indexRoot. The mmap'd stores
// and the per-file info map are opened lazily and on demand so that a
// LocalServer can be constructed even against a partially-populated index
// (e.g. in tests that only exercise one store).
func NewLocalServer(indexRoot, treeName string) *LocalServer {
	return &LocalServer{indexRoot: indexRoot, treeName: treeName}
}

// TreeName returns the tree this server was constructed for.
func (s *LocalServer) TreeName() string { return s.treeName }

// IndexRoot returns the on-disk index root this server reads from.
func (s *LocalServer) IndexRoot() string { return s.indexRoot }

// Close releases any opened mmap stores.
func (s *LocalServer) Close() error {
	var firstErr error
	if s.crossref != nil {
		if err := s.crossref.Close(); err != nil {
			firstErr = err
		}
	}
	if s.idents != nil {
		if err := s.idents.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Clone implements AbstractServer.
func (s *LocalServer) Clone() AbstractServer { return s }

func (s *LocalServer) crossrefStore() (*xrefstore.Store, error) {
	if s.crossref == nil {
		st, err := xrefstore.Open(filepath.Join(s.indexRoot, "crossref"), filepath.Join(s.indexRoot, "crossref-extra"))
		if err != nil {
			return nil, err
		}
		s.crossref = st
	}
	return s.crossref, nil
}

func (s *LocalServer) identStore() (*identstore.Store, error) {
	if s.idents == nil {
		st, err := identstore.Open(filepath.Join(s.indexRoot, "identifiers"))
		if err != nil {
			return nil, ixerrors.Data(err, "cannot open identifier store")
		}
		s.idents = st
	}
	return s.idents, nil
}

func (s *LocalServer) fileInfo() (*fileinfo.Map, error) {
	if s.files == nil {
		m, err := fileinfo.Load(filepath.Join(s.indexRoot, "concise-per-file-info.json"))
		if err != nil {
			return nil, err
		}
		s.files = m
	}
	return s.files, nil
}

func (s *LocalServer) blobPath(prefix, sfPath, suffix string) (string, error) {
	rel := prefix + "/" + pathnorm.Normalize(sfPath) + suffix
	full, ok := pathnorm.Join(s.indexRoot, rel)
	if !ok {
		return "", ixerrors.BadInputf("", "use a path under the index root", "refusing to traverse outside index root with path %q", sfPath)
	}
	return full, nil
}

func readGzippedNDJSON(path string) ([]json.RawMessage, error) {
	raw, err := readGzipped(path)
	if err != nil {
		return nil, err
	}
	var out []json.RawMessage
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		rec := make(json.RawMessage, len(line))
		copy(rec, line)
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, ixerrors.Data(err, "malformed analysis data in %q", path)
	}
	return out, nil
}

func readGzipped(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ixerrors.Data(err, "no data at %q", path)
		}
		return nil, ixerrors.Server(err, "cannot open %q", path)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, ixerrors.Data(err, "cannot decompress %q", path)
	}
	defer gz.Close()

	raw, err := io.ReadAll(gz)
	if err != nil {
		return nil, ixerrors.Data(err, "cannot decompress %q", path)
	}
	return raw, nil
}

// FetchRawAnalysis implements AbstractServer.
func (s *LocalServer) FetchRawAnalysis(_ context.Context, sfPath string) ([]json.RawMessage, error) {
	path, err := s.blobPath("analysis", sfPath, ".gz")
	if err != nil {
		return nil, err
	}
	return readGzippedNDJSON(path)
}

func (s *LocalServer) htmlRootDir(root HTMLRoot) string {
	switch root {
	case IndexTemplates:
		return "templates"
	case DirListing:
		return "dir"
	default:
		return "file"
	}
}

// FetchHTML implements AbstractServer.
func (s *LocalServer) FetchHTML(_ context.Context, root HTMLRoot, sfPath string) (string, error) {
	path, err := s.blobPath(s.htmlRootDir(root), sfPath, ".gz")
	if err != nil {
		return "", err
	}
	raw, err := readGzipped(path)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// FetchRawSource implements AbstractServer. Raw source is stored
// uncompressed directly under the tree-relative path, mirroring a checked
// out source tree rather than a rendered blob.
func (s *LocalServer) FetchRawSource(_ context.Context, sfPath string) (string, error) {
	path, ok := pathnorm.Join(s.indexRoot, "source/"+pathnorm.Normalize(sfPath))
	if !ok {
		return "", ixerrors.BadInputf("", "use a path under the index root", "refusing to traverse outside index root with path %q", sfPath)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ixerrors.Data(err, "no source at %q", sfPath)
		}
		return "", ixerrors.Server(err, "cannot read %q", path)
	}
	return string(raw), nil
}

// PerformQuery implements AbstractServer. A local index has no search-engine
// endpoint of its own; arbitrary queries are the remote backend's job.
func (s *LocalServer) PerformQuery(context.Context, string) (json.RawMessage, error) {
	return nil, ixerrors.NewUnsupported("perform_query")
}

// CrossrefLookup implements AbstractServer.
func (s *LocalServer) CrossrefLookup(_ context.Context, sym string) (json.RawMessage, error) {
	st, err := s.crossrefStore()
	if err != nil {
		return nil, err
	}
	return st.Lookup(sym)
}

// JumprefLookup implements AbstractServer. There is no precomputed
// "<index>/jumps" file on disk; the condensed jumpref form is always derived
// from the crossref entry's defs/decls/idl buckets, taking the single hit's
// first line when a bucket has exactly one.
func (s *LocalServer) JumprefLookup(ctx context.Context, sym string) (json.RawMessage, error) {
	crossref, err := s.CrossrefLookup(ctx, sym)
	if err != nil {
		return nil, err
	}
	if crossref == nil {
		return nil, nil
	}

	var entry map[string]any
	if err := json.Unmarshal(crossref, &entry); err != nil {
		return nil, ixerrors.Data(err, "malformed crossref entry for %q", sym)
	}

	jumps := map[string]string{}
	for _, bucket := range []string{"defs", "decls", "idl"} {
		hits, _ := entry[bucket].([]any)
		if len(hits) != 1 {
			continue
		}
		hit, _ := hits[0].(map[string]any)
		path, _ := hit["path"].(string)
		lines, _ := hit["lines"].([]any)
		if path == "" || len(lines) == 0 {
			continue
		}
		lineEntry, _ := lines[0].(map[string]any)
		lno, _ := lineEntry["lno"].(float64)
		key := map[string]string{"defs": "def", "decls": "decl", "idl": "idl"}[bucket]
		jumps[key] = path + "#" + itoa(int(lno))
	}

	out := map[string]any{"sym": sym}
	if pretty, ok := entry["pretty"]; ok {
		out["pretty"] = pretty
	}
	if meta, ok := entry["meta"]; ok {
		out["meta"] = meta
	}
	if len(jumps) > 0 {
		out["jumps"] = jumps
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return nil, ixerrors.Data(err, "cannot encode jumpref for %q", sym)
	}
	return raw, nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// SearchIdentifiers implements AbstractServer.
func (s *LocalServer) SearchIdentifiers(_ context.Context, needle string, exact, foldCase bool, limit int) ([]valuestream.SymbolHit, error) {
	st, err := s.identStore()
	if err != nil {
		return nil, err
	}
	hits := st.Search(needle, exact, foldCase, limit)
	return identstore.ToSymbolHits(hits, needle), nil
}

// SearchText implements AbstractServer by scanning the raw source tree
// mirrored under "<root>/source" line by line (spec §4.7: local-only
// fulltext search, see DESIGN.md for why this substitutes for a real
// codesearch peer).
func (s *LocalServer) SearchText(_ context.Context, re string, foldCase bool, pathRe string, limit int) (valuestream.TextMatches, error) {
	pattern := re
	if foldCase {
		pattern = "(?i)" + pattern
	}
	lineRe, err := regexp.Compile(pattern)
	if err != nil {
		return valuestream.TextMatches{}, ixerrors.BadInputf(err.Error(), "pass a valid regular expression", "malformed search-text pattern %q", re)
	}
	var pathFilter *regexp.Regexp
	if pathRe != "" {
		pathFilter, err = regexp.Compile(pathRe)
		if err != nil {
			return valuestream.TextMatches{}, ixerrors.BadInputf(err.Error(), "pass a valid path regular expression", "malformed path pattern %q", pathRe)
		}
	}

	root := filepath.Join(s.indexRoot, "source")
	var matches []valuestream.TextMatch
	total := 0

	err = filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil || info == nil || info.IsDir() || total >= limit && limit > 0 {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if pathFilter != nil && !pathFilter.MatchString(rel) {
			return nil
		}

		f, openErr := os.Open(path)
		if openErr != nil {
			return nil
		}
		defer f.Close()

		var lineMatches []valuestream.LineMatch
		scanner := bufio.NewScanner(f)
		lno := 0
		for scanner.Scan() {
			lno++
			line := scanner.Text()
			loc := lineRe.FindStringIndex(line)
			if loc == nil {
				continue
			}
			lineMatches = append(lineMatches, valuestream.LineMatch{
				LineNumber:       lno,
				Preview:          line,
				OffsetAndLengths: [][2]int{{loc[0], loc[1] - loc[0]}},
			})
		}
		if len(lineMatches) > 0 {
			matches = append(matches, valuestream.TextMatch{Path: rel, LineMatches: lineMatches})
			total += len(lineMatches)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return valuestream.TextMatches{}, ixerrors.Server(err, "walking source tree failed")
	}

	return valuestream.TextMatches{Matches: matches}, nil
}

// SearchFiles implements AbstractServer using the per-file info map's
// enumeration (spec §4.1/§4.7).
func (s *LocalServer) SearchFiles(_ context.Context, pathRe string, includeDirs bool, limit int) (valuestream.FileMatches, error) {
	m, err := s.fileInfo()
	if err != nil {
		return valuestream.FileMatches{}, err
	}

	var pathFilter *regexp.Regexp
	if pathRe != "" {
		pathFilter, err = regexp.Compile(pathRe)
		if err != nil {
			return valuestream.FileMatches{}, ixerrors.BadInputf(err.Error(), "pass a valid path regular expression", "malformed path pattern %q", pathRe)
		}
	}

	infos := m.Enumerate(pathFilter, includeDirs, limit)
	out := make([]valuestream.FileMatch, 0, len(infos))
	for _, info := range infos {
		out = append(out, valuestream.FileMatch{Path: info.Path, IsDir: info.IsDir})
	}
	return valuestream.FileMatches{Matches: out}, nil
}

// TreeInfo implements AbstractServer.
func (s *LocalServer) TreeInfo(context.Context) (TreeInfo, error) {
	return TreeInfo{Name: s.treeName}, nil
}

// TranslatePath implements AbstractServer.
func (s *LocalServer) TranslatePath(root HTMLRoot, rel string) (string, error) {
	return s.blobPath(s.htmlRootDir(root), rel, "")
}

// TranslateAnalysisPath implements AbstractServer.
func (s *LocalServer) TranslateAnalysisPath(rel string) (string, error) {
	return s.blobPath("analysis", rel, "")
}
