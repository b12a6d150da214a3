// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/kraklabs/xref/internal/ixerrors"
	"github.com/kraklabs/xref/internal/server"
	"github.com/kraklabs/xref/internal/valuestream"
)

// ShowHTML fetches a file's rendered HTML and extracts only the
// `div.source-line-with-number` lines named by the input JsonRecords'
// LineSet (spec §4.7, grounded on cmd_show_html.rs). The Rust original
// streams through a lol_html rewriter tracking
// writing_line/cur_line/want_cur_line/suppressing state; lol_html has no Go
// equivalent, so this reimplements the same observable line-extraction over
// a parsed DOM tree (golang.org/x/net/html) instead of a SAX-style sink.
type ShowHTML struct{}

// Execute implements Stage.
func (ShowHTML) Execute(ctx context.Context, srv server.AbstractServer, input valuestream.Value) (valuestream.Value, error) {
	if input.Kind != valuestream.KindJSONRecords {
		return valuestream.Value{}, ixerrors.Config("show-html needs JsonRecords, got %s", input.Kind)
	}

	out := make([]valuestream.HTMLExcerptsByFile, 0, len(input.Records))
	for _, byFile := range input.Records {
		wanted := make(map[int]bool)
		for _, l := range byFile.LineSet() {
			wanted[l] = true
		}

		rendered, err := srv.FetchHTML(ctx, server.FormattedFile, byFile.Path)
		if err != nil {
			return valuestream.Value{}, err
		}

		excerpts, err := extractLines(rendered, wanted)
		if err != nil {
			return valuestream.Value{}, err
		}
		out = append(out, valuestream.HTMLExcerptsByFile{Path: byFile.Path, Excerpts: excerpts})
	}

	return valuestream.HTMLExcerptsValue(out), nil
}

// extractLines walks rendered's DOM and returns, in document order, the
// outer HTML of every div.source-line-with-number whose "id" attribute
// ("line-<N>") names a wanted line. Anything under div.nesting-container is
// skipped, mirroring the Rust rewriter's suppression of nested region
// markup.
func extractLines(rendered string, wanted map[int]bool) ([]string, error) {
	nodes, err := html.ParseFragment(strings.NewReader(rendered), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return nil, ixerrors.Data(err, "malformed rendered HTML")
	}

	var excerpts []string
	var walk func(n *html.Node, suppressed bool)
	walk = func(n *html.Node, suppressed bool) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Div {
			if hasClass(n, "nesting-container") {
				suppressed = true
			}
			if !suppressed && hasClass(n, "source-line-with-number") {
				if lno, ok := lineNumberFromID(n); ok && wanted[lno] {
					var buf bytes.Buffer
					if err := html.Render(&buf, n); err == nil {
						excerpts = append(excerpts, buf.String())
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, suppressed)
		}
	}
	for _, n := range nodes {
		walk(n, false)
	}
	return excerpts, nil
}

func lineNumberFromID(n *html.Node) (int, bool) {
	for _, a := range n.Attr {
		if a.Key != "id" {
			continue
		}
		numeric, ok := strings.CutPrefix(a.Val, "line-")
		if !ok {
			return 0, false
		}
		lno, err := strconv.Atoi(numeric)
		if err != nil {
			return 0, false
		}
		return lno, true
	}
	return 0, false
}
