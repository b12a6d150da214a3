// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/kraklabs/xref/internal/server"
	"github.com/kraklabs/xref/internal/valuestream"
)

// NormalizeUnstableData strips build-dependent noise (the line number of a
// `loc` position, with its columns kept; line-number ids and attributes;
// coverage/blame decorations) from JsonRecords/HtmlExcerpts/JsonValue
// values so that two otherwise-identical analyses compare equal
// (spec §4.7/SPEC_FULL supplement, grounded on cmd_normalize_unstable_data.rs:
// lol_html's streaming rewriter has no Go equivalent, so the HTML half is
// reimplemented as a tree walk over golang.org/x/net/html).
// Other variants pass through unchanged, and the input value is never
// mutated in place — idempotent by construction since every output is a
// freshly built value.
type NormalizeUnstableData struct{}

var locPattern = regexp.MustCompile(`^(\d+):(.+)$`)

// Execute implements Stage.
func (NormalizeUnstableData) Execute(_ context.Context, _ server.AbstractServer, input valuestream.Value) (valuestream.Value, error) {
	switch input.Kind {
	case valuestream.KindJSONRecords:
		out := make([]valuestream.JSONRecordsByFile, len(input.Records))
		for i, byFile := range input.Records {
			records := make([]map[string]any, len(byFile.Records))
			for j, rec := range byFile.Records {
				records[j] = normalizeRecord(rec)
			}
			out[i] = valuestream.JSONRecordsByFile{Path: byFile.Path, Records: records}
		}
		return valuestream.JSONRecordsValue(out), nil

	case valuestream.KindHTMLExcerpts:
		out := make([]valuestream.HTMLExcerptsByFile, len(input.Excerpts))
		for i, byFile := range input.Excerpts {
			excerpts := make([]string, len(byFile.Excerpts))
			for j, ex := range byFile.Excerpts {
				excerpts[j] = normalizeHTML(ex)
			}
			out[i] = valuestream.HTMLExcerptsByFile{Path: byFile.Path, Excerpts: excerpts}
		}
		return valuestream.HTMLExcerptsValue(out), nil

	case valuestream.KindJSONValue:
		if m, ok := input.JSON.(map[string]any); ok {
			return valuestream.JSONValue(normalizeRecord(m)), nil
		}
		return input, nil

	default:
		return input, nil
	}
}

// normalizeRecord returns a copy of rec with its `loc` field rewritten to
// "NORM:<cols>", preserving every other field.
func normalizeRecord(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	if loc, ok := out["loc"].(string); ok {
		if m := locPattern.FindStringSubmatch(loc); m != nil {
			out["loc"] = "NORM:" + m[2]
		}
	}
	return out
}

// normalizeHTML walks excerpt's DOM, stripping coverage/blame decoration
// (div.cov-strip, div.blame-strip), the data-i attribute on spans, and
// replacing line-number-derived ids/attributes with a constant "NORM"
// placeholder, per cmd_normalize_unstable_data.rs's norm_html_value.
func normalizeHTML(excerpt string) string {
	nodes, err := html.ParseFragment(strings.NewReader(excerpt), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return excerpt
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		normalizeHTMLNode(n)
		_ = html.Render(&buf, n)
	}
	return buf.String()
}

func normalizeHTMLNode(n *html.Node) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Div && hasClass(n, "cov-strip", "blame-strip") {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		return
	}

	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Span:
			removeAttr(n, "data-i")
		case atom.Div:
			if hasClass(n, "source-line-with-number") {
				setAttr(n, "id", "line-NORM")
			}
			if hasClass(n, "line-number") {
				setAttr(n, "data-line-number", "NORM")
			}
		}
	}

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		normalizeHTMLNode(c)
		c = next
	}
}

func hasClass(n *html.Node, classes ...string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, want := range classes {
			for _, c := range strings.Fields(a.Val) {
				if c == want {
					return true
				}
			}
		}
	}
	return false
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			out = append(out, a)
		}
	}
	n.Attr = out
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
