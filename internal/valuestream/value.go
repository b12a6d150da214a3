// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package valuestream defines the tagged-variant value that flows between
// pipeline stages (spec §3/§9).
//
// A Value is a closed sum type: exactly one of its payload fields is
// meaningful for a given Kind. Stages pattern-match on Kind and either
// consume the variant they expect or return a sticky ixerrors.Config error
// ("stage X expected Y") — open polymorphism is deliberately avoided per
// spec §9, since the set of variants is small and static.
package valuestream

import "sort"

// Kind tags which payload field of a Value is populated.
type Kind int

const (
	KindVoid Kind = iota
	KindIdentifierList
	KindSymbolList
	KindSymbolCrossrefInfoList
	KindSymbolGraphCollection
	KindJSONValue
	KindJSONValueList
	KindJSONRecords
	KindHTMLExcerpts
	KindTextFile
	KindFileMatches
	KindTextMatches
	KindBatchGroups
	KindSymbolTreeTableList
	KindFlattenedResultsBundle
	KindGraphResultsBundle
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "Void"
	case KindIdentifierList:
		return "IdentifierList"
	case KindSymbolList:
		return "SymbolList"
	case KindSymbolCrossrefInfoList:
		return "SymbolCrossrefInfoList"
	case KindSymbolGraphCollection:
		return "SymbolGraphCollection"
	case KindJSONValue:
		return "JsonValue"
	case KindJSONValueList:
		return "JsonValueList"
	case KindJSONRecords:
		return "JsonRecords"
	case KindHTMLExcerpts:
		return "HtmlExcerpts"
	case KindTextFile:
		return "TextFile"
	case KindFileMatches:
		return "FileMatches"
	case KindTextMatches:
		return "TextMatches"
	case KindBatchGroups:
		return "BatchGroups"
	case KindSymbolTreeTableList:
		return "SymbolTreeTableList"
	case KindFlattenedResultsBundle:
		return "FlattenedResultsBundle"
	case KindGraphResultsBundle:
		return "GraphResultsBundle"
	default:
		return "Unknown"
	}
}

// IdentifierHit wraps one identifier string; no stage in this module
// produces or consumes it.
type IdentifierHit struct {
	Identifier string `json:"identifier"`
}

// SymbolHit carries a resolved symbol plus, when it came from an identifier
// search, the identifier that produced it (spec §4.7 search-identifiers).
type SymbolHit struct {
	Sym        string `json:"sym"`
	Pretty     string `json:"pretty,omitempty"`
	Identifier string `json:"identifier,omitempty"`
}

// SymbolMetaFlags is an additive bit set unioned across fuse operations
// (spec §3 invariants).
type SymbolMetaFlags uint8

const (
	FlagSource SymbolMetaFlags = 1 << iota
	FlagTarget
)

// Union ORs two flag sets together.
func (f SymbolMetaFlags) Union(other SymbolMetaFlags) SymbolMetaFlags {
	return f | other
}

// Has reports whether flag bit b is set.
func (f SymbolMetaFlags) Has(b SymbolMetaFlags) bool {
	return f&b != 0
}

// SymbolCrossrefInfo is one entry of a SymbolCrossrefInfoList: a symbol, its
// raw crossref JSON (object or null), and the flags describing which side(s)
// of a fuse operation produced it.
type SymbolCrossrefInfo struct {
	Sym          string         `json:"sym"`
	CrossrefInfo map[string]any `json:"crossref_info"`
	Flags        SymbolMetaFlags `json:"flags"`
}

// JSONRecordsByFile groups raw analysis records by the file they came from.
type JSONRecordsByFile struct {
	Path    string           `json:"path"`
	Records []map[string]any `json:"records"`
}

// LineSet returns the distinct line numbers appearing in any record's `loc`
// field (spec §3 invariant: "line_set ... returns the distinct line numbers
// appearing in any record's loc").
func (j JSONRecordsByFile) LineSet() []int {
	set := make(map[int]struct{})
	for _, rec := range j.Records {
		loc, _ := rec["loc"].(string)
		if loc == "" {
			continue
		}
		line := firstLocToken(loc)
		if line >= 0 {
			set[line] = struct{}{}
		}
	}
	lines := make([]int, 0, len(set))
	for l := range set {
		lines = append(lines, l)
	}
	sort.Ints(lines)
	return lines
}

// firstLocToken parses the leading line number out of a "L:C-C" or "L:C" loc string.
func firstLocToken(loc string) int {
	n := 0
	found := false
	for _, r := range loc {
		if r == ':' {
			break
		}
		if r < '0' || r > '9' {
			return -1
		}
		found = true
		n = n*10 + int(r-'0')
	}
	if !found {
		return -1
	}
	return n
}

// HTMLExcerptsByFile groups rendered HTML line excerpts by source file.
type HTMLExcerptsByFile struct {
	Path     string   `json:"path"`
	Excerpts []string `json:"excerpts"`
}

// TextFile carries raw source text, as fetched by tokenize-source.
type TextFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// FileMatch is one file/directory hit from search-files.
type FileMatch struct {
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
}

// FileMatches is the output of search-files.
type FileMatches struct {
	Matches []FileMatch `json:"matches"`
}

// LineMatch is one matching line within a text-search hit, modeled on the
// Sourcegraph textsearch.go fileMatch/lineMatch shapes (see DESIGN.md).
type LineMatch struct {
	LineNumber       int      `json:"line_number"`
	Preview          string   `json:"preview"`
	OffsetAndLengths [][2]int `json:"offset_and_lengths"`
}

// TextMatch is one file's line matches from search-text.
type TextMatch struct {
	Path        string      `json:"path"`
	LineMatches []LineMatch `json:"line_matches"`
}

// TextMatches is the output of search-text.
type TextMatches struct {
	Matches []TextMatch `json:"matches"`
}

// BatchGroup is one directory's worth of grouped search-files results.
type BatchGroup struct {
	Key   string   `json:"key"`
	Items []string `json:"items"`
}

// BatchGroups is search-files output grouped by containing directory.
type BatchGroups struct {
	Groups []BatchGroup `json:"groups"`
}

// TreeNode is one node of a SymbolTreeTableList, as produced by
// tokenize-source's structural outline mode (spec SPEC_FULL.md).
type TreeNode struct {
	Name      string     `json:"name"`
	Kind      string     `json:"kind"`
	StartLine int        `json:"start_line"`
	EndLine   int        `json:"end_line"`
	Children  []TreeNode `json:"children,omitempty"`
}

// SymbolTreeTableList is a forest of TreeNode roots.
type SymbolTreeTableList struct {
	Roots []TreeNode `json:"roots"`
}

// GraphEdge is one edge of a call/use graph between two symbols.
type GraphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind"` // "call", "use", "def", ...
}

// SymbolGraph is one connected traversal result rooted at a symbol.
type SymbolGraph struct {
	Root  string      `json:"root"`
	Edges []GraphEdge `json:"edges"`
}

// SymbolGraphCollection is a set of symbol graphs; no stage in this module
// produces one (the `graph`/`traverse` stages are not implemented).
type SymbolGraphCollection struct {
	Graphs []SymbolGraph `json:"graphs"`
}

// FlattenedResultsBundle is the final presentation value for a pipeline
// graph execution that asked for a flattened, node-label-keyed view.
type FlattenedResultsBundle struct {
	Order  []string         `json:"order"`
	Values map[string]Value `json:"values"`
}

// GraphResultsBundle is the final presentation value for a pipeline graph
// execution that preserves the DAG shape (node id -> value, plus edges).
type GraphResultsBundle struct {
	Order   []string         `json:"order"`
	Values  map[string]Value `json:"values"`
	Edges   []GraphValueEdge `json:"edges"`
}

// GraphValueEdge records which node fed which input role of which other node.
type GraphValueEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Role string `json:"role"`
}

// Value is the tagged union carried between pipeline stages.
type Value struct {
	Kind Kind

	Identifiers []string
	Symbols     []SymbolHit

	Crossrefs []SymbolCrossrefInfo
	// Unknown carries symbols that crossref-lookup could not resolve. They
	// are not an error (spec §7): they ride alongside the value so
	// downstream stages can report them.
	Unknown []string

	Graphs SymbolGraphCollection

	JSON     any
	JSONList []any
	Records  []JSONRecordsByFile
	Excerpts []HTMLExcerptsByFile

	Text  *TextFile
	Files FileMatches
	Texts TextMatches
	Batch BatchGroups
	Tree  SymbolTreeTableList

	Flattened *FlattenedResultsBundle
	GraphBundle *GraphResultsBundle
}

// Void is the seed value an executor feeds into the first stage of a pipeline.
func Void() Value { return Value{Kind: KindVoid} }

// IdentifierList wraps a list of raw identifier needles.
func IdentifierList(ids []string) Value {
	return Value{Kind: KindIdentifierList, Identifiers: ids}
}

// SymbolList wraps resolved symbol hits.
func SymbolList(hits []SymbolHit) Value {
	return Value{Kind: KindSymbolList, Symbols: hits}
}

// SymbolCrossrefInfoList wraps crossref lookups plus any unresolved symbols.
func SymbolCrossrefInfoList(items []SymbolCrossrefInfo, unknown []string) Value {
	return Value{Kind: KindSymbolCrossrefInfoList, Crossrefs: items, Unknown: unknown}
}

// JSONValue wraps a single arbitrary JSON value.
func JSONValue(v any) Value {
	return Value{Kind: KindJSONValue, JSON: v}
}

// JSONValueList wraps a list of arbitrary JSON values.
func JSONValueList(vs []any) Value {
	return Value{Kind: KindJSONValueList, JSONList: vs}
}

// JSONRecordsValue wraps analysis records grouped by file.
func JSONRecordsValue(recs []JSONRecordsByFile) Value {
	return Value{Kind: KindJSONRecords, Records: recs}
}

// HTMLExcerptsValue wraps rendered HTML excerpts grouped by file.
func HTMLExcerptsValue(ex []HTMLExcerptsByFile) Value {
	return Value{Kind: KindHTMLExcerpts, Excerpts: ex}
}

// TextFileValue wraps one fetched source file's raw content.
func TextFileValue(tf TextFile) Value {
	return Value{Kind: KindTextFile, Text: &tf}
}

// FileMatchesValue wraps search-files output.
func FileMatchesValue(fm FileMatches) Value {
	return Value{Kind: KindFileMatches, Files: fm}
}

// TextMatchesValue wraps search-text output.
func TextMatchesValue(tm TextMatches) Value {
	return Value{Kind: KindTextMatches, Texts: tm}
}

// BatchGroupsValue wraps directory-grouped search-files output.
func BatchGroupsValue(bg BatchGroups) Value {
	return Value{Kind: KindBatchGroups, Batch: bg}
}

// SymbolTreeTableListValue wraps a tree-table forest.
func SymbolTreeTableListValue(t SymbolTreeTableList) Value {
	return Value{Kind: KindSymbolTreeTableList, Tree: t}
}

// SymbolGraphCollectionValue wraps a symbol graph collection.
func SymbolGraphCollectionValue(g SymbolGraphCollection) Value {
	return Value{Kind: KindSymbolGraphCollection, Graphs: g}
}

// FlattenedResultsBundleValue wraps a pipeline graph's flattened final output.
func FlattenedResultsBundleValue(b FlattenedResultsBundle) Value {
	return Value{Kind: KindFlattenedResultsBundle, Flattened: &b}
}

// GraphResultsBundleValue wraps a pipeline graph's DAG-shaped final output.
func GraphResultsBundleValue(b GraphResultsBundle) Value {
	return Value{Kind: KindGraphResultsBundle, GraphBundle: &b}
}

// ToJSON converts a Value to a losslessly JSON-representable shape, as
// required by the jq stage (spec §4.7: "All variants must be losslessly
// representable as JSON").
func (v Value) ToJSON() any {
	switch v.Kind {
	case KindVoid:
		return nil
	case KindIdentifierList:
		return v.Identifiers
	case KindSymbolList:
		return v.Symbols
	case KindSymbolCrossrefInfoList:
		return map[string]any{"crossrefs": v.Crossrefs, "unknown_symbols": v.Unknown}
	case KindSymbolGraphCollection:
		return v.Graphs
	case KindJSONValue:
		return v.JSON
	case KindJSONValueList:
		return v.JSONList
	case KindJSONRecords:
		return v.Records
	case KindHTMLExcerpts:
		return v.Excerpts
	case KindTextFile:
		return v.Text
	case KindFileMatches:
		return v.Files
	case KindTextMatches:
		return v.Texts
	case KindBatchGroups:
		return v.Batch
	case KindSymbolTreeTableList:
		return v.Tree
	case KindFlattenedResultsBundle:
		return v.Flattened
	case KindGraphResultsBundle:
		return v.GraphBundle
	default:
		return nil
	}
}
