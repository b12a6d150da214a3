// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"strings"

	"github.com/spf13/pflag"

	"github.com/kraklabs/xref/internal/ixerrors"
)

// OutputFormat selects how the composer's caller should present the final
// value: "pretty" or "concise" JSON (spec §4.6, grounded on
// cmd_pipeline/parser.rs's OutputFormat enum).
type OutputFormat string

const (
	OutputPretty  OutputFormat = "pretty"
	OutputConcise OutputFormat = "concise"
)

// ToolOpts is the first pipeline segment's server-selection flags, parsed
// once per pipeline (spec §4.6, grounded on cmd_pipeline/parser.rs's
// ToolOpts struct).
type ToolOpts struct {
	Server       string
	Tree         string
	OutputFormat OutputFormat
}

// parseStage parses one "|"-delimited segment into a Stage (or JunctionStage
// for fuse-crossrefs), returning the stage name for diagnostics. Every
// subcommand's flag set is grounded on its cmd_pipeline/cmd_*.rs
// counterpart, with one exception noted in DESIGN.md: crossref-lookup's
// --recursive-depth, a SPEC_FULL.md supplement with no Rust source since
// cmd_crossref_lookup.rs isn't present in the pack.
//
// Per spec §4.6, only the first sub-argv's --server/--tree/--output-format
// are binding; every sub-argv still re-parses them but discards any values
// other than the command. registerDiscardedToolOpts gives every stage's
// flag set those three flags so a stray one past the first segment is
// tolerated rather than rejected as an unknown flag.
func parseStage(words []string) (name string, stage Stage, junction JunctionStage, err error) {
	if len(words) == 0 {
		return "", nil, nil, ixerrors.BadInputf("empty pipeline segment", "remove the stray \"|\"", "empty pipeline segment")
	}
	name = words[0]
	args := words[1:]

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.Usage = func() {}
	registerDiscardedToolOpts(fs)

	switch name {
	case "crossref-lookup":
		depth := fs.IntP("recursive-depth", "r", 0, "expand through slotOwner/bindingSlots this many hops")
		if err := fs.Parse(args); err != nil {
			return name, nil, nil, badFlag(name, err)
		}
		return name, CrossrefLookup{Symbols: fs.Args(), RecursiveDepth: *depth}, nil, nil

	case "jumpref-lookup":
		if err := fs.Parse(args); err != nil {
			return name, nil, nil, badFlag(name, err)
		}
		return name, JumprefLookup{Symbols: fs.Args()}, nil, nil

	case "query":
		if err := fs.Parse(args); err != nil {
			return name, nil, nil, badFlag(name, err)
		}
		rest := fs.Args()
		if len(rest) != 1 {
			return name, nil, nil, ixerrors.BadInputf("query takes exactly one argument", "pass a single query string", "query needs exactly one positional argument")
		}
		return name, Query{Expr: rest[0]}, nil, nil

	case "search":
		diff := fs.String("diff", "", "compare against this second query")
		normalize := fs.Bool("normalize", false, "drop *_bounds keys recursively")
		dictify := fs.Bool("dictify", false, "turn an array of path-keyed objects into one object")
		if err := fs.Parse(args); err != nil {
			return name, nil, nil, badFlag(name, err)
		}
		rest := fs.Args()
		if len(rest) != 1 {
			return name, nil, nil, ixerrors.BadInputf("search takes exactly one argument", "pass a single query string", "search needs exactly one positional argument")
		}
		return name, Search{Query: rest[0], Diff: *diff, Normalize: *normalize, Dictify: *dictify}, nil, nil

	case "search-identifiers":
		exact := fs.BoolP("exact-match", "e", false, "exact match instead of prefix")
		caseSensitive := fs.BoolP("case-sensitive", "c", false, "case-sensitive instead of fold-case")
		limit := fs.IntP("limit", "l", 0, "cap result count (0 = unbounded)")
		if err := fs.Parse(args); err != nil {
			return name, nil, nil, badFlag(name, err)
		}
		return name, SearchIdentifiers{Identifiers: fs.Args(), ExactMatch: *exact, CaseFold: !*caseSensitive, Limit: *limit}, nil, nil

	case "search-text":
		re := fs.String("re", "", "regular expression (mutually exclusive with text)")
		pth := fs.String("path", "", "non-regexp path constraint, glob-transformed")
		pathre := fs.String("pathre", "", "regexp path constraint")
		caseSensitive := fs.BoolP("case-sensitive", "c", false, "case-sensitive instead of fold-case")
		limit := fs.IntP("limit", "l", 1000, "cap result count")
		if err := fs.Parse(args); err != nil {
			return name, nil, nil, badFlag(name, err)
		}
		text := ""
		if rest := fs.Args(); len(rest) > 0 {
			text = rest[0]
		}
		return name, SearchText{Text: text, Re: *re, Path: *pth, PathRe: *pathre, CaseFold: !*caseSensitive, Limit: *limit}, nil, nil

	case "search-files":
		pathre := fs.String("pathre", "", "regexp path constraint")
		limit := fs.IntP("limit", "l", 2000, "cap result count")
		includeDirs := fs.Bool("include-dirs", false, "include directories in results")
		groupBy := fs.StringP("group-by", "g", "", `"directory" groups results by containing directory`)
		if err := fs.Parse(args); err != nil {
			return name, nil, nil, badFlag(name, err)
		}
		pth := ""
		if rest := fs.Args(); len(rest) > 0 {
			pth = rest[0]
		}
		return name, SearchFiles{Path: pth, PathRe: *pathre, Limit: *limit, IncludeDirs: *includeDirs, GroupByDirectory: *groupBy == "directory"}, nil, nil

	case "filter-analysis":
		recordType := fs.StringP("record-type", "r", "", "comma-separated record types to keep")
		kind := fs.StringP("kind", "k", "", "kind to keep (exact match)")
		symbol := fs.StringP("symbol", "s", "", "exact symbol match")
		identifier := fs.StringP("identifier", "i", "", "exact identifier match")
		if err := fs.Parse(args); err != nil {
			return name, nil, nil, badFlag(name, err)
		}
		rest := fs.Args()
		if len(rest) != 1 {
			return name, nil, nil, ixerrors.BadInputf("filter-analysis takes exactly one file argument", "pass a single tree-relative path", "filter-analysis needs exactly one positional argument")
		}
		var recordTypes []string
		if *recordType != "" {
			recordTypes = strings.Split(*recordType, ",")
		}
		return name, FilterAnalysis{File: rest[0], RecordType: recordTypes, Kind: *kind, Symbol: *symbol, Identifier: *identifier}, nil, nil

	case "fuse-crossrefs":
		if err := fs.Parse(args); err != nil {
			return name, nil, nil, badFlag(name, err)
		}
		return name, nil, FuseCrossrefs{}, nil

	case "jq":
		if err := fs.Parse(args); err != nil {
			return name, nil, nil, badFlag(name, err)
		}
		rest := fs.Args()
		if len(rest) != 1 {
			return name, nil, nil, ixerrors.BadInputf("jq takes exactly one filter argument", "pass a single jq filter string", "jq needs exactly one positional argument")
		}
		return name, Jq{Filter: rest[0]}, nil, nil

	case "normalize-unstable-data":
		if err := fs.Parse(args); err != nil {
			return name, nil, nil, badFlag(name, err)
		}
		return name, NormalizeUnstableData{}, nil, nil

	case "show-html":
		if err := fs.Parse(args); err != nil {
			return name, nil, nil, badFlag(name, err)
		}
		return name, ShowHTML{}, nil, nil

	case "merge-analyses":
		platforms := fs.StringSlice("platform", nil, "platform tag, one per file, same order")
		if err := fs.Parse(args); err != nil {
			return name, nil, nil, badFlag(name, err)
		}
		return name, MergeAnalyses{Files: fs.Args(), Platforms: *platforms}, nil, nil

	case "tokenize-source":
		outline := fs.Bool("outline", false, "emit a structural symbol tree instead of raw text")
		if err := fs.Parse(args); err != nil {
			return name, nil, nil, badFlag(name, err)
		}
		rest := fs.Args()
		if len(rest) != 1 {
			return name, nil, nil, ixerrors.BadInputf("tokenize-source takes exactly one file argument", "pass a single tree-relative path", "tokenize-source needs exactly one positional argument")
		}
		return name, TokenizeSource{File: rest[0], Outline: *outline}, nil, nil

	case "render":
		if err := fs.Parse(args); err != nil {
			return name, nil, nil, badFlag(name, err)
		}
		rest := fs.Args()
		if len(rest) != 1 {
			return name, nil, nil, ixerrors.BadInputf("render takes exactly one task argument", "pass a single task name", "render needs exactly one positional argument")
		}
		return name, Render{Task: rest[0]}, nil, nil

	case "batch-render":
		if err := fs.Parse(args); err != nil {
			return name, nil, nil, badFlag(name, err)
		}
		rest := fs.Args()
		if len(rest) != 1 {
			return name, nil, nil, ixerrors.BadInputf("batch-render takes exactly one task argument", "pass a single task name", "batch-render needs exactly one positional argument")
		}
		return name, BatchRender{Task: rest[0]}, nil, nil

	default:
		return name, nil, nil, ixerrors.BadInputf("unknown pipeline stage", "check for typos", "unknown pipeline stage %q", name)
	}
}

func badFlag(stage string, err error) error {
	return ixerrors.BadInputf(err.Error(), "check "+stage+"'s flags", "%s: %v", stage, err)
}

// registerDiscardedToolOpts registers --server/--tree/--output-format on fs
// without reading back the values: they're only binding on the pipeline's
// first segment (parseToolOpts), but spec §4.6 requires every later segment
// to still accept and discard them rather than fail to parse.
func registerDiscardedToolOpts(fs *pflag.FlagSet) {
	fs.String("server", "", "ignored outside the first pipeline segment")
	fs.String("tree", "", "ignored outside the first pipeline segment")
	fs.String("output-format", string(OutputConcise), "ignored outside the first pipeline segment")
}
