// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"
	"path"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/kraklabs/xref/internal/ixerrors"
	"github.com/kraklabs/xref/internal/server"
	"github.com/kraklabs/xref/internal/valuestream"
)

// TokenizeSource fetches a file's raw source, either as-is or (with Outline
// set) as a structural symbol tree extracted by Tree-sitter (SPEC_FULL.md
// supplement; no cmd_pipeline/*.rs equivalent exists, so the outline mode is
// grounded on the teacher's pkg/ingestion/parser_go.go and
// parser_typescript.go AST-walk patterns: TreeSitterParser.goParser/tsParser,
// Node.Type()/ChildCount()/Child(i)/ChildByFieldName(), StartPoint/EndPoint
// line numbers). Only top-level declarations are collected; nested bodies
// are not walked, unlike the teacher's call/def extraction.
type TokenizeSource struct {
	File    string
	Outline bool
}

// Execute implements Stage.
func (t TokenizeSource) Execute(ctx context.Context, srv server.AbstractServer, _ valuestream.Value) (valuestream.Value, error) {
	content, err := srv.FetchRawSource(ctx, t.File)
	if err != nil {
		return valuestream.Value{}, err
	}

	if !t.Outline {
		return valuestream.TextFileValue(valuestream.TextFile{Path: t.File, Content: content}), nil
	}

	lang, kinds := languageFor(t.File)
	if lang == nil {
		return valuestream.Value{}, ixerrors.NewUnsupported("tokenize-source --outline for " + path.Ext(t.File))
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, []byte(content))
	if err != nil {
		return valuestream.Value{}, ixerrors.Data(err, "tree-sitter parse of %q failed", t.File)
	}
	defer tree.Close()

	roots := walkOutline(tree.RootNode(), []byte(content), kinds)
	return valuestream.SymbolTreeTableListValue(valuestream.SymbolTreeTableList{Roots: roots}), nil
}

// outlineKinds maps the tree-sitter grammar node types that name a top-level
// declaration to the TreeNode.Kind label reported for it.
type outlineKinds map[string]string

func languageFor(file string) (*sitter.Language, outlineKinds) {
	switch path.Ext(file) {
	case ".go":
		return golang.GetLanguage(), outlineKinds{
			"function_declaration": "function",
			"method_declaration":   "method",
			"type_declaration":     "type",
		}
	case ".ts", ".tsx":
		return typescript.GetLanguage(), outlineKinds{
			"function_declaration":  "function",
			"class_declaration":     "class",
			"interface_declaration": "interface",
		}
	case ".js", ".jsx":
		return javascript.GetLanguage(), outlineKinds{
			"function_declaration": "function",
			"class_declaration":    "class",
		}
	case ".py":
		return python.GetLanguage(), outlineKinds{
			"function_definition": "function",
			"class_definition":    "class",
		}
	default:
		return nil, nil
	}
}

// walkOutline collects, in document order, every node whose type is named in
// kinds, recursing into every node whose type is not in kinds but never into
// a matched node, so neither function/method bodies nor the bodies of
// matched classes are searched.
func walkOutline(node *sitter.Node, content []byte, kinds outlineKinds) []valuestream.TreeNode {
	var out []valuestream.TreeNode
	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		label, ok := kinds[child.Type()]
		if !ok {
			out = append(out, walkOutline(child, content, kinds)...)
			continue
		}

		out = append(out, valuestream.TreeNode{
			Name:      declName(child, content),
			Kind:      label,
			StartLine: int(child.StartPoint().Row) + 1,
			EndLine:   int(child.EndPoint().Row) + 1,
		})
	}
	return out
}

// declName reads the "name" field of a declaration node, falling back to the
// empty string for anonymous constructs (e.g. Go func literals never reach
// here since they aren't in outlineKinds).
func declName(node *sitter.Node, content []byte) string {
	name := node.ChildByFieldName("name")
	if name == nil && node.Type() == "type_declaration" {
		// Go keeps the name on the inner type_spec/type_alias; a grouped
		// declaration reports its first spec's name.
		for i := 0; i < int(node.NamedChildCount()); i++ {
			spec := node.NamedChild(i)
			if spec != nil && (spec.Type() == "type_spec" || spec.Type() == "type_alias") {
				name = spec.ChildByFieldName("name")
				break
			}
		}
	}
	if name == nil {
		return ""
	}
	return name.Content(content)
}
