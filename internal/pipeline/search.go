// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"context"
	"encoding/json"
	"reflect"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/kraklabs/xref/internal/ixerrors"
	"github.com/kraklabs/xref/internal/server"
	"github.com/kraklabs/xref/internal/valuestream"
)

// Search delegates a human query string to AbstractServer.PerformQuery and
// optionally post-processes the decoded result (spec §4.7, grounded on
// cmd_search.rs). Diff and Dictify are mutually exclusive; Normalize may
// combine with either.
type Search struct {
	Query     string
	Diff      string // compare against this second query's result
	Normalize bool   // drop keys ending in "_bounds" recursively
	Dictify   bool   // turn an array of {"path": ..., ...} objects into a path-keyed object
}

// Execute implements Stage.
func (s Search) Execute(ctx context.Context, srv server.AbstractServer, _ valuestream.Value) (valuestream.Value, error) {
	if s.Diff != "" && s.Dictify {
		return valuestream.Value{}, ixerrors.Config("search: --diff and --dictify are mutually exclusive")
	}

	var result, other any
	if s.Diff != "" {
		// Two independent PerformQuery round-trips: fetch both concurrently
		// rather than paying their latency twice over.
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			result, err = s.run(gctx, srv, s.Query)
			return err
		})
		g.Go(func() error {
			var err error
			other, err = s.run(gctx, srv, s.Diff)
			return err
		})
		if err := g.Wait(); err != nil {
			return valuestream.Value{}, err
		}
		return valuestream.JSONValue(diffJSON(result, other)), nil
	}

	result, err := s.run(ctx, srv, s.Query)
	if err != nil {
		return valuestream.Value{}, err
	}

	if s.Dictify {
		dictified, err := dictifyJSON(result)
		if err != nil {
			return valuestream.Value{}, err
		}
		return valuestream.JSONValue(dictified), nil
	}

	return valuestream.JSONValue(result), nil
}

func (s Search) run(ctx context.Context, srv server.AbstractServer, query string) (any, error) {
	raw, err := srv.PerformQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	var decoded any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, ixerrors.Data(err, "malformed search result for %q", query)
		}
	}
	if s.Normalize {
		decoded = dropBoundsKeys(decoded)
	}
	return decoded, nil
}

// dropBoundsKeys recursively removes any object key ending in "_bounds",
// matching cmd_search.rs's normalize_result (line/column bounds are the
// build-dependent noise that makes two otherwise-equal search results
// compare unequal).
func dropBoundsKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if len(k) > 7 && k[len(k)-7:] == "_bounds" {
				continue
			}
			out[k] = dropBoundsKeys(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = dropBoundsKeys(val)
		}
		return out
	default:
		return v
	}
}

// dictifyJSON turns an array of path-keyed objects into a single object
// keyed by each element's "path" field, per cmd_search.rs's --dictify.
func dictifyJSON(v any) (any, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, ixerrors.Config("search --dictify needs an array result")
	}
	out := make(map[string]any, len(arr))
	for _, el := range arr {
		obj, ok := el.(map[string]any)
		if !ok {
			return nil, ixerrors.Config("search --dictify needs an array of objects")
		}
		path, ok := obj["path"].(string)
		if !ok {
			return nil, ixerrors.Config(`search --dictify needs a "path" field on every element`)
		}
		out[path] = obj
	}
	return out, nil
}

// diffJSON reports a structural diff between a and b as
// {"added": [...], "removed": [...], "changed": [...]} keyed by the
// recursive json-pointer-style path at which they differ.
func diffJSON(a, b any) map[string]any {
	added := map[string]any{}
	removed := map[string]any{}
	changed := map[string]any{}
	walkDiff("", a, b, added, removed, changed)

	keys := func(m map[string]any) []string {
		ks := make([]string, 0, len(m))
		for k := range m {
			ks = append(ks, k)
		}
		sort.Strings(ks)
		return ks
	}
	_ = keys

	return map[string]any{"added": added, "removed": removed, "changed": changed}
}

func walkDiff(path string, a, b any, added, removed, changed map[string]any) {
	amap, aIsMap := a.(map[string]any)
	bmap, bIsMap := b.(map[string]any)
	if aIsMap && bIsMap {
		for k, av := range amap {
			bv, ok := bmap[k]
			if !ok {
				removed[path+"/"+k] = av
				continue
			}
			walkDiff(path+"/"+k, av, bv, added, removed, changed)
		}
		for k, bv := range bmap {
			if _, ok := amap[k]; !ok {
				added[path+"/"+k] = bv
			}
		}
		return
	}
	if !reflect.DeepEqual(a, b) {
		changed[path] = map[string]any{"from": a, "to": b}
	}
}
