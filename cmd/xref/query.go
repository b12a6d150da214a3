// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/kraklabs/xref/internal/ixerrors"
	"github.com/kraklabs/xref/internal/output"
	"github.com/kraklabs/xref/internal/pipeline"
)

func runQuery(args []string) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	timeout := fs.Duration("timeout", 60*time.Second, "pipeline execution timeout")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: xref query [options] "<pipeline expression>"

Runs one "|"-delimited pipeline expression against a local index or remote
searchfox-compatible server and prints the result.

The first stage carries the --server/--tree/--output-format flags, e.g.:

  xref query "--tree mozilla-central search-identifiers nsIFoo"
  xref query "--server https://searchfox.org --tree mozilla-central crossref-lookup _ZN7mozilla5Foo"

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(2)
	}

	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	p, err := pipeline.Build(fs.Arg(0))
	if err != nil {
		ixerrors.FatalError(err, true)
		return
	}

	v, err := pipeline.Run(ctx, p)
	if err != nil {
		ixerrors.FatalError(err, true)
		return
	}

	if p.OutputFormat == pipeline.OutputPretty {
		if err := output.JSON(v.ToJSON()); err != nil {
			ixerrors.FatalError(err, false)
		}
		return
	}
	if err := output.JSONCompact(v.ToJSON()); err != nil {
		ixerrors.FatalError(err, false)
	}
}
