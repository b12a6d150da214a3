// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main implements the xref CLI: a composable query pipeline over a
// local searchfox-style index or a remote searchfox-compatible server.
//
// Usage:
//
//	xref query "<pipeline expression>"   Run a pipeline expression once
//	xref serve --addr :8080              Serve queries over HTTP
package main

import (
	"flag"
	"fmt"
	"os"
)

func main() {
	var showVersion = flag.Bool("version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `xref - query-and-analysis pipeline CLI

Usage:
  xref <command> [options]

Commands:
  query   Run a "|"-delimited pipeline expression once, print the result
  serve   Serve pipeline queries over HTTP

Global Options:
  --version   Show version and exit

Examples:
  xref query "search-identifiers --exact-match NS_NewRunnableFunction"
  xref query "--server https://searchfox.org --tree mozilla-central crossref-lookup _ZN7mozilla5LoggerC1Ev"
  xref serve --addr :8080

Environment Variables:
  SEARCHFOX_SERVER   Default server URL or local index root
  SEARCHFOX_TREE     Default tree name
`)
	}
	flag.Parse()

	if *showVersion {
		fmt.Println("xref version dev")
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "query":
		runQuery(cmdArgs)
	case "serve":
		runServe(cmdArgs)
	default:
		fmt.Fprintf(os.Stderr, "xref: unknown command %q\n", command)
		flag.Usage()
		os.Exit(2)
	}
}
