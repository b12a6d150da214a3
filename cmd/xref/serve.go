// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kraklabs/xref/internal/ixerrors"
	"github.com/kraklabs/xref/internal/output"
	"github.com/kraklabs/xref/internal/pipeline"
)

// runServe starts an HTTP server exposing GET /<tree>/query/<preset>?q=<expr>
// (spec §6: "GET /<tree>/query/<preset>?q=<expr> — returns JSON. `default` is
// the only recognized preset. 404 for unknown tree or preset; 400 for
// missing q". The pack carries no literal HTTP routing layer for
// cmd_pipeline, since the Rust original's own webserver binary isn't part of
// this retrieval; the route shape follows the spec's stated server surface,
// grounded on cmd_pipeline/builder.rs's build_pipeline taking exactly the
// arg string an HTTP handler would assemble from a query param).
func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", ":8080", "listen address")
	timeout := fs.Duration("timeout", 60*time.Second, "per-request pipeline timeout")
	trees := fs.String("trees", "", "comma-separated list of recognized tree names")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: xref serve [options]

Serves pipeline queries over HTTP:

  GET /<tree>/query/default?q=<pipeline-expression>

<tree> must be one of -trees; "default" is the only recognized preset. The
expression run is "--tree <tree> <q>".

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(2)
	}

	registry := map[string]bool{}
	for _, t := range strings.Split(*trees, ",") {
		if t = strings.TrimSpace(t); t != "" {
			registry[t] = true
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", handleQuery(*timeout, registry))

	srv := &http.Server{Addr: *addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			ixerrors.FatalError(ixerrors.Server(err, "HTTP server failed"), true)
		}
	case <-sigCh:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// defaultPreset is the only recognized <preset> segment (spec §6).
const defaultPreset = "default"

func handleQuery(timeout time.Duration, trees map[string]bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 3 || parts[1] != "query" {
			http.NotFound(w, r)
			return
		}
		tree, preset := parts[0], parts[2]

		if !trees[tree] || preset != defaultPreset {
			http.NotFound(w, r)
			return
		}

		q := r.URL.Query().Get("q")
		if q == "" {
			writeJSONError(w, ixerrors.BadInputf("missing q parameter", "pass ?q=<args>", "missing required \"q\" query parameter"))
			return
		}

		expr := fmt.Sprintf("--tree %s %s", shellQuote(tree), q)

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		p, err := pipeline.Build(expr)
		if err != nil {
			writeJSONError(w, err)
			return
		}
		v, err := pipeline.Run(ctx, p)
		if err != nil {
			writeJSONError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = output.JSONTo(w, v.ToJSON())
	}
}

func writeJSONError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	if ie, ok := err.(*ixerrors.Error); ok {
		switch {
		case ie.Layer == ixerrors.BadInput || ie.Layer == ixerrors.ConfigLayer:
			code = http.StatusBadRequest
		case ie.Retry == ixerrors.Unsupported:
			code = http.StatusNotImplemented
		case ie.Layer == ixerrors.DataLayer:
			code = http.StatusNotFound
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	ixerrors.WriteTo(w, err, true)
}

func shellQuote(s string) string {
	if !strings.ContainsAny(s, " \t'\"") {
		return s
	}
	return `'` + strings.ReplaceAll(s, `'`, `'\''`) + `'`
}
