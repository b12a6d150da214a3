// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package ixerrors provides the structured error type shared by the index
// server, pipeline stages, and the xref CLI/HTTP surface.
//
// Every error that can reach a caller carries two independent axes (spec
// §4.1/§7):
//
//   - Layer: where the fault originates (BadInput/ConfigLayer/DataLayer/
//     ServerLayer/UnknownLayer).
//   - Retry: whether retrying the same request could succeed
//     (Sticky/Transient/Unsupported).
//
// A stage or server method never panics on bad input; it returns an *Error
// with the appropriate layer/retry pair. Panics are reserved for invariant
// violations (e.g. an mmap of a known-good file length returning
// inconsistent bytes).
package ixerrors

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Layer identifies which part of the system a fault originates in.
type Layer string

const (
	BadInput     Layer = "bad_input"
	ConfigLayer  Layer = "config"
	DataLayer    Layer = "data"
	ServerLayer  Layer = "server"
	UnknownLayer Layer = "unknown"
)

// Retry classifies whether re-issuing the same request could succeed.
type Retry string

const (
	// Sticky errors will not improve on retry (bad input, missing data, 4xx).
	Sticky Retry = "sticky"
	// Transient errors may succeed on retry (5xx, I/O hiccups).
	Transient Retry = "transient"
	// Unsupported marks an operation the backend deliberately does not implement.
	Unsupported Retry = "unsupported"
)

// Exit codes mirrored from the CLI's exit-code contract.
const (
	ExitSuccess  = 0
	ExitConfig   = 1
	ExitData     = 2
	ExitNetwork  = 3
	ExitInput    = 4
	ExitInternal = 10
)

// Error is the structured error type carried across the abstract server and
// pipeline stage boundaries.
type Error struct {
	// Message describes what went wrong in user-friendly language.
	Message string
	// Cause explains why the error occurred (diagnostic information).
	Cause string
	// Fix provides an actionable suggestion on how to resolve it.
	Fix string
	// Layer is where the fault originates.
	Layer Layer
	// Retry says whether the same request could succeed if retried.
	Retry Retry
	// Err is the underlying error, if any (enables errors.Is/As).
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the wrapped error for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs an Error with all fields specified explicitly.
func New(layer Layer, retry Retry, message, cause, fix string, err error) *Error {
	return &Error{Message: message, Cause: cause, Fix: fix, Layer: layer, Retry: retry, Err: err}
}

// BadInputf constructs a sticky, BadInput-layer error: parsing or option
// errors surfaced directly to the user (spec §7).
func BadInputf(cause, fix, format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Cause: cause, Fix: fix, Layer: BadInput, Retry: Sticky}
}

// Config constructs a sticky, ConfigLayer error: a stage received a value
// variant it cannot consume (spec §7, "stage X expected Y").
func Config(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Layer: ConfigLayer, Retry: Sticky}
}

// Data constructs a sticky, DataLayer error: a malformed on-disk record or a
// 4xx remote response.
func Data(err error, format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Layer: DataLayer, Retry: Sticky, Err: err}
}

// Server constructs a transient, ServerLayer error: a 5xx response or a
// network/I/O failure that may succeed on retry.
func Server(err error, format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Layer: ServerLayer, Retry: Transient, Err: err}
}

// NewUnsupported marks an abstract-server operation the backend does not implement.
func NewUnsupported(op string) *Error {
	return &Error{Message: fmt.Sprintf("%s is not supported by this backend", op), Layer: ServerLayer, Retry: Unsupported}
}

// ExitCode maps the error's layer/retry pair to a CLI exit code.
func (e *Error) ExitCode() int {
	switch e.Layer {
	case BadInput:
		return ExitInput
	case ConfigLayer:
		return ExitConfig
	case DataLayer:
		return ExitData
	case ServerLayer:
		if e.Retry == Transient {
			return ExitNetwork
		}
		return ExitInternal
	default:
		return ExitInternal
	}
}

// Color definitions for error formatting.
var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format returns a formatted error message for terminal display, matching
// the "concise" CLI output format's error presentation.
func (e *Error) Format(noColor bool) string {
	originalNoColor := color.NoColor
	defer func() { color.NoColor = originalNoColor }()

	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var out strings.Builder
	out.WriteString(colorError.Sprint("Error: "))
	out.WriteString(e.Message)
	out.WriteString(fmt.Sprintf(" [%s/%s]\n", e.Layer, e.Retry))

	if e.Cause != "" {
		out.WriteString(colorCause.Sprint("Cause: "))
		out.WriteString(e.Cause)
		out.WriteString("\n")
	}
	if e.Fix != "" {
		out.WriteString(colorFix.Sprint("Fix:   "))
		out.WriteString(e.Fix)
		out.WriteString("\n")
	}
	return out.String()
}

// JSON represents an Error in JSON-serializable form.
type JSON struct {
	Error    string `json:"error"`
	Cause    string `json:"cause,omitempty"`
	Fix      string `json:"fix,omitempty"`
	Layer    Layer  `json:"layer"`
	Retry    Retry  `json:"retry"`
	ExitCode int    `json:"exit_code"`
}

// ToJSON converts the Error to its JSON-serializable shape.
func (e *Error) ToJSON() JSON {
	return JSON{
		Error:    e.Message,
		Cause:    e.Cause,
		Fix:      e.Fix,
		Layer:    e.Layer,
		Retry:    e.Retry,
		ExitCode: e.ExitCode(),
	}
}

// WriteTo prints err (formatted or JSON) to w without exiting the process.
func WriteTo(w io.Writer, err error, jsonOutput bool) {
	if err == nil {
		return
	}
	if ie, ok := err.(*Error); ok {
		if jsonOutput {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			_ = enc.Encode(ie.ToJSON())
		} else {
			fmt.Fprint(w, ie.Format(false))
		}
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

// FatalError prints the error and exits with the code derived from its
// layer/retry pair (or ExitInternal for non-*Error types). Never returns.
func FatalError(err error, jsonOutput bool) {
	if err == nil {
		return
	}
	WriteTo(os.Stderr, err, jsonOutput)
	if ie, ok := err.(*Error); ok {
		os.Exit(ie.ExitCode())
	}
	os.Exit(ExitInternal)
}

// IsSticky reports whether err is a sticky *Error (will not improve on retry).
func IsSticky(err error) bool {
	ie, ok := err.(*Error)
	return ok && ie.Retry == Sticky
}

// IsTransient reports whether err is a transient *Error.
func IsTransient(err error) bool {
	ie, ok := err.(*Error)
	return ok && ie.Retry == Transient
}
