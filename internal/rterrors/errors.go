// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package rterrors provides structured error handling for the runtime.
//
// It defines RuntimeError, a type that carries the five error kinds the
// pipeline execution runtime distinguishes: build errors, asset errors,
// invocation errors, stream warnings, and cancellations. Build, asset, and
// invocation errors are always surfaced to the caller; stream warnings are
// logged and execution continues; cancellations are never represented as a
// RuntimeError at all (see ErrCancelled).
//
// # Usage
//
//	err := rterrors.NewBuildError(
//	    "unknown command \"divvun::frobnicate\"",
//	    "no registry entry for module \"divvun\" command \"frobnicate\"",
//	    "check the pipeline.json command name against the command registry",
//	    nil,
//	)
//	if err != nil {
//	    rterrors.FatalError(err, false)
//	}
package rterrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Kind classifies a RuntimeError into one of the five kinds in the
// error-handling design (build, asset, invocation, stream warning,
// cancellation). Cancellations are represented separately by
// ErrCancelled, never as a Kind on a constructed RuntimeError.
type Kind int

const (
	// KindBuild covers unknown commands, type mismatches, missing assets,
	// and malformed pipeline.json — raised synchronously from Build.
	KindBuild Kind = iota
	// KindAsset covers asset open/extract failures raised from a
	// constructor.
	KindAsset
	// KindInvocation covers a stage's forward failing at runtime.
	KindInvocation
	// KindStream covers non-fatal stream warnings: malformed CG lines,
	// missing relation targets, unknown localization keys.
	KindStream
	// KindInternal covers bugs: assertion failures, unreachable states.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindBuild:
		return "build"
	case KindAsset:
		return "asset"
	case KindInvocation:
		return "invocation"
	case KindStream:
		return "stream"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// ExitCode maps a Kind to a process exit code for the cmd/drtool front
// door, following the same semantic-exit-code convention as the teacher
// CLI this package is adapted from.
func (k Kind) ExitCode() int {
	switch k {
	case KindBuild:
		return 1
	case KindAsset:
		return 2
	case KindInvocation:
		return 4
	case KindStream:
		return 0
	case KindInternal:
		return 10
	default:
		return 10
	}
}

// RuntimeError represents an error with structured context: what went
// wrong (Message), why (Cause), how to address it (Fix), which of the
// five kinds it falls into, and optionally the underlying error.
type RuntimeError struct {
	Message string
	Cause   string
	Fix     string
	Kind    Kind
	Err     error
}

func (e *RuntimeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewBuildError creates a KindBuild RuntimeError.
func NewBuildError(msg, cause, fix string, err error) *RuntimeError {
	return &RuntimeError{Message: msg, Cause: cause, Fix: fix, Kind: KindBuild, Err: err}
}

// NewAssetError creates a KindAsset RuntimeError.
func NewAssetError(msg, cause, fix string, err error) *RuntimeError {
	return &RuntimeError{Message: msg, Cause: cause, Fix: fix, Kind: KindAsset, Err: err}
}

// NewInvocationError creates a KindInvocation RuntimeError.
func NewInvocationError(msg, cause, fix string, err error) *RuntimeError {
	return &RuntimeError{Message: msg, Cause: cause, Fix: fix, Kind: KindInvocation, Err: err}
}

// NewStreamWarning creates a KindStream RuntimeError. Callers log these
// and continue; they must never be returned from Build or Forward as a
// fatal failure.
func NewStreamWarning(msg, cause string) *RuntimeError {
	return &RuntimeError{Message: msg, Cause: cause, Kind: KindStream}
}

// NewInternalError creates a KindInternal RuntimeError.
func NewInternalError(msg, cause, fix string, err error) *RuntimeError {
	return &RuntimeError{Message: msg, Cause: cause, Fix: fix, Kind: KindInternal, Err: err}
}

// ErrCancelled is the sentinel returned when a forward pass is cancelled
// at a suspension point. It is deliberately not a RuntimeError: per the
// error-handling design, cancellation is a distinct result, not an error
// value, so callers should check with errors.Is rather than a type
// assertion.
var ErrCancelled = errors.New("runtime: invocation cancelled")

var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format returns a formatted error message for terminal display, with
// colored Error/Cause/Fix sections. The package-global color.NoColor flag
// is saved and restored around the call; it is read and written without
// synchronization, so concurrent calls are not safe.
func (e *RuntimeError) Format(noColor bool) string {
	originalNoColor := color.NoColor
	defer func() { color.NoColor = originalNoColor }()

	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var out strings.Builder
	out.WriteString(colorError.Sprint("Error: "))
	out.WriteString(e.Message)
	out.WriteString("\n")

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

// JSON is the machine-readable representation of a RuntimeError.
type JSON struct {
	Error    string `json:"error"`
	Cause    string `json:"cause,omitempty"`
	Fix      string `json:"fix,omitempty"`
	Kind     string `json:"kind"`
	ExitCode int    `json:"exit_code"`
}

// ToJSON converts the RuntimeError to its JSON-serializable form.
func (e *RuntimeError) ToJSON() JSON {
	return JSON{
		Error:    e.Message,
		Cause:    e.Cause,
		Fix:      e.Fix,
		Kind:     e.Kind.String(),
		ExitCode: e.Kind.ExitCode(),
	}
}

// FatalError prints err and exits with the exit code for its kind. For
// non-RuntimeError values it prints a generic message and exits with the
// internal-error code. A nil err is a no-op and returns immediately; for
// any other err it never returns.
func FatalError(err error, jsonOutput bool) {
	if err == nil {
		return
	}

	var re *RuntimeError
	if errors.As(err, &re) {
		if jsonOutput {
			enc := json.NewEncoder(os.Stderr)
			enc.SetIndent("", "  ")
			_ = enc.Encode(re.ToJSON())
		} else {
			fmt.Fprint(os.Stderr, re.Format(false))
		}
		os.Exit(re.Kind.ExitCode())
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(KindInternal.ExitCode())
}
