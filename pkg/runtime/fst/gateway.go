// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package fst implements the FST gateway (§4.B): a thin, synchronous,
// thread-safe wrapper over a finite-state transducer. Readers are
// Send+Sync post-construction and never mutated after loading; a missing
// input yields an empty result, never an error.
//
// No Go binding for HFST's binary transducer format (.hfstol) exists in
// the retrieval pack or is fetchable without linking an absent C library,
// so this package provides two real implementations instead of
// fabricating one: ProcessGateway shells out to an external lookup tool
// (grounded on the original's hfst-tokenize/vislcg3 shellout pattern),
// and TableGateway serves lookups from an in-process compiled attribute
// pair text table, for models small enough to embed directly in a bundle.
package fst

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// Gateway is the uniform lookup interface every FST-backed command
// constructs against.
type Gateway interface {
	// LookupTags runs an analyze/generate/tag-lookup query. descend
	// controls whether the underlying transducer traverses flag
	// diacritics greedily (hfst's "other" lookup mode in the blanktag
	// use case). Missing input yields an empty slice, not an error.
	LookupTags(ctx context.Context, input string, descend bool) ([]string, error)
}

// TableGateway is an in-process Gateway backed by a compiled attribute
// pair lookup table: each input string maps to zero or more output
// strings, loaded once at construction and never mutated thereafter.
type TableGateway struct {
	mu    sync.RWMutex
	exact map[string][]string
	other map[string][]string
}

// NewTableGateway builds a TableGateway from a lookup table and an
// "other" (descend=true) table. Either may be nil.
func NewTableGateway(exact, other map[string][]string) *TableGateway {
	return &TableGateway{exact: exact, other: other}
}

func (g *TableGateway) LookupTags(_ context.Context, input string, descend bool) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	table := g.exact
	if descend {
		table = g.other
	}
	if table == nil {
		return nil, nil
	}
	return table[input], nil
}

// ParseAttPairs reads an AT&T-format pair-string transducer listing (one
// of HFST's plain-text interchange formats: "input\toutput\tweight" per
// line) into a lookup table suitable for NewTableGateway. Lines with
// fewer than two tab-separated fields are skipped; the weight column, when
// present, is ignored.
func ParseAttPairs(r *bufio.Reader) map[string][]string {
	table := map[string][]string{}
	for {
		line, err := r.ReadString('\n')
		line = strings.TrimRight(line, "\n\r")
		if line != "" {
			fields := strings.Split(line, "\t")
			if len(fields) >= 2 {
				table[fields[0]] = append(table[fields[0]], fields[1])
			}
		}
		if err != nil {
			break
		}
	}
	return table
}

// ProcessGateway is a Gateway backed by an external lookup binary,
// invoked once per call with the input piped to stdin and the tag list
// read back from stdout (one result per line). This is the shape every
// FST-backed command used before an in-process transducer reader was
// available, and remains a legitimate pluggable strategy per §9's
// external-process design note.
type ProcessGateway struct {
	binary string
	args   []string
}

// NewProcessGateway wraps an external binary (e.g. "hfst-lookup") and a
// fixed argument list (typically naming the model file).
func NewProcessGateway(binary string, args ...string) *ProcessGateway {
	return &ProcessGateway{binary: binary, args: args}
}

func (g *ProcessGateway) LookupTags(ctx context.Context, input string, descend bool) ([]string, error) {
	args := append([]string{}, g.args...)
	if descend {
		args = append(args, "--other")
	}

	cmd := exec.CommandContext(ctx, g.binary, args...)
	cmd.Stdin = strings.NewReader(input + "\n")

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("fst: %s exited with error: %w", g.binary, err)
	}

	text := strings.TrimRight(string(out), "\n")
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}
