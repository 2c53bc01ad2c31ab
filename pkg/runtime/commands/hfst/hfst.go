// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package hfst implements hfst::tokenize, grounded on original_source's
// modules/hfst.rs: pipe the raw input string into "hfst-tokenize -g
// <model_path>" and return its stdout as the cohort stream text. The
// model path is resolved against the bundle's asset store at
// construction time (extracted to a real filesystem path), since
// hfst-tokenize needs an on-disk file, not a stream.
package hfst

import (
	"context"
	"fmt"

	"github.com/divvun/divvun-runtime-go/pkg/runtime/ast"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/commands/internal/shellout"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/registry"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/runctx"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/value"
)

func init() {
	registry.Register(registry.CommandDef{
		Module:     "hfst",
		Name:       "tokenize",
		InputMask:  value.TypeString,
		ReturnMask: value.TypeString,
		Args:       []registry.ArgSpec{{Name: "model_path", Type: "Path"}},
		AssetDeps:  []registry.AssetDep{{Kind: registry.Required, Name: "model_path"}},
		New:        newTokenize,
	})
}

type tokenizeCmd struct {
	bin  string
	args []string
}

func newTokenize(ctx *runctx.Context, args map[string]ast.Arg) (registry.Runner, error) {
	arg, ok := args["model_path"]
	if !ok {
		return nil, fmt.Errorf("hfst::tokenize: missing required argument %q", "model_path")
	}
	name, ok := arg.TryAsString()
	if !ok {
		return nil, fmt.Errorf("hfst::tokenize: model_path argument is not a string")
	}

	path, err := ctx.ExtractToTemp(name)
	if err != nil {
		return nil, fmt.Errorf("hfst::tokenize: %w", err)
	}

	return &tokenizeCmd{bin: "hfst-tokenize", args: []string{"-g", path}}, nil
}

func (c *tokenizeCmd) Name() string { return "hfst::tokenize" }

func (c *tokenizeCmd) Forward(ctx context.Context, in value.Value, _ map[string]any) (value.Value, error) {
	s, err := in.TryAsString()
	if err != nil {
		return value.Value{}, err
	}

	out, err := shellout.Run(ctx, c.bin, c.args, s)
	if err != nil {
		return value.Value{}, fmt.Errorf("hfst::tokenize: %w", err)
	}
	return value.String(out), nil
}
