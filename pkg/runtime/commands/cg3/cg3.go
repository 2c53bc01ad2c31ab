// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package cg3 implements cg3::mwesplit and cg3::vislcg3, grounded on
// original_source's modules/cg3.rs: both pipe a cohort stream through an
// external binary ("cg-mwesplit" with no arguments, "vislcg3 -g
// <model_path>") and return its stdout.
package cg3

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
		Module:     "cg3",
		Name:       "mwesplit",
		InputMask:  value.TypeString,
		ReturnMask: value.TypeString,
		New:        newMwesplit,
	})
	registry.Register(registry.CommandDef{
		Module:     "cg3",
		Name:       "vislcg3",
		InputMask:  value.TypeString,
		ReturnMask: value.TypeString,
		Args:       []registry.ArgSpec{{Name: "model_path", Type: "Path"}},
		AssetDeps:  []registry.AssetDep{{Kind: registry.Required, Name: "model_path"}},
		New:        newVislcg3,
	})
}

type mwesplitCmd struct{ bin string }

func newMwesplit(*runctx.Context, map[string]ast.Arg) (registry.Runner, error) {
	return &mwesplitCmd{bin: "cg-mwesplit"}, nil
}

func (c *mwesplitCmd) Name() string { return "cg3::mwesplit" }

func (c *mwesplitCmd) Forward(ctx context.Context, in value.Value, _ map[string]any) (value.Value, error) {
	s, err := in.TryAsString()
	if err != nil {
		return value.Value{}, err
	}
	out, err := shellout.Run(ctx, c.bin, nil, s)
	if err != nil {
		return value.Value{}, fmt.Errorf("cg3::mwesplit: %w", err)
	}
	return value.String(out), nil
}

type vislcg3Cmd struct {
	bin  string
	args []string
}

func newVislcg3(ctx *runctx.Context, args map[string]ast.Arg) (registry.Runner, error) {
	arg, ok := args["model_path"]
	if !ok {
		return nil, fmt.Errorf("cg3::vislcg3: missing required argument %q", "model_path")
	}
	name, ok := arg.TryAsString()
	if !ok {
		return nil, fmt.Errorf("cg3::vislcg3: model_path argument is not a string")
	}

	path, err := ctx.ExtractToTemp(name)
	if err != nil {
		return nil, fmt.Errorf("cg3::vislcg3: %w", err)
	}

	return &vislcg3Cmd{bin: "vislcg3", args: []string{"-g", path}}, nil
}

func (c *vislcg3Cmd) Name() string { return "cg3::vislcg3" }

func (c *vislcg3Cmd) Forward(ctx context.Context, in value.Value, _ map[string]any) (value.Value, error) {
	s, err := in.TryAsString()
	if err != nil {
		return value.Value{}, err
	}
	out, err := shellout.Run(ctx, c.bin, c.args, s)
	if err != nil {
		return value.Value{}, fmt.Errorf("cg3::vislcg3: %w", err)
	}
	return value.String(out), nil
}
