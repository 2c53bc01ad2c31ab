// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package divvun implements divvun::blanktag, divvun::cgspell, and
// divvun::suggest: the constraint-grammar-adjacent commands that
// annotate or interpret a cohort stream using an HFST analyzer, a
// speller, or the suggest engine respectively.
package divvun

import (
	"context"
	"fmt"
	"strings"

	"github.com/divvun/divvun-runtime-go/pkg/runtime/ast"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/cohort"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/commands/internal/worker"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/fst"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/registry"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/runctx"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/value"
)

func init() {
	registry.Register(registry.CommandDef{
		Module:     "divvun",
		Name:       "blanktag",
		InputMask:  value.TypeString,
		ReturnMask: value.TypeString,
		Args:       []registry.ArgSpec{{Name: "model_path", Type: "Path"}},
		AssetDeps:  []registry.AssetDep{{Kind: registry.Required, Name: "model_path"}},
		New:        newBlanktag,
	})
}

type blanktagCmd struct {
	w *worker.Worker
}

func newBlanktag(ctx *runctx.Context, args map[string]ast.Arg) (registry.Runner, error) {
	arg, ok := args["model_path"]
	if !ok {
		return nil, fmt.Errorf("divvun::blanktag: missing required argument %q", "model_path")
	}
	name, ok := arg.TryAsString()
	if !ok {
		return nil, fmt.Errorf("divvun::blanktag: model_path argument is not a string")
	}
	path, err := ctx.ExtractToTemp(name)
	if err != nil {
		return nil, fmt.Errorf("divvun::blanktag: %w", err)
	}

	analyzer := fst.NewProcessGateway("hfst-lookup", "-q", path)
	w := worker.Spawn(func(input string) (string, error) {
		return blanktag(context.Background(), analyzer, input), nil
	})
	return &blanktagCmd{w: w}, nil
}

func (c *blanktagCmd) Name() string { return "divvun::blanktag" }

func (c *blanktagCmd) Forward(ctx context.Context, in value.Value, _ map[string]any) (value.Value, error) {
	s, err := in.TryAsString()
	if err != nil {
		return value.Value{}, err
	}
	out, err := c.w.Call(ctx, s)
	if err != nil {
		return value.Value{}, fmt.Errorf("divvun::blanktag: %w", err)
	}
	return value.String(out), nil
}

// blanktag re-emits the cohort stream with every analyzer-derived tag
// appended to each reading line.
func blanktag(ctx context.Context, analyzer fst.Gateway, input string) string {
	stream := cohort.Parse(input)

	var out strings.Builder
	for _, blk := range stream.Blocks {
		switch blk.Kind {
		case cohort.BlockCohort:
			out.WriteString(fmt.Sprintf("\"<%s>\"\n", blk.Cohort.WordForm))

			lookup := fmt.Sprintf(`"<%s>"`, blk.Cohort.WordForm)
			tags, _ := analyzer.LookupTags(ctx, lookup, false)
			otherTags, _ := analyzer.LookupTags(ctx, lookup, true)
			appended := append(append([]string{}, tags...), otherTags...)

			for _, r := range blk.Cohort.Readings {
				out.WriteString(strings.Repeat("\t", r.Depth))
				out.WriteString(`"`)
				out.WriteString(r.BaseForm)
				out.WriteString(`"`)
				for _, t := range r.Tags {
					out.WriteString(" ")
					out.WriteString(t)
				}
				for _, t := range appended {
					out.WriteString(" ")
					out.WriteString(t)
				}
				out.WriteString("\n")
			}
		case cohort.BlockEscaped:
			out.WriteString(":")
			out.WriteString(strings.TrimPrefix(blk.Text, ":"))
			out.WriteString("\n")
		case cohort.BlockText:
			out.WriteString(blk.Text)
			out.WriteString("\n")
		}
	}

	return out.String()
}
