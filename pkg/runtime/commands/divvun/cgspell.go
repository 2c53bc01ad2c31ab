// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

package divvun

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/divvun/divvun-runtime-go/pkg/runtime/ast"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/cohort"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/fst"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/registry"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/runctx"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/value"
)

func init() {
	registry.Register(registry.CommandDef{
		Module:     "divvun",
		Name:       "cgspell",
		InputMask:  value.TypeString,
		ReturnMask: value.TypeString,
		Args: []registry.ArgSpec{
			{Name: "acc_model_path", Type: "Path"},
			{Name: "err_model_path", Type: "Path"},
		},
		AssetDeps: []registry.AssetDep{
			{Kind: registry.Required, Name: "acc_model_path"},
			{Kind: registry.Required, Name: "err_model_path"},
		},
		New: newCgspell,
	})
}

// cgspellCmd pairs a lexicon (analysis) gateway with a mutator
// (correction-candidate) gateway, mirroring divvunspell's
// HfstSpeller(mutator, lexicon) pairing (§4.F's original_source
// grounding, modules/divvun/cgspell.rs).
type cgspellCmd struct {
	lexicon fst.Gateway
	mutator fst.Gateway
}

func newCgspell(ctx *runctx.Context, args map[string]ast.Arg) (registry.Runner, error) {
	accPath, err := extractPathArg(ctx, args, "acc_model_path", "divvun::cgspell")
	if err != nil {
		return nil, err
	}
	errPath, err := extractPathArg(ctx, args, "err_model_path", "divvun::cgspell")
	if err != nil {
		return nil, err
	}

	return &cgspellCmd{
		lexicon: fst.NewProcessGateway("hfst-lookup", "-q", accPath),
		mutator: fst.NewProcessGateway("hfst-lookup", "-q", errPath),
	}, nil
}

func (c *cgspellCmd) Name() string { return "divvun::cgspell" }

func (c *cgspellCmd) Forward(ctx context.Context, in value.Value, _ map[string]any) (value.Value, error) {
	s, err := in.TryAsString()
	if err != nil {
		return value.Value{}, err
	}

	stream := cohort.Parse(s)
	var out strings.Builder

	for _, blk := range stream.Blocks {
		switch blk.Kind {
		case cohort.BlockCohort:
			out.WriteString(fmt.Sprintf("\"<%s>\"\n", blk.Cohort.WordForm))
			for _, r := range blk.Cohort.Readings {
				out.WriteString(strings.Repeat("\t", r.Depth))
				out.WriteString(fmt.Sprintf("%q %s\n", r.BaseForm, strings.Join(r.Tags, " ")))
			}
			spelled, err := c.suggestSpelling(ctx, blk.Cohort.WordForm)
			if err != nil {
				return value.Value{}, fmt.Errorf("divvun::cgspell: %w", err)
			}
			out.WriteString(spelled)
		case cohort.BlockEscaped:
			out.WriteString(":")
			out.WriteString(strings.TrimPrefix(blk.Text, ":"))
		case cohort.BlockText:
			out.WriteString(blk.Text)
		}
		out.WriteString("\n")
	}

	return value.String(out.String()), nil
}

// suggestSpelling returns extra reading lines proposing corrections for
// word, tagged <spelled>, or empty if word is already recognized by the
// lexicon.
func (c *cgspellCmd) suggestSpelling(ctx context.Context, word string) (string, error) {
	analyses, err := c.lexicon.LookupTags(ctx, word, false)
	if err != nil {
		return "", err
	}
	if len(analyses) > 0 {
		return "", nil
	}

	candidates, err := c.mutator.LookupTags(ctx, word, false)
	if err != nil {
		return "", err
	}
	sort.Strings(candidates)

	var out strings.Builder
	for _, cand := range candidates {
		form := strings.Fields(cand)[0]
		corrAnalyses, err := c.lexicon.LookupTags(ctx, form, false)
		if err != nil {
			continue
		}
		for _, a := range corrAnalyses {
			fields := strings.Fields(a)
			if len(fields) == 0 {
				continue
			}
			out.WriteString("\t\"")
			out.WriteString(fields[0])
			out.WriteString("\"")
			for _, f := range fields[1:] {
				out.WriteString(" ")
				out.WriteString(f)
			}
			out.WriteString(fmt.Sprintf(" <spelled> \"%s\"S\n", form))
		}
	}

	return out.String(), nil
}

func extractPathArg(ctx *runctx.Context, args map[string]ast.Arg, name, cmd string) (string, error) {
	arg, ok := args[name]
	if !ok {
		return "", fmt.Errorf("%s: missing required argument %q", cmd, name)
	}
	s, ok := arg.TryAsString()
	if !ok {
		return "", fmt.Errorf("%s: %s argument is not a string", cmd, name)
	}
	path, err := ctx.ExtractToTemp(s)
	if err != nil {
		return "", fmt.Errorf("%s: %w", cmd, err)
	}
	return path, nil
}
