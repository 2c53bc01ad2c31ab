// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

package speech

import (
	"context"
	"fmt"
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
		Module:     "speech",
		Name:       "phon",
		InputMask:  value.TypeString,
		ReturnMask: value.TypeString,
		Args:       []registry.ArgSpec{{Name: "transducers", Type: "MapPath"}},
		New:        newPhon,
	})
}

type phonCmd struct {
	transducers map[string]fst.Gateway
}

func newPhon(ctx *runctx.Context, args map[string]ast.Arg) (registry.Runner, error) {
	arg, ok := args["transducers"]
	if !ok {
		return nil, fmt.Errorf("speech::phon: missing required argument %q", "transducers")
	}
	paths, ok := arg.TryAsStringMap()
	if !ok {
		return nil, fmt.Errorf("speech::phon: transducers argument is not a path map")
	}

	transducers := make(map[string]fst.Gateway, len(paths))
	for tag, name := range paths {
		p, err := ctx.ExtractToTemp(name)
		if err != nil {
			return nil, fmt.Errorf("speech::phon: transducer %q: %w", tag, err)
		}
		transducers[tag] = fst.NewProcessGateway("hfst-lookup", "-q", p)
	}

	return &phonCmd{transducers: transducers}, nil
}

func (c *phonCmd) Name() string { return "speech::phon" }

func (c *phonCmd) Forward(ctx context.Context, in value.Value, _ map[string]any) (value.Value, error) {
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
				out.WriteString(c.phonReading(ctx, blk.Cohort.WordForm, r))
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

	return value.String(out.String()), nil
}

// phonReading implements §4.G's phon pass: pick the first matching
// tag-specific transducer, look up a phonetic expansion, and append it
// as a "<...>"phon tag, dropping any prior one.
func (c *phonCmd) phonReading(ctx context.Context, wordForm string, r cohort.Reading) string {
	var b strings.Builder
	b.WriteString(strings.Repeat("\t", r.Depth))
	b.WriteString(fmt.Sprintf("%q", r.BaseForm))

	var gw fst.Gateway
	for _, t := range r.Tags {
		if g, ok := c.transducers[t]; ok {
			gw = g
			break
		}
	}

	for _, t := range r.Tags {
		if _, isPhon := phonOverride(t); isPhon {
			continue // dropped: replaced below
		}
		b.WriteString(" ")
		b.WriteString(t)
	}

	if gw != nil {
		surface := extractSurface(wordForm, r)
		results, _ := gw.LookupTags(ctx, surface, false)
		if len(results) > 0 {
			b.WriteString(fmt.Sprintf(" %qphon", results[0]))
		}
	}

	b.WriteString("\n")
	return b.String()
}
