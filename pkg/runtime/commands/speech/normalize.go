// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package speech implements speech::normalize, speech::phon, and
// speech::tts (§4.G): the text-to-speech-adjacent cohort rewriters, plus
// a disclosed-scope WAV-synthesis stub. Grounded on
// original_source/src/modules/tts.rs's normalize/phon passes.
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
		Name:       "normalize",
		InputMask:  value.TypeString,
		ReturnMask: value.TypeString,
		Args: []registry.ArgSpec{
			{Name: "normalizers", Type: "MapPath"},
			{Name: "generator_path", Type: "Path"},
			{Name: "analyzer_path", Type: "Path"},
		},
		AssetDeps: []registry.AssetDep{
			{Kind: registry.Required, Name: "generator_path"},
			{Kind: registry.Required, Name: "analyzer_path"},
		},
		New: newNormalize,
	})
}

// droppedTags are morphological tags discarded from the regen-tag string
// (§4.G step 3) regardless of which normalizer matched.
var droppedTags = map[string]bool{
	"Cmp": true, "+ABBR": true, "+Cmpnd": true, "+Err/Orth": true,
}

type normalizeCmd struct {
	normalizers map[string]fst.Gateway
	generator   fst.Gateway
	analyzer    fst.Gateway
}

func newNormalize(ctx *runctx.Context, args map[string]ast.Arg) (registry.Runner, error) {
	arg, ok := args["normalizers"]
	if !ok {
		return nil, fmt.Errorf("speech::normalize: missing required argument %q", "normalizers")
	}
	paths, ok := arg.TryAsStringMap()
	if !ok {
		return nil, fmt.Errorf("speech::normalize: normalizers argument is not a path map")
	}

	normalizers := make(map[string]fst.Gateway, len(paths))
	for tag, name := range paths {
		p, err := ctx.ExtractToTemp(name)
		if err != nil {
			return nil, fmt.Errorf("speech::normalize: normalizer %q: %w", tag, err)
		}
		normalizers[tag] = fst.NewProcessGateway("hfst-lookup", "-q", p)
	}

	genPath, err := extractPath(ctx, args, "generator_path", "speech::normalize")
	if err != nil {
		return nil, err
	}
	anaPath, err := extractPath(ctx, args, "analyzer_path", "speech::normalize")
	if err != nil {
		return nil, err
	}

	return &normalizeCmd{
		normalizers: normalizers,
		generator:   fst.NewProcessGateway("hfst-lookup", "-q", genPath),
		analyzer:    fst.NewProcessGateway("hfst-lookup", "-q", anaPath),
	}, nil
}

func extractPath(ctx *runctx.Context, args map[string]ast.Arg, name, cmd string) (string, error) {
	arg, ok := args[name]
	if !ok {
		return "", fmt.Errorf("%s: missing required argument %q", cmd, name)
	}
	s, ok := arg.TryAsString()
	if !ok {
		return "", fmt.Errorf("%s: %s argument is not a string", cmd, name)
	}
	p, err := ctx.ExtractToTemp(s)
	if err != nil {
		return "", fmt.Errorf("%s: %w", cmd, err)
	}
	return p, nil
}

func (c *normalizeCmd) Name() string { return "speech::normalize" }

func (c *normalizeCmd) Forward(ctx context.Context, in value.Value, _ map[string]any) (value.Value, error) {
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
				out.WriteString(c.normalizeReading(ctx, blk.Cohort.WordForm, r))
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

// normalizeReading rewrites one reading that carries a normalizer tag
// (§4.G): surface extraction, regen-tag construction, generation checked
// by the analyzer, and, when no candidate regenerates, the last
// normalized candidate with the regen tags. A reading without a
// normalizer tag passes through unchanged (there is no compound
// expand-main path), and a candidate that fails to regenerate is not
// analyzed directly. Step 6 (compound prefix combination across
// subreadings) is not implemented: it requires carrying state across a
// reading group that this pass-through rewriter, unlike the suggest
// engine, does not fold.
func (c *normalizeCmd) normalizeReading(ctx context.Context, wordForm string, r cohort.Reading) string {
	passthrough := func() string {
		var b strings.Builder
		b.WriteString(strings.Repeat("\t", r.Depth))
		b.WriteString(fmt.Sprintf("%q %s\n", r.BaseForm, strings.Join(r.Tags, " ")))
		return b.String()
	}

	normTag, norm := c.selectNormalizer(r.Tags)
	if norm == nil {
		return passthrough()
	}

	surface := extractSurface(wordForm, r)
	regen := buildRegenTags(r.Tags, normTag)

	candidates, _ := norm.LookupTags(ctx, surface, false)
	for _, cand := range candidates {
		if result := c.expand(ctx, cand, r.BaseForm, regen); result != "" {
			var b strings.Builder
			b.WriteString(strings.Repeat("\t", r.Depth))
			b.WriteString(fmt.Sprintf("%q %s %qphon %qoldlemma\n", result, regen, result, r.BaseForm))
			return b.String()
		}
	}

	if len(candidates) > 0 {
		last := candidates[len(candidates)-1]
		var b strings.Builder
		b.WriteString(strings.Repeat("\t", r.Depth))
		b.WriteString(fmt.Sprintf("%q %s\n", last, regen))
		return b.String()
	}

	return passthrough()
}

func (c *normalizeCmd) selectNormalizer(tags []string) (string, fst.Gateway) {
	for _, t := range tags {
		if g, ok := c.normalizers[t]; ok {
			return t, g
		}
	}
	return "", nil
}

// extractSurface implements §4.G step 2's preference order.
func extractSurface(wordForm string, r cohort.Reading) string {
	for _, t := range r.Tags {
		if s, ok := phonOverride(t); ok {
			return s
		}
		if s, ok := wordFormOverride(t); ok {
			return s
		}
	}
	if r.Depth == 1 && r.BaseForm != "" {
		return r.BaseForm
	}
	return wordForm
}

func phonOverride(tag string) (string, bool) {
	if strings.HasPrefix(tag, `"`) && strings.HasSuffix(tag, `"phon`) {
		return tag[1 : len(tag)-len(`"phon`)], true
	}
	return "", false
}

func wordFormOverride(tag string) (string, bool) {
	if strings.HasPrefix(tag, `"<`) && strings.HasSuffix(tag, `>"`) {
		return tag[2 : len(tag)-2], true
	}
	return "", false
}

// buildRegenTags implements §4.G step 3. Of the registered normalizer
// keys, only normTag (the one that selected the normalizer) is removed;
// any other normalizer key in tags is kept.
func buildRegenTags(tags []string, normTag string) string {
	var kept []string
	for _, t := range tags {
		if strings.HasPrefix(t, "#") {
			break
		}
		if t == normTag || droppedTags[t] {
			continue
		}
		if strings.HasPrefix(t, `"`) || strings.Contains(t, "/") || strings.HasPrefix(t, "SELECT:") ||
			strings.HasPrefix(t, "MAP:") || strings.HasPrefix(t, "SETPARENT:") {
			continue
		}
		t = strings.ReplaceAll(t, "++", "+")
		t = strings.TrimSuffix(t, "+")
		kept = append(kept, t)
	}
	return strings.Join(kept, " ")
}

// expand implements §4.G step 4: generate from norm+regen or base+regen,
// then require the analyzer's result to contain every regen tag.
func (c *normalizeCmd) expand(ctx context.Context, norm, base, regen string) string {
	regenTags := strings.Fields(regen)

	tryKey := func(key string) string {
		results, _ := c.generator.LookupTags(ctx, key, false)
		for _, res := range results {
			analyzed, _ := c.analyzer.LookupTags(ctx, res, false)
			for _, a := range analyzed {
				if containsAllTags(a, regenTags) {
					return res
				}
			}
		}
		return ""
	}

	if res := tryKey(norm + "+" + regen); res != "" {
		return res
	}
	return tryKey(base + "+" + regen)
}

func containsAllTags(analysis string, tags []string) bool {
	fields := strings.Fields(analysis)
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	for _, t := range tags {
		if t != "" && !set[t] {
			return false
		}
	}
	return true
}
