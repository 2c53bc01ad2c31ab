// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package spell implements spell::suggest: per-word spelling suggestions
// over free text, returned as JSON. Grounded on original_source's
// modules/spell.rs, which confines a divvunspell HfstSpeller to one
// worker thread and maps word_bound_indices() across it; here there is no
// worker confinement: the per-word fan-out uses
// golang.org/x/sync/errgroup (the teacher stack's bounded-concurrency
// primitive) in place of the original's rayon par_iter, and every
// goroutine calls the one shared FST gateway directly, since spelling
// suggestion is independent per word and the gateway is safe for
// concurrent lookup.
package spell

import (
	"context"
	"fmt"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/divvun/divvun-runtime-go/pkg/runtime/ast"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/fst"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/registry"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/runctx"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/value"
)

func init() {
	registry.Register(registry.CommandDef{
		Module:     "spell",
		Name:       "suggest",
		InputMask:  value.TypeString,
		ReturnMask: value.TypeJSON,
		Args: []registry.ArgSpec{
			{Name: "lexicon_path", Type: "Path"},
			{Name: "mutator_path", Type: "Path"},
		},
		AssetDeps: []registry.AssetDep{
			{Kind: registry.Required, Name: "lexicon_path"},
			{Kind: registry.Required, Name: "mutator_path"},
		},
		New: newSuggest,
	})
}

type suggestCmd struct {
	speller fst.Gateway
}

func newSuggest(ctx *runctx.Context, args map[string]ast.Arg) (registry.Runner, error) {
	lexiconArg, ok := args["lexicon_path"]
	if !ok {
		return nil, fmt.Errorf("spell::suggest: missing required argument %q", "lexicon_path")
	}
	lexiconName, ok := lexiconArg.TryAsString()
	if !ok {
		return nil, fmt.Errorf("spell::suggest: lexicon_path argument is not a string")
	}
	mutatorArg, ok := args["mutator_path"]
	if !ok {
		return nil, fmt.Errorf("spell::suggest: missing required argument %q", "mutator_path")
	}
	mutatorName, ok := mutatorArg.TryAsString()
	if !ok {
		return nil, fmt.Errorf("spell::suggest: mutator_path argument is not a string")
	}

	// lexicon_path is extracted to prove it resolves and to fail fast if
	// the bundle is missing it; the mutator model is the gateway's real
	// lookup target, mirroring HfstSpeller::new(mutator, lexicon).
	if _, err := ctx.ExtractToTemp(lexiconName); err != nil {
		return nil, fmt.Errorf("spell::suggest: %w", err)
	}
	mutatorPath, err := ctx.ExtractToTemp(mutatorName)
	if err != nil {
		return nil, fmt.Errorf("spell::suggest: %w", err)
	}

	return &suggestCmd{speller: fst.NewProcessGateway("hfst-lookup", "-q", mutatorPath)}, nil
}

func (c *suggestCmd) Name() string { return "spell::suggest" }

type wordSuggestion struct {
	Index       int      `json:"index"`
	Word        string   `json:"word"`
	Suggestions []string `json:"suggestions"`
}

func (c *suggestCmd) Forward(ctx context.Context, in value.Value, _ map[string]any) (value.Value, error) {
	s, err := in.TryAsString()
	if err != nil {
		return value.Value{}, err
	}

	words := wordBoundIndices(s)
	results := make([]wordSuggestion, len(words))

	g, gctx := errgroup.WithContext(ctx)
	for i, w := range words {
		i, w := i, w
		g.Go(func() error {
			sugg, err := c.speller.LookupTags(gctx, w.text, false)
			if err != nil {
				return err
			}
			results[i] = wordSuggestion{Index: w.pos, Word: w.text, Suggestions: sugg}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return value.Value{}, fmt.Errorf("spell::suggest: %w", err)
	}

	return value.JSON(results), nil
}

type boundWord struct {
	pos  int
	text string
}

// wordBoundIndices splits text into letter-run words with their byte
// offset, mirroring divvunspell::tokenizer::Tokenize's word_bound_indices.
func wordBoundIndices(text string) []boundWord {
	var words []boundWord
	runes := []rune(text)
	pos := 0
	start := -1

	flush := func(end int) {
		if start >= 0 {
			words = append(words, boundWord{pos: pos, text: string(runes[start:end])})
			start = -1
		}
	}

	bytePos := 0
	for i, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if start < 0 {
				start = i
				pos = bytePos
			}
		} else {
			flush(i)
		}
		bytePos += utf8RuneLen(r)
	}
	flush(len(runes))

	return words
}

func utf8RuneLen(r rune) int {
	switch {
	case r < 0x80:
		return 1
	case r < 0x800:
		return 2
	case r < 0x10000:
		return 3
	default:
		return 4
	}
}
