// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

package divvun

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"regexp"

	"github.com/divvun/divvun-runtime-go/pkg/runtime/ast"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/fluent"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/fst"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/registry"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/runctx"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/suggest"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/value"
)

func init() {
	registry.Register(registry.CommandDef{
		Module:     "divvun",
		Name:       "suggest",
		InputMask:  value.TypeString, // scalar only; TypeMask has no Multiple member, so a Multiple upstream is not rejected at build time and the engine fans it out per element
		ReturnMask: value.TypeJSON,
		Args: []registry.ArgSpec{
			{Name: "generator_path", Type: "Path"},
			{Name: "errors_path", Type: "Path"},
		},
		AssetDeps: []registry.AssetDep{
			{Kind: registry.Required, Name: "generator_path"},
			{Kind: registry.Optional, Name: "errors_path"},
		},
		New: newSuggest,
	})
}

// errorCategory is one errors.json entry (§6): id plus either an explicit
// tag or a regular-expression tag pattern.
type errorCategory struct {
	ID    string `json:"id"`
	Regex string `json:"re,omitempty"`
}

type suggestCmd struct {
	s *suggest.Suggester
}

func newSuggest(ctx *runctx.Context, args map[string]ast.Arg) (registry.Runner, error) {
	genPath, err := extractPathArg(ctx, args, "generator_path", "divvun::suggest")
	if err != nil {
		return nil, err
	}

	loader, err := fluent.NewLoader(ctx.Store, "en", slog.Default())
	if err != nil {
		return nil, fmt.Errorf("divvun::suggest: %w", err)
	}

	mappings, err := loadErrorMappings(ctx, args)
	if err != nil {
		return nil, err
	}

	return &suggestCmd{s: &suggest.Suggester{
		Generator:     fst.NewProcessGateway("hfst-lookup", "-q", genPath),
		Loader:        loader,
		ErrorMappings: mappings,
	}}, nil
}

// loadErrorMappings parses the optional errors.json asset (§6): a map of
// category name to the error-tag ids (explicit or regex) it covers, used
// for ignore filtering. A missing errors_path arg yields an empty index.
func loadErrorMappings(ctx *runctx.Context, args map[string]ast.Arg) (map[string][]suggest.Id, error) {
	arg, ok := args["errors_path"]
	if !ok {
		return nil, nil
	}
	name, ok := arg.TryAsString()
	if !ok {
		return nil, fmt.Errorf("divvun::suggest: errors_path argument is not a string")
	}

	r, err := ctx.Store.Open(name)
	if err != nil {
		return nil, fmt.Errorf("divvun::suggest: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("divvun::suggest: reading errors.json: %w", err)
	}

	var raw map[string][]errorCategory
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("divvun::suggest: parsing errors.json: %w", err)
	}

	out := make(map[string][]suggest.Id, len(raw))
	for category, entries := range raw {
		ids := make([]suggest.Id, 0, len(entries))
		for _, e := range entries {
			if e.Regex != "" {
				re, err := regexp.Compile(e.Regex)
				if err != nil {
					return nil, fmt.Errorf("divvun::suggest: errors.json category %q: %w", category, err)
				}
				ids = append(ids, suggest.Id{Regex: re})
			} else {
				ids = append(ids, suggest.Id{Explicit: e.ID})
			}
		}
		out[category] = ids
	}
	return out, nil
}

func (c *suggestCmd) Name() string { return "divvun::suggest" }

func (c *suggestCmd) Forward(ctx context.Context, in value.Value, config map[string]any) (value.Value, error) {
	s, err := in.TryAsString()
	if err != nil {
		return value.Value{}, err
	}

	opts := suggest.Options{Encoding: "utf-8"}
	if config != nil {
		if locs, ok := config["locales"].([]any); ok {
			for _, l := range locs {
				if str, ok := l.(string); ok {
					opts.Locales = append(opts.Locales, str)
				}
			}
		}
		if enc, ok := config["encoding"].(string); ok {
			opts.Encoding = enc
		}
		if ignoreCats, ok := config["ignore"].([]any); ok {
			for _, cat := range ignoreCats {
				name, ok := cat.(string)
				if !ok {
					continue
				}
				opts.Ignore = append(opts.Ignore, c.s.ErrorMappings[name]...)
			}
		}
	}

	errs, err := c.s.Run(ctx, s, opts)
	if err != nil {
		return value.Value{}, fmt.Errorf("divvun::suggest: %w", err)
	}

	return value.JSON(errs), nil
}
