// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package example implements the "example" module's two demonstration
// commands (reverse, upper), grounded on original_source's modules/example.rs.
// They take no arguments and no assets, and exist chiefly to exercise the
// engine and registry against a minimal, dependency-free command.
package example

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/divvun/divvun-runtime-go/pkg/runtime/ast"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/registry"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/runctx"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/value"
)

func init() {
	registry.Register(registry.CommandDef{
		Module:     "example",
		Name:       "reverse",
		InputMask:  value.TypeString,
		ReturnMask: value.TypeString,
		New:        newReverse,
	})
	registry.Register(registry.CommandDef{
		Module:     "example",
		Name:       "upper",
		InputMask:  value.TypeString,
		ReturnMask: value.TypeString,
		New:        newUpper,
	})
}

type reverseCmd struct{}

func newReverse(*runctx.Context, map[string]ast.Arg) (registry.Runner, error) { return reverseCmd{}, nil }

func (reverseCmd) Name() string { return "example::reverse" }

// Forward reverses input by rune, not by byte, so multi-byte UTF-8
// sequences survive intact.
func (reverseCmd) Forward(_ context.Context, in value.Value, _ map[string]any) (value.Value, error) {
	s, err := in.TryAsString()
	if err != nil {
		return value.Value{}, err
	}
	n := utf8.RuneCountInString(s)
	runes := make([]rune, n)
	i := n - 1
	for _, r := range s {
		runes[i] = r
		i--
	}
	return value.String(string(runes)), nil
}

type upperCmd struct{}

func newUpper(*runctx.Context, map[string]ast.Arg) (registry.Runner, error) { return upperCmd{}, nil }

func (upperCmd) Name() string { return "example::upper" }

func (upperCmd) Forward(_ context.Context, in value.Value, _ map[string]any) (value.Value, error) {
	s, err := in.TryAsString()
	if err != nil {
		return value.Value{}, err
	}
	return value.String(strings.ToUpper(s)), nil
}
