// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package registry implements the command registry (§4.D): a static
// catalogue of command kinds, populated by each command package's init()
// function and immutable at runtime thereafter. Lookup is O(1) on
// (module, name).
//
// This mirrors the original's inventory::submit!-per-module static
// registration and generalizes the teacher's ParserMode constant
// catalogue (pkg/ingestion/parser_interface.go) from "one of two parser
// strategies" to "one of N command kinds".
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/divvun/divvun-runtime-go/pkg/runtime/ast"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/runctx"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/value"
)

// Runner is a compiled command instance: the realization of a Command
// AST node, ready to run repeatedly across invocations of its pipeline.
type Runner interface {
	// Forward runs one invocation of this stage. config is the
	// per-invocation JSON configuration shared across the whole
	// pipeline.
	Forward(ctx context.Context, input value.Value, config map[string]any) (value.Value, error)
	// Name returns the stage's "module::command" identity, used in tap
	// events and diagnostics.
	Name() string
}

// AssetDepKind classifies an asset dependency's cardinality/requiredness.
type AssetDepKind int

const (
	Required AssetDepKind = iota
	RequiredGlob
	Optional
	OptionalGlob
)

// AssetDep is one entry in a CommandDef's asset-dependency list.
type AssetDep struct {
	Kind AssetDepKind
	Name string // literal name (Required/Optional) or glob pattern (*Glob)
}

// ArgSpec describes one named constructor argument's declared type.
type ArgSpec struct {
	Name string
	Type string // mirrors ast.Arg.Type: "String", "Path", "Int", "Json", "MapPath", ...
}

// Constructor builds a Runner from a context and decoded argument map.
type Constructor func(ctx *runctx.Context, args map[string]ast.Arg) (Runner, error)

// CommandDef is one registry entry: a command kind's identity, typed
// input/output masks, argument schema, asset dependencies, and
// constructor.
type CommandDef struct {
	Module     string
	Name       string
	InputMask  value.TypeMask
	ReturnMask value.TypeMask
	Args       []ArgSpec
	AssetDeps  []AssetDep
	New        Constructor
}

// Key returns the registry's lookup key for this definition.
func (d CommandDef) Key() string {
	return key(d.Module, d.Name)
}

func key(module, name string) string {
	return module + "::" + name
}

var (
	mu       sync.RWMutex
	registry = map[string]CommandDef{}
)

// Register adds a CommandDef to the global registry. It is intended to
// be called from each command package's init() function and panics on a
// duplicate (module, name) pair, since that indicates a programming
// error, not a runtime condition.
func Register(def CommandDef) {
	mu.Lock()
	defer mu.Unlock()

	k := def.Key()
	if _, exists := registry[k]; exists {
		panic(fmt.Sprintf("registry: duplicate command definition for %q", k))
	}
	registry[k] = def
}

// Lookup resolves a (module, name) pair to its CommandDef.
func Lookup(module, name string) (CommandDef, bool) {
	mu.RLock()
	defer mu.RUnlock()
	def, ok := registry[key(module, name)]
	return def, ok
}

// All returns every registered CommandDef, for introspection (e.g.
// `drtool inspect`).
func All() []CommandDef {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]CommandDef, 0, len(registry))
	for _, def := range registry {
		out = append(out, def)
	}
	return out
}
