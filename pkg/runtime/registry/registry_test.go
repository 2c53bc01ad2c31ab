// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divvun/divvun-runtime-go/pkg/runtime/ast"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/runctx"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/value"
)

type stubRunner struct{}

func (stubRunner) Forward(_ context.Context, in value.Value, _ map[string]any) (value.Value, error) {
	return in, nil
}
func (stubRunner) Name() string { return "test::stub" }

func TestRegister_AndLookup(t *testing.T) {
	Register(CommandDef{
		Module:     "test",
		Name:       "stub_lookup",
		InputMask:  value.TypeString,
		ReturnMask: value.TypeString,
		New: func(*runctx.Context, map[string]ast.Arg) (Runner, error) {
			return stubRunner{}, nil
		},
	})

	def, ok := Lookup("test", "stub_lookup")
	require.True(t, ok)
	assert.Equal(t, "test::stub_lookup", def.Key())

	runner, err := def.New(&runctx.Context{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "test::stub", runner.Name())
}

func TestLookup_MissingReturnsFalse(t *testing.T) {
	_, ok := Lookup("nope", "nothing")
	assert.False(t, ok)
}

func TestRegister_PanicsOnDuplicate(t *testing.T) {
	Register(CommandDef{Module: "test", Name: "dup_test"})
	assert.Panics(t, func() {
		Register(CommandDef{Module: "test", Name: "dup_test"})
	})
}
