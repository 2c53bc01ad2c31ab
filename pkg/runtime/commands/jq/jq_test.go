// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

package jq

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divvun/divvun-runtime-go/pkg/runtime/ast"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/value"
)

func build(t *testing.T, filter string) *jqCmd {
	t.Helper()
	r, err := newJq(nil, map[string]ast.Arg{"filter": {Type: "String", Value: []byte(`"` + filter + `"`)}})
	require.NoError(t, err)
	return r.(*jqCmd)
}

func TestForward_FieldAccess(t *testing.T) {
	c := build(t, ".a.b")
	out, err := c.Forward(context.Background(), value.JSON(map[string]any{"a": map[string]any{"b": "hi"}}), nil)
	require.NoError(t, err)
	v, err := out.TryAsJSON()
	require.NoError(t, err)
	assert.Equal(t, "hi", v)
}

func TestForward_ArrayIteration(t *testing.T) {
	c := build(t, ".items[]")
	out, err := c.Forward(context.Background(), value.JSON(map[string]any{"items": []any{1.0, 2.0}}), nil)
	require.NoError(t, err)
	v, err := out.TryAsJSON()
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.0}, v)
}

func TestForward_Identity(t *testing.T) {
	c := build(t, "")
	out, err := c.Forward(context.Background(), value.JSON(map[string]any{"x": 1.0}), nil)
	require.NoError(t, err)
	v, err := out.TryAsJSON()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": 1.0}, v)
}

func TestParseFilter_RejectsNonDotted(t *testing.T) {
	_, err := parseFilter("map(.x)")
	require.Error(t, err)
}
