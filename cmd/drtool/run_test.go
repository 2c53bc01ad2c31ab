// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divvun/divvun-runtime-go/pkg/runtime/value"
)

func TestParseConfigPairs_BuildsMap(t *testing.T) {
	config, err := parseConfigPairs([]string{"encoding=utf-16", "foo=bar"})
	require.NoError(t, err)
	assert.Equal(t, "utf-16", config["encoding"])
	assert.Equal(t, "bar", config["foo"])
}

func TestParseConfigPairs_RejectsMissingEquals(t *testing.T) {
	_, err := parseConfigPairs([]string{"noequals"})
	assert.Error(t, err)
}

func TestReadInput_PrefersPositionalArgs(t *testing.T) {
	s, err := readInput([]string{"hello", "world"})
	require.NoError(t, err)
	assert.Equal(t, "hello world", s)
}

func TestPrintResult_HandlesEachKind(t *testing.T) {
	require.NoError(t, printResult(value.String("hi"), false))
	require.NoError(t, printResult(value.Bytes([]byte("bytes")), false))
	require.NoError(t, printResult(value.JSON(map[string]any{"a": 1}), true))
	require.NoError(t, printResult(value.ArrayString([]string{"a", "b"}), false))
}
