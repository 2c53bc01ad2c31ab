// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

package divvun

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divvun/divvun-runtime-go/pkg/runtime/fst"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/value"
)

func TestCgspell_CorrectWordEmitsNoSuggestions(t *testing.T) {
	c := &cgspellCmd{
		lexicon: fst.NewTableGateway(map[string][]string{"word": {"word N Sg"}}, nil),
		mutator: fst.NewTableGateway(nil, nil),
	}
	out, err := c.Forward(context.Background(), value.String("\"<word>\"\n\t\"word\" N Sg\n"), nil)
	require.NoError(t, err)
	s, err := out.TryAsString()
	require.NoError(t, err)
	assert.NotContains(t, s, "<spelled>")
}

func TestCgspell_MisspelledWordEmitsSuggestion(t *testing.T) {
	c := &cgspellCmd{
		lexicon: fst.NewTableGateway(map[string][]string{"word": {"word N Sg"}}, nil),
		mutator: fst.NewTableGateway(map[string][]string{"wrod": {"word"}}, nil),
	}
	out, err := c.Forward(context.Background(), value.String("\"<wrod>\"\n\t\"wrod\" N Sg\n"), nil)
	require.NoError(t, err)
	s, err := out.TryAsString()
	require.NoError(t, err)
	assert.Contains(t, s, "<spelled>")
	assert.Contains(t, s, `"word"S`)
}
