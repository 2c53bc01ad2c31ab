// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

package divvun

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divvun/divvun-runtime-go/pkg/runtime/commands/internal/worker"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/fst"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/value"
)

func TestBlanktag_AppendsLookupTags(t *testing.T) {
	gw := fst.NewTableGateway(map[string][]string{
		`"<word>"`: {"TAG1"},
	}, nil)

	out := blanktag(context.Background(), gw, "\"<word>\"\n\t\"word\" N Sg\n")
	assert.Contains(t, out, `"<word>"`)
	assert.Contains(t, out, `"word" N Sg TAG1`)
}

func TestBlanktagCmd_ForwardCallsWorker(t *testing.T) {
	gw := fst.NewTableGateway(map[string][]string{`"<word>"`: {"TAG1"}}, nil)
	w := worker.Spawn(func(input string) (string, error) {
		return blanktag(context.Background(), gw, input), nil
	})
	cmd := &blanktagCmd{w: w}

	out, err := cmd.Forward(context.Background(), value.String("\"<word>\"\n\t\"word\" N Sg\n"), nil)
	require.NoError(t, err)
	s, err := out.TryAsString()
	require.NoError(t, err)
	assert.Contains(t, s, "TAG1")
}
