// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

package divvun

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divvun/divvun-runtime-go/pkg/runtime/asset"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/fluent"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/fst"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/suggest"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/value"
)

func TestSuggestCmd_ForwardThreadsLocalesFromConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "errors-en.yaml"),
		[]byte("messages:\n  - id: typo\n    title: Typo\n    desc: \"bad\"\n"), 0o644))
	store, err := asset.NewDirStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	loader, err := fluent.NewLoader(store, "en", slog.Default())
	require.NoError(t, err)

	cmd := &suggestCmd{s: &suggest.Suggester{
		Generator: fst.NewTableGateway(map[string][]string{"the+N+Sg": {"the"}}, nil),
		Loader:    loader,
	}}

	in := value.String("\"<teh>\"\n\t\"the\" N Sg &typo &SUGGEST ID:1\n")
	out, err := cmd.Forward(context.Background(), in, map[string]any{
		"locales": []any{"en"},
	})
	require.NoError(t, err)

	parsed, err := out.TryAsJSON()
	require.NoError(t, err)
	list, ok := parsed.([]suggest.Err)
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, "teh", list[0].Form)
}

// Scenario 3 (§8) through the command wrapper: a deletion relation must
// drop the target cohort's form while keeping every intervening blank.
func TestSuggestCmd_ForwardHandlesDeletionRelation(t *testing.T) {
	cmd := &suggestCmd{s: &suggest.Suggester{
		Generator: fst.NewTableGateway(nil, nil),
		Loader:    mustEmptyLoader(t),
	}}

	text := "\"<uno>\"\n\t\"uno\" N &redundant R:DELETE1:2 R:RIGHT:3\n" +
		" \n\"<dos>\"\n\t\"dos\" N\n" +
		" \n\"<tres>\"\n\t\"tres\" N\n"

	out, err := cmd.Forward(context.Background(), value.String(text), nil)
	require.NoError(t, err)

	parsed, err := out.TryAsJSON()
	require.NoError(t, err)
	list, ok := parsed.([]suggest.Err)
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, "uno dos tres", list[0].Form)
	require.Len(t, list[0].Rep, 1)
	assert.Equal(t, "uno  tres", list[0].Rep[0])
}

// Scenario 4 (§8) through the command wrapper: overlapping errors must
// each expand to the combined span as distinct records, not merge into
// one.
func TestSuggestCmd_ForwardHandlesNestedOverlap(t *testing.T) {
	cmd := &suggestCmd{s: &suggest.Suggester{
		Generator: fst.NewTableGateway(nil, nil),
		Loader:    mustEmptyLoader(t),
	}}

	text := "\"<aaa>\"\n\t\"aaa\" N &e1 R:RIGHT:2\n" +
		" \n\"<bbb>\"\n\t\"bbb\" N &e2 R:RIGHT:3\n" +
		" \n\"<ccc>\"\n\t\"ccc\" N\n"

	out, err := cmd.Forward(context.Background(), value.String(text), nil)
	require.NoError(t, err)

	parsed, err := out.TryAsJSON()
	require.NoError(t, err)
	list, ok := parsed.([]suggest.Err)
	require.True(t, ok)
	require.Len(t, list, 2)

	for _, e := range list {
		assert.Equal(t, "aaa bbb ccc", e.Form)
	}
}

func mustEmptyLoader(t *testing.T) *fluent.Loader {
	t.Helper()
	store, err := asset.NewDirStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	loader, err := fluent.NewLoader(store, "en", slog.Default())
	require.NoError(t, err)
	return loader
}
