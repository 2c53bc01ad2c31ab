// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

package bundle

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divvun/divvun-runtime-go/pkg/runtime/ast"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/registry"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/runctx"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/value"
)

type upperRunner struct{}

func (upperRunner) Forward(_ context.Context, in value.Value, _ map[string]any) (value.Value, error) {
	s, err := in.TryAsString()
	if err != nil {
		return value.Value{}, err
	}
	return value.String(strings.ToUpper(s)), nil
}
func (upperRunner) Name() string { return "example::upper" }

func registerUpperOnce() {
	if _, ok := registry.Lookup("example", "upper"); ok {
		return
	}
	registry.Register(registry.CommandDef{
		Module: "example", Name: "upper",
		InputMask: value.TypeString, ReturnMask: value.TypeString,
		New: func(*runctx.Context, map[string]ast.Arg) (registry.Runner, error) { return upperRunner{}, nil },
	})
}

const samplePipelineJSON = `{
	"default": "main",
	"pipelines": {
		"main": {
			"entry": {"value_type": "string"},
			"output": {"ref": "up"},
			"commands": {
				"up": {"module": "example", "command": "upper", "input": "entry", "args": {}}
			}
		}
	}
}`

func writeBundleDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pipeline.json"), []byte(samplePipelineJSON), 0o644))
	return dir
}

func TestOpen_ParsesPipelineManifest(t *testing.T) {
	registerUpperOnce()
	dir := writeBundleDir(t)

	b, err := Open(dir)
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, "main", b.Definition().Default)
}

func TestOpen_MissingManifestFails(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(dir)
	require.Error(t, err)
}

func TestBuild_ProducesRunnablePipeline(t *testing.T) {
	registerUpperOnce()
	dir := writeBundleDir(t)

	b, err := Open(dir)
	require.NoError(t, err)
	defer b.Close()

	p, err := b.Build("", nil)
	require.NoError(t, err)

	out, err := p.Forward(context.Background(), value.String("hi"), nil)
	require.NoError(t, err)
	s, err := out.TryAsString()
	require.NoError(t, err)
	assert.Equal(t, "HI", s)
}
