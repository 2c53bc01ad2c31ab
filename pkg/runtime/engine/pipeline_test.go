// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

package engine

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divvun/divvun-runtime-go/pkg/runtime/ast"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/registry"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/runctx"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/value"
)

// upperRunner and reverseRunner are minimal stand-ins for the example
// command package, sufficient to exercise Build/Forward without pulling
// in the full registry of commands packages.
type upperRunner struct{}

func (upperRunner) Forward(_ context.Context, in value.Value, _ map[string]any) (value.Value, error) {
	s, err := in.TryAsString()
	if err != nil {
		return value.Value{}, err
	}
	return value.String(strings.ToUpper(s)), nil
}
func (upperRunner) Name() string { return "example::upper" }

type reverseRunner struct{}

func (reverseRunner) Forward(_ context.Context, in value.Value, _ map[string]any) (value.Value, error) {
	s, err := in.TryAsString()
	if err != nil {
		return value.Value{}, err
	}
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return value.String(string(runes)), nil
}
func (reverseRunner) Name() string { return "example::reverse" }

type failRunner struct{}

func (failRunner) Forward(context.Context, value.Value, map[string]any) (value.Value, error) {
	return value.Value{}, fmt.Errorf("boom")
}
func (failRunner) Name() string { return "example::fail" }

func registerTestCommands(t *testing.T) {
	t.Helper()
	registerOnce("example", "upper", value.TypeString, value.TypeString, func(*runctx.Context, map[string]ast.Arg) (registry.Runner, error) {
		return upperRunner{}, nil
	})
	registerOnce("example", "reverse", value.TypeString, value.TypeString, func(*runctx.Context, map[string]ast.Arg) (registry.Runner, error) {
		return reverseRunner{}, nil
	})
	registerOnce("example", "fail", value.TypeString, value.TypeString, func(*runctx.Context, map[string]ast.Arg) (registry.Runner, error) {
		return failRunner{}, nil
	})
}

// registerOnce is test-local idempotent registration: registry.Register
// panics on a duplicate key and tests in this package share the global
// registry, so guard with Lookup first.
func registerOnce(module, name string, in, out value.TypeMask, ctor registry.Constructor) {
	if _, ok := registry.Lookup(module, name); ok {
		return
	}
	registry.Register(registry.CommandDef{Module: module, Name: name, InputMask: in, ReturnMask: out, New: ctor})
}

func samplePipelineDef(outputRef string) *ast.Definition {
	data := []byte(fmt.Sprintf(`{
		"default": "main",
		"pipelines": {
			"main": {
				"entry": {"value_type": "string"},
				"output": {"ref": %q},
				"commands": {
					"reverse": {"module": "example", "command": "reverse", "input": "entry", "args": {}},
					"upper": {"module": "example", "command": "upper", "input": "reverse", "args": {}}
				}
			}
		}
	}`, outputRef))
	def, err := ast.Parse(data)
	if err != nil {
		panic(err)
	}
	return def
}

func TestBuild_ResolvesStagesInOrder(t *testing.T) {
	registerTestCommands(t)
	def := samplePipelineDef("upper")

	p, err := Build(&runctx.Context{}, def, "", nil)
	require.NoError(t, err)
	require.Len(t, p.Stages, 2)
	assert.Equal(t, "example::reverse", p.Stages[0].Identity())
	assert.Equal(t, "example::upper", p.Stages[1].Identity())
	assert.Equal(t, StateReady, p.State())
}

func TestBuild_UnknownCommandFails(t *testing.T) {
	registerTestCommands(t)
	data := []byte(`{
		"default": "main",
		"pipelines": {
			"main": {
				"entry": {"value_type": "string"},
				"output": {"ref": "x"},
				"commands": {
					"x": {"module": "nosuch", "command": "nope", "input": "entry", "args": {}}
				}
			}
		}
	}`)
	def, err := ast.Parse(data)
	require.NoError(t, err)

	_, err = Build(&runctx.Context{}, def, "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestBuild_OutputMustNameFinalCommand(t *testing.T) {
	registerTestCommands(t)
	def := samplePipelineDef("nonexistent-node")

	_, err := Build(&runctx.Context{}, def, "", nil)
	require.Error(t, err)
}

func TestForward_RunsStagesInOrder(t *testing.T) {
	registerTestCommands(t)
	def := samplePipelineDef("upper")
	p, err := Build(&runctx.Context{}, def, "", nil)
	require.NoError(t, err)

	out, err := p.Forward(context.Background(), value.String("hello"), nil)
	require.NoError(t, err)
	s, err := out.TryAsString()
	require.NoError(t, err)
	assert.Equal(t, "OLLEH", s)
	assert.Equal(t, StateReady, p.State())
}

func TestForward_StageFailureSetsFailedState(t *testing.T) {
	registry.Register(registry.CommandDef{
		Module: "example", Name: "fail-only",
		InputMask: value.TypeString, ReturnMask: value.TypeString,
		New: func(*runctx.Context, map[string]ast.Arg) (registry.Runner, error) { return failRunner{}, nil },
	})
	data := []byte(`{
		"default": "main",
		"pipelines": {
			"main": {
				"entry": {"value_type": "string"},
				"output": {"ref": "f"},
				"commands": {
					"f": {"module": "example", "command": "fail-only", "input": "entry", "args": {}}
				}
			}
		}
	}`)
	def, err := ast.Parse(data)
	require.NoError(t, err)
	p, err := Build(&runctx.Context{}, def, "", nil)
	require.NoError(t, err)

	_, err = p.Forward(context.Background(), value.String("x"), nil)
	require.Error(t, err)
	assert.Equal(t, StateFailed, p.State())
}

func TestForward_TapFiresBeforeAndAfterEachStage(t *testing.T) {
	registerTestCommands(t)
	def := samplePipelineDef("upper")
	p, err := Build(&runctx.Context{}, def, "", nil)
	require.NoError(t, err)

	var events []string
	p.SetTap(func(step int, cmd string, phase TapPhase, v value.Value) {
		s, _ := v.TryAsString()
		label := "after"
		if phase == TapBefore {
			label = "before"
		}
		events = append(events, fmt.Sprintf("%d:%s:%s:%s", step, cmd, label, s))
	})

	_, err = p.Forward(context.Background(), value.String("ab"), nil)
	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, "0:example::reverse:before:ab", events[0])
	assert.Equal(t, "0:example::reverse:after:ba", events[1])
	assert.Equal(t, "1:example::upper:before:ba", events[2])
	assert.Equal(t, "1:example::upper:after:BA", events[3])
}

func TestForward_MultipleFanOutCollapsesToArrayString(t *testing.T) {
	registerTestCommands(t)
	def := samplePipelineDef("upper")
	p, err := Build(&runctx.Context{}, def, "", nil)
	require.NoError(t, err)

	// Only exercise the single "upper" stage directly against a Multiple
	// input: this is the fan-out unit under test, not full-pipeline
	// Multiple support (pipeline.json entries are always scalar).
	out, err := p.runStage(context.Background(), p.Stages[1], value.Multiple([]value.Value{value.String("a"), value.String("b")}), nil)
	require.NoError(t, err)
	arr, err := out.TryAsArrayString()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, arr)
}

func TestForward_CancelledContextStopsBeforeNextStage(t *testing.T) {
	registerTestCommands(t)
	def := samplePipelineDef("upper")
	p, err := Build(&runctx.Context{}, def, "", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Forward(ctx, value.String("ab"), nil)
	require.Error(t, err)
}
