// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePipeline = `{
  "default": "main",
  "pipelines": {
    "main": {
      "entry": {"value_type": "string"},
      "output": {"ref": "upper"},
      "commands": {
        "reverse": {"module": "example", "command": "reverse", "input": "entry", "args": {}},
        "upper": {"module": "example", "command": "upper", "input": "reverse", "args": {}}
      }
    }
  }
}`

func TestParse_ValidDocument(t *testing.T) {
	def, err := Parse([]byte(samplePipeline))
	require.NoError(t, err)
	assert.Equal(t, "main", def.Default)
	assert.Len(t, def.Pipelines, 1)
}

func TestParse_MissingDefault(t *testing.T) {
	_, err := Parse([]byte(`{"pipelines":{}}`))
	assert.Error(t, err)
}

func TestParse_DefaultNotDefined(t *testing.T) {
	_, err := Parse([]byte(`{"default":"missing","pipelines":{}}`))
	assert.Error(t, err)
}

func TestFlatten_ProducesLeafToRootOrder(t *testing.T) {
	def, err := Parse([]byte(samplePipeline))
	require.NoError(t, err)

	steps, err := Flatten(def.Pipelines["main"])
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "reverse", steps[0].NodeID)
	assert.Equal(t, "upper", steps[1].NodeID)
}

func TestFlatten_RejectsOutputNamingNonexistentNode(t *testing.T) {
	p := Pipeline{
		Entry:    Entry{ValueType: "string"},
		Output:   Output{Ref: "missing"},
		Commands: map[string]CommandNode{},
	}
	_, err := Flatten(p)
	assert.Error(t, err)
}

func TestFlatten_RejectsCycle(t *testing.T) {
	p := Pipeline{
		Output: Output{Ref: "a"},
		Commands: map[string]CommandNode{
			"a": {Module: "m", Command: "a", Input: []byte(`"b"`)},
			"b": {Module: "m", Command: "b", Input: []byte(`"a"`)},
		},
	}
	_, err := Flatten(p)
	assert.Error(t, err)
}

func TestCommandNode_InputRef_RejectsMultiInput(t *testing.T) {
	n := CommandNode{Module: "m", Command: "c", Input: []byte(`["a","b"]`)}
	_, err := n.InputRef()
	assert.Error(t, err)
}

func TestArg_TryAsString(t *testing.T) {
	a := Arg{Type: "String", Value: []byte(`"hello"`)}
	s, ok := a.TryAsString()
	require.True(t, ok)
	assert.Equal(t, "hello", s)
}

func TestArg_TryAsStringMap(t *testing.T) {
	a := Arg{Type: "MapPath", Value: []byte(`{"analyzer":"models/analyzer.hfstol"}`)}
	m, ok := a.TryAsStringMap()
	require.True(t, ok)
	assert.Equal(t, "models/analyzer.hfstol", m["analyzer"])
}
