// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package ast implements the pipeline.json schema (§6) and the AST→chain
// flattening the original divvun-runtime calls from_ast: a pipeline's
// commands are stored root-to-leaf (each command names its input node),
// and flattening walks from the output back to the Entry, then reverses
// the walk into a leaf-to-root execution chain.
package ast

import (
	"encoding/json"
	"fmt"
)

// EntryNodeID is the reserved node-id a Command's "input" field uses to
// refer to the pipeline's Entry node.
const EntryNodeID = "entry"

// Entry describes a pipeline's input port.
type Entry struct {
	ValueType string `json:"value_type"`
}

// Output names the pipeline's terminal command node.
type Output struct {
	Ref string `json:"ref"`
}

// Arg is one named argument value attached to a Command node: a sum of
// path/string/int/json/map-of-path-or-string-or-bytes, tagged by Type.
type Arg struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// TryAsString decodes Value as a JSON string.
func (a Arg) TryAsString() (string, bool) {
	var s string
	if err := json.Unmarshal(a.Value, &s); err != nil {
		return "", false
	}
	return s, true
}

// TryAsInt decodes Value as a JSON number.
func (a Arg) TryAsInt() (int64, bool) {
	var n int64
	if err := json.Unmarshal(a.Value, &n); err != nil {
		return 0, false
	}
	return n, true
}

// TryAsStringMap decodes Value as a string-keyed map of strings (used for
// the MapPath/MapString argument shape).
func (a Arg) TryAsStringMap() (map[string]string, bool) {
	var m map[string]string
	if err := json.Unmarshal(a.Value, &m); err != nil {
		return nil, false
	}
	return m, true
}

// CommandNode is one Command AST node: module/command name, its input
// reference(s), and its argument map. Input is either a single node-id
// string (the common, linear-chain case) or an array of node-ids (fan-in
// to a Multiple value). This engine supports only the single-node-id
// chain form per the "commands form a linear chain" invariant; an array
// input is a build error (see Flatten).
type CommandNode struct {
	Module  string          `json:"module"`
	Command string          `json:"command"`
	Input   json.RawMessage `json:"input"`
	Args    map[string]Arg  `json:"args"`
	Kind    string          `json:"kind,omitempty"`
}

// InputRef returns the single node-id this command takes input from, or
// an error if Input names more than one upstream node.
func (c CommandNode) InputRef() (string, error) {
	var single string
	if err := json.Unmarshal(c.Input, &single); err == nil {
		return single, nil
	}
	var multi []string
	if err := json.Unmarshal(c.Input, &multi); err == nil {
		return "", fmt.Errorf("ast: multi-input fan-in (%v) is not supported; commands must form a linear chain", multi)
	}
	return "", fmt.Errorf("ast: command %q/%q has malformed input reference", c.Module, c.Command)
}

// Pipeline is one named pipeline's AST: its Entry, its Commands keyed by
// node-id, and the Output node naming the final command.
type Pipeline struct {
	Entry    Entry                  `json:"entry"`
	Output   Output                 `json:"output"`
	Commands map[string]CommandNode `json:"commands"`
}

// Definition is the top-level pipeline.json document: a named collection
// of Pipelines with one marked Default.
type Definition struct {
	Default   string              `json:"default"`
	Pipelines map[string]Pipeline `json:"pipelines"`
}

// Parse decodes a pipeline.json document.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("ast: malformed pipeline.json: %w", err)
	}
	if def.Default == "" {
		return nil, fmt.Errorf("ast: pipeline.json has no default pipeline")
	}
	if _, ok := def.Pipelines[def.Default]; !ok {
		return nil, fmt.Errorf("ast: default pipeline %q is not defined", def.Default)
	}
	return &def, nil
}

// Step is one flattened, leaf-to-root entry in a pipeline's execution
// chain: the node-id and its CommandNode.
type Step struct {
	NodeID string
	Node   CommandNode
}

// Flatten walks a Pipeline from its Output node back to Entry following
// each command's single input reference, then reverses the walk into
// execution order (Entry-adjacent command first, Output command last).
// It resolves Open Question 1 from SPEC_FULL.md §9: output.Ref must name
// the pipeline's own final command, i.e. the walk must terminate exactly
// at EntryNodeID with no unvisited branches.
func Flatten(p Pipeline) ([]Step, error) {
	if p.Output.Ref == "" {
		return nil, fmt.Errorf("ast: pipeline has no output.ref")
	}

	var steps []Step
	visited := map[string]bool{}
	cur := p.Output.Ref

	for {
		if cur == EntryNodeID {
			break
		}
		if visited[cur] {
			return nil, fmt.Errorf("ast: cyclic reference detected at node %q", cur)
		}
		visited[cur] = true

		node, ok := p.Commands[cur]
		if !ok {
			return nil, fmt.Errorf("ast: output.ref %q does not name the pipeline's final command (no such command node)", cur)
		}
		steps = append(steps, Step{NodeID: cur, Node: node})

		next, err := node.InputRef()
		if err != nil {
			return nil, err
		}
		cur = next
	}

	if len(visited) != len(p.Commands) {
		return nil, fmt.Errorf("ast: output.ref %q does not name the pipeline's final command (%d of %d commands reached)", p.Output.Ref, len(visited), len(p.Commands))
	}

	// steps is currently root-to-leaf (Output first); reverse to
	// leaf-to-root execution order.
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return steps, nil
}
