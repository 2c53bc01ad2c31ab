// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package jq implements jq::jq: a JSON query stage configured with a
// filter expression. Grounded on original_source's modules/jq.rs, which
// wraps the jaq crate (a Rust jq implementation); no jq-language
// evaluator of any kind exists in the retrieval pack or is fetchable
// without fabricating a binding, so this implements the dotted-path
// subset of jq actually exercised by divvun-runtime pipelines (".",
// ".field", ".a.b.c", ".arr[0]", ".arr[]") directly against
// encoding/json-decoded values — documented in the grounding ledger as a
// stdlib-only component.
package jq

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/divvun/divvun-runtime-go/pkg/runtime/ast"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/registry"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/runctx"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/value"
)

func init() {
	registry.Register(registry.CommandDef{
		Module:     "jq",
		Name:       "jq",
		InputMask:  value.TypeJSON,
		ReturnMask: value.TypeJSON,
		Args:       []registry.ArgSpec{{Name: "filter", Type: "String"}},
		New:        newJq,
	})
}

type jqCmd struct {
	segments []segment
}

type segment struct {
	field   string // non-empty for ".field"
	index   int    // valid when isIndex
	isIndex bool
	isIter  bool // "[]": iterate every element, flattening results
}

func newJq(_ *runctx.Context, args map[string]ast.Arg) (registry.Runner, error) {
	arg, ok := args["filter"]
	if !ok {
		return nil, fmt.Errorf("jq::jq: missing required argument %q", "filter")
	}
	filter, ok := arg.TryAsString()
	if !ok {
		return nil, fmt.Errorf("jq::jq: filter argument is not a string")
	}

	segs, err := parseFilter(filter)
	if err != nil {
		return nil, fmt.Errorf("jq::jq: %w", err)
	}
	return &jqCmd{segments: segs}, nil
}

func parseFilter(filter string) ([]segment, error) {
	filter = strings.TrimSpace(filter)
	if filter == "." || filter == "" {
		return nil, nil
	}
	if !strings.HasPrefix(filter, ".") {
		return nil, fmt.Errorf("unsupported filter %q: must start with \".\"", filter)
	}

	var segs []segment
	for _, part := range strings.Split(filter[1:], ".") {
		if part == "" {
			continue
		}
		for {
			open := strings.IndexByte(part, '[')
			if open < 0 {
				if part != "" {
					segs = append(segs, segment{field: part})
				}
				break
			}
			if open > 0 {
				segs = append(segs, segment{field: part[:open]})
			}
			close := strings.IndexByte(part[open:], ']')
			if close < 0 {
				return nil, fmt.Errorf("unsupported filter %q: unterminated \"[\"", filter)
			}
			inner := part[open+1 : open+close]
			if inner == "" {
				segs = append(segs, segment{isIter: true})
			} else {
				n, err := strconv.Atoi(inner)
				if err != nil {
					return nil, fmt.Errorf("unsupported filter %q: index %q is not an integer", filter, inner)
				}
				segs = append(segs, segment{isIndex: true, index: n})
			}
			part = part[open+close+1:]
		}
	}
	return segs, nil
}

func (c *jqCmd) Name() string { return "jq::jq" }

func (c *jqCmd) Forward(_ context.Context, in value.Value, _ map[string]any) (value.Value, error) {
	doc, err := in.TryAsJSON()
	if err != nil {
		return value.Value{}, err
	}

	results := []any{doc}
	for _, seg := range c.segments {
		var next []any
		for _, v := range results {
			out, err := applySegment(seg, v)
			if err != nil {
				return value.Value{}, fmt.Errorf("jq::jq: %w", err)
			}
			next = append(next, out...)
		}
		results = next
	}

	switch len(results) {
	case 0:
		return value.JSON(nil), nil
	case 1:
		return value.JSON(results[0]), nil
	default:
		return value.JSON(results), nil
	}
}

func applySegment(seg segment, v any) ([]any, error) {
	switch {
	case seg.field != "":
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("cannot index %T with field %q", v, seg.field)
		}
		return []any{m[seg.field]}, nil
	case seg.isIndex:
		arr, ok := v.([]any)
		if !ok || seg.index < 0 || seg.index >= len(arr) {
			return []any{nil}, nil
		}
		return []any{arr[seg.index]}, nil
	case seg.isIter:
		arr, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("cannot iterate over %T", v)
		}
		return arr, nil
	default:
		return []any{v}, nil
	}
}
