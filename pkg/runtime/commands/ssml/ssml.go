// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package ssml implements ssml::strip: extract plain text from an SSML
// document. Grounded on original_source's modules/ssml.rs (ssml_parser
// crate's get_text()); no SSML/XML-speech parser exists in the pack, so
// this walks the document with the standard library's encoding/xml
// decoder and concatenates character data, which is the whole of what
// get_text() does for the well-formed-XML subset of SSML divvun-runtime
// pipelines actually receive.
package ssml

import (
	"context"
	"encoding/xml"
	"strings"

	"github.com/divvun/divvun-runtime-go/pkg/runtime/ast"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/registry"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/runctx"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/value"
)

func init() {
	registry.Register(registry.CommandDef{
		Module:     "ssml",
		Name:       "strip",
		InputMask:  value.TypeString,
		ReturnMask: value.TypeString,
		New:        newStrip,
	})
}

type stripCmd struct{}

func newStrip(*runctx.Context, map[string]ast.Arg) (registry.Runner, error) {
	return &stripCmd{}, nil
}

func (c *stripCmd) Name() string { return "ssml::strip" }

func (c *stripCmd) Forward(_ context.Context, in value.Value, _ map[string]any) (value.Value, error) {
	s, err := in.TryAsString()
	if err != nil {
		return value.Value{}, err
	}

	return value.String(getText(s)), nil
}

func getText(doc string) string {
	dec := xml.NewDecoder(strings.NewReader(doc))
	var out strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		if cd, ok := tok.(xml.CharData); ok {
			out.Write(cd)
		}
	}
	return out.String()
}
