// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"fmt"
	"os"
	"sort"

	flag "github.com/spf13/pflag"

	"github.com/divvun/divvun-runtime-go/internal/output"
	"github.com/divvun/divvun-runtime-go/internal/rterrors"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/bundle"
)

// pipelineInfo is inspect's per-pipeline JSON shape.
type pipelineInfo struct {
	Name      string `json:"name"`
	Default   bool   `json:"default"`
	ValueType string `json:"entry_value_type"`
	OutputRef string `json:"output_ref"`
}

// runInspect executes the 'inspect' CLI command: open a bundle and list
// its named pipelines with their declared entry type and output node,
// without building or running any of them.
func runInspect(args []string, cfg *hostConfig, globals GlobalFlags) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	bundlePath := fs.StringP("bundle", "b", cfg.BundlePath, "Path to the bundle directory or archive")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: drtool inspect [options]

List a bundle's named pipelines and their declared entry/output shape.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *bundlePath == "" {
		rterrors.FatalError(rterrors.NewBuildError(
			"no bundle path given",
			"neither --bundle nor drtool.yaml's bundle_path is set",
			"pass --bundle <path> or set bundle_path in drtool.yaml",
			nil,
		), globals.JSON)
	}

	b, err := bundle.Open(*bundlePath)
	if err != nil {
		rterrors.FatalError(err, globals.JSON)
	}
	defer b.Close()

	def := b.Definition()
	names := make([]string, 0, len(def.Pipelines))
	for name := range def.Pipelines {
		names = append(names, name)
	}
	sort.Strings(names)

	infos := make([]pipelineInfo, 0, len(names))
	for _, name := range names {
		p := def.Pipelines[name]
		infos = append(infos, pipelineInfo{
			Name:      name,
			Default:   name == def.Default,
			ValueType: p.Entry.ValueType,
			OutputRef: p.Output.Ref,
		})
	}

	if globals.JSON {
		if err := output.JSON(infos); err != nil {
			rterrors.FatalError(rterrors.NewInternalError("cannot print result", err.Error(), "", err), globals.JSON)
		}
		return
	}

	if !globals.Quiet {
		Header(fmt.Sprintf("Pipelines in %s", *bundlePath))
	}
	for _, info := range infos {
		marker := "  "
		if info.Default {
			marker = "* "
		}
		fmt.Printf("%s%s\t%s\n", marker, info.Name, DimText(fmt.Sprintf("(%s) -> %s", info.ValueType, info.OutputRef)))
	}
	if !globals.Quiet {
		Success(fmt.Sprintf("%d pipeline(s) found", len(infos)))
	}
}
