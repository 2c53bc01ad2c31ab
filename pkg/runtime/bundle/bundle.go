// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package bundle implements the distribution-unit lifecycle (§3/§6): a
// directory or zip archive carrying pipeline.json plus its referenced
// model assets. It is grounded on the original runtime's Bundle type
// (bundle.rs): from_bundle/from_path open the backing store and load the
// pipeline definition once; create/create_with_tap then realize a named
// pipeline as a runnable Pipeline instance, optionally observed by a tap.
package bundle

import (
	"fmt"
	"log/slog"

	"github.com/divvun/divvun-runtime-go/internal/rterrors"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/asset"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/ast"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/engine"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/runctx"
)

const pipelineManifest = "pipeline.json"

// Bundle is an opened distribution unit: its backing asset store plus the
// pipeline.json document it carries, ready to build named pipelines
// against.
type Bundle struct {
	store      asset.Store
	definition *ast.Definition
	name       string
}

// Open loads a bundle from path, which may be a directory or a zip
// archive (asset.Open dispatches on which). It reads and parses
// pipeline.json immediately, so a malformed manifest fails at Open
// rather than at first Build.
func Open(path string) (*Bundle, error) {
	store, err := asset.Open(path)
	if err != nil {
		return nil, rterrors.NewAssetError(
			fmt.Sprintf("cannot open bundle %q", path),
			err.Error(),
			"check the bundle path exists and is a directory or zip archive",
			err,
		)
	}

	def, err := loadDefinition(store)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &Bundle{store: store, definition: def, name: path}, nil
}

func loadDefinition(store asset.Store) (*ast.Definition, error) {
	r, err := store.Open(pipelineManifest)
	if err != nil {
		return nil, rterrors.NewAssetError(
			"cannot open pipeline.json",
			err.Error(),
			"every bundle must carry a pipeline.json manifest at its root",
			err,
		)
	}
	defer r.Close()

	var buf []byte
	chunk := make([]byte, 32*1024)
	for {
		n, err := r.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if err != nil {
			break
		}
	}

	def, err := ast.Parse(buf)
	if err != nil {
		return nil, rterrors.NewBuildError(
			"malformed pipeline.json",
			err.Error(),
			"validate pipeline.json against the pipeline schema",
			err,
		)
	}
	return def, nil
}

// Definition returns the bundle's parsed pipeline.json document.
func (b *Bundle) Definition() *ast.Definition { return b.definition }

// Build realizes name (or the manifest's default, when name == "") as a
// runnable Pipeline instance. Each call constructs a fresh Pipeline
// sharing this bundle's asset store; the caller may install a tap via
// the returned Pipeline's SetTap before the first Forward.
func (b *Bundle) Build(name string, logger *slog.Logger) (*engine.Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx := &runctx.Context{Store: b.store, PipelineName: name}
	return engine.Build(ctx, b.definition, name, logger)
}

// Close releases the bundle's backing store (temp-directory cleanup for
// a zip-backed bundle; a no-op for a plain directory).
func (b *Bundle) Close() error {
	return b.store.Close()
}
