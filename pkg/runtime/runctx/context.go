// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package runctx carries the handle every command constructor receives:
// the bundle's asset store plus the name of the pipeline being built.
// It mirrors the role of the original runtime's Arc<Context> argument
// threaded through every `*::new` constructor.
package runctx

import "github.com/divvun/divvun-runtime-go/pkg/runtime/asset"

// Context is handed to every command constructor at build time.
type Context struct {
	// Store is the bundle's asset store.
	Store asset.Store

	// PipelineName is the name of the pipeline currently being built,
	// useful for log/tap attribution.
	PipelineName string
}

// ExtractToTemp resolves name to an on-disk path via the bundle's asset
// store, for constructors whose underlying library needs to mmap a file
// rather than read a stream.
func (c *Context) ExtractToTemp(name string) (string, error) {
	return c.Store.ExtractToTemp(name)
}
