// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package all blank-imports every command package so that a single
// import of this package registers the complete command catalogue
// (§4.D). cmd/drtool imports only this package, never the individual
// command packages, to keep the registry population centralized.
package all

import (
	_ "github.com/divvun/divvun-runtime-go/pkg/runtime/commands/cg3"
	_ "github.com/divvun/divvun-runtime-go/pkg/runtime/commands/divvun"
	_ "github.com/divvun/divvun-runtime-go/pkg/runtime/commands/example"
	_ "github.com/divvun/divvun-runtime-go/pkg/runtime/commands/hfst"
	_ "github.com/divvun/divvun-runtime-go/pkg/runtime/commands/jq"
	_ "github.com/divvun/divvun-runtime-go/pkg/runtime/commands/spell"
	_ "github.com/divvun/divvun-runtime-go/pkg/runtime/commands/speech"
	_ "github.com/divvun/divvun-runtime-go/pkg/runtime/commands/ssml"
)
