// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package contract holds small invocation-shape guards for the CLI front
// door: a soft limit on how much text a single drtool run call accepts,
// adjustable via environment variable for hosts with tighter memory
// budgets. The pipeline engine itself does not apply this limit.
package contract
