// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package shellout is a small helper shared by the command packages that
// pipe a cohort stream through an external analysis binary
// (hfst-tokenize, cg-mwesplit, vislcg3), grounded on the original
// runtime's tokio::process::Command stdin-write/stdout-collect pattern
// used identically across modules/hfst.rs and modules/cg3.rs.
package shellout

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Run executes name with args, writes input to its stdin, and returns its
// stdout as a string. A non-zero exit or launch failure is wrapped with
// the captured stderr for diagnostics.
func Run(ctx context.Context, name string, args []string, input string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader([]byte(input))

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("shellout: %s: %w (stderr: %s)", name, err, stderr.String())
	}
	return string(out), nil
}
