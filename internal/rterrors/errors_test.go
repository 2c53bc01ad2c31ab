// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

package rterrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuntimeError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *RuntimeError
		want string
	}{
		{
			name: "with underlying error",
			err:  &RuntimeError{Message: "build failed", Err: fmt.Errorf("unknown command")},
			want: "build failed: unknown command",
		},
		{
			name: "without underlying error",
			err:  &RuntimeError{Message: "invalid input"},
			want: "invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestRuntimeError_Unwrap(t *testing.T) {
	underlying := fmt.Errorf("missing asset")
	err := NewAssetError("cannot extract model", "file not found", "check bundle contents", underlying)

	assert.Same(t, underlying, errors.Unwrap(err))
	assert.True(t, errors.Is(err, underlying))
}

func TestKind_ExitCode(t *testing.T) {
	assert.Equal(t, 1, KindBuild.ExitCode())
	assert.Equal(t, 2, KindAsset.ExitCode())
	assert.Equal(t, 4, KindInvocation.ExitCode())
	assert.Equal(t, 0, KindStream.ExitCode())
	assert.Equal(t, 10, KindInternal.ExitCode())
}

func TestRuntimeError_ToJSON(t *testing.T) {
	err := NewBuildError("unknown command", "no registry entry", "check pipeline.json", nil)
	j := err.ToJSON()

	require.Equal(t, "unknown command", j.Error)
	assert.Equal(t, "no registry entry", j.Cause)
	assert.Equal(t, "check pipeline.json", j.Fix)
	assert.Equal(t, "build", j.Kind)
	assert.Equal(t, 1, j.ExitCode)
}

func TestRuntimeError_Format_OmitsEmptyFields(t *testing.T) {
	err := NewStreamWarning("malformed CG line", "")
	out := err.Format(true)

	assert.Contains(t, out, "Error: malformed CG line")
	assert.NotContains(t, out, "Cause:")
	assert.NotContains(t, out, "Fix:")
}

func TestErrCancelled_IsDistinctFromRuntimeError(t *testing.T) {
	var re *RuntimeError
	assert.False(t, errors.As(ErrCancelled, &re))
}
