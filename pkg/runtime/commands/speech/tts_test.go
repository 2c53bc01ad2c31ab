// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

package speech

import (
	"bytes"
	"context"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divvun/divvun-runtime-go/pkg/runtime/value"
)

func TestTTS_ProducesWAVSizedToRuneCount(t *testing.T) {
	c := &ttsCmd{modelPath: "unused"}

	out, err := c.Forward(context.Background(), value.String("hello"), nil)
	require.NoError(t, err)
	data, err := out.TryAsBytes()
	require.NoError(t, err)

	dec := wav.NewDecoder(bytes.NewReader(data))
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	assert.True(t, dec.IsValidFile())
	assert.Equal(t, 5*ttsSamplesPerRune, len(buf.Data))
	for _, sample := range buf.Data {
		assert.Equal(t, 0, sample)
	}
}

func TestTTS_EmptyInputYieldsMinimalBuffer(t *testing.T) {
	c := &ttsCmd{modelPath: "unused"}

	out, err := c.Forward(context.Background(), value.String(""), nil)
	require.NoError(t, err)
	data, err := out.TryAsBytes()
	require.NoError(t, err)

	dec := wav.NewDecoder(bytes.NewReader(data))
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	assert.Equal(t, ttsSamplesPerRune, len(buf.Data))
}
