// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

package speech

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/divvun/divvun-runtime-go/pkg/runtime/ast"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/registry"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/runctx"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/value"
)

const (
	ttsSampleRate    = 22050
	ttsSamplesPerRune = 400 // a deterministic, acoustically meaningless "duration"
)

func init() {
	registry.Register(registry.CommandDef{
		Module:     "speech",
		Name:       "tts",
		InputMask:  value.TypeString | value.TypeArrayString,
		ReturnMask: value.TypeBytes,
		Args:       []registry.ArgSpec{{Name: "model_path", Type: "Path"}},
		AssetDeps:  []registry.AssetDep{{Kind: registry.Required, Name: "model_path"}},
		New:        newTTS,
	})
}

// ttsCmd is a disclosed-scope stand-in for neural acoustic synthesis
// (§4.G): no vocoder of any kind exists in the retrieval pack, so forward
// emits a valid, deterministic, silent-PCM WAV container sized to the
// input's rune count rather than performing synthesis.
type ttsCmd struct {
	modelPath string
}

func newTTS(ctx *runctx.Context, args map[string]ast.Arg) (registry.Runner, error) {
	path, err := extractPath(ctx, args, "model_path", "speech::tts")
	if err != nil {
		return nil, err
	}
	return &ttsCmd{modelPath: path}, nil
}

func (c *ttsCmd) Name() string { return "speech::tts" }

func (c *ttsCmd) Forward(_ context.Context, in value.Value, _ map[string]any) (value.Value, error) {
	var runeCount int
	switch in.Kind() {
	case value.KindString:
		s, _ := in.TryAsString()
		runeCount += len([]rune(s))
	case value.KindArrayString:
		ss, err := in.TryAsArrayString()
		if err != nil {
			return value.Value{}, err
		}
		for _, s := range ss {
			runeCount += len([]rune(s))
		}
	default:
		return value.Value{}, fmt.Errorf("speech::tts: unsupported input kind")
	}

	data, err := synthesizeSilence(runeCount)
	if err != nil {
		return value.Value{}, fmt.Errorf("speech::tts: %w", err)
	}
	return value.Bytes(data), nil
}

func synthesizeSilence(runeCount int) ([]byte, error) {
	numSamples := runeCount * ttsSamplesPerRune
	if numSamples == 0 {
		numSamples = ttsSamplesPerRune
	}

	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: ttsSampleRate},
		Data:   make([]int, numSamples),
		SourceBitDepth: 16,
	}

	var out bytes.Buffer
	enc := wav.NewEncoder(&out, ttsSampleRate, 16, 1, 1)
	if err := enc.Write(buf); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
