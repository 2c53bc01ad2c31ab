// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadHostConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := loadHostConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "en", cfg.DefaultLocale)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.BundlePath)
}

func TestLoadHostConfig_ParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "drtool.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bundle_path: /tmp/my.drb\ndefault_locale: fr\nlog_level: debug\n"), 0o644))

	cfg, err := loadHostConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/my.drb", cfg.BundlePath)
	assert.Equal(t, "fr", cfg.DefaultLocale)
	assert.Equal(t, "debug", cfg.LogLevel)
}
