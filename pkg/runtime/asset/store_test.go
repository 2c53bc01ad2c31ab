// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

package asset

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBundleDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pipeline.json"), []byte(`{}`), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "models"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "models", "analyzer.hfstol"), []byte("fst-data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "errors-en.ftl"), []byte("typo = Typo"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "errors-se.ftl"), []byte("typo = Čállinmeattáhus"), 0o644))
	return dir
}

func TestDirStore_OpenAndGlob(t *testing.T) {
	dir := writeBundleDir(t)
	store, err := NewDirStore(dir)
	require.NoError(t, err)
	defer store.Close()

	r, err := store.Open("pipeline.json")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	names, err := store.Glob("errors-*.ftl")
	require.NoError(t, err)
	assert.Equal(t, []string{"errors-en.ftl", "errors-se.ftl"}, names)
}

func TestDirStore_ExtractToTemp_IsIdempotent(t *testing.T) {
	dir := writeBundleDir(t)
	store, err := NewDirStore(dir)
	require.NoError(t, err)
	defer store.Close()

	p1, err := store.ExtractToTemp("models/analyzer.hfstol")
	require.NoError(t, err)
	p2, err := store.ExtractToTemp("models/analyzer.hfstol")
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}

func TestDirStore_OpenMissingAsset(t *testing.T) {
	dir := writeBundleDir(t)
	store, err := NewDirStore(dir)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Open("missing.txt")
	assert.Error(t, err)
}

func writeBundleZip(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "bundle.drb")

	f, err := os.Create(archivePath)
	require.NoError(t, err)
	zw := zip.NewWriter(f)

	w, err := zw.Create("pipeline.json")
	require.NoError(t, err)
	_, err = w.Write([]byte(`{}`))
	require.NoError(t, err)

	w, err = zw.Create("models/analyzer.hfstol")
	require.NoError(t, err)
	_, err = w.Write([]byte("fst-data"))
	require.NoError(t, err)

	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return archivePath
}

func TestZipStore_OpenAndExtractToTemp(t *testing.T) {
	archivePath := writeBundleZip(t)
	store, err := NewZipStore(archivePath)
	require.NoError(t, err)
	defer store.Close()

	r, err := store.Open("pipeline.json")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	p, err := store.ExtractToTemp("models/analyzer.hfstol")
	require.NoError(t, err)
	extracted, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "fst-data", string(extracted))
}

func TestOpen_DispatchesOnDirVsFile(t *testing.T) {
	dir := writeBundleDir(t)
	s, err := Open(dir)
	require.NoError(t, err)
	_, ok := s.(*DirStore)
	assert.True(t, ok)
	s.Close()

	archivePath := writeBundleZip(t)
	s, err = Open(archivePath)
	require.NoError(t, err)
	_, ok = s.(*ZipStore)
	assert.True(t, ok)
	s.Close()
}
