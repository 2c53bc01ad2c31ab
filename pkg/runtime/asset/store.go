// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package asset implements the asset store (§4.A): lazy extraction of
// files by logical name, regardless of whether the bundle is a directory
// or a packed archive. The store hands out readers and on-disk paths; it
// does not memory-map anything itself.
package asset

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/divvun/divvun-runtime-go/internal/rterrors"
)

// Store exposes the three asset-store operations named in §4.A. Asset
// names are relative POSIX paths; implementations normalize separators.
type Store interface {
	// Open returns a reader over the named asset's bytes.
	Open(name string) (io.ReadCloser, error)
	// ExtractToTemp materializes the named asset at an OS path, for
	// consumers that need to mmap it (e.g. FST loaders). Repeated calls
	// for the same name within one process return the same path.
	ExtractToTemp(name string) (string, error)
	// Glob returns the names of assets matching a shell-style pattern
	// (e.g. "errors-*.ftl"), in sorted order.
	Glob(pattern string) ([]string, error)
	// Close releases any temp directories the store has materialized.
	Close() error
}

// DirStore is a Store backed by a plain directory tree.
type DirStore struct {
	root string

	mu        sync.Mutex
	extracted map[string]string
}

// NewDirStore opens a directory-backed asset store rooted at dir.
func NewDirStore(dir string) (*DirStore, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, rterrors.NewAssetError(
			"cannot open bundle directory",
			err.Error(),
			"check that the bundle path exists and is readable",
			err,
		)
	}
	if !info.IsDir() {
		return nil, rterrors.NewAssetError(
			"bundle path is not a directory",
			dir+" is a file, not a directory",
			"pass a directory bundle or use the packed-archive loader",
			nil,
		)
	}
	return &DirStore{root: dir, extracted: map[string]string{}}, nil
}

func normalizeName(name string) string {
	return path.Clean(filepath.ToSlash(name))
}

func (s *DirStore) Open(name string) (io.ReadCloser, error) {
	name = normalizeName(name)
	f, err := os.Open(filepath.Join(s.root, filepath.FromSlash(name)))
	if err != nil {
		return nil, rterrors.NewAssetError(
			fmt.Sprintf("cannot open asset %q", name),
			err.Error(),
			"check the bundle's pipeline.json for the correct asset name",
			err,
		)
	}
	return f, nil
}

// ExtractToTemp for a directory-backed store is just the asset's path
// joined onto the store's root (absolute only when the root directory was
// given as an absolute path); no materialization is necessary, but the result is
// still cached so repeated extraction calls are idempotent like the
// archive-backed implementation.
func (s *DirStore) ExtractToTemp(name string) (string, error) {
	name = normalizeName(name)

	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.extracted[name]; ok {
		return p, nil
	}

	full := filepath.Join(s.root, filepath.FromSlash(name))
	if _, err := os.Stat(full); err != nil {
		return "", rterrors.NewAssetError(
			fmt.Sprintf("cannot extract asset %q", name),
			err.Error(),
			"check the bundle's pipeline.json for the correct asset name",
			err,
		)
	}
	s.extracted[name] = full
	return full, nil
}

func (s *DirStore) Glob(pattern string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		ok, err := path.Match(pattern, path.Base(rel))
		if err != nil {
			return err
		}
		if ok {
			names = append(names, rel)
		}
		return nil
	})
	if err != nil {
		return nil, rterrors.NewAssetError(
			fmt.Sprintf("glob %q failed", pattern),
			err.Error(),
			"check the bundle directory is readable",
			err,
		)
	}
	sort.Strings(names)
	return names, nil
}

func (s *DirStore) Close() error { return nil }

// ZipStore is a Store backed by a packed archive (a single file presenting
// the bundle's logical directory tree as a zip). Opening streams directly
// from the archive's offset table; ExtractToTemp materializes a file into
// a process-owned temp directory the first time it's requested.
type ZipStore struct {
	reader *zip.ReadCloser

	mu        sync.Mutex
	tempDir   string
	extracted map[string]string
}

// NewZipStore opens a packed-archive bundle.
func NewZipStore(archivePath string) (*ZipStore, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, rterrors.NewAssetError(
			"cannot open packed bundle",
			err.Error(),
			"check that the bundle archive is not corrupted",
			err,
		)
	}
	return &ZipStore{reader: r, extracted: map[string]string{}}, nil
}

func (s *ZipStore) find(name string) (*zip.File, error) {
	name = normalizeName(name)
	for _, f := range s.reader.File {
		if normalizeName(f.Name) == name {
			return f, nil
		}
	}
	return nil, rterrors.NewAssetError(
		fmt.Sprintf("cannot find asset %q", name),
		"no matching entry in packed bundle",
		"check the bundle's pipeline.json for the correct asset name",
		fs.ErrNotExist,
	)
}

func (s *ZipStore) Open(name string) (io.ReadCloser, error) {
	f, err := s.find(name)
	if err != nil {
		return nil, err
	}
	return f.Open()
}

func (s *ZipStore) ExtractToTemp(name string) (string, error) {
	norm := normalizeName(name)

	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.extracted[norm]; ok {
		return p, nil
	}

	if s.tempDir == "" {
		dir, err := os.MkdirTemp("", "divvun-runtime-bundle-*")
		if err != nil {
			return "", rterrors.NewAssetError(
				"cannot create temp directory for packed bundle assets",
				err.Error(),
				"check TMPDIR has free space and is writable",
				err,
			)
		}
		s.tempDir = dir
	}

	zf, err := s.find(norm)
	if err != nil {
		return "", err
	}

	destPath := filepath.Join(s.tempDir, filepath.FromSlash(norm))
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", rterrors.NewAssetError("cannot extract asset", err.Error(), "", err)
	}

	src, err := zf.Open()
	if err != nil {
		return "", rterrors.NewAssetError("cannot extract asset", err.Error(), "", err)
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return "", rterrors.NewAssetError("cannot extract asset", err.Error(), "", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", rterrors.NewAssetError("cannot extract asset", err.Error(), "", err)
	}

	s.extracted[norm] = destPath
	return destPath, nil
}

func (s *ZipStore) Glob(pattern string) ([]string, error) {
	var names []string
	for _, f := range s.reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := normalizeName(f.Name)
		ok, err := path.Match(pattern, path.Base(name))
		if err != nil {
			return nil, err
		}
		if ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *ZipStore) Close() error {
	s.mu.Lock()
	tempDir := s.tempDir
	s.mu.Unlock()

	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}
	return s.reader.Close()
}

// Open opens the bundle at path as a Store, choosing DirStore or ZipStore
// based on whether path is a directory.
func Open(path string) (Store, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, rterrors.NewAssetError(
			"cannot open bundle",
			err.Error(),
			"check that the bundle path exists",
			err,
		)
	}
	if info.IsDir() {
		return NewDirStore(path)
	}
	return NewZipStore(path)
}
