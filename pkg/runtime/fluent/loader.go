// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package fluent implements the suggest engine's localized message
// loader (§4.F/§6). It is grounded on the original runtime's
// FluentLoader (util/fluent_loader.rs): locale discovery by filename
// glob, partial-failure tolerance (an unparseable catalog is logged and
// skipped), and a locale → default-locale → any-loaded-bundle → id
// fallback chain when resolving a message.
//
// No Fluent (.ftl) parser exists anywhere in the retrieval pack, and
// fabricating a binding is out of bounds, so the on-disk catalog format
// is YAML (gopkg.in/yaml.v3, already a teacher dependency) rather than
// Fluent syntax. The catalog shape is structurally isomorphic to a
// Fluent message: an id, a title, a description with {$1}/€1
// substitution points, and optional refs/examples.
package fluent

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/divvun/divvun-runtime-go/pkg/runtime/asset"
)

// Message is one localized error-taxonomy entry.
type Message struct {
	ID       string   `yaml:"id"`
	Title    string   `yaml:"title"`
	Desc     string   `yaml:"desc"`
	Refs     []string `yaml:"refs,omitempty"`
	Examples []string `yaml:"examples,omitempty"`
}

// catalog is the on-disk shape of one errors-<lang>.yaml file.
type catalog struct {
	Messages []Message `yaml:"messages"`
}

// Loader resolves an error id plus a requested locale list to a
// (title, description) pair, tolerating missing or malformed catalogs.
type Loader struct {
	// bundles maps a language tag (e.g. "en", "se") to its messages
	// keyed by id.
	bundles       map[string]map[string]Message
	defaultLocale string
}

// NewLoader discovers and loads every asset matching "errors-*.yaml" in
// store, tagging each by the language code embedded in its filename. An
// unparseable catalog is logged via logger at Warn and skipped — loading
// continues rather than failing the whole pipeline build, per §4.F's
// construction contract. defaultLocale names the fallback bundle used
// when none of the requested locales match.
func NewLoader(store asset.Store, defaultLocale string, logger *slog.Logger) (*Loader, error) {
	if logger == nil {
		logger = slog.Default()
	}

	names, err := store.Glob("errors-*.yaml")
	if err != nil {
		return nil, fmt.Errorf("fluent: glob errors-*.yaml: %w", err)
	}

	l := &Loader{bundles: map[string]map[string]Message{}, defaultLocale: defaultLocale}

	for _, name := range names {
		lang, ok := languageFromFilename(name)
		if !ok {
			logger.Warn("runtime.fluent.skip", slog.String("asset", name), slog.String("reason", "filename does not match errors-<lang>.yaml"))
			continue
		}

		r, err := store.Open(name)
		if err != nil {
			logger.Warn("runtime.fluent.skip", slog.String("asset", name), slog.String("reason", err.Error()))
			continue
		}
		msgs, err := parseCatalog(r)
		r.Close()
		if err != nil {
			logger.Warn("runtime.fluent.skip", slog.String("asset", name), slog.String("reason", err.Error()))
			continue
		}

		byID := make(map[string]Message, len(msgs))
		for _, m := range msgs {
			byID[m.ID] = m
		}
		l.bundles[lang] = byID
	}

	return l, nil
}

func parseCatalog(r io.Reader) ([]Message, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var c catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return c.Messages, nil
}

func languageFromFilename(name string) (string, bool) {
	base := name
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[idx+1:]
	}
	const prefix, suffix = "errors-", ".yaml"
	if !strings.HasPrefix(base, prefix) || !strings.HasSuffix(base, suffix) {
		return "", false
	}
	return base[len(prefix) : len(base)-len(suffix)], true
}

// Message resolves id against the requested locales in order, falling
// back to the default locale, then to any loaded bundle, then to the id
// itself (as both title and description) when no loaded bundle has it. rep is substituted for {$1}/€1
// substitution points in the description.
func (l *Loader) Message(id string, locales []string, form string, rep string) (title, desc string) {
	for _, loc := range locales {
		if bundle, ok := l.bundles[loc]; ok {
			if m, ok := bundle[id]; ok {
				return m.Title, substitute(m.Desc, form, rep)
			}
		}
	}

	if bundle, ok := l.bundles[l.defaultLocale]; ok {
		if m, ok := bundle[id]; ok {
			return m.Title, substitute(m.Desc, form, rep)
		}
	}

	for _, bundle := range l.bundles {
		if m, ok := bundle[id]; ok {
			return m.Title, substitute(m.Desc, form, rep)
		}
	}

	return id, id
}

// substitute replaces {$1} with the cohort's original form and €1 with
// its first replacement string, per §4.F step 5.
func substitute(desc, form, rep string) string {
	desc = strings.ReplaceAll(desc, "{$1}", form)
	desc = strings.ReplaceAll(desc, "€1", rep)
	return desc
}
