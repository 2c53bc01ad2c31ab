// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// hostConfig is drtool's own configuration, distinct from a pipeline's
// per-invocation config map: which bundle to open by default, the
// default locale for suggest-engine output, and the log level, loaded
// from a drtool.yaml next to the teacher's own .cie/project.yaml
// convention.
type hostConfig struct {
	BundlePath    string `yaml:"bundle_path"`
	DefaultLocale string `yaml:"default_locale"`
	LogLevel      string `yaml:"log_level"`
}

// loadHostConfig reads path as YAML. A missing file is not an error:
// drtool then runs with the built-in defaults (default_locale "en",
// log_level "info", no bundle_path). bundle_path and default_locale seed
// the subcommands' --bundle and --locale flags; log_level has no flag.
func loadHostConfig(path string) (*hostConfig, error) {
	cfg := &hostConfig{DefaultLocale: "en", LogLevel: "info"}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read host config %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse host config %q: %w", path, err)
	}
	return cfg, nil
}
