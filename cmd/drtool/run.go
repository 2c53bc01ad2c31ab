// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/divvun/divvun-runtime-go/internal/contract"
	"github.com/divvun/divvun-runtime-go/internal/output"
	"github.com/divvun/divvun-runtime-go/internal/rterrors"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/bundle"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/engine"
	"github.com/divvun/divvun-runtime-go/pkg/runtime/value"

	_ "github.com/divvun/divvun-runtime-go/pkg/runtime/commands/all"
)

// runRun executes the 'run' CLI command: open a bundle, build a named
// pipeline, feed it one input read from an argument or stdin, print the
// result.
func runRun(args []string, cfg *hostConfig, globals GlobalFlags) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	bundlePath := fs.StringP("bundle", "b", cfg.BundlePath, "Path to the bundle directory or archive")
	pipelineName := fs.StringP("pipeline", "P", "", "Named pipeline to build (defaults to the bundle's default)")
	configPairs := fs.StringArrayP("set", "s", nil, "Per-invocation config key=value, repeatable")
	locale := fs.String("locale", cfg.DefaultLocale, "Locale to thread into the invocation config as \"locales\"")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: drtool run [options] [input]

Build and run a pipeline against one input. Input is read from the
positional argument if given, otherwise from stdin.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *bundlePath == "" {
		rterrors.FatalError(rterrors.NewBuildError(
			"no bundle path given",
			"neither --bundle nor drtool.yaml's bundle_path is set",
			"pass --bundle <path> or set bundle_path in drtool.yaml",
			nil,
		), globals.JSON)
	}

	input, err := readInput(fs.Args())
	if err != nil {
		rterrors.FatalError(rterrors.NewInvocationError("cannot read input", err.Error(), "", err), globals.JSON)
	}
	if result := contract.ValidateInput(input); !result.OK {
		rterrors.FatalError(rterrors.NewInvocationError(
			result.Message,
			"set DRT_SOFT_LIMIT_BYTES to raise the limit",
			"split the input or raise DRT_SOFT_LIMIT_BYTES",
			nil,
		), globals.JSON)
	}

	config, err := parseConfigPairs(*configPairs)
	if err != nil {
		rterrors.FatalError(rterrors.NewBuildError("malformed --set value", err.Error(), "use key=value", err), globals.JSON)
	}
	if _, ok := config["locales"]; !ok && *locale != "" {
		config["locales"] = []any{*locale}
	}

	logLevel := cfg.LogLevel
	if globals.Verbose > 0 {
		logLevel = "debug"
	}
	logger := newLogger(logLevel)

	b, err := bundle.Open(*bundlePath)
	if err != nil {
		rterrors.FatalError(err, globals.JSON)
	}
	defer b.Close()

	pipe, err := b.Build(*pipelineName, logger)
	if err != nil {
		rterrors.FatalError(err, globals.JSON)
	}

	if globals.Verbose > 0 {
		pipe.SetTap(func(stepIndex int, cmdIdentity string, phase engine.TapPhase, _ value.Value) {
			logger.Debug("runtime.pipeline.tap",
				slog.Int("step", stepIndex),
				slog.String("command", cmdIdentity),
				slog.Int("phase", int(phase)),
			)
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := pipe.Forward(ctx, value.String(input), config)
	if err != nil {
		rterrors.FatalError(err, globals.JSON)
	}

	if err := printResult(result, globals.JSON); err != nil {
		rterrors.FatalError(rterrors.NewInternalError("cannot print result", err.Error(), "", err), globals.JSON)
	}
}

func readInput(positional []string) (string, error) {
	if len(positional) > 0 {
		return strings.Join(positional, " "), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// parseConfigPairs turns repeated "key=value" flags into the
// map[string]any config JSON/YAML form the pipeline engine expects.
// Every value is kept as a string; callers needing richer shapes (a
// locales array, an ignore list) pass them pre-built via config
// defaults instead.
func parseConfigPairs(pairs []string) (map[string]any, error) {
	config := map[string]any{}
	for _, p := range pairs {
		key, val, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("expected key=value, got %q", p)
		}
		config[key] = val
	}
	return config, nil
}

func printResult(v value.Value, jsonOutput bool) error {
	switch v.Kind() {
	case value.KindBytes:
		b, err := v.TryAsBytes()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(b)
		return err
	case value.KindJSON:
		decoded, err := v.TryAsJSON()
		if err != nil {
			return err
		}
		if jsonOutput {
			return output.JSONCompact(decoded)
		}
		return output.JSON(decoded)
	case value.KindArrayString:
		ss, err := v.TryAsArrayString()
		if err != nil {
			return err
		}
		if jsonOutput {
			return output.JSONCompact(ss)
		}
		for _, s := range ss {
			fmt.Println(s)
		}
		return nil
	default:
		s, err := v.TryAsString()
		if err != nil {
			return err
		}
		fmt.Println(s)
		return nil
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
