// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

// Command drtool is a thin host front door over the pipeline execution
// runtime: it opens a bundle, builds a named pipeline, feeds it one
// input, and prints the result.
//
// Usage:
//
//	drtool run --bundle <path> [--pipeline name] [input]
//	drtool inspect --bundle <path>
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
)

// GlobalFlags holds flags accepted before the subcommand name and
// threaded through every subcommand's run function.
type GlobalFlags struct {
	JSON    bool
	Quiet   bool
	NoColor bool
	Verbose int
}

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	fs := flag.NewFlagSet("drtool", flag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true

	var globals GlobalFlags
	var configPath string
	var showVersion bool
	fs.BoolVar(&globals.JSON, "json", false, "Emit machine-readable JSON output")
	fs.BoolVar(&globals.Quiet, "quiet", false, "Suppress non-essential output")
	fs.BoolVar(&globals.NoColor, "no-color", false, "Disable colorized output")
	fs.CountVarP(&globals.Verbose, "verbose", "v", "Increase log verbosity (repeatable)")
	fs.StringVarP(&configPath, "config", "c", "drtool.yaml", "Path to host config file")
	fs.BoolVar(&showVersion, "version", false, "Show version and exit")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `drtool - pipeline execution runtime host

Usage:
  drtool [global options] <command> [options]

Commands:
  run       Build a pipeline from a bundle and feed it one input
  inspect   List a bundle's pipelines and their declared entry types

Global Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	InitColors(globals.NoColor)

	if showVersion {
		fmt.Printf("drtool version %s (commit %s)\n", version, commit)
		os.Exit(0)
	}

	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := loadHostConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "run":
		runRun(cmdArgs, cfg, globals)
	case "inspect":
		runInspect(cmdArgs, cfg, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		fs.Usage()
		os.Exit(1)
	}
}
