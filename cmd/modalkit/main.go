// Package main is a terminal demo host for the modalkit engine. It
// opens a document in an in-memory editor, binds keystrokes through a
// JSON bindings file, and live-reloads the bindings on change.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	app, err := newApp(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer app.Shutdown()

	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// options holds the parsed command line.
type options struct {
	SettingsPath string
	BindingsPath string
	File         string
}

func parseFlags() options {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.SettingsPath, "config", "modalkit.toml", "Path to TOML settings file")
	flag.StringVar(&opts.SettingsPath, "c", "modalkit.toml", "Path to TOML settings file (shorthand)")
	flag.StringVar(&opts.BindingsPath, "bindings", "", "Path to JSON bindings file (overrides settings)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Modalkit - modal keybinding engine demo\n\n")
		fmt.Fprintf(os.Stderr, "Usage: modalkit [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nKeys: bound per the bindings file; Esc cancels, Ctrl+Q quits.\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("Modalkit %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		os.Exit(0)
	}

	if args := flag.Args(); len(args) > 0 {
		abs, err := filepath.Abs(args[0])
		if err == nil {
			opts.File = abs
		} else {
			opts.File = args[0]
		}
	}

	return opts
}
