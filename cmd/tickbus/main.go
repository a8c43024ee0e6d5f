// Package main is the entry point for tickbus.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dshills/tickbus/internal/app"
	"github.com/dshills/tickbus/internal/logging"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts, ok, err := parseFlags(os.Args[1:])
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	if !ok {
		return 0
	}

	application, err := app.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, app.ErrServiceFailed) {
			return 2
		}
		return 1
	}

	return 0
}

// scriptList collects repeated -script flags.
type scriptList []string

func (s *scriptList) String() string { return strings.Join(*s, ",") }

func (s *scriptList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// parseFlags returns the options, or false when the process should exit
// after printing help or version information.
func parseFlags(args []string) (app.Options, bool, error) {
	var opts app.Options
	var scripts scriptList
	var showVersion bool
	var showHelp bool

	fs := flag.NewFlagSet("tickbus", flag.ContinueOnError)
	fs.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file (.toml or .yaml)")
	fs.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	fs.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config file")
	fs.Var(&scripts, "script", "Lua script to load (repeatable)")
	fs.BoolVar(&opts.Demo, "demo", false, "Run demo producers that fire update events")
	fs.DurationVar(&opts.DemoInterval, "demo-interval", app.DefaultDemoInterval, "Pause between demo events")
	fs.BoolVar(&showVersion, "version", false, "Show version information")
	fs.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	fs.BoolVar(&showHelp, "help", false, "Show help message")
	fs.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "tickbus - tick-driven event bus host\n\n")
		fmt.Fprintf(out, "Usage: tickbus [options] [scripts...]\n\n")
		fmt.Fprintf(out, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nExamples:\n")
		fmt.Fprintf(out, "  tickbus -demo                      Run the update demo\n")
		fmt.Fprintf(out, "  tickbus -c tickbus.toml            Run with a config file, reloaded on change\n")
		fmt.Fprintf(out, "  tickbus -demo -script progress.lua Watch the demo from Lua\n")
	}

	if err := fs.Parse(args); err != nil {
		return opts, false, err
	}

	if showHelp {
		fs.Usage()
		return opts, false, nil
	}

	if showVersion {
		fmt.Printf("tickbus %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		return opts, false, nil
	}

	if opts.LogLevel != "" {
		if _, err := logging.ParseLevel(opts.LogLevel); err != nil {
			return opts, false, err
		}
	}

	// Remaining arguments are scripts too.
	opts.Scripts = append(scripts, fs.Args()...)
	return opts, true, nil
}
