// ABOUTME: CLI entry point for mclaunch: install, forge, login, launch and inspection commands
// ABOUTME: Dispatches the first argument to a subcommand; each parses its own pflag set

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	// termfix must be imported before any package that imports bubbletea.
	_ "github.com/mauromedda/mclaunch-go/internal/termfix"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var (
	// errUsage reports a malformed command line; usage has already been printed.
	errUsage = errors.New("invalid usage")
	// errHelp reports that --help was handled.
	errHelp = errors.New("help requested")
)

type command struct {
	summary string
	run     func(args []string, io ioStreams) error
}

type ioStreams struct {
	in          *os.File
	out, errOut io.Writer
}

var commands = map[string]command{
	"versions":  {"list available game versions", runVersions},
	"instances": {"list local instances", runInstances},
	"install":   {"create an instance and install its game version", runInstall},
	"forge":     {"install Forge into an instance", runForge},
	"login":     {"authenticate and remember the account", runLogin},
	"launch":    {"start an instance", runLaunch},
	"describe":  {"show what an instance contains", runDescribe},
}

func main() {
	streams := ioStreams{in: os.Stdin, out: os.Stdout, errOut: os.Stderr}
	if err := run(os.Args[1:], streams); err != nil {
		if errors.Is(err, errHelp) {
			return
		}
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, streams ioStreams) error {
	if len(args) == 0 {
		usage(streams.errOut)
		return errUsage
	}

	switch args[0] {
	case "-h", "--help", "help":
		usage(streams.out)
		return nil
	case "-v", "--version", "version":
		fmt.Fprintf(streams.out, "mclaunch %s (%s) built %s\n", version, commit, date)
		return nil
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(streams.errOut, "unknown command %q\n\n", args[0])
		usage(streams.errOut)
		return errUsage
	}
	return cmd.run(args[1:], streams)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: mclaunch <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-10s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "run 'mclaunch <command> --help' for command flags")
}
