// ABOUTME: Shared CLI flag handling on top of spf13/pflag flag sets
// ABOUTME: Every subcommand gets --verbose and --home in addition to its own flags

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/mauromedda/mclaunch-go/internal/config"
)

type commonFlags struct {
	verbose bool
	home    string
}

func newFlagSet(name, argsUsage string, streams ioStreams) (*pflag.FlagSet, *commonFlags) {
	var common commonFlags
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(streams.errOut)
	fs.BoolVarP(&common.verbose, "verbose", "v", false, "Enable debug logging")
	fs.StringVar(&common.home, "home", "", "Data directory (default ~/.mclaunch or $"+config.HomeEnv+")")
	fs.Usage = func() {
		fmt.Fprintf(streams.errOut, "usage: mclaunch %s [flags] %s\n\nflags:\n", name, argsUsage)
		fs.PrintDefaults()
	}
	return fs, &common
}

// parse parses args and checks the positional count is within [min, max].
// max < 0 means unbounded.
func parse(fs *pflag.FlagSet, common *commonFlags, args []string, min, max int) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, errHelp
		}
		return nil, err
	}
	rest := fs.Args()
	if len(rest) < min || (max >= 0 && len(rest) > max) {
		fs.Usage()
		return nil, errUsage
	}
	if common.home != "" {
		if err := os.Setenv(config.HomeEnv, common.home); err != nil {
			return nil, err
		}
	}
	return rest, nil
}
