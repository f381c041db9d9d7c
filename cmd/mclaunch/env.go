// ABOUTME: Per-command environment: settings, HTTP client, fetcher, installer and layout
// ABOUTME: Builds the collaborators every subcommand shares from the merged settings

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/mauromedda/mclaunch-go/internal/config"
	"github.com/mauromedda/mclaunch-go/internal/fetch"
	lhttp "github.com/mauromedda/mclaunch-go/internal/http"
	"github.com/mauromedda/mclaunch-go/internal/install"
	"github.com/mauromedda/mclaunch-go/internal/log"
	"github.com/mauromedda/mclaunch-go/internal/manifest"
	"github.com/mauromedda/mclaunch-go/internal/platform"
	"github.com/mauromedda/mclaunch-go/internal/progress"
	"github.com/mauromedda/mclaunch-go/internal/unpack"
)

type env struct {
	settings *config.Settings
	verbose  bool
	client   *http.Client
	streams  ioStreams
}

// newEnv loads settings for instanceDir (may be empty) and applies the log level.
func newEnv(common *commonFlags, instanceDir string, streams ioStreams) (*env, error) {
	s, err := config.Load(instanceDir)
	if err != nil {
		return nil, err
	}
	if common.verbose {
		log.SetLevel(log.LevelDebug)
	} else if lvl, err := log.ParseLevel(s.LogLevel); err == nil {
		log.SetLevel(lvl)
	} else {
		log.Warn("settings: %v", err)
	}
	ua := fmt.Sprintf("%s/%s", lhttp.DefaultUserAgent, version)
	return &env{
		settings: s,
		verbose:  common.verbose,
		client:   lhttp.NewClient(time.Duration(s.RequestTimeout), ua),
		streams:  streams,
	}, nil
}

// withInstance re-reads settings with the instance's overrides applied.
func (e *env) withInstance(inst *config.Instance) {
	e.settings = inst.Apply(e.settings)
}

// context returns a context cancelled on SIGINT/SIGTERM and bounded by timeout when positive.
func (e *env) context(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func (e *env) fetcher() *fetch.Fetcher {
	return fetch.New(
		fetch.WithClient(e.client),
		fetch.WithMaxAttempts(e.settings.MaxAttempts),
	)
}

func (e *env) index() *manifest.IndexCache {
	return manifest.NewIndexCache(e.settings.VersionManifestURL, e.client)
}

func (e *env) installer(bus *install.Bus) *install.Installer {
	return install.New(install.Options{
		Fetcher:          e.fetcher(),
		Pack200:          unpack.Unpack200Tool{},
		Host:             platform.Current(),
		Workers:          e.settings.Workers,
		Index:            e.index(),
		Bus:              bus,
		LibraryBaseURL:   e.settings.LibraryBaseURL,
		ResourcesBaseURL: e.settings.ResourcesBaseURL,
	})
}

func layoutFor(inst *config.Instance) install.Layout {
	return install.Layout{
		BinDir:      inst.BinDir(),
		LibraryRoot: config.LibrariesDir(),
		AssetsDir:   config.AssetsDir(),
	}
}

// interactive reports whether stdout is a terminal.
func (e *env) interactive() bool {
	f, ok := e.streams.out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// withProgress runs work under the progress display. Log lines are
// silenced while the terminal display is active unless --verbose is set.
func (e *env) withProgress(ctx context.Context, title string, work func(context.Context, *install.Bus) error) error {
	bus := install.NewBus()
	interactive := e.interactive()
	if interactive && !e.verbose {
		prev := log.SetOutput(io.Discard)
		defer log.SetOutput(prev)
	}
	return progress.Run(ctx, title, bus, e.streams.out, interactive, func(ctx context.Context) error {
		return work(ctx, bus)
	})
}

func loadInstance(name string) (*config.Instance, error) {
	if err := config.ValidateName(name); err != nil {
		return nil, err
	}
	return config.LoadInstance(config.InstanceDir(name))
}
