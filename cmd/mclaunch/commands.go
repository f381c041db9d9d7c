// ABOUTME: Subcommand implementations: versions, instances, install, forge, login and launch
// ABOUTME: Each parses its flags, builds an env and delegates to the internal packages

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/mauromedda/mclaunch-go/internal/auth"
	"github.com/mauromedda/mclaunch-go/internal/classpath"
	"github.com/mauromedda/mclaunch-go/internal/config"
	"github.com/mauromedda/mclaunch-go/internal/forge"
	"github.com/mauromedda/mclaunch-go/internal/install"
	"github.com/mauromedda/mclaunch-go/internal/launch"
	"github.com/mauromedda/mclaunch-go/internal/log"
	"github.com/mauromedda/mclaunch-go/internal/manifest"
	"github.com/mauromedda/mclaunch-go/internal/platform"
)

func runVersions(args []string, streams ioStreams) error {
	fs, common := newFlagSet("versions", "[query]", streams)
	snapshots := fs.Bool("snapshots", false, "Include snapshots")
	rest, err := parse(fs, common, args, 0, 1)
	if err != nil {
		return err
	}
	e, err := newEnv(common, "", streams)
	if err != nil {
		return err
	}
	ctx, cancel := e.context(time.Duration(e.settings.RequestTimeout))
	defer cancel()

	cache := e.index()
	if err := cache.Initialize(ctx); err != nil {
		return err
	}
	types := []string{"release"}
	if *snapshots {
		types = append(types, "snapshot")
	}
	query := ""
	if len(rest) == 1 {
		query = rest[0]
	}
	idx := cache.Index()
	for _, v := range idx.Filter(query, types...) {
		marker := ""
		if v.ID == idx.Latest.Release {
			marker = " (latest)"
		}
		fmt.Fprintf(streams.out, "%-20s %-9s %s%s\n", v.ID, v.Type, v.ReleaseTime, marker)
	}
	return nil
}

func runInstances(args []string, streams ioStreams) error {
	fs, common := newFlagSet("instances", "", streams)
	if _, err := parse(fs, common, args, 0, 0); err != nil {
		return err
	}
	names, err := config.ListInstances()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(streams.errOut, "no instances; create one with 'mclaunch install <name> [version]'")
		return nil
	}
	for _, name := range names {
		inst, err := config.LoadInstance(config.InstanceDir(name))
		if err != nil {
			log.Warn("instances: %v", err)
			continue
		}
		line := fmt.Sprintf("%-20s %s", name, inst.Version)
		if inst.Forge != "" {
			line += " forge " + inst.Forge
		}
		fmt.Fprintln(streams.out, line)
	}
	return nil
}

func runInstall(args []string, streams ioStreams) error {
	fs, common := newFlagSet("install", "<instance> [version]", streams)
	rest, err := parse(fs, common, args, 1, 2)
	if err != nil {
		return err
	}

	name := rest[0]
	dir := config.InstanceDir(name)
	inst, err := config.LoadInstance(dir)
	switch {
	case err == nil:
		if len(rest) == 2 && rest[1] != inst.Version {
			return fmt.Errorf("instance %s already runs %s", name, inst.Version)
		}
	case errors.Is(err, os.ErrNotExist):
		v := "latest"
		if len(rest) == 2 {
			v = rest[1]
		}
		if inst, err = config.CreateInstance(dir, name, v); err != nil {
			return err
		}
		log.Info("install: created instance %s", name)
	default:
		return err
	}

	e, err := newEnv(common, dir, streams)
	if err != nil {
		return err
	}
	e.withInstance(inst)
	ctx, cancel := e.context(time.Duration(e.settings.InstallDeadline))
	defer cancel()

	var m *manifest.Manifest
	err = e.withProgress(ctx, "installing "+inst.Version, func(ctx context.Context, bus *install.Bus) error {
		var err error
		m, err = e.installer(bus).InstallVersion(ctx, inst.Version, layoutFor(inst))
		return err
	})
	if err != nil {
		return err
	}

	// "latest" is pinned to the concrete id once installed.
	if inst.Version != m.ID {
		inst.Version = m.ID
		if err := inst.Save(); err != nil {
			return err
		}
	}
	fmt.Fprintf(streams.out, "installed %s into %s\n", m.ID, inst.Dir)
	return nil
}

func runForge(args []string, streams ioStreams) error {
	fs, common := newFlagSet("forge", "<instance>", streams)
	installerPath := fs.String("installer", "", "Use a local installer jar instead of downloading one")
	forgeVersion := fs.String("version", "", "Forge build to install (default: recommended)")
	rest, err := parse(fs, common, args, 1, 1)
	if err != nil {
		return err
	}
	inst, err := loadInstance(rest[0])
	if err != nil {
		return err
	}
	e, err := newEnv(common, inst.Dir, streams)
	if err != nil {
		return err
	}
	e.withInstance(inst)
	ctx, cancel := e.context(time.Duration(e.settings.InstallDeadline))
	defer cancel()

	l := layoutFor(inst)
	m, err := manifest.Load(l.ManifestPath())
	if err != nil {
		return fmt.Errorf("instance %s is not installed: %w", inst.Name, err)
	}

	path := *installerPath
	if path == "" {
		d := forge.Downloader{
			Fetcher:    e.fetcher(),
			Promotions: forge.NewPromotionsCache(e.settings.ForgePromotionsURL, e.client),
			MavenURL:   e.settings.ForgeMavenURL,
		}
		if path, err = d.DownloadInstaller(ctx, m.ID, *forgeVersion, config.CacheDir()); err != nil {
			return err
		}
	}

	err = e.withProgress(ctx, "installing forge", func(ctx context.Context, bus *install.Bus) error {
		return e.installer(bus).InstallForge(ctx, path, m, l)
	})
	if err != nil {
		return err
	}

	inst.Forge = m.LoaderID
	if err := inst.Save(); err != nil {
		return err
	}
	fmt.Fprintf(streams.out, "installed %s into %s\n", m.LoaderID, inst.Name)
	return nil
}

func runLogin(args []string, streams ioStreams) error {
	fs, common := newFlagSet("login", "[username]", streams)
	passwordStdin := fs.Bool("password-stdin", false, "Read the password from stdin")
	rest, err := parse(fs, common, args, 0, 1)
	if err != nil {
		return err
	}
	e, err := newEnv(common, "", streams)
	if err != nil {
		return err
	}
	store, err := config.LoadAuth()
	if err != nil {
		return err
	}

	username := store.Username
	if len(rest) == 1 {
		username = rest[0]
	}
	if username == "" {
		return errors.New("no remembered account; pass a username")
	}

	ctx, cancel := e.context(time.Duration(e.settings.RequestTimeout))
	defer cancel()
	s, err := authenticate(ctx, e, store, username, *passwordStdin)
	if err != nil {
		return err
	}
	fmt.Fprintf(streams.out, "logged in as %s\n", s.Selected.Name)
	return nil
}

func runLaunch(args []string, streams ioStreams) error {
	fs, common := newFlagSet("launch", "<instance>", streams)
	printOnly := fs.Bool("print", false, "Print the command line instead of starting the game")
	check := fs.Bool("check", false, "Only verify that every classpath entry is installed")
	passwordStdin := fs.Bool("password-stdin", false, "Read the password from stdin")
	rest, err := parse(fs, common, args, 1, 1)
	if err != nil {
		return err
	}
	inst, err := loadInstance(rest[0])
	if err != nil {
		return err
	}
	e, err := newEnv(common, inst.Dir, streams)
	if err != nil {
		return err
	}
	e.withInstance(inst)

	l := layoutFor(inst)
	m, err := install.LoadUnified(l)
	if err != nil {
		return fmt.Errorf("instance %s is not installed: %w", inst.Name, err)
	}
	host := platform.Current()

	if *check {
		cp, err := classpath.Build(m, classpath.Options{BinDir: l.BinDir, LibraryRoot: l.LibraryRoot, Host: host})
		if err != nil {
			return err
		}
		fmt.Fprintf(streams.out, "%s: %d classpath entries present\n", inst.Name, len(cp))
		return nil
	}

	store, err := config.LoadAuth()
	if err != nil {
		return err
	}
	if store.Username == "" {
		return errors.New("no account; run 'mclaunch login <username>' first")
	}

	ctx, cancel := e.context(0)
	defer cancel()
	s, err := authenticate(ctx, e, store, store.Username, *passwordStdin)
	if err != nil {
		return err
	}

	plan, err := launch.Build(ctx, s, m, launch.Options{
		BinDir:      l.BinDir,
		GameDir:     inst.Dir,
		AssetsDir:   l.AssetsDir,
		LibraryRoot: l.LibraryRoot,
		JavaPath:    e.settings.JavaPath,
		MemoryMB:    e.settings.MemoryMB,
		Host:        host,
	})
	if err != nil {
		return err
	}
	if *printOnly {
		fmt.Fprintln(streams.out, strings.Join(plan.Redacted(), " "))
		return nil
	}

	log.Info("launch: starting %s (%s)", inst.Name, m.ID)
	cmd := plan.Command(ctx, inst.Dir)
	cmd.Stdin = streams.in
	cmd.Stdout = streams.out
	cmd.Stderr = streams.errOut
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("game exited: %w", err)
	}
	return nil
}

// authenticate logs username in and remembers the account on success.
func authenticate(ctx context.Context, e *env, store *config.AuthStore, username string, fromStdin bool) (*auth.Session, error) {
	password, err := readPassword(e.streams, username, fromStdin)
	if err != nil {
		return nil, err
	}
	client := auth.NewClient(e.settings.AuthURL, e.client)
	s, err := client.Authenticate(ctx, username, password, store.EnsureClientToken())
	if err != nil {
		return nil, err
	}
	store.Remember(username, s.ClientToken)
	if err := store.Save(); err != nil {
		return nil, err
	}
	return s, nil
}

func readPassword(streams ioStreams, username string, fromStdin bool) (string, error) {
	if fromStdin || !term.IsTerminal(int(streams.in.Fd())) {
		line, err := bufio.NewReader(streams.in).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	fmt.Fprintf(streams.errOut, "password for %s: ", username)
	pw, err := term.ReadPassword(int(streams.in.Fd()))
	fmt.Fprintln(streams.errOut)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}
