// ABOUTME: Install pipeline: version manifest, client jar, libraries, natives and assets
// ABOUTME: Jobs run on a bounded errgroup; every artifact goes through fetch.Fetcher

package install

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mauromedda/mclaunch-go/internal/classpath"
	"github.com/mauromedda/mclaunch-go/internal/fetch"
	"github.com/mauromedda/mclaunch-go/internal/forge"
	"github.com/mauromedda/mclaunch-go/internal/log"
	"github.com/mauromedda/mclaunch-go/internal/manifest"
	"github.com/mauromedda/mclaunch-go/internal/platform"
	"github.com/mauromedda/mclaunch-go/internal/unpack"
)

// DefaultWorkers bounds concurrent downloads.
const DefaultWorkers = 8

// LegacyAssetIndexRoot serves index files for manifests without an assetIndex block.
const LegacyAssetIndexRoot = "https://s3.amazonaws.com/Minecraft.Download/indexes"

// Options configures an Installer.
type Options struct {
	Fetcher *fetch.Fetcher
	Pack200 unpack.Pack200
	Host    platform.Host
	Workers int
	Index   *manifest.IndexCache
	Bus     *Bus

	// LibraryBaseURL replaces manifest.DefaultLibraryBaseURL in library URLs.
	LibraryBaseURL   string
	ResourcesBaseURL string
}

// Installer materialises versions into a Layout.
type Installer struct {
	opts Options
}

// New creates an Installer, filling unset options with defaults.
func New(opts Options) *Installer {
	if opts.Fetcher == nil {
		opts.Fetcher = fetch.New()
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Host.OS == "" {
		opts.Host = platform.Current()
	}
	return &Installer{opts: opts}
}

type job struct {
	req fetch.Request
	// post runs inside the fetcher's per-path guard once the file is
	// settled, downloaded or already present.
	post func(ctx context.Context, res fetch.Result) error
	// after runs once the file is in place, downloaded or not.
	after func(res fetch.Result) error
}

// InstallVersion resolves id through the version index and installs its
// manifest, client jar, libraries and assets. It returns the parsed manifest.
func (i *Installer) InstallVersion(ctx context.Context, id string, l Layout) (*manifest.Manifest, error) {
	if i.opts.Index == nil {
		return nil, errors.New("install: no version index configured")
	}
	ref, err := i.opts.Index.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	log.Info("install: installing %s (%s)", ref.ID, ref.Type)

	err = i.run(ctx, []job{{req: fetch.Request{
		Name: ref.ID + " manifest",
		URL:  ref.URL,
		Dest: l.ManifestPath(),
		SHA1: ref.SHA1,
	}}})
	if err != nil {
		return nil, err
	}
	m, err := manifest.Load(l.ManifestPath())
	if err != nil {
		return nil, err
	}

	client := fetch.Request{Name: m.ID + " client", URL: ref.LegacyClientURL(), Dest: l.GameJarPath()}
	if m.Client != nil && m.Client.URL != "" {
		client.URL = m.Client.URL
		client.AltURL = ref.LegacyClientURL()
		client.SHA1 = m.Client.SHA1
		client.Size = m.Client.Size
	}
	if err := i.run(ctx, []job{{req: client}}); err != nil {
		return nil, err
	}

	if err := i.InstallLibraries(ctx, m, l); err != nil {
		return nil, err
	}
	if err := i.InstallAssets(ctx, m, l); err != nil {
		return nil, err
	}
	log.Info("install: %s ready in %s", m.ID, l.BinDir)
	return m, nil
}

// InstallLibraries fetches every library and native bundle m needs on the
// configured host. Existence-guaranteed records are checked, never fetched.
func (i *Installer) InstallLibraries(ctx context.Context, m *manifest.Manifest, l Layout) error {
	jobs, err := i.libraryJobs(m, l)
	if err != nil {
		return err
	}
	log.Debug("install: %d library jobs for %s", len(jobs), m.ID)
	return i.run(ctx, jobs)
}

func (i *Installer) libraryJobs(m *manifest.Manifest, l Layout) ([]job, error) {
	var jobs []job
	seen := make(map[string]bool)
	add := func(j job) {
		if seen[j.req.Dest] {
			return
		}
		seen[j.req.Dest] = true
		jobs = append(jobs, j)
	}

	for idx := range m.Libraries {
		rec := &m.Libraries[idx]
		if !rec.Applies(i.opts.Host) {
			log.Debug("install: %s not wanted on %s", rec.Name, i.opts.Host.OS)
			continue
		}

		if rec.HasArtifact() {
			dest := l.LibraryPath(rec.Path)
			if rec.ExistenceGuaranteed {
				if !isFile(dest) {
					return nil, &classpath.MissingArtifactError{Name: rec.Name, ExpectedPath: dest}
				}
			} else {
				add(i.artifactJob(rec, dest))
			}
		}

		nd, ok, err := rec.NativeDownload(i.opts.Host)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", rec.Name, err)
		}
		if ok {
			add(i.nativeJob(rec, nd, l))
		}
	}
	return jobs, nil
}

func (i *Installer) artifactJob(rec *manifest.Record, dest string) job {
	j := job{req: fetch.Request{
		Name:   rec.Name,
		URL:    i.libraryURL(rec.URL),
		AltURL: rec.FallbackURL,
		Dest:   dest,
		SHA1:   rec.SHA1,
		Size:   rec.Size,
	}}
	if rec.TwoStage {
		// the jar only ever appears complete; anything else at dest is refetched
		j.req.Staged = true
		j.req.Validate = unpack.CheckZip
		pack := i.opts.Pack200
		j.post = func(ctx context.Context, res fetch.Result) error {
			// the plain fallback jar needs no unpacking
			if res.Staged == "" {
				return nil
			}
			log.Debug("install: unpacking %s", rec.Name)
			return unpack.UnpackCompressedLibrary(ctx, res.Staged, dest, pack)
		}
	}
	return j
}

// nativeJob downloads a native bundle as a private staged file and extracts
// it into the instance's natives dir inside the fetcher's per-path guard.
// The bundle is never placed in the shared library root, and a bundle left
// at the archive path by an earlier run is extracted and removed.
func (i *Installer) nativeJob(rec *manifest.Record, nd manifest.Download, l Layout) job {
	var exclude []string
	if rec.Extract != nil {
		exclude = rec.Extract.Exclude
	}
	archive := l.NativeArchivePath(nd.Path)
	return job{
		req: fetch.Request{
			Name:     rec.Name + " natives",
			URL:      i.libraryURL(nd.URL),
			Dest:     archive,
			SHA1:     nd.SHA1,
			Size:     nd.Size,
			Staged:   true,
			Validate: unpack.CheckZip,
		},
		post: func(_ context.Context, res fetch.Result) error {
			src := res.Staged
			if src == "" {
				src = archive
				defer os.Remove(archive)
			}
			files, err := unpack.ExtractNatives(src, l.NativesPath(), exclude)
			if err != nil {
				return err
			}
			log.Debug("install: extracted %d native files from %s", len(files), rec.Name)
			return nil
		},
	}
}

func (i *Installer) libraryURL(url string) string {
	base := i.opts.LibraryBaseURL
	if base == "" || !strings.HasPrefix(url, manifest.DefaultLibraryBaseURL) {
		return url
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + strings.TrimPrefix(url, manifest.DefaultLibraryBaseURL)
}

// InstallAssets fetches the asset index of m, every object it lists, and
// mirrors each object under its logical name in virtual/legacy.
func (i *Installer) InstallAssets(ctx context.Context, m *manifest.Manifest, l Layout) error {
	id := m.AssetIndexName()
	req := fetch.Request{
		Name: "asset index " + id,
		URL:  LegacyAssetIndexRoot + "/" + id + ".json",
		Dest: l.AssetPath(manifest.IndexPath(id)),
	}
	if ref := m.AssetIndex; ref != nil && ref.URL != "" {
		req.URL, req.SHA1, req.Size = ref.URL, ref.SHA1, ref.Size
	}
	if err := i.run(ctx, []job{{req: req}}); err != nil {
		return err
	}

	idx, err := manifest.LoadAssetIndex(req.Dest)
	if err != nil {
		return err
	}

	// objects shared by several names are fetched once
	byHash := make(map[string][]string)
	var order []string
	for _, name := range idx.Names() {
		h := idx.Objects[name].Hash
		if _, ok := byHash[h]; !ok {
			order = append(order, h)
		}
		byHash[h] = append(byHash[h], name)
	}

	jobs := make([]job, 0, len(order))
	for _, h := range order {
		names := byHash[h]
		obj := idx.Objects[names[0]]
		dest := l.AssetPath(manifest.ObjectPath(h))
		jobs = append(jobs, job{
			req: fetch.Request{
				Name: names[0],
				URL:  manifest.ObjectURL(i.opts.ResourcesBaseURL, h),
				Dest: dest,
				SHA1: h,
				Size: obj.Size,
			},
			after: func(fetch.Result) error {
				return mirrorLegacy(dest, names, l)
			},
		})
	}
	log.Debug("install: %d asset objects for index %s", len(jobs), id)
	return i.run(ctx, jobs)
}

func mirrorLegacy(object string, names []string, l Layout) error {
	info, err := os.Stat(object)
	if err != nil {
		return err
	}
	for _, name := range names {
		rel, ok := manifest.LegacyPath(name)
		if !ok {
			log.Warn("install: skipping asset with unsafe name %q", name)
			continue
		}
		dst := l.AssetPath(rel)
		if cur, err := os.Stat(dst); err == nil && cur.Size() == info.Size() {
			continue
		}
		if err := copyFile(object, dst); err != nil {
			return fmt.Errorf("mirroring %s: %w", name, err)
		}
	}
	return nil
}

// InstallForge folds a Forge installer into m: the loader jar is extracted
// into the library root, the installer profile is kept as modloader.json,
// and the merged library list is installed.
func (i *Installer) InstallForge(ctx context.Context, installer string, m *manifest.Manifest, l Layout) error {
	p, err := forge.ReadInstallProfile(installer)
	if err != nil {
		return err
	}
	if p.Install.Minecraft != "" && p.Install.Minecraft != m.ID {
		return fmt.Errorf("installer %s targets %s, instance runs %s", filepath.Base(installer), p.Install.Minecraft, m.ID)
	}
	if _, err := forge.ExtractLoader(installer, p, l.LibraryRoot); err != nil {
		return err
	}
	if err := p.Save(l.LoaderProfilePath()); err != nil {
		return err
	}
	if err := forge.Merge(p, m); err != nil {
		return err
	}
	log.Info("install: merged %s into %s", m.LoaderID, m.ID)
	return i.InstallLibraries(ctx, m, l)
}

// LoadUnified reads the installed manifest and merges the saved loader
// profile into it when one exists.
func LoadUnified(l Layout) (*manifest.Manifest, error) {
	m, err := manifest.Load(l.ManifestPath())
	if err != nil {
		return nil, err
	}
	p, err := forge.LoadInstallProfile(l.LoaderProfilePath())
	if errors.Is(err, fs.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", LoaderFile, err)
	}
	if err := forge.Merge(p, m); err != nil {
		return nil, err
	}
	return m, nil
}

// run executes jobs on the worker pool. The first failure cancels the rest.
func (i *Installer) run(ctx context.Context, jobs []job) error {
	bus := i.opts.Bus
	bus.Publish(Event{Kind: Planned, Total: len(jobs)})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.opts.Workers)
	for _, j := range jobs {
		g.Go(func() error {
			return i.do(gctx, j)
		})
	}
	return g.Wait()
}

func (i *Installer) do(ctx context.Context, j job) error {
	bus := i.opts.Bus
	name := j.req.Name
	bus.Publish(Event{Kind: Started, Name: name})

	req := j.req
	if j.post != nil {
		req.Post = func(res fetch.Result) error { return j.post(ctx, res) }
	}
	res, err := i.opts.Fetcher.Fetch(ctx, req)
	if err == nil && j.after != nil {
		err = j.after(res)
	}
	if err != nil {
		bus.Publish(Event{Kind: Failed, Name: name, Err: err})
		return fmt.Errorf("installing %s: %w", name, err)
	}

	if res.Skipped {
		bus.Publish(Event{Kind: Skipped, Name: name})
	} else {
		bus.Publish(Event{Kind: Finished, Name: name, Bytes: res.Bytes})
	}
	return nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.ReadFrom(in); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
