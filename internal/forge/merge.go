// ABOUTME: Folds installer library, mainClass and argument data into a game manifest
// ABOUTME: Legacy mirror libraries become two-stage .pack.xz downloads with a plain fallback

package forge

import (
	"strings"

	"github.com/mauromedda/mclaunch-go/internal/descriptor"
	"github.com/mauromedda/mclaunch-go/internal/log"
	"github.com/mauromedda/mclaunch-go/internal/manifest"
	"github.com/mauromedda/mclaunch-go/internal/unpack"
)

// ConvertLegacyLibrary turns an installer library entry into a manifest
// record. An entry with its own repository that is not guaranteed to
// exist locally is fetched as .pack.xz with the plain jar as fallback.
func ConvertLegacyLibrary(entry LegacyLibrary, existenceGuaranteed bool) (manifest.Record, error) {
	d, err := descriptor.Parse(entry.Name)
	if err != nil {
		return manifest.Record{}, err
	}

	base := entry.URL
	if base == "" {
		base = manifest.DefaultLibraryBaseURL
	}

	rec := manifest.Record{
		Name:                entry.Name,
		Descriptor:          d,
		Path:                d.RelativePath(),
		URL:                 d.URL(base),
		Repository:          base,
		ExistenceGuaranteed: existenceGuaranteed,
	}

	switch {
	case existenceGuaranteed:
		// materialised by ExtractLoader
	case ownRepository(entry.URL):
		rec.TwoStage = true
		rec.FallbackURL = rec.URL
		rec.URL += unpack.PackXZSuffix
	case len(entry.Checksums) == 1:
		rec.SHA1 = entry.Checksums[0]
	}
	return rec, nil
}

func ownRepository(url string) bool {
	if url == "" {
		return false
	}
	norm := strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(url, "https://"), "http://"), "/")
	return norm != "libraries.minecraft.net"
}

// Merge folds the profile into target: client libraries are appended, or
// replace a record with the same group:artifact:classifier in place; the
// loader is marked existence-guaranteed; main class and arguments are
// taken from the profile.
func Merge(p *InstallProfile, target *manifest.Manifest) error {
	loader, err := p.Loader()
	if err != nil {
		return err
	}

	sawLoader := false
	for _, lib := range p.VersionInfo.Libraries {
		if !lib.WantedByClient() {
			log.Debug("forge: skipping server-only library %s", lib.Name)
			continue
		}

		isLoader := false
		if d, err := descriptor.Parse(lib.Name); err == nil && d.Key() == loader.Key() {
			isLoader = true
			sawLoader = true
		}

		rec, err := ConvertLegacyLibrary(lib, isLoader)
		if err != nil {
			return err
		}
		upsert(target, rec)
	}

	if !sawLoader {
		rec, err := ConvertLegacyLibrary(LegacyLibrary{Name: p.Install.Path}, true)
		if err != nil {
			return err
		}
		upsert(target, rec)
	}

	target.MainClass = p.VersionInfo.MainClass
	target.Arguments = p.VersionInfo.MinecraftArguments
	target.LoaderID = p.VersionInfo.ID
	log.Debug("forge: merged %s into %s (%d libraries)", target.LoaderID, target.ID, len(target.Libraries))
	return nil
}

func upsert(m *manifest.Manifest, rec manifest.Record) {
	if i := m.Find(rec.Descriptor.Key()); i >= 0 {
		log.Debug("forge: %s overrides %s", rec.Name, m.Libraries[i].Name)
		m.Libraries[i] = rec
		return
	}
	m.Libraries = append(m.Libraries, rec)
}
