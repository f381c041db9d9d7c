// ABOUTME: Ordered, all-or-nothing classpath assembly from a manifest and the local cache
// ABOUTME: Optional loader jar first, applicable libraries in manifest order, game jar last

package classpath

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mauromedda/mclaunch-go/internal/log"
	"github.com/mauromedda/mclaunch-go/internal/manifest"
	"github.com/mauromedda/mclaunch-go/internal/platform"
)

const (
	LoaderJar = "modloader.jar"
	GameJar   = "minecraft.jar"
)

// MissingArtifactError names the first required file absent from disk.
type MissingArtifactError struct {
	Name         string
	ExpectedPath string
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("required artifact %s missing at %s", e.Name, e.ExpectedPath)
}

// Options locates the files a classpath is built from.
type Options struct {
	BinDir      string
	LibraryRoot string
	Host        platform.Host
}

// Build returns the classpath for m. Every path it returns exists as a
// regular file; the first absent library or game jar fails the whole build.
func Build(m *manifest.Manifest, opts Options) ([]string, error) {
	log.Debug("classpath: building for %s", m.ID)
	var cp []string

	loader := filepath.Join(opts.BinDir, LoaderJar)
	if isFile(loader) {
		log.Debug("classpath: found %s", loader)
		cp = append(cp, loader)
	} else {
		log.Warn("classpath: no %s in %s; assuming a vanilla launch", LoaderJar, opts.BinDir)
	}

	for i := range m.Libraries {
		rec := &m.Libraries[i]
		if !rec.HasArtifact() || !rec.Applies(opts.Host) {
			continue
		}
		path := filepath.Join(opts.LibraryRoot, filepath.FromSlash(rec.Path))
		if !isFile(path) {
			return nil, &MissingArtifactError{Name: rec.Name, ExpectedPath: path}
		}
		cp = append(cp, path)
	}

	game := filepath.Join(opts.BinDir, GameJar)
	if !isFile(game) {
		return nil, &MissingArtifactError{Name: GameJar, ExpectedPath: game}
	}
	cp = append(cp, game)

	log.Debug("classpath: %d entries", len(cp))
	return cp, nil
}

// Join joins paths with the host's path-list separator.
func Join(paths []string, host platform.Host) string {
	return strings.Join(paths, host.PathListSeparator())
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
