// ABOUTME: On-disk layout of an installed instance: bin dir, shared library and asset roots
// ABOUTME: Names the files the installer writes and the launcher reads back

package install

import (
	"path/filepath"

	"github.com/mauromedda/mclaunch-go/internal/classpath"
)

const (
	ManifestFile = "minecraft.json"
	LoaderFile   = "modloader.json"
	NativesDir   = "natives"

	// nativeArchiveDir holds native bundles between download and extraction.
	nativeArchiveDir = ".natives"
)

// Layout locates an instance's directories.
type Layout struct {
	BinDir      string
	LibraryRoot string
	AssetsDir   string
}

func (l Layout) ManifestPath() string { return filepath.Join(l.BinDir, ManifestFile) }

func (l Layout) LoaderProfilePath() string { return filepath.Join(l.BinDir, LoaderFile) }

func (l Layout) GameJarPath() string { return filepath.Join(l.BinDir, classpath.GameJar) }

func (l Layout) NativesPath() string { return filepath.Join(l.BinDir, NativesDir) }

// NativeArchivePath is where the native bundle rel is downloaded before
// extraction. It lives in the bin dir so instances sharing a library root
// never touch each other's bundles.
func (l Layout) NativeArchivePath(rel string) string {
	return filepath.Join(l.BinDir, nativeArchiveDir, filepath.FromSlash(rel))
}

// LibraryPath maps a slash-separated library path under LibraryRoot.
func (l Layout) LibraryPath(rel string) string {
	return filepath.Join(l.LibraryRoot, filepath.FromSlash(rel))
}

// AssetPath maps a slash-separated asset path under AssetsDir.
func (l Layout) AssetPath(rel string) string {
	return filepath.Join(l.AssetsDir, filepath.FromSlash(rel))
}
