// ABOUTME: Tests for classpath ordering, platform filtering and missing-artifact failures
// ABOUTME: Libraries are laid out under t.TempDir() per test

package classpath

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mauromedda/mclaunch-go/internal/manifest"
	"github.com/mauromedda/mclaunch-go/internal/platform"
)

const testManifest = `{
  "id": "1.7.10", "mainClass": "net.minecraft.client.main.Main",
  "libraries": [
    {"name": "com.mojang:netty:1.8.8"},
    {"name": "org.lwjgl.lwjgl:lwjgl-platform:2.9.1", "natives": {"linux": "natives-linux"}},
    {"name": "ca.weblite:java-objc-bridge:1.0.0", "rules": [{"action": "allow", "os": {"name": "osx"}}]},
    {"name": "com.google.guava:guava:15.0"}
  ]
}`

var linux = platform.Host{OS: platform.Linux, Arch: "64"}

type fixture struct {
	bin, libs string
	m         *manifest.Manifest
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	m, err := manifest.Parse([]byte(testManifest))
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	return fixture{bin: filepath.Join(dir, "bin"), libs: filepath.Join(dir, "libraries"), m: m}
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func (f fixture) lib(rel string) string {
	return filepath.Join(f.libs, filepath.FromSlash(rel))
}

func (f fixture) populate(t *testing.T) {
	t.Helper()
	touch(t, f.lib("com/mojang/netty/1.8.8/netty-1.8.8.jar"))
	touch(t, f.lib("com/google/guava/guava/15.0/guava-15.0.jar"))
	touch(t, filepath.Join(f.bin, GameJar))
}

func (f fixture) opts() Options {
	return Options{BinDir: f.bin, LibraryRoot: f.libs, Host: linux}
}

func TestBuild_Vanilla(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.populate(t)

	cp, err := Build(f.m, f.opts())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := []string{
		f.lib("com/mojang/netty/1.8.8/netty-1.8.8.jar"),
		f.lib("com/google/guava/guava/15.0/guava-15.0.jar"),
		filepath.Join(f.bin, GameJar),
	}
	if len(cp) != len(want) {
		t.Fatalf("classpath = %v; want %v", cp, want)
	}
	for i := range want {
		if cp[i] != want[i] {
			t.Errorf("cp[%d] = %q; want %q", i, cp[i], want[i])
		}
	}
}

func TestBuild_LoaderFirst(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.populate(t)
	touch(t, filepath.Join(f.bin, LoaderJar))

	cp, err := Build(f.m, f.opts())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(cp) != 4 {
		t.Fatalf("len = %d; want loader + 2 libraries + game", len(cp))
	}
	if cp[0] != filepath.Join(f.bin, LoaderJar) {
		t.Errorf("cp[0] = %q; want loader jar", cp[0])
	}
	if cp[3] != filepath.Join(f.bin, GameJar) {
		t.Errorf("last = %q; want game jar", cp[3])
	}
}

func TestBuild_MissingLibraryNamesFirstAbsent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	touch(t, filepath.Join(f.bin, GameJar))

	_, err := Build(f.m, f.opts())
	var me *MissingArtifactError
	if !errors.As(err, &me) {
		t.Fatalf("err = %v; want *MissingArtifactError", err)
	}
	if me.Name != "com.mojang:netty:1.8.8" {
		t.Errorf("Name = %q; want netty", me.Name)
	}
	if me.ExpectedPath != f.lib("com/mojang/netty/1.8.8/netty-1.8.8.jar") {
		t.Errorf("ExpectedPath = %q", me.ExpectedPath)
	}
}

func TestBuild_MissingGameJar(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	touch(t, f.lib("com/mojang/netty/1.8.8/netty-1.8.8.jar"))
	touch(t, f.lib("com/google/guava/guava/15.0/guava-15.0.jar"))

	_, err := Build(f.m, f.opts())
	var me *MissingArtifactError
	if !errors.As(err, &me) || me.Name != GameJar {
		t.Fatalf("err = %v; want missing %s", err, GameJar)
	}
}

func TestBuild_PlatformFiltered(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.populate(t)

	// the osx-only bridge is absent but must not be required on linux
	if _, err := Build(f.m, f.opts()); err != nil {
		t.Fatalf("linux Build: %v", err)
	}

	osx := f.opts()
	osx.Host = platform.Host{OS: platform.OSX, Arch: "64"}
	_, err := Build(f.m, osx)
	var me *MissingArtifactError
	if !errors.As(err, &me) || me.Name != "ca.weblite:java-objc-bridge:1.0.0" {
		t.Errorf("osx err = %v; want missing objc bridge", err)
	}
}

func TestBuild_DirectoryIsNotAFile(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.populate(t)
	if err := os.MkdirAll(filepath.Join(f.bin, LoaderJar), 0o755); err != nil {
		t.Fatal(err)
	}
	cp, err := Build(f.m, f.opts())
	if err != nil {
		t.Fatal(err)
	}
	if cp[0] == filepath.Join(f.bin, LoaderJar) {
		t.Error("a directory named modloader.jar must not be on the classpath")
	}
}

func TestJoin(t *testing.T) {
	t.Parallel()

	paths := []string{"a.jar", "b.jar"}
	if got := Join(paths, platform.Host{OS: platform.Linux}); got != "a.jar:b.jar" {
		t.Errorf("linux Join = %q", got)
	}
	if got := Join(paths, platform.Host{OS: platform.Windows}); got != "a.jar;b.jar" {
		t.Errorf("windows Join = %q", got)
	}
}
