// ABOUTME: Tests for launch plan assembly, GC selection and Java version parsing
// ABOUTME: Sessions are authenticated against an httptest auth server

package launch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	version "github.com/hashicorp/go-version"

	"github.com/mauromedda/mclaunch-go/internal/auth"
	"github.com/mauromedda/mclaunch-go/internal/classpath"
	"github.com/mauromedda/mclaunch-go/internal/manifest"
	"github.com/mauromedda/mclaunch-go/internal/platform"
	"github.com/mauromedda/mclaunch-go/internal/subst"
)

const testManifest = `{
  "id": "1.7.10", "type": "release",
  "mainClass": "net.minecraft.client.main.Main",
  "minecraftArguments": "--username ${auth_player_name} --session ${auth_session} --version ${version_name} --gameDir ${game_directory} --assetsDir ${game_assets} --assetIndex ${assets_index_name} --uuid ${auth_uuid} --accessToken ${auth_access_token} --userProperties ${user_properties} --userType ${user_type}",
  "assetIndex": {"id": "1.7.10", "url": "http://example.invalid/1.7.10.json"},
  "libraries": [{"name": "com.mojang:netty:1.8.8"}]
}`

func session(t *testing.T) *auth.Session {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"accessToken": "secret-token", "clientToken": "ct",
		  "selectedProfile": {"id": "uuid-1", "name": "Steve"},
		  "availableProfiles": [{"id": "uuid-1", "name": "Steve"}]}`))
	}))
	t.Cleanup(srv.Close)

	s, err := auth.NewClient(srv.URL, srv.Client()).Authenticate(context.Background(), "steve@example.com", "pw", "")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	return s
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

func setup(t *testing.T, host platform.Host) (*manifest.Manifest, Options) {
	t.Helper()
	m, err := manifest.Parse([]byte(testManifest))
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	opts := Options{
		BinDir:      filepath.Join(dir, "bin"),
		GameDir:     dir,
		AssetsDir:   filepath.Join(dir, "assets"),
		LibraryRoot: filepath.Join(dir, "libraries"),
		JavaPath:    "/usr/bin/java",
		MemoryMB:    2048,
		Host:        host,
		JavaVersion: version.Must(version.NewVersion("1.8.0+292")),
	}
	touch(t, filepath.Join(opts.LibraryRoot, "com", "mojang", "netty", "1.8.8", "netty-1.8.8.jar"))
	touch(t, filepath.Join(opts.BinDir, classpath.GameJar))
	return m, opts
}

var linux = platform.Host{OS: platform.Linux, Arch: "64"}

func TestBuild_Linux(t *testing.T) {
	t.Parallel()

	s := session(t)
	m, opts := setup(t, linux)
	p, err := Build(context.Background(), s, m, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	wantJVM := []string{
		"-Xms2048m", "-Xmx2048m",
		"-Djava.library.path=" + filepath.Join(opts.BinDir, "natives"),
		"-Dminecraft.applet.TargetDirectory=" + opts.GameDir,
		"-Djava.net.preferIPv4Stack=true",
	}
	if !slices.Equal(p.JVMOptions, wantJVM) {
		t.Errorf("JVMOptions = %v; want %v", p.JVMOptions, wantJVM)
	}

	argv := p.Argv()
	if argv[0] != "/usr/bin/java" {
		t.Errorf("argv[0] = %q", argv[0])
	}
	cp := slices.Index(argv, "-cp")
	if cp < 0 || argv[cp+2] != "net.minecraft.client.main.Main" {
		t.Fatalf("argv = %v; want -cp <path> <main>", argv)
	}
	if !strings.HasSuffix(argv[cp+1], ":"+filepath.Join(opts.BinDir, classpath.GameJar)) {
		t.Errorf("classpath = %q; want game jar last", argv[cp+1])
	}

	args := strings.Join(p.GameArgs, " ")
	for _, want := range []string{
		"--username Steve",
		"--session token:secret-token:uuid-1",
		"--version 1.7.10",
		"--assetsDir " + filepath.Join(opts.AssetsDir, "virtual", "legacy"),
		"--assetIndex 1.7.10",
		"--userProperties {}",
		"--userType mojang",
	} {
		if !strings.Contains(args, want) {
			t.Errorf("game args %q missing %q", args, want)
		}
	}
}

func TestBuild_Windows(t *testing.T) {
	t.Parallel()

	m, opts := setup(t, platform.Host{OS: platform.Windows, Arch: "64"})
	p, err := Build(context.Background(), session(t), m, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.JVMOptions[0] != heapDumpFlag {
		t.Errorf("JVMOptions[0] = %q; want heap dump flag", p.JVMOptions[0])
	}
	if p.Separator != ";" {
		t.Errorf("Separator = %q; want ;", p.Separator)
	}
}

func TestBuild_UnsupportedPlatform(t *testing.T) {
	t.Parallel()

	m, opts := setup(t, platform.Host{OS: platform.OSX, Arch: "64"})
	_, err := Build(context.Background(), session(t), m, opts)
	var ue *UnsupportedPlatformError
	if !errors.As(err, &ue) || ue.OS != platform.OSX {
		t.Fatalf("err = %v; want UnsupportedPlatformError for osx", err)
	}
}

func TestBuild_GarbageCollector(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		memory int
		java   string
		want   []string
	}{
		{"small heap", 4095, "1.8.0", nil},
		{"large heap modern java", 4096, "1.8.0+292", []string{"-XX:+UseG1GC", "-XX:MaxGCPauseMillis=4"}},
		{"large heap java 17", 8192, "17.0.2", []string{"-XX:+UseG1GC", "-XX:MaxGCPauseMillis=4"}},
		{"large heap old java", 4096, "1.6.0+45", []string{"-XX:+UseConcMarkSweepGC"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts := Options{MemoryMB: tt.memory, JavaVersion: version.Must(version.NewVersion(tt.java))}
			got, err := gcFlags(context.Background(), opts)
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("gcFlags = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestBuild_RequiresAuthenticatedSession(t *testing.T) {
	t.Parallel()

	m, opts := setup(t, linux)
	if _, err := Build(context.Background(), nil, m, opts); !errors.Is(err, auth.ErrNotAuthenticated) {
		t.Errorf("nil session err = %v", err)
	}
	if _, err := Build(context.Background(), auth.NewSession("u", ""), m, opts); !errors.Is(err, auth.ErrNotAuthenticated) {
		t.Errorf("created session err = %v", err)
	}
}

func TestBuild_UnboundPlaceholder(t *testing.T) {
	t.Parallel()

	m, opts := setup(t, linux)
	m.Arguments = "--server ${server_host}"
	_, err := Build(context.Background(), session(t), m, opts)
	var ue *subst.UnboundError
	if !errors.As(err, &ue) || ue.Name != "server_host" {
		t.Fatalf("err = %v; want unbound server_host", err)
	}
}

func TestBuild_MissingArtifact(t *testing.T) {
	t.Parallel()

	m, opts := setup(t, linux)
	if err := os.Remove(filepath.Join(opts.BinDir, classpath.GameJar)); err != nil {
		t.Fatal(err)
	}
	_, err := Build(context.Background(), session(t), m, opts)
	var me *classpath.MissingArtifactError
	if !errors.As(err, &me) {
		t.Fatalf("err = %v; want *MissingArtifactError", err)
	}
}

func TestPlan_Redacted(t *testing.T) {
	t.Parallel()

	m, opts := setup(t, linux)
	p, err := Build(context.Background(), session(t), m, opts)
	if err != nil {
		t.Fatal(err)
	}
	shown := strings.Join(p.Redacted(), " ")
	if strings.Contains(shown, "secret-token") {
		t.Errorf("redacted argv leaks the access token: %s", shown)
	}
	if !strings.Contains(strings.Join(p.Argv(), " "), "secret-token") {
		t.Error("Argv must keep the real token")
	}
}

func TestParseJavaVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		output  string
		want    string
		wantErr bool
	}{
		{`java version "1.8.0_292"` + "\nJava(TM) SE Runtime Environment", "1.8.0+292", false},
		{`openjdk version "17.0.2" 2022-01-18`, "17.0.2", false},
		{`java version "1.6.0_45"`, "1.6.0+45", false},
		{"command not found", "", true},
	}
	for _, tt := range tests {
		v, err := ParseJavaVersion(tt.output)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseJavaVersion(%q) = %v; want error", tt.output, v)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseJavaVersion(%q): %v", tt.output, err)
			continue
		}
		if v.String() != tt.want {
			t.Errorf("ParseJavaVersion(%q) = %s; want %s", tt.output, v, tt.want)
		}
	}
}

func TestDetectJavaVersion(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in for java")
	}

	java := filepath.Join(t.TempDir(), "java")
	script := "#!/bin/sh\necho 'openjdk version \"11.0.12\" 2021-07-20' >&2\n"
	if err := os.WriteFile(java, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	v, err := DetectJavaVersion(context.Background(), java)
	if err != nil {
		t.Fatalf("DetectJavaVersion: %v", err)
	}
	if v.Segments()[0] != 11 {
		t.Errorf("version = %s; want 11.x", v)
	}
}
