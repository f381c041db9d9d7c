// ABOUTME: Builds the JVM argument vector for an installed version and an authenticated session
// ABOUTME: Never spawns the process; the plan is handed to the caller

package launch

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	version "github.com/hashicorp/go-version"

	"github.com/mauromedda/mclaunch-go/internal/auth"
	"github.com/mauromedda/mclaunch-go/internal/classpath"
	"github.com/mauromedda/mclaunch-go/internal/install"
	"github.com/mauromedda/mclaunch-go/internal/log"
	"github.com/mauromedda/mclaunch-go/internal/manifest"
	"github.com/mauromedda/mclaunch-go/internal/platform"
	"github.com/mauromedda/mclaunch-go/internal/subst"
)

const (
	// LargeHeapMB is the heap size from which a collector is chosen explicitly.
	LargeHeapMB = 4096

	heapDumpFlag = "-XX:HeapDumpPath=MojangTricksIntelDriversForPerformance_javaw.exe_minecraft.exe.heapdump"
)

var g1Minimum = version.Must(version.NewVersion("1.7"))

// UnsupportedPlatformError is returned for hosts without a known command line.
type UnsupportedPlatformError struct {
	OS platform.OS
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("launching on %q is not supported", e.OS)
}

// Options describes where the game lives and how to run it.
type Options struct {
	BinDir      string
	GameDir     string
	AssetsDir   string
	LibraryRoot string
	JavaPath    string
	MemoryMB    int
	Host        platform.Host

	// JavaVersion skips detection when set.
	JavaVersion *version.Version
}

// Plan is a ready-to-run command line.
type Plan struct {
	Executable string
	JVMOptions []string
	Classpath  []string
	Separator  string
	MainClass  string
	GameArgs   []string

	secrets []string
}

// Argv returns the full argument vector, executable first.
func (p *Plan) Argv() []string {
	argv := make([]string, 0, len(p.JVMOptions)+len(p.GameArgs)+4)
	argv = append(argv, p.Executable)
	argv = append(argv, p.JVMOptions...)
	argv = append(argv, "-cp", strings.Join(p.Classpath, p.Separator), p.MainClass)
	return append(argv, p.GameArgs...)
}

// Redacted is Argv with session secrets masked, for display.
func (p *Plan) Redacted() []string {
	argv := p.Argv()
	for i, arg := range argv {
		for _, s := range p.secrets {
			if s != "" {
				arg = strings.ReplaceAll(arg, s, "<redacted>")
			}
		}
		argv[i] = arg
	}
	return argv
}

// Command prepares, but does not start, the process in dir.
func (p *Plan) Command(ctx context.Context, dir string) *exec.Cmd {
	argv := p.Argv()
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	return cmd
}

// Build assembles the launch plan for m. The session must be authenticated.
func Build(ctx context.Context, s *auth.Session, m *manifest.Manifest, opts Options) (*Plan, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}
	if opts.JavaPath == "" {
		return nil, fmt.Errorf("launch: no java executable configured")
	}
	if opts.MemoryMB <= 0 {
		return nil, fmt.Errorf("launch: invalid memory size %d MB", opts.MemoryMB)
	}
	gameDir, err := filepath.Abs(opts.GameDir)
	if err != nil {
		return nil, fmt.Errorf("resolving game directory: %w", err)
	}

	p := &Plan{
		Executable: opts.JavaPath,
		MainClass:  m.MainClass,
		Separator:  opts.Host.PathListSeparator(),
		secrets:    []string{s.AccessToken},
	}

	switch opts.Host.OS {
	case platform.Windows:
		p.JVMOptions = append(p.JVMOptions, heapDumpFlag)
	case platform.Linux:
	default:
		return nil, &UnsupportedPlatformError{OS: opts.Host.OS}
	}

	mem := strconv.Itoa(opts.MemoryMB)
	p.JVMOptions = append(p.JVMOptions, "-Xms"+mem+"m", "-Xmx"+mem+"m")
	gc, err := gcFlags(ctx, opts)
	if err != nil {
		return nil, err
	}
	p.JVMOptions = append(p.JVMOptions, gc...)

	p.JVMOptions = append(p.JVMOptions,
		"-Djava.library.path="+filepath.Join(opts.BinDir, install.NativesDir),
		"-Dminecraft.applet.TargetDirectory="+gameDir,
		"-Djava.net.preferIPv4Stack=true",
	)

	p.Classpath, err = classpath.Build(m, classpath.Options{
		BinDir:      opts.BinDir,
		LibraryRoot: opts.LibraryRoot,
		Host:        opts.Host,
	})
	if err != nil {
		return nil, err
	}

	p.GameArgs, err = subst.SubstituteAll(m.ArgumentTokens(), bindings(s, m, gameDir, opts.AssetsDir))
	if err != nil {
		return nil, fmt.Errorf("game arguments of %s: %w", m.ID, err)
	}
	log.Debug("launch: %s with %d jvm options and %d game arguments", m.ID, len(p.JVMOptions), len(p.GameArgs))
	return p, nil
}

func gcFlags(ctx context.Context, opts Options) ([]string, error) {
	if opts.MemoryMB < LargeHeapMB {
		return nil, nil
	}
	v := opts.JavaVersion
	if v == nil {
		var err error
		if v, err = DetectJavaVersion(ctx, opts.JavaPath); err != nil {
			return nil, err
		}
	}
	if v.GreaterThanOrEqual(g1Minimum) {
		return []string{"-XX:+UseG1GC", "-XX:MaxGCPauseMillis=4"}, nil
	}
	return []string{"-XX:+UseConcMarkSweepGC"}, nil
}

func bindings(s *auth.Session, m *manifest.Manifest, gameDir, assetsDir string) subst.Bindings {
	return subst.Bindings{
		"auth_player_name":  s.Selected.Name,
		"auth_uuid":         s.Selected.ID,
		"auth_username":     s.Username,
		"auth_session":      s.SessionID(),
		"auth_access_token": s.AccessToken,
		"version_name":      m.ID,
		"version_type":      m.Type,
		"game_directory":    gameDir,
		"assets_root":       assetsDir,
		"game_assets":       filepath.Join(assetsDir, "virtual", "legacy"),
		"user_type":         s.Selected.UserType(),
		"user_properties":   "{}",
		"assets_index_name": m.AssetIndexName(),
	}
}
