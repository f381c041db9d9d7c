// ABOUTME: Two-stage library decompression: .pack.xz -> .pack -> .jar
// ABOUTME: xz via ulikunitz/xz; pack200 delegated to a Pack200 implementation

package unpack

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/mauromedda/mclaunch-go/internal/log"
)

const (
	PackXZSuffix = ".pack.xz"
	PackSuffix   = ".pack"
)

// Pack200 turns a pack200 stream into a jar.
type Pack200 interface {
	Unpack(ctx context.Context, pack, jar string) error
}

// Unpack200Tool runs the JDK's unpack200 executable.
type Unpack200Tool struct {
	Binary string // defaults to "unpack200" on PATH
}

// ErrNoUnpack200 is returned when no unpack200 binary can be found.
var ErrNoUnpack200 = errors.New("unpack200 not found (it ships with JDK 8 and earlier)")

func (t Unpack200Tool) Unpack(ctx context.Context, pack, jar string) error {
	bin := t.Binary
	if bin == "" {
		bin = "unpack200"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoUnpack200, err)
	}

	cmd := exec.CommandContext(ctx, path, pack, jar)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("unpack200 %s: %w: %s", filepath.Base(pack), err, out)
	}
	return nil
}

// DecompressXZ decompresses src into dst.
func DecompressXZ(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer in.Close()

	xzr, err := xz.NewReader(in)
	if err != nil {
		return fmt.Errorf("xz reader: %w", err)
	}
	if err := writeAtomic(dst, xzr, 0o644); err != nil {
		return fmt.Errorf("xz decompress: %w", err)
	}
	return nil
}

// UnpackCompressedLibrary turns the xz-compressed pack200 stream at packXZ
// into a jar at jar. The jar appears only once it is complete; both
// intermediates are removed whatever the outcome.
func UnpackCompressedLibrary(ctx context.Context, packXZ, jar string, p Pack200) error {
	if p == nil {
		return errors.New("unpack: no pack200 implementation configured")
	}

	pack := strings.TrimSuffix(packXZ, ".xz")
	if pack == packXZ {
		pack = packXZ + PackSuffix
	}
	defer os.Remove(packXZ)
	defer os.Remove(pack)

	log.Debug("unpack: xz %s", packXZ)
	if err := DecompressXZ(packXZ, pack); err != nil {
		return fmt.Errorf("unpacking %s: %w", filepath.Base(jar), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(jar), "."+filepath.Base(jar)+".unpack-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", jar, err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	log.Debug("unpack: pack200 %s", pack)
	if err := p.Unpack(ctx, pack, tmpPath); err != nil {
		return fmt.Errorf("unpacking %s: %w", filepath.Base(jar), err)
	}
	if err := os.Rename(tmpPath, jar); err != nil {
		return fmt.Errorf("renaming into %s: %w", jar, err)
	}
	return nil
}
