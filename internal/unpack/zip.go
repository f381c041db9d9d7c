// ABOUTME: Zip archive extraction for native bundles and installer archives
// ABOUTME: Exclude-token filtering, path-escape rejection and temp+rename writes

package unpack

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/mauromedda/mclaunch-go/internal/log"
)

// ExtractZip extracts every entry of archive whose name contains none of
// the exclude tokens into destDir, preserving relative structure. It
// returns the written paths in archive order.
func ExtractZip(archive, destDir string, exclude []string) ([]string, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", archive, err)
	}
	defer r.Close()

	root, err := filepath.Abs(destDir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", destDir, err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", root, err)
	}

	var written []string
	for _, f := range r.File {
		if excluded(f.Name, exclude) {
			log.Debug("unpack: skipping excluded entry %s", f.Name)
			continue
		}

		target, err := entryPath(root, f.Name)
		if err != nil {
			return written, err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return written, fmt.Errorf("creating %s: %w", target, err)
			}
			continue
		}

		if err := extractEntry(f, target); err != nil {
			return written, err
		}
		log.Debug("unpack: extracted %s to %s", f.Name, target)
		written = append(written, target)
	}
	return written, nil
}

// ExtractNatives extracts a native-library bundle and deletes the source
// archive once every entry has been written.
func ExtractNatives(archive, destDir string, exclude []string) ([]string, error) {
	written, err := ExtractZip(archive, destDir, exclude)
	if err != nil {
		return written, err
	}
	if err := os.Remove(archive); err != nil {
		return written, fmt.Errorf("removing native archive %s: %w", archive, err)
	}
	return written, nil
}

// CheckZip reports whether path opens as a zip archive.
func CheckZip(path string) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("%s is not a zip archive: %w", filepath.Base(path), err)
	}
	return r.Close()
}

// ReadZipEntry returns the contents of a single named entry.
func ReadZipEntry(archive, name string) ([]byte, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", archive, err)
	}
	defer r.Close()

	f, err := findEntry(&r.Reader, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", archive, err)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening entry %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading entry %s: %w", name, err)
	}
	return data, nil
}

// CopyZipEntry writes a single named entry to dest, creating parent
// directories as needed.
func CopyZipEntry(archive, name, dest string) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("opening %s: %w", archive, err)
	}
	defer r.Close()

	f, err := findEntry(&r.Reader, name)
	if err != nil {
		return fmt.Errorf("%s: %w", archive, err)
	}
	return extractEntry(f, dest)
}

// EntryNotFoundError reports a missing archive member.
type EntryNotFoundError struct {
	Name string
}

func (e *EntryNotFoundError) Error() string {
	return fmt.Sprintf("archive entry %q not found", e.Name)
}

func findEntry(r *zip.Reader, name string) (*zip.File, error) {
	for _, f := range r.File {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, &EntryNotFoundError{Name: name}
}

func excluded(name string, exclude []string) bool {
	for _, tok := range exclude {
		if tok != "" && strings.Contains(name, tok) {
			return true
		}
	}
	return false
}

// entryPath maps an archive entry name under root, refusing names that
// would land outside it.
func entryPath(root, name string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(name))
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("archive entry %q escapes %s", name, root)
	}
	return target, nil
}

func extractEntry(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(target), err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	return writeAtomic(target, rc, f.Mode().Perm()|0o600)
}

// writeAtomic streams r into a temp file beside path and renames it into
// place, so path never holds a partial file.
func writeAtomic(path string, r io.Reader, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting mode on %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}
