// ABOUTME: Streaming SHA-1 digest and size checks for downloaded artifacts
// ABOUTME: Files are hashed through io.Copy so memory use is constant

package fetch

import (
	"crypto/sha1" //nolint:gosec // manifests publish SHA-1 digests
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrEmpty is returned for a zero-length artifact.
var ErrEmpty = errors.New("file is empty")

// HashFile returns the hex SHA-1 digest of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer f.Close()

	h := sha1.New() //nolint:gosec
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyFile checks that path exists and is non-empty, that its size equals
// size when size > 0, and that its digest equals sha1Hex when given.
func VerifyFile(path, sha1Hex string, size int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}
	if info.Size() == 0 {
		return ErrEmpty
	}
	if size > 0 && info.Size() != size {
		return fmt.Errorf("size mismatch: expected %d, got %d", size, info.Size())
	}
	if sha1Hex == "" {
		return nil
	}

	got, err := HashFile(path)
	if err != nil {
		return err
	}
	if !strings.EqualFold(got, sha1Hex) {
		return fmt.Errorf("hash mismatch: expected %s, got %s", sha1Hex, got)
	}
	return nil
}
