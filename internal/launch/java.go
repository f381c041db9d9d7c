// ABOUTME: Java runtime version detection from `java -version` output
// ABOUTME: Versions are compared with hashicorp/go-version after normalising update suffixes

package launch

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	version "github.com/hashicorp/go-version"

	"github.com/mauromedda/mclaunch-go/internal/log"
)

var versionLine = regexp.MustCompile(`version "([^"]+)"`)

// ParseJavaVersion extracts the runtime version from `java -version`
// output. "1.8.0_292" is read as 1.8.0 with build metadata 292.
func ParseJavaVersion(output string) (*version.Version, error) {
	m := versionLine.FindStringSubmatch(output)
	if m == nil {
		return nil, fmt.Errorf("no version string in java output %q", strings.TrimSpace(output))
	}
	raw := strings.Replace(m[1], "_", "+", 1)
	v, err := version.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing java version %q: %w", m[1], err)
	}
	return v, nil
}

// DetectJavaVersion runs javaPath -version and parses the result.
func DetectJavaVersion(ctx context.Context, javaPath string) (*version.Version, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, javaPath, "-version")
	// the JVM prints its banner on stderr
	cmd.Stderr = &out
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("running %s -version: %w", javaPath, err)
	}
	v, err := ParseJavaVersion(out.String())
	if err != nil {
		return nil, err
	}
	log.Debug("launch: %s is java %s", javaPath, v)
	return v, nil
}
