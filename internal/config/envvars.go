// ABOUTME: Environment variable expansion in settings string fields
// ABOUTME: Replaces ${VAR} patterns with os.Getenv values; unset vars become empty

package config

import (
	"os"
	"regexp"
)

var envVarPattern = regexp.MustCompile(`\$\{(\w+)\}`)

// ResolveEnvVars expands ${VAR} patterns in the path and URL fields of s.
func ResolveEnvVars(s *Settings) {
	for _, f := range []*string{
		&s.JavaPath,
		&s.LibraryBaseURL,
		&s.ResourcesBaseURL,
		&s.VersionManifestURL,
		&s.ForgePromotionsURL,
		&s.ForgeMavenURL,
		&s.AuthURL,
	} {
		*f = expandEnv(*f)
	}
}

// expandEnv replaces ${VAR} with os.Getenv(VAR). Unset vars become "".
func expandEnv(s string) string {
	if s == "" {
		return s
	}
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
