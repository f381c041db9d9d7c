// ABOUTME: Standard filesystem paths for mclaunch data and configuration
// ABOUTME: Resolves ~/.mclaunch/ (or $MCLAUNCH_HOME) and the per-instance layout

package config

import (
	"os"
	"path/filepath"
)

const (
	globalDirName = ".mclaunch"
	// HomeEnv overrides the global directory.
	HomeEnv = "MCLAUNCH_HOME"
)

// GlobalDir returns the data root (~/.mclaunch/ unless MCLAUNCH_HOME is set).
func GlobalDir() string {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", globalDirName)
	}
	return filepath.Join(home, globalDirName)
}

// LibrariesDir is the library cache shared by all instances.
func LibrariesDir() string {
	return filepath.Join(GlobalDir(), "libraries")
}

// AssetsDir is the asset store shared by all instances.
func AssetsDir() string {
	return filepath.Join(GlobalDir(), "assets")
}

// CacheDir holds downloaded installers.
func CacheDir() string {
	return filepath.Join(GlobalDir(), "cache")
}

// InstancesDir holds one directory per instance.
func InstancesDir() string {
	return filepath.Join(GlobalDir(), "instances")
}

// InstanceDir returns the game directory of the named instance.
func InstanceDir(name string) string {
	return filepath.Join(InstancesDir(), name)
}

// AuthFile returns the path to the stored login identity.
func AuthFile() string {
	return filepath.Join(GlobalDir(), "auth.json")
}

// GlobalSettingsFile returns the path to the global settings file.
func GlobalSettingsFile() string {
	return filepath.Join(GlobalDir(), "settings.json")
}

// InstanceSettingsFile returns the settings override of an instance.
func InstanceSettingsFile(instanceDir string) string {
	return filepath.Join(instanceDir, "settings.json")
}

// EnsureDir creates a directory and all parents if they don't exist.
// Uses 0o700 since the root holds the login identity.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o700)
}
