// ABOUTME: Settings loading with defaults, global and per-instance JSONC files
// ABOUTME: Non-zero instance values override global ones; ${VAR} expanded after merge

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
)

// Duration is a time.Duration read from a string such as "90s" or "30m".
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"60s\": %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Settings holds the merged configuration.
type Settings struct {
	JavaPath        string   `json:"java_path,omitempty"`
	MemoryMB        int      `json:"memory_mb,omitempty"`
	Workers         int      `json:"workers,omitempty"`
	MaxAttempts     int      `json:"max_attempts,omitempty"`
	RequestTimeout  Duration `json:"request_timeout,omitempty"`
	InstallDeadline Duration `json:"install_deadline,omitempty"`

	LibraryBaseURL     string `json:"library_base_url,omitempty"`
	ResourcesBaseURL   string `json:"resources_base_url,omitempty"`
	VersionManifestURL string `json:"version_manifest_url,omitempty"`
	ForgePromotionsURL string `json:"forge_promotions_url,omitempty"`
	ForgeMavenURL      string `json:"forge_maven_url,omitempty"`
	AuthURL            string `json:"auth_url,omitempty"`

	LogLevel string `json:"log_level,omitempty"`
}

// Defaults returns the built-in settings.
func Defaults() *Settings {
	return &Settings{
		JavaPath:        "java",
		MemoryMB:        2048,
		Workers:         8,
		MaxAttempts:     5,
		RequestTimeout:  Duration(60 * time.Second),
		InstallDeadline: Duration(30 * time.Minute),
		LogLevel:        "info",
	}
}

// Load reads the global settings and, when instanceDir is not empty, the
// instance override, layered over Defaults.
func Load(instanceDir string) (*Settings, error) {
	global, err := loadFile(GlobalSettingsFile())
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading global settings: %w", err)
	}
	merged := merge(Defaults(), global)

	if instanceDir != "" {
		inst, err := loadFile(InstanceSettingsFile(instanceDir))
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading instance settings: %w", err)
		}
		merged = merge(merged, inst)
	}

	ResolveEnvVars(merged)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

// Validate rejects values no component can work with.
func (s *Settings) Validate() error {
	var problems []string
	if s.MemoryMB < 256 {
		problems = append(problems, fmt.Sprintf("memory_mb %d is below 256", s.MemoryMB))
	}
	if s.Workers < 1 {
		problems = append(problems, "workers must be at least 1")
	}
	if s.MaxAttempts < 1 {
		problems = append(problems, "max_attempts must be at least 1")
	}
	if s.RequestTimeout <= 0 {
		problems = append(problems, "request_timeout must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid settings: %s", strings.Join(problems, "; "))
	}
	return nil
}

// loadFile reads Settings from a JSONC file. Comments and trailing commas
// are allowed.
func loadFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return &Settings{}, err
	}
	var s Settings
	if err := json.Unmarshal(jsonc.ToJSON(data), &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &s, nil
}

// merge overlays non-zero values of over onto base.
func merge(base, over *Settings) *Settings {
	if base == nil {
		base = &Settings{}
	}
	if over == nil {
		return base
	}

	result := *base
	str := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	num := func(dst *int, v int) {
		if v != 0 {
			*dst = v
		}
	}

	str(&result.JavaPath, over.JavaPath)
	num(&result.MemoryMB, over.MemoryMB)
	num(&result.Workers, over.Workers)
	num(&result.MaxAttempts, over.MaxAttempts)
	if over.RequestTimeout != 0 {
		result.RequestTimeout = over.RequestTimeout
	}
	if over.InstallDeadline != 0 {
		result.InstallDeadline = over.InstallDeadline
	}
	str(&result.LibraryBaseURL, over.LibraryBaseURL)
	str(&result.ResourcesBaseURL, over.ResourcesBaseURL)
	str(&result.VersionManifestURL, over.VersionManifestURL)
	str(&result.ForgePromotionsURL, over.ForgePromotionsURL)
	str(&result.ForgeMavenURL, over.ForgeMavenURL)
	str(&result.AuthURL, over.AuthURL)
	str(&result.LogLevel, over.LogLevel)
	return &result
}
