// ABOUTME: Legacy Forge installer profile (install_profile.json) reading and persistence
// ABOUTME: ExtractLoader materialises the loader jar that merged manifests never fetch

package forge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mauromedda/mclaunch-go/internal/descriptor"
	"github.com/mauromedda/mclaunch-go/internal/log"
	"github.com/mauromedda/mclaunch-go/internal/unpack"
)

// ProfileEntry is the name of the profile inside an installer archive.
const ProfileEntry = "install_profile.json"

// LegacyLibrary is one versionInfo.libraries entry.
type LegacyLibrary struct {
	Name      string   `json:"name"`
	URL       string   `json:"url,omitempty"`
	Checksums []string `json:"checksums,omitempty"`
	ClientReq *bool    `json:"clientreq,omitempty"`
	ServerReq *bool    `json:"serverreq,omitempty"`
}

// WantedByClient reports whether the client needs the library. An absent
// flag means yes.
func (l LegacyLibrary) WantedByClient() bool {
	return l.ClientReq == nil || *l.ClientReq
}

// Install is the installer's own metadata.
type Install struct {
	ProfileName string `json:"profileName,omitempty"`
	Target      string `json:"target,omitempty"`
	Path        string `json:"path"` // loader coordinate
	Version     string `json:"version,omitempty"`
	FilePath    string `json:"filePath"` // loader jar inside the installer
	Minecraft   string `json:"minecraft,omitempty"`
}

// VersionInfo is the manifest fragment folded into the game manifest.
type VersionInfo struct {
	ID                 string          `json:"id"`
	Type               string          `json:"type,omitempty"`
	MainClass          string          `json:"mainClass"`
	MinecraftArguments string          `json:"minecraftArguments"`
	InheritsFrom       string          `json:"inheritsFrom,omitempty"`
	Libraries          []LegacyLibrary `json:"libraries"`
}

// InstallProfile is the decoded install_profile.json.
type InstallProfile struct {
	Install     Install     `json:"install"`
	VersionInfo VersionInfo `json:"versionInfo"`
}

// Loader returns the parsed loader coordinate.
func (p *InstallProfile) Loader() (descriptor.Descriptor, error) {
	return descriptor.Parse(p.Install.Path)
}

// ParseInstallProfile decodes and validates profile JSON.
func ParseInstallProfile(data []byte) (*InstallProfile, error) {
	var p InstallProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding install profile: %w", err)
	}
	if p.Install.Path == "" || p.Install.FilePath == "" {
		return nil, fmt.Errorf("install profile: install.path and install.filePath are required")
	}
	if _, err := p.Loader(); err != nil {
		return nil, fmt.Errorf("install profile: %w", err)
	}
	if p.VersionInfo.MainClass == "" {
		return nil, fmt.Errorf("install profile: versionInfo.mainClass is required")
	}
	return &p, nil
}

// ReadInstallProfile reads the profile from an installer archive.
func ReadInstallProfile(installer string) (*InstallProfile, error) {
	data, err := unpack.ReadZipEntry(installer, ProfileEntry)
	if err != nil {
		return nil, err
	}
	return ParseInstallProfile(data)
}

// LoadInstallProfile reads a profile previously written with Save.
func LoadInstallProfile(path string) (*InstallProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseInstallProfile(data)
}

// Save writes the profile as JSON using a temp file + rename.
func (p *InstallProfile) Save(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling install profile: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing install profile: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming install profile: %w", err)
	}
	return nil
}

// ExtractLoader copies the loader jar out of the installer to its library
// path under libraryRoot and returns that path.
func ExtractLoader(installer string, p *InstallProfile, libraryRoot string) (string, error) {
	d, err := p.Loader()
	if err != nil {
		return "", err
	}
	dest := d.LocalPath(libraryRoot)
	log.Debug("forge: extracting %s to %s", p.Install.FilePath, dest)
	if err := unpack.CopyZipEntry(installer, p.Install.FilePath, dest); err != nil {
		return "", fmt.Errorf("extracting loader: %w", err)
	}
	return dest, nil
}
