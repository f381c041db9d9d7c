// ABOUTME: Instance profile (instance.yaml): the version and loader an instance runs
// ABOUTME: The instance directory is the game directory and holds bin/ with the installed files

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

// InstanceFile is the profile file name inside an instance directory.
const InstanceFile = "instance.yaml"

var instanceName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ErrInstanceExists is returned when creating over an existing profile.
var ErrInstanceExists = errors.New("instance already exists")

// Instance is one game installation.
type Instance struct {
	Name     string `yaml:"name"`
	Version  string `yaml:"version"`
	Forge    string `yaml:"forge,omitempty"`
	MemoryMB int    `yaml:"memory_mb,omitempty"`
	JavaPath string `yaml:"java_path,omitempty"`

	// Dir is the game directory; it is not stored.
	Dir string `yaml:"-"`
}

// BinDir holds minecraft.json, the game jar, modloader.json and natives/.
func (i *Instance) BinDir() string {
	return filepath.Join(i.Dir, "bin")
}

// Apply overlays the instance's own memory and java settings onto s.
func (i *Instance) Apply(s *Settings) *Settings {
	return merge(s, &Settings{MemoryMB: i.MemoryMB, JavaPath: expandEnv(i.JavaPath)})
}

// ValidateName reports whether name can be used as a directory name.
func ValidateName(name string) error {
	if !instanceName.MatchString(name) {
		return fmt.Errorf("invalid instance name %q", name)
	}
	return nil
}

// CreateInstance writes a new profile in dir.
func CreateInstance(dir, name, version string) (*Instance, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if _, err := os.Stat(filepath.Join(dir, InstanceFile)); err == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrInstanceExists)
	}
	inst := &Instance{Name: name, Version: version, Dir: dir}
	if err := inst.Save(); err != nil {
		return nil, err
	}
	return inst, nil
}

// LoadInstance reads the profile in dir.
func LoadInstance(dir string) (*Instance, error) {
	data, err := os.ReadFile(filepath.Join(dir, InstanceFile))
	if err != nil {
		return nil, fmt.Errorf("reading instance: %w", err)
	}
	var inst Instance
	if err := yaml.Unmarshal(data, &inst); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", InstanceFile, err)
	}
	if inst.Version == "" {
		return nil, fmt.Errorf("%s: version is required", filepath.Join(dir, InstanceFile))
	}
	inst.Dir = dir
	return &inst, nil
}

// Save writes the profile to its directory.
func (i *Instance) Save() error {
	if err := os.MkdirAll(i.Dir, 0o755); err != nil {
		return fmt.Errorf("creating instance dir: %w", err)
	}
	data, err := yaml.Marshal(i)
	if err != nil {
		return fmt.Errorf("marshaling instance: %w", err)
	}
	if err := os.WriteFile(filepath.Join(i.Dir, InstanceFile), data, 0o644); err != nil {
		return fmt.Errorf("writing instance: %w", err)
	}
	return nil
}

// ListInstances returns the names of instances under InstancesDir, sorted.
func ListInstances() ([]string, error) {
	entries, err := os.ReadDir(InstancesDir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(InstancesDir(), e.Name(), InstanceFile)); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
