// ABOUTME: Typed version manifest: artifact records, downloads, asset index reference
// ABOUTME: Produced by Parse at the boundary; only forge.Merge mutates a loaded Manifest

package manifest

import (
	"strings"

	"github.com/mauromedda/mclaunch-go/internal/descriptor"
	"github.com/mauromedda/mclaunch-go/internal/platform"
	"github.com/mauromedda/mclaunch-go/internal/subst"
)

// DefaultLibraryBaseURL is the repository used by libraries that name none.
const DefaultLibraryBaseURL = "https://libraries.minecraft.net/"

// Download is one downloadable file.
type Download struct {
	Path string `json:"path,omitempty"` // slash-separated, relative to the library root
	URL  string `json:"url"`
	SHA1 string `json:"sha1,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// Extract lists archive entry substrings skipped during native extraction.
type Extract struct {
	Exclude []string `json:"exclude,omitempty"`
}

// Record is one library entry of a manifest.
type Record struct {
	Name       string
	Descriptor descriptor.Descriptor

	// Main artifact; Path is empty for native-only records.
	Path        string
	URL         string
	FallbackURL string
	SHA1        string
	Size        int64

	// Repository is the base URL native classifiers are resolved against
	// when the manifest does not list them explicitly.
	Repository string

	Rules       []platform.Rule
	Natives     map[string]string // os name -> classifier template
	Classifiers map[string]Download
	Extract     *Extract

	// TwoStage marks a .pack.xz download that must be unpacked after fetch.
	TwoStage bool
	// ExistenceGuaranteed marks an artifact produced by a side channel; it
	// is never fetched.
	ExistenceGuaranteed bool
}

// HasArtifact reports whether the record has a main artifact that belongs
// on the classpath.
func (r *Record) HasArtifact() bool { return r.Path != "" }

// Applies reports whether the record is wanted on host.
func (r *Record) Applies(host platform.Host) bool {
	return platform.Allows(r.Rules, host)
}

// Artifact returns the main artifact download.
func (r *Record) Artifact() Download {
	return Download{Path: r.Path, URL: r.URL, SHA1: r.SHA1, Size: r.Size}
}

// NativeDownload resolves the native classifier for host. ok is false when
// the record carries no natives for the host OS.
func (r *Record) NativeDownload(host platform.Host) (d Download, ok bool, err error) {
	tmpl, found := r.Natives[string(host.OS)]
	if !found {
		return Download{}, false, nil
	}
	classifier, err := subst.Substitute(tmpl, subst.Bindings{"arch": host.Arch})
	if err != nil {
		return Download{}, false, err
	}
	if dl, listed := r.Classifiers[classifier]; listed {
		if dl.Path == "" {
			dl.Path = r.Descriptor.WithClassifier(classifier).RelativePath()
		}
		return dl, true, nil
	}

	nd := r.Descriptor.WithClassifier(classifier)
	base := r.Repository
	if base == "" {
		base = DefaultLibraryBaseURL
	}
	return Download{Path: nd.RelativePath(), URL: nd.URL(base)}, true, nil
}

// AssetIndexRef points at the asset index of a version.
type AssetIndexRef struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	SHA1 string `json:"sha1,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// Manifest is a launchable version.
type Manifest struct {
	ID         string
	Type       string
	MainClass  string
	Arguments  string // whitespace-separated argument template
	Assets     string
	AssetIndex *AssetIndexRef
	Client     *Download
	Libraries  []Record

	// LoaderID names the mod loader merged into this manifest, if any.
	LoaderID string
}

// ArgumentTokens splits the argument template on whitespace.
func (m *Manifest) ArgumentTokens() []string {
	return strings.Fields(m.Arguments)
}

// AssetIndexName is the index id used for the assets_index_name binding.
func (m *Manifest) AssetIndexName() string {
	switch {
	case m.AssetIndex != nil && m.AssetIndex.ID != "":
		return m.AssetIndex.ID
	case m.Assets != "":
		return m.Assets
	default:
		return "legacy"
	}
}

// Find returns the index of the record with the given group:artifact[:classifier] key.
func (m *Manifest) Find(key string) int {
	for i := range m.Libraries {
		if m.Libraries[i].Descriptor.Key() == key {
			return i
		}
	}
	return -1
}
