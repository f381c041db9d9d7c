// ABOUTME: Remote version index with an explicit owner-held cache
// ABOUTME: Initialize/Refresh/Invalidate lifecycle; unknown ids get fuzzy suggestions

package manifest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"

	lhttp "github.com/mauromedda/mclaunch-go/internal/http"
	"github.com/mauromedda/mclaunch-go/internal/log"
)

// DefaultVersionIndexURL lists every published version.
const DefaultVersionIndexURL = "https://launchermeta.mojang.com/mc/game/version_manifest.json"

// LegacyVersionsRoot serves client jars for versions whose manifest has no
// client download.
const LegacyVersionsRoot = "https://s3.amazonaws.com/Minecraft.Download/versions"

const maxSuggestions = 3

// VersionRef is one entry of the version index.
type VersionRef struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	URL         string `json:"url"`
	SHA1        string `json:"sha1,omitempty"`
	Time        string `json:"time,omitempty"`
	ReleaseTime string `json:"releaseTime,omitempty"`
}

// LegacyClientURL is the pre-launchermeta location of the client jar.
func (v VersionRef) LegacyClientURL() string {
	return fmt.Sprintf("%s/%s/%s.jar", LegacyVersionsRoot, v.ID, v.ID)
}

// VersionIndex is the decoded version_manifest.json.
type VersionIndex struct {
	Latest struct {
		Release  string `json:"release"`
		Snapshot string `json:"snapshot"`
	} `json:"latest"`
	Versions []VersionRef `json:"versions"`
}

// Get returns the entry for id. "latest" and "latest-snapshot" resolve
// through the index's latest pointers.
func (idx *VersionIndex) Get(id string) (VersionRef, bool) {
	switch id {
	case "latest":
		id = idx.Latest.Release
	case "latest-snapshot":
		id = idx.Latest.Snapshot
	}
	for _, v := range idx.Versions {
		if v.ID == id {
			return v, true
		}
	}
	return VersionRef{}, false
}

// Filter returns entries matching query, best match first. An empty query
// returns every entry of the given types (all types when none given).
func (idx *VersionIndex) Filter(query string, types ...string) []VersionRef {
	candidates := idx.Versions
	if len(types) > 0 {
		candidates = candidates[:0:0]
		for _, v := range idx.Versions {
			for _, t := range types {
				if v.Type == t {
					candidates = append(candidates, v)
					break
				}
			}
		}
	}
	if query == "" {
		return candidates
	}

	ids := make([]string, len(candidates))
	for i, v := range candidates {
		ids[i] = v.ID
	}
	matches := fuzzy.Find(query, ids)
	out := make([]VersionRef, 0, len(matches))
	for _, m := range matches {
		out = append(out, candidates[m.Index])
	}
	return out
}

// UnknownVersionError reports a version id absent from the index.
type UnknownVersionError struct {
	ID          string
	Suggestions []string
}

func (e *UnknownVersionError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("unknown version %q", e.ID)
	}
	return fmt.Sprintf("unknown version %q (did you mean %s?)", e.ID, strings.Join(e.Suggestions, ", "))
}

// IndexCache owns a lazily fetched VersionIndex.
type IndexCache struct {
	url    string
	client *http.Client

	mu    sync.Mutex
	index *VersionIndex
}

// NewIndexCache creates an empty cache over url. An empty url selects
// DefaultVersionIndexURL.
func NewIndexCache(url string, client *http.Client) *IndexCache {
	if url == "" {
		url = DefaultVersionIndexURL
	}
	if client == nil {
		client = lhttp.NewClient(0, "")
	}
	return &IndexCache{url: url, client: client}
}

// Initialize fetches the index unless it is already loaded.
func (c *IndexCache) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index != nil {
		return nil
	}
	return c.load(ctx)
}

// Refresh fetches the index unconditionally. On failure the previous
// index, if any, is kept.
func (c *IndexCache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

// Invalidate drops the loaded index.
func (c *IndexCache) Invalidate() {
	c.mu.Lock()
	c.index = nil
	c.mu.Unlock()
}

// Index returns the loaded index or nil.
func (c *IndexCache) Index() *VersionIndex {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Lookup initializes the cache if needed and resolves id.
func (c *IndexCache) Lookup(ctx context.Context, id string) (VersionRef, error) {
	if err := c.Initialize(ctx); err != nil {
		return VersionRef{}, err
	}
	idx := c.Index()
	if idx == nil {
		return VersionRef{}, fmt.Errorf("version index not loaded")
	}
	if v, ok := idx.Get(id); ok {
		return v, nil
	}

	var suggestions []string
	for _, v := range idx.Filter(id) {
		suggestions = append(suggestions, v.ID)
		if len(suggestions) == maxSuggestions {
			break
		}
	}
	return VersionRef{}, &UnknownVersionError{ID: id, Suggestions: suggestions}
}

func (c *IndexCache) load(ctx context.Context) error {
	log.Debug("manifest: fetching version index %s", c.url)
	var idx VersionIndex
	if err := lhttp.GetJSON(ctx, c.client, c.url, &idx); err != nil {
		return fmt.Errorf("fetching version index: %w", err)
	}
	c.index = &idx
	log.Debug("manifest: %d versions, latest release %s", len(idx.Versions), idx.Latest.Release)
	return nil
}
