// ABOUTME: Forge promotions lookup with an explicit owner-held cache
// ABOUTME: Recommended-then-latest version selection and installer download

package forge

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mauromedda/mclaunch-go/internal/fetch"
	lhttp "github.com/mauromedda/mclaunch-go/internal/http"
	"github.com/mauromedda/mclaunch-go/internal/log"
)

const (
	DefaultPromotionsURL = "https://files.minecraftforge.net/maven/net/minecraftforge/forge/promotions_slim.json"
	DefaultMavenURL      = "https://maven.minecraftforge.net/net/minecraftforge/forge/"
)

// Promotions is the decoded promotions_slim.json.
type Promotions struct {
	Homepage string            `json:"homepage"`
	Promos   map[string]string `json:"promos"`
}

// NoPromotionError reports a game version without a recommended or latest build.
type NoPromotionError struct {
	Minecraft string
}

func (e *NoPromotionError) Error() string {
	return fmt.Sprintf("no forge build promoted for minecraft %s", e.Minecraft)
}

// Recommended returns the recommended build for mc, falling back to the
// latest build.
func (p *Promotions) Recommended(mc string) (string, error) {
	for _, key := range []string{mc + "-recommended", mc + "-latest"} {
		if v := p.Promos[key]; v != "" {
			log.Debug("forge: %s -> %s", key, v)
			return v, nil
		}
	}
	return "", &NoPromotionError{Minecraft: mc}
}

// PromotionsCache owns a lazily fetched Promotions document.
type PromotionsCache struct {
	url    string
	client *http.Client

	mu     sync.Mutex
	promos *Promotions
}

// NewPromotionsCache creates an empty cache over url. An empty url selects
// DefaultPromotionsURL.
func NewPromotionsCache(url string, client *http.Client) *PromotionsCache {
	if url == "" {
		url = DefaultPromotionsURL
	}
	if client == nil {
		client = lhttp.NewClient(0, "")
	}
	return &PromotionsCache{url: url, client: client}
}

// Initialize fetches the promotions unless already loaded.
func (c *PromotionsCache) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.promos != nil {
		return nil
	}
	return c.load(ctx)
}

// Refresh fetches the promotions unconditionally.
func (c *PromotionsCache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

// Invalidate drops the loaded promotions.
func (c *PromotionsCache) Invalidate() {
	c.mu.Lock()
	c.promos = nil
	c.mu.Unlock()
}

// Promotions initializes the cache if needed and returns its document.
func (c *PromotionsCache) Promotions(ctx context.Context) (*Promotions, error) {
	if err := c.Initialize(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.promos == nil {
		return nil, fmt.Errorf("forge promotions not loaded")
	}
	return c.promos, nil
}

func (c *PromotionsCache) load(ctx context.Context) error {
	log.Info("forge: fetching promotions from %s", c.url)
	var p Promotions
	if err := lhttp.GetJSON(ctx, c.client, c.url, &p); err != nil {
		return fmt.Errorf("fetching forge promotions: %w", err)
	}
	if p.Promos == nil {
		p.Promos = map[string]string{}
	}
	c.promos = &p
	return nil
}

// BuildVersion is the forge version string used in installer paths.
// 1.7.10 builds carry the game version as a suffix.
func BuildVersion(mc, forgeVersion string) string {
	if mc == "1.7.10" && !strings.HasSuffix(forgeVersion, "-1.7.10") {
		return forgeVersion + "-1.7.10"
	}
	return forgeVersion
}

// InstallerURL is the installer jar URL for a game and forge version.
func InstallerURL(mavenBase, mc, forgeVersion string) string {
	if mavenBase == "" {
		mavenBase = DefaultMavenURL
	}
	if !strings.HasSuffix(mavenBase, "/") {
		mavenBase += "/"
	}
	v := mc + "-" + BuildVersion(mc, forgeVersion)
	return mavenBase + v + "/forge-" + v + "-installer.jar"
}

// Downloader fetches installers for promoted builds.
type Downloader struct {
	Fetcher    *fetch.Fetcher
	Promotions *PromotionsCache
	MavenURL   string
}

// DownloadInstaller fetches the installer for forgeVersion, or for the
// promoted build when forgeVersion is empty, into dir and returns its path.
func (d *Downloader) DownloadInstaller(ctx context.Context, mc, forgeVersion, dir string) (string, error) {
	if forgeVersion == "" {
		promos, err := d.Promotions.Promotions(ctx)
		if err != nil {
			return "", err
		}
		if forgeVersion, err = promos.Recommended(mc); err != nil {
			return "", err
		}
	}

	url := InstallerURL(d.MavenURL, mc, forgeVersion)
	dest := filepath.Join(dir, fmt.Sprintf("forge-%s-%s-installer.jar", mc, BuildVersion(mc, forgeVersion)))
	log.Info("forge: downloading %s", url)

	if _, err := d.Fetcher.Fetch(ctx, fetch.Request{Name: "forge installer " + forgeVersion, URL: url, Dest: dest}); err != nil {
		return "", err
	}
	return dest, nil
}
