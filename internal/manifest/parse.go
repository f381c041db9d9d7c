// ABOUTME: Validating parse of version JSON into typed Manifest records
// ABOUTME: Rejects malformed shapes at load time instead of deep inside fetch or launch

package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mauromedda/mclaunch-go/internal/descriptor"
	"github.com/mauromedda/mclaunch-go/internal/platform"
)

// ParseError reports a manifest that failed validation.
type ParseError struct {
	Source string
	Field  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("manifest %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("manifest %s: %s: %v", e.Source, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

type rawManifest struct {
	ID                 string         `json:"id"`
	Type               string         `json:"type"`
	MainClass          string         `json:"mainClass"`
	MinecraftArguments string         `json:"minecraftArguments"`
	Arguments          *rawArguments  `json:"arguments"`
	Assets             string         `json:"assets"`
	AssetIndex         *AssetIndexRef `json:"assetIndex"`
	Downloads          rawDownloads   `json:"downloads"`
	Libraries          []rawLibrary   `json:"libraries"`
}

type rawArguments struct {
	Game []json.RawMessage `json:"game"`
}

type rawDownloads struct {
	Client *Download `json:"client"`
}

type rawLibrary struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	Downloads *struct {
		Artifact    *Download           `json:"artifact"`
		Classifiers map[string]Download `json:"classifiers"`
	} `json:"downloads"`
	Rules   []rawRule         `json:"rules"`
	Natives map[string]string `json:"natives"`
	Extract *Extract          `json:"extract"`
}

type rawRule struct {
	Action string             `json:"action"`
	OS     *platform.OSClause `json:"os"`
}

// Load reads and parses a version JSON file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return parse(data, path)
}

// Parse decodes and validates version JSON.
func Parse(data []byte) (*Manifest, error) {
	return parse(data, "<input>")
}

func parse(data []byte, source string) (*Manifest, error) {
	var raw rawManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}

	if raw.ID == "" {
		return nil, &ParseError{Source: source, Field: "id", Err: errMissing}
	}
	if raw.MainClass == "" {
		return nil, &ParseError{Source: source, Field: "mainClass", Err: errMissing}
	}

	m := &Manifest{
		ID:         raw.ID,
		Type:       raw.Type,
		MainClass:  raw.MainClass,
		Arguments:  raw.MinecraftArguments,
		Assets:     raw.Assets,
		AssetIndex: raw.AssetIndex,
		Client:     raw.Downloads.Client,
	}
	if m.Arguments == "" && raw.Arguments != nil {
		m.Arguments = gameArguments(raw.Arguments.Game)
	}

	m.Libraries = make([]Record, 0, len(raw.Libraries))
	for i, lib := range raw.Libraries {
		rec, err := convertLibrary(lib)
		if err != nil {
			return nil, &ParseError{Source: source, Field: fmt.Sprintf("libraries[%d]", i), Err: err}
		}
		m.Libraries = append(m.Libraries, rec)
	}
	return m, nil
}

var errMissing = errors.New("required field missing")

// gameArguments keeps the unconditional string entries of arguments.game.
func gameArguments(entries []json.RawMessage) string {
	var tokens []string
	for _, e := range entries {
		var s string
		if err := json.Unmarshal(e, &s); err == nil {
			tokens = append(tokens, s)
		}
	}
	return strings.Join(tokens, " ")
}

func convertLibrary(lib rawLibrary) (Record, error) {
	d, err := descriptor.Parse(lib.Name)
	if err != nil {
		return Record{}, err
	}

	rules, err := convertRules(lib.Rules)
	if err != nil {
		return Record{}, err
	}

	base := lib.URL
	if base == "" {
		base = DefaultLibraryBaseURL
	}

	rec := Record{
		Name:       lib.Name,
		Descriptor: d,
		Repository: base,
		Rules:      rules,
		Natives:    lib.Natives,
		Extract:    lib.Extract,
	}

	switch {
	case lib.Downloads != nil:
		rec.Classifiers = lib.Downloads.Classifiers
		if a := lib.Downloads.Artifact; a != nil {
			rec.Path = a.Path
			if rec.Path == "" {
				rec.Path = d.RelativePath()
			}
			rec.URL = a.URL
			if rec.URL == "" {
				rec.URL = d.URL(base)
			}
			rec.SHA1 = a.SHA1
			rec.Size = a.Size
		}
	case len(lib.Natives) == 0:
		rec.Path = d.RelativePath()
		rec.URL = d.URL(base)
	}
	return rec, nil
}

func convertRules(raw []rawRule) ([]platform.Rule, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	rules := make([]platform.Rule, 0, len(raw))
	for _, r := range raw {
		action, err := platform.ParseAction(r.Action)
		if err != nil {
			return nil, err
		}
		rules = append(rules, platform.Rule{Action: action, OS: r.OS})
	}
	return rules, nil
}
