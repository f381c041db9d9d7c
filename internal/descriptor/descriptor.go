// ABOUTME: Maven-style coordinate parser: group:artifact:version[:classifier][@ext]
// ABOUTME: Renders the canonical relative storage path and remote URL for a library

package descriptor

import (
	"fmt"
	"path/filepath"
	"strings"
)

const defaultExtension = "jar"

// Error reports a coordinate string that cannot be parsed.
type Error struct {
	Raw    string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("malformed descriptor %q: %s", e.Raw, e.Reason)
}

// Descriptor identifies a single library artifact.
type Descriptor struct {
	Group      string
	Artifact   string
	Version    string
	Classifier string // optional
	Extension  string // defaults to "jar"
}

// Parse splits a colon-delimited coordinate into a Descriptor.
// Supported formats:
//   - "group:artifact:version"
//   - "group:artifact:version:classifier"
//   - either of the above with an "@ext" suffix on the last segment
func Parse(raw string) (Descriptor, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Descriptor{}, &Error{Raw: raw, Reason: "empty coordinate"}
	}

	ext := defaultExtension
	if before, after, ok := strings.Cut(s, "@"); ok {
		if after == "" || strings.ContainsAny(after, ":@/") {
			return Descriptor{}, &Error{Raw: raw, Reason: "invalid extension"}
		}
		s, ext = before, after
	}

	parts := strings.Split(s, ":")
	if len(parts) < 3 {
		return Descriptor{}, &Error{Raw: raw, Reason: fmt.Sprintf("want at least 3 segments, got %d", len(parts))}
	}
	if len(parts) > 4 {
		return Descriptor{}, &Error{Raw: raw, Reason: fmt.Sprintf("want at most 4 segments, got %d", len(parts))}
	}
	for i, p := range parts {
		if p == "" {
			return Descriptor{}, &Error{Raw: raw, Reason: fmt.Sprintf("segment %d is empty", i+1)}
		}
		if strings.ContainsAny(p, `/\`) {
			return Descriptor{}, &Error{Raw: raw, Reason: fmt.Sprintf("segment %d contains a path separator", i+1)}
		}
		if p == "." || p == ".." {
			return Descriptor{}, &Error{Raw: raw, Reason: fmt.Sprintf("segment %d is a dot path", i+1)}
		}
	}
	for _, g := range strings.Split(parts[0], ".") {
		if g == "" || g == ".." {
			return Descriptor{}, &Error{Raw: raw, Reason: "invalid group"}
		}
	}

	d := Descriptor{
		Group:     parts[0],
		Artifact:  parts[1],
		Version:   parts[2],
		Extension: ext,
	}
	if len(parts) == 4 {
		d.Classifier = parts[3]
	}
	return d, nil
}

// MustParse is Parse for compile-time constants; it panics on malformed input.
func MustParse(raw string) Descriptor {
	d, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return d
}

// String returns the coordinate in its canonical textual form.
func (d Descriptor) String() string {
	s := d.Group + ":" + d.Artifact + ":" + d.Version
	if d.Classifier != "" {
		s += ":" + d.Classifier
	}
	if d.ext() != defaultExtension {
		s += "@" + d.ext()
	}
	return s
}

// Key identifies the artifact independently of its version.
func (d Descriptor) Key() string {
	k := d.Group + ":" + d.Artifact
	if d.Classifier != "" {
		k += ":" + d.Classifier
	}
	return k
}

// WithClassifier returns a copy of d carrying the given classifier.
func (d Descriptor) WithClassifier(classifier string) Descriptor {
	d.Classifier = classifier
	return d
}

// Filename returns artifact-version[-classifier].ext.
func (d Descriptor) Filename() string {
	name := d.Artifact + "-" + d.Version
	if d.Classifier != "" {
		name += "-" + d.Classifier
	}
	return name + "." + d.ext()
}

// PathComponents returns the group segments flattened with the artifact,
// version and file name.
func (d Descriptor) PathComponents() []string {
	comps := strings.Split(d.Group, ".")
	return append(comps, d.Artifact, d.Version, d.Filename())
}

// RelativePath returns the slash-separated storage path of the artifact.
func (d Descriptor) RelativePath() string {
	return strings.Join(d.PathComponents(), "/")
}

// LocalPath joins the storage path onto a filesystem root.
func (d Descriptor) LocalPath(root string) string {
	return filepath.Join(append([]string{root}, d.PathComponents()...)...)
}

// URL returns baseURL followed by the relative storage path.
func (d Descriptor) URL(baseURL string) string {
	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return baseURL + d.RelativePath()
}

func (d Descriptor) ext() string {
	if d.Extension == "" {
		return defaultExtension
	}
	return d.Extension
}
