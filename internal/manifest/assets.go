// ABOUTME: Asset index decoding and content-addressed store layout
// ABOUTME: Streaming jlexer decoder; legacy mirror names are NFC-normalised

package manifest

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/mailru/easyjson/jlexer"
	"golang.org/x/text/unicode/norm"
)

// DefaultResourcesBaseURL serves content-addressed asset objects.
const DefaultResourcesBaseURL = "https://resources.download.minecraft.net/"

// AssetObject is one entry of an asset index.
type AssetObject struct {
	Hash string
	Size int64
}

// AssetIndex maps logical asset names to content hashes.
type AssetIndex struct {
	Objects        map[string]AssetObject
	Virtual        bool
	MapToResources bool
}

// Names returns the logical names in sorted order.
func (a *AssetIndex) Names() []string {
	names := make([]string, 0, len(a.Objects))
	for n := range a.Objects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LoadAssetIndex reads and decodes an asset index file.
func LoadAssetIndex(file string) (*AssetIndex, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading asset index: %w", err)
	}
	return ParseAssetIndex(data)
}

// ParseAssetIndex decodes {"objects":{name:{"hash","size"}},"virtual","map_to_resources"}.
func ParseAssetIndex(data []byte) (*AssetIndex, error) {
	in := &jlexer.Lexer{Data: data}
	idx := &AssetIndex{Objects: make(map[string]AssetObject)}

	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		if in.IsNull() {
			in.Skip()
			in.WantComma()
			continue
		}
		switch key {
		case "objects":
			decodeObjects(in, idx.Objects)
		case "virtual":
			idx.Virtual = in.Bool()
		case "map_to_resources":
			idx.MapToResources = in.Bool()
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
	in.Consumed()

	if err := in.Error(); err != nil {
		return nil, fmt.Errorf("decoding asset index: %w", err)
	}
	for name, obj := range idx.Objects {
		if !validHash(obj.Hash) {
			return nil, fmt.Errorf("decoding asset index: object %q has invalid hash %q", name, obj.Hash)
		}
	}
	return idx, nil
}

func decodeObjects(in *jlexer.Lexer, out map[string]AssetObject) {
	in.Delim('{')
	for !in.IsDelim('}') {
		name := in.String()
		in.WantColon()

		var obj AssetObject
		in.Delim('{')
		for !in.IsDelim('}') {
			key := in.UnsafeFieldName(false)
			in.WantColon()
			switch key {
			case "hash":
				obj.Hash = in.String()
			case "size":
				obj.Size = in.Int64()
			default:
				in.SkipRecursive()
			}
			in.WantComma()
		}
		in.Delim('}')

		out[name] = obj
		in.WantComma()
	}
	in.Delim('}')
}

func validHash(h string) bool {
	if len(h) != 40 {
		return false
	}
	for i := 0; i < len(h); i++ {
		c := h[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}

// ObjectPath is the slash-separated store path of an object, relative to the assets dir.
func ObjectPath(hash string) string {
	return path.Join("objects", hash[:2], hash)
}

// ObjectURL is the download URL of an object.
func ObjectURL(base, hash string) string {
	if base == "" {
		base = DefaultResourcesBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + hash[:2] + "/" + hash
}

// LegacyPath is the slash-separated mirror path of a logical asset name,
// relative to the assets dir. It reports false for names that would leave
// the mirror directory.
func LegacyPath(name string) (string, bool) {
	clean := path.Clean("/" + norm.NFC.String(name))
	if clean == "/" {
		return "", false
	}
	return path.Join("virtual", "legacy", clean[1:]), true
}

// IndexPath is the slash-separated location of a version's index file.
func IndexPath(id string) string {
	return path.Join("indexes", id+".json")
}
