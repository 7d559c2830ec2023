// Package document decodes pose-contact documents from YAML or JSON into a
// generic tree of maps, sequences and scalars.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/posecontact/internal/apperr"
)

// Format selects the decoder for a document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the decoder from a file extension. ".json" selects JSON;
// every other extension is treated as YAML.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// ParseFormat maps a user-supplied format name ("json", "yaml", "yml") to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml", "":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("document: %w: %q", apperr.ErrUnsupportedFormat, name)
}

// IsDocument reports whether name carries one of the document extensions
// picked up by directory scans.
func IsDocument(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// Load reads and decodes the document at path.
func Load(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("document: read %s: %w", path, err)
	}
	return Decode(data, FormatFor(path))
}

// Decode parses raw bytes. YAML is decoded into plain values only: no custom
// tags are honoured and no Go types are constructed from the input.
// An empty document decodes to nil.
func Decode(data []byte, format Format) (any, error) {
	var tree any
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&tree); err != nil {
			return nil, fmt.Errorf("document: decode json: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("document: decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("document: %w: %q", apperr.ErrUnsupportedFormat, format)
	}
	return normalize(tree), nil
}

// normalize rewrites YAML-specific containers into their JSON equivalents so
// the tree can be handed to the schema engine unchanged.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = normalize(item)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		for i, item := range t {
			t[i] = normalize(item)
		}
		return t
	}
	return v
}
