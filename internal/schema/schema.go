// Package schema wraps the generic JSON-Schema engine used for structural
// validation of pose-contact documents.
package schema

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/starford/posecontact/internal/apperr"
	"github.com/starford/posecontact/internal/models"
)

//go:embed pose-contact.schema.json
var bundled []byte

// rootContext is the engine's name for the document root.
const rootContext = "(root)"

// Error types the engine emits as a summary for a failed combinator. The
// closest alternative's own errors are reported alongside them.
var combinatorErrors = map[string]struct{}{
	"number_one_of": {},
	"number_any_of": {},
	"number_all_of": {},
}

// Schema is a compiled JSON-Schema document.
type Schema struct {
	raw      []byte
	compiled *gojsonschema.Schema
}

// Bundled compiles the schema shipped with the validator.
func Bundled() (*Schema, error) {
	return Compile(bundled)
}

// BundledRaw returns the bundled schema source.
func BundledRaw() []byte {
	out := make([]byte, len(bundled))
	copy(out, bundled)
	return out
}

// LoadFile compiles the schema stored at path.
func LoadFile(path string) (*Schema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	return Compile(raw)
}

// Compile checks raw against the draft-07 metaschema and compiles it.
func Compile(raw []byte) (*Schema, error) {
	loader := gojsonschema.NewSchemaLoader()
	loader.Validate = true
	loader.Draft = gojsonschema.Draft7

	compiled, err := loader.Compile(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("schema: %w: %v", apperr.ErrInvalidSchema, err)
	}
	return &Schema{raw: raw, compiled: compiled}, nil
}

// Raw returns the schema source the Schema was compiled from.
func (s *Schema) Raw() []byte {
	return s.raw
}

// Validate checks doc against the schema and returns the normalised issues
// sorted by path. The returned error is reserved for engine failures; a
// non-conforming document is reported through issues only.
func (s *Schema) Validate(doc any) ([]models.Issue, error) {
	result, err := s.compiled.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("schema: validate: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	errs := result.Errors()
	paths := make([]string, len(errs))
	for i, e := range errs {
		paths[i] = pointer(e.Context())
	}

	var issues []models.Issue
	for i, e := range errs {
		if _, summary := combinatorErrors[e.Type()]; summary && hasDetailUnder(paths, i) {
			continue
		}
		issues = append(issues, models.Issue{Path: paths[i], Message: e.Description()})
	}
	models.SortIssues(issues)
	return issues, nil
}

// hasDetailUnder reports whether any error other than paths[idx] is located
// at or below paths[idx].
func hasDetailUnder(paths []string, idx int) bool {
	prefix := paths[idx]
	for i, p := range paths {
		if i == idx {
			continue
		}
		if prefix == "/" || p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}

// pointer converts an engine context such as "(root)/relations/0" into
// "/relations/0". The root itself becomes "/".
func pointer(ctx *gojsonschema.JsonContext) string {
	if ctx == nil {
		return "/"
	}
	p := strings.TrimPrefix(ctx.String("/"), rootContext)
	if p == "" {
		return "/"
	}
	return p
}
