package semantic

import (
	"fmt"
	"os"

	"github.com/starford/posecontact/internal/document"
	"github.com/starford/posecontact/internal/models"
	"github.com/starford/posecontact/internal/schema"
)

const (
	notMappingMessage = "document must be a mapping"
	loadFailurePrefix = "failed to load document: "
)

// Validate runs schema validation and, only when the document conforms,
// the semantic checks. Schema issues are returned sorted by path. Semantic
// issues are returned in their natural order: anchor ownership first, then
// relations. A nil sch selects the bundled schema.
//
// The returned error signals a schema that cannot be compiled or applied;
// it is never used for findings about the document.
func Validate(doc map[string]any, sch *schema.Schema) ([]models.Issue, error) {
	if sch == nil {
		var err error
		if sch, err = schema.Bundled(); err != nil {
			return nil, err
		}
	}

	issues, err := sch.Validate(doc)
	if err != nil {
		return nil, err
	}
	if len(issues) > 0 {
		return issues, nil
	}

	ids := BuildIndex(doc)
	issues = append(issues, ValidateAnchorOwnership(doc[CollectionAnchors], ids)...)
	issues = append(issues, ValidateRelations(doc["relations"], ids)...)
	return issues, nil
}

// ValidateTree validates an already decoded document. Anything other than a
// mapping yields a single root issue.
func ValidateTree(tree any, sch *schema.Schema) ([]models.Issue, error) {
	doc, ok := tree.(map[string]any)
	if !ok {
		return []models.Issue{{Path: Path{}.String(), Message: notMappingMessage}}, nil
	}
	return Validate(doc, sch)
}

// ValidateBytes decodes data in the given format and validates the result.
// A document that cannot be decoded yields a single root issue instead of
// an error, so one unreadable file never hides findings for the others.
func ValidateBytes(data []byte, format document.Format, sch *schema.Schema) ([]models.Issue, error) {
	tree, err := document.Decode(data, format)
	if err != nil {
		return []models.Issue{{Path: Path{}.String(), Message: loadFailurePrefix + err.Error()}}, nil
	}
	return ValidateTree(tree, sch)
}

// ValidateFile reads the document at path and validates it. The decoder is
// chosen by extension.
func ValidateFile(path string, sch *schema.Schema) ([]models.Issue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("semantic: read %s: %w", path, err)
	}
	return ValidateBytes(data, document.FormatFor(path), sch)
}
