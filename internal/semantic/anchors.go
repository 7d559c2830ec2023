package semantic

import "github.com/starford/posecontact/internal/models"

// ownerCollections maps an anchor's owner_kind to the collection its owner
// must resolve in. Other owner kinds are left to the schema.
var ownerCollections = map[string]string{
	"object":  CollectionObjects,
	"surface": CollectionSurfaces,
}

// ValidateAnchorOwnership checks that every anchor's owner is declared in
// the collection named by its owner_kind.
func ValidateAnchorOwnership(anchors any, ids Index) []models.Issue {
	var issues []models.Issue
	base := Path{CollectionAnchors}
	for i, item := range sequence(anchors) {
		anchor, ok := item.(map[string]any)
		if !ok {
			continue
		}
		ownerKind, _ := anchor["owner_kind"].(string)
		collection, checked := ownerCollections[ownerKind]
		if !checked {
			continue
		}
		owner := anchor["owner"]
		if !ids.Contains(collection, owner) {
			issues = append(issues, issueAt(base.Index(i).Child("owner"), "unknown %s id '%s'", ownerKind, display(owner)))
		}
	}
	return issues
}
