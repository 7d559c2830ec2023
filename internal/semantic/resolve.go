package semantic

import "github.com/starford/posecontact/internal/models"

// Kind is the tag of an entity reference.
type Kind string

// Entity reference kinds. KindNone marks a reference with no kind field, or
// one that is not a mapping; it is compatible with every predicate.
// KindInvalid marks a kind field that is present but not a non-empty
// string; it satisfies no pairing rule.
const (
	KindNone     Kind = ""
	KindInvalid  Kind = "<invalid>"
	KindBodyPart Kind = "body_part"
	KindObject   Kind = "object"
	KindSurface  Kind = "surface"
	KindAnchor   Kind = "anchor"
)

// target names the field holding the referenced identifier, the collection
// it must resolve in, and the noun used in messages.
type target struct {
	field      string
	collection string
	noun       string
}

var refTargets = map[Kind]target{
	KindBodyPart: {field: "actor", collection: CollectionActors, noun: "actor"},
	KindObject:   {field: "object", collection: CollectionObjects, noun: "object"},
	KindSurface:  {field: "surface", collection: CollectionSurfaces, noun: "surface"},
	KindAnchor:   {field: "anchor", collection: CollectionAnchors, noun: "anchor"},
}

func kindOf(rec map[string]any) Kind {
	raw, present := rec["kind"]
	if !present {
		return KindNone
	}
	if tag, ok := raw.(string); ok && tag != "" {
		return Kind(tag)
	}
	return KindInvalid
}

// ResolveRef checks that the entity reference at path points at a declared
// identifier. It returns the declared kind even when the identifier is
// dangling so pairing checks can still run. A reference that is not a
// mapping, or has no kind, yields KindNone and no issues; unknown and
// invalid kinds are returned without a reference check.
func ResolveRef(entity any, path Path, ids Index) (Kind, []models.Issue) {
	rec, ok := entity.(map[string]any)
	if !ok {
		return KindNone, nil
	}
	kind := kindOf(rec)

	t, known := refTargets[kind]
	if !known {
		return kind, nil
	}
	value := rec[t.field]
	if ids.Contains(t.collection, value) {
		return kind, nil
	}
	return kind, []models.Issue{
		issueAt(path.Child(t.field), "unknown %s id '%s'", t.noun, display(value)),
	}
}
