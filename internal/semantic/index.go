// Package semantic implements the referential and relational checks that a
// generic schema cannot express: dangling identifier references, anchor
// ownership, and predicate-specific subject/object pairing.
package semantic

// Entity collections of a document.
const (
	CollectionActors   = "actors"
	CollectionObjects  = "objects"
	CollectionSurfaces = "surfaces"
	CollectionAnchors  = "anchors"
)

var collections = []string{CollectionActors, CollectionObjects, CollectionSurfaces, CollectionAnchors}

// IDSet is the set of identifiers declared in one collection.
type IDSet map[string]struct{}

// Index maps a collection name to the identifiers declared in it.
type Index map[string]IDSet

// BuildIndex collects the identifiers of every well-formed entity record.
// Records that are not mappings or have no string "id" are skipped; schema
// validation has already reported them. A nil doc yields empty collections.
func BuildIndex(doc map[string]any) Index {
	idx := make(Index, len(collections))
	for _, name := range collections {
		set := IDSet{}
		for _, item := range sequence(doc[name]) {
			rec, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if id, ok := rec["id"].(string); ok {
				set[id] = struct{}{}
			}
		}
		idx[name] = set
	}
	return idx
}

// Contains reports whether value is an identifier declared in collection.
// Non-string values never resolve.
func (idx Index) Contains(collection string, value any) bool {
	id, ok := value.(string)
	if !ok {
		return false
	}
	_, found := idx[collection][id]
	return found
}

func sequence(v any) []any {
	items, _ := v.([]any)
	return items
}
