package semantic

import (
	"slices"
	"strings"
)

// pairing lists the kinds a predicate accepts on each side of a relation.
type pairing struct {
	subjects []Kind
	objects  []Kind
}

var pairingRules = map[string]pairing{
	"gripping":    {subjects: []Kind{KindBodyPart}, objects: []Kind{KindObject, KindAnchor}},
	"holding":     {subjects: []Kind{KindBodyPart}, objects: []Kind{KindObject, KindAnchor}},
	"supporting":  {subjects: []Kind{KindSurface, KindObject, KindAnchor}, objects: []Kind{KindBodyPart}},
	"standing_on": {subjects: []Kind{KindBodyPart}, objects: []Kind{KindSurface, KindObject, KindAnchor}},
	"sitting_on":  {subjects: []Kind{KindBodyPart}, objects: []Kind{KindSurface, KindObject, KindAnchor}},
	"leaning_on":  {subjects: []Kind{KindBodyPart}, objects: []Kind{KindSurface, KindObject, KindAnchor}},
}

// Spatial predicates describe position only and accept any pairing.
var spatialPredicates = map[string]struct{}{
	"left_of":      {},
	"right_of":     {},
	"above":        {},
	"below":        {},
	"facing":       {},
	"aligned_with": {},
}

// Bidirectional predicates need a body part on at least one side.
var bidirectionalPredicates = map[string]struct{}{
	"touching":   {},
	"contacting": {},
}

var anyKind = []Kind{KindBodyPart, KindObject, KindSurface, KindAnchor}

const (
	bidirectionalDescription = "body_part ↔ body_part/object/surface/anchor"
	unconstrainedDescription = "any entity reference"
)

// Allows reports whether predicate accepts the subject/object kind pairing.
// An undetermined kind on either side is always compatible, and predicates
// outside the rule table and the two special families are unconstrained.
func Allows(predicate string, subject, object Kind) bool {
	if subject == KindNone || object == KindNone {
		return true
	}
	if _, ok := spatialPredicates[predicate]; ok {
		return true
	}
	if _, ok := bidirectionalPredicates[predicate]; ok {
		return (subject == KindBodyPart && slices.Contains(anyKind, object)) ||
			(object == KindBodyPart && slices.Contains(anyKind, subject))
	}
	if rule, ok := pairingRules[predicate]; ok {
		return slices.Contains(rule.subjects, subject) && slices.Contains(rule.objects, object)
	}
	return true
}

// DescribeExpected renders the pairing predicate requires, e.g.
// "body_part → anchor/object". Kinds on each side are sorted.
func DescribeExpected(predicate string) string {
	if _, ok := bidirectionalPredicates[predicate]; ok {
		return bidirectionalDescription
	}
	if rule, ok := pairingRules[predicate]; ok {
		return joinKinds(rule.subjects) + " → " + joinKinds(rule.objects)
	}
	return unconstrainedDescription
}

func joinKinds(kinds []Kind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	slices.Sort(names)
	return strings.Join(names, "/")
}
