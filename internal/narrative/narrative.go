// Package narrative renders relations as prose for human review. The output
// is derived from canonical state and is never authoritative.
package narrative

import (
	"fmt"
	"sort"
	"strings"
)

const (
	header = "Narrative Projection (non-authoritative):"
	footer = "Notes: This projection is derived from canonical state and MUST NOT be treated as authoritative."
)

// entities indexes each collection's records by id.
type entities struct {
	actors, objects, surfaces, anchors map[string]map[string]any
}

// Project renders one sentence per relation between a fixed header and
// disclaimer. Relations that are not mappings are skipped.
func Project(doc map[string]any) string {
	e := entities{
		actors:   indexed(doc["actors"]),
		objects:  indexed(doc["objects"]),
		surfaces: indexed(doc["surfaces"]),
		anchors:  indexed(doc["anchors"]),
	}

	lines := []string{header, ""}
	relations, _ := doc["relations"].([]any)
	for _, item := range relations {
		rel, ok := item.(map[string]any)
		if !ok {
			continue
		}
		predicate := "relation"
		if p, ok := rel["predicate"]; ok && p != nil {
			predicate = text(p)
		}
		verb := strings.ReplaceAll(predicate, "_", " ")
		lines = append(lines, fmt.Sprintf("- %s is %s %s.%s",
			e.describe(rel["subject"]), verb, e.describe(rel["object"]), qualifiers(rel["qualifiers"])))
	}
	lines = append(lines, "", footer)
	return strings.Join(lines, "\n")
}

func (e entities) describe(v any) string {
	ref, _ := v.(map[string]any)
	switch ref["kind"] {
	case "body_part":
		actorID := text(ref["actor"])
		label := labelOf(e.actors, actorID, "label")
		part := text(ref["part"])
		side := text(ref["side"])
		var desc string
		switch side {
		case "":
			desc = part
		case "none":
			desc = fmt.Sprintf("%s (side: %s)", part, side)
		default:
			desc = side + " " + part
		}
		return fmt.Sprintf("%s of %s (%s)", desc, label, actorID)
	case "object":
		id := text(ref["object"])
		return fmt.Sprintf("%s (%s)", labelOf(e.objects, id, "label"), id)
	case "surface":
		id := text(ref["surface"])
		return fmt.Sprintf("%s (%s)", labelOf(e.surfaces, id, "label"), id)
	case "anchor":
		id := text(ref["anchor"])
		anchor := e.anchors[id]
		name := labelOf(e.anchors, id, "name")
		ownerID := text(anchor["owner"])
		ownerLabel := ownerID
		switch anchor["owner_kind"] {
		case "object":
			ownerLabel = labelOf(e.objects, ownerID, "label")
		case "surface":
			ownerLabel = labelOf(e.surfaces, ownerID, "label")
		}
		var role string
		if r := text(anchor["role"]); r != "" {
			role = ", role: " + r
		}
		return fmt.Sprintf("%s (%s) on %s (%s)%s", name, id, ownerLabel, ownerID, role)
	}
	return "unknown entity"
}

// qualifiers renders " (qualifiers: k1=v1, k2=v2)" with sorted keys, or
// nothing when there are none.
func qualifiers(v any) string {
	q, _ := v.(map[string]any)
	if len(q) == 0 {
		return ""
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + text(q[k])
	}
	return " (qualifiers: " + strings.Join(parts, ", ") + ")"
}

// labelOf returns the record's display field, falling back to the id.
func labelOf(records map[string]map[string]any, id, field string) string {
	if rec, ok := records[id]; ok {
		if v, ok := rec[field]; ok {
			return text(v)
		}
	}
	return id
}

func indexed(v any) map[string]map[string]any {
	out := make(map[string]map[string]any)
	items, _ := v.([]any)
	for _, item := range items {
		rec, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if id, ok := rec["id"].(string); ok {
			out[id] = rec
		}
	}
	return out
}

func text(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
