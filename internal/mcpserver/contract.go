package mcpserver

// DocumentFormatContract describes the canonical pose-contact document
// format that LLM consumers should follow when writing documents.
const DocumentFormatContract = `# Pose-Contact Document Format Contract

A document is a YAML or JSON mapping describing who touches, grips or rests on what.
The narrative projection is derived from it and is never authoritative.

## Structure

` + "```" + `yaml
schema_version: "0.1"          # OPTIONAL
actors:                         # OPTIONAL – people or figures
  - id: alice
    label: Alice
objects:                        # OPTIONAL – movable things
  - id: cup
    label: Cup
surfaces:                       # OPTIONAL – floors, tables, walls
  - id: table
anchors:                        # OPTIONAL – named points on an object or surface
  - id: handle
    owner_kind: object          # object | surface
    owner: cup
    name: Handle
relations:                      # REQUIRED – may be empty
  - predicate: gripping
    subject: {kind: body_part, actor: alice, part: hand, side: right}
    object: {kind: anchor, anchor: handle}
    qualifiers: {force: light}
` + "```" + `

## Rules

1. **Entity references** carry a ` + "`" + `kind` + "`" + ` and one id field named after it:
   ` + "`" + `body_part` + "`" + ` → ` + "`" + `actor` + "`" + `, ` + "`" + `object` + "`" + ` → ` + "`" + `object` + "`" + `,
   ` + "`" + `surface` + "`" + ` → ` + "`" + `surface` + "`" + `, ` + "`" + `anchor` + "`" + ` → ` + "`" + `anchor` + "`" + `.
2. **Every referenced id must be declared** in the matching collection. Ids only need to be
   unique within their own collection.
3. **Anchor owners** must exist in the collection named by ` + "`" + `owner_kind` + "`" + `.
4. **Pairings:**
   - ` + "`" + `gripping` + "`" + `, ` + "`" + `holding` + "`" + `: body_part → object/anchor
   - ` + "`" + `supporting` + "`" + `: surface/object/anchor → body_part
   - ` + "`" + `standing_on` + "`" + `, ` + "`" + `sitting_on` + "`" + `, ` + "`" + `leaning_on` + "`" + `: body_part → surface/object/anchor
   - ` + "`" + `touching` + "`" + `, ` + "`" + `contacting` + "`" + `: a body_part on at least one side
   - ` + "`" + `left_of` + "`" + `, ` + "`" + `right_of` + "`" + `, ` + "`" + `above` + "`" + `, ` + "`" + `below` + "`" + `, ` + "`" + `facing` + "`" + `, ` + "`" + `aligned_with` + "`" + `: any pairing
   - other snake_case predicates are accepted with any pairing
5. **Qualifiers** are a flat mapping of string, number or boolean values.
6. **Files** end in ` + "`" + `.yaml` + "`" + `, ` + "`" + `.yml` + "`" + ` or ` + "`" + `.json` + "`" + ` and are UTF-8.

## Issues

Validation reports issues as ` + "`" + `<path>: <message>` + "`" + `, where the path points into the
document (` + "`" + `/relations/0/object/object` + "`" + `) and ` + "`" + `/` + "`" + ` is the root.
Schema issues are reported alone; semantic checks run only on schema-valid documents.
`
