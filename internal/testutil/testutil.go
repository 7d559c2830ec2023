// Package testutil provides shared test helpers for document directories and ledgers.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/posecontact/internal/index"
	"github.com/starford/posecontact/internal/storage"
)

// ValidYAML is a small document that passes schema and semantic checks.
const ValidYAML = `schema_version: "0.1"
actors:
  - id: alice
    label: Alice
objects:
  - id: cup
    label: Cup
surfaces:
  - id: table
    label: Table
anchors:
  - id: handle
    owner_kind: object
    owner: cup
    name: Handle
    role: grip
relations:
  - predicate: gripping
    subject: {kind: body_part, actor: alice, part: hand, side: right}
    object: {kind: anchor, anchor: handle}
  - predicate: resting_on
    subject: {kind: object, object: cup}
    object: {kind: surface, surface: table}
`

// DanglingYAML is schema-valid but references an unknown object id.
const DanglingYAML = `actors:
  - id: alice
relations:
  - predicate: touching
    subject: {kind: body_part, actor: alice, part: hand, side: left}
    object: {kind: object, object: ghost}
`

// TestDB creates a temporary SQLite ledger that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "posecontact-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestDocs creates a temporary document directory with a storage.Provider.
func TestDocs(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// WriteDoc writes content to name inside dir.
func WriteDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
