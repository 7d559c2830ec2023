// Package models defines the domain types shared across the validator.
package models

import (
	"sort"
	"time"
)

// Issue is a single validation finding located by a slash-delimited pointer
// into the document tree. The document root is "/".
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return i.Path + ": " + i.Message
}

// SortIssues orders issues by path, then by message.
func SortIssues(issues []Issue) {
	sort.SliceStable(issues, func(a, b int) bool {
		if issues[a].Path != issues[b].Path {
			return issues[a].Path < issues[b].Path
		}
		return issues[a].Message < issues[b].Message
	})
}

// Report is the outcome of validating one stored document.
type Report struct {
	Path        string    `json:"path"`
	Checksum    string    `json:"checksum"`
	Issues      []Issue   `json:"issues"`
	ValidatedAt time.Time `json:"validated_at"`
}

// Valid reports whether the document produced no issues.
func (r *Report) Valid() bool {
	return len(r.Issues) == 0
}

// DocumentMetadata is a lightweight representation returned by list operations.
type DocumentMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
