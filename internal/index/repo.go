package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/posecontact/internal/apperr"
)

// DocumentRow represents a row in the documents table.
type DocumentRow struct {
	Path        string    `json:"path"`
	Checksum    string    `json:"checksum"`
	Valid       bool      `json:"valid"`
	IssueCount  int       `json:"issue_count"`
	RunID       string    `json:"run_id"`
	ValidatedAt time.Time `json:"validated_at"`
}

// RunRow summarises one validation pass over the document directory.
type RunRow struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Documents int       `json:"documents"`
	Issues    int       `json:"issues"`
}

// RecordDocument inserts or replaces the status of a document.
func (db *DB) RecordDocument(r DocumentRow) error {
	if r.ValidatedAt.IsZero() {
		r.ValidatedAt = time.Now().UTC()
	}
	_, err := db.conn.Exec(`
		INSERT INTO documents (path, checksum, valid, issue_count, run_id, validated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum     = excluded.checksum,
			valid        = excluded.valid,
			issue_count  = excluded.issue_count,
			run_id       = excluded.run_id,
			validated_at = excluded.validated_at
	`, r.Path, r.Checksum, r.Valid, r.IssueCount, r.RunID, r.ValidatedAt)
	if err != nil {
		return fmt.Errorf("index: record document: %w", err)
	}
	return nil
}

// DeleteDocument removes a document's status row.
func (db *DB) DeleteDocument(path string) error {
	if _, err := db.conn.Exec(`DELETE FROM documents WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete document: %w", err)
	}
	return nil
}

// GetChecksum returns the stored checksum for a document, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM documents WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// GetDocument returns the status row for path or apperr.ErrNotFound.
func (db *DB) GetDocument(path string) (*DocumentRow, error) {
	row := db.conn.QueryRow(`
		SELECT path, checksum, valid, issue_count, run_id, validated_at
		FROM documents WHERE path = ?
	`, path)
	r, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get document: %w", err)
	}
	return r, nil
}

// AllChecksums returns path → checksum for every recorded document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// ListDocuments returns recorded documents ordered by path, optionally only
// those with issues.
func (db *DB) ListDocuments(onlyInvalid bool) ([]DocumentRow, error) {
	query := `SELECT path, checksum, valid, issue_count, run_id, validated_at FROM documents`
	if onlyInvalid {
		query += ` WHERE valid = 0`
	}
	query += ` ORDER BY path`

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("index: list documents: %w", err)
	}
	defer rows.Close()

	out := []DocumentRow{}
	for rows.Next() {
		r, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// RecordRun stores the summary of a validation pass.
func (db *DB) RecordRun(r RunRow) error {
	_, err := db.conn.Exec(`
		INSERT INTO runs (id, started_at, documents, issues) VALUES (?, ?, ?, ?)
	`, r.ID, r.StartedAt, r.Documents, r.Issues)
	if err != nil {
		return fmt.Errorf("index: record run: %w", err)
	}
	return nil
}

// LatestRun returns the most recent run, or nil when none was recorded.
func (db *DB) LatestRun() (*RunRow, error) {
	var r RunRow
	err := db.conn.QueryRow(`
		SELECT id, started_at, documents, issues FROM runs
		ORDER BY started_at DESC LIMIT 1
	`).Scan(&r.ID, &r.StartedAt, &r.Documents, &r.Issues)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index: latest run: %w", err)
	}
	return &r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*DocumentRow, error) {
	var r DocumentRow
	if err := s.Scan(&r.Path, &r.Checksum, &r.Valid, &r.IssueCount, &r.RunID, &r.ValidatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}
