// Package docservice coordinates storage, schema, validation and the ledger.
package docservice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/starford/posecontact/internal/apperr"
	"github.com/starford/posecontact/internal/checksum"
	"github.com/starford/posecontact/internal/document"
	"github.com/starford/posecontact/internal/index"
	"github.com/starford/posecontact/internal/models"
	"github.com/starford/posecontact/internal/narrative"
	"github.com/starford/posecontact/internal/schema"
	"github.com/starford/posecontact/internal/semantic"
	"github.com/starford/posecontact/internal/storage"
)

// Service validates and narrates documents held in a storage.Provider and
// records stored-document outcomes in the ledger.
type Service struct {
	store  storage.Provider
	db     index.Ledger
	schema *schema.Schema
}

// NewService creates a document service. A nil sch selects the bundled schema.
func NewService(store storage.Provider, db index.Ledger, sch *schema.Schema) (*Service, error) {
	if sch == nil {
		var err error
		if sch, err = schema.Bundled(); err != nil {
			return nil, err
		}
	}
	return &Service{store: store, db: db, schema: sch}, nil
}

// Schema returns the raw JSON schema documents are checked against.
func (s *Service) Schema() []byte {
	return s.schema.Raw()
}

// Check validates raw bytes stored at path. It satisfies index.CheckFunc.
func (s *Service) Check(path string, data []byte) ([]models.Issue, error) {
	return semantic.ValidateBytes(data, document.FormatFor(path), s.schema)
}

// ValidateContent validates a document submitted inline. Nothing is recorded.
func (s *Service) ValidateContent(_ context.Context, data []byte, format document.Format) ([]models.Issue, error) {
	issues, err := semantic.ValidateBytes(data, format, s.schema)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(issues), nil
}

// ValidateDocument reads a stored document, validates it and records the
// outcome in the ledger.
func (s *Service) ValidateDocument(_ context.Context, path string) (*models.Report, error) {
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	issues, err := s.Check(path, data)
	if err != nil {
		return nil, err
	}

	report := &models.Report{
		Path:        path,
		Checksum:    checksum.Sum(data),
		Issues:      nonNilSlice(issues),
		ValidatedAt: time.Now().UTC(),
	}
	if err := s.db.RecordDocument(index.DocumentRow{
		Path:        path,
		Checksum:    report.Checksum,
		Valid:       report.Valid(),
		IssueCount:  len(report.Issues),
		ValidatedAt: report.ValidatedAt,
	}); err != nil {
		return nil, err
	}
	return report, nil
}

// SaveDocument writes data to path and validates the stored result. The
// document is written even when it has issues.
func (s *Service) SaveDocument(ctx context.Context, path string, data []byte) (*models.Report, error) {
	if !document.IsDocument(path) {
		return nil, fmt.Errorf("docservice: %s: %w", path, apperr.ErrUnsupportedFormat)
	}
	if err := s.store.Write(path, data); err != nil {
		return nil, err
	}
	return s.ValidateDocument(ctx, path)
}

// NarrateContent renders the narrative projection of an inline document.
// The document is not validated first; the projection tolerates gaps.
func (s *Service) NarrateContent(_ context.Context, data []byte, format document.Format) (string, error) {
	tree, err := document.Decode(data, format)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrInvalidDocument, err)
	}
	doc, ok := tree.(map[string]any)
	if !ok {
		return "", fmt.Errorf("%w: document must be a mapping", apperr.ErrInvalidDocument)
	}
	return narrative.Project(doc), nil
}

// NarrateDocument renders the narrative projection of a stored document.
func (s *Service) NarrateDocument(ctx context.Context, path string) (string, error) {
	data, err := s.read(path)
	if err != nil {
		return "", err
	}
	return s.NarrateContent(ctx, data, document.FormatFor(path))
}

// ListDocuments returns ledger rows, optionally only invalid ones.
func (s *Service) ListDocuments(_ context.Context, onlyInvalid bool) ([]index.DocumentRow, error) {
	return s.db.ListDocuments(onlyInvalid)
}

// LatestRun returns the most recent sync run, or nil.
func (s *Service) LatestRun(_ context.Context) (*index.RunRow, error) {
	return s.db.LatestRun()
}

func (s *Service) read(path string) ([]byte, error) {
	if !document.IsDocument(path) {
		return nil, fmt.Errorf("docservice: %s: %w", path, apperr.ErrUnsupportedFormat)
	}
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
