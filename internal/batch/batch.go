// Package batch validates every document in a directory and renders the
// aggregate report.
package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/starford/posecontact/internal/document"
	"github.com/starford/posecontact/internal/models"
	"github.com/starford/posecontact/internal/schema"
	"github.com/starford/posecontact/internal/semantic"
	"github.com/starford/posecontact/internal/storage"
)

// FileResult holds the issues found in one document.
type FileResult struct {
	Name   string
	Issues []models.Issue
}

// Run validates every document directly inside dir (relative to the store
// root) against sch. Documents are validated concurrently, at most workers
// at a time; results come back ordered by file name. A file that cannot be
// read contributes a root issue rather than aborting the run.
func Run(ctx context.Context, store storage.Provider, dir string, sch *schema.Schema, workers int, logger *slog.Logger) ([]FileResult, error) {
	metas, err := store.List(dir)
	if err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]FileResult, len(metas))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, m := range metas {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			name := path.Base(m.Path)
			issues, err := validateOne(store, m.Path, sch)
			if err != nil {
				return fmt.Errorf("batch: %s: %w", name, err)
			}
			logger.Debug("batch: validated",
				slog.String("path", m.Path),
				slog.Int("issues", len(issues)))
			results[i] = FileResult{Name: name, Issues: issues}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func validateOne(store storage.Provider, p string, sch *schema.Schema) ([]models.Issue, error) {
	data, err := store.Read(p)
	if err != nil {
		return []models.Issue{LoadFailure(err)}, nil
	}
	return semantic.ValidateBytes(data, document.FormatFor(p), sch)
}

// LoadFailure is the root issue reported for a document that cannot be read.
func LoadFailure(err error) models.Issue {
	return models.Issue{Path: "/", Message: "failed to load document: " + err.Error()}
}

// Lines flattens results into "<file>: <path>: <message>" lines.
func Lines(results []FileResult) []string {
	var out []string
	for _, r := range results {
		for _, is := range r.Issues {
			out = append(out, fmt.Sprintf("%s: %s", r.Name, is))
		}
	}
	return out
}

// WriteReport prints the batch outcome and reports whether any issue was found.
func WriteReport(w io.Writer, results []FileResult) (failed bool, err error) {
	lines := Lines(results)
	if len(lines) == 0 {
		_, err = fmt.Fprintln(w, "All documents are valid.")
		return false, err
	}
	if _, err = fmt.Fprintln(w, "Validation failed:"); err != nil {
		return true, err
	}
	for _, l := range lines {
		if _, err = fmt.Fprintf(w, "- %s\n", l); err != nil {
			return true, err
		}
	}
	return true, nil
}
