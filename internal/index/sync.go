package index

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/starford/posecontact/internal/checksum"
	"github.com/starford/posecontact/internal/models"
	"github.com/starford/posecontact/internal/storage"
)

// CheckFunc validates the raw bytes of the document stored at path.
type CheckFunc func(path string, data []byte) ([]models.Issue, error)

// Sync walks the document directory and brings the ledger up to date:
//   - new/changed files are validated and recorded
//   - files removed from disk are deleted from the ledger
//
// Every Sync records a run, even when nothing changed.
func Sync(db *DB, store storage.Provider, check CheckFunc, logger *slog.Logger) (*RunRow, error) {
	metas, err := store.List("")
	if err != nil {
		return nil, err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return nil, err
	}

	run := RunRow{ID: uuid.NewString(), StartedAt: time.Now().UTC()}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		row, err := recordFile(db, check, run.ID, m.Path, data)
		if err != nil {
			logger.Warn("sync: record failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		run.Documents++
		run.Issues += row.IssueCount
		logger.Debug("sync: validated",
			slog.String("path", m.Path),
			slog.String("checksum", checksum.Short(row.Checksum)),
			slog.Int("issues", row.IssueCount))
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteDocument(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	if err := db.RecordRun(run); err != nil {
		return nil, err
	}
	logger.Info("sync: run recorded",
		slog.String("run_id", run.ID),
		slog.Int("documents", run.Documents),
		slog.Int("issues", run.Issues))
	return &run, nil
}

// recordFile validates data and stores the outcome under path.
func recordFile(db *DB, check CheckFunc, runID, path string, data []byte) (DocumentRow, error) {
	issues, err := check(path, data)
	if err != nil {
		return DocumentRow{}, fmt.Errorf("index: check %s: %w", path, err)
	}
	row := DocumentRow{
		Path:        path,
		Checksum:    checksum.Sum(data),
		Valid:       len(issues) == 0,
		IssueCount:  len(issues),
		RunID:       runID,
		ValidatedAt: time.Now().UTC(),
	}
	return row, db.RecordDocument(row)
}
