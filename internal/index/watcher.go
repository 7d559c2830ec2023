package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/posecontact/internal/document"
	"github.com/starford/posecontact/internal/storage"
)

// Watcher event kinds passed to EventCallback.
const (
	EventValidated = "validated"
	EventRemoved   = "removed"
)

// EventCallback is called after a watcher-driven ledger change.
// For EventRemoved only row.Path is set.
type EventCallback func(kind string, row DocumentRow)

const reconcileDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the document directory and revalidates
// documents as they change until ctx is cancelled. Only the top level of
// root is watched, matching storage.Provider.List.
//
// Rename events trigger a debounced reconciliation pass that removes ledger
// entries whose files no longer exist and validates files not yet recorded.
func Watch(ctx context.Context, db *DB, store storage.Provider, check CheckFunc, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := store.Root()
	if err := w.Add(root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	notify := func(kind string, row DocumentRow) {
		if cb != nil {
			cb(kind, row)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(db, store, check, logger, notify)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !document.IsDocument(ev.Name) {
				continue
			}
			rel, relErr := filepath.Rel(root, ev.Name)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := store.Read(rel)
				if readErr != nil {
					logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", readErr.Error()))
					continue
				}
				row, recErr := recordFile(db, check, "", rel, data)
				if recErr != nil {
					logger.Warn("watcher: record failed", slog.String("path", rel), slog.String("error", recErr.Error()))
					continue
				}
				logger.Debug("watcher: validated", slog.String("path", rel), slog.Int("issues", row.IssueCount))
				notify(EventValidated, row)

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.DeleteDocument(rel); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: removed", slog.String("path", rel))
				notify(EventRemoved, DocumentRow{Path: rel})

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify reports the old name only; the new name arrives
				// as a separate Create if it stays inside root.
				if delErr := db.DeleteDocument(rel); delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
				} else {
					notify(EventRemoved, DocumentRow{Path: rel})
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcile drops ledger rows without a file on disk and validates files
// whose checksum differs from the recorded one.
func reconcile(db *DB, store storage.Provider, check CheckFunc, logger *slog.Logger, notify EventCallback) {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}
	metas, err := store.List("")
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Path] = m.Checksum
	}

	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if delErr := db.DeleteDocument(p); delErr == nil {
			logger.Debug("reconcile: removed stale", slog.String("path", p))
			notify(EventRemoved, DocumentRow{Path: p})
		}
	}

	for p, cs := range disk {
		if checksums[p] == cs {
			continue
		}
		data, readErr := store.Read(p)
		if readErr != nil {
			continue
		}
		if row, recErr := recordFile(db, check, "", p, data); recErr == nil {
			logger.Debug("reconcile: validated", slog.String("path", p))
			notify(EventValidated, row)
		}
	}
}
