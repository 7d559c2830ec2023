// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/posecontact/internal/api"
	"github.com/starford/posecontact/internal/docservice"
	"github.com/starford/posecontact/internal/index"
	"github.com/starford/posecontact/internal/mcpserver"
	"github.com/starford/posecontact/internal/schema"
	"github.com/starford/posecontact/internal/sse"
	"github.com/starford/posecontact/internal/storage"
)

// runtime holds the components shared by the HTTP and MCP entry points.
type runtime struct {
	logger *slog.Logger
	store  storage.Provider
	db     *index.DB
	svc    *docservice.Service
}

func newApplication(opts []Option, defaultLog io.Writer) (*application, error) {
	app := &application{logOutput: defaultLog}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// bootstrap sets up logging, storage, the ledger and the document service.
// The caller closes rt.db.
func (a *application) bootstrap() (*runtime, error) {
	cfg := a.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("documents_path", cfg.Documents.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("schema_path", cfg.Schema.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Documents.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create documents dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Documents.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	var sch *schema.Schema
	if !cfg.Schema.Bundled() {
		if sch, err = schema.LoadFile(cfg.Schema.Path); err != nil {
			return nil, fmt.Errorf("load schema: %w", err)
		}
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init ledger: %w", err)
	}

	svc, err := docservice.NewService(store, db, sch)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init service: %w", err)
	}

	return &runtime{logger: logger, store: store, db: db, svc: svc}, nil
}

// Run starts the HTTP API, the document watcher and the SSE broker.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts, os.Stdout)
	if err != nil {
		return err
	}
	cfg := app.config

	rt, err := app.bootstrap()
	if err != nil {
		return err
	}
	defer rt.db.Close()
	logger := rt.logger

	broker := sse.NewBroker(cfg.App.EventThrottle)
	defer broker.Close()

	// Run initial sync.
	if run, err := index.Sync(rt.db, rt.store, rt.svc.Check, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	} else {
		broker.Publish(sse.Event{Type: sse.EventRunCompleted, Data: run})
	}

	apiRouter := api.NewRouter(rt.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		if _, err := rt.db.LatestRun(); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"ledger unavailable"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Revalidate documents as they change and stream the outcome.
	g.Go(func() error {
		return index.Watch(gCtx, rt.db, rt.store, rt.svc.Check, logger, func(kind string, row index.DocumentRow) {
			broker.PublishDocumentEvent(kind, row.Path, row.IssueCount)
		})
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools over stdio. Logs go to stderr unless
// WithLogOutput says otherwise.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts, os.Stderr)
	if err != nil {
		return err
	}

	rt, err := app.bootstrap()
	if err != nil {
		return err
	}
	defer rt.db.Close()

	if _, err := index.Sync(rt.db, rt.store, rt.svc.Check, rt.logger); err != nil {
		rt.logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	rt.logger.Info("MCP server starting on stdio")
	return mcpserver.New(rt.svc).ServeStdio()
}
