package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/starford/posecontact/internal"
	"github.com/starford/posecontact/internal/apperr"
	"github.com/starford/posecontact/internal/batch"
	"github.com/starford/posecontact/internal/document"
	"github.com/starford/posecontact/internal/models"
	"github.com/starford/posecontact/internal/narrative"
	"github.com/starford/posecontact/internal/schema"
	"github.com/starford/posecontact/internal/semantic"
	"github.com/starford/posecontact/internal/storage"
	pkgconfig "github.com/starford/posecontact/pkg/config"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}
}

func schemaFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "schema",
		Aliases: []string{"s"},
		Usage:   "JSON schema to validate against instead of the bundled one",
		Sources: cli.EnvVars("POSECONTACT_SCHEMA"),
	}
}

// stderrLogger keeps stdout free for reports.
func stderrLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadSchema(path string) (*schema.Schema, error) {
	if path == "" {
		return schema.Bundled()
	}
	return schema.LoadFile(path)
}

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate documents; directories are scanned for .yaml, .yml and .json files",
		ArgsUsage: "<path>...",
		Flags: []cli.Flag{
			schemaFlag(),
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Documents validated in parallel (0 = one per CPU)",
			},
		},
		Action: runValidate,
	}
}

func runValidate(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("validate: at least one path is required")
	}
	sch, err := loadSchema(cmd.String("schema"))
	if err != nil {
		return err
	}
	return validatePaths(ctx, os.Stdout, paths, sch, int(cmd.Int("workers")), stderrLogger(slog.LevelWarn))
}

// validatePaths validates files singly and directories as a batch, then
// writes one combined report to w.
func validatePaths(ctx context.Context, w io.Writer, paths []string, sch *schema.Schema, workers int, logger *slog.Logger) error {
	var results []batch.FileResult
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			results = append(results, batch.FileResult{Name: p, Issues: []models.Issue{batch.LoadFailure(err)}})
			continue
		}
		if !info.IsDir() {
			issues, err := validateFile(p, sch)
			if err != nil {
				return err
			}
			results = append(results, batch.FileResult{Name: p, Issues: issues})
			continue
		}

		store, err := storage.NewFS(p)
		if err != nil {
			return err
		}
		dirResults, err := batch.Run(ctx, store, "", sch, workers, logger)
		if err != nil {
			return err
		}
		for _, r := range dirResults {
			if len(paths) > 1 {
				r.Name = filepath.Join(p, r.Name)
			}
			results = append(results, r)
		}
	}

	failed, err := batch.WriteReport(w, results)
	if err != nil {
		return err
	}
	if failed {
		return apperr.ErrValidationFailed
	}
	return nil
}

// validateFile checks a single document. An unreadable file becomes a root
// issue; only schema engine failures are returned as errors.
func validateFile(p string, sch *schema.Schema) ([]models.Issue, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return []models.Issue{batch.LoadFailure(err)}, nil
	}
	return semantic.ValidateBytes(data, document.FormatFor(p), sch)
}

func narrateCommand() *cli.Command {
	return &cli.Command{
		Name:      "narrate",
		Usage:     "Print the non-authoritative narrative projection of a document",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Write the projection to this file instead of stdout",
			},
		},
		Action: runNarrate,
	}
}

func runNarrate(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("narrate: exactly one document is required")
	}
	tree, err := document.Load(cmd.Args().First())
	if err != nil {
		return err
	}
	doc, ok := tree.(map[string]any)
	if !ok {
		return fmt.Errorf("narrate: %w: document must be a mapping", apperr.ErrInvalidDocument)
	}
	text := narrative.Project(doc) + "\n"

	out := cmd.String("out")
	if out == "" {
		_, err := fmt.Fprint(os.Stdout, text)
		return err
	}
	dir := filepath.Dir(out)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("narrate: %w", err)
	}
	store, err := storage.NewFS(dir)
	if err != nil {
		return err
	}
	return store.Write(filepath.Base(out), []byte(text))
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the HTTP API, watch the document directory and stream validation events",
		Flags: []cli.Flag{configFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
				return fmt.Errorf("app run error: %w", err)
			}
			return nil
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve validation tools over the Model Context Protocol on stdio",
		Flags: []cli.Flag{configFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
		},
	}
}
