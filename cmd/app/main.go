package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/posecontact/internal/apperr"
)

func main() {
	cmd := &cli.Command{
		Name:  "posecontact",
		Usage: "Validate canonical pose-contact documents and render their narrative projection",
		Commands: []*cli.Command{
			validateCommand(),
			narrateCommand(),
			serveCommand(),
			mcpCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, apperr.ErrValidationFailed) {
			os.Exit(1)
		}
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
