// Command noticegen renders service interruption notices offline.
//
// It produces the same fragments as the web wizard, from flags or a YAML
// draft file, so notices can be scripted or checked into a repository.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Olprog59/go-noticegen/internal/config"
	"github.com/Olprog59/go-noticegen/internal/domain"
	"github.com/Olprog59/go-noticegen/internal/logging"
	"github.com/fatih/color"
	"github.com/urfave/cli/v3"
)

func main() {
	if err := run(context.Background(), os.Args, os.Stdin, os.Stdout); err != nil {
		color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, "noticegen:", err)
		os.Exit(1)
	}
}

// run builds the command tree / Construit l'arbre des commandes
func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	var logLevel string

	app := &cli.Command{
		Name:      "noticegen",
		Usage:     "Bilingual service interruption notice generator",
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "Log level (debug, info, warn, error)",
				Value:       "warn",
				Sources:     cli.EnvVars("NOTICEGEN_LOG_LEVEL"),
				Destination: &logLevel,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level:       logging.ParseLevel(logLevel),
				ReplaceAttr: logging.Redact(),
			})))
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmdRender(out),
			cmdLinks(out),
			cmdHashPassword(in, out),
		},
	}

	return app.Run(ctx, args)
}

// configDirFlag points at a directory holding config.yaml.
func configDirFlag(dst *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "config-dir",
		Aliases:     []string{"c"},
		Usage:       "Directory holding config.yaml; the built-in CMS links are used when empty",
		Sources:     cli.EnvVars("NOTICEGEN_CONFIG_DIR"),
		Destination: dst,
	}
}

// loadLinks returns the CMS link set / Retourne les liens CMS
func loadLinks(configDir string) (domain.LinkSet, error) {
	if configDir == "" {
		return domain.DefaultLinks(), nil
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		return domain.LinkSet{}, fmt.Errorf("load config: %w", err)
	}
	slog.Debug("CMS links loaded", "config_dir", configDir)
	return cfg.CMS, nil
}
