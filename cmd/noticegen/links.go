package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/Olprog59/go-noticegen/internal/dto"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

type linksOptions struct {
	Format string `validate:"oneof=yaml json"`
}

func cmdLinks(out io.Writer) *cli.Command {
	var (
		opts      linksOptions
		configDir string
	)

	return &cli.Command{
		Name:  "links",
		Usage: "Print the CMS link set used by the notices",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Aliases:     []string{"f"},
				Usage:       "Output format: yaml or json",
				Value:       "yaml",
				Destination: &opts.Format,
			},
			configDirFlag(&configDir),
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := dto.Validate(opts); err != nil {
				return err
			}

			links, err := loadLinks(configDir)
			if err != nil {
				return err
			}

			if opts.Format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(links)
			}

			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(links); err != nil {
				return fmt.Errorf("encode links: %w", err)
			}
			return enc.Close()
		},
	}
}
