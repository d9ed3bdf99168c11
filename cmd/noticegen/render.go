package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Olprog59/go-noticegen/internal/domain"
	"github.com/Olprog59/go-noticegen/internal/dto"
	"github.com/Olprog59/go-noticegen/internal/render"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Output selectors of the render command.
const (
	outputEnglish      = "en"
	outputFrench       = "fr"
	outputEnglishAlert = "alert-en"
	outputFrenchAlert  = "alert-fr"
	outputCombined     = "combined"
	outputAll          = "all"
)

// renderOptions holds the flags that are not part of the draft.
type renderOptions struct {
	Output string `validate:"oneof=en fr alert-en alert-fr combined all"`
}

// renderInput collects the draft flags before they are merged.
type renderInput struct {
	draftFile       string
	englishTitle    string
	frenchTitle     string
	date            string
	englishBody     string
	englishBodyFile string
	frenchBody      string
	frenchBodyFile  string
}

func cmdRender(out io.Writer) *cli.Command {
	var (
		in        renderInput
		opts      renderOptions
		configDir string
	)

	return &cli.Command{
		Name:    "render",
		Aliases: []string{"r"},
		Usage:   "Render a notice from flags or a YAML draft file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "draft",
				Aliases:     []string{"d"},
				Usage:       "YAML draft file; flags override its fields",
				Destination: &in.draftFile,
			},
			&cli.StringFlag{
				Name:        "en-title",
				Usage:       "English title",
				Destination: &in.englishTitle,
				Category:    "Draft",
			},
			&cli.StringFlag{
				Name:        "fr-title",
				Usage:       "French title",
				Destination: &in.frenchTitle,
				Category:    "Draft",
			},
			&cli.StringFlag{
				Name:        "date",
				Usage:       "Message date as YYYY-MM-DD (default: today)",
				Destination: &in.date,
				Category:    "Draft",
			},
			&cli.StringFlag{
				Name:        "en-body",
				Usage:       "English HTML body",
				Destination: &in.englishBody,
				Category:    "Draft",
			},
			&cli.StringFlag{
				Name:        "en-body-file",
				Usage:       "File holding the English HTML body",
				Destination: &in.englishBodyFile,
				Category:    "Draft",
			},
			&cli.StringFlag{
				Name:        "fr-body",
				Usage:       "French HTML body",
				Destination: &in.frenchBody,
				Category:    "Draft",
			},
			&cli.StringFlag{
				Name:        "fr-body-file",
				Usage:       "File holding the French HTML body",
				Destination: &in.frenchBodyFile,
				Category:    "Draft",
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "Fragment to print: en, fr, alert-en, alert-fr, combined or all",
				Value:       outputAll,
				Destination: &opts.Output,
			},
			configDirFlag(&configDir),
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := dto.Validate(opts); err != nil {
				return err
			}

			req, err := buildRequest(c, in, time.Now())
			if err != nil {
				return err
			}

			links, err := loadLinks(configDir)
			if err != nil {
				return err
			}

			res, err := renderRequest(req, links)
			if err != nil {
				return err
			}

			slog.Debug("notice rendered", "output", opts.Output, "date", req.Date)
			return writeFragments(out, res, opts.Output)
		},
	}
}

// buildRequest merges the draft file with the flags / Fusionne le fichier brouillon et les options
//
// A flag given on the command line wins over the draft file, and a body
// file wins over the inline body flag.
func buildRequest(c *cli.Command, in renderInput, now time.Time) (dto.RenderRequest, error) {
	var req dto.RenderRequest
	if in.draftFile != "" {
		loaded, err := readDraftFile(in.draftFile)
		if err != nil {
			return req, err
		}
		req = loaded
	}

	if c.IsSet("en-title") {
		req.EnglishTitle = in.englishTitle
	}
	if c.IsSet("fr-title") {
		req.FrenchTitle = in.frenchTitle
	}
	if c.IsSet("date") {
		req.Date = in.date
	}
	if c.IsSet("en-body") {
		req.EnglishBody = in.englishBody
	}
	if c.IsSet("fr-body") {
		req.FrenchBody = in.frenchBody
	}

	var err error
	if in.englishBodyFile != "" {
		if req.EnglishBody, err = readBody(in.englishBodyFile); err != nil {
			return req, err
		}
	}
	if in.frenchBodyFile != "" {
		if req.FrenchBody, err = readBody(in.frenchBodyFile); err != nil {
			return req, err
		}
	}

	if req.Date == "" {
		req.Date = domain.NewDraft(now).ISODate()
	}
	return req, nil
}

func readDraftFile(path string) (dto.RenderRequest, error) {
	var req dto.RenderRequest

	raw, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("read draft file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &req); err != nil {
		return req, fmt.Errorf("parse draft file %s: %w", path, err)
	}
	return req, nil
}

func readBody(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read body file: %w", err)
	}
	return string(raw), nil
}

// renderRequest validates req and renders it with links.
func renderRequest(req dto.RenderRequest, links domain.LinkSet) (render.Result, error) {
	if err := dto.Validate(req); err != nil {
		return render.Result{}, err
	}

	draft, err := req.ToDraft()
	if err != nil {
		return render.Result{}, err
	}

	res, err := render.Render(draft, links)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return render.Result{}, fmt.Errorf("cannot render notice: %w", verr)
		}
		return render.Result{}, err
	}
	return res, nil
}

// writeFragments prints the selected fragments, each followed by a newline.
func writeFragments(w io.Writer, res render.Result, output string) error {
	var err error
	switch output {
	case outputEnglish:
		_, err = fmt.Fprintln(w, res.EnglishFull)
	case outputFrench:
		_, err = fmt.Fprintln(w, res.FrenchFull)
	case outputEnglishAlert:
		_, err = fmt.Fprintln(w, res.EnglishAlert)
	case outputFrenchAlert:
		_, err = fmt.Fprintln(w, res.FrenchAlert)
	case outputCombined:
		_, err = fmt.Fprintln(w, res.Combined())
	default:
		sections := []struct {
			label    string
			fragment string
		}{
			{"English notice / Avis anglais", res.EnglishFull},
			{"French notice / Avis français", res.FrenchFull},
			{"English alert / Alerte anglaise", res.EnglishAlert},
			{"French alert / Alerte française", res.FrenchAlert},
		}
		for i, s := range sections {
			if i > 0 {
				if _, err = fmt.Fprintln(w); err != nil {
					return err
				}
			}
			if _, err = fmt.Fprintf(w, "<!-- %s -->\n%s\n", s.label, s.fragment); err != nil {
				return err
			}
		}
	}
	return err
}
