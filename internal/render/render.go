// Package render turns a validated Notice Draft into the HTML fragments
// pasted into the content management system: a full interruption notice
// and a short alert box teaser, each in English and French.
//
// Rendering is pure. The same draft and link set always produce the same
// bytes, and nothing is read from the clock or the environment.
package render

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/Olprog59/go-noticegen/internal/domain"
)

//go:embed templates/notice.tmpl
var templateFS embed.FS

// notices is parsed once; templates are immutable and safe for concurrent use.
var notices = template.Must(
	template.New("notice.tmpl").
		Funcs(template.FuncMap{"escape": EscapeText}).
		ParseFS(templateFS, "templates/notice.tmpl"),
)

// alertPrefixes are the localized lead-ins of the alert box link text.
var alertPrefixes = map[domain.Language]string{
	domain.English: "Service interruption - ",
	domain.French:  "Interruption des services - ",
}

// Result holds the four fragments produced for one draft.
type Result struct {
	EnglishFull  string
	FrenchFull   string
	EnglishAlert string
	FrenchAlert  string
}

// Full returns the full notice for lang.
func (r Result) Full(lang domain.Language) string {
	if lang == domain.French {
		return r.FrenchFull
	}
	return r.EnglishFull
}

// Alert returns the alert box for lang.
func (r Result) Alert(lang domain.Language) string {
	if lang == domain.French {
		return r.FrenchAlert
	}
	return r.EnglishAlert
}

// Combined joins the English and French full notices with a single newline.
func (r Result) Combined() string {
	return r.EnglishFull + "\n" + r.FrenchFull
}

// fragmentData is the template input for one language.
type fragmentData struct {
	Lang        domain.Language
	Title       string
	Body        string
	ISODate     string
	AlertPrefix string
	Links       domain.LinkSet
}

// Renderer renders drafts against a fixed link set.
type Renderer struct {
	links domain.LinkSet
}

// NewRenderer creates a renderer / Crée un moteur de rendu
//
// The link set is validated once here so that Render cannot fail on configuration.
func NewRenderer(links domain.LinkSet) (*Renderer, error) {
	if err := links.Validate(); err != nil {
		return nil, fmt.Errorf("invalid link set: %w", err)
	}
	return &Renderer{links: links}, nil
}

// Links returns the link set used by the renderer.
func (r *Renderer) Links() domain.LinkSet {
	return r.links
}

// Render validates the draft and, if valid, produces every fragment.
// On a missing field it returns a *domain.ValidationError and a zero Result.
func (r *Renderer) Render(d domain.Draft) (Result, error) {
	return Render(d, r.links)
}

// Render validates d and renders it with links. See Renderer.Render.
func Render(d domain.Draft, links domain.LinkSet) (Result, error) {
	if err := d.Validate(); err != nil {
		return Result{}, err
	}

	var res Result
	var err error
	if res.EnglishFull, err = execute("full", d, domain.English, links); err != nil {
		return Result{}, err
	}
	if res.FrenchFull, err = execute("full", d, domain.French, links); err != nil {
		return Result{}, err
	}
	if res.EnglishAlert, err = execute("alert", d, domain.English, links); err != nil {
		return Result{}, err
	}
	if res.FrenchAlert, err = execute("alert", d, domain.French, links); err != nil {
		return Result{}, err
	}
	return res, nil
}

func execute(name string, d domain.Draft, lang domain.Language, links domain.LinkSet) (string, error) {
	data := fragmentData{
		Lang:        lang,
		Title:       d.Title(lang),
		Body:        d.Body(lang),
		ISODate:     d.ISODate(),
		AlertPrefix: alertPrefixes[lang],
		Links:       links,
	}

	var sb strings.Builder
	if err := notices.ExecuteTemplate(&sb, name, data); err != nil {
		return "", fmt.Errorf("render %s/%s: %w", name, lang, err)
	}
	return sb.String(), nil
}
