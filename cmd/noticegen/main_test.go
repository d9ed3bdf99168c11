package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Olprog59/go-noticegen/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

const timeTag = `<time class="nowrap" datetime="2024-03-15">2024-03-15</time>`

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), append([]string{"noticegen"}, args...), strings.NewReader(stdin), &out)
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func scenarioFlags() []string {
	return []string{
		"--en-title", "Online Services Unavailable",
		"--fr-title", "Services en ligne indisponibles",
		"--date", "2024-03-15",
		"--en-body", "<p>Maintenance.</p>",
		"--fr-body", "<p>Maintenance.</p>",
	}
}

func TestRender_SingleFragments(t *testing.T) {
	tests := []struct {
		output string
		want   string
	}{
		{"en", `<h2 class="text-danger">Online Services Unavailable &ndash; (` + timeTag + `)</h2>`},
		{"fr", `<h2 class="text-danger">Services en ligne indisponibles &ndash; (` + timeTag + `)</h2>`},
		{"alert-en", `Service interruption - Online Services Unavailable - (` + timeTag + `)`},
		{"alert-fr", `Interruption des services - Services en ligne indisponibles - (` + timeTag + `)`},
	}

	for _, tt := range tests {
		t.Run(tt.output, func(t *testing.T) {
			args := append([]string{"render", "--output", tt.output}, scenarioFlags()...)
			out, err := runCLI(t, "", args...)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
			assert.True(t, strings.HasSuffix(out, "\n"))
		})
	}
}

func TestRender_Combined(t *testing.T) {
	args := append([]string{"render", "-o", "combined"}, scenarioFlags()...)
	out, err := runCLI(t, "", args...)
	require.NoError(t, err)

	en := strings.Index(out, "Client Service Centre")
	fr := strings.Index(out, "Centre de services à la clientèle")
	require.NotEqual(t, -1, en)
	require.NotEqual(t, -1, fr)
	assert.Less(t, en, fr)
	assert.NotContains(t, out, "alert-warning")
}

func TestRender_AllSections(t *testing.T) {
	args := append([]string{"render"}, scenarioFlags()...)
	out, err := runCLI(t, "", args...)
	require.NoError(t, err)

	assert.Contains(t, out, "<!-- English notice / Avis anglais -->")
	assert.Contains(t, out, "<!-- French alert / Alerte française -->")
	assert.Equal(t, 2, strings.Count(out, "alert-warning"))
}

func TestRender_DraftFile(t *testing.T) {
	dir := t.TempDir()
	draft := writeFile(t, dir, "draft.yaml", `english_title: "Online Services Unavailable"
french_title: "Services en ligne indisponibles"
date: "2024-03-15"
english_body: "<p>Maintenance.</p>"
french_body: "<p>Maintenance.</p>"
`)

	t.Run("file only", func(t *testing.T) {
		out, err := runCLI(t, "", "render", "--draft", draft, "-o", "en")
		require.NoError(t, err)
		assert.Contains(t, out, "Online Services Unavailable &ndash;")
	})

	t.Run("flag overrides file", func(t *testing.T) {
		out, err := runCLI(t, "", "render", "--draft", draft, "--en-title", "Portal down", "-o", "en")
		require.NoError(t, err)
		assert.Contains(t, out, "Portal down &ndash;")
		assert.NotContains(t, out, "Online Services Unavailable")
	})

	t.Run("body file overrides", func(t *testing.T) {
		body := writeFile(t, dir, "fr.html", "<p>Entretien <strong>prévu</strong>.</p>")
		out, err := runCLI(t, "", "render", "--draft", draft, "--fr-body-file", body, "-o", "fr")
		require.NoError(t, err)
		assert.Contains(t, out, "<p>Entretien <strong>prévu</strong>.</p>")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		bad := writeFile(t, dir, "bad.yaml", "english_title: [unclosed")
		_, err := runCLI(t, "", "render", "--draft", bad)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse draft file")
	})
}

func TestRender_TitleIsEscaped(t *testing.T) {
	args := append([]string{"render", "-o", "en"}, scenarioFlags()...)
	args = append(args, "--en-title", "Q&A <portal>")
	out, err := runCLI(t, "", args...)
	require.NoError(t, err)
	assert.Contains(t, out, "Q&amp;A &lt;portal&gt; &ndash;")
}

func TestRender_MissingFields(t *testing.T) {
	out, err := runCLI(t, "", "render", "--en-title", "Online Services Unavailable", "--date", "2024-03-15")
	require.Error(t, err)
	assert.Empty(t, out)
	assert.Contains(t, err.Error(), "missing required fields: French title, English message content, French message content")

	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestRender_DefaultsToToday(t *testing.T) {
	args := []string{"render", "-o", "en",
		"--en-title", "a", "--fr-title", "b", "--en-body", "x", "--fr-body", "y"}
	out, err := runCLI(t, "", args...)
	require.NoError(t, err)
	assert.Regexp(t, `datetime="\d{4}-\d{2}-\d{2}"`, out)
}

func TestRender_BadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown output", []string{"-o", "pdf"}, "Output: must be one of: en fr alert-en alert-fr combined all"},
		{"bad date", []string{"--date", "15/03/2024"}, "Date: must be a date in the YYYY-MM-DD format"},
		{"missing body file", []string{"--en-body-file", "/does/not/exist.html"}, "read body file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(append([]string{"render"}, scenarioFlags()...), tt.args...)
			_, err := runCLI(t, "", args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRender_ConfigDirLinks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", `cms:
  alert_link:
    uuid: "11111111-2222-3333-4444-555555555555"
    href: "/site/canadian-intellectual-property-office/node/4242"
`)

	args := append([]string{"render", "-o", "alert-en", "--config-dir", dir}, scenarioFlags()...)
	out, err := runCLI(t, "", args...)
	require.NoError(t, err)
	assert.Contains(t, out, `data-entity-uuid="11111111-2222-3333-4444-555555555555" href="/site/canadian-intellectual-property-office/node/4242"`)
}

func TestLinks(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		out, err := runCLI(t, "", "links")
		require.NoError(t, err)

		var links domain.LinkSet
		require.NoError(t, yaml.Unmarshal([]byte(out), &links))
		assert.Equal(t, domain.DefaultLinks(), links)
	})

	t.Run("json", func(t *testing.T) {
		out, err := runCLI(t, "", "links", "--format", "json")
		require.NoError(t, err)

		var links domain.LinkSet
		require.NoError(t, json.Unmarshal([]byte(out), &links))
		assert.Equal(t, domain.DefaultLinks(), links)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := runCLI(t, "", "links", "-f", "toml")
		require.Error(t, err)
	})
}

func TestHashPassword(t *testing.T) {
	t.Run("from stdin", func(t *testing.T) {
		out, err := runCLI(t, "s3cret-editor\n", "hash-password", "--cost", "4")
		require.NoError(t, err)

		hash := strings.TrimSpace(out)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret-editor")))
		cost, err := bcrypt.Cost([]byte(hash))
		require.NoError(t, err)
		assert.Equal(t, 4, cost)
	})

	t.Run("from flag", func(t *testing.T) {
		out, err := runCLI(t, "", "hash-password", "--password", "other", "--cost", "4")
		require.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(out)), []byte("other")))
	})

	t.Run("empty stdin", func(t *testing.T) {
		_, err := runCLI(t, "", "hash-password", "--cost", "4")
		require.Error(t, err)
	})
}
