package mdscan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSection(t *testing.T) {
	assert.Equal(t, "mandatory_session_protocol", NormalizeSection("Mandatory Session Protocol"))
	assert.Equal(t, "security_protocol", NormalizeSection("  Security-Protocol "))
	assert.Equal(t, "conventions", NormalizeSection("Conventions"))
}

func TestSections(t *testing.T) {
	content := `Intro text before any header is dropped.

# Project Context

Building a scanner suite.

## Conventions

Use tabs.
Table-driven tests.

### Security Protocol

Never commit secrets.
`
	sections := Sections(content)
	require.Len(t, sections, 3)
	assert.Equal(t, "Building a scanner suite.", sections["project_context"])
	assert.Equal(t, "Use tabs.\nTable-driven tests.", sections["conventions"])
	assert.Equal(t, "Never commit secrets.", sections["security_protocol"])
}

func TestSectionNamesOrder(t *testing.T) {
	content := "# One\n\n## Two Things\n\n### Three-Part Name\n\n#### too deep\n"
	assert.Equal(t, []string{"one", "two_things", "three_part_name"}, SectionNames(content))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "use-markdown-for-all-reports", Slug("Use Markdown for all reports!"))
	assert.Equal(t, "adopt-postgres", Slug("  Adopt Postgres  "))

	long := Slug("A very long decision title that keeps going well past the truncation limit")
	assert.LessOrEqual(t, len(long), 40)
}

func TestKeywords(t *testing.T) {
	kw := Keywords("Use the Markdown format with this project")
	assert.Contains(t, kw, "markdown")
	assert.Contains(t, kw, "format")
	// "use" and "the" are under the length floor; "with", "this", and
	// "project" are stopwords.
	assert.NotContains(t, kw, "use")
	assert.NotContains(t, kw, "with")
	assert.NotContains(t, kw, "project")
}

func TestKeywordOverlap(t *testing.T) {
	a := "Adopt atomic writes for report generation"
	b := "Report generation must use atomic writes"
	assert.GreaterOrEqual(t, KeywordOverlap(a, b), KeywordMatchThreshold)

	assert.Zero(t, KeywordOverlap("alpha beta", "gamma delta"))
}

func TestParseSessions(t *testing.T) {
	content := `# Changelog

## Session 1 -- 2025-05-01 [claude-sonnet-4-6]

Did parser work.

## Session 12 — 2025-05-08

No model bracket here.
`
	sessions := ParseSessions(content)
	require.Len(t, sessions, 2)

	assert.Equal(t, 1, sessions[0].Number)
	assert.Equal(t, "001", sessions[0].ID)
	assert.Equal(t, "2025-05-01", sessions[0].Date)
	assert.Equal(t, "claude-sonnet-4-6", sessions[0].Model)
	assert.Contains(t, sessions[0].Body, "Did parser work.")
	assert.NotContains(t, sessions[0].Body, "No model bracket")

	assert.Equal(t, 12, sessions[1].Number)
	assert.Equal(t, "012", sessions[1].ID)
	assert.Empty(t, sessions[1].Model)
}

func TestReadSessionsMissingFile(t *testing.T) {
	assert.Nil(t, ReadSessions(filepath.Join(t.TempDir(), "CHANGELOG.md")))
}

func TestHasADRReference(t *testing.T) {
	assert.True(t, HasADRReference("See ADR-012 for rationale."))
	assert.True(t, HasADRReference("covered by adr 7"))
	assert.False(t, HasADRReference("no references here"))
}

func TestLoadADRs(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("ADR-000-template.md", "# ADR-000: Template")
	write("ADR-001-use-markdown.md", "# ADR-001: Use Markdown\n\nContext here.")
	write("ADR-002-atomic-writes.md", "## Atomic writes everywhere\n\nBody.")
	write("notes.md", "# Not an ADR")

	adrs := LoadADRs(dir)
	require.Len(t, adrs, 2)

	assert.Equal(t, "001", adrs[0].Number)
	assert.Equal(t, "Use Markdown", adrs[0].Title)

	// Without an ADR-prefixed title the first header is used.
	assert.Equal(t, "002", adrs[1].Number)
	assert.Equal(t, "Atomic writes everywhere", adrs[1].Title)
}

func TestLoadADRsMissingDir(t *testing.T) {
	assert.Nil(t, LoadADRs(filepath.Join(t.TempDir(), "docs", "adr")))
}
