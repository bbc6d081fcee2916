package inherit

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func discardWarn(string, ...any) {}

const parentDoc = `# Organization Constitution

## security_protocol
Never commit secrets or credentials. Never force-push to main.

## mandatory_session_protocol
Blast radius is capped at maximum 15 files per session.

## quality_standards
All changes need tests.

## conventions
Conventional commits only.
`

func TestExtractInheritsFromScalar(t *testing.T) {
	content := "# CLAUDE.md\n\ninherits_from: templates/CLAUDE.org.md\n"
	assert.Equal(t, []string{"templates/CLAUDE.org.md"}, ExtractInheritsFrom(content))
}

func TestExtractInheritsFromQuotedScalar(t *testing.T) {
	content := "inherits_from: \"https://example.com/CLAUDE.org.md\"\n"
	assert.Equal(t, []string{"https://example.com/CLAUDE.org.md"}, ExtractInheritsFrom(content))
}

func TestExtractInheritsFromList(t *testing.T) {
	content := "# CLAUDE.md\n\ninherits_from:\n  - templates/CLAUDE.org.md\n  - https://example.com/CLAUDE.org.md\n"
	assert.Equal(t, []string{
		"templates/CLAUDE.org.md",
		"https://example.com/CLAUDE.org.md",
	}, ExtractInheritsFrom(content))
}

func TestExtractInheritsFromAbsent(t *testing.T) {
	assert.Empty(t, ExtractInheritsFrom("# CLAUDE.md\n\nNo inheritance here.\n"))
}

func TestExtractThresholds(t *testing.T) {
	content := "Blast radius: maximum 15 files. Keep confidence above 85 % before acting."
	thresholds := ExtractThresholds(content)

	assert.Equal(t, 15, thresholds["blast_radius_files"])
	assert.Equal(t, 15, thresholds["max_files"])
	assert.Equal(t, 85, thresholds["confidence_percent"])
	_, ok := thresholds["max_lines"]
	assert.False(t, ok)
}

func TestValidateNoParents(t *testing.T) {
	dir := t.TempDir()
	local := writeDoc(t, dir, "CLAUDE.md", "# CLAUDE.md\n\n## conventions\nStuff.\n")

	r := Validate(local, nil, discardWarn)

	assert.True(t, r.Valid)
	assert.Contains(t, r.Note, "No inherits_from section found")
	assert.Empty(t, r.ParentsChecked)
	assert.Empty(t, r.Violations)
}

func TestValidateMissingLocalFile(t *testing.T) {
	r := Validate(filepath.Join(t.TempDir(), "CLAUDE.md"), nil, discardWarn)
	assert.False(t, r.Valid)
	assert.Contains(t, r.Error, "File not found")
}

func TestValidateMissingRequiredSection(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "parent.md", parentDoc)
	local := writeDoc(t, dir, "CLAUDE.md", `# CLAUDE.md

inherits_from: parent.md

## security_protocol
Never commit secrets or credentials.

## quality_standards
All changes need tests.

## conventions
Conventional commits only.
`)

	r := Validate(local, nil, discardWarn)

	assert.False(t, r.Valid)
	require.Len(t, r.Violations, 1)
	assert.Equal(t, "missing_required_section", r.Violations[0].Type)
	assert.Contains(t, r.Violations[0].ParentRule, "mandatory_session_protocol")
	assert.Equal(t, 1, r.Summary.MissingSections)
}

func TestValidateThresholdLowered(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "parent.md", parentDoc)
	local := writeDoc(t, dir, "CLAUDE.md", `# CLAUDE.md

inherits_from: parent.md

## security_protocol
Never commit secrets or credentials.

## mandatory_session_protocol
Blast radius is capped at maximum 5 files per session.

## quality_standards
All changes need tests.

## conventions
Conventional commits only.
`)

	r := Validate(local, nil, discardWarn)

	assert.False(t, r.Valid)
	var lowered []Violation
	for _, v := range r.Violations {
		if v.Type == "threshold_lowered" {
			lowered = append(lowered, v)
		}
	}
	require.Len(t, lowered, 2) // blast_radius_files and max_files both trip
	assert.Contains(t, lowered[0].ParentRule, "= 15")
	assert.Contains(t, lowered[0].LocalRule, "= 5")
}

func TestValidateSingleThresholdLowered(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "parent.md", `# Parent

## mandatory_session_protocol
Change at most maximum 15 files per session.
`)
	local := writeDoc(t, dir, "CLAUDE.md", `# CLAUDE.md

inherits_from: parent.md

## mandatory_session_protocol
Change at most maximum 5 files per session.
`)

	r := Validate(local, nil, discardWarn)

	require.Len(t, r.Violations, 1)
	assert.Equal(t, "threshold_lowered", r.Violations[0].Type)
	assert.Equal(t, 1, r.Summary.LoweredThresholds)
}

func TestValidateProhibitedPermission(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "parent.md", `# Parent

## security_protocol
Never force-push to any branch.
`)
	local := writeDoc(t, dir, "CLAUDE.md", `# CLAUDE.md

inherits_from: parent.md

## security_protocol
We allow force-push on feature branches.
`)

	r := Validate(local, nil, discardWarn)

	assert.False(t, r.Valid)
	require.Len(t, r.Violations, 1)
	assert.Equal(t, "prohibited_permission_granted", r.Violations[0].Type)
	assert.Equal(t, 1, r.Summary.ProhibitedPermissions)
}

func TestValidateFetchFailureContinues(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "parent.md", `# Parent

## security_protocol
Keep it safe.
`)
	local := writeDoc(t, dir, "CLAUDE.md", `# CLAUDE.md

inherits_from:
  - does-not-exist.md
  - parent.md

## security_protocol
Keep it safe.
`)

	var warnings []string
	r := Validate(local, nil, func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	})

	assert.False(t, r.Valid)
	require.Len(t, r.Violations, 1)
	assert.Equal(t, "fetch_failure", r.Violations[0].Type)
	assert.Equal(t, 1, r.Summary.FetchFailures)
	assert.Equal(t, []string{"does-not-exist.md", "parent.md"}, r.ParentsChecked)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "local path not found")
}

func TestFetchConstitutionHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "## security_protocol\nRemote parent.\n")
	}))
	defer srv.Close()

	content, ok := FetchConstitution(srv.URL, t.TempDir(), discardWarn)

	assert.True(t, ok)
	assert.Contains(t, content, "Remote parent")
}

func TestValidateExtraParents(t *testing.T) {
	dir := t.TempDir()
	parent := writeDoc(t, dir, "parent.md", parentDoc)
	local := writeDoc(t, dir, "CLAUDE.md", "# CLAUDE.md\n\n## conventions\nStuff.\n")

	r := Validate(local, []string{parent}, discardWarn)

	assert.Equal(t, []string{parent}, r.ParentsChecked)
	assert.False(t, r.Valid)
	types := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		types = append(types, v.Type)
	}
	assert.Equal(t, 3, strings.Count(strings.Join(types, " "), "missing_required_section"))
}

func TestFormatText(t *testing.T) {
	dir := t.TempDir()
	local := writeDoc(t, dir, "CLAUDE.md", "# CLAUDE.md\n\n## conventions\nStuff.\n")

	out := FormatText(Validate(local, nil, discardWarn))

	assert.Contains(t, out, "Constitutional Inheritance Validation")
	assert.Contains(t, out, "Result:          VALID")
	assert.Contains(t, out, "No inherits_from section found")
}
