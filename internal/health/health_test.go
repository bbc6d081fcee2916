package health

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCalculateEmptyRepo(t *testing.T) {
	r := Calculate(t.TempDir())

	assert.Equal(t, 0, r.Score)
	assert.Equal(t, 100, r.MaxScore)
	assert.Equal(t, 0, r.Level)
	assert.Equal(t, "Ad-hoc", r.LevelLabel)
	for _, c := range r.Checks {
		assert.False(t, c.Passed, c.Name)
	}
}

func TestCalculateFullyPopulatedRepo(t *testing.T) {
	root := t.TempDir()

	writeFile(t, root, "CLAUDE.md", `# Project

## project_context
## conventions
## mandatory_session_protocol
## security_protocol
## mandatory_task_reporting
`)
	writeFile(t, root, "PROJECT_PLAN.md", "# Plan\n")
	writeFile(t, root, "CHANGELOG.md", "# Changelog\n\n## 1.2.0\n\n## 1.1.0\n\n## 1.0.0\n")
	writeFile(t, root, "ARCHITECTURE.md", "# Architecture\n")
	writeFile(t, root, "MEMORY.md", "# Memory\n")
	writeFile(t, root, "docs/adr/ADR-001-initial.md", "# ADR-001: Initial\n")
	writeFile(t, root, ".pre-commit-config.yaml", "repos: []\n")
	writeFile(t, root, ".github/workflows/ci.yml", "name: ci\n")
	writeFile(t, root, ".github/workflows/review.yml", "uses: anthropic/claude-code-action\n")
	writeFile(t, root, ".claude/agents/reviewer.md", "# Reviewer\n")
	writeFile(t, root, ".claude/commands/ship.md", "# Ship\n")
	writeFile(t, root, "patterns/error-handling.md", "# Errors\n")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "automation"), 0o755))
	writeFile(t, root, ".gitignore", "node_modules/\n.env\n")

	r := Calculate(root)

	assert.Equal(t, 100, r.Score)
	assert.Equal(t, 100, r.MaxScore)
	assert.Equal(t, 5, r.Level)
	assert.Equal(t, "Self-optimizing", r.LevelLabel)
	for _, c := range r.Checks {
		assert.True(t, c.Passed, c.Name)
	}
}

func TestCalculatePartialRepo(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "CLAUDE.md", "# Project\n\n## conventions\n")
	writeFile(t, root, "CHANGELOG.md", "# Changelog\n\n## 1.0.0\n")

	r := Calculate(root)

	// CLAUDE.md (10) + one section (2); two changelog headers miss the bar.
	assert.Equal(t, 12, r.Score)
	assert.Equal(t, 0, r.Level)
}

func TestMaturityLevel(t *testing.T) {
	cases := []struct {
		score int
		level int
		label string
	}{
		{0, 0, "Ad-hoc"},
		{19, 0, "Ad-hoc"},
		{20, 1, "Foundation"},
		{39, 1, "Foundation"},
		{40, 2, "Structured"},
		{59, 2, "Structured"},
		{60, 3, "Enforced"},
		{79, 3, "Enforced"},
		{80, 4, "Measured"},
		{94, 4, "Measured"},
		{95, 5, "Self-optimizing"},
		{100, 5, "Self-optimizing"},
		{110, 5, "Self-optimizing"},
	}
	for _, tc := range cases {
		level, label := MaturityLevel(tc.score)
		assert.Equal(t, tc.level, level, "score %d", tc.score)
		assert.Equal(t, tc.label, label, "score %d", tc.score)
	}
}

func TestMaturityLevelMonotonic(t *testing.T) {
	prev := -1
	for score := 0; score <= 120; score++ {
		level, _ := MaturityLevel(score)
		assert.GreaterOrEqual(t, level, prev, "score %d", score)
		prev = level
	}
}

func TestChangelogEntryCounting(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "CHANGELOG.md", "# Changelog\n\n### 1.0.1\n\n## 1.0.0\n\nbody text\n")
	assert.Equal(t, 2, countChangelogEntries(root))
}

func TestFormatTextListsChecks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "CLAUDE.md", "# Project\n")

	out := FormatText(Calculate(root))

	assert.Contains(t, out, "Governance Health Score")
	assert.Contains(t, out, "✅ CLAUDE.md exists: +10 points")
	assert.Contains(t, out, "❌ PROJECT_PLAN.md exists: +5 points if implemented")
	assert.Contains(t, out, "Overall level: Level 0 (Ad-hoc)")
}
