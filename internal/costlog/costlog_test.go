package costlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyTier(t *testing.T) {
	assert.Equal(t, "haiku", ClassifyTier("claude-haiku-4-5"))
	assert.Equal(t, "opus", ClassifyTier("claude-opus-4-6"))
	assert.Equal(t, "sonnet", ClassifyTier("claude-sonnet-4-6"))
	assert.Equal(t, "sonnet", ClassifyTier("some-unknown-model"))
}

func TestClassifySessionType(t *testing.T) {
	assert.Equal(t, "security", ClassifySessionType("security review, docs"))
	assert.Equal(t, "architecture", ClassifySessionType("ADR writing"))
	assert.Equal(t, "architecture", ClassifySessionType("arch refactor"))
	assert.Equal(t, "testing", ClassifySessionType("test coverage"))
	assert.Equal(t, "documentation", ClassifySessionType("doc updates"))
	assert.Equal(t, "feature", ClassifySessionType("parser work"))
	assert.Equal(t, "feature", ClassifySessionType(""))
}

const sampleLog = `# Cost Log

## Session Cost Log

| Session | Date | Model | Tasks | Task Types | Cost | Notes |
|---------|------|-------|-------|------------|------|-------|
| 3 | 2025-05-15 | claude-sonnet-4-6 | 2 | feature | $0.120 | parser |
| 1 | 2025-05-01 | claude-opus-4-6 | 4 | security review | $0.480 | audit |
| not | a | row | at | all | $x | skip |
`

func TestParse(t *testing.T) {
	rows := Parse(sampleLog)
	require.Len(t, rows, 2)

	// Sorted by ascending session number regardless of file order.
	assert.Equal(t, 1, rows[0].Session)
	assert.Equal(t, "2025-05", rows[0].Month)
	assert.Equal(t, "claude-opus-4-6", rows[0].Model)
	assert.Equal(t, "opus", rows[0].Tier)
	assert.Equal(t, "security", rows[0].SessionType)
	assert.InDelta(t, 0.48, rows[0].Cost, 1e-9)
	assert.Equal(t, "audit", rows[0].Notes)

	assert.Equal(t, 3, rows[1].Session)
	assert.Equal(t, "feature", rows[1].SessionType)
}

func TestParseDuplicateSessionsKeepFileOrder(t *testing.T) {
	log := `| Session | Date | Model | Tasks | Task Types | Cost | Notes |
|---------|------|-------|-------|------------|------|-------|
| 2 | 2025-05-10 | claude-sonnet-4-6 | 1 | feature | $0.050 | first |
| 2 | 2025-05-11 | claude-sonnet-4-6 | 1 | feature | $0.060 | second |
| 1 | 2025-05-01 | claude-haiku-4-5 | 1 | docs | $0.010 | intro |
`
	rows := Parse(log)
	require.Len(t, rows, 3)

	assert.Equal(t, 1, rows[0].Session)
	assert.Equal(t, "first", rows[1].Notes)
	assert.Equal(t, "second", rows[2].Notes)
}

func TestParseEmpty(t *testing.T) {
	assert.Empty(t, Parse(""))
	assert.Empty(t, Parse("# no table here\n"))
}

func TestReadRepo(t *testing.T) {
	dir := t.TempDir()
	assert.Nil(t, ReadRepo(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "COST_LOG.md"), []byte(sampleLog), 0o644))
	assert.Len(t, ReadRepo(dir), 2)
}

func TestExistingSessions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "COST_LOG.md")

	assert.Empty(t, ExistingSessions(path))

	require.NoError(t, os.WriteFile(path, []byte(sampleLog), 0o644))
	ids := ExistingSessions(path)
	assert.Contains(t, ids, "001")
	assert.Contains(t, ids, "003")
	assert.NotContains(t, ids, "002")
}

func TestAppendRowsAfterHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "COST_LOG.md")
	require.NoError(t, os.WriteFile(path, []byte(sampleLog), 0o644))

	row := "| 4 | 2025-05-20 | claude-sonnet-4-6 | 1 | docs | $0.050 | notes |"
	require.NoError(t, AppendRows(path, []string{row}, func(string, ...any) {
		t.Fatal("unexpected warning")
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	// New rows land directly under the table header, before existing rows.
	headerIdx := strings.Index(content, "|---------|")
	newIdx := strings.Index(content, "| 4 | 2025-05-20")
	oldIdx := strings.Index(content, "| 3 | 2025-05-15")
	require.Greater(t, newIdx, headerIdx)
	assert.Less(t, newIdx, oldIdx)
}

func TestAppendRowsNoHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "COST_LOG.md")
	require.NoError(t, os.WriteFile(path, []byte("# Notes only\n"), 0o644))

	var warned bool
	row := "| 1 | 2025-05-01 | claude-sonnet-4-6 | 1 | docs | $0.050 | notes |"
	require.NoError(t, AppendRows(path, []string{row}, func(string, ...any) { warned = true }))
	assert.True(t, warned)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), row+"\n"))
}

func TestAppendRowsMissingFile(t *testing.T) {
	err := AppendRows(filepath.Join(t.TempDir(), "COST_LOG.md"), []string{"| 1 |"}, func(string, ...any) {})
	assert.Error(t, err)
}
