package gitlog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumstat(t *testing.T) {
	n, err := parseNumstat("42")
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	// Binary files show "-" and count as zero lines.
	n, err = parseNumstat("-")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = parseNumstat("abc")
	assert.Error(t, err)
}

func TestParseGitTimestamp(t *testing.T) {
	ts := parseGitTimestamp("2025-03-15 14:23:45 +0200")
	assert.Equal(t, time.Date(2025, 3, 15, 12, 23, 45, 0, time.UTC), ts)

	// Unparseable timestamps fall back to roughly now.
	fallback := parseGitTimestamp("garbage")
	assert.WithinDuration(t, time.Now().UTC(), fallback, time.Minute)
}

func TestAbbrev(t *testing.T) {
	assert.Equal(t, "deadbeef", abbrev("deadbeefcafe0123456789"))
	assert.Equal(t, "abc", abbrev("abc"))
}

func TestShortstatRe(t *testing.T) {
	m := shortstatRe.FindStringSubmatch("3 files changed, 120 insertions(+), 10 deletions(-)")
	require.NotNil(t, m)
	assert.Equal(t, 3, atoiDefault(m[1]))
	assert.Equal(t, 120, atoiDefault(m[2]))
	assert.Equal(t, 10, atoiDefault(m[3]))

	// Insertions-only stat lines leave the deletions group empty.
	m = shortstatRe.FindStringSubmatch("1 file changed, 5 insertions(+)")
	require.NotNil(t, m)
	assert.Equal(t, 1, atoiDefault(m[1]))
	assert.Equal(t, 5, atoiDefault(m[2]))
	assert.Zero(t, atoiDefault(m[3]))
}

func TestRunnerOutsideGitRepo(t *testing.T) {
	ctx := context.Background()
	runner := New(t.TempDir())

	// Git failures are zero evidence for stats and commit queries.
	stats := runner.StatsForDate(ctx, "2025-06-01")
	assert.Zero(t, stats.Commits)
	assert.Zero(t, stats.LinesAdded)

	assert.Nil(t, runner.Commits(ctx, LogOptions{Since: "2025-06-01"}))
	assert.Nil(t, runner.ChangedFiles(ctx, LogOptions{Since: "2025-06-01"}))

	_, err := runner.RepoRoot(ctx)
	assert.Error(t, err)
}
