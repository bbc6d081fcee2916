package costboard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/warden/internal/costlog"
)

func row(session int, date, model string, tasks int, taskTypes string, cost float64) costlog.Row {
	return costlog.Row{
		Session:     session,
		Date:        date,
		Month:       date[:7],
		Model:       model,
		Tier:        costlog.ClassifyTier(model),
		Tasks:       tasks,
		TaskTypes:   taskTypes,
		SessionType: costlog.ClassifySessionType(taskTypes),
		Cost:        cost,
	}
}

func TestRoutingRecommendation(t *testing.T) {
	cases := []struct {
		tier, sessionType string
		want              string
	}{
		{"sonnet", "security", "opus"},
		{"haiku", "architecture", "opus"},
		{"opus", "security", "opus"},
		{"opus", "documentation", "sonnet"},
		{"sonnet", "documentation", "sonnet"},
		{"haiku", "feature", "sonnet"},
		{"sonnet", "feature", "sonnet"},
		{"haiku", "testing", "haiku"},
	}
	for _, tc := range cases {
		got, reason := RoutingRecommendation(tc.tier, tc.sessionType)
		assert.Equal(t, tc.want, got, "%s/%s", tc.tier, tc.sessionType)
		if got == tc.tier {
			assert.Equal(t, "Correctly routed", reason)
		} else {
			assert.NotEqual(t, "Correctly routed", reason)
		}
	}
}

func TestComputeRoutingEfficiencyMisrouted(t *testing.T) {
	rows := []costlog.Row{
		row(1, "2025-05-01", "claude-opus-4-6", 2, "documentation", 0.30),
		row(2, "2025-05-02", "claude-sonnet-4-6", 3, "feature work", 0.10),
	}

	eff := ComputeRoutingEfficiency(rows)
	assert.InDelta(t, 0.40, eff.ActualTotal, 1e-9)
	// Opus documentation rescored at the Sonnet rate: 0.30 * (0.025/0.15).
	assert.InDelta(t, 0.15, eff.OptimalTotal, 1e-9)
	assert.InDelta(t, 0.40/0.15, eff.EfficiencyRatio, 1e-9)

	require.Len(t, eff.Misrouted, 1)
	assert.Equal(t, 1, eff.Misrouted[0].Session)
	assert.Equal(t, "sonnet", eff.Misrouted[0].Recommended)
	assert.Equal(t, "documentation", eff.Misrouted[0].SessionType)
}

func TestComputeRoutingEfficiencyUpgradeCostsMore(t *testing.T) {
	rows := []costlog.Row{
		row(1, "2025-05-01", "claude-sonnet-4-6", 1, "security review", 0.05),
	}

	eff := ComputeRoutingEfficiency(rows)
	// Security on Sonnet should have run on Opus, so the "optimal" spend is
	// higher than actual and the ratio drops below 1.
	assert.InDelta(t, 0.05, eff.ActualTotal, 1e-9)
	assert.InDelta(t, 0.30, eff.OptimalTotal, 1e-9)
	assert.Less(t, eff.EfficiencyRatio, 1.0)
	require.Len(t, eff.Misrouted, 1)
	assert.Equal(t, "opus", eff.Misrouted[0].Recommended)
}

func TestComputeRoutingEfficiencyEmpty(t *testing.T) {
	eff := ComputeRoutingEfficiency(nil)
	assert.Zero(t, eff.ActualTotal)
	assert.Zero(t, eff.OptimalTotal)
	assert.Equal(t, 1.0, eff.EfficiencyRatio)
	assert.Empty(t, eff.Misrouted)
}

func TestGenerateEmptyRepo(t *testing.T) {
	dir := t.TempDir()
	out := Generate(dir, time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC))

	assert.Contains(t, out, "# Cost Dashboard")
	assert.Contains(t, out, "2025-06-01 12:30 UTC")
	assert.Contains(t, out, "_No COST_LOG.md data found. Add cost tracking to session end protocol._")
	assert.Contains(t, out, "_No data available for recommendations._")
}

func TestGenerateWithLog(t *testing.T) {
	dir := t.TempDir()
	log := strings.Join([]string{
		"# Cost Log",
		"",
		"| Session | Date | Model | Tasks | Types | Cost | Notes |",
		"|---|---|---|---|---|---|---|",
		"| 1 | 2025-04-03 | claude-opus-4-6 | 2 | documentation | $0.450 | docs pass |",
		"| 2 | 2025-04-10 | claude-sonnet-4-6 | 4 | feature work | $0.120 | parser |",
		"| 3 | 2025-05-02 | claude-sonnet-4-6 | 3 | security review | $0.090 | audit |",
		"| 4 | 2025-05-09 | claude-haiku-4-5 | 5 | config, doc | $0.010 | cleanup |",
		"",
	}, "\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "COST_LOG.md"), []byte(log), 0o644))

	out := Generate(dir, time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))

	assert.Contains(t, out, "Repository: `"+filepath.Base(dir)+"`")
	assert.Contains(t, out, "| Total sessions tracked | 4 |")
	assert.Contains(t, out, "| Total tasks completed | 14 |")
	assert.Contains(t, out, "| Total AI cost | $0.670 |")

	// Model breakdown is sorted by descending spend, Opus first.
	opusIdx := strings.Index(out, "| `claude-opus-4-6` |")
	sonnetIdx := strings.Index(out, "| `claude-sonnet-4-6` |")
	require.Greater(t, opusIdx, 0)
	require.Greater(t, sonnetIdx, 0)
	assert.Less(t, opusIdx, sonnetIdx)
	assert.Contains(t, out, "| Opus | 1 | $0.450 |")
	assert.Contains(t, out, "| Haiku | 1 | $0.010 |")

	// Both months appear in the time period table.
	assert.Contains(t, out, "| 2025-04 | 2 | 6 |")
	assert.Contains(t, out, "| 2025-05 | 2 | 8 |")
	assert.Contains(t, out, "Monthly cost trend:")

	// Session 1 (Opus docs) and session 3 (Sonnet security) are misrouted.
	assert.Contains(t, out, "Misrouted sessions (2):")
	assert.Contains(t, out, "### Switch: Opus → Sonnet for Documentation")
	assert.Contains(t, out, "### Upgrade: → Opus for Security Reviews")

	assert.Contains(t, out, "docs/metrics-guide.md")
}

func TestWriteDashboard(t *testing.T) {
	dir := t.TempDir()
	path, err := Write(dir, "COST_DASHBOARD.md", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "COST_DASHBOARD.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Cost Dashboard")
}

func TestSessionTypeSectionCostPerTask(t *testing.T) {
	rows := []costlog.Row{
		row(1, "2025-05-01", "claude-sonnet-4-6", 4, "feature work", 0.20),
	}
	out := buildSessionTypeSection(rows)
	assert.Contains(t, out, "| feature | 1 | 4 | $0.200 | $0.0500 |")
}
