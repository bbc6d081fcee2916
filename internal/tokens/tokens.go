// Package tokens estimates per-session token usage from git line stats and
// produces COST_LOG.md rows for sessions not yet recorded.
//
// Estimation is intentionally approximate: a calibrated tokens-per-line
// factor over lines added and removed. Line-based estimation is accurate
// enough for trend analysis and model routing, which is what COST_LOG.md is
// for.
package tokens

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bartekus/warden/internal/costlog"
	"github.com/bartekus/warden/internal/gitlog"
	"github.com/bartekus/warden/internal/mdscan"
)

// Calibration constants, tuned for typical agent sessions.
const (
	TokensPerLineAdded   = 8.0
	TokensPerLineRemoved = 3.0
)

// DefaultModel is assumed when a CHANGELOG session header has no model
// bracket.
const DefaultModel = "claude-sonnet-4-6"

// CostPerMillionTokens is the blended input+output USD rate per model.
var CostPerMillionTokens = map[string]float64{
	"claude-opus-4-6":   45.0,
	"claude-sonnet-4-6": 6.0,
	"claude-haiku-4-5":  1.0,
	"claude-haiku-3-5":  1.0,
	"unknown":           6.0,
}

// SessionInfo is session metadata pulled from a CHANGELOG.md entry.
type SessionInfo struct {
	SessionID      string
	Date           string
	Model          string
	Summary        string
	TasksCompleted int
}

// Estimate is the token and cost estimate for one session.
type Estimate struct {
	SessionID        string  `json:"session_id"`
	Date             string  `json:"date"`
	Model            string  `json:"model"`
	LinesAdded       int     `json:"lines_added"`
	LinesRemoved     int     `json:"lines_removed"`
	Commits          int     `json:"commits"`
	EstimatedTokens  int     `json:"estimated_tokens"`
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
	TasksCompleted   int     `json:"tasks_completed"`
	Summary          string  `json:"summary"`
}

var (
	taskBulletRe = regexp.MustCompile(`(?m)^\s*-\s+\*\*`)
	scopeRe      = regexp.MustCompile(`(?i)###\s+Scope\s+confirmed\s*\n(.+)`)
)

// ParseChangelogSessions extracts session metadata from CHANGELOG.md. Task
// counts come from bold bullets; the summary comes from the line after a
// "Scope confirmed" header, falling back to the session number.
func ParseChangelogSessions(changelogPath string) []SessionInfo {
	raw := mdscan.ReadSessions(changelogPath)

	sessions := make([]SessionInfo, 0, len(raw))
	for _, s := range raw {
		model := s.Model
		if model == "" {
			model = DefaultModel
		}

		summary := "Session " + s.ID
		if m := scopeRe.FindStringSubmatch(s.Body); m != nil {
			summary = strings.TrimSpace(m[1])
		}
		if len(summary) > 100 {
			summary = summary[:100]
		}

		sessions = append(sessions, SessionInfo{
			SessionID:      s.ID,
			Date:           s.Date,
			Model:          model,
			Summary:        summary,
			TasksCompleted: len(taskBulletRe.FindAllString(s.Body, -1)),
		})
	}
	return sessions
}

// EstimateTokens converts git line stats to a token estimate.
func EstimateTokens(stats gitlog.Stats) int {
	return int(float64(stats.LinesAdded)*TokensPerLineAdded +
		float64(stats.LinesRemoved)*TokensPerLineRemoved)
}

// EstimateCost converts tokens to USD for a model, rounded to 4 decimals.
func EstimateCost(tokens int, model string) float64 {
	rate, ok := CostPerMillionTokens[model]
	if !ok {
		rate = CostPerMillionTokens["unknown"]
	}
	return math.Round(float64(tokens)/1_000_000*rate*10000) / 10000
}

// ComputeEstimates builds estimates for the sessions whose IDs are not yet
// in existingIDs, pulling line stats from git per session date.
func ComputeEstimates(ctx context.Context, sessions []SessionInfo, existingIDs map[string]struct{}, git *gitlog.Runner) []Estimate {
	var estimates []Estimate
	for _, session := range sessions {
		if _, logged := existingIDs[session.SessionID]; logged {
			continue
		}

		stats := git.StatsForDate(ctx, session.Date)
		tokens := EstimateTokens(stats)

		estimates = append(estimates, Estimate{
			SessionID:        session.SessionID,
			Date:             session.Date,
			Model:            session.Model,
			LinesAdded:       stats.LinesAdded,
			LinesRemoved:     stats.LinesRemoved,
			Commits:          stats.Commits,
			EstimatedTokens:  tokens,
			EstimatedCostUSD: EstimateCost(tokens, session.Model),
			TasksCompleted:   session.TasksCompleted,
			Summary:          session.Summary,
		})
	}
	return estimates
}

// FormatCostLogRow renders one estimate as a COST_LOG.md table row.
func FormatCostLogRow(e Estimate) string {
	summary := e.Summary
	if len(summary) > 40 {
		summary = summary[:40]
	}
	notes := fmt.Sprintf("~%s tokens est. (%d+ %d- lines, %d commits)",
		groupThousands(e.EstimatedTokens), e.LinesAdded, e.LinesRemoved, e.Commits)
	return fmt.Sprintf("| %s | %s | %s | %d | %s | $%.3f | %s |",
		e.SessionID, e.Date, e.Model, e.TasksCompleted, summary, e.EstimatedCostUSD, notes)
}

// groupThousands formats an integer with comma separators.
func groupThousands(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// Result is the outcome of a token-counting run.
type Result struct {
	Sessions  []SessionInfo
	Estimates []Estimate
}

// Run parses the changelog, dedupes against COST_LOG.md, and computes
// estimates for the remaining sessions.
func Run(ctx context.Context, repo string) Result {
	sessions := ParseChangelogSessions(filepath.Join(repo, "CHANGELOG.md"))
	existing := costlog.ExistingSessions(filepath.Join(repo, "COST_LOG.md"))
	return Result{
		Sessions:  sessions,
		Estimates: ComputeEstimates(ctx, sessions, existing, gitlog.New(repo)),
	}
}

// FormatText renders the new-session summary lines.
func FormatText(estimates []Estimate) string {
	lines := []string{fmt.Sprintf("New sessions to log: %d", len(estimates))}
	for _, e := range estimates {
		lines = append(lines, fmt.Sprintf("  Session %s (%s): ~%s tokens, $%.3f [%s]",
			e.SessionID, e.Date, groupThousands(e.EstimatedTokens), e.EstimatedCostUSD, e.Model))
	}
	return strings.Join(lines, "\n")
}
