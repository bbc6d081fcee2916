// Package costlog parses and appends to the COST_LOG.md session cost table.
package costlog

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Row is one parsed session entry from the COST_LOG.md table.
type Row struct {
	Session     int     `json:"session"`
	Date        string  `json:"date"`
	Month       string  `json:"month"` // YYYY-MM
	Model       string  `json:"model"`
	Tier        string  `json:"tier"`
	Tasks       int     `json:"tasks"`
	TaskTypes   string  `json:"task_types"`
	SessionType string  `json:"session_type"`
	Cost        float64 `json:"cost"`
	Notes       string  `json:"notes"`
}

var rowRe = regexp.MustCompile(
	`(?m)^\|\s*(\d+)\s*\|\s*(\d{4}-\d{2}-\d{2})\s*\|\s*([^|]+?)\s*\|\s*(\d+)\s*\|` +
		`\s*([^|]*?)\s*\|\s*\$([0-9.]+)\s*\|(?:\s*([^|]*?)\s*\|)?`)

var (
	haikuRe = regexp.MustCompile(`(?i)haiku`)
	opusRe  = regexp.MustCompile(`(?i)opus`)
)

// ClassifyTier maps a model name to its pricing tier. Anything that is not
// recognizably Haiku or Opus is treated as Sonnet.
func ClassifyTier(model string) string {
	switch {
	case haikuRe.MatchString(model):
		return "haiku"
	case opusRe.MatchString(model):
		return "opus"
	default:
		return "sonnet"
	}
}

// ClassifySessionType derives a coarse session category from the task types
// column. First match wins: security > architecture > testing > docs.
func ClassifySessionType(taskTypes string) string {
	lower := strings.ToLower(taskTypes)
	switch {
	case strings.Contains(lower, "security"):
		return "security"
	case strings.Contains(lower, "arch") || strings.Contains(lower, "adr"):
		return "architecture"
	case strings.Contains(lower, "test"):
		return "testing"
	case strings.Contains(lower, "doc"):
		return "documentation"
	default:
		return "feature"
	}
}

// Parse reads the session table from content. Malformed rows are skipped;
// rows come back sorted by ascending session number regardless of input
// order.
func Parse(content string) []Row {
	matches := rowRe.FindAllStringSubmatch(content, -1)
	rows := make([]Row, 0, len(matches))

	for _, m := range matches {
		session, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		tasks, err := strconv.Atoi(m[4])
		if err != nil {
			continue
		}
		cost, err := strconv.ParseFloat(m[6], 64)
		if err != nil {
			continue
		}

		model := strings.TrimSpace(m[3])
		taskTypes := strings.TrimSpace(m[5])
		rows = append(rows, Row{
			Session:     session,
			Date:        m[2],
			Month:       m[2][:7],
			Model:       model,
			Tier:        ClassifyTier(model),
			Tasks:       tasks,
			TaskTypes:   taskTypes,
			SessionType: ClassifySessionType(taskTypes),
			Cost:        cost,
			Notes:       strings.TrimSpace(m[7]),
		})
	}

	// Stable so duplicate session numbers keep their file order.
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Session < rows[j].Session })
	return rows
}

// ReadRepo parses COST_LOG.md from the repository root. A missing file is
// zero evidence.
func ReadRepo(repo string) []Row {
	data, err := os.ReadFile(logPath(repo))
	if err != nil {
		return nil
	}
	return Parse(string(data))
}

// ExistingSessions returns the zero-padded session IDs already recorded in
// COST_LOG.md, so new estimates are not logged twice.
func ExistingSessions(path string) map[string]struct{} {
	data, err := os.ReadFile(path)
	if err != nil {
		return map[string]struct{}{}
	}

	ids := make(map[string]struct{})
	for _, m := range sessionIDRe.FindAllStringSubmatch(string(data), -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		ids[fmt.Sprintf("%03d", n)] = struct{}{}
	}
	return ids
}

var sessionIDRe = regexp.MustCompile(`(?m)^\|\s*(\d+)\s*\|`)

var tableHeaderRe = regexp.MustCompile(
	`\|\s*Session\s*\|[^\n]+\n\|[-| ]+\|[^\n]+\n`)

// AppendRows inserts formatted table rows immediately after the session cost
// table header. When the header cannot be located the rows go at the end of
// the file with a warning on warnw.
func AppendRows(path string, rows []string, warnw func(format string, args ...any)) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	content := string(data)

	loc := tableHeaderRe.FindStringIndex(content)
	if loc == nil {
		warnw("Warning: Could not locate the Session Cost Log table in %s. Appending rows at end of file.\n", path)
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		for _, row := range rows {
			if _, err := f.WriteString(row + "\n"); err != nil {
				return fmt.Errorf("appending to %s: %w", path, err)
			}
		}
		return nil
	}

	updated := content[:loc[1]] + strings.Join(rows, "\n") + "\n" + content[loc[1]:]
	return os.WriteFile(path, []byte(updated), 0o644)
}

func logPath(repo string) string {
	return filepath.Join(repo, "COST_LOG.md")
}
