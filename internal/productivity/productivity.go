// Package productivity analyzes git history: commit frequency, change rates,
// active hours, commit message patterns, and a governance compliance score.
package productivity

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/bartekus/warden/internal/chart"
	"github.com/bartekus/warden/internal/gitlog"
)

var (
	commitTypeRe = regexp.MustCompile(
		`^(feat|fix|docs|refactor|test|chore|perf|style|ci|build|revert)(\(.+\))?: .{3,}$`)
	commitTypePrefixRe = regexp.MustCompile(
		`^(feat|fix|docs|refactor|test|chore|perf|style|ci|build|revert)`)
	governanceCommitRe = regexp.MustCompile(`^docs: update project state after session`)

	uppercaseStartRe = regexp.MustCompile(`^[A-Z]`)
	typePrefixRe     = regexp.MustCompile(`^[a-z]+:`)
)

// Options filters the analyzed commit range.
type Options struct {
	Since  string // YYYY-MM-DD, required
	Until  string // optional
	Author string // optional
}

func isWIP(message string) bool {
	lower := strings.ToLower(message)
	return strings.HasPrefix(lower, "wip") || strings.HasPrefix(lower, "work in progress")
}

// ScoreCommitMessage checks a commit subject against the conventional commits
// format. The reason explains the first violation found.
func ScoreCommitMessage(message string) (bool, string) {
	if commitTypeRe.MatchString(message) {
		return true, "follows conventional commits format"
	}
	if message == "" {
		return false, "empty message"
	}
	if isWIP(message) {
		return false, "WIP commit — should not be merged"
	}
	if uppercaseStartRe.MatchString(message) && !typePrefixRe.MatchString(message) {
		return false, "starts with uppercase without type prefix (use 'feat:', 'fix:', etc.)"
	}
	if len(strings.Fields(message)) < 2 {
		return false, "too short — commit message should describe what changed"
	}
	if strings.HasSuffix(message, ".") {
		return false, "ends with period — conventional commits messages do not end with periods"
	}
	return false, fmt.Sprintf("does not match 'type: description' format (got: '%s')", truncate(message, 50))
}

// Governance is the compliance score computed from commit history. The score
// weights message format 50%, session update commits 30%, WIP absence 20%.
type Governance struct {
	Score             int
	MessageCompliance int
	SessionUpdates    int
	WIPCommits        int
	NonCompliant      []string // up to 10 formatted violations
}

// CalculateGovernance scores commit history for governance compliance.
func CalculateGovernance(commits []gitlog.Commit) Governance {
	if len(commits) == 0 {
		return Governance{}
	}

	compliant := 0
	var details []string
	for _, c := range commits {
		passes, reason := ScoreCommitMessage(c.Message)
		if passes {
			compliant++
		} else if len(details) < 10 {
			details = append(details, fmt.Sprintf("  [%s] '%s' — %s", c.Hash, truncate(c.Message, 60), reason))
		}
	}
	messagePct := float64(compliant) / float64(len(commits)) * 100

	sessionUpdates := 0
	for _, c := range commits {
		if governanceCommitRe.MatchString(c.Message) {
			sessionUpdates++
		}
	}
	// Expect at least one session update commit per 10 commits.
	expected := len(commits) / 10
	if expected < 1 {
		expected = 1
	}
	governanceRatio := math.Min(1.0, float64(sessionUpdates)/float64(expected))
	governancePct := governanceRatio * 100

	wip := 0
	for _, c := range commits {
		if isWIP(c.Message) {
			wip++
		}
	}
	wipPct := 100 - float64(wip)/float64(len(commits))*100

	final := messagePct*0.50 + governancePct*0.30 + wipPct*0.20

	return Governance{
		Score:             int(math.Round(final)),
		MessageCompliance: int(math.Round(messagePct)),
		SessionUpdates:    sessionUpdates,
		WIPCommits:        wip,
		NonCompliant:      details,
	}
}

// BuildReport renders the full productivity report. fileChanges is the list
// of paths touched in the range, with repeats, for change frequency.
func BuildReport(commits []gitlog.Commit, fileChanges []string, opts Options, now time.Time) string {
	var lines []string
	sep := strings.Repeat("=", 60)
	rule := strings.Repeat("-", 40)

	until := opts.Until
	if until == "" {
		until = "now"
	}
	authorLabel := ""
	if opts.Author != "" {
		authorLabel = " | Author: " + opts.Author
	}

	lines = append(lines,
		sep,
		"  AI-ASSISTED DEVELOPMENT PRODUCTIVITY REPORT",
		sep,
		fmt.Sprintf("  Period: %s to %s%s", opts.Since, until, authorLabel),
		"  Generated: "+now.Format("2006-01-02 15:04"),
		sep,
		"",
	)

	if len(commits) == 0 {
		lines = append(lines, "  No commits found for the specified period and filters.")
		return strings.Join(lines, "\n")
	}

	totalFiles, totalIns, totalDel := 0, 0, 0
	dateSet := make(map[string]struct{})
	firstDate, lastDate := commits[0].Date, commits[0].Date
	for _, c := range commits {
		totalFiles += c.FilesChanged
		totalIns += c.Insertions
		totalDel += c.Deletions
		dateSet[c.Date] = struct{}{}
		if c.Date < firstDate {
			firstDate = c.Date
		}
		if c.Date > lastDate {
			lastDate = c.Date
		}
	}
	activeDays := len(dateSet)
	calendarDays := daysBetween(firstDate, lastDate) + 1

	lines = append(lines,
		"OVERVIEW",
		rule,
		fmt.Sprintf("  Total commits:          %6d", len(commits)),
		fmt.Sprintf("  Files changed:          %6d", totalFiles),
		fmt.Sprintf("  Lines added:            %6d", totalIns),
		fmt.Sprintf("  Lines removed:          %6d", totalDel),
		fmt.Sprintf("  Net lines:              %+6d", totalIns-totalDel),
		fmt.Sprintf("  Active days:            %6d", activeDays),
		fmt.Sprintf("  Calendar days:          %6d", calendarDays),
		"",
	)

	commitsPerActive := float64(len(commits)) / float64(activeDays)
	commitsPerCalendar := 0.0
	if calendarDays > 0 {
		commitsPerCalendar = float64(len(commits)) / float64(calendarDays)
	}
	filesPerCommit := float64(totalFiles) / float64(len(commits))

	lines = append(lines,
		"VELOCITY",
		rule,
		fmt.Sprintf("  Commits per active day:     %5.1f", commitsPerActive),
		fmt.Sprintf("  Commits per calendar day:   %5.1f", commitsPerCalendar),
		fmt.Sprintf("  Files changed per commit:   %5.1f", filesPerCommit),
		"",
	)

	dayCounts := make(map[string]int)
	for _, c := range commits {
		dayCounts[c.Timestamp.Weekday().String()]++
	}
	maxDay := 0.0
	for _, n := range dayCounts {
		if float64(n) > maxDay {
			maxDay = float64(n)
		}
	}
	lines = append(lines, "ACTIVITY BY DAY OF WEEK", rule)
	for _, day := range []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"} {
		n := dayCounts[day]
		lines = append(lines, fmt.Sprintf("  %-10s %s %3d", day, chart.Bar(float64(n), maxDay, 20), n))
	}
	lines = append(lines, "")

	hourCounts := make(map[int]int)
	for _, c := range commits {
		hourCounts[c.Hour]++
	}
	maxHour := 0
	for _, n := range hourCounts {
		if n > maxHour {
			maxHour = n
		}
	}
	lines = append(lines, "ACTIVITY BY HOUR (UTC)", rule,
		"  Peak hours: "+peakHoursLabel(hourCounts), "")
	for hour := 0; hour < 24; hour++ {
		n := hourCounts[hour]
		if n == 0 {
			continue
		}
		filled := n * 20 / maxHour
		lines = append(lines, fmt.Sprintf("  %02d:00  %s %d", hour, strings.Repeat("█", filled), n))
	}
	lines = append(lines, "")

	typeCounts := make(map[string]int)
	for _, c := range commits {
		if m := commitTypePrefixRe.FindStringSubmatch(c.Message); m != nil {
			typeCounts[m[1]]++
		} else {
			typeCounts["other"]++
		}
	}
	lines = append(lines, "COMMIT TYPE BREAKDOWN", rule)
	for _, kv := range sortedByCount(typeCounts) {
		pct := float64(kv.count) / float64(len(commits)) * 100
		lines = append(lines, fmt.Sprintf("  %-12s %4d  (%4.0f%%)", kv.key, kv.count, pct))
	}
	lines = append(lines, "")

	if len(fileChanges) > 0 {
		fileCounts := make(map[string]int)
		for _, f := range fileChanges {
			fileCounts[f]++
		}
		lines = append(lines, "MOST FREQUENTLY CHANGED FILES (top 10)", rule)
		top := sortedByCount(fileCounts)
		if len(top) > 10 {
			top = top[:10]
		}
		for _, kv := range top {
			lines = append(lines, fmt.Sprintf("  %3dx  %s", kv.count, kv.key))
		}
		lines = append(lines, "")
	}

	if opts.Author == "" {
		authorCounts := make(map[string]int)
		for _, c := range commits {
			authorCounts[c.Author]++
		}
		if len(authorCounts) > 1 {
			lines = append(lines, "COMMITS BY AUTHOR", rule)
			for _, kv := range sortedByCount(authorCounts) {
				pct := float64(kv.count) / float64(len(commits)) * 100
				lines = append(lines, fmt.Sprintf("  %4d  (%4.0f%%)  %s", kv.count, pct, kv.key))
			}
			lines = append(lines, "")
		}
	}

	gov := CalculateGovernance(commits)
	label := "NEEDS IMPROVEMENT"
	switch {
	case gov.Score >= 80:
		label = "GOOD"
	case gov.Score >= 60:
		label = "FAIR"
	}
	filled := gov.Score / 5
	lines = append(lines,
		"GOVERNANCE COMPLIANCE SCORE",
		rule,
		fmt.Sprintf("  Overall score: %d/100 — %s", gov.Score, label),
		"  "+strings.Repeat("█", filled)+strings.Repeat("░", 20-filled),
		"",
		fmt.Sprintf("  Commit message format:  %3d%%", gov.MessageCompliance),
		fmt.Sprintf("  Session update commits: %3d", gov.SessionUpdates),
		fmt.Sprintf("  WIP commits (avoid):    %3d", gov.WIPCommits),
		"",
	)
	if len(gov.NonCompliant) > 0 {
		lines = append(lines, "  Non-compliant commit messages (fix these patterns):")
		shown := gov.NonCompliant
		if len(shown) > 5 {
			shown = shown[:5]
		}
		lines = append(lines, shown...)
		if remaining := len(gov.NonCompliant) - 5; remaining > 0 {
			lines = append(lines, fmt.Sprintf("  ... and %d more (use --days N to narrow the range)", remaining))
		}
		lines = append(lines, "")
	}

	lines = append(lines, sep, "")
	return strings.Join(lines, "\n")
}

// Run collects commit history for the range and renders the report. The
// repository must have git history reachable from repo.
func Run(ctx context.Context, repo string, opts Options) (string, error) {
	runner := gitlog.New(repo)
	if _, err := runner.RepoRoot(ctx); err != nil {
		return "", fmt.Errorf("not a git repository (or no git history found): %w", err)
	}

	logOpts := gitlog.LogOptions{Since: opts.Since, Until: opts.Until, Author: opts.Author}
	commits := runner.Commits(ctx, logOpts)
	files := runner.ChangedFiles(ctx, logOpts)

	return BuildReport(commits, files, opts, time.Now()), nil
}

type countedKey struct {
	key   string
	count int
}

func sortedByCount(m map[string]int) []countedKey {
	out := make([]countedKey, 0, len(m))
	for k, n := range m {
		out = append(out, countedKey{k, n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].key < out[j].key
	})
	return out
}

func peakHoursLabel(hourCounts map[int]int) string {
	type hc struct{ hour, count int }
	all := make([]hc, 0, len(hourCounts))
	for h, n := range hourCounts {
		all = append(all, hc{h, n})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return all[i].hour < all[j].hour
	})
	if len(all) > 3 {
		all = all[:3]
	}
	hours := make([]int, len(all))
	for i, e := range all {
		hours[i] = e.hour
	}
	sort.Ints(hours)
	labels := make([]string, len(hours))
	for i, h := range hours {
		labels[i] = fmt.Sprintf("%02d:00", h)
	}
	return strings.Join(labels, ", ")
}

func daysBetween(first, last string) int {
	a, errA := time.Parse("2006-01-02", first)
	b, errB := time.Parse("2006-01-02", last)
	if errA != nil || errB != nil {
		return 0
	}
	return int(b.Sub(a) / (24 * time.Hour))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
