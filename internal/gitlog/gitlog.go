// Package gitlog shells out to git to collect commit history and change
// statistics. It is read-only; failures surface as empty evidence or errors
// depending on what the caller treats as fatal.
package gitlog

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Runner executes git commands in a repository directory.
type Runner struct {
	Dir string
}

// New creates a Runner for the given repository root.
func New(dir string) *Runner {
	return &Runner{Dir: dir}
}

func (r *Runner) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.Dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s failed: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// RepoRoot returns the top-level directory of the repository, or an error if
// the directory is not inside a git work tree.
func (r *Runner) RepoRoot(ctx context.Context) (string, error) {
	return r.run(ctx, "rev-parse", "--show-toplevel")
}

// Stats aggregates lines added and removed across commits.
type Stats struct {
	LinesAdded   int
	LinesRemoved int
	Commits      int
}

// StatsForDate returns line stats for all non-merge commits on a given
// YYYY-MM-DD date. A git failure is zero evidence, not an error.
func (r *Runner) StatsForDate(ctx context.Context, date string) Stats {
	var stats Stats
	out, err := r.run(ctx,
		"log",
		"--after="+date+" 00:00:00",
		"--before="+date+" 23:59:59",
		"--numstat",
		"--no-merges",
		"--format=COMMIT",
	)
	if err != nil {
		return stats
	}

	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "COMMIT" {
			stats.Commits++
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 2 {
			continue
		}
		added, errA := parseNumstat(parts[0])
		removed, errR := parseNumstat(parts[1])
		if errA != nil || errR != nil {
			continue
		}
		stats.LinesAdded += added
		stats.LinesRemoved += removed
	}

	return stats
}

// Binary files show "-" in numstat columns; they count as zero lines.
func parseNumstat(field string) (int, error) {
	if field == "-" {
		return 0, nil
	}
	return strconv.Atoi(field)
}

// Commit is one parsed git log entry.
type Commit struct {
	Hash         string // abbreviated to 8 characters
	Timestamp    time.Time
	Date         string // YYYY-MM-DD in UTC
	Hour         int    // UTC hour
	Message      string // subject line
	FilesChanged int
	Insertions   int
	Deletions    int
	Author       string // author email
}

// LogOptions filters a commit query.
type LogOptions struct {
	Since  string // YYYY-MM-DD, required
	Until  string // YYYY-MM-DD, optional
	Author string // optional name/email filter
}

const logSeparator = "|||"

var shortstatRe = regexp.MustCompile(
	`(\d+) files? changed(?:, (\d+) insertions?\(\+\))?(?:, (\d+) deletions?\(-\))?`)

// Commits fetches commit records for the given range. A git failure yields an
// empty slice.
func (r *Runner) Commits(ctx context.Context, opts LogOptions) []Commit {
	args := []string{
		"log",
		"--since=" + opts.Since,
		"--format=%H" + logSeparator + "%ai" + logSeparator + "%ae" + logSeparator + "%s",
		"--shortstat",
	}
	if opts.Until != "" {
		args = append(args, "--until="+opts.Until)
	}
	if opts.Author != "" {
		args = append(args, "--author", opts.Author)
	}

	out, err := r.run(ctx, args...)
	if err != nil || out == "" {
		return nil
	}

	lines := strings.Split(out, "\n")
	var commits []Commit
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if !strings.Contains(line, logSeparator) {
			continue
		}
		parts := strings.Split(line, logSeparator)
		if len(parts) < 4 {
			continue
		}

		ts := parseGitTimestamp(strings.TrimSpace(parts[1]))
		c := Commit{
			Hash:      abbrev(strings.TrimSpace(parts[0])),
			Timestamp: ts,
			Date:      ts.Format("2006-01-02"),
			Hour:      ts.Hour(),
			Message:   strings.TrimSpace(parts[3]),
			Author:    strings.TrimSpace(parts[2]),
		}

		// The shortstat line, when present, follows the header line.
		if i+1 < len(lines) {
			if m := shortstatRe.FindStringSubmatch(strings.TrimSpace(lines[i+1])); m != nil {
				c.FilesChanged = atoiDefault(m[1])
				c.Insertions = atoiDefault(m[2])
				c.Deletions = atoiDefault(m[3])
				i++
			}
		}

		commits = append(commits, c)
	}

	return commits
}

// ChangedFiles returns the paths touched by commits in the range, with
// repeats preserved so callers can count change frequency.
func (r *Runner) ChangedFiles(ctx context.Context, opts LogOptions) []string {
	args := []string{"log", "--since=" + opts.Since, "--format=", "--name-only"}
	if opts.Until != "" {
		args = append(args, "--until="+opts.Until)
	}
	if opts.Author != "" {
		args = append(args, "--author="+opts.Author)
	}

	out, err := r.run(ctx, args...)
	if err != nil || out == "" {
		return nil
	}

	var files []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files = append(files, line)
		}
	}
	return files
}

// parseGitTimestamp parses git's `%ai` format (2025-03-15 14:23:45 +0200) and
// normalizes to UTC. Unparseable timestamps fall back to the current time.
func parseGitTimestamp(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05 -0700", s)
	if err != nil {
		return time.Now().UTC()
	}
	return t.UTC()
}

func abbrev(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

func atoiDefault(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
