// Package health computes the governance health score for a repository: a
// fixed table of weighted file and section checks rolled up into a 0-100
// score and a discrete maturity level.
package health

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// RequiredClaudeSections are the CLAUDE.md sections the score rewards.
var RequiredClaudeSections = []string{
	"project_context",
	"conventions",
	"mandatory_session_protocol",
	"security_protocol",
	"mandatory_task_reporting",
}

// maturityLevel is one half-open [Low, High) score bucket.
type maturityLevel struct {
	Low   int
	High  int
	Level int
	Label string
}

// The last bucket is effectively open-ended: MaturityLevel clamps anything
// at or above 95 to level 5.
var maturityLevels = []maturityLevel{
	{0, 20, 0, "Ad-hoc"},
	{20, 40, 1, "Foundation"},
	{40, 60, 2, "Structured"},
	{60, 80, 3, "Enforced"},
	{80, 95, 4, "Measured"},
	{95, 101, 5, "Self-optimizing"},
}

// MaturityLevel maps a score to its maturity level number and label. It is
// total over non-negative scores; values above 100 map to the top level.
func MaturityLevel(score int) (int, string) {
	top := maturityLevels[len(maturityLevels)-1]
	if score >= top.Low {
		return top.Level, top.Label
	}
	for _, l := range maturityLevels {
		if score >= l.Low && score < l.High {
			return l.Level, l.Label
		}
	}
	return 0, "Ad-hoc"
}

// Check is one scoring rule evaluation.
type Check struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Points int    `json:"points"`
}

// Report is the full health score result for a repository.
type Report struct {
	Repository string  `json:"repository"`
	Date       string  `json:"date"`
	Score      int     `json:"score"`
	MaxScore   int     `json:"max_score"`
	Level      int     `json:"level"`
	LevelLabel string  `json:"level_label"`
	Checks     []Check `json:"checks"`
}

// Calculate evaluates every health check against the repository. Missing
// files and directories are failed checks worth zero points, never errors.
func Calculate(repo string) Report {
	abs, err := filepath.Abs(repo)
	if err == nil {
		repo = abs
	}

	var checks []Check
	add := func(name string, passed bool, points int) {
		checks = append(checks, Check{Name: name, Passed: passed, Points: points})
	}

	add("CLAUDE.md exists", fileExists(repo, "CLAUDE.md"), 10)

	found := claudeSections(repo)
	for _, section := range RequiredClaudeSections {
		add("CLAUDE.md section: "+section, found[section], 2)
	}

	add("PROJECT_PLAN.md exists", fileExists(repo, "PROJECT_PLAN.md"), 5)
	add("CHANGELOG.md with 3+ entries", countChangelogEntries(repo) >= 3, 10)
	add("ARCHITECTURE.md exists", fileExists(repo, "ARCHITECTURE.md"), 5)
	add("MEMORY.md exists", fileExists(repo, "MEMORY.md"), 5)
	add("At least 1 ADR in docs/adr/", dirHasFiles(repo, "docs/adr"), 5)
	add(".pre-commit-config.yaml exists", fileExists(repo, ".pre-commit-config.yaml"), 10)
	add("GitHub Actions workflow exists", dirHasFiles(repo, ".github/workflows"), 5)
	add("AI review workflow (anthropic/claude)", hasAIReviewWorkflow(repo), 10)
	add("Agent definition exists", dirHasFiles(repo, ".claude/agents") || dirHasFiles(repo, "agents"), 5)
	add("Command definition exists", dirHasFiles(repo, ".claude/commands") || dirHasFiles(repo, "commands"), 5)
	add("patterns/ directory with files", dirHasFiles(repo, "patterns"), 5)
	add("automation/ directory exists", dirExists(repo, "automation"), 5)
	add(".gitignore includes .env", gitignoreHasEnv(repo), 5)

	score, maxScore := 0, 0
	for _, c := range checks {
		maxScore += c.Points
		if c.Passed {
			score += c.Points
		}
	}
	level, label := MaturityLevel(score)

	return Report{
		Repository: repo,
		Date:       time.Now().UTC().Format("2006-01-02"),
		Score:      score,
		MaxScore:   maxScore,
		Level:      level,
		LevelLabel: label,
		Checks:     checks,
	}
}

func fileExists(repo, rel string) bool {
	info, err := os.Stat(filepath.Join(repo, rel))
	return err == nil && info.Mode().IsRegular()
}

func dirExists(repo, rel string) bool {
	info, err := os.Stat(filepath.Join(repo, rel))
	return err == nil && info.IsDir()
}

func dirHasFiles(repo, rel string) bool {
	entries, err := os.ReadDir(filepath.Join(repo, rel))
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() {
			return true
		}
	}
	return false
}

// claudeSections reports which required sections appear in CLAUDE.md,
// matched as a markdown header or bare line.
func claudeSections(repo string) map[string]bool {
	found := make(map[string]bool, len(RequiredClaudeSections))
	data, err := os.ReadFile(filepath.Join(repo, "CLAUDE.md"))
	if err != nil {
		return found
	}
	content := strings.ToLower(string(data))

	for _, section := range RequiredClaudeSections {
		quoted := regexp.QuoteMeta(section)
		re := regexp.MustCompile(
			`(?m)(^|\n)#+\s*` + quoted + `|^\s*` + quoted + `\s*$|(##\s+` + quoted + `)`)
		found[section] = re.MatchString(content)
	}
	return found
}

var changelogEntryRe = regexp.MustCompile(`(?m)^#{2,3}\s+.+`)

func countChangelogEntries(repo string) int {
	data, err := os.ReadFile(filepath.Join(repo, "CHANGELOG.md"))
	if err != nil {
		return 0
	}
	return len(changelogEntryRe.FindAllString(string(data), -1))
}

func hasAIReviewWorkflow(repo string) bool {
	dir := filepath.Join(repo, ".github", "workflows")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		content := strings.ToLower(string(data))
		if strings.Contains(content, "anthropic") || strings.Contains(content, "claude") {
			return true
		}
	}
	return false
}

func gitignoreHasEnv(repo string) bool {
	data, err := os.ReadFile(filepath.Join(repo, ".gitignore"))
	if err != nil {
		return false
	}
	for _, line := range strings.Split(string(data), "\n") {
		switch strings.TrimSpace(line) {
		case ".env", ".env*", ".env/":
			return true
		}
	}
	return false
}

// FormatText renders the human-readable health score report.
func FormatText(r Report) string {
	lines := []string{
		"Governance Health Score",
		"=======================",
		"Repository: " + r.Repository,
		"Date: " + r.Date,
		fmt.Sprintf("Score: %d/%d", r.Score, r.MaxScore),
		"",
		"What's present:",
	}

	for _, c := range r.Checks {
		if c.Passed {
			lines = append(lines, fmt.Sprintf("  ✅ %s: +%d points", c.Name, c.Points))
		}
	}

	lines = append(lines, "", "What's missing:")
	for _, c := range r.Checks {
		if !c.Passed {
			lines = append(lines, fmt.Sprintf("  ❌ %s: +%d points if implemented", c.Name, c.Points))
		}
	}

	lines = append(lines,
		"",
		fmt.Sprintf("Overall level: Level %d (%s)", r.Level, r.LevelLabel),
		"",
		"Level thresholds:",
		"  0-19:   Level 0 (Ad-hoc)",
		"  20-39:  Level 1 (Foundation)",
		"  40-59:  Level 2 (Structured)",
		"  60-79:  Level 3 (Enforced)",
		"  80-94:  Level 4 (Measured)",
		"  95-100: Level 5 (Self-optimizing)",
		"",
		"To improve your score, see: docs/maturity-model.md",
	)

	return strings.Join(lines, "\n")
}
