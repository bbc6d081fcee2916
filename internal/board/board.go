// Package board renders DASHBOARD.md: health score, session velocity, cost
// trend, knowledge freshness, ADR coverage, sprint progress, and the current
// governance maturity level.
package board

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bartekus/warden/internal/chart"
	"github.com/bartekus/warden/internal/costlog"
	"github.com/bartekus/warden/internal/health"
	"github.com/bartekus/warden/internal/mdscan"
	"github.com/bartekus/warden/internal/projection"
)

var (
	tasksCompletedRe = regexp.MustCompile(`(?i)[-*]\s*(?:Tasks?\s+completed|Completed\s+tasks?):\s*(\d+)`)

	memoryUpdatedRe = regexp.MustCompile(`(?i)\*\*Last\s+updated:\*\*\s*(\d{4}-\d{2}-\d{2})`)
	memoryStaleRe   = regexp.MustCompile(`(?i)<!--\s*CUSTOMIZE:`)
	memorySectionRe = regexp.MustCompile(`(?m)^## .+`)
	memoryBulletRe  = regexp.MustCompile(`(?m)^[-*]\s+\S`)

	phaseProgressRe = regexp.MustCompile(`(?i)\*\*Phase\s+(\d+)\s+progress:\*\*\s*(\d+)/(\d+)\s+tasks?\s+complete\s*\((\d+)%\)`)
	sprintGoalRe    = regexp.MustCompile(`(?i)\*\*Sprint\s+goal:\*\*\s*(.+)`)
	sprintDatesRe   = regexp.MustCompile(`(?i)\*\*Sprint\s+dates:\*\*\s*(\d{4}-\d{2}-\d{2})\s+to\s+(\d{4}-\d{2}-\d{2})`)
	currentPhaseRe  = regexp.MustCompile(`(?i)\*\*Current\s+phase:\*\*\s*Phase\s+(\d+)`)
)

// SessionVelocity is one CHANGELOG.md session with its completed task count.
type SessionVelocity struct {
	Session int
	Date    string
	Model   string
	Tasks   int
}

// MemoryHealth captures freshness metadata for MEMORY.md.
type MemoryHealth struct {
	Exists              bool
	LastUpdated         string
	Sections            int
	KnowledgeEntries    int
	PlaceholderSections int
}

// PhaseProgress is one phase line from PROJECT_PLAN.md.
type PhaseProgress struct {
	Phase     int
	Completed int
	Total     int
	Pct       int
}

// SprintPlan captures sprint and phase state from PROJECT_PLAN.md.
type SprintPlan struct {
	Exists       bool
	CurrentPhase int // 0 when absent
	SprintGoal   string
	SprintDates  string
	Phases       []PhaseProgress
}

// ParseVelocity reads CHANGELOG.md session headers and their completed task
// counts. Sessions come back oldest first.
func ParseVelocity(repo string) []SessionVelocity {
	sessions := mdscan.ReadSessions(filepath.Join(repo, "CHANGELOG.md"))

	out := make([]SessionVelocity, 0, len(sessions))
	for _, s := range sessions {
		tasks := 0
		if m := tasksCompletedRe.FindStringSubmatch(s.Body); m != nil {
			tasks, _ = strconv.Atoi(m[1])
		}
		out = append(out, SessionVelocity{
			Session: s.Number,
			Date:    s.Date,
			Model:   s.Model,
			Tasks:   tasks,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Session < out[j].Session })
	return out
}

// ParseMemory returns freshness metadata for MEMORY.md.
func ParseMemory(repo string) MemoryHealth {
	data, err := os.ReadFile(filepath.Join(repo, "MEMORY.md"))
	if err != nil {
		return MemoryHealth{}
	}
	content := string(data)

	mh := MemoryHealth{
		Exists:              true,
		Sections:            len(memorySectionRe.FindAllString(content, -1)),
		KnowledgeEntries:    len(memoryBulletRe.FindAllString(content, -1)),
		PlaceholderSections: len(memoryStaleRe.FindAllString(content, -1)),
	}
	if m := memoryUpdatedRe.FindStringSubmatch(content); m != nil {
		mh.LastUpdated = m[1]
	}
	return mh
}

// ParseSprintPlan extracts sprint and phase progress from PROJECT_PLAN.md.
func ParseSprintPlan(repo string) SprintPlan {
	data, err := os.ReadFile(filepath.Join(repo, "PROJECT_PLAN.md"))
	if err != nil {
		return SprintPlan{}
	}
	content := string(data)

	plan := SprintPlan{Exists: true, SprintGoal: "—", SprintDates: "—"}
	if m := currentPhaseRe.FindStringSubmatch(content); m != nil {
		plan.CurrentPhase, _ = strconv.Atoi(m[1])
	}
	if m := sprintGoalRe.FindStringSubmatch(content); m != nil {
		plan.SprintGoal = strings.TrimSpace(m[1])
	}
	if m := sprintDatesRe.FindStringSubmatch(content); m != nil {
		plan.SprintDates = m[1] + " to " + m[2]
	}
	for _, m := range phaseProgressRe.FindAllStringSubmatch(content, -1) {
		phase, _ := strconv.Atoi(m[1])
		completed, _ := strconv.Atoi(m[2])
		total, _ := strconv.Atoi(m[3])
		pct, _ := strconv.Atoi(m[4])
		plan.Phases = append(plan.Phases, PhaseProgress{Phase: phase, Completed: completed, Total: total, Pct: pct})
	}
	sort.Slice(plan.Phases, func(i, j int) bool { return plan.Phases[i].Phase < plan.Phases[j].Phase })
	return plan
}

// CountADRs lists ADR files under docs/adr/, excluding the ADR-000 template.
func CountADRs(repo string) []string {
	entries, err := os.ReadDir(filepath.Join(repo, "docs", "adr"))
	if err != nil {
		return nil
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".md") || strings.HasPrefix(name, "ADR-000") {
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)
	return files
}

func buildHealthSection(report health.Report) string {
	bar := chart.Bar(float64(report.Score), float64(report.MaxScore), 20)

	lines := []string{
		fmt.Sprintf("**Score:** %d/%d  %s  **Level %d — %s**\n",
			report.Score, report.MaxScore, bar, report.Level, report.LevelLabel),
		"| Status | Check | Points |",
		"|:------:|-------|-------:|",
	}
	for _, c := range report.Checks {
		if c.Passed {
			lines = append(lines, fmt.Sprintf("| ✅ | %s | +%d |", c.Name, c.Points))
		}
	}
	for _, c := range report.Checks {
		if !c.Passed {
			lines = append(lines, fmt.Sprintf("| ❌ | %s | +%d if added |", c.Name, c.Points))
		}
	}
	return strings.Join(lines, "\n")
}

func buildVelocitySection(sessions []SessionVelocity) string {
	if len(sessions) == 0 {
		return "_No CHANGELOG.md found — cannot compute session velocity._"
	}

	recent := sessions
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	taskCounts := make([]float64, len(recent))
	maxTasks := 0.0
	sum := 0.0
	for i, s := range recent {
		taskCounts[i] = float64(s.Tasks)
		sum += float64(s.Tasks)
		if float64(s.Tasks) > maxTasks {
			maxTasks = float64(s.Tasks)
		}
	}
	avg := sum / float64(len(recent))

	lines := []string{
		fmt.Sprintf("**Sessions tracked:** %d  | **Avg tasks/session:** %.1f  | **Trend:** %s\n",
			len(sessions), avg, chart.TrendArrow(taskCounts)),
		"```",
		fmt.Sprintf("Tasks/Session (last %d sessions)", len(recent)),
		"",
	}
	for _, s := range recent {
		lines = append(lines, fmt.Sprintf("  Session %3d  %s  %d",
			s.Session, chart.Bar(float64(s.Tasks), maxTasks, 16), s.Tasks))
	}
	lines = append(lines, "", "  Sparkline: "+chart.Sparkline(taskCounts), "```")
	return strings.Join(lines, "\n")
}

func buildCostSection(rows []costlog.Row) string {
	if len(rows) == 0 {
		return "_No COST_LOG.md found — cost tracking not active._"
	}

	recent := rows
	if len(recent) > 8 {
		recent = recent[len(recent)-8:]
	}
	costs := make([]float64, len(recent))
	maxCost := 0.0
	for i, r := range recent {
		costs[i] = r.Cost
		if r.Cost > maxCost {
			maxCost = r.Cost
		}
	}

	total := 0.0
	tasksTotal := 0
	modelCounts := make(map[string]int)
	for _, r := range rows {
		total += r.Cost
		tasksTotal += r.Tasks
		modelCounts[r.Model]++
	}
	avgCost := total / float64(len(rows))
	costPerTask := 0.0
	if tasksTotal > 0 {
		costPerTask = total / float64(tasksTotal)
	}

	lines := []string{
		fmt.Sprintf("**Total cost (all sessions):** $%.2f  | **Avg/session:** $%.3f  | **Cost/task:** $%.3f\n",
			total, avgCost, costPerTask),
		"```",
		fmt.Sprintf("Cost per Session (last %d sessions)", len(recent)),
		"",
	}
	for _, r := range recent {
		lines = append(lines, fmt.Sprintf("  Session %3d  %s  $%.3f",
			r.Session, chart.Bar(r.Cost, maxCost, 16), r.Cost))
	}
	lines = append(lines,
		"",
		fmt.Sprintf("  Sparkline: %s  Trend: %s", chart.Sparkline(costs), chart.TrendArrow(costs)),
		"```\n",
		"**Model distribution:**",
	)

	models := make([]string, 0, len(modelCounts))
	for m := range modelCounts {
		models = append(models, m)
	}
	sort.Strings(models)
	for _, m := range models {
		pct := float64(modelCounts[m]) / float64(len(rows)) * 100
		lines = append(lines, fmt.Sprintf("- `%s`: %d session(s) (%.0f%%)", m, modelCounts[m], pct))
	}
	return strings.Join(lines, "\n")
}

func buildKnowledgeSection(mh MemoryHealth, now time.Time) string {
	if !mh.Exists {
		return "_No MEMORY.md found — cross-session knowledge not persisted._"
	}

	last := mh.LastUpdated
	if last == "" {
		last = "unknown"
	}
	freshness := "unknown"
	if mh.LastUpdated != "" {
		if updated, err := time.Parse("2006-01-02", mh.LastUpdated); err == nil {
			days := int(now.UTC().Truncate(24*time.Hour).Sub(updated) / (24 * time.Hour))
			switch {
			case days <= 7:
				freshness = fmt.Sprintf("✅ Fresh (%dd ago)", days)
			case days <= 30:
				freshness = fmt.Sprintf("⚠️ Aging (%dd ago)", days)
			default:
				freshness = fmt.Sprintf("❌ Stale (%dd ago — review recommended)", days)
			}
		}
	}

	lines := []string{
		fmt.Sprintf("**Last updated:** %s  | **Freshness:** %s", last, freshness),
		fmt.Sprintf("**Sections:** %d  | **Knowledge entries:** %d  | **Placeholder sections remaining:** %d",
			mh.Sections, mh.KnowledgeEntries, mh.PlaceholderSections),
	}
	if mh.PlaceholderSections > 0 {
		lines = append(lines, fmt.Sprintf(
			"\n⚠️ %d section(s) still contain `<!-- CUSTOMIZE -->` placeholder text. Replace with project-specific knowledge.",
			mh.PlaceholderSections))
	}
	return strings.Join(lines, "\n")
}

func buildADRSection(files []string) string {
	if len(files) == 0 {
		return "❌ **No ADRs found** in `docs/adr/` (excluding template).\n\n" +
			"Create your first ADR from " +
			"[`docs/adr/ADR-000-template.md`](../docs/adr/ADR-000-template.md) " +
			"to reach Level 2."
	}

	lines := []string{
		fmt.Sprintf("**ADRs recorded:** %d\n", len(files)),
		"| ADR File | Status |",
		"|----------|--------|",
	}
	for _, f := range files {
		lines = append(lines, fmt.Sprintf("| `%s` | — |", f))
	}
	return strings.Join(lines, "\n")
}

func buildSprintSection(plan SprintPlan) string {
	if !plan.Exists {
		return "_No PROJECT_PLAN.md found — sprint tracking not active._"
	}

	lines := []string{
		"**Sprint goal:** " + plan.SprintGoal,
		"**Sprint dates:** " + plan.SprintDates + "\n",
	}

	if len(plan.Phases) > 0 {
		lines = append(lines, "**Phase progress:**\n", "```")
		for _, p := range plan.Phases {
			marker := ""
			if p.Phase == plan.CurrentPhase {
				marker = " ◀ current"
			}
			lines = append(lines, fmt.Sprintf("  Phase %d  %s  %d/%d (%d%%)%s",
				p.Phase, chart.Bar(float64(p.Completed), float64(p.Total), 16),
				p.Completed, p.Total, p.Pct, marker))
		}
		lines = append(lines, "```")
	} else {
		lines = append(lines,
			"_Progress percentages not found in PROJECT_PLAN.md. Add `**Phase N progress:** X/Y tasks complete (Z%)` lines._")
	}
	return strings.Join(lines, "\n")
}

var maturityDescriptions = map[int]string{
	0: "No governance. CLAUDE.md does not exist or contains no required sections.",
	1: "Foundation: CLAUDE.md, PROJECT_PLAN.md, CHANGELOG.md in place. Sessions are governed.",
	2: "Structured: ADRs, MEMORY.md, ARCHITECTURE.md, CI/CD present. Decisions are recorded.",
	3: "Enforced: Pre-commit hooks, AI review workflow, governance gate active. Compliance is automatic.",
	4: "Measured: Quality metrics tracked. Drift detection active. Model routing optimized.",
	5: "Self-optimizing: Org-level governance, research pipeline, compliance audit trail complete.",
}

var maturityThresholds = map[int]int{1: 20, 2: 40, 3: 60, 4: 80, 5: 95}

func buildMaturitySection(report health.Report) string {
	lines := []string{
		fmt.Sprintf("**Current level:** Level %d — %s", report.Level, report.LevelLabel),
		fmt.Sprintf("**Evidence:** Score %d/%d (%.0f%%)\n",
			report.Score, report.MaxScore, float64(report.Score)/float64(report.MaxScore)*100),
		"_" + maturityDescriptions[report.Level] + "_\n",
	}

	if report.Level < 5 {
		nextLevel := report.Level + 1
		threshold, ok := maturityThresholds[nextLevel]
		if !ok {
			threshold = 100
		}
		missingPts := 0
		for _, c := range report.Checks {
			if !c.Passed {
				missingPts += c.Points
			}
		}
		lines = append(lines,
			fmt.Sprintf("**To reach Level %d:** add %d more points (%d available from missing checks)\n",
				nextLevel, threshold-report.Score, missingPts),
			"**Missing checks:**",
		)
		for _, c := range report.Checks {
			if !c.Passed {
				lines = append(lines, fmt.Sprintf("- ❌ %s (+%d pts)", c.Name, c.Points))
			}
		}
	}
	return strings.Join(lines, "\n")
}

// Generate renders the full DASHBOARD.md content for a repository.
func Generate(repo string, now time.Time) string {
	if abs, err := filepath.Abs(repo); err == nil {
		repo = abs
	}

	report := health.Calculate(repo)
	sessions := ParseVelocity(repo)
	rows := costlog.ReadRepo(repo)
	memory := ParseMemory(repo)
	plan := ParseSprintPlan(repo)
	adrFiles := CountADRs(repo)

	lines := []string{
		"# Governance Dashboard",
		"",
		fmt.Sprintf("> Generated: %s  |  Repository: `%s`",
			now.UTC().Format("2006-01-02 15:04 UTC"), filepath.Base(repo)),
		"",
		"> This file is auto-generated by `warden dashboard`.",
		"> Do not edit manually — run the command to refresh.",
		"",
	}

	lines = append(lines, projection.SectionDivider("Health Score"), buildHealthSection(report))
	lines = append(lines, projection.SectionDivider("Session Velocity"), buildVelocitySection(sessions))
	lines = append(lines, projection.SectionDivider("Cost Trend"), buildCostSection(rows))
	lines = append(lines, projection.SectionDivider("Knowledge Health"), buildKnowledgeSection(memory, now))
	lines = append(lines, projection.SectionDivider("ADR Coverage"), buildADRSection(adrFiles))
	lines = append(lines, projection.SectionDivider("Sprint Progress"), buildSprintSection(plan))
	lines = append(lines, projection.SectionDivider("Governance Maturity Level"), buildMaturitySection(report))

	lines = append(lines,
		"",
		"---",
		"",
		"*See [docs/metrics-guide.md](docs/metrics-guide.md) for metric definitions and collection methods.*",
		"*See [docs/maturity-model.md](docs/maturity-model.md) for upgrade paths between maturity levels.*",
		"",
	)

	return strings.Join(lines, "\n")
}

// Write renders the dashboard and writes it atomically under the repo root.
func Write(repo, output string, now time.Time) (string, error) {
	content := Generate(repo, now)
	path := filepath.Join(repo, output)
	if err := projection.AtomicWrite(path, []byte(content)); err != nil {
		return "", err
	}
	return path, nil
}
