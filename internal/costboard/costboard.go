// Package costboard renders COST_DASHBOARD.md from COST_LOG.md rows: cost
// breakdowns by model, session type, and month, plus a model routing
// efficiency score and recommendations.
package costboard

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bartekus/warden/internal/chart"
	"github.com/bartekus/warden/internal/costlog"
	"github.com/bartekus/warden/internal/projection"
)

// TierCostPerMillionTokens are reference USD rates used only for efficiency
// scoring ratios, not billing.
var TierCostPerMillionTokens = map[string]float64{
	"haiku":  0.005,
	"sonnet": 0.025,
	"opus":   0.15,
}

// Misrouted describes one session that ran on the wrong model tier.
type Misrouted struct {
	Session     int    `json:"session"`
	Model       string `json:"model"`
	Recommended string `json:"recommended"`
	Reason      string `json:"reason"`
	SessionType string `json:"session_type"`
}

// Efficiency compares actual spend against an optimal-routing estimate.
type Efficiency struct {
	ActualTotal     float64     `json:"actual_total"`
	OptimalTotal    float64     `json:"optimal_total"`
	EfficiencyRatio float64     `json:"efficiency_ratio"`
	Misrouted       []Misrouted `json:"misrouted"`
}

// RoutingRecommendation returns the tier a session of the given type should
// have used, with the reason.
func RoutingRecommendation(tier, sessionType string) (string, string) {
	switch sessionType {
	case "security", "architecture":
		if tier != "opus" {
			return "opus", "Security and architecture tasks need Opus reasoning depth"
		}
	case "documentation":
		if tier == "opus" {
			return "sonnet", "Documentation does not need Opus — use Sonnet to reduce cost"
		}
	case "feature":
		if tier == "haiku" {
			return "sonnet", "Feature work typically requires Sonnet-level capability"
		}
	}
	return tier, "Correctly routed"
}

// ComputeRoutingEfficiency scores actual cost against the cost had every
// session used its recommended tier, scaled by tier reference rates.
func ComputeRoutingEfficiency(rows []costlog.Row) Efficiency {
	var eff Efficiency
	for _, r := range rows {
		eff.ActualTotal += r.Cost

		recommended, reason := RoutingRecommendation(r.Tier, r.SessionType)
		actualRef, ok := TierCostPerMillionTokens[r.Tier]
		if !ok {
			actualRef = 0.025
		}
		optimalRef, ok := TierCostPerMillionTokens[recommended]
		if !ok {
			optimalRef = 0.025
		}
		ratio := 1.0
		if actualRef > 0 {
			ratio = optimalRef / actualRef
		}
		eff.OptimalTotal += r.Cost * ratio

		if recommended != r.Tier {
			eff.Misrouted = append(eff.Misrouted, Misrouted{
				Session:     r.Session,
				Model:       r.Model,
				Recommended: recommended,
				Reason:      reason,
				SessionType: r.SessionType,
			})
		}
	}

	eff.EfficiencyRatio = 1.0
	if eff.OptimalTotal > 0 {
		eff.EfficiencyRatio = eff.ActualTotal / eff.OptimalTotal
	}
	return eff
}

type bucket struct {
	key      string
	sessions int
	tasks    int
	cost     float64
}

func aggregate(rows []costlog.Row, key func(costlog.Row) string) []bucket {
	index := make(map[string]int)
	var buckets []bucket
	for _, r := range rows {
		k := key(r)
		i, ok := index[k]
		if !ok {
			i = len(buckets)
			index[k] = i
			buckets = append(buckets, bucket{key: k})
		}
		buckets[i].sessions++
		buckets[i].tasks += r.Tasks
		buckets[i].cost += r.Cost
	}
	return buckets
}

func totalCost(rows []costlog.Row) float64 {
	total := 0.0
	for _, r := range rows {
		total += r.Cost
	}
	return total
}

func buildSummarySection(rows []costlog.Row) string {
	if len(rows) == 0 {
		return "_No COST_LOG.md data found. Add cost tracking to session end protocol._"
	}

	total := totalCost(rows)
	tasks := 0
	costs := make([]float64, len(rows))
	for i, r := range rows {
		tasks += r.Tasks
		costs[i] = r.Cost
	}
	avgPerSession := total / float64(len(rows))
	costPerTask := 0.0
	if tasks > 0 {
		costPerTask = total / float64(tasks)
	}
	recent := costs
	if len(recent) > 8 {
		recent = recent[len(recent)-8:]
	}

	return strings.Join([]string{
		"| Metric | Value |",
		"|--------|-------|",
		fmt.Sprintf("| Total sessions tracked | %d |", len(rows)),
		fmt.Sprintf("| Total tasks completed | %d |", tasks),
		fmt.Sprintf("| Total AI cost | $%.3f |", total),
		fmt.Sprintf("| Average cost per session | $%.3f |", avgPerSession),
		fmt.Sprintf("| Average cost per task | $%.4f |", costPerTask),
		fmt.Sprintf("| Cost trend (recent) | %s %s |", chart.Sparkline(recent), chart.TrendArrow(costs)),
	}, "\n")
}

func buildModelBreakdownSection(rows []costlog.Row) string {
	if len(rows) == 0 {
		return "_No data._"
	}

	byModel := aggregate(rows, func(r costlog.Row) string { return r.Model })
	sort.SliceStable(byModel, func(i, j int) bool { return byModel[i].cost > byModel[j].cost })

	total := totalCost(rows)
	maxCost := 0.0
	for _, b := range byModel {
		if b.cost > maxCost {
			maxCost = b.cost
		}
	}

	lines := []string{
		"| Model | Sessions | Tasks | Total Cost | Avg/Session | % of Spend | Bar |",
		"|-------|:--------:|:-----:|:----------:|:-----------:|:----------:|-----|",
	}
	for _, b := range byModel {
		avg := b.cost / float64(b.sessions)
		pct := 0.0
		if total > 0 {
			pct = b.cost / total * 100
		}
		lines = append(lines, fmt.Sprintf("| `%s` | %d | %d | $%.3f | $%.3f | %.0f%% | %s |",
			b.key, b.sessions, b.tasks, b.cost, avg, pct, chart.Bar(b.cost, maxCost, 10)))
	}

	byTier := make(map[string]*bucket)
	for _, r := range rows {
		b, ok := byTier[r.Tier]
		if !ok {
			b = &bucket{key: r.Tier}
			byTier[r.Tier] = b
		}
		b.sessions++
		b.cost += r.Cost
	}

	lines = append(lines,
		"",
		"**Tier summary:**",
		"| Tier | Sessions | Total Cost | % of Spend |",
		"|------|:--------:|:----------:|:----------:|",
	)
	for _, tier := range []string{"haiku", "sonnet", "opus"} {
		b, ok := byTier[tier]
		if !ok {
			continue
		}
		pct := 0.0
		if total > 0 {
			pct = b.cost / total * 100
		}
		lines = append(lines, fmt.Sprintf("| %s | %d | $%.3f | %.0f%% |",
			strings.ToUpper(tier[:1])+tier[1:], b.sessions, b.cost, pct))
	}

	return strings.Join(lines, "\n")
}

func buildSessionTypeSection(rows []costlog.Row) string {
	if len(rows) == 0 {
		return "_No data._"
	}

	byType := aggregate(rows, func(r costlog.Row) string { return r.SessionType })
	sort.SliceStable(byType, func(i, j int) bool { return byType[i].cost > byType[j].cost })

	maxCost := 0.0
	for _, b := range byType {
		if b.cost > maxCost {
			maxCost = b.cost
		}
	}

	lines := []string{
		"| Session Type | Sessions | Tasks | Total Cost | Cost/Task | Bar |",
		"|-------------|:--------:|:-----:|:----------:|:---------:|-----|",
	}
	for _, b := range byType {
		cpt := 0.0
		if b.tasks > 0 {
			cpt = b.cost / float64(b.tasks)
		}
		lines = append(lines, fmt.Sprintf("| %s | %d | %d | $%.3f | $%.4f | %s |",
			b.key, b.sessions, b.tasks, b.cost, cpt, chart.Bar(b.cost, maxCost, 10)))
	}
	return strings.Join(lines, "\n")
}

func buildMonthlySection(rows []costlog.Row) string {
	if len(rows) == 0 {
		return "_No data._"
	}

	byMonth := aggregate(rows, func(r costlog.Row) string { return r.Month })
	sort.Slice(byMonth, func(i, j int) bool { return byMonth[i].key < byMonth[j].key })

	monthlyCosts := make([]float64, len(byMonth))
	maxCost := 0.0
	for i, b := range byMonth {
		monthlyCosts[i] = b.cost
		if b.cost > maxCost {
			maxCost = b.cost
		}
	}

	lines := []string{
		"| Month | Sessions | Tasks | Total Cost | Avg/Session | Avg/Task | Trend |",
		"|-------|:--------:|:-----:|:----------:|:-----------:|:--------:|-------|",
	}
	for i, b := range byMonth {
		avgS := b.cost / float64(b.sessions)
		avgT := 0.0
		if b.tasks > 0 {
			avgT = b.cost / float64(b.tasks)
		}
		lines = append(lines, fmt.Sprintf("| %s | %d | %d | $%.3f | $%.3f | $%.4f | %s |",
			b.key, b.sessions, b.tasks, b.cost, avgS, avgT, chart.TrendArrow(monthlyCosts[:i+1])))
	}

	lines = append(lines, "", "```", "Monthly cost trend:", "")
	for _, b := range byMonth {
		lines = append(lines, fmt.Sprintf("  %s  %s  $%.3f", b.key, chart.Bar(b.cost, maxCost, 20), b.cost))
	}
	lines = append(lines, "```")

	return strings.Join(lines, "\n")
}

func buildRoutingEfficiencySection(rows []costlog.Row, eff Efficiency) string {
	if len(rows) == 0 {
		return "_No data._"
	}

	ratio := eff.EfficiencyRatio
	var status, interpretation string
	switch {
	case ratio <= 1.05:
		status = "✅ Excellent"
		interpretation = "Model routing is near-optimal."
	case ratio <= 1.20:
		status = "⚠️ Acceptable"
		interpretation = "Minor routing inefficiencies detected. Review misrouted sessions."
	case ratio <= 1.40:
		status = "❌ Suboptimal"
		interpretation = "Significant cost savings available through better model routing."
	default:
		status = "🔴 Poor"
		interpretation = "Major routing issues. Opus used for tasks suitable for Haiku/Sonnet."
	}

	lines := []string{
		fmt.Sprintf("**Routing efficiency:** %s  (%.2fx — 1.0x = perfect)", status, ratio),
		"_Interpretation: " + interpretation + "_\n",
		"| Metric | Value |",
		"|--------|-------|",
		fmt.Sprintf("| Actual spend | $%.3f |", eff.ActualTotal),
		fmt.Sprintf("| Estimated optimal spend | $%.3f |", eff.OptimalTotal),
		fmt.Sprintf("| Estimated savings available | $%.3f |", eff.ActualTotal-eff.OptimalTotal),
		fmt.Sprintf("| Efficiency ratio | %.2fx |", ratio),
	}

	if len(eff.Misrouted) > 0 {
		lines = append(lines,
			"",
			fmt.Sprintf("**Misrouted sessions (%d):**", len(eff.Misrouted)),
			"",
			"| Session | Used | Recommended | Session Type | Reason |",
			"|:-------:|------|-------------|:------------:|--------|",
		)
		for _, m := range eff.Misrouted {
			lines = append(lines, fmt.Sprintf("| %d | %s | %s | %s | %s |",
				m.Session, m.Model, m.Recommended, m.SessionType, m.Reason))
		}
	} else {
		lines = append(lines, "\n✅ No misrouted sessions detected.")
	}

	return strings.Join(lines, "\n")
}

func buildRecommendationsSection(rows []costlog.Row) string {
	if len(rows) == 0 {
		return "_No data available for recommendations._"
	}

	count := func(tier, sessionType string, invertTier bool) int {
		n := 0
		for _, r := range rows {
			tierHit := r.Tier == tier
			if invertTier {
				tierHit = r.Tier != tier
			}
			if tierHit && r.SessionType == sessionType {
				n++
			}
		}
		return n
	}

	lines := []string{"Based on your session history:\n"}

	if n := count("opus", "documentation", false); n > 0 {
		lines = append(lines,
			"### Switch: Opus → Sonnet for Documentation",
			"",
			"Documentation sessions do not require Opus-level reasoning. Switching to Sonnet saves ~80-90% per documentation session.\n",
			fmt.Sprintf("Affected sessions: %d", n),
			"",
		)
	}
	if n := count("haiku", "feature", false); n > 0 {
		lines = append(lines,
			"### Upgrade: Haiku → Sonnet for Feature Work",
			"",
			"Feature implementation sessions require Sonnet-level code generation quality. Haiku may produce lower-quality output for complex features.\n",
			fmt.Sprintf("Affected sessions: %d", n),
			"",
		)
	}
	if n := count("opus", "security", true); n > 0 {
		lines = append(lines,
			"### Upgrade: → Opus for Security Reviews",
			"",
			"Security reviews require Opus reasoning depth to catch subtle vulnerabilities. Using Sonnet or Haiku creates false confidence.\n",
			fmt.Sprintf("Affected sessions: %d", n),
			"",
		)
	}

	tierCounts := make(map[string]int)
	for _, r := range rows {
		tierCounts[r.Tier]++
	}
	total := len(rows)
	haikuPct := float64(tierCounts["haiku"]) / float64(total) * 100
	opusPct := float64(tierCounts["opus"]) / float64(total) * 100

	lines = append(lines,
		"### General Routing Guidelines\n",
		"| Task Type | Recommended Tier | Rationale |",
		"|-----------|:----------------:|-----------|",
		"| Security review, ADR writing, architecture | Opus | High-stakes decisions need deep reasoning |",
		"| Feature implementation, code review, debugging | Sonnet | Standard quality at lower cost |",
		"| File reads, config edits, CHANGELOG updates | Haiku | 10-20x cheaper, no quality loss |",
	)

	if haikuPct < 10 && total >= 5 {
		lines = append(lines, "", fmt.Sprintf(
			"⚠️ Haiku is currently %.0f%% of sessions. Consider using Haiku for simple tasks (reads, config, status).",
			haikuPct))
	}
	if opusPct > 40 {
		lines = append(lines, "", fmt.Sprintf(
			"⚠️ Opus is %.0f%% of sessions — higher than typical. Verify all Opus sessions require architecture-level reasoning.",
			opusPct))
	}

	return strings.Join(lines, "\n")
}

// Generate renders the full COST_DASHBOARD.md content for a repository.
func Generate(repo string, now time.Time) string {
	if abs, err := filepath.Abs(repo); err == nil {
		repo = abs
	}

	rows := costlog.ReadRepo(repo)
	eff := ComputeRoutingEfficiency(rows)

	lines := []string{
		"# Cost Dashboard",
		"",
		fmt.Sprintf("> Generated: %s  |  Repository: `%s`",
			now.UTC().Format("2006-01-02 15:04 UTC"), filepath.Base(repo)),
		"",
		"> This file is auto-generated by `warden cost-dashboard`.",
		"> Do not edit manually — run the command to refresh.",
		"> Source data: `COST_LOG.md`",
		"",
	}

	lines = append(lines, projection.SectionDivider("Summary"), buildSummarySection(rows))
	lines = append(lines, projection.SectionDivider("Cost by Model"), buildModelBreakdownSection(rows))
	lines = append(lines, projection.SectionDivider("Cost by Session Type"), buildSessionTypeSection(rows))
	lines = append(lines, projection.SectionDivider("Cost by Time Period"), buildMonthlySection(rows))
	lines = append(lines, projection.SectionDivider("Model Routing Efficiency"), buildRoutingEfficiencySection(rows, eff))
	lines = append(lines, projection.SectionDivider("Recommendations"), buildRecommendationsSection(rows))

	lines = append(lines,
		"",
		"---",
		"",
		"*See [docs/metrics-guide.md](docs/metrics-guide.md) for cost metric definitions.*",
		"*See [docs/model-routing.md](docs/model-routing.md) for routing guidelines.*",
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
