// Package adrcov matches architectural decisions recorded in DECISIONS.md and
// CHANGELOG.md against the ADR files under docs/adr, and reports which
// decisions lack a covering ADR.
//
// Coverage is a heuristic: a decision is covered when its body carries an
// explicit ADR-NNN back-reference, or when decision and ADR text share at
// least two significant keywords. False positives and negatives are accepted.
package adrcov

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bartekus/warden/internal/mdscan"
)

// Decision is one architectural decision extracted from DECISIONS.md or a
// CHANGELOG.md "Decisions made" section.
type Decision struct {
	Source     string `json:"source"`
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
	Body       string `json:"body"`
}

// CoverageResult is the coverage verdict for a single decision.
type CoverageResult struct {
	Decision       Decision `json:"decision"`
	Covered        bool     `json:"covered"`
	CoveringADRs   []string `json:"covering_adrs"`
	Recommendation string   `json:"recommendation"`
}

// Report is the full coverage result for one repository.
type Report struct {
	Repository string           `json:"repository"`
	ADRs       []mdscan.ADR     `json:"-"`
	Results    []CoverageResult `json:"-"`
	Uncovered  int              `json:"uncovered"`
	Covered    int              `json:"covered"`
}

var (
	decHeaderRe = regexp.MustCompile(`(?m)^##\s+DEC-(\d+)\s+--\s+(.+?)\s+--\s+\d{4}-\d{2}-\d{2}`)

	decisionBulletRe   = regexp.MustCompile(`(?m)^\s*[-*]\s*\*\*([^*]+)\*\*(?:\s*\([^)]*\))?:\s*(.{20,300})`)
	decisionsMadeRe    = regexp.MustCompile(`(?i)###\s+Decisions\s+made\s*\n`)
	subsectionHeaderRe = regexp.MustCompile(`(?m)^###\s`)
	adrRefRe           = regexp.MustCompile(`(?i)\bADR[- ](\d+)\b`)
)

// decisionsMadeSection returns the body of a session's "Decisions made"
// subsection, up to the next subsection header.
func decisionsMadeSection(body string) (string, bool) {
	loc := decisionsMadeRe.FindStringIndex(body)
	if loc == nil {
		return "", false
	}
	rest := body[loc[1]:]
	if next := subsectionHeaderRe.FindStringIndex(rest); next != nil {
		rest = rest[:next[0]]
	}
	return rest, true
}

// ParseDecisionsMD extracts DEC entries from DECISIONS.md. A missing file is
// zero evidence, not an error.
func ParseDecisionsMD(path string) []Decision {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	content := string(data)

	var decisions []Decision
	matches := decHeaderRe.FindAllStringSubmatchIndex(content, -1)
	for i, m := range matches {
		number := content[m[2]:m[3]]
		for len(number) < 3 {
			number = "0" + number
		}
		title := strings.TrimSpace(content[m[4]:m[5]])

		end := len(content)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		decisions = append(decisions, Decision{
			Source:     "DECISIONS.md",
			Identifier: "DEC-" + number,
			Title:      title,
			Body:       content[m[0]:end],
		})
	}
	return decisions
}

// ParseChangelogDecisions extracts decisions from the "Decisions made"
// subsections of each CHANGELOG.md session. Bullets that already name an ADR
// are skipped.
func ParseChangelogDecisions(path string) []Decision {
	sessions := mdscan.ReadSessions(path)

	var decisions []Decision
	for _, s := range sessions {
		section, ok := decisionsMadeSection(s.Body)
		if !ok {
			continue
		}
		for _, bullet := range decisionBulletRe.FindAllStringSubmatch(section, -1) {
			title := strings.TrimSpace(bullet[1])
			body := strings.TrimSpace(bullet[2])
			if mdscan.HasADRReference(bullet[1] + bullet[2]) {
				continue
			}
			decisions = append(decisions, Decision{
				Source:     "CHANGELOG.md",
				Identifier: fmt.Sprintf("Session %s — %s", s.ID, title),
				Title:      title,
				Body:       body,
			})
		}
	}
	return decisions
}

// MergeDecisions deduplicates by lowercase title; DECISIONS.md entries win.
func MergeDecisions(fromDecisionsMD, fromChangelog []Decision) []Decision {
	seen := make(map[string]struct{}, len(fromDecisionsMD))
	for _, d := range fromDecisionsMD {
		seen[strings.ToLower(d.Title)] = struct{}{}
	}

	merged := append([]Decision(nil), fromDecisionsMD...)
	for _, d := range fromChangelog {
		if _, dup := seen[strings.ToLower(d.Title)]; dup {
			continue
		}
		merged = append(merged, d)
	}
	return merged
}

// CheckCoverage determines, for each decision, which ADRs cover it.
func CheckCoverage(decisions []Decision, adrs []mdscan.ADR) []CoverageResult {
	results := make([]CoverageResult, 0, len(decisions))

	for _, decision := range decisions {
		decisionText := decision.Title + " " + decision.Body

		referenced := make(map[string]struct{})
		for _, m := range adrRefRe.FindAllStringSubmatch(decision.Body, -1) {
			referenced[m[1]] = struct{}{}
		}

		var covering []string
		for _, adr := range adrs {
			adrText := adr.Title + " " + adr.Content
			_, explicitRef := referenced[adr.Number]
			if explicitRef || mdscan.KeywordOverlap(decisionText, adrText) >= mdscan.KeywordMatchThreshold {
				covering = append(covering, adr.Number)
			}
		}

		covered := len(covering) > 0
		var recommendation string
		if covered {
			recommendation = "Covered by ADR-" + covering[0] + "."
		} else {
			recommendation = fmt.Sprintf(
				"Create docs/adr/ADR-NNN-%s.md using the template in docs/adr/ADR-000-template.md.",
				mdscan.Slug(decision.Title))
		}

		results = append(results, CoverageResult{
			Decision:       decision,
			Covered:        covered,
			CoveringADRs:   covering,
			Recommendation: recommendation,
		})
	}
	return results
}

// Check runs the full coverage pipeline for a repository.
func Check(repo string) Report {
	changelog := ParseChangelogDecisions(filepath.Join(repo, "CHANGELOG.md"))
	decisionsMD := ParseDecisionsMD(filepath.Join(repo, "DECISIONS.md"))
	adrs := mdscan.LoadADRs(filepath.Join(repo, "docs", "adr"))

	results := CheckCoverage(MergeDecisions(decisionsMD, changelog), adrs)

	r := Report{Repository: repo, ADRs: adrs, Results: results}
	for _, res := range results {
		if res.Covered {
			r.Covered++
		} else {
			r.Uncovered++
		}
	}
	return r
}

// FormatText renders the human-readable coverage report.
func FormatText(r Report) string {
	lines := []string{
		"ADR Coverage Report",
		"===================",
		"Repository: " + r.Repository,
		fmt.Sprintf("ADRs found:          %d", len(r.ADRs)),
		fmt.Sprintf("Decisions found:     %d", len(r.Results)),
		fmt.Sprintf("Covered decisions:   %d", r.Covered),
		fmt.Sprintf("Uncovered decisions: %d", r.Uncovered),
	}

	if len(r.ADRs) > 0 {
		lines = append(lines, "", "Existing ADRs:")
		for _, adr := range r.ADRs {
			lines = append(lines, fmt.Sprintf("  ADR-%s: %s", adr.Number, adr.Title))
		}
	}

	if r.Uncovered > 0 {
		lines = append(lines, "", fmt.Sprintf("Decisions lacking ADR coverage (%d):", r.Uncovered))
		for _, res := range r.Results {
			if res.Covered {
				continue
			}
			preview := res.Decision.Body
			if len(preview) > 120 {
				preview = preview[:120]
			}
			preview = strings.ReplaceAll(preview, "\n", " ")
			lines = append(lines,
				"",
				fmt.Sprintf("  [%s] %s", res.Decision.Source, res.Decision.Identifier),
				"  Title: "+res.Decision.Title,
				"  Body:  "+preview+"...",
				"  Recommendation: "+res.Recommendation,
			)
		}
	} else {
		lines = append(lines, "", "All decisions have ADR coverage.")
	}

	if r.Covered > 0 {
		lines = append(lines, "", fmt.Sprintf("Decisions with ADR coverage (%d):", r.Covered))
		for _, res := range r.Results {
			if !res.Covered {
				continue
			}
			refs := make([]string, len(res.CoveringADRs))
			for i, n := range res.CoveringADRs {
				refs[i] = "ADR-" + n
			}
			lines = append(lines, fmt.Sprintf("  %s → %s", res.Decision.Identifier, strings.Join(refs, ", ")))
		}
	}

	return strings.Join(lines, "\n")
}

// JSONReport is the machine-readable shape of a coverage run.
type JSONReport struct {
	Repository         string              `json:"repository"`
	ADRsFound          int                 `json:"adrs_found"`
	DecisionsFound     int                 `json:"decisions_found"`
	Covered            int                 `json:"covered"`
	Uncovered          int                 `json:"uncovered"`
	GatePassed         bool                `json:"gate_passed"`
	UncoveredDecisions []UncoveredDecision `json:"uncovered_decisions"`
	CoveredDecisions   []CoveredDecision   `json:"covered_decisions"`
}

type UncoveredDecision struct {
	Source         string `json:"source"`
	Identifier     string `json:"identifier"`
	Title          string `json:"title"`
	Recommendation string `json:"recommendation"`
}

type CoveredDecision struct {
	Identifier   string   `json:"identifier"`
	CoveringADRs []string `json:"covering_adrs"`
}

// ToJSON converts a report into its machine-readable shape.
func ToJSON(r Report) JSONReport {
	out := JSONReport{
		Repository:         r.Repository,
		ADRsFound:          len(r.ADRs),
		DecisionsFound:     len(r.Results),
		Covered:            r.Covered,
		Uncovered:          r.Uncovered,
		GatePassed:         r.Uncovered == 0,
		UncoveredDecisions: []UncoveredDecision{},
		CoveredDecisions:   []CoveredDecision{},
	}
	for _, res := range r.Results {
		if res.Covered {
			refs := make([]string, len(res.CoveringADRs))
			for i, n := range res.CoveringADRs {
				refs[i] = "ADR-" + n
			}
			out.CoveredDecisions = append(out.CoveredDecisions, CoveredDecision{
				Identifier:   res.Decision.Identifier,
				CoveringADRs: refs,
			})
		} else {
			out.UncoveredDecisions = append(out.UncoveredDecisions, UncoveredDecision{
				Source:         res.Decision.Source,
				Identifier:     res.Decision.Identifier,
				Title:          res.Decision.Title,
				Recommendation: res.Recommendation,
			})
		}
	}
	return out
}
