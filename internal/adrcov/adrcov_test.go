package adrcov

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/warden/internal/mdscan"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const sampleDecisions = `# Decisions

## DEC-001 -- Adopt Stripe for payment processing -- 2026-01-10

We evaluated several payment providers and settled on Stripe because the
billing integration and webhooks suit our subscription model.

## DEC-002 -- Use PostgreSQL for persistence -- 2026-01-14

Relational storage with strong transactional guarantees.
`

const sampleChangelog = `# Changelog

## Session 003 -- 2026-01-20 [claude-sonnet-4-6]

### Decisions made
- **Adopt Stripe for payment processing**: duplicate of the DECISIONS entry, keep tracking
- **Switch deployment to containers**: move all workloads onto container images for reproducible deploys
- **Pin toolchain version** (ADR-007): already documented elsewhere in detail here

### Tasks completed
- **Shipped billing webhooks**
`

func TestParseDecisionsMD(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "DECISIONS.md", sampleDecisions)

	decisions := ParseDecisionsMD(filepath.Join(root, "DECISIONS.md"))

	require.Len(t, decisions, 2)
	assert.Equal(t, "DEC-001", decisions[0].Identifier)
	assert.Equal(t, "Adopt Stripe for payment processing", decisions[0].Title)
	assert.Contains(t, decisions[0].Body, "billing integration")
	assert.NotContains(t, decisions[0].Body, "PostgreSQL")
	assert.Equal(t, "DEC-002", decisions[1].Identifier)
}

func TestParseDecisionsMDMissingFile(t *testing.T) {
	assert.Empty(t, ParseDecisionsMD(filepath.Join(t.TempDir(), "DECISIONS.md")))
}

func TestParseChangelogDecisionsSkipsADRReferences(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "CHANGELOG.md", sampleChangelog)

	decisions := ParseChangelogDecisions(filepath.Join(root, "CHANGELOG.md"))

	require.Len(t, decisions, 2)
	assert.Equal(t, "Session 003 — Adopt Stripe for payment processing", decisions[0].Identifier)
	assert.Equal(t, "Switch deployment to containers", decisions[1].Title)
	for _, d := range decisions {
		assert.NotEqual(t, "Pin toolchain version", d.Title)
	}
}

func TestMergeDecisionsDeduplicatesByTitle(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "DECISIONS.md", sampleDecisions)
	writeFile(t, root, "CHANGELOG.md", sampleChangelog)

	merged := MergeDecisions(
		ParseDecisionsMD(filepath.Join(root, "DECISIONS.md")),
		ParseChangelogDecisions(filepath.Join(root, "CHANGELOG.md")),
	)

	require.Len(t, merged, 3)
	assert.Equal(t, "DECISIONS.md", merged[0].Source)
	assert.Equal(t, "CHANGELOG.md", merged[2].Source)
}

func TestExplicitReferenceAlwaysCovers(t *testing.T) {
	adrs := []mdscan.ADR{{Number: "004", Title: "Queueing", Content: "zzz qqq unrelated"}}
	decisions := []Decision{{
		Source:     "DECISIONS.md",
		Identifier: "DEC-009",
		Title:      "Totally different topic",
		Body:       "See ADR-004 for the full rationale.",
	}}

	results := CheckCoverage(decisions, adrs)

	require.Len(t, results, 1)
	assert.True(t, results[0].Covered)
	assert.Equal(t, []string{"004"}, results[0].CoveringADRs)
	assert.Equal(t, "Covered by ADR-004.", results[0].Recommendation)
}

func TestKeywordOverlapCovers(t *testing.T) {
	adrs := []mdscan.ADR{{
		Number:  "002",
		Title:   "ADR-002: PostgreSQL persistence",
		Content: "We use PostgreSQL for relational persistence and transactional storage.",
	}}
	decisions := []Decision{{
		Title: "Use PostgreSQL for persistence",
		Body:  "Relational storage with strong transactional guarantees.",
	}}

	results := CheckCoverage(decisions, adrs)

	require.Len(t, results, 1)
	assert.True(t, results[0].Covered)
}

func TestUncoveredDecisionGetsSlugRecommendation(t *testing.T) {
	decisions := []Decision{{
		Title: "Switch deployment to containers",
		Body:  "move all workloads onto container images for reproducible deploys",
	}}

	results := CheckCoverage(decisions, nil)

	require.Len(t, results, 1)
	assert.False(t, results[0].Covered)
	assert.Equal(t,
		"Create docs/adr/ADR-NNN-switch-deployment-to-containers.md using the template in docs/adr/ADR-000-template.md.",
		results[0].Recommendation)
}

func TestCheckEndToEnd(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "DECISIONS.md", sampleDecisions)
	writeFile(t, root, "CHANGELOG.md", sampleChangelog)
	writeFile(t, root, "docs/adr/ADR-000-template.md", "# ADR-000: Template\n")
	writeFile(t, root, "docs/adr/ADR-001-stripe-payments.md",
		"# ADR-001: Stripe payment processing\n\nAdopt Stripe for payment processing and billing webhooks.\n")

	r := Check(root)

	assert.Len(t, r.ADRs, 1)
	assert.Equal(t, 3, len(r.Results))
	assert.Equal(t, 1, r.Covered)
	assert.Equal(t, 2, r.Uncovered)

	out := ToJSON(r)
	assert.False(t, out.GatePassed)
	assert.Len(t, out.UncoveredDecisions, 2)
	assert.Len(t, out.CoveredDecisions, 1)
	assert.Equal(t, []string{"ADR-001"}, out.CoveredDecisions[0].CoveringADRs)
}

func TestFormatText(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "DECISIONS.md", sampleDecisions)

	out := FormatText(Check(root))

	assert.Contains(t, out, "ADR Coverage Report")
	assert.Contains(t, out, "Decisions found:     2")
	assert.Contains(t, out, "Decisions lacking ADR coverage (2):")
	assert.Contains(t, out, "Recommendation: Create docs/adr/ADR-NNN-")
}
