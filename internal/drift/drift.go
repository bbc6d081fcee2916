// Package drift compares a project CLAUDE.md against the governance template
// and reports missing required sections and sections whose length has drifted
// past a configurable ratio.
package drift

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bartekus/warden/internal/mdscan"
)

// DefaultThreshold is the length-ratio drift threshold.
const DefaultThreshold = 0.5

// RequiredSections must all appear in the target document, up to aliasing.
var RequiredSections = []string{
	"project_context",
	"conventions",
	"session_protocol",
	"mandatory_session_protocol",
	"security_protocol",
	"quality_standards",
}

// aliasGroups holds interchangeable section names. Any one member satisfies
// the whole group.
var aliasGroups = [][]string{
	{"session_protocol", "mandatory_session_protocol"},
}

// DriftSection describes one section that exists in both documents but
// differs in length beyond the threshold.
type DriftSection struct {
	Section        string  `json:"section"`
	TemplateLength int     `json:"template_length"`
	TargetLength   int     `json:"target_length"`
	Ratio          float64 `json:"ratio"`
	Direction      string  `json:"direction"`
}

// Report is the structured drift analysis result.
type Report struct {
	Error                string         `json:"error,omitempty"`
	Template             string         `json:"template,omitempty"`
	Target               string         `json:"target,omitempty"`
	Threshold            float64        `json:"threshold,omitempty"`
	Aligned              bool           `json:"aligned"`
	MissingSections      []string       `json:"missing_sections"`
	DriftSections        []DriftSection `json:"drift_sections"`
	TemplateSectionCount int            `json:"template_section_count,omitempty"`
	TargetSectionCount   int            `json:"target_section_count,omitempty"`
	Recommendations      []string       `json:"recommendations"`
}

func aliasGroupFor(name string) []string {
	for _, group := range aliasGroups {
		for _, member := range group {
			if member == name {
				return group
			}
		}
	}
	return nil
}

// resolveAliases expands the found-section set so that any member of an
// alias group satisfies the whole group.
func resolveAliases(found map[string]struct{}) map[string]struct{} {
	resolved := make(map[string]struct{}, len(found))
	for name := range found {
		resolved[name] = struct{}{}
	}
	for _, group := range aliasGroups {
		hit := false
		for _, member := range group {
			if _, ok := found[member]; ok {
				hit = true
				break
			}
		}
		if hit {
			for _, member := range group {
				resolved[member] = struct{}{}
			}
		}
	}
	return resolved
}

// missingSections returns the required sections absent from the target,
// collapsing alias groups into a single "a or b" entry.
func missingSections(target map[string]string) []string {
	found := make(map[string]struct{}, len(target))
	for name := range target {
		found[name] = struct{}{}
	}
	resolved := resolveAliases(found)

	var missing []string
	for _, req := range RequiredSections {
		normalized := mdscan.NormalizeSection(req)
		if _, ok := resolved[normalized]; ok {
			continue
		}
		missing = append(missing, req)
	}

	var deduped []string
	seenGroups := make(map[string]struct{})
	for _, m := range missing {
		group := aliasGroupFor(mdscan.NormalizeSection(m))
		if group == nil {
			deduped = append(deduped, m)
			continue
		}
		key := strings.Join(group, "|")
		if _, seen := seenGroups[key]; seen {
			continue
		}
		seenGroups[key] = struct{}{}
		sorted := append([]string(nil), group...)
		sort.Strings(sorted)
		deduped = append(deduped, strings.Join(sorted, " or "))
	}
	return deduped
}

// calculateDrift flags sections present in both documents whose target length
// falls outside [1-threshold, 1+threshold] of the template length. Output is
// sorted by section name for determinism.
func calculateDrift(template, target map[string]string, threshold float64) []DriftSection {
	var drifted []DriftSection
	for section, templateBody := range template {
		targetBody, ok := target[section]
		if !ok {
			continue
		}
		templateLen := len(templateBody)
		if templateLen == 0 {
			continue
		}
		targetLen := len(targetBody)
		ratio := float64(targetLen) / float64(templateLen)
		if ratio >= 1.0-threshold && ratio <= 1.0+threshold {
			continue
		}
		direction := "longer"
		if ratio < 1.0 {
			direction = "shorter"
		}
		drifted = append(drifted, DriftSection{
			Section:        section,
			TemplateLength: templateLen,
			TargetLength:   targetLen,
			Ratio:          math.Round(ratio*100) / 100,
			Direction:      direction,
		})
	}
	sort.Slice(drifted, func(i, j int) bool { return drifted[i].Section < drifted[j].Section })
	return drifted
}

func recommendations(missing []string, drifted []DriftSection) []string {
	var recs []string
	if len(missing) > 0 {
		recs = append(recs, fmt.Sprintf(
			"Add %d missing required section(s): %s. Copy structure from the governance template.",
			len(missing), strings.Join(missing, ", ")))
	}
	for _, d := range drifted {
		pct := fmt.Sprintf("%.0f%%", d.Ratio*100)
		if d.Direction == "shorter" {
			recs = append(recs, fmt.Sprintf(
				"Section '%s' is %s of template length. Review whether content was accidentally removed or simplified too aggressively.",
				d.Section, pct))
		} else {
			recs = append(recs, fmt.Sprintf(
				"Section '%s' is %s of template length. Verify that added content aligns with governance standards.",
				d.Section, pct))
		}
	}
	if len(missing) == 0 && len(drifted) == 0 {
		recs = append(recs, "No drift detected. CLAUDE.md is aligned with the governance template.")
	}
	return recs
}

// Detect compares template against target. A target path that is a directory
// is resolved to its CLAUDE.md. Unreadable files produce an error report, not
// a process failure.
func Detect(templatePath, targetPath string, threshold float64) Report {
	if info, err := os.Stat(targetPath); err == nil && info.IsDir() {
		targetPath = filepath.Join(targetPath, "CLAUDE.md")
	}

	templateData, err := os.ReadFile(templatePath)
	if err != nil {
		return Report{
			Error:           "Cannot read template file: " + templatePath,
			MissingSections: []string{},
			DriftSections:   []DriftSection{},
			Recommendations: []string{"Template file not found: " + templatePath},
		}
	}

	targetData, err := os.ReadFile(targetPath)
	if err != nil {
		return Report{
			Error:           "Cannot read target file: " + targetPath,
			MissingSections: append([]string(nil), RequiredSections...),
			DriftSections:   []DriftSection{},
			Recommendations: []string{
				"Target CLAUDE.md not found at " + targetPath + ". Copy the governance template and customize it.",
			},
		}
	}

	templateSections := mdscan.Sections(string(templateData))
	targetSections := mdscan.Sections(string(targetData))

	missing := missingSections(targetSections)
	drifted := calculateDrift(templateSections, targetSections, threshold)
	if missing == nil {
		missing = []string{}
	}
	if drifted == nil {
		drifted = []DriftSection{}
	}

	return Report{
		Template:             templatePath,
		Target:               targetPath,
		Threshold:            threshold,
		Aligned:              len(missing) == 0 && len(drifted) == 0,
		MissingSections:      missing,
		DriftSections:        drifted,
		TemplateSectionCount: len(templateSections),
		TargetSectionCount:   len(targetSections),
		Recommendations:      recommendations(missing, drifted),
	}
}

// FormatText renders the human-readable drift report.
func FormatText(r Report) string {
	lines := []string{
		"CLAUDE.md Drift Report",
		"======================",
	}

	if r.Error != "" {
		lines = append(lines, "Error: "+r.Error)
		return strings.Join(lines, "\n")
	}

	status := "DRIFTED"
	if r.Aligned {
		status = "ALIGNED"
	}
	lines = append(lines,
		"Template: "+r.Template,
		"Target:   "+r.Target,
		fmt.Sprintf("Drift threshold: %.0f%%", r.Threshold*100),
		"Status: "+status,
		"",
	)

	if len(r.MissingSections) > 0 {
		lines = append(lines, "Missing required sections:")
		for _, section := range r.MissingSections {
			lines = append(lines, "  - "+section)
		}
		lines = append(lines, "")
	}

	if len(r.DriftSections) > 0 {
		lines = append(lines, "Drifted sections:")
		for _, d := range r.DriftSections {
			lines = append(lines, fmt.Sprintf("  - %s: %d chars (%s, %.0f%% of template)",
				d.Section, d.TargetLength, d.Direction, d.Ratio*100))
		}
		lines = append(lines, "")
	}

	if len(r.Recommendations) > 0 {
		lines = append(lines, "Recommendations:")
		for _, rec := range r.Recommendations {
			lines = append(lines, "  - "+rec)
		}
	}

	return strings.Join(lines, "\n")
}
