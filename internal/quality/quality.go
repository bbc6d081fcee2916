// Package quality grades governance files on content depth rather than mere
// existence: non-empty line counts, required section headers, and fenced code
// blocks, rolled up into per-file A/B/C/F grades.
package quality

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Rules defines the quality bar for one file category.
type Rules struct {
	MinLines          int
	RequiredSections  []string
	SectionMatchMode  string // "any" or "all"
	RequiresCodeBlock bool
	Description       string
}

// coreRules apply to the named root-level governance files, in report order.
var coreRules = []struct {
	File  string
	Rules Rules
}{
	{"CLAUDE.md", Rules{
		MinLines:         10,
		RequiredSections: []string{"session_protocol", "conventions"},
		SectionMatchMode: "any",
		Description:      "Agent constitution",
	}},
	{"README.md", Rules{
		MinLines:         20,
		SectionMatchMode: "all",
		Description:      "Project documentation",
	}},
}

var patternRules = Rules{
	MinLines:         15,
	RequiredSections: []string{"When to use", "Implementation"},
	SectionMatchMode: "any",
	Description:      "Governance pattern",
}

var templateRules = Rules{
	RequiresCodeBlock: true,
	MinLines:          1,
	Description:       "Governance template",
}

// FileResult is the quality verdict for one governance file.
type FileResult struct {
	File                string          `json:"file"`
	Description         string          `json:"description"`
	Exists              bool            `json:"exists"`
	LineCount           int             `json:"line_count"`
	MinLinesRequired    int             `json:"min_lines_required"`
	QualityGrade        string          `json:"quality_grade"`
	HasRequiredSections map[string]bool `json:"has_required_sections,omitempty"`
	HasCodeBlock        *bool           `json:"has_code_block,omitempty"`
}

// Summary counts files by grade.
type Summary struct {
	TotalFiles int `json:"total_files"`
	GradeA     int `json:"grade_a"`
	GradeB     int `json:"grade_b"`
	GradeC     int `json:"grade_c"`
	GradeF     int `json:"grade_f"`
}

// Report is the full quality check result.
type Report struct {
	Repository string       `json:"repository"`
	AllPass    bool         `json:"all_pass"`
	Summary    Summary      `json:"summary"`
	Files      []FileResult `json:"files"`
}

func countLines(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	n := 0
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

var headerRe = regexp.MustCompile(`(?m)^#{1,3}\s+(.+)$`)

func extractSections(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var headers []string
	for _, m := range headerRe.FindAllStringSubmatch(string(data), -1) {
		headers = append(headers, strings.ToLower(strings.TrimSpace(m[1])))
	}
	return headers
}

var fenceRe = regexp.MustCompile("(?m)^```")

func hasCodeBlock(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return fenceRe.MatchString(string(data))
}

func checkRequiredSections(sections, required []string) map[string]bool {
	result := make(map[string]bool, len(required))
	for _, req := range required {
		found := false
		for _, s := range sections {
			if strings.Contains(s, strings.ToLower(req)) {
				found = true
				break
			}
		}
		result[req] = found
	}
	return result
}

// gradeFile assigns a grade: F missing or empty, C thin or missing sections,
// B adequate, A when the file carries at least twice the minimum content.
func gradeFile(exists bool, lineCount, minLines int, sectionCheck map[string]bool, matchMode string, hasCode *bool, requiresCode bool) string {
	if !exists {
		return "F"
	}

	passesLines := lineCount >= minLines
	passesSections := true
	if len(sectionCheck) > 0 {
		if matchMode == "any" {
			passesSections = false
			for _, found := range sectionCheck {
				if found {
					passesSections = true
					break
				}
			}
		} else {
			for _, found := range sectionCheck {
				if !found {
					passesSections = false
					break
				}
			}
		}
	}
	passesCode := true
	if requiresCode && hasCode != nil {
		passesCode = *hasCode
	}

	if !passesLines {
		if lineCount == 0 {
			return "F"
		}
		return "C"
	}
	if !passesSections {
		return "C"
	}
	if !passesCode {
		return "B"
	}
	if lineCount >= minLines*2 {
		return "A"
	}
	return "B"
}

// CheckFile evaluates one governance file against its rules.
func CheckFile(repo, relativePath string, rules Rules) FileResult {
	path := filepath.Join(repo, relativePath)
	info, err := os.Stat(path)
	exists := err == nil && info.Mode().IsRegular()

	lineCount := 0
	var sections []string
	var codePresent *bool
	if exists {
		lineCount = countLines(path)
		sections = extractSections(path)
		present := hasCodeBlock(path)
		codePresent = &present
	}

	var sectionCheck map[string]bool
	if len(rules.RequiredSections) > 0 {
		sectionCheck = checkRequiredSections(sections, rules.RequiredSections)
	}

	minLines := rules.MinLines
	if minLines == 0 {
		minLines = 1
	}

	result := FileResult{
		File:                relativePath,
		Description:         rules.Description,
		Exists:              exists,
		LineCount:           lineCount,
		MinLinesRequired:    minLines,
		QualityGrade:        gradeFile(exists, lineCount, minLines, sectionCheck, rules.SectionMatchMode, codePresent, rules.RequiresCodeBlock),
		HasRequiredSections: sectionCheck,
	}
	if rules.RequiresCodeBlock {
		if codePresent == nil {
			falseVal := false
			codePresent = &falseVal
		}
		result.HasCodeBlock = codePresent
	}
	return result
}

// findDirFiles lists markdown (or any, when mdOnly is false) files in a
// repo subdirectory, sorted, excluding README.md.
func findDirFiles(repo, dir string, mdOnly bool) []string {
	entries, err := os.ReadDir(filepath.Join(repo, dir))
	if err != nil {
		return nil
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || e.Name() == "README.md" {
			continue
		}
		if mdOnly && filepath.Ext(e.Name()) != ".md" {
			continue
		}
		files = append(files, dir+"/"+e.Name())
	}
	sort.Strings(files)
	return files
}

// Check runs the quality check over every governance file in the repository.
func Check(repo string) Report {
	if abs, err := filepath.Abs(repo); err == nil {
		repo = abs
	}

	var results []FileResult
	for _, core := range coreRules {
		results = append(results, CheckFile(repo, core.File, core.Rules))
	}
	for _, pf := range findDirFiles(repo, "patterns", true) {
		results = append(results, CheckFile(repo, pf, patternRules))
	}
	for _, tf := range findDirFiles(repo, "templates", false) {
		results = append(results, CheckFile(repo, tf, templateRules))
	}

	r := Report{Repository: repo, AllPass: true, Files: results}
	r.Summary.TotalFiles = len(results)
	for _, res := range results {
		switch res.QualityGrade {
		case "A":
			r.Summary.GradeA++
		case "B":
			r.Summary.GradeB++
		case "C":
			r.Summary.GradeC++
		case "F":
			r.Summary.GradeF++
			r.AllPass = false
		}
	}
	return r
}

// FormatText renders the human-readable quality report.
func FormatText(r Report) string {
	lines := []string{
		"Content Quality Report",
		"======================",
		"Repository: " + r.Repository,
		"",
	}

	for _, f := range r.Files {
		status := "PASS"
		if f.QualityGrade == "F" {
			status = "FAIL"
		}
		lines = append(lines, fmt.Sprintf("  [%s] %s: %d lines — %s",
			f.QualityGrade, f.File, f.LineCount, status))
	}

	s := r.Summary
	overall := "FAIL"
	if r.AllPass {
		overall = "PASS"
	}
	lines = append(lines,
		"",
		fmt.Sprintf("Summary: %dA / %dB / %dC / %dF (%d files)",
			s.GradeA, s.GradeB, s.GradeC, s.GradeF, s.TotalFiles),
		"Overall: "+overall,
	)

	return strings.Join(lines, "\n")
}
