// Package inherit validates constitutional inheritance in a CLAUDE.md file:
// a child document must preserve parent-required sections, must not grant
// permissions a parent prohibits, and must not lower parent numeric
// thresholds.
package inherit

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bartekus/warden/internal/mdscan"
)

// RequiredSectionKeywords name the parent sections a child must preserve.
// Matching is keyword containment over normalized section names.
var RequiredSectionKeywords = []string{
	"security_protocol",
	"mandatory_session_protocol",
	"quality_standards",
	"conventions",
}

// prohibitionPair matches a prohibition phrase in a parent against a grant
// phrase in the child.
type prohibitionPair struct {
	Prohibit *regexp.Regexp
	Grant    *regexp.Regexp
}

var prohibitionPairs = []prohibitionPair{
	{
		regexp.MustCompile(`(?i)(never|prohibited?|forbidden|disallow)\s+\w*\s*(force.{0,10}push|push.*--force)`),
		regexp.MustCompile(`(?i)(allow|enable|permitted)\s+\w*\s*(force.{0,10}push|push.*--force)`),
	},
	{
		regexp.MustCompile(`(?i)(never|prohibited?|forbidden)\s+\w*\s*(skip|bypass)\s+\w*\s*(review|ci|check)`),
		regexp.MustCompile(`(?i)(allow|enable)\s+\w*\s*(skip|bypass)\s+\w*\s*(review|ci|check)`),
	},
	{
		regexp.MustCompile(`(?i)(never|prohibited?)\s+\w*\s*commit\s+\w*\s*(secret|credential|key|password)`),
		regexp.MustCompile(`(?i)(allow|ok|acceptable)\s+\w*\s*commit\s+\w*\s*(secret|credential|key|password)`),
	},
	{
		regexp.MustCompile(`(?i)(never|no)\s+\w*\s*(auto.commit|automatic.commit|commit\s+without)`),
		regexp.MustCompile(`(?i)(auto.commit|commit\s+automatically|automatically\s+commit)`),
	},
}

// thresholdPattern extracts a named numeric threshold from document text.
type thresholdPattern struct {
	Re   *regexp.Regexp
	Name string
}

var thresholdPatterns = []thresholdPattern{
	{regexp.MustCompile(`(?i)blast.radius.{0,30}?(\d+)\s*files`), "blast_radius_files"},
	{regexp.MustCompile(`(?i)max(?:imum)?.{0,20}?(\d+)\s*files`), "max_files"},
	{regexp.MustCompile(`(?i)max(?:imum)?.{0,20}?(\d+)\s*lines`), "max_lines"},
	{regexp.MustCompile(`(?i)confidence.{0,20}?(\d+)\s*%`), "confidence_percent"},
	{regexp.MustCompile(`(?i)threshold.{0,20}?(\d+)`), "threshold_generic"},
	{regexp.MustCompile(`(?i)minimum.{0,20}?(\d+)`), "minimum_generic"},
}

// Violation is one inheritance rule breach.
type Violation struct {
	Type        string `json:"type"`
	ParentRule  string `json:"parent_rule"`
	LocalRule   string `json:"local_rule"`
	Description string `json:"description"`
}

// Summary counts violations by class.
type Summary struct {
	MissingSections       int `json:"missing_sections"`
	ProhibitedPermissions int `json:"prohibited_permissions"`
	LoweredThresholds     int `json:"lowered_thresholds"`
	FetchFailures         int `json:"fetch_failures"`
}

// Report is the structured validation result.
type Report struct {
	Valid          bool        `json:"valid"`
	Error          string      `json:"error,omitempty"`
	LocalFile      string      `json:"local_file,omitempty"`
	Note           string      `json:"note,omitempty"`
	ParentsChecked []string    `json:"parents_checked"`
	Violations     []Violation `json:"violations"`
	Summary        Summary     `json:"summary"`
}

// HTTPClient fetches remote parent constitutions. Overridable in tests.
var HTTPClient = &http.Client{Timeout: 15 * time.Second}

// FetchConstitution retrieves a parent document from a URL or local path.
// Local paths resolve relative to baseDir first, then as given. Failures are
// reported through warnf and return ok=false.
func FetchConstitution(source, baseDir string, warnf func(format string, args ...any)) (string, bool) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		resp, err := HTTPClient.Get(source)
		if err != nil {
			warnf("Warning: could not fetch %s: %v\n", source, err)
			return "", false
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			warnf("Warning: could not fetch %s: HTTP %d\n", source, resp.StatusCode)
			return "", false
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			warnf("Warning: could not fetch %s: %v\n", source, err)
			return "", false
		}
		return string(body), true
	}

	for _, candidate := range []string{filepath.Join(baseDir, source), source} {
		data, err := os.ReadFile(candidate)
		if err == nil {
			return string(data), true
		}
	}
	warnf("Warning: local path not found: %s\n", source)
	return "", false
}

var (
	inheritsScalarRe = regexp.MustCompile(`(?m)^inherits_from\s*:\s*([^\s-].*)$`)
	inheritsListRe   = regexp.MustCompile(`(?m)^inherits_from\s*:\s*\n((?:[ \t]+-[ \t]+.+\n?)+)`)
)

// ExtractInheritsFrom pulls parent references from the inherits_from block.
// Scalar and list YAML syntax are both accepted; the block is handed to the
// YAML parser first, with a line-wise fallback for loose markdown context.
func ExtractInheritsFrom(content string) []string {
	var sources []string

	if m := inheritsScalarRe.FindStringSubmatch(content); m != nil {
		if value, ok := yamlScalar(m[0]); ok && value != "" {
			sources = append(sources, value)
		} else if value := strings.Trim(strings.TrimSpace(m[1]), `"'`); value != "" {
			sources = append(sources, value)
		}
	}

	if m := inheritsListRe.FindStringSubmatch(content); m != nil {
		if values, ok := yamlList(m[0]); ok {
			sources = append(sources, values...)
		} else {
			for _, line := range strings.Split(m[1], "\n") {
				item := strings.TrimSpace(line)
				if strings.HasPrefix(item, "-") {
					sources = append(sources, strings.Trim(strings.TrimSpace(item[1:]), `"'`))
				}
			}
		}
	}

	return sources
}

func yamlScalar(block string) (string, bool) {
	var doc struct {
		InheritsFrom string `yaml:"inherits_from"`
	}
	if err := yaml.Unmarshal([]byte(block), &doc); err != nil {
		return "", false
	}
	return strings.TrimSpace(doc.InheritsFrom), true
}

func yamlList(block string) ([]string, bool) {
	var doc struct {
		InheritsFrom []string `yaml:"inherits_from"`
	}
	if err := yaml.Unmarshal([]byte(block), &doc); err != nil {
		return nil, false
	}
	out := make([]string, 0, len(doc.InheritsFrom))
	for _, v := range doc.InheritsFrom {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out, true
}

// ExtractThresholds finds named numeric thresholds in a document. Only the
// first match per pattern counts.
func ExtractThresholds(content string) map[string]int {
	thresholds := make(map[string]int)
	for _, p := range thresholdPatterns {
		m := p.Re.FindStringSubmatch(content)
		if m == nil {
			continue
		}
		value, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		thresholds[p.Name] = value
	}
	return thresholds
}

func checkRequiredSections(localNames, parentNames []string, parentSource string) []Violation {
	containsKeyword := func(names []string, keyword string) bool {
		for _, name := range names {
			if strings.Contains(name, keyword) {
				return true
			}
		}
		return false
	}

	var violations []Violation
	for _, keyword := range RequiredSectionKeywords {
		if containsKeyword(parentNames, keyword) && !containsKeyword(localNames, keyword) {
			violations = append(violations, Violation{
				Type:        "missing_required_section",
				ParentRule:  fmt.Sprintf("Section '%s' defined in %s", keyword, parentSource),
				LocalRule:   fmt.Sprintf("Section '%s' is absent from the local CLAUDE.md", keyword),
				Description: fmt.Sprintf("Parent constitution requires '%s' — local constitution must not omit it.", keyword),
			})
		}
	}
	return violations
}

func checkProhibitedPermissions(localContent, parentContent, parentSource string) []Violation {
	var violations []Violation
	for _, pair := range prohibitionPairs {
		if pair.Prohibit.MatchString(parentContent) && pair.Grant.MatchString(localContent) {
			violations = append(violations, Violation{
				Type:        "prohibited_permission_granted",
				ParentRule:  fmt.Sprintf("Parent (%s) prohibition matches: %s", parentSource, pair.Prohibit.String()),
				LocalRule:   "Local CLAUDE.md appears to grant: " + pair.Grant.String(),
				Description: "Local constitution grants a permission that the parent constitution prohibits.",
			})
		}
	}
	return violations
}

func checkThresholdLowering(localContent, parentContent, parentSource string) []Violation {
	parentThresholds := ExtractThresholds(parentContent)
	localThresholds := ExtractThresholds(localContent)

	var violations []Violation
	for _, p := range thresholdPatterns {
		parentValue, inParent := parentThresholds[p.Name]
		localValue, inLocal := localThresholds[p.Name]
		if !inParent || !inLocal || localValue >= parentValue {
			continue
		}
		violations = append(violations, Violation{
			Type:       "threshold_lowered",
			ParentRule: fmt.Sprintf("%s = %d (in %s)", p.Name, parentValue, parentSource),
			LocalRule:  fmt.Sprintf("%s = %d (in local CLAUDE.md)", p.Name, localValue),
			Description: fmt.Sprintf(
				"Local threshold %d is below parent threshold %d. Child constitutions may not lower governance thresholds.",
				localValue, parentValue),
		})
	}
	return violations
}

// Validate runs every inheritance check for the local file. Parent sources
// come from the inherits_from block plus any extraParents. A parent that
// cannot be fetched yields a fetch_failure violation and processing
// continues with the remaining parents.
func Validate(localPath string, extraParents []string, warnf func(format string, args ...any)) Report {
	if warnf == nil {
		warnf = func(string, ...any) {}
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return Report{
			Valid:      false,
			Error:      "File not found: " + localPath,
			Violations: []Violation{},
		}
	}
	localContent := string(data)
	localNames := mdscan.SectionNames(localContent)
	baseDir := filepath.Dir(localPath)

	parentSources := ExtractInheritsFrom(localContent)
	parentSources = append(parentSources, extraParents...)

	if len(parentSources) == 0 {
		return Report{
			Valid:          true,
			LocalFile:      localPath,
			Note:           "No inherits_from section found — nothing to validate.",
			ParentsChecked: []string{},
			Violations:     []Violation{},
		}
	}

	var violations []Violation
	for _, source := range parentSources {
		parentContent, ok := FetchConstitution(source, baseDir, warnf)
		if !ok {
			violations = append(violations, Violation{
				Type:        "fetch_failure",
				ParentRule:  "Parent source: " + source,
				LocalRule:   "N/A",
				Description: "Could not fetch parent constitution from: " + source,
			})
			continue
		}

		parentNames := mdscan.SectionNames(parentContent)
		violations = append(violations, checkRequiredSections(localNames, parentNames, source)...)
		violations = append(violations, checkProhibitedPermissions(localContent, parentContent, source)...)
		violations = append(violations, checkThresholdLowering(localContent, parentContent, source)...)
	}
	if violations == nil {
		violations = []Violation{}
	}

	summary := Summary{}
	for _, v := range violations {
		switch v.Type {
		case "missing_required_section":
			summary.MissingSections++
		case "prohibited_permission_granted":
			summary.ProhibitedPermissions++
		case "threshold_lowered":
			summary.LoweredThresholds++
		case "fetch_failure":
			summary.FetchFailures++
		}
	}

	return Report{
		Valid:          len(violations) == 0,
		LocalFile:      localPath,
		ParentsChecked: parentSources,
		Violations:     violations,
		Summary:        summary,
	}
}

// FormatText renders the human-readable validation report.
func FormatText(r Report) string {
	lines := []string{
		"Constitutional Inheritance Validation",
		"=====================================",
	}

	if r.Error != "" {
		lines = append(lines, "ERROR: "+r.Error)
		return strings.Join(lines, "\n")
	}

	parents := "(none)"
	if len(r.ParentsChecked) > 0 {
		parents = strings.Join(r.ParentsChecked, ", ")
	}
	result := "INVALID"
	if r.Valid {
		result = "VALID"
	}
	lines = append(lines,
		"Local file:      "+r.LocalFile,
		"Parents checked: "+parents,
		"Result:          "+result,
	)

	if r.Note != "" {
		lines = append(lines, "", "Note: "+r.Note)
	}

	if len(r.Violations) > 0 {
		lines = append(lines, "", fmt.Sprintf("Violations found: %d", len(r.Violations)))
		for i, v := range r.Violations {
			lines = append(lines,
				"",
				fmt.Sprintf("  [%d] %s", i+1, strings.ToUpper(v.Type)),
				"  Parent rule: "+v.ParentRule,
				"  Local rule:  "+v.LocalRule,
				"  Description: "+v.Description,
			)
		}
	} else {
		lines = append(lines, "", "No violations found.")
	}

	lines = append(lines, "", fmt.Sprintf(
		"Summary: %d missing sections, %d prohibited permissions, %d lowered thresholds, %d fetch failures.",
		r.Summary.MissingSections, r.Summary.ProhibitedPermissions,
		r.Summary.LoweredThresholds, r.Summary.FetchFailures))

	return strings.Join(lines, "\n")
}
