// Package mdscan extracts structured records from the governance markdown
// files warden scans: CLAUDE.md sections, CHANGELOG.md session entries,
// DECISIONS.md entries, and ADR files.
package mdscan

import (
	"regexp"
	"strings"
)

var (
	headingRe   = regexp.MustCompile(`^(#{1,3})\s+(.+)$`)
	nonWordRe   = regexp.MustCompile(`\W+`)
	sepDashesRe = regexp.MustCompile(`[\s\-]+`)
)

// NormalizeSection normalizes a header name for comparison: lowercase,
// whitespace and hyphens collapsed to underscores.
func NormalizeSection(name string) string {
	return sepDashesRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
}

// Sections splits markdown content into sections keyed by normalized header
// name. A section body spans from the line after its header to the next
// `#`..`###` header or EOF. Text before the first header is dropped.
func Sections(content string) map[string]string {
	sections := make(map[string]string)
	var name string
	var body []string

	flush := func() {
		if name != "" {
			sections[name] = strings.TrimSpace(strings.Join(body, "\n"))
		}
	}

	for _, line := range strings.Split(content, "\n") {
		if m := headingRe.FindStringSubmatch(line); m != nil {
			flush()
			name = NormalizeSection(m[2])
			body = body[:0]
			continue
		}
		if name != "" {
			body = append(body, line)
		}
	}
	flush()

	return sections
}

// SectionNames returns the normalized names of all `#`..`###` headers, in
// document order.
func SectionNames(content string) []string {
	var names []string
	for _, line := range strings.Split(content, "\n") {
		if m := headingRe.FindStringSubmatch(line); m != nil {
			names = append(names, NormalizeSection(m[2]))
		}
	}
	return names
}

// Slug converts a title to a lowercase hyphenated slug, truncated to 40
// characters, for generated ADR filenames.
func Slug(title string) string {
	s := nonWordRe.ReplaceAllString(strings.ToLower(title), "-")
	s = strings.Trim(s, "-")
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
