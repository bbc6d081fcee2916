package mdscan

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// ADR is one architectural decision record file under docs/adr/.
type ADR struct {
	Path    string
	Number  string // zero-padded, e.g. "001"
	Title   string
	Content string
}

var (
	adrFileRe    = regexp.MustCompile(`^ADR-(\d+)`)
	adrTitleRe   = regexp.MustCompile(`(?m)^#{1,2}\s+ADR[^:]*:\s*(.+)$`)
	anyTitleRe   = regexp.MustCompile(`(?m)^#{1,2}\s+(.+)$`)
	adrBackrefRe = regexp.MustCompile(`(?i)\bADR[- ]\d+\b`)
)

// HasADRReference reports whether text contains an explicit ADR-NNN
// back-reference.
func HasADRReference(text string) bool {
	return adrBackrefRe.MatchString(text)
}

// LoadADRs reads all ADR-NNN-*.md files from dir, sorted by filename. The
// template (ADR-000) is always excluded. A missing directory yields no ADRs.
func LoadADRs(dir string) []ADR {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var adrs []ADR
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") && adrFileRe.MatchString(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		stem := strings.TrimSuffix(name, ".md")
		if strings.HasPrefix(stem, "ADR-000") {
			continue
		}
		number := "???"
		if m := adrFileRe.FindStringSubmatch(stem); m != nil {
			number = m[1]
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		content := string(data)

		title := stem
		if m := adrTitleRe.FindStringSubmatch(content); m != nil {
			title = strings.TrimSpace(m[1])
		} else if m := anyTitleRe.FindStringSubmatch(content); m != nil {
			title = strings.TrimSpace(m[1])
		}

		adrs = append(adrs, ADR{Path: path, Number: number, Title: title, Content: content})
	}

	return adrs
}
