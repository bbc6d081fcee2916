package mdscan

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
)

// Session is one recorded unit of work parsed from a CHANGELOG.md header of
// the form `## Session NNN -- YYYY-MM-DD [model]`. The model bracket is
// optional; the dash run tolerates ASCII and unicode dashes.
type Session struct {
	Number int
	ID     string // zero-padded to 3 digits
	Date   string
	Model  string
	Body   string // text between this header and the next session header
}

var sessionHeaderRe = regexp.MustCompile(
	`(?m)^##\s+Session\s+(\d+)\s+[-\x{2013}\x{2014}]+\s+(\d{4}-\d{2}-\d{2})(?:\s+\[([^\]]+)\])?`)

// ParseSessions extracts all session entries from CHANGELOG.md content,
// in document order.
func ParseSessions(content string) []Session {
	matches := sessionHeaderRe.FindAllStringSubmatchIndex(content, -1)
	sessions := make([]Session, 0, len(matches))

	for i, m := range matches {
		num, err := strconv.Atoi(content[m[2]:m[3]])
		if err != nil {
			continue
		}
		end := len(content)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		model := ""
		if m[6] >= 0 {
			model = content[m[6]:m[7]]
		}
		sessions = append(sessions, Session{
			Number: num,
			ID:     fmt.Sprintf("%03d", num),
			Date:   content[m[4]:m[5]],
			Model:  model,
			Body:   content[m[1]:end],
		})
	}

	return sessions
}

// ReadSessions reads CHANGELOG.md at path and parses its sessions. A missing
// or unreadable file is zero evidence, not an error.
func ReadSessions(path string) []Session {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return ParseSessions(string(data))
}
