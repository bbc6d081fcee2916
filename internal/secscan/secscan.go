// Package secscan scans the added lines of a unified diff for security
// patterns: leaked credentials, PII, and risky configuration. The pattern
// table is ordered; every added line is tested against every pattern and all
// matches are kept. Only CRITICAL findings fail the gate.
package secscan

import (
	"regexp"
	"strconv"
	"strings"
)

// Finding is one security pattern match on an added diff line.
type Finding struct {
	Severity    string `json:"severity"`
	File        string `json:"file"`
	Line        int    `json:"line"`
	Pattern     string `json:"pattern"`
	Description string `json:"description"`
}

// Summary counts findings by severity.
type Summary struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// Report is the machine-readable scan result.
type Report struct {
	Findings []Finding `json:"findings"`
	Summary  Summary   `json:"summary"`
}

type pattern struct {
	severity    string
	name        string
	re          *regexp.Regexp
	description string
}

// The pattern table is product configuration: severities, names, and regexes
// are preserved exactly. Order matters for finding output.
var patterns = []pattern{
	{"CRITICAL", "anthropic_api_key",
		regexp.MustCompile(`sk-ant-[A-Za-z0-9\-_]{20,}`),
		"Anthropic API key detected"},
	{"CRITICAL", "openai_api_key",
		regexp.MustCompile(`\bsk-[A-Za-z0-9]{48}\b`),
		"Possible OpenAI API key detected"},
	{"CRITICAL", "aws_access_key_id",
		regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
		"AWS access key ID detected"},
	{"CRITICAL", "aws_secret_key",
		regexp.MustCompile(`(?i)aws[_\-\s]?secret[_\-\s]?access[_\-\s]?key\s*[=:]\s*["']?[A-Za-z0-9+/]{40}["']?`),
		"AWS secret access key assignment detected"},
	{"CRITICAL", "github_token",
		regexp.MustCompile(`\bghp_[A-Za-z0-9]{36}\b|\bgithub[_\-\s]?token\s*[=:]\s*["'][A-Za-z0-9\-_]{20,}["']`),
		"GitHub personal access token detected"},
	{"CRITICAL", "private_key_block",
		regexp.MustCompile(`-----BEGIN\s+(RSA |EC |OPENSSH |DSA )?PRIVATE KEY-----`),
		"Private key block present in diff"},
	{"CRITICAL", "hardcoded_password",
		regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[=:]\s*["'][^"']{8,}["']`),
		"Hardcoded password value detected"},
	{"CRITICAL", "connection_string_with_credentials",
		regexp.MustCompile(`(?i)(mongodb|postgresql|postgres|mysql|redis|amqp|mssql|jdbc)\+?://[^@\s]{1,64}:[^@\s]{1,64}@`),
		"Database or message-broker connection string with embedded credentials"},
	{"CRITICAL", "generic_api_key",
		regexp.MustCompile(`(?i)\bapi[_\-]?key\s*[=:]\s*["']?[A-Za-z0-9\-_]{20,}["']?`),
		"Possible API key assignment detected"},
	{"HIGH", "secret_variable_assignment",
		regexp.MustCompile(`(?i)(secret|token|credential|auth_key)\s*[=:]\s*["'][A-Za-z0-9\-_+/=]{12,}["']`),
		"Possible secret value assigned to a variable"},
	{"HIGH", "internal_ip_address",
		regexp.MustCompile(`\b(10\.\d{1,3}\.\d{1,3}\.\d{1,3}|172\.(1[6-9]|2[0-9]|3[01])\.\d{1,3}\.\d{1,3}|192\.168\.\d{1,3}\.\d{1,3})\b`),
		"Hardcoded internal / RFC-1918 IP address"},
	{"HIGH", "sensitive_system_file",
		regexp.MustCompile(`/etc/(passwd|shadow|sudoers|ssh/[a-z_]+)`),
		"Reference to sensitive system file"},
	{"HIGH", "hardcoded_ssh_path",
		regexp.MustCompile(`(?i)["']?/home/\w+/\.ssh/(id_rsa|id_ed25519|authorized_keys)["']?`),
		"Hardcoded SSH key or authorized_keys path"},
	{"MEDIUM", "email_address",
		regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`),
		"Email address in diff — verify this is synthetic or intentional"},
	{"MEDIUM", "sensitive_env_assignment",
		regexp.MustCompile(`(?i)(ANTHROPIC|OPENAI|AWS|AZURE|GCP|DATABASE|DB|SECRET|TOKEN)[_A-Z]*\s*=\s*["'][^"']{8,}["']`),
		"Direct assignment to a sensitive environment variable"},
	{"MEDIUM", "hardcoded_localhost_port",
		regexp.MustCompile(`(?i)(host|server|url)\s*[=:]\s*["']?(localhost|127\.0\.0\.1):\d{4,5}["']?`),
		"Hardcoded localhost with port — verify this is not production config"},
	{"MEDIUM", "pii_ssn_pattern",
		regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
		"Pattern matching a US Social Security Number"},
	{"MEDIUM", "pii_credit_card",
		regexp.MustCompile(`\b(?:4[0-9]{12}(?:[0-9]{3})?|5[1-5][0-9]{14}|3[47][0-9]{13})\b`),
		"Pattern matching a payment card number"},
	{"LOW", "security_todo_fixme",
		regexp.MustCompile(`(?i)#\s*(TODO|FIXME|HACK|XXX).{0,60}(security|auth|cred|secret|password|token)`),
		"Security-related TODO or FIXME comment left in code"},
	{"LOW", "debug_mode_enabled",
		regexp.MustCompile(`(?i)(debug\s*=\s*True|DEBUG\s*=\s*1|logging\.basicConfig\s*\(\s*level\s*=\s*logging\.DEBUG)`),
		"Debug mode enabled — verify this is not present in production configuration"},
	{"LOW", "insecure_ssl_verify_disabled",
		regexp.MustCompile(`(?i)verify\s*=\s*False|ssl_verify\s*=\s*False|REQUESTS_CA_BUNDLE\s*=\s*['"]?['"]?`),
		"SSL/TLS certificate verification disabled"},
}

// AddedLine is one added line of a unified diff with its position in the
// new file.
type AddedLine struct {
	File    string
	Line    int
	Content string
}

var hunkLineRe = regexp.MustCompile(`\+(\d+)`)

// ParseDiffLines walks a unified diff and returns every added line with its
// file and new-file line number. Context and added lines advance the line
// counter; removed lines do not.
func ParseDiffLines(diffText string) []AddedLine {
	var results []AddedLine
	currentFile := "<unknown>"
	currentLine := 0

	for _, raw := range strings.Split(diffText, "\n") {
		switch {
		case strings.HasPrefix(raw, "diff --git "):
			if idx := strings.LastIndex(raw, " b/"); idx >= 0 {
				currentFile = strings.TrimSpace(raw[idx+3:])
			}
			currentLine = 0

		case strings.HasPrefix(raw, "+++ b/"):
			currentFile = strings.TrimSpace(raw[6:])

		case strings.HasPrefix(raw, "@@ "):
			if m := hunkLineRe.FindStringSubmatch(raw); m != nil {
				n, _ := strconv.Atoi(m[1])
				currentLine = n - 1
			}

		case strings.HasPrefix(raw, "+") && !strings.HasPrefix(raw, "+++"):
			currentLine++
			results = append(results, AddedLine{File: currentFile, Line: currentLine, Content: raw[1:]})

		case strings.HasPrefix(raw, "-") && !strings.HasPrefix(raw, "---"):
			// Removed lines do not advance the new-file line counter.

		case strings.HasPrefix(raw, `\`):
			// "\ No newline at end of file" markers are ignored.

		default:
			currentLine++
		}
	}
	return results
}

// ScanDiff tests every added line against the full pattern table.
func ScanDiff(diffText string) []Finding {
	var findings []Finding
	for _, added := range ParseDiffLines(diffText) {
		for _, p := range patterns {
			if p.re.MatchString(added.Content) {
				findings = append(findings, Finding{
					Severity:    p.severity,
					File:        added.File,
					Line:        added.Line,
					Pattern:     p.name,
					Description: p.description,
				})
			}
		}
	}
	return findings
}

// BuildReport scans a diff and aggregates the severity summary.
func BuildReport(diffText string) Report {
	findings := ScanDiff(diffText)
	if findings == nil {
		findings = []Finding{}
	}
	r := Report{Findings: findings}
	for _, f := range findings {
		switch f.Severity {
		case "CRITICAL":
			r.Summary.Critical++
		case "HIGH":
			r.Summary.High++
		case "MEDIUM":
			r.Summary.Medium++
		case "LOW":
			r.Summary.Low++
		}
	}
	return r
}
