package secscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiff = `diff --git a/config.py b/config.py
index 1111111..2222222 100644
--- a/config.py
+++ b/config.py
@@ -1,4 +1,6 @@
 import os
-API_KEY = os.environ["ANTHROPIC_API_KEY"]
+API_KEY = 'sk-ant-REDACTED'
+DEBUG = 1

 def load():
`

func TestParseDiffLinesTracksFileAndLine(t *testing.T) {
	added := ParseDiffLines(sampleDiff)

	require.Len(t, added, 2)
	assert.Equal(t, "config.py", added[0].File)
	assert.Equal(t, 2, added[0].Line)
	assert.Contains(t, added[0].Content, "sk-ant-")
	assert.Equal(t, 3, added[1].Line)
	assert.Equal(t, "DEBUG = 1", added[1].Content)
}

func TestParseDiffLinesRemovedLinesDoNotAdvance(t *testing.T) {
	diff := `diff --git a/a.txt b/a.txt
--- a/a.txt
+++ b/a.txt
@@ -10,3 +10,3 @@
 context one
-removed line
+added line
 context two
`
	added := ParseDiffLines(diff)

	require.Len(t, added, 1)
	assert.Equal(t, 11, added[0].Line)
}

func TestParseDiffLinesIgnoresNoNewlineMarker(t *testing.T) {
	diff := `diff --git a/a.txt b/a.txt
+++ b/a.txt
@@ -1 +1 @@
+last line
\ No newline at end of file
`
	added := ParseDiffLines(diff)

	require.Len(t, added, 1)
	assert.Equal(t, 1, added[0].Line)
}

func TestScanDiffAnthropicKeyIsCritical(t *testing.T) {
	findings := ScanDiff(sampleDiff)

	var names []string
	for _, f := range findings {
		names = append(names, f.Pattern)
	}
	assert.Contains(t, names, "anthropic_api_key")
	assert.Contains(t, names, "debug_mode_enabled")

	for _, f := range findings {
		if f.Pattern == "anthropic_api_key" {
			assert.Equal(t, "CRITICAL", f.Severity)
			assert.Equal(t, "config.py", f.File)
			assert.Equal(t, 2, f.Line)
		}
	}
}

func TestScanDiffAllMatchesKeptPerLine(t *testing.T) {
	diff := `diff --git a/s.sh b/s.sh
+++ b/s.sh
@@ -0,0 +1 @@
+password = "hunter2hunter2" # TODO fix this password handling
`
	findings := ScanDiff(diff)

	var names []string
	for _, f := range findings {
		names = append(names, f.Pattern)
	}
	assert.Contains(t, names, "hardcoded_password")
	assert.Contains(t, names, "security_todo_fixme")
}

func TestScanDiffSeverities(t *testing.T) {
	diff := `diff --git a/x b/x
+++ b/x
@@ -0,0 +1,4 @@
+db = "postgresql://admin:hunter2@db/app"
+listen = 192.168.1.10
+contact = ops@example.com
+# TODO harden auth flow
`
	report := BuildReport(diff)

	assert.Equal(t, 1, report.Summary.Critical)
	assert.Equal(t, 1, report.Summary.High)
	// The connection string assigns to a sensitive identifier ("db"), so the
	// first line counts once critical and once medium, alongside the email.
	assert.Equal(t, 2, report.Summary.Medium)
	assert.Equal(t, 1, report.Summary.Low)

	var medium []string
	for _, f := range report.Findings {
		if f.Severity == "MEDIUM" {
			medium = append(medium, f.Pattern)
		}
	}
	assert.ElementsMatch(t, []string{"sensitive_env_assignment", "email_address"}, medium)
}

func TestBuildReportEmptyDiff(t *testing.T) {
	report := BuildReport("")

	assert.NotNil(t, report.Findings)
	assert.Empty(t, report.Findings)
	assert.Equal(t, Summary{}, report.Summary)
}

func TestScanDiffCleanLines(t *testing.T) {
	diff := `diff --git a/main.go b/main.go
+++ b/main.go
@@ -0,0 +1,2 @@
+func main() {
+}
`
	assert.Empty(t, ScanDiff(diff))
}
