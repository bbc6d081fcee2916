// Package update checks GitHub releases of the governance framework against
// the locally installed version. It reports available updates and never
// applies changes.
package update

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	GitHubOwner    = "clauseduardpetraeus"
	GitHubRepo     = "ai-governance-framework"
	VersionFile    = ".governance-version"
	DefaultVersion = "v1.0.0"
)

// GitHubAPIBase is a variable so tests can point it at a local server.
var GitHubAPIBase = "https://api.github.com"

// HTTPClient is the client used for release queries.
var HTTPClient = &http.Client{Timeout: 15 * time.Second}

// Asset is one downloadable file attached to a release.
type Asset struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Release is one GitHub release record.
type Release struct {
	TagName     string  `json:"tag_name"`
	PublishedAt string  `json:"published_at"`
	Body        string  `json:"body"`
	HTMLURL     string  `json:"html_url"`
	Assets      []Asset `json:"assets"`
}

var versionRe = regexp.MustCompile(`^(\d+\.\d+\.\d+)`)

// NormalizeVersion canonicalizes a version string to vMAJOR.MINOR.PATCH,
// accepting input with or without the leading v. Trailing noise after the
// patch number is dropped.
func NormalizeVersion(s string) (string, error) {
	cleaned := strings.TrimPrefix(strings.TrimSpace(s), "v")
	m := versionRe.FindStringSubmatch(cleaned)
	if m == nil {
		return "", fmt.Errorf("invalid semantic version: %q", s)
	}
	v := "v" + m[1]
	if !semver.IsValid(v) {
		return "", fmt.Errorf("invalid semantic version: %q", s)
	}
	return v, nil
}

// FindVersionFile searches repo and its parents for .governance-version.
func FindVersionFile(repo string) string {
	current, err := filepath.Abs(repo)
	if err != nil {
		current = repo
	}
	for {
		candidate := filepath.Join(current, VersionFile)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(current)
		if parent == current {
			return ""
		}
		current = parent
	}
}

// ReadLocalVersion returns the installed framework version, falling back to
// DefaultVersion when no version file exists or it is empty.
func ReadLocalVersion(repo string) string {
	path := FindVersionFile(repo)
	if path == "" {
		return DefaultVersion
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultVersion
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return DefaultVersion
	}
	return text
}

// FetchReleases queries the GitHub API for all releases, drops entries whose
// tag is not a semantic version, and sorts ascending by version.
func FetchReleases(owner, repo string) ([]Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases", GitHubAPIBase, owner, repo)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not connect to GitHub API: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned an error: HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var releases []Release
	if err := json.Unmarshal(body, &releases); err != nil {
		return nil, fmt.Errorf("could not parse GitHub response: %w", err)
	}

	valid := releases[:0]
	for _, r := range releases {
		if _, err := NormalizeVersion(r.TagName); err == nil {
			valid = append(valid, r)
		}
	}
	sort.SliceStable(valid, func(i, j int) bool {
		vi, _ := NormalizeVersion(valid[i].TagName)
		vj, _ := NormalizeVersion(valid[j].TagName)
		return semver.Compare(vi, vj) < 0
	})
	return valid, nil
}

// AvailableUpdates filters releases strictly newer than the current version.
func AvailableUpdates(releases []Release, currentVersion string) ([]Release, error) {
	current, err := NormalizeVersion(currentVersion)
	if err != nil {
		return nil, err
	}
	var updates []Release
	for _, r := range releases {
		v, err := NormalizeVersion(r.TagName)
		if err != nil {
			continue
		}
		if semver.Compare(v, current) > 0 {
			updates = append(updates, r)
		}
	}
	return updates, nil
}

// FormatText renders the update summary for humans. checkOnly drops the
// per-release notes.
func FormatText(currentVersion, latestVersion string, updates []Release, checkOnly bool) string {
	lines := []string{
		"AI Governance Framework Updater",
		"================================",
		"Current version: " + currentVersion,
		"Latest version: " + latestVersion,
		fmt.Sprintf("Updates available: %d", len(updates)),
	}

	if len(updates) == 0 {
		lines = append(lines, "", "You are up to date.")
		return strings.Join(lines, "\n")
	}
	if checkOnly {
		return strings.Join(lines, "\n")
	}

	lines = append(lines, "")
	for _, r := range updates {
		published := "unknown"
		if r.PublishedAt != "" {
			published = r.PublishedAt
			if len(published) > 10 {
				published = published[:10]
			}
		}
		body := r.Body
		if body == "" {
			body = "No release notes available."
		}
		excerpt := body
		if len(excerpt) > 300 {
			excerpt = excerpt[:300] + "..."
		}
		lines = append(lines,
			fmt.Sprintf("%s (%s):", r.TagName, published),
			"  Release notes: "+excerpt,
			"",
		)
	}
	lines = append(lines,
		"Run with --apply to see what files would be added or updated.",
		"Note: CLAUDE.md and security configuration changes always require manual review.",
	)
	return strings.Join(lines, "\n")
}

type jsonUpdate struct {
	Version      string `json:"version"`
	PublishedAt  string `json:"published_at"`
	ReleaseNotes string `json:"release_notes"`
	HTMLURL      string `json:"html_url"`
}

type jsonReport struct {
	CurrentVersion   string       `json:"current_version"`
	LatestVersion    string       `json:"latest_version"`
	UpdatesAvailable int          `json:"updates_available"`
	Updates          []jsonUpdate `json:"updates"`
}

// FormatJSON renders the update summary as indented JSON.
func FormatJSON(currentVersion, latestVersion string, updates []Release) (string, error) {
	report := jsonReport{
		CurrentVersion:   currentVersion,
		LatestVersion:    latestVersion,
		UpdatesAvailable: len(updates),
		Updates:          make([]jsonUpdate, 0, len(updates)),
	}
	for _, r := range updates {
		notes := r.Body
		if len(notes) > 300 {
			notes = notes[:300]
		}
		report.Updates = append(report.Updates, jsonUpdate{
			Version:      r.TagName,
			PublishedAt:  r.PublishedAt,
			ReleaseNotes: notes,
			HTMLURL:      r.HTMLURL,
		})
	}
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ApplyPreview summarizes what applying each update would involve. It is
// informational only; nothing is downloaded or changed.
func ApplyPreview(updates []Release) string {
	lines := []string{
		"",
		"Apply preview (no changes are made):",
		"-------------------------------------",
	}
	for _, r := range updates {
		lines = append(lines, fmt.Sprintf("  %s: %d asset(s) available for download", r.TagName, len(r.Assets)))
		for _, a := range r.Assets {
			lines = append(lines, fmt.Sprintf("    - %s (%d bytes)", a.Name, a.Size))
		}
		if len(r.Assets) == 0 {
			lines = append(lines, "    - Source archive available via GitHub release page")
		}
		url := r.HTMLURL
		if url == "" {
			url = "N/A"
		}
		lines = append(lines, "    Release URL: "+url)
	}
	lines = append(lines,
		"",
		"To apply updates, download the release and manually review all changes.",
		"CLAUDE.md and security configuration changes always require manual review.",
	)
	return strings.Join(lines, "\n")
}
