// Package research scans RSS feeds, GitHub topics, and web pages for
// governance-related content and scores each finding by keyword relevance.
package research

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/bartekus/warden/internal/projection"
)

// GitHubAPIBase is a variable so tests can point it at a local server.
var GitHubAPIBase = "https://api.github.com"

// HTTPClient is the shared client for all source fetches.
var HTTPClient = &http.Client{Timeout: 15 * time.Second}

const userAgent = "ai-governance-scanner/1.0"

// Source is one configured content source. Type selects the fetcher: "rss",
// "github_trending" (URL holds the topic), or "web".
type Source struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
}

// Sources are the default scan targets.
var Sources = []Source{
	{Name: "Anthropic Blog", URL: "https://www.anthropic.com/news", Type: "rss"},
	{Name: "GitHub — claude-code repos", URL: "claude-code", Type: "github_trending"},
	{Name: "GitHub — ai-governance repos", URL: "ai-governance", Type: "github_trending"},
}

// DefaultKeywords drive the relevance score.
var DefaultKeywords = []string{
	"AI governance",
	"LLM governance",
	"Claude Code",
	"AI agent",
	"agent framework",
	"AI development",
	"prompt engineering",
	"agent safety",
	"AI quality control",
	"output contract",
	"AI oversight",
}

// Finding is one scored discovery from a source.
type Finding struct {
	Source         string  `json:"source"`
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	Date           string  `json:"date"`
	Excerpt        string  `json:"excerpt"`
	RelevanceScore float64 `json:"relevance_score"`
}

// CalculateRelevance scores text 0.0-1.0 by case-insensitive keyword matches,
// normalized so matching ~30% of the keyword list saturates the score.
func CalculateRelevance(text string, keywords []string) float64 {
	if text == "" || len(keywords) == 0 {
		return 0.0
	}
	lower := strings.ToLower(text)
	matches := 0
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			matches++
		}
	}
	denom := math.Max(float64(len(keywords))*0.3, 1)
	return math.Round(math.Min(float64(matches)/denom, 1.0)*100) / 100
}

var feedDateFormats = []string{
	"Mon, 02 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 02 Jan 2006 15:04:05 MST",
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseFeedDate parses common RSS/Atom date formats. Naive timestamps are
// treated as UTC.
func ParseFeedDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range feedDateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func httpGet(rawURL string, params url.Values, header http.Header) (string, error) {
	if len(params) > 0 {
		rawURL = rawURL + "?" + params.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// feedItem covers both RSS <item> and Atom <entry> shapes. encoding/xml
// matches on local names, so dc:date binds to the date field.
type feedItem struct {
	Title       string     `xml:"title"`
	Links       []feedLink `xml:"link"`
	PubDate     string     `xml:"pubDate"`
	DCDate      string     `xml:"date"`
	Published   string     `xml:"published"`
	Updated     string     `xml:"updated"`
	Description string     `xml:"description"`
	Summary     string     `xml:"summary"`
	Content     string     `xml:"content"`
}

type feedLink struct {
	Href string `xml:"href,attr"`
	Text string `xml:",chardata"`
}

type feedDoc struct {
	Channel struct {
		Items []feedItem `xml:"item"`
	} `xml:"channel"`
	Entries []feedItem `xml:"entry"`
}

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

func (it feedItem) link() string {
	for _, l := range it.Links {
		if l.Href != "" {
			return l.Href
		}
	}
	for _, l := range it.Links {
		if t := strings.TrimSpace(l.Text); t != "" {
			return t
		}
	}
	return ""
}

func (it feedItem) dateString() string {
	for _, s := range []string{it.PubDate, it.DCDate, it.Published, it.Updated} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func (it feedItem) description() string {
	for _, s := range []string{it.Description, it.Summary, it.Content} {
		if s != "" {
			return strings.TrimSpace(htmlTagRe.ReplaceAllString(s, ""))
		}
	}
	return ""
}

// FetchRSS fetches and parses an RSS/Atom feed, keeping items published at or
// after cutoff. Fetch and parse failures are warnings, not errors.
func FetchRSS(src Source, cutoff time.Time, keywords []string, warnf func(format string, args ...any)) []Finding {
	text, err := httpGet(src.URL, nil, http.Header{"User-Agent": {userAgent}})
	if err != nil {
		warnf("Warning: Could not fetch RSS source '%s': %v", src.Name, err)
		return nil
	}

	var doc feedDoc
	if err := xml.Unmarshal([]byte(text), &doc); err != nil {
		warnf("Warning: Could not parse RSS from '%s': %v", src.Name, err)
		return nil
	}

	items := doc.Channel.Items
	if len(items) == 0 {
		items = doc.Entries
	}

	var findings []Finding
	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			title = "Untitled"
		}

		dateStr := ""
		if raw := item.dateString(); raw != "" {
			if pub, ok := ParseFeedDate(raw); ok {
				if pub.Before(cutoff) {
					continue
				}
				dateStr = pub.Format(time.RFC3339)
			}
		}

		description := item.description()
		relevance := CalculateRelevance(title+" "+description, keywords)

		findings = append(findings, Finding{
			Source:         src.Name,
			Title:          title,
			URL:            strings.TrimSpace(item.link()),
			Date:           dateStr,
			Excerpt:        truncate(description, 500),
			RelevanceScore: relevance,
		})
	}
	return findings
}

type githubSearchResponse struct {
	Items []struct {
		FullName    string `json:"full_name"`
		Description string `json:"description"`
		HTMLURL     string `json:"html_url"`
		PushedAt    string `json:"pushed_at"`
		Stars       int    `json:"stargazers_count"`
	} `json:"items"`
}

// FetchGitHubTrending searches GitHub for repositories under a topic that
// were pushed after cutoff. src.URL holds the topic name.
func FetchGitHubTrending(src Source, cutoff time.Time, keywords []string, warnf func(format string, args ...any)) []Finding {
	params := url.Values{
		"q":        {fmt.Sprintf("topic:%s pushed:>=%s", src.URL, cutoff.Format("2006-01-02"))},
		"sort":     {"updated"},
		"order":    {"desc"},
		"per_page": {"20"},
	}

	text, err := httpGet(GitHubAPIBase+"/search/repositories", params,
		http.Header{"Accept": {"application/vnd.github+json"}})
	if err != nil {
		warnf("Warning: Could not search GitHub for topic '%s': %v", src.URL, err)
		return nil
	}

	var resp githubSearchResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		warnf("Warning: Could not parse GitHub response for topic '%s': %v", src.URL, err)
		return nil
	}

	var findings []Finding
	for _, repo := range resp.Items {
		findings = append(findings, Finding{
			Source:         src.Name,
			Title:          fmt.Sprintf("%s (%d stars)", repo.FullName, repo.Stars),
			URL:            repo.HTMLURL,
			Date:           repo.PushedAt,
			Excerpt:        truncate(repo.Description, 500),
			RelevanceScore: CalculateRelevance(repo.FullName+" "+repo.Description, keywords),
		})
	}
	return findings
}

var (
	scriptRe = regexp.MustCompile(`(?s)<script[^>]*>.*?</script>`)
	styleRe  = regexp.MustCompile(`(?s)<style[^>]*>.*?</style>`)
	spaceRe  = regexp.MustCompile(`\s+`)
)

// FetchWeb fetches a page and reduces it to a plain-text excerpt.
func FetchWeb(src Source, keywords []string, now time.Time, warnf func(format string, args ...any)) []Finding {
	text, err := httpGet(src.URL, nil, http.Header{"User-Agent": {userAgent}})
	if err != nil {
		warnf("Warning: Could not fetch web source '%s': %v", src.Name, err)
		return nil
	}

	text = scriptRe.ReplaceAllString(text, "")
	text = styleRe.ReplaceAllString(text, "")
	text = htmlTagRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))

	return []Finding{{
		Source:         src.Name,
		Title:          src.Name,
		URL:            src.URL,
		Date:           now.UTC().Format(time.RFC3339),
		Excerpt:        truncate(text, 500),
		RelevanceScore: CalculateRelevance(text, keywords),
	}}
}

// Scan fetches all sources, looking back the given number of days, and
// returns findings sorted by descending relevance.
func Scan(sources []Source, days int, extraKeywords []string, now time.Time, warnf func(format string, args ...any)) []Finding {
	cutoff := now.UTC().AddDate(0, 0, -days)
	keywords := append(append([]string{}, DefaultKeywords...), extraKeywords...)

	var all []Finding
	for _, src := range sources {
		switch src.Type {
		case "rss":
			all = append(all, FetchRSS(src, cutoff, keywords, warnf)...)
		case "github_trending":
			all = append(all, FetchGitHubTrending(src, cutoff, keywords, warnf)...)
		case "web":
			all = append(all, FetchWeb(src, keywords, now, warnf)...)
		default:
			warnf("Warning: Unknown source type '%s' for '%s'", src.Type, src.Name)
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].RelevanceScore > all[j].RelevanceScore
	})
	return all
}

// MarshalFindings renders findings as indented JSON. A nil slice renders as
// an empty array, not null.
func MarshalFindings(findings []Finding) ([]byte, error) {
	if findings == nil {
		findings = []Finding{}
	}
	out, err := json.MarshalIndent(findings, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// WriteFindings writes the JSON output atomically to path.
func WriteFindings(findings []Finding, path string) error {
	out, err := MarshalFindings(findings)
	if err != nil {
		return err
	}
	return projection.AtomicWrite(path, out)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
