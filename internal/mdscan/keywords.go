package mdscan

import (
	"regexp"
	"strings"
)

// Keyword matching parameters for ADR coverage. The stopword set, length
// floor, and match threshold are product constants, not tunables.
const (
	minKeywordLength = 4

	// KeywordMatchThreshold is the minimum number of shared significant
	// keywords for two texts to count as describing the same decision.
	KeywordMatchThreshold = 2
)

var stopWords = map[string]struct{}{
	"with": {}, "this": {}, "that": {}, "from": {}, "have": {}, "will": {},
	"been": {}, "were": {}, "they": {}, "also": {}, "more": {}, "some": {},
	"such": {}, "when": {}, "then": {}, "than": {}, "what": {}, "which": {},
	"each": {}, "into": {}, "over": {}, "used": {}, "uses": {}, "make": {},
	"made": {}, "using": {}, "because": {}, "before": {}, "after": {},
	"session": {}, "agent": {}, "code": {}, "file": {}, "files": {},
	"project": {}, "team": {}, "approach": {}, "pattern": {}, "option": {},
	"current": {}, "change": {},
}

var wordRe = regexp.MustCompile(`[a-zA-Z]+`)

// Keywords extracts the significant lowercase words from a text block:
// alphabetic runs of at least four characters that are not stopwords.
func Keywords(text string) map[string]struct{} {
	words := wordRe.FindAllString(strings.ToLower(text), -1)
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if len(w) < minKeywordLength {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

// KeywordOverlap counts how many significant keywords two texts share.
func KeywordOverlap(a, b string) int {
	ka := Keywords(a)
	kb := Keywords(b)
	n := 0
	for w := range ka {
		if _, ok := kb[w]; ok {
			n++
		}
	}
	return n
}
