// Package relevance selects the passages of a long reference text that matter for a case.
//
// The extractor scans the document line by line for keyword hits, cuts a window of context around every hit, ranks
// the windows by how many distinct keywords they contain and returns the best few joined into a single bundle.
package relevance

import (
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// MinExcerptLength is the anti-noise floor in characters. Shorter excerpts are dropped.
	MinExcerptLength = 100
	// MaxExcerpts caps the size of the bundle.
	MaxExcerpts = 5
	// Separator joins the excerpts of a bundle.
	Separator = "\n\n---\n\n"
)

// Excerpt is a contiguous block of document lines around a keyword hit.
type Excerpt struct {
	// StartLine and EndLine are 0-based inclusive line indexes into the document.
	StartLine int
	EndLine   int
	Text      string
	// Score is the number of distinct keywords found anywhere in Text.
	Score int
}

// Extract returns the top excerpts of document for keywords joined with [Separator], or "" when nothing matched.
func Extract(document string, keywords []string, windowSize int) string {
	excerpts := Excerpts(document, keywords, windowSize)
	if len(excerpts) == 0 {
		return ""
	}
	texts := make([]string, len(excerpts))
	for i, e := range excerpts {
		texts[i] = e.Text
	}
	return strings.Join(texts, Separator)
}

// Excerpts returns at most [MaxExcerpts] excerpts ordered by descending score. Ties keep the scan order.
//
// A line matches when it contains any keyword as a case-insensitive substring. The window spans windowSize/2 lines
// on both sides of the match, clamped to the document, and the scan resumes after the window so excerpts never
// overlap.
func Excerpts(document string, keywords []string, windowSize int) []Excerpt {
	needles := normalize(keywords)
	if document == "" || len(needles) == 0 {
		return nil
	}
	if windowSize < 0 {
		windowSize = 0
	}
	half := windowSize / 2

	lines := strings.Split(document, "\n")
	lowered := make([]string, len(lines))
	for i, line := range lines {
		lowered[i] = strings.ToLower(line)
	}

	var excerpts []Excerpt
	for i := 0; i < len(lines); i++ {
		if !containsAny(lowered[i], needles) {
			continue
		}
		start := max(0, i-half)
		end := min(len(lines)-1, i+half)
		text := strings.Join(lines[start:end+1], "\n")
		i = end
		if utf8.RuneCountInString(strings.TrimSpace(text)) < MinExcerptLength {
			continue
		}
		excerpts = append(excerpts, Excerpt{
			StartLine: start,
			EndLine:   end,
			Text:      text,
			Score:     score(strings.ToLower(text), needles),
		})
	}

	sort.SliceStable(excerpts, func(a, b int) bool {
		return excerpts[a].Score > excerpts[b].Score
	})
	if len(excerpts) > MaxExcerpts {
		excerpts = excerpts[:MaxExcerpts]
	}
	return excerpts
}

// normalize lowercases the keywords and drops blanks and duplicates so that the score counts distinct keywords.
func normalize(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	needles := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		needles = append(needles, k)
	}
	return needles
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func score(s string, needles []string) int {
	hits := 0
	for _, n := range needles {
		if strings.Contains(s, n) {
			hits++
		}
	}
	return hits
}
