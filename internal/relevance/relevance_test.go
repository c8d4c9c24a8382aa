package relevance_test

import (
	"fmt"
	"github.com/myrjola/casefile/internal/relevance"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
)

// document builds n filler lines and lets overrides replace individual lines by index.
func document(n int, overrides map[int]string) string {
	lines := make([]string, n)
	for i := range lines {
		if line, ok := overrides[i]; ok {
			lines[i] = line
			continue
		}
		lines[i] = fmt.Sprintf("Filler line %02d of the reference manual.", i)
	}
	return strings.Join(lines, "\n")
}

func TestExcerpts_window(t *testing.T) {
	doc := document(50, map[int]string{20: "The offence of rape is defined in this chapter."})

	excerpts := relevance.Excerpts(doc, []string{"rape"}, 10)

	require.Len(t, excerpts, 1)
	require.Equal(t, 15, excerpts[0].StartLine)
	require.Equal(t, 25, excerpts[0].EndLine)
	require.Equal(t, 1, excerpts[0].Score)
	require.True(t, strings.HasPrefix(excerpts[0].Text, "Filler line 15"))
	require.True(t, strings.HasSuffix(excerpts[0].Text, "Filler line 25 of the reference manual."))
}

func TestExcerpts_clampsToDocumentBounds(t *testing.T) {
	doc := document(6, map[int]string{0: "RAPE at the very first line", 5: "and rape on the last line"})

	excerpts := relevance.Excerpts(doc, []string{"rape"}, 10)

	require.Len(t, excerpts, 1, "the first window covers the whole document")
	require.Equal(t, 0, excerpts[0].StartLine)
	require.Equal(t, 5, excerpts[0].EndLine)
}

func TestExcerpts_rankingIsStableAndBounded(t *testing.T) {
	keywords := []string{"consent", "minor", "medical", "statement", "magistrate"}
	doc := document(200, map[int]string{
		10:  "Record the statement of the victim.",
		40:  "Medical examination of a minor requires consent of the guardian.",
		70:  "The statement shall be recorded.",
		100: "A statement before the magistrate.",
		130: "Another statement.",
		160: "A final statement.",
		190: "One more statement at the end.",
	})

	excerpts := relevance.Excerpts(doc, keywords, 6)

	require.Len(t, excerpts, relevance.MaxExcerpts)
	require.Equal(t, 40, excerpts[0].StartLine+3, "three keywords rank first regardless of position")
	require.Equal(t, 3, excerpts[0].Score)
	require.Equal(t, 2, excerpts[1].Score)
	for i := 1; i < len(excerpts); i++ {
		require.GreaterOrEqual(t, excerpts[i-1].Score, excerpts[i].Score)
		require.GreaterOrEqual(t, len(excerpts[i].Text), relevance.MinExcerptLength)
	}
	// The single-keyword excerpts keep scan order.
	require.Equal(t, 7, excerpts[2].StartLine)
	require.Equal(t, 67, excerpts[3].StartLine)
	require.Equal(t, 127, excerpts[4].StartLine)
}

func TestExcerpts_skipsMatchesInsideEmittedWindow(t *testing.T) {
	doc := document(30, map[int]string{10: "first rape mention", 12: "second rape mention", 20: "third rape mention"})

	excerpts := relevance.Excerpts(doc, []string{"rape"}, 4)

	require.Len(t, excerpts, 2)
	require.Equal(t, 8, excerpts[0].StartLine)
	require.Equal(t, 12, excerpts[0].EndLine)
	require.Equal(t, 18, excerpts[1].StartLine)
}

func TestExcerpts_dropsShortExcerpts(t *testing.T) {
	doc := "short rape line\nanother"

	require.Empty(t, relevance.Excerpts(doc, []string{"rape"}, 10))
	require.Equal(t, "", relevance.Extract(doc, []string{"rape"}, 10))
}

func TestExtract(t *testing.T) {
	doc := document(60, map[int]string{5: "FIR must be registered.", 45: "FIR copy given to the informant."})

	tests := []struct {
		name     string
		document string
		keywords []string
		want     int
	}{
		{name: "empty document", document: "", keywords: []string{"fir"}, want: 0},
		{name: "no keywords", document: doc, keywords: nil, want: 0},
		{name: "blank keywords", document: doc, keywords: []string{" ", ""}, want: 0},
		{name: "no match", document: doc, keywords: []string{"chargesheet"}, want: 0},
		{name: "two matches", document: doc, keywords: []string{"fir", "FIR"}, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := relevance.Extract(tt.document, tt.keywords, 6)
			if tt.want == 0 {
				require.Equal(t, "", got)
				return
			}
			require.Len(t, strings.Split(got, relevance.Separator), tt.want)
		})
	}
}

func TestExcerpts_duplicateKeywordsScoreOnce(t *testing.T) {
	doc := document(20, map[int]string{10: "Section 376 applies."})

	excerpts := relevance.Excerpts(doc, []string{"section 376", "Section 376", "section"}, 6)

	require.Len(t, excerpts, 1)
	require.Equal(t, 2, excerpts[0].Score)
}
