package analysis

import (
	"embed"
	"encoding/json"
	"fmt"
	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/keywords"
	"github.com/myrjola/casefile/internal/models"
	"log/slog"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var prompts = template.Must(template.New("prompts").ParseFS(templateFS, "templates/*.tmpl"))

type answerLine struct {
	Question string
	Answer   string
}

// sourceExcerpt is the material quoted from one reference source.
type sourceExcerpt struct {
	Key     string
	Purpose keywords.Purpose
	Text    string
	// Fallback is set when no keyword matched and Text is the opening of the source.
	Fallback bool
}

type questionsPrompt struct {
	FactsJSON string
	Schema    string
}

type analysisPrompt struct {
	FactsJSON string
	Answers   []answerLine
	Flags     keywords.Flags
	LegalJSON string
	Excerpts  []sourceExcerpt
	Schema    string
}

type documentPrompt struct {
	Title         string
	DocumentType  models.DocumentType
	CaseReference string
	FactsJSON     string
	// Location is the place of occurrence, a mandatory heading of both documents.
	Location      string
	Answers       []answerLine
	CaseType      string
	Sections      []models.ApplicableSection
	Excerpt       *sourceExcerpt
	Schema        string
}

func renderPrompt(name string, data any) (string, error) {
	var sb strings.Builder
	if err := prompts.ExecuteTemplate(&sb, name, data); err != nil {
		return "", errors.Wrap(err, "render prompt", slog.String("template", name))
	}
	return sb.String(), nil
}

func factsJSON(facts models.Facts) (string, error) {
	if facts == nil {
		facts = models.Facts{}
	}
	out, err := json.MarshalIndent(facts, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "marshal facts")
	}
	return string(out), nil
}

// answerLines pairs the answers with their question text in question order. Answers to unknown questions are left
// out.
func answerLines(questions []models.Question, answers map[string]any) []answerLine {
	var lines []answerLine
	for _, q := range questions {
		answer, ok := answers[q.ID]
		if !ok {
			continue
		}
		text := answerText(answer)
		if text == "" {
			continue
		}
		lines = append(lines, answerLine{Question: q.Text, Answer: text})
	}
	return lines
}

func answerText(answer any) string {
	switch v := answer.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func documentTitle(docType models.DocumentType) string {
	if docType == models.DocumentTypeChargesheet {
		return "Chargesheet (Final Report under Section 173 CrPC)"
	}
	return "First Information Report (FIR)"
}
