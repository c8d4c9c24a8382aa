package analysis

import (
	"context"
	"fmt"
	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/models"
	"log/slog"
	"strings"
	"time"
)

// DefaultQuestions is the fixed question set used whenever the reasoning service cannot produce one.
func DefaultQuestions() []models.Question {
	return []models.Question{
		{
			ID:       "q_1",
			Category: "Incident",
			Text:     "When did the incident take place?",
			Kind:     models.QuestionKindDate,
			Required: true,
		},
		{
			ID:       "q_2",
			Category: "Incident",
			Text:     "Where exactly did the incident take place?",
			Kind:     models.QuestionKindText,
			Required: true,
		},
		{
			ID:       "q_3",
			Category: "Victim",
			Text:     "What is the victim's name and contact number?",
			Kind:     models.QuestionKindText,
			Required: true,
		},
		{
			ID:       "q_4",
			Category: "Accused",
			Text:     "Is the accused known to the victim?",
			Kind:     models.QuestionKindSelect,
			Options:  []string{"yes", "no"},
			Required: true,
		},
		{
			ID:        "q_5",
			Category:  "Accused",
			Text:      "Describe the accused and their relationship to the victim.",
			Kind:      models.QuestionKindTextarea,
			Required:  true,
			DependsOn: &models.Dependency{QuestionID: "q_4", Equals: "yes"},
		},
		{
			ID:       "q_6",
			Category: "Witnesses",
			Text:     "List any witnesses with their contact details.",
			Kind:     models.QuestionKindTextarea,
		},
		{
			ID:       "q_7",
			Category: "Evidence",
			Text:     "What physical or digital evidence has been secured so far?",
			Kind:     models.QuestionKindTextarea,
		},
		{
			ID:       "q_8",
			Category: "Procedure",
			Text:     "Has a medical examination been conducted?",
			Kind:     models.QuestionKindSelect,
			Options:  []string{"yes", "no", "not applicable"},
			Required: true,
		},
		{
			ID:        "q_9",
			Category:  "Procedure",
			Text:      "When and where was the medical examination conducted?",
			Kind:      models.QuestionKindText,
			Required:  true,
			DependsOn: &models.Dependency{QuestionID: "q_8", Equals: "yes"},
		},
	}
}

// BuildQuestions asks the reasoning service for follow-up questions tailored to facts. Any failure to obtain a
// usable question set falls back to [DefaultQuestions] so that the workflow never stalls. The error is reserved for
// failures to render the prompt.
func (s *Service) BuildQuestions(ctx context.Context, facts models.Facts) ([]models.Question, error) {
	factsText, err := factsJSON(facts)
	if err != nil {
		return nil, err
	}
	prompt, err := renderPrompt("questions", questionsPrompt{FactsJSON: factsText, Schema: questionsSchemaJSON})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	response, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "question generation failed, using default questions",
			errors.SlogError(err))
		return DefaultQuestions(), nil
	}
	s.logger.LogAttrs(ctx, slog.LevelDebug, "generated questions",
		slog.Int("prompt_chars", len(prompt)),
		slog.Int("response_chars", len(response)),
		slog.Duration("duration", time.Since(start)))

	var generated []models.Question
	if err = decodePayload(response, '[', ']', questionsSchema, &generated); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "question payload unusable, using default questions",
			errors.SlogError(err))
		return DefaultQuestions(), nil
	}
	return normalizeQuestions(generated), nil
}

// normalizeQuestions mints missing or duplicate identifiers, coerces unknown kinds to text and drops dependencies
// on questions that do not exist.
func normalizeQuestions(questions []models.Question) []models.Question {
	seen := make(map[string]struct{}, len(questions))
	out := make([]models.Question, 0, len(questions))
	for i, q := range questions {
		q.ID = strings.TrimSpace(q.ID)
		if _, dup := seen[q.ID]; q.ID == "" || dup {
			q.ID = fmt.Sprintf("q_%d", i+1)
		}
		// A minted identifier can still collide with an explicit one further up.
		for n := len(questions) + 1; ; n++ {
			if _, dup := seen[q.ID]; !dup {
				break
			}
			q.ID = fmt.Sprintf("q_%d", n)
		}
		seen[q.ID] = struct{}{}
		if !q.Kind.Valid() {
			q.Kind = models.QuestionKindText
		}
		out = append(out, q)
	}
	for i := range out {
		if dep := out[i].DependsOn; dep != nil {
			if _, ok := seen[dep.QuestionID]; !ok || dep.QuestionID == out[i].ID {
				out[i].DependsOn = nil
			}
		}
	}
	return out
}

// visible reports whether q is shown given answers. Questions without a dependency are always visible.
func visible(q models.Question, answers map[string]any) bool {
	if q.DependsOn == nil {
		return true
	}
	return strings.EqualFold(answerText(answers[q.DependsOn.QuestionID]), strings.TrimSpace(q.DependsOn.Equals))
}
