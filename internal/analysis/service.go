// Package analysis drives a case through its workflow: follow-up questions, answers, legal analysis and document
// drafting. It talks to the reasoning service, the reference documents and the case store through narrow
// interfaces.
package analysis

import (
	"context"
	"github.com/google/uuid"
	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/keywords"
	"github.com/myrjola/casefile/internal/legal"
	"github.com/myrjola/casefile/internal/logging"
	"github.com/myrjola/casefile/internal/models"
	"github.com/myrjola/casefile/internal/reference"
	"github.com/myrjola/casefile/internal/relevance"
	"log/slog"
	"strings"
	"time"
)

// CaseStore persists cases. Update must apply mutate atomically with respect to other updates of the same case and
// write nothing when mutate fails.
type CaseStore interface {
	Get(ctx context.Context, id string) (*models.Case, error)
	ListByInvestigator(ctx context.Context, investigatorID string) ([]models.Case, error)
	Create(ctx context.Context, c *models.Case) error
	Update(ctx context.Context, id string, mutate func(c *models.Case) error) (*models.Case, error)
}

// Completer is the reasoning service. It turns a prompt into free-form text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ReferenceLoader returns the text of the reference sources keyed by source key.
type ReferenceLoader interface {
	Load(ctx context.Context) (map[string]string, error)
}

type Config struct {
	Store      CaseStore
	Completer  Completer
	References ReferenceLoader
	Keywords   *keywords.Builder
	Legal      *legal.Table
	Sources    []reference.Source
	// RawPrefixLength is how many characters of a source are quoted when extraction found nothing.
	RawPrefixLength int
	Logger          *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

type Service struct {
	store           CaseStore
	completer       Completer
	references      ReferenceLoader
	keywords        *keywords.Builder
	legal           *legal.Table
	sources         []reference.Source
	rawPrefixLength int
	logger          *slog.Logger
	now             func() time.Time
}

func New(cfg Config) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:           cfg.Store,
		completer:       cfg.Completer,
		references:      cfg.References,
		keywords:        cfg.Keywords,
		legal:           cfg.Legal,
		sources:         cfg.Sources,
		rawPrefixLength: cfg.RawPrefixLength,
		logger:          cfg.Logger,
		now:             now,
	}
}

// Case returns the stored case.
func (s *Service) Case(ctx context.Context, caseID string) (*models.Case, error) {
	return s.store.Get(ctx, caseID)
}

// Cases lists the cases of an investigator, newest first.
func (s *Service) Cases(ctx context.Context, investigatorID string) ([]models.Case, error) {
	return s.store.ListByInvestigator(ctx, investigatorID)
}

// CreateCase registers a new case from the submitted facts together with its follow-up questions.
func (s *Service) CreateCase(ctx context.Context, investigatorID string, facts models.Facts) (*models.Case, error) {
	if facts.Description() == "" {
		return nil, errors.Wrap(models.ErrValidation, "case description is required")
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, errors.Wrap(err, "generate case id")
	}
	ctx = logging.WithAttrs(ctx, slog.String("case_id", id.String()))

	questions, err := s.BuildQuestions(ctx, facts)
	if err != nil {
		return nil, err
	}
	c := &models.Case{
		ID:             id.String(),
		InvestigatorID: investigatorID,
		SubmittedAt:    s.now().UTC(),
		Facts:          facts,
		Questions:      questions,
		Answers:        map[string]any{},
	}
	if err = s.store.Create(ctx, c); err != nil {
		return nil, err
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "created case", slog.Int("questions", len(questions)))
	return c, nil
}

// SubmitAnswers merges answers into the case and marks the question stage complete. Every visible required question
// must have a non-blank answer. Answers to unknown questions are ignored.
func (s *Service) SubmitAnswers(ctx context.Context, caseID string, answers map[string]any) (*models.Case, error) {
	return s.store.Update(ctx, caseID, func(c *models.Case) error {
		merged := make(map[string]any, len(c.Answers)+len(answers))
		for k, v := range c.Answers {
			merged[k] = v
		}
		for _, q := range c.Questions {
			if v, ok := answers[q.ID]; ok {
				merged[q.ID] = v
			}
		}

		var missing []string
		for _, q := range c.Questions {
			if q.Required && visible(q, merged) && answerText(merged[q.ID]) == "" {
				missing = append(missing, q.ID)
			}
		}
		if len(missing) > 0 {
			return errors.Wrap(models.ErrValidation, "required questions unanswered: "+strings.Join(missing, ", "),
				slog.String("case_id", caseID), slog.Any("missing", missing))
		}

		now := s.now().UTC()
		c.Answers = merged
		c.Completed = true
		c.CompletedAt = &now
		return nil
	})
}

// UpdateStepStatus sets the status of an investigation step and recomputes the compliance score.
func (s *Service) UpdateStepStatus(
	ctx context.Context,
	caseID, stepID string,
	status models.StepStatus,
) (*models.Analysis, error) {
	if !status.Valid() {
		return nil, errors.Wrap(models.ErrValidation, "unknown step status", slog.String("status", string(status)))
	}
	c, err := s.store.Update(ctx, caseID, func(c *models.Case) error {
		if c.Analysis == nil {
			return errors.Wrap(models.ErrNotFound, "case has no analysis", slog.String("case_id", caseID))
		}
		step := c.Analysis.Step(stepID)
		if step == nil {
			return errors.Wrap(models.ErrNotFound, "step not found",
				slog.String("case_id", caseID), slog.String("step_id", stepID))
		}
		step.Status = status
		c.Analysis.RecomputeComplianceScore()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.Analysis, nil
}

// ResolveAlert marks a compliance alert resolved. Resolving an alert twice keeps the first resolution time.
func (s *Service) ResolveAlert(ctx context.Context, caseID, alertID string) (*models.Analysis, error) {
	c, err := s.store.Update(ctx, caseID, func(c *models.Case) error {
		if c.Analysis == nil {
			return errors.Wrap(models.ErrNotFound, "case has no analysis", slog.String("case_id", caseID))
		}
		alert := c.Analysis.Alert(alertID)
		if alert == nil {
			return errors.Wrap(models.ErrNotFound, "alert not found",
				slog.String("case_id", caseID), slog.String("alert_id", alertID))
		}
		if !alert.Resolved {
			now := s.now().UTC()
			alert.Resolved = true
			alert.ResolvedAt = &now
		}
		c.Analysis.RecomputeComplianceScore()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.Analysis, nil
}

// referenceExcerpts extracts the relevant passages of every configured source for the case facts. Sources without a
// match are quoted by their opening text and missing sources are skipped.
func (s *Service) referenceExcerpts(
	ctx context.Context,
	in keywords.Input,
	sources []reference.Source,
) ([]sourceExcerpt, error) {
	texts, err := s.references.Load(ctx)
	if err != nil {
		return nil, err
	}
	excerpts := make([]sourceExcerpt, 0, len(sources))
	for _, source := range sources {
		text, ok := texts[source.Key]
		if !ok {
			continue
		}
		kw := s.keywords.Build(in, source.Purpose)
		excerpt := sourceExcerpt{Key: source.Key, Purpose: source.Purpose}
		excerpt.Text = relevance.Extract(text, kw, source.WindowSize)
		if excerpt.Text == "" {
			excerpt.Text = prefix(text, s.rawPrefixLength)
			excerpt.Fallback = true
		}
		s.logger.LogAttrs(ctx, slog.LevelDebug, "selected reference material",
			slog.String("source", source.Key),
			slog.Int("keywords", len(kw)),
			slog.Int("chars", len(excerpt.Text)),
			slog.Bool("fallback", excerpt.Fallback))
		excerpts = append(excerpts, excerpt)
	}
	return excerpts, nil
}

// prefix returns the first n characters of text.
func prefix(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
