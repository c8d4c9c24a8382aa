package analysis

import (
	"context"
	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/keywords"
	"github.com/myrjola/casefile/internal/logging"
	"github.com/myrjola/casefile/internal/models"
	"github.com/myrjola/casefile/internal/reference"
	"github.com/tidwall/gjson"
	"log/slog"
	"strings"
	"time"
)

var documentPurposes = map[models.DocumentType]keywords.Purpose{
	models.DocumentTypeFIR:         keywords.PurposeFIR,
	models.DocumentTypeChargesheet: keywords.PurposeChargesheet,
}

// GenerateDocument drafts an FIR or chargesheet for an analyzed case and stores it, replacing an earlier draft of the
// same type. The drafting prompt quotes the passages of the matching drafting guide.
func (s *Service) GenerateDocument(ctx context.Context, caseID string, docType models.DocumentType) (string, error) {
	if !docType.Valid() {
		return "", errors.Wrap(models.ErrValidation, "unknown document type", slog.String("type", string(docType)))
	}
	ctx = logging.WithAttrs(ctx, slog.String("case_id", caseID), slog.String("document_type", string(docType)))

	c, err := s.store.Get(ctx, caseID)
	if err != nil {
		return "", err
	}
	if c.Analysis == nil {
		return "", errors.Wrap(models.ErrValidation, "case must be analyzed before drafting documents")
	}

	var sources []reference.Source
	for _, source := range s.sources {
		if source.Purpose == documentPurposes[docType] {
			sources = append(sources, source)
		}
	}
	var excerpt *sourceExcerpt
	if len(sources) > 0 {
		excerpts, loadErr := s.referenceExcerpts(ctx, keywords.InputFromFacts(c.Facts), sources)
		if loadErr != nil {
			return "", loadErr
		}
		if len(excerpts) > 0 {
			excerpt = &excerpts[0]
		}
	}

	factsText, err := factsJSON(c.Facts)
	if err != nil {
		return "", err
	}
	prompt, err := renderPrompt("document", documentPrompt{
		Title:         documentTitle(docType),
		DocumentType:  docType,
		CaseReference: c.ID,
		FactsJSON:     factsText,
		Location:      c.Facts.Location(),
		Answers:       answerLines(c.Questions, c.Answers),
		CaseType:      c.Analysis.CaseType,
		Sections:      c.Analysis.ApplicableSections,
		Excerpt:       excerpt,
		Schema:        documentSchemaJSON,
	})
	if err != nil {
		return "", err
	}

	start := time.Now()
	response, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return "", errors.Wrap(models.Classify(models.ErrUpstreamCall, err), "request document")
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "received document",
		slog.Int("prompt_chars", len(prompt)),
		slog.Int("response_chars", len(response)),
		slog.Duration("duration", time.Since(start)))

	content, err := decodeDocument(response, docType)
	if err != nil {
		return "", err
	}

	now := s.now().UTC()
	_, err = s.store.Update(ctx, caseID, func(c *models.Case) error {
		if c.Analysis == nil {
			return errors.Wrap(models.ErrValidation, "case must be analyzed before drafting documents")
		}
		c.Analysis.SetDocument(&models.Document{
			Type:          docType,
			Content:       content,
			CaseReference: c.ID,
			GeneratedAt:   now,
			Sections:      c.Analysis.SectionLabels(),
		})
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

// decodeDocument reads the tagged document payload of response. The tag must name the requested document type.
func decodeDocument(response string, docType models.DocumentType) (string, error) {
	candidate, err := locatePayload(response, '{', '}', documentSchema)
	if err != nil {
		return "", errors.Wrap(err, "decode document")
	}
	if tag := gjson.Get(candidate, "documentType").String(); models.DocumentType(tag) != docType {
		return "", errors.Wrap(models.ErrUpstreamParse, "document type mismatch",
			slog.String("want", string(docType)), slog.String("got", tag))
	}
	content := gjson.Get(candidate, "content").String()
	if strings.TrimSpace(content) == "" {
		return "", errors.Wrap(models.ErrUpstreamParse, "empty document content")
	}
	return content, nil
}

// UpdateDocument replaces the text of a drafted document with the investigator's edit. A document that was never
// drafted is created from the edit.
func (s *Service) UpdateDocument(
	ctx context.Context,
	caseID string,
	docType models.DocumentType,
	content string,
) (*models.Analysis, error) {
	if !docType.Valid() {
		return nil, errors.Wrap(models.ErrValidation, "unknown document type", slog.String("type", string(docType)))
	}
	if strings.TrimSpace(content) == "" {
		return nil, errors.Wrap(models.ErrValidation, "document content is required")
	}
	c, err := s.store.Update(ctx, caseID, func(c *models.Case) error {
		if c.Analysis == nil {
			return errors.Wrap(models.ErrValidation, "case must be analyzed before editing documents",
				slog.String("case_id", caseID))
		}
		now := s.now().UTC()
		doc := c.Analysis.Document(docType)
		if doc == nil {
			doc = &models.Document{
				Type:          docType,
				CaseReference: c.ID,
				GeneratedAt:   now,
				Sections:      c.Analysis.SectionLabels(),
			}
			c.Analysis.SetDocument(doc)
		}
		doc.Content = content
		doc.UpdatedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.Analysis, nil
}
