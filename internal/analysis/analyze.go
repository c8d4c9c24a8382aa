package analysis

import (
	"context"
	"fmt"
	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/keywords"
	"github.com/myrjola/casefile/internal/logging"
	"github.com/myrjola/casefile/internal/models"
	"log/slog"
	"strings"
	"time"
)

type analysisPayload struct {
	CaseType           string                     `json:"caseType"`
	ApplicableSections []models.ApplicableSection `json:"applicableSections"`
	InvestigationSteps []stepPayload              `json:"investigationSteps"`
	ComplianceAlerts   []alertPayload             `json:"complianceAlerts"`
	JudicialGuidance   []models.JudicialGuidance  `json:"judicialGuidance"`
	Drafts             struct {
		FIR         string `json:"fir"`
		Chargesheet string `json:"chargesheet"`
	} `json:"drafts"`
}

type stepPayload struct {
	Title              string `json:"title"`
	Description        string `json:"description"`
	Status             string `json:"status"`
	Timeline           string `json:"timeline"`
	ResponsibleOfficer string `json:"responsibleOfficer"`
}

type alertPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Section     string `json:"section"`
	Timeline    string `json:"timeline"`
}

// Analyze produces the legal analysis of a case and stores it on the case.
//
// The relevant passages of every reference source are extracted with keywords derived from the case facts and
// quoted in the prompt together with the facts, the answers and the legal sections table. The structured payload of
// the response is validated, normalized and persisted. When the reasoning service fails or answers with something
// unusable the stored case is left untouched.
func (s *Service) Analyze(ctx context.Context, caseID string) (*models.Analysis, error) {
	ctx = logging.WithAttrs(ctx, slog.String("case_id", caseID))
	c, err := s.store.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}

	in := keywords.InputFromFacts(c.Facts)
	excerpts, err := s.referenceExcerpts(ctx, in, s.sources)
	if err != nil {
		return nil, err
	}
	factsText, err := factsJSON(c.Facts)
	if err != nil {
		return nil, err
	}
	legalText, err := s.legal.PromptJSON()
	if err != nil {
		return nil, err
	}
	prompt, err := renderPrompt("analysis", analysisPrompt{
		FactsJSON: factsText,
		Answers:   answerLines(c.Questions, c.Answers),
		Flags:     s.keywords.Flags(in),
		LegalJSON: legalText,
		Excerpts:  excerpts,
		Schema:    analysisSchemaJSON,
	})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	response, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, errors.Wrap(models.Classify(models.ErrUpstreamCall, err), "request analysis")
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "received analysis",
		slog.Int("prompt_chars", len(prompt)),
		slog.Int("response_chars", len(response)),
		slog.Int("sources", len(excerpts)),
		slog.Duration("duration", time.Since(start)))

	var payload analysisPayload
	if err = decodePayload(response, '{', '}', analysisSchema, &payload); err != nil {
		return nil, errors.Wrap(err, "decode analysis")
	}

	now := s.now().UTC()
	analysis := s.normalizeAnalysis(payload, caseID, now)
	updated, err := s.store.Update(ctx, caseID, func(c *models.Case) error {
		c.Analysis = analysis
		c.AnalyzedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated.Analysis, nil
}

// normalizeAnalysis turns the decoded payload into an analysis with minted step and alert identifiers, inferred
// alert priorities, canonical act names and a fresh compliance score.
func (s *Service) normalizeAnalysis(payload analysisPayload, caseID string, now time.Time) *models.Analysis {
	analysis := &models.Analysis{
		CaseType:           strings.TrimSpace(payload.CaseType),
		ApplicableSections: s.normalizeSections(payload.ApplicableSections),
		InvestigationSteps: make([]models.InvestigationStep, 0, len(payload.InvestigationSteps)),
		ComplianceAlerts:   make([]models.ComplianceAlert, 0, len(payload.ComplianceAlerts)),
		JudicialGuidance:   make([]models.JudicialGuidance, 0, len(payload.JudicialGuidance)),
	}

	for i, step := range payload.InvestigationSteps {
		status := models.StepStatus(strings.ToLower(strings.TrimSpace(step.Status)))
		if !status.Valid() {
			status = models.StepStatusPending
		}
		analysis.InvestigationSteps = append(analysis.InvestigationSteps, models.InvestigationStep{
			ID:                 fmt.Sprintf("step_%d", i+1),
			Title:              strings.TrimSpace(step.Title),
			Description:        strings.TrimSpace(step.Description),
			Status:             status,
			Timeline:           strings.TrimSpace(step.Timeline),
			ResponsibleOfficer: strings.TrimSpace(step.ResponsibleOfficer),
		})
	}

	for i, alert := range payload.ComplianceAlerts {
		analysis.ComplianceAlerts = append(analysis.ComplianceAlerts, models.ComplianceAlert{
			ID:          fmt.Sprintf("alert_%d", i+1),
			Title:       strings.TrimSpace(alert.Title),
			Description: strings.TrimSpace(alert.Description),
			Section:     strings.TrimSpace(alert.Section),
			Timeline:    strings.TrimSpace(alert.Timeline),
			Priority:    InferPriority(alert.Title, alert.Description),
		})
	}

	for _, guidance := range payload.JudicialGuidance {
		if guidance.KeyPoints == nil {
			guidance.KeyPoints = []string{}
		}
		if guidance.Tags == nil {
			guidance.Tags = []string{}
		}
		analysis.JudicialGuidance = append(analysis.JudicialGuidance, guidance)
	}

	labels := analysis.SectionLabels()
	drafts := map[models.DocumentType]string{
		models.DocumentTypeFIR:         payload.Drafts.FIR,
		models.DocumentTypeChargesheet: payload.Drafts.Chargesheet,
	}
	for docType, content := range drafts {
		if strings.TrimSpace(content) == "" {
			continue
		}
		analysis.SetDocument(&models.Document{
			Type:          docType,
			Content:       content,
			CaseReference: caseID,
			GeneratedAt:   now,
			Sections:      labels,
		})
	}

	analysis.RecomputeComplianceScore()
	return analysis
}

// normalizeSections canonicalizes act names, fills missing titles from the legal table and drops duplicates.
func (s *Service) normalizeSections(sections []models.ApplicableSection) []models.ApplicableSection {
	out := make([]models.ApplicableSection, 0, len(sections))
	seen := make(map[string]struct{}, len(sections))
	for _, section := range sections {
		section.Act = s.legal.CanonicalAct(strings.TrimSpace(section.Act))
		section.Section = strings.TrimSpace(section.Section)
		key := strings.ToLower(section.Act + " " + section.Section)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if section.Title == "" {
			if known, ok := s.legal.Lookup(section.Act, section.Section); ok {
				section.Title = known.Title
			}
		}
		if section.Tags == nil {
			section.Tags = []string{}
		}
		out = append(out, section)
	}
	return out
}
