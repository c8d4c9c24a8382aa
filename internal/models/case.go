package models

import (
	"math"
	"time"
)

// Case is one investigation file. It is created when the investigator submits the facts and mutated by answer
// submission, analysis and the later step, alert and document edits.
type Case struct {
	ID             string         `json:"id"`
	InvestigatorID string         `json:"investigatorId"`
	SubmittedAt    time.Time      `json:"submittedAt"`
	Facts          Facts          `json:"facts"`
	Questions      []Question     `json:"questions"`
	Answers        map[string]any `json:"answers"`
	Completed      bool           `json:"completed"`
	CompletedAt    *time.Time     `json:"completedAt,omitempty"`
	Analysis       *Analysis      `json:"analysis,omitempty"`
	AnalyzedAt     *time.Time     `json:"analyzedAt,omitempty"`
	// Version is bookkeeping of the case store and lives outside the record body.
	Version int64 `json:"-"`
}

type QuestionKind string

const (
	QuestionKindText     QuestionKind = "text"
	QuestionKindTextarea QuestionKind = "textarea"
	QuestionKindSelect   QuestionKind = "select"
	QuestionKindDate     QuestionKind = "date"
	QuestionKindTime     QuestionKind = "time"
	QuestionKindNumber   QuestionKind = "number"
	QuestionKindEmail    QuestionKind = "email"
	QuestionKindTel      QuestionKind = "tel"
)

func (k QuestionKind) Valid() bool {
	switch k {
	case QuestionKindText, QuestionKindTextarea, QuestionKindSelect, QuestionKindDate, QuestionKindTime,
		QuestionKindNumber, QuestionKindEmail, QuestionKindTel:
		return true
	default:
		return false
	}
}

// Question is a follow-up question generated for a case.
type Question struct {
	ID       string       `json:"id"`
	Category string       `json:"category"`
	Text     string       `json:"question"`
	Kind     QuestionKind `json:"type"`
	Options  []string     `json:"options,omitempty"`
	Required bool         `json:"required"`
	// DependsOn hides the question unless another question has been answered with the given value.
	DependsOn *Dependency `json:"dependsOn,omitempty"`
}

type Dependency struct {
	QuestionID string `json:"questionId"`
	Equals     string `json:"value"`
}

type StepStatus string

const (
	StepStatusPending     StepStatus = "pending"
	StepStatusCompleted   StepStatus = "completed"
	StepStatusNotRequired StepStatus = "not-required"
)

func (s StepStatus) Valid() bool {
	return s == StepStatusPending || s == StepStatusCompleted || s == StepStatusNotRequired
}

type AlertPriority string

const (
	AlertPriorityCritical AlertPriority = "critical"
	AlertPriorityHigh     AlertPriority = "high"
	AlertPriorityMedium   AlertPriority = "medium"
)

type DocumentType string

const (
	DocumentTypeFIR         DocumentType = "fir"
	DocumentTypeChargesheet DocumentType = "chargesheet"
)

func (d DocumentType) Valid() bool {
	return d == DocumentTypeFIR || d == DocumentTypeChargesheet
}

// Analysis is the structured legal output attached to a case.
type Analysis struct {
	// ComplianceScore is derived from the step statuses, see RecomputeComplianceScore.
	ComplianceScore    int                 `json:"complianceScore"`
	CaseType           string              `json:"caseType"`
	ApplicableSections []ApplicableSection `json:"applicableSections"`
	InvestigationSteps []InvestigationStep `json:"investigationSteps"`
	ComplianceAlerts   []ComplianceAlert   `json:"complianceAlerts"`
	JudicialGuidance   []JudicialGuidance  `json:"judicialGuidance"`
	Documents          Documents           `json:"documents"`
}

type ApplicableSection struct {
	Act     string   `json:"act"`
	Section string   `json:"section"`
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

type InvestigationStep struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Status             StepStatus `json:"status"`
	Timeline           string     `json:"timeline"`
	ResponsibleOfficer string     `json:"responsibleOfficer"`
}

type ComplianceAlert struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Section     string        `json:"section"`
	Timeline    string        `json:"timeline"`
	Priority    AlertPriority `json:"priority"`
	Resolved    bool          `json:"resolved"`
	ResolvedAt  *time.Time    `json:"resolvedAt,omitempty"`
}

type JudicialGuidance struct {
	Name      string   `json:"name"`
	Citation  string   `json:"citation"`
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"keyPoints"`
	Tags      []string `json:"tags"`
}

type Documents struct {
	FIR         *Document `json:"fir,omitempty"`
	Chargesheet *Document `json:"chargesheet,omitempty"`
}

// Document is a drafted FIR or chargesheet.
type Document struct {
	Type          DocumentType `json:"type"`
	Content       string       `json:"content"`
	CaseReference string       `json:"caseReference"`
	GeneratedAt   time.Time    `json:"generatedAt"`
	UpdatedAt     *time.Time   `json:"updatedAt,omitempty"`
	Sections      []string     `json:"sections"`
}

// RecomputeComplianceScore sets the score to the rounded percentage of completed steps. An analysis without steps
// scores zero.
func (a *Analysis) RecomputeComplianceScore() {
	if len(a.InvestigationSteps) == 0 {
		a.ComplianceScore = 0
		return
	}
	completed := 0
	for _, step := range a.InvestigationSteps {
		if step.Status == StepStatusCompleted {
			completed++
		}
	}
	a.ComplianceScore = int(math.Round(100 * float64(completed) / float64(len(a.InvestigationSteps))))
}

// Step returns the step with the given identifier or nil.
func (a *Analysis) Step(id string) *InvestigationStep {
	for i := range a.InvestigationSteps {
		if a.InvestigationSteps[i].ID == id {
			return &a.InvestigationSteps[i]
		}
	}
	return nil
}

// Alert returns the alert with the given identifier or nil.
func (a *Analysis) Alert(id string) *ComplianceAlert {
	for i := range a.ComplianceAlerts {
		if a.ComplianceAlerts[i].ID == id {
			return &a.ComplianceAlerts[i]
		}
	}
	return nil
}

func (a *Analysis) Document(docType DocumentType) *Document {
	switch docType {
	case DocumentTypeFIR:
		return a.Documents.FIR
	case DocumentTypeChargesheet:
		return a.Documents.Chargesheet
	default:
		return nil
	}
}

func (a *Analysis) SetDocument(doc *Document) {
	switch doc.Type {
	case DocumentTypeFIR:
		a.Documents.FIR = doc
	case DocumentTypeChargesheet:
		a.Documents.Chargesheet = doc
	}
}

// SectionLabels lists the applicable sections as "<act> <section>" labels.
func (a *Analysis) SectionLabels() []string {
	labels := make([]string, 0, len(a.ApplicableSections))
	for _, s := range a.ApplicableSections {
		labels = append(labels, s.Act+" "+s.Section)
	}
	return labels
}
