package analysis_test

import (
	"context"
	"github.com/myrjola/casefile/internal/analysis"
	"github.com/myrjola/casefile/internal/config"
	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/keywords"
	"github.com/myrjola/casefile/internal/legal"
	"github.com/myrjola/casefile/internal/models"
	"github.com/myrjola/casefile/internal/repositories"
	"github.com/myrjola/casefile/internal/sqlite"
	"github.com/myrjola/casefile/internal/testhelpers"
	"github.com/stretchr/testify/require"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeCompleter answers prompts with scripted responses in order and records every prompt it receives.
type fakeCompleter struct {
	mu        sync.Mutex
	responses []string
	err       error
	prompts   []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("no scripted response")
	}
	response := f.responses[0]
	f.responses = f.responses[1:]
	return response, nil
}

func (f *fakeCompleter) script(responses ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = nil
	f.responses = append(f.responses, responses...)
}

func (f *fakeCompleter) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeCompleter) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

type staticLoader map[string]string

func (l staticLoader) Load(context.Context) (map[string]string, error) {
	texts := make(map[string]string, len(l))
	for k, v := range l {
		texts[k] = v
	}
	return texts, nil
}

type fixture struct {
	svc       *analysis.Service
	repo      *repositories.CaseRepository
	completer *fakeCompleter
	now       time.Time
}

func newFixture(t *testing.T, texts map[string]string) *fixture {
	t.Helper()
	logger := testhelpers.NewLogger(io.Discard)
	ctx, cancel := context.WithCancel(context.Background())
	dbs, err := sqlite.NewDatabase(ctx, ":memory:", logger)
	if err != nil {
		cancel()
		t.Fatal(err)
	}
	t.Cleanup(func() {
		cancel()
		_ = dbs.Close()
	})
	engine, err := config.LoadEngine("", t.TempDir())
	require.NoError(t, err)
	table, err := legal.Default()
	require.NoError(t, err)

	f := &fixture{
		repo:      repositories.NewCaseRepository(dbs, logger),
		completer: &fakeCompleter{},
		now:       time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
	}
	f.svc = analysis.New(analysis.Config{
		Store:           f.repo,
		Completer:       f.completer,
		References:      staticLoader(texts),
		Keywords:        keywords.NewBuilder(engine.Keywords),
		Legal:           table,
		Sources:         engine.Sources,
		RawPrefixLength: engine.RawPrefixLength,
		Logger:          logger,
		Now:             func() time.Time { return f.now },
	})
	return f
}

const questionsResponse = `Sure, here are the questions:
[
  {"category": "Incident", "question": "When did it happen?", "type": "date", "required": true},
  {"id": "q_1", "category": "Victim", "question": "How old is the victim?", "type": "dropdown"},
  {"id": "mx", "category": "Procedure", "question": "Medical exam done?", "type": "select",
   "options": ["yes", "no"], "required": true},
  {"id": "mx_where", "category": "Procedure", "question": "Where was it done?", "type": "text", "required": true,
   "dependsOn": {"questionId": "mx", "value": "yes"}},
  {"id": "orphan", "category": "Other", "question": "Anything else?", "type": "textarea",
   "dependsOn": {"questionId": "nope", "value": "yes"}}
]`

const analysisResponse = "Here is the analysis you asked for.\n```json\n" + `{
  "caseType": "Cyber stalking of a minor",
  "applicableSections": [
    {"act": "I.P.C", "section": "354D", "summary": "Repeated online contact"},
    {"act": "IPC", "section": "354D"},
    {"act": "POCSO", "section": "12", "title": "Sexual harassment of a child", "tags": ["minor"]}
  ],
  "investigationSteps": [
    {"title": "Record victim statement", "status": "completed", "timeline": "Day 1"},
    {"title": "Seize devices", "status": "done"},
    {"title": "Obtain 65B certificate"},
    {"title": "Medical examination", "status": "not-required"}
  ],
  "complianceAlerts": [
    {"title": "Record statement", "description": "Mandatory recording before a magistrate", "section": "CrPC 164"},
    {"title": "Preserve logs", "description": "Significant risk that the provider deletes them"},
    {"title": "Inform guardian", "description": "Keep the parents updated"}
  ],
  "judicialGuidance": [
    {"name": "Lalita Kumari v. Govt. of U.P.", "citation": "(2014) 2 SCC 1", "summary": "FIR registration is mandatory"}
  ],
  "drafts": {"fir": "FIRST INFORMATION REPORT\nDraft body", "chargesheet": "  "}
}` + "\n```\nLet me know {if} you need more."

var caseFacts = models.Facts{
	"description": "The accused stalked the victim online and sent threatening messages",
	"victimAge":   float64(15),
	"location":    "Sector 5",
	"sections":    []any{"IPC 354D"},
}

func referenceTexts() map[string]string {
	manual := []string{
		"Chapter 4. Receiving complaints at the police station.",
		"Record the time of arrival of every complainant in the general diary.",
		"The medical examination of the victim must be arranged without delay by the officer in charge.",
		"A woman medical officer shall conduct the examination where the victim is a woman or a child.",
		"Chapter 5. Scene of crime.",
	}
	fir := []string{
		"The informant's statement is recorded verbatim in the language of the informant.",
		"Read the statement back to the informant and obtain a signature before registering the report.",
	}
	return map[string]string{
		"investigation_manual": strings.Join(manual, "\n"),
		"criminal_procedure":   strings.Repeat("Lorem ipsum dolor sit amet, consectetur adipiscing elit.\n", 100),
		"fir_guide":            strings.Join(fir, "\n"),
	}
}

// createCase registers a case whose questions come from questionsResponse.
func (f *fixture) createCase(t *testing.T) *models.Case {
	t.Helper()
	f.completer.script(questionsResponse)
	c, err := f.svc.CreateCase(context.Background(), "inv-1", caseFacts)
	require.NoError(t, err)
	return c
}

// analyzedCase registers and analyzes a case whose analysis comes from analysisResponse.
func (f *fixture) analyzedCase(t *testing.T) *models.Case {
	t.Helper()
	c := f.createCase(t)
	f.completer.script(analysisResponse)
	_, err := f.svc.Analyze(context.Background(), c.ID)
	require.NoError(t, err)
	c, err = f.repo.Get(context.Background(), c.ID)
	require.NoError(t, err)
	return c
}
