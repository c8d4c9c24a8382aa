package main

import (
	"context"
	"encoding/json"
	"github.com/myrjola/casefile/internal/e2etest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

const questionsPayload = `[
  {"id": "when", "category": "Incident", "question": "When did it happen?", "type": "date", "required": true},
  {"id": "known", "category": "Accused", "question": "Is the accused known?", "type": "select",
   "options": ["yes", "no"], "required": true},
  {"id": "who", "category": "Accused", "question": "Who is the accused?", "type": "text", "required": true,
   "dependsOn": {"questionId": "known", "value": "yes"}}
]`

const analysisPayload = `{
  "caseType": "Theft",
  "applicableSections": [{"act": "IPC", "section": "379", "summary": "Theft of a phone"}],
  "investigationSteps": [
    {"title": "Record complainant statement"},
    {"title": "Collect CCTV footage"}
  ],
  "complianceAlerts": [
    {"title": "Register FIR", "description": "Mandatory registration of a cognizable offence"}
  ],
  "judicialGuidance": []
}`

// fakeOpenAI answers chat completions like the OpenAI API. The answer is picked by the kind of prompt. Prompts
// mentioning "upstream-down" fail with a server error.
type fakeOpenAI struct {
	server *httptest.Server
	calls  atomic.Int32
}

func newFakeOpenAI(t *testing.T) *fakeOpenAI {
	t.Helper()
	f := &fakeOpenAI{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) || !assert.NotEmpty(t, req.Messages) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		prompt := req.Messages[0].Content
		if strings.Contains(prompt, "upstream-down") {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
			return
		}

		var content string
		switch {
		case strings.Contains(prompt, "follow-up questions the investigator must answer"):
			content = questionsPayload
		case strings.Contains(prompt, "You are a legal assistant"):
			content = "```json\n" + analysisPayload + "\n```"
		case strings.Contains(prompt, `Set "documentType" to "chargesheet"`):
			content = `{"documentType": "chargesheet", "content": "CHARGESHEET\nAccused: unknown"}`
		case strings.Contains(prompt, `Set "documentType" to "fir"`):
			content = `{"documentType": "fir", "content": "FIRST INFORMATION REPORT\nTheft of a phone"}`
		default:
			content = "I don't know."
		}
		body, err := json.Marshal(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 0,
			"model":   "test",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
			"usage": map[string]int{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
		})
		assert.NoError(t, err)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(f.server.Close)
	return f
}

// testEnv returns a lookupEnv for a server with an in-memory database, the fake reasoning service and reference
// sources written to a temporary directory.
func testEnv(t *testing.T, openAI *fakeOpenAI) func(string) (string, bool) {
	t.Helper()
	dir := t.TempDir()
	manual := strings.Repeat("Theft cases need the complainant statement and the CCTV footage of the scene.\n", 3)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manual.txt"), []byte(manual), 0o600))
	fir := `<html><body><h1>FIR drafting</h1>
<p>Record the informant's statement in the first information report verbatim, in the informant's own words.</p>
<script>ignored()</script></body></html>`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fir.html"), []byte(fir), 0o600))
	engine := `sources:
  - key: investigation_manual
    path: manual.txt
    purpose: investigation
    windowSize: 10
  - key: fir_guide
    path: fir.html
    purpose: fir
    windowSize: 5
  - key: chargesheet_guide
    path: missing.pdf
    purpose: chargesheet
    windowSize: 5
`
	enginePath := filepath.Join(dir, "engine.yaml")
	require.NoError(t, os.WriteFile(enginePath, []byte(engine), 0o600))

	env := map[string]string{
		"CASEFILE_ADDR":                "localhost:0",
		"CASEFILE_SQLITE_URL":          ":memory:",
		"OPENAI_API_KEY":               "test-key",
		"CASEFILE_OPENAI_BASE_URL":     openAI.server.URL + "/v1",
		"CASEFILE_REFERENCE_DIR":       dir,
		"CASEFILE_ENGINE_CONFIG":       enginePath,
		"CASEFILE_REFERENCE_CACHE_TTL": "1m",
	}
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

// startTestServer starts the server and returns it together with its fake reasoning service.
func startTestServer(t *testing.T) (*e2etest.Server, *fakeOpenAI) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	openAI := newFakeOpenAI(t)
	server, err := e2etest.StartServer(ctx, io.Discard, testEnv(t, openAI), run)
	require.NoError(t, err)
	return server, openAI
}

// newInvestigator registers a fresh investigator against server.
func newInvestigator(t *testing.T, server *e2etest.Server) *e2etest.Client {
	t.Helper()
	client, err := e2etest.NewClient(server.URL(), "localhost", "http://localhost:0")
	require.NoError(t, err)
	require.NoError(t, client.Register(context.Background()))
	return client
}
