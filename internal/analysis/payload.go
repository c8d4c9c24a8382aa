package analysis

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/models"
	"github.com/xeipuuv/gojsonschema"
	"log/slog"
	"strings"
)

var (
	//go:embed schemas/questions.json
	questionsSchemaJSON string
	//go:embed schemas/analysis.json
	analysisSchemaJSON string
	//go:embed schemas/document.json
	documentSchemaJSON string

	questionsSchema = mustSchema(questionsSchemaJSON)
	analysisSchema  = mustSchema(analysisSchemaJSON)
	documentSchema  = mustSchema(documentSchemaJSON)
)

// maxViolations caps how many schema violations end up in the error attrs.
const maxViolations = 5

func mustSchema(source string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		panic(fmt.Sprintf("compile embedded schema: %v", err))
	}
	return schema
}

// firstBalanced returns the first substring of s that starts with opening and ends with the matching closing byte.
// Brackets inside JSON string literals are ignored. When an opening bracket is never closed the scan restarts at the
// next one.
func firstBalanced(s string, opening, closing byte) (string, bool) {
	start := strings.IndexByte(s, opening)
	for start >= 0 {
		if end, ok := matchingClose(s, start, opening, closing); ok {
			return s[start : end+1], true
		}
		next := strings.IndexByte(s[start+1:], opening)
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

func matchingClose(s string, start int, opening, closing byte) (int, bool) {
	var (
		depth    int
		inString bool
		escaped  bool
	)
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case opening:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// locatePayload finds the JSON payload in a free-form response and validates it against schema.
func locatePayload(response string, opening, closing byte, schema *gojsonschema.Schema) (string, error) {
	candidate, ok := firstBalanced(response, opening, closing)
	if !ok {
		return "", errors.Wrap(models.ErrUpstreamParse, "no JSON payload in response",
			slog.Int("response_chars", len(response)))
	}
	result, err := schema.Validate(gojsonschema.NewStringLoader(candidate))
	if err != nil {
		return "", errors.Wrap(models.Classify(models.ErrUpstreamParse, err), "read JSON payload")
	}
	if !result.Valid() {
		var violations []string
		for i, violation := range result.Errors() {
			if i == maxViolations {
				break
			}
			violations = append(violations, violation.String())
		}
		return "", errors.Wrap(models.ErrUpstreamParse, "payload does not match schema",
			slog.Any("violations", violations))
	}
	return candidate, nil
}

// decodePayload locates, validates and decodes the payload of response into v.
func decodePayload(response string, opening, closing byte, schema *gojsonschema.Schema, v any) error {
	candidate, err := locatePayload(response, opening, closing, schema)
	if err != nil {
		return err
	}
	if err = json.Unmarshal([]byte(candidate), v); err != nil {
		return errors.Wrap(models.Classify(models.ErrUpstreamParse, err), "decode JSON payload")
	}
	return nil
}
