// Package legal holds the legal-sections reference table that grounds analysis prompts.
package legal

import (
	_ "embed"
	"encoding/json"
	"github.com/agnivade/levenshtein"
	"github.com/myrjola/casefile/internal/errors"
	"gopkg.in/yaml.v3"
	"io"
	"log/slog"
	"strings"
)

//go:embed sections.yaml
var defaultSections []byte

type Section struct {
	Act         string   `yaml:"act" json:"act"`
	Section     string   `yaml:"section" json:"section"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description" json:"description"`
	Punishment  string   `yaml:"punishment" json:"punishment"`
	Tags        []string `yaml:"tags" json:"tags"`
}

// Table is the static legal-sections reference data.
type Table struct {
	sections []Section
	acts     []string
}

// Default returns the table compiled into the binary.
func Default() (*Table, error) {
	t, err := parse(defaultSections)
	if err != nil {
		return nil, errors.Wrap(err, "parse embedded sections")
	}
	return t, nil
}

// Load reads a YAML list of sections, e.g. an operator-provided override of the embedded table.
func Load(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read sections")
	}
	return parse(data)
}

func parse(data []byte) (*Table, error) {
	var sections []Section
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return nil, errors.Wrap(err, "unmarshal sections")
	}
	t := Table{sections: sections}
	seen := make(map[string]struct{})
	for i, s := range sections {
		if s.Act == "" || s.Section == "" {
			return nil, errors.New("section without act or number", slog.Int("index", i))
		}
		if _, ok := seen[s.Act]; !ok {
			seen[s.Act] = struct{}{}
			t.acts = append(t.acts, s.Act)
		}
	}
	return &t, nil
}

// Sections returns the entries in table order.
func (t *Table) Sections() []Section {
	return t.sections
}

// Lookup finds a section by act and number. The act is matched after [Table.CanonicalAct].
func (t *Table) Lookup(act, section string) (Section, bool) {
	act = t.CanonicalAct(act)
	for _, s := range t.sections {
		if s.Act == act && strings.EqualFold(s.Section, strings.TrimSpace(section)) {
			return s, true
		}
	}
	return Section{}, false
}

// maxActDistance is the largest edit distance at which a spelling is still taken for a known act.
const maxActDistance = 2

// shortActLength is the longest squashed act name that is only matched exactly.
const shortActLength = 4

// CanonicalAct maps loose spellings of an act name such as "I.P.C" or "it act" to the spelling used in the table.
// A spelling matches when it is within maxActDistance edits and the edits touch less than half of it. Abbreviations
// of up to shortActLength letters must match exactly so that "CPC" or "CrPC" never turn into "IPC". Unknown acts are
// returned trimmed but otherwise unchanged.
func (t *Table) CanonicalAct(act string) string {
	act = strings.TrimSpace(act)
	squashed := squash(act)
	best, bestDistance := "", maxActDistance+1
	for _, known := range t.acts {
		d := levenshtein.ComputeDistance(squashed, squash(known))
		if d > 0 && len(squashed) <= shortActLength {
			continue
		}
		if d < bestDistance && 2*d < len(squashed) {
			best, bestDistance = known, d
		}
	}
	if best == "" {
		return act
	}
	return best
}

func squash(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '.' || r == ' ' || r == '-' {
			return -1
		}
		return r
	}, strings.ToLower(s))
}

// PromptJSON renders the table verbatim for embedding into prompts.
func (t *Table) PromptJSON() (string, error) {
	out, err := json.MarshalIndent(t.sections, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "marshal sections")
	}
	return string(out), nil
}
