// Package keywords derives the search keywords that drive relevance extraction from the facts of a case.
package keywords

import (
	"github.com/kljensen/snowball"
	"github.com/myrjola/casefile/internal/models"
	"strings"
	"unicode"
)

// Purpose selects the baseline vocabulary appended to every keyword set.
type Purpose string

const (
	PurposeInvestigation Purpose = "investigation"
	PurposeProcedure     Purpose = "procedure"
	PurposeFIR           Purpose = "fir"
	PurposeChargesheet   Purpose = "chargesheet"
	PurposeAnalysis      Purpose = "analysis"
)

// Config holds the vocabularies. It is loaded by the config package and handed to [NewBuilder].
type Config struct {
	StopWords         []string             `yaml:"stopWords"`
	MinTokenLength    int                  `yaml:"minTokenLength"`
	MaxCaseTerms      int                  `yaml:"maxCaseTerms"`
	MinorAgeThreshold int                  `yaml:"minorAgeThreshold"`
	MinorVocabulary   []string             `yaml:"minorVocabulary"`
	DigitalTriggers   []string             `yaml:"digitalTriggers"`
	DigitalVocabulary []string             `yaml:"digitalVocabulary"`
	Baselines         map[Purpose][]string `yaml:"baselines"`
	// Stem reduces the case terms to their English stem so that "harassed" also hits "harassment".
	Stem bool `yaml:"stem"`
}

// Input is the part of the case facts that shapes the keywords.
type Input struct {
	Description string
	VictimAge   int
	HasAge      bool
	// CitedSections are section numbers such as "376" the investigator already cited.
	CitedSections []string
}

// InputFromFacts picks the keyword input out of free-form case facts.
func InputFromFacts(facts models.Facts) Input {
	age, hasAge := facts.VictimAge()
	return Input{
		Description:   facts.Description(),
		VictimAge:     age,
		HasAge:        hasAge,
		CitedSections: facts.CitedSections(),
	}
}

// Flags are the case-type flags that decide which conditional vocabulary blocks apply.
type Flags struct {
	MinorVictim    bool
	DigitalOffense bool
}

type Builder struct {
	cfg       Config
	stopWords map[string]struct{}
}

func NewBuilder(cfg Config) *Builder {
	stopWords := make(map[string]struct{}, len(cfg.StopWords))
	for _, w := range cfg.StopWords {
		stopWords[strings.ToLower(w)] = struct{}{}
	}
	return &Builder{cfg: cfg, stopWords: stopWords}
}

// Flags derives the case-type flags from the input.
func (b *Builder) Flags(in Input) Flags {
	description := strings.ToLower(in.Description)
	digital := false
	for _, trigger := range b.cfg.DigitalTriggers {
		if trigger != "" && strings.Contains(description, strings.ToLower(trigger)) {
			digital = true
			break
		}
	}
	return Flags{
		MinorVictim:    in.HasAge && in.VictimAge < b.cfg.MinorAgeThreshold,
		DigitalOffense: digital,
	}
}

// Build returns the ordered, lowercase, deduplicated keyword set for purpose.
//
// The set starts with the first case-specific terms of the description in document order, followed by the minor
// victim and digital offense blocks when they apply, the cited sections and finally the purpose baseline. It never
// fails and falls back to the baseline alone when the facts yield nothing.
func (b *Builder) Build(in Input, purpose Purpose) []string {
	var out orderedSet
	out.add(b.caseTerms(in.Description)...)

	flags := b.Flags(in)
	if flags.MinorVictim {
		out.add(b.cfg.MinorVocabulary...)
	}
	if flags.DigitalOffense {
		out.add(b.cfg.DigitalVocabulary...)
	}
	for _, section := range in.CitedSections {
		out.add("section " + section)
	}
	out.add(b.cfg.Baselines[purpose]...)
	return out.items
}

func (b *Builder) caseTerms(description string) []string {
	var terms []string
	for _, field := range strings.Fields(description) {
		if len(terms) >= b.cfg.MaxCaseTerms {
			break
		}
		token := strings.ToLower(strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}))
		if len([]rune(token)) < b.cfg.MinTokenLength {
			continue
		}
		if _, stop := b.stopWords[token]; stop {
			continue
		}
		if b.cfg.Stem {
			if stemmed, err := snowball.Stem(token, "english", true); err == nil && stemmed != "" {
				token = stemmed
			}
		}
		terms = append(terms, token)
	}
	return terms
}

type orderedSet struct {
	items []string
	seen  map[string]struct{}
}

func (s *orderedSet) add(words ...string) {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, ok := s.seen[w]; ok {
			continue
		}
		s.seen[w] = struct{}{}
		s.items = append(s.items, w)
	}
}
