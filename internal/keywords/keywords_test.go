package keywords_test

import (
	"github.com/myrjola/casefile/internal/keywords"
	"github.com/myrjola/casefile/internal/models"
	"github.com/stretchr/testify/require"
	"testing"
)

func testConfig() keywords.Config {
	return keywords.Config{
		StopWords:         []string{"which", "there", "their", "about"},
		MinTokenLength:    5,
		MaxCaseTerms:      5,
		MinorAgeThreshold: 18,
		MinorVocabulary:   []string{"pocso", "child"},
		DigitalTriggers:   []string{"online", "cyber", "internet"},
		DigitalVocabulary: []string{"electronic record", "it act"},
		Baselines: map[keywords.Purpose][]string{
			keywords.PurposeInvestigation: {"investigation", "evidence"},
			keywords.PurposeFIR:           {"first information report", "evidence"},
		},
	}
}

func TestBuilder_Build(t *testing.T) {
	tests := []struct {
		name    string
		in      keywords.Input
		purpose keywords.Purpose
		want    []string
	}{
		{
			name:    "baseline only",
			in:      keywords.Input{},
			purpose: keywords.PurposeInvestigation,
			want:    []string{"investigation", "evidence"},
		},
		{
			name: "first five terms in document order",
			in: keywords.Input{
				Description: "The accused, Ramesh, stalked the victim near their school which upset everyone badly.",
			},
			purpose: keywords.PurposeInvestigation,
			want:    []string{"accused", "ramesh", "stalked", "victim", "school", "investigation", "evidence"},
		},
		{
			name: "minor and digital blocks",
			in: keywords.Input{
				Description: "Photos shared ONLINE",
				VictimAge:   15,
				HasAge:      true,
			},
			purpose: keywords.PurposeFIR,
			want: []string{"photos", "shared", "online", "pocso", "child", "electronic record", "it act",
				"first information report", "evidence"},
		},
		{
			name:    "adult victim gets no minor block",
			in:      keywords.Input{Description: "theft", VictimAge: 18, HasAge: true},
			purpose: keywords.PurposeFIR,
			want:    []string{"first information report", "evidence"},
		},
		{
			name:    "unknown age gets no minor block",
			in:      keywords.Input{Description: "theft"},
			purpose: keywords.PurposeFIR,
			want:    []string{"first information report", "evidence"},
		},
		{
			name:    "cited sections",
			in:      keywords.Input{CitedSections: []string{"354", "354"}},
			purpose: keywords.PurposeInvestigation,
			want:    []string{"section 354", "investigation", "evidence"},
		},
		{
			name:    "deduplicates across blocks",
			in:      keywords.Input{Description: "Evidence evidence collected"},
			purpose: keywords.PurposeInvestigation,
			want:    []string{"evidence", "collected", "investigation"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := keywords.NewBuilder(testConfig())
			require.Equal(t, tt.want, b.Build(tt.in, tt.purpose))
		})
	}
}

func TestBuilder_Stem(t *testing.T) {
	cfg := testConfig()
	cfg.Stem = true
	b := keywords.NewBuilder(cfg)

	got := b.Build(keywords.Input{Description: "harassed, stalking"}, keywords.PurposeProcedure)

	require.Equal(t, []string{"harass", "stalk"}, got)
}

func TestInputFromFacts(t *testing.T) {
	in := keywords.InputFromFacts(models.Facts{
		"description": "Cyber stalking",
		"victimAge":   float64(12),
		"sections":    "354D",
	})
	require.Equal(t, keywords.Input{
		Description:   "Cyber stalking",
		VictimAge:     12,
		HasAge:        true,
		CitedSections: []string{"354D"},
	}, in)

	flags := keywords.NewBuilder(testConfig()).Flags(in)
	require.True(t, flags.MinorVictim)
	require.True(t, flags.DigitalOffense)
}
