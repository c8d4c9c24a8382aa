package config_test

import (
	"github.com/myrjola/casefile/internal/config"
	"github.com/myrjola/casefile/internal/keywords"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEngine_defaults(t *testing.T) {
	engine, err := config.LoadEngine("", "/srv/reference")
	require.NoError(t, err)

	require.Equal(t, 3000, engine.RawPrefixLength)
	require.Equal(t, 5, engine.Keywords.MinTokenLength)
	require.Equal(t, 5, engine.Keywords.MaxCaseTerms)
	require.Equal(t, 18, engine.Keywords.MinorAgeThreshold)
	require.Equal(t, []string{"online", "cyber", "internet"}, engine.Keywords.DigitalTriggers)
	require.Len(t, engine.Sources, 4)

	investigation, ok := engine.Source(keywords.PurposeInvestigation)
	require.True(t, ok)
	fir, ok := engine.Source(keywords.PurposeFIR)
	require.True(t, ok)
	require.Greater(t, investigation.WindowSize, fir.WindowSize)
	require.Equal(t, "/srv/reference/investigation-manual.pdf", investigation.Path)

	_, ok = engine.Source(keywords.PurposeAnalysis)
	require.False(t, ok)
}

func TestLoadEngine_override(t *testing.T) {
	tests := []struct {
		name     string
		override string
		wantErr  bool
		check    func(t *testing.T, engine *config.Engine)
	}{
		{
			name: "partial override keeps defaults",
			override: `keywords:
  stem: true
  minorAgeThreshold: 16
sources:
  - {key: manual, path: /abs/manual.txt, purpose: investigation, windowSize: 8}
`,
			check: func(t *testing.T, engine *config.Engine) {
				require.True(t, engine.Keywords.Stem)
				require.Equal(t, 16, engine.Keywords.MinorAgeThreshold)
				require.Equal(t, 5, engine.Keywords.MaxCaseTerms)
				require.Len(t, engine.Sources, 1)
				require.Equal(t, "/abs/manual.txt", engine.Sources[0].Path)
			},
		},
		{
			name: "too many sources",
			override: `sources:
  - {key: a, path: a.pdf, purpose: fir, windowSize: 5}
  - {key: b, path: b.pdf, purpose: fir, windowSize: 5}
  - {key: c, path: c.pdf, purpose: fir, windowSize: 5}
  - {key: d, path: d.pdf, purpose: fir, windowSize: 5}
  - {key: e, path: e.pdf, purpose: fir, windowSize: 5}
`,
			wantErr: true,
		},
		{
			name:     "duplicate keys",
			override: "sources: [{key: a, path: a.pdf, purpose: fir, windowSize: 5}, {key: a, path: b.pdf, purpose: fir, windowSize: 5}]",
			wantErr:  true,
		},
		{
			name:     "unknown purpose",
			override: "sources: [{key: a, path: a.pdf, purpose: poetry, windowSize: 5}]",
			wantErr:  true,
		},
		{
			name:     "zero window",
			override: "sources: [{key: a, path: a.pdf, purpose: fir}]",
			wantErr:  true,
		},
		{
			name:     "malformed yaml",
			override: "sources: [",
			wantErr:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "engine.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.override), 0o600))

			engine, err := config.LoadEngine(path, "/srv/reference")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, engine)
		})
	}

	_, err := config.LoadEngine(filepath.Join(t.TempDir(), "missing.yaml"), "")
	require.Error(t, err)
}
