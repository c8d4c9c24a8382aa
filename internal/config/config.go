// Package config loads the engine configuration: the keyword vocabularies and the reference sources.
package config

import (
	_ "embed"
	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/keywords"
	"github.com/myrjola/casefile/internal/reference"
	"gopkg.in/yaml.v3"
	"log/slog"
	"os"
	"path/filepath"
)

//go:embed engine.yaml
var defaultEngine []byte

var ErrInvalidConfig = errors.NewSentinel("invalid engine config")

type Engine struct {
	Keywords keywords.Config    `yaml:"keywords"`
	Sources  []reference.Source `yaml:"sources"`
	// RawPrefixLength is how much of a source is quoted verbatim when extraction found nothing.
	RawPrefixLength int `yaml:"rawPrefixLength"`
}

// LoadEngine returns the embedded defaults overlaid with the YAML file at overridePath, if given. Keys missing from
// the override keep their defaults while lists present in it replace the default lists. Relative source paths are
// resolved against referenceDir.
func LoadEngine(overridePath, referenceDir string) (*Engine, error) {
	var engine Engine
	if err := yaml.Unmarshal(defaultEngine, &engine); err != nil {
		return nil, errors.Wrap(err, "unmarshal default engine config")
	}
	if overridePath != "" {
		data, err := os.ReadFile(overridePath)
		if err != nil {
			return nil, errors.Wrap(err, "read engine config", slog.String("path", overridePath))
		}
		if err = yaml.Unmarshal(data, &engine); err != nil {
			return nil, errors.Wrap(err, "unmarshal engine config", slog.String("path", overridePath))
		}
	}
	if err := engine.validate(); err != nil {
		return nil, err
	}
	for i, source := range engine.Sources {
		if !filepath.IsAbs(source.Path) {
			engine.Sources[i].Path = filepath.Join(referenceDir, source.Path)
		}
	}
	return &engine, nil
}

func (e *Engine) validate() error {
	if len(e.Sources) > reference.MaxSources {
		return errors.Wrap(ErrInvalidConfig, "too many reference sources", slog.Int("count", len(e.Sources)))
	}
	keys := make(map[string]struct{}, len(e.Sources))
	for _, s := range e.Sources {
		if s.Key == "" || s.Path == "" {
			return errors.Wrap(ErrInvalidConfig, "source needs key and path", slog.String("key", s.Key))
		}
		if _, dup := keys[s.Key]; dup {
			return errors.Wrap(ErrInvalidConfig, "duplicate source key", slog.String("key", s.Key))
		}
		keys[s.Key] = struct{}{}
		if s.WindowSize <= 0 {
			return errors.Wrap(ErrInvalidConfig, "window size must be positive", slog.String("key", s.Key))
		}
		if _, ok := e.Keywords.Baselines[s.Purpose]; !ok {
			return errors.Wrap(ErrInvalidConfig, "source purpose has no baseline",
				slog.String("key", s.Key), slog.String("purpose", string(s.Purpose)))
		}
	}
	if e.Keywords.MinTokenLength <= 0 || e.Keywords.MaxCaseTerms <= 0 {
		return errors.Wrap(ErrInvalidConfig, "token length and case term cap must be positive")
	}
	if e.RawPrefixLength <= 0 {
		return errors.Wrap(ErrInvalidConfig, "raw prefix length must be positive")
	}
	return nil
}

// Source returns the source serving purpose.
func (e *Engine) Source(purpose keywords.Purpose) (reference.Source, bool) {
	for _, s := range e.Sources {
		if s.Purpose == purpose {
			return s, true
		}
	}
	return reference.Source{}, false
}
