// Package reference loads the named reference documents that ground the case analysis.
package reference

import (
	"context"
	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/keywords"
	"github.com/myrjola/casefile/internal/models"
	"io/fs"
	"log/slog"
	"time"
)

// MaxSources is the number of reference documents a deployment can configure.
const MaxSources = 4

// Source is a named reference document.
type Source struct {
	Key  string `yaml:"key"`
	Path string `yaml:"path"`
	// Purpose selects the keyword baseline used when extracting from this source.
	Purpose keywords.Purpose `yaml:"purpose"`
	// WindowSize is the number of context lines around a keyword hit.
	WindowSize int `yaml:"windowSize"`
}

// TextExtractor turns a document on disk into plain text. A missing file is reported with an error matching
// fs.ErrNotExist.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// Loader extracts the text of every configured source. It caches nothing between calls.
type Loader struct {
	sources   []Source
	extractor TextExtractor
	logger    *slog.Logger
}

func NewLoader(sources []Source, extractor TextExtractor, logger *slog.Logger) *Loader {
	return &Loader{
		sources:   sources,
		extractor: extractor,
		logger:    logger,
	}
}

// Load returns the text of each source keyed by [Source.Key]. Sources missing on disk are left out of the map.
// Any other extraction failure aborts the load with [models.ErrUpstreamCall].
func (l *Loader) Load(ctx context.Context) (map[string]string, error) {
	texts := make(map[string]string, len(l.sources))
	for _, source := range l.sources {
		start := time.Now()
		text, err := l.extractor.ExtractText(ctx, source.Path)
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.LogAttrs(ctx, slog.LevelWarn, "reference source missing",
				slog.String("source", source.Key), slog.String("path", source.Path))
			continue
		}
		if err != nil {
			return nil, errors.Wrap(models.Classify(models.ErrUpstreamCall, err), "extract reference text",
				slog.String("source", source.Key), slog.String("path", source.Path))
		}
		l.logger.LogAttrs(ctx, slog.LevelDebug, "loaded reference source",
			slog.String("source", source.Key),
			slog.Int("chars", len(text)),
			slog.Duration("duration", time.Since(start)))
		texts[source.Key] = text
	}
	return texts, nil
}
