package reference

import (
	"context"
	"fmt"
	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"github.com/myrjola/casefile/internal/errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileExtractor reads reference documents from disk. PDFs are converted row by row so that every printed line
// becomes a text line, HTML is reduced to its visible text and everything else is read as plain text.
type FileExtractor struct{}

func (FileExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(err, "extract text")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".html", ".htm":
		return extractHTML(path)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", errors.Wrap(err, "read text file", slog.String("path", path))
		}
		return string(data), nil
	}
}

func extractPDF(path string) (_ string, err error) {
	// The pdf package panics on malformed documents.
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("malformed pdf", slog.String("path", path), slog.String("panic", fmt.Sprint(r)))
		}
	}()

	if _, err = os.Stat(path); err != nil {
		return "", errors.Wrap(err, "stat pdf", slog.String("path", path))
	}
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "open pdf", slog.String("path", path))
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, rowErr := page.GetTextByRow()
		if rowErr != nil {
			return "", errors.Wrap(rowErr, "read pdf rows", slog.String("path", path), slog.Int("page", i))
		}
		for _, row := range rows {
			for _, word := range row.Content {
				sb.WriteString(word.S)
			}
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}

func extractHTML(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "open html", slog.String("path", path))
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return "", errors.Wrap(err, "parse html", slog.String("path", path))
	}
	doc.Find("script, style, noscript").Remove()

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}
