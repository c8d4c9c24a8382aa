package reference_test

import (
	"context"
	"github.com/jung-kurt/gofpdf"
	"github.com/myrjola/casefile/internal/reference"
	"github.com/stretchr/testify/require"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFileExtractor(t *testing.T) {
	ctx := context.Background()
	var extractor reference.FileExtractor

	t.Run("plain text", func(t *testing.T) {
		path := writeFile(t, "crpc.txt", "Section 154\nInformation in cognizable cases.")
		text, err := extractor.ExtractText(ctx, path)
		require.NoError(t, err)
		require.Equal(t, "Section 154\nInformation in cognizable cases.", text)
	})

	t.Run("html keeps visible text line by line", func(t *testing.T) {
		path := writeFile(t, "guide.html", `<html><head><style>p { color: red }</style></head>
<body>
<h1>FIR drafting</h1>
<script>alert("x")</script>
<p>Record the   information
verbatim.</p>
</body></html>`)
		text, err := extractor.ExtractText(ctx, path)
		require.NoError(t, err)
		require.Equal(t, "FIR drafting\nRecord the information\nverbatim.", text)
	})

	t.Run("pdf", func(t *testing.T) {
		pdf := gofpdf.New("P", "mm", "A4", "")
		pdf.AddPage()
		pdf.SetFont("Helvetica", "", 12)
		pdf.Cell(0, 10, "Chargesheet")
		pdf.Ln(12)
		pdf.Cell(0, 10, "Evidence")
		path := filepath.Join(t.TempDir(), "guide.pdf")
		require.NoError(t, pdf.OutputFileAndClose(path))

		text, err := extractor.ExtractText(ctx, path)
		require.NoError(t, err)
		require.Contains(t, text, "Chargesheet")
		require.Contains(t, text, "Evidence")
	})

	t.Run("malformed pdf", func(t *testing.T) {
		path := writeFile(t, "broken.pdf", "definitely not a pdf")
		_, err := extractor.ExtractText(ctx, path)
		require.Error(t, err)
		require.NotErrorIs(t, err, fs.ErrNotExist)
	})

	for _, name := range []string{"missing.pdf", "missing.html", "missing.txt"} {
		t.Run(name, func(t *testing.T) {
			_, err := extractor.ExtractText(ctx, filepath.Join(t.TempDir(), name))
			require.ErrorIs(t, err, fs.ErrNotExist)
		})
	}

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := extractor.ExtractText(cancelled, writeFile(t, "a.txt", "a"))
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestCachedExtractor(t *testing.T) {
	ctx := context.Background()
	inner := &fakeExtractor{texts: map[string]string{"manual.pdf": "manual text"}}
	cached := reference.NewCachedExtractor(inner, time.Minute)

	for range 3 {
		text, err := cached.ExtractText(ctx, "manual.pdf")
		require.NoError(t, err)
		require.Equal(t, "manual text", text)
	}
	for range 2 {
		_, err := cached.ExtractText(ctx, "missing.pdf")
		require.ErrorIs(t, err, fs.ErrNotExist)
	}

	require.Equal(t, map[string]int{"manual.pdf": 1, "missing.pdf": 2}, inner.calls)
}
