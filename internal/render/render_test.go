package render_test

import (
	"bytes"
	"context"
	"github.com/myrjola/casefile/internal/models"
	"github.com/myrjola/casefile/internal/reference"
	"github.com/myrjola/casefile/internal/render"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDocumentPDF(t *testing.T) {
	generated := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	edited := generated.Add(2 * time.Hour)
	doc := &models.Document{
		Type:          models.DocumentTypeFIR,
		Content:       "Complainant reports repeated messages from the accused.\nStatement recorded at the station.",
		CaseReference: "0190a6f2-case",
		GeneratedAt:   generated,
		UpdatedAt:     &edited,
		Sections:      []string{"IPC 354D", "IT Act 67"},
	}

	var buf bytes.Buffer
	require.NoError(t, render.DocumentPDF(&buf, doc))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	path := filepath.Join(t.TempDir(), render.FileName(doc))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	text, err := reference.FileExtractor{}.ExtractText(context.Background(), path)
	require.NoError(t, err)
	require.Contains(t, text, "First Information Report")
	require.Contains(t, text, "0190a6f2-case")
	require.Contains(t, text, "IPC 354D, IT Act 67")
	require.Contains(t, text, "repeated messages")
}

func TestDocumentPDF_invalid(t *testing.T) {
	var buf bytes.Buffer
	require.ErrorIs(t, render.DocumentPDF(&buf, nil), models.ErrValidation)
	require.ErrorIs(t, render.DocumentPDF(&buf, &models.Document{Type: "memo"}), models.ErrValidation)
	require.Zero(t, buf.Len())
}

func TestFileNameAndStamp(t *testing.T) {
	generated := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	doc := &models.Document{Type: models.DocumentTypeChargesheet, CaseReference: "c1", GeneratedAt: generated}
	require.Equal(t, "chargesheet-c1.pdf", render.FileName(doc))
	require.Equal(t, generated, render.Stamp(doc))

	edited := generated.Add(time.Hour)
	doc.UpdatedAt = &edited
	require.Equal(t, edited, render.Stamp(doc))
}
