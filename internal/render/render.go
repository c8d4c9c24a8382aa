// Package render exports drafted case documents.
package render

import (
	"github.com/jung-kurt/gofpdf"
	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/models"
	"io"
	"log/slog"
	"strings"
	"time"
)

const (
	lineHeight = 6
	timeLayout = "02 Jan 2006 15:04 MST"
)

var titles = map[models.DocumentType]string{
	models.DocumentTypeFIR:         "First Information Report",
	models.DocumentTypeChargesheet: "Chargesheet",
}

// DocumentPDF writes doc as an A4 PDF to w. The header lists the case reference, the timestamps and the applicable
// sections, followed by the document text.
func DocumentPDF(w io.Writer, doc *models.Document) error {
	if doc == nil || !doc.Type.Valid() {
		return errors.Wrap(models.ErrValidation, "nothing to render")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	title := titles[doc.Type]
	pdf.SetTitle(title, true)
	pdf.SetCreator("casefile", true)
	pdf.SetCreationDate(doc.GeneratedAt)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	header := []string{
		"Case reference: " + doc.CaseReference,
		"Generated: " + doc.GeneratedAt.Format(timeLayout),
	}
	if doc.UpdatedAt != nil {
		header = append(header, "Last edited: "+doc.UpdatedAt.Format(timeLayout))
	}
	if len(doc.Sections) > 0 {
		header = append(header, "Sections: "+strings.Join(doc.Sections, ", "))
	}
	for _, line := range header {
		pdf.MultiCell(0, lineHeight, tr(line), "", "L", false)
	}
	pdf.Ln(4)

	pdf.SetFont("Times", "", 12)
	pdf.MultiCell(0, lineHeight, tr(doc.Content), "", "L", false)

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "write pdf",
			slog.String("case_id", doc.CaseReference), slog.String("type", string(doc.Type)))
	}
	return nil
}

// FileName is the download name of a rendered document, e.g. "fir-<case>.pdf".
func FileName(doc *models.Document) string {
	return string(doc.Type) + "-" + doc.CaseReference + ".pdf"
}

// Stamp is the time shown for a document, the edit time when it was edited.
func Stamp(doc *models.Document) time.Time {
	if doc.UpdatedAt != nil {
		return *doc.UpdatedAt
	}
	return doc.GeneratedAt
}
