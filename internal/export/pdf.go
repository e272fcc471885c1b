package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

// Document is a single page metric report.
type Document struct {
	Title    string
	Subtitle string
	// Notes are printed under the subtitle, one per line.
	Notes   []string
	Metrics []Metric
}

// WritePDF renders doc as a title, subtitle and a two column Metric/Value
// table.
func WritePDF(w io.Writer, doc Document) error {
	if len(doc.Metrics) == 0 {
		return ErrEmptyInput
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("grcdesk", true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr(doc.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(90, 90, 90)
	pdf.CellFormat(0, 6, tr(doc.Subtitle), "", 1, "L", false, 0, "")
	for _, note := range doc.Notes {
		pdf.CellFormat(0, 6, tr(note), "", 1, "L", false, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	const nameWidth, valueWidth, rowHeight = 120.0, 60.0, 8.0
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(nameWidth, rowHeight, "Metric", "1", 0, "L", true, 0, "")
	pdf.CellFormat(valueWidth, rowHeight, "Value", "1", 1, "L", true, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	for _, m := range doc.Metrics {
		pdf.CellFormat(nameWidth, rowHeight, tr(m.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(valueWidth, rowHeight, tr(m.Value), "1", 1, "L", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: %w", err)
	}
	return nil
}
