package export

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/jung-kurt/gofpdf"
)

const unicodeFamily = "report-unicode"

// PDFExporter renders datasets into a basic tabular PDF. Without a TrueType
// font the core Arial face is used and characters outside Latin-1 print as
// "?".
type PDFExporter struct {
	fontPath string
}

// NewPDFExporter constructs a PDF exporter. fontPath may point at a UTF-8
// capable TTF file.
func NewPDFExporter(fontPath string) *PDFExporter {
	return &PDFExporter{fontPath: strings.TrimSpace(fontPath)}
}

// Render creates a PDF document with an optional title and subtitle above the
// table body.
func (e *PDFExporter) Render(data Dataset, title, subtitle string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	family, text := "Arial", func(s string) string { return tr(latin1(s)) }
	if e.fontPath != "" {
		pdf.AddUTF8Font(unicodeFamily, "", e.fontPath)
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("load pdf font: %w", err)
		}
		family, text = unicodeFamily, func(s string) string { return s }
	}
	bold := "B"
	if family == unicodeFamily {
		bold = ""
	}

	pdf.AddPage()
	if title != "" {
		pdf.SetFont(family, bold, 14)
		pdf.CellFormat(0, 10, text(title), "", 1, "C", false, 0, "")
	}
	if subtitle != "" {
		pdf.SetFont(family, "", 9)
		pdf.CellFormat(0, 6, text(subtitle), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont(family, bold, 10)
	colWidth := 190.0 / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, text(header), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(family, "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 7, text(row[header]), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func latin1(s string) string {
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxLatin1 {
			return '?'
		}
		return r
	}, s)
}
