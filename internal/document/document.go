// Package document reads the plain text of downloaded portal documents.
package document

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"ifsuap/internal/components/assert"
	"ifsuap/internal/components/telemetry"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const (
	report_pdf_validate   = "pdf.validate"
	report_pdf_read_page  = "pdf.read-page"
	report_pdf_page_count = "pdf.page-count"
)

// ErrNotPDF is returned when the file is not a readable pdf, the portal
// answers with its html login page when the session expired.
var ErrNotPDF = errors.New("document is not a valid pdf")

// Reader returns the text of every page of a document, in page order. Each
// page is its lines joined by "\n".
type Reader interface {
	Pages(path string) ([]string, error)
}

func init() {
	// pdfcpu otherwise writes its configuration into the user config dir.
	api.DisableConfigDir()
}

type PDFReader struct {
	tel telemetry.API
}

func NewPDFReader(tel telemetry.API) PDFReader {
	assert.NotNil(tel)
	return PDFReader{tel: telemetry.NewScopedAPI("document", tel)}
}

func (r PDFReader) validate(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(file, conf)
	if err != nil {
		r.tel.ReportWarning(report_pdf_validate, path, err)
		return 0, fmt.Errorf("%w: %w", ErrNotPDF, err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		r.tel.ReportWarning(report_pdf_validate, path, err)
		return 0, fmt.Errorf("%w: %w", ErrNotPDF, err)
	}
	return ctx.PageCount, nil
}

func (r PDFReader) Pages(path string) (pages []string, err error) {
	expected, err := r.validate(path)
	if err != nil {
		return nil, err
	}

	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotPDF, err)
	}
	defer file.Close()

	// the text decoder panics on some malformed content streams
	defer func() {
		if rec := recover(); rec != nil {
			r.tel.ReportBroken(report_pdf_read_page, path, rec)
			pages = nil
			err = fmt.Errorf("read %s: %v", path, rec)
		}
	}()

	total := reader.NumPage()
	if total != expected {
		r.tel.ReportWarning(report_pdf_page_count, path, expected, total)
	}

	pages = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := pageText(p)
		if err != nil {
			r.tel.ReportWarning(report_pdf_read_page, path, i, err)
			return nil, fmt.Errorf("read page %d of %s: %w", i, path, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// pageText renders a page as lines from top to bottom.
func pageText(p pdf.Page) (string, error) {
	rows, err := p.GetTextByRow()
	if err != nil {
		return "", err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Position > rows[j].Position
	})

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		var line strings.Builder
		for _, text := range row.Content {
			line.WriteString(text.S)
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n"), nil
}

// StaticReader serves fixed pages regardless of the path, it stands in for a
// real document in tests and offline runs.
type StaticReader []string

func (s StaticReader) Pages(string) ([]string, error) {
	return s, nil
}
