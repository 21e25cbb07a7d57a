package document

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ifsuap/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

// buildPDF writes a pdf with one page per entry of pages, every line of a page
// is drawn below the previous one using a standard font.
func buildPDF(pages [][]string) []byte {
	var objects []string
	pageCount := len(pages)

	kids := make([]string, pageCount)
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+i*2)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pageCount),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)
	for i, lines := range pages {
		var content strings.Builder
		content.WriteString("BT /F1 12 Tf 72 720 Td 14 TL\n")
		for _, line := range lines {
			fmt.Fprintf(&content, "(%s) Tj T*\n", line)
		}
		content.WriteString("ET")

		objects = append(objects,
			fmt.Sprintf(
				"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
				5+i*2,
			),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()),
		)
	}

	var out bytes.Buffer
	out.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = out.Len()
		fmt.Fprintf(&out, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := out.Len()
	fmt.Fprintf(&out, "xref\n0 %d\n", len(objects)+1)
	out.WriteString("0000000000 65535 f \n")
	for _, offset := range offsets {
		fmt.Fprintf(&out, "%010d 00000 n \n", offset)
	}
	fmt.Fprintf(&out, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return out.Bytes()
}

func writeFile(t testing.TB, name string, contents []byte) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, contents, 0644))
	return path
}

func TestPDFReaderPages(t *testing.T) {
	path := writeFile(t, "plan.pdf", buildPDF([][]string{
		{"Plano de Ensino", "Conteudo Programatico", "Unit 1"},
		{"Unit 2", "Procedimentos Metodologicos"},
	}))

	reader := NewPDFReader(telemetry.SlogAPI{})
	pages, err := reader.Pages(path)
	require.NoError(t, err)
	require.Len(t, pages, 2)

	first := strings.Split(pages[0], "\n")
	require.Equal(t, []string{"Plano de Ensino", "Conteudo Programatico", "Unit 1"}, first)
	require.Equal(t, "Unit 2\nProcedimentos Metodologicos", pages[1])
}

func TestPDFReaderRejectsHtml(t *testing.T) {
	path := writeFile(t, "plan.pdf", []byte("<html><body>login</body></html>"))

	rec := &telemetry.Recorder{}
	_, err := NewPDFReader(rec).Pages(path)
	require.True(t, errors.Is(err, ErrNotPDF))
	require.NotEmpty(t, rec.Reports(telemetry.LEVEL_WARNING))
}

func TestPDFReaderMissingFile(t *testing.T) {
	_, err := NewPDFReader(telemetry.SlogAPI{}).Pages(filepath.Join(t.TempDir(), "none.pdf"))
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestStaticReader(t *testing.T) {
	pages, err := StaticReader{"a", "b"}.Pages("ignored")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, pages)
}
