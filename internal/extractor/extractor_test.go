package extractor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theakash04/termify/internal/entity"
)

func writePDF(t *testing.T, pages ...string) string {
	t.Helper()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	for _, page := range pages {
		pdf.AddPage()
		pdf.MultiCell(190, 8, page, "", "L", false)
	}

	path := filepath.Join(t.TempDir(), "fixture.pdf")
	require.NoError(t, pdf.OutputFileAndClose(path))
	return path
}

func TestPDFExtractor_PageOrderPreserved(t *testing.T) {
	path := writePDF(t, "first page content", "second page content", "third page content")

	doc, err := NewPDFExtractor().Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, path, doc.SourceRef)
	first := indexOf(doc.Text, "first page")
	second := indexOf(doc.Text, "second page")
	third := indexOf(doc.Text, "third page")
	require.GreaterOrEqual(t, first, 0)
	assert.Greater(t, second, first)
	assert.Greater(t, third, second)
}

func TestPDFExtractor_MissingFile(t *testing.T) {
	_, err := NewPDFExtractor().Extract(context.Background(), "/nonexistent/file.pdf")

	var extErr *entity.ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, "/nonexistent/file.pdf", extErr.SourceRef)
}

func TestPDFExtractor_GarbageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf"), 0o644))

	_, err := NewPDFExtractor().Extract(context.Background(), path)

	var extErr *entity.ExtractionError
	assert.ErrorAs(t, err, &extErr)
}

func TestRecordExtractor_FlattensAllMappingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "record.json")
	content := `{
		"question": "How do refunds work?",
		"answer": "Within 30 days.",
		"tags": ["billing", "refunds"],
		"meta": {"views": 42, "draft": null}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	doc, err := NewRecordExtractor().Extract(context.Background(), path)
	require.NoError(t, err)

	// Every value survives, in sorted key order
	assert.Contains(t, doc.Text, "Within 30 days.")
	assert.Contains(t, doc.Text, "How do refunds work?")
	assert.Contains(t, doc.Text, "billing")
	assert.Contains(t, doc.Text, "refunds")
	assert.Contains(t, doc.Text, "42")
	assert.Less(t, indexOf(doc.Text, "Within 30 days."), indexOf(doc.Text, "How do refunds work?"))
}

func TestRecordExtractor_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o644))

	_, err := NewRecordExtractor().Extract(context.Background(), path)

	var extErr *entity.ExtractionError
	assert.ErrorAs(t, err, &extErr)
}

func TestRegistry_DispatchByExtension(t *testing.T) {
	reg := DefaultRegistry()

	tests := []struct {
		path string
		want SourceType
		ok   bool
	}{
		{"doc.pdf", SourceTypePDF, true},
		{"doc.PDF", SourceTypePDF, true},
		{"faq.json", SourceTypeJSON, true},
		{"report.docx", SourceTypeDocx, true},
		{"notes.txt", SourceTypeUnknown, false},
	}

	for _, tt := range tests {
		e, ok := reg.ForPath(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		if ok {
			assert.Equal(t, tt.want, e.SourceType(), tt.path)
		}
	}
}

func TestRegistry_ExtractUnknownType(t *testing.T) {
	_, err := DefaultRegistry().Extract(context.Background(), "notes.txt")

	var extErr *entity.ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.ErrorIs(t, err, entity.ErrInvalidParameter)
}

func indexOf(s, sub string) int {
	return strings.Index(s, sub)
}
