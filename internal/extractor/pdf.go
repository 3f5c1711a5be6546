package extractor

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/theakash04/termify/internal/entity"
)

// pageSeparator joins per-page text in page order.
const pageSeparator = "\n\n"

// PDFExtractor extracts plain text from PDF files, page by page, in page
// order. Pages that cannot be parsed are skipped rather than failing the
// whole document.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

func (e *PDFExtractor) Extract(ctx context.Context, sourceRef string) (entity.Document, error) {
	data, err := os.ReadFile(sourceRef)
	if err != nil {
		return entity.Document{}, &entity.ExtractionError{SourceRef: sourceRef, Err: err}
	}

	text, err := extractPDFText(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return entity.Document{}, &entity.ExtractionError{SourceRef: sourceRef, Err: err}
	}

	return entity.Document{
		SourceRef: sourceRef,
		Text:      text,
	}, nil
}

func (e *PDFExtractor) SourceType() SourceType {
	return SourceTypePDF
}

func extractPDFText(reader io.ReaderAt, size int64) (string, error) {
	pdfReader, err := pdf.NewReader(reader, size)
	if err != nil {
		return "", err
	}

	pageCount := pdfReader.NumPage()
	var content strings.Builder

	for i := 1; i <= pageCount; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages that cannot be parsed
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if content.Len() > 0 {
			content.WriteString(pageSeparator)
		}
		content.WriteString(text)
	}

	return content.String(), nil
}
