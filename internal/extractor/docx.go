package extractor

import (
	"context"
	"strings"

	"github.com/theakash04/termify/internal/entity"
	"github.com/unidoc/unioffice/document"
)

// DocxExtractor extracts paragraph text from DOCX files in document order.
type DocxExtractor struct{}

func NewDocxExtractor() *DocxExtractor {
	return &DocxExtractor{}
}

func (e *DocxExtractor) Extract(ctx context.Context, sourceRef string) (entity.Document, error) {
	doc, err := document.Open(sourceRef)
	if err != nil {
		return entity.Document{}, &entity.ExtractionError{SourceRef: sourceRef, Err: err}
	}
	defer doc.Close()

	var content strings.Builder
	for _, para := range doc.Paragraphs() {
		var line strings.Builder
		for _, run := range para.Runs() {
			line.WriteString(run.Text())
		}

		text := strings.TrimSpace(line.String())
		if text == "" {
			continue
		}

		if content.Len() > 0 {
			content.WriteString("\n\n")
		}
		content.WriteString(text)
	}

	return entity.Document{
		SourceRef: sourceRef,
		Text:      content.String(),
	}, nil
}

func (e *DocxExtractor) SourceType() SourceType {
	return SourceTypeDocx
}
