package extractor

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/theakash04/termify/internal/entity"
)

// SourceType represents the kind of source artifact an extractor handles.
type SourceType string

const (
	SourceTypePDF     SourceType = "pdf"
	SourceTypeJSON    SourceType = "json"
	SourceTypeDocx    SourceType = "docx"
	SourceTypeUnknown SourceType = "unknown"
)

// Extractor pulls raw text out of one source artifact. Implementations
// read the source and nothing else; a missing or unreadable source is
// reported as *entity.ExtractionError so batch callers can skip the file.
type Extractor interface {
	// Extract reads the artifact at sourceRef and returns its text.
	Extract(ctx context.Context, sourceRef string) (entity.Document, error)

	// SourceType returns the artifact kind this extractor handles.
	SourceType() SourceType
}

// Registry maps source types to extractors.
type Registry struct {
	extractors map[SourceType]Extractor
}

func NewRegistry() *Registry {
	return &Registry{
		extractors: make(map[SourceType]Extractor),
	}
}

func (r *Registry) Register(e Extractor) {
	r.extractors[e.SourceType()] = e
}

func (r *Registry) Get(st SourceType) (Extractor, bool) {
	e, ok := r.extractors[st]
	return e, ok
}

// ForPath returns the extractor matching the file extension of sourceRef.
func (r *Registry) ForPath(sourceRef string) (Extractor, bool) {
	ext := strings.TrimPrefix(filepath.Ext(sourceRef), ".")
	return r.Get(SourceTypeFromExt(ext))
}

// Extract picks an extractor by extension and runs it.
func (r *Registry) Extract(ctx context.Context, sourceRef string) (entity.Document, error) {
	e, ok := r.ForPath(sourceRef)
	if !ok {
		return entity.Document{}, &entity.ExtractionError{
			SourceRef: sourceRef,
			Err:       entity.ErrInvalidParameter,
		}
	}
	return e.Extract(ctx, sourceRef)
}

// DefaultRegistry returns a registry with all extractors registered.
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	reg.Register(NewPDFExtractor())
	reg.Register(NewRecordExtractor())
	reg.Register(NewDocxExtractor())
	return reg
}

func SourceTypeFromExt(ext string) SourceType {
	switch strings.ToLower(ext) {
	case "pdf":
		return SourceTypePDF
	case "json":
		return SourceTypeJSON
	case "docx", "doc":
		return SourceTypeDocx
	default:
		return SourceTypeUnknown
	}
}
