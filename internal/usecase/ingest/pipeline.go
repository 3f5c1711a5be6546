package ingest

import (
	"context"

	"github.com/theakash04/termify/internal/chunker"
	"github.com/theakash04/termify/internal/entity"
	"github.com/theakash04/termify/internal/extractor"
)

// Pipeline is the shared document-processing surface both ingestion
// drivers compose: the batch folder driver and the per-tenant upload
// driver. One pipeline, two independent callers, no specialization
// hierarchy.
type Pipeline interface {
	// Extract pulls raw text out of the artifact at sourceRef.
	Extract(ctx context.Context, sourceRef string) (entity.Document, error)

	// Chunk splits a document into ordered, normalized chunks.
	Chunk(doc entity.Document) []entity.Chunk

	// Clean normalizes arbitrary text the same way chunks are normalized.
	Clean(text string) string
}

type pipeline struct {
	extractors *extractor.Registry
	splitter   *chunker.Splitter
}

func NewPipeline(extractors *extractor.Registry, splitter *chunker.Splitter) Pipeline {
	return &pipeline{extractors: extractors, splitter: splitter}
}

func (p *pipeline) Extract(ctx context.Context, sourceRef string) (entity.Document, error) {
	return p.extractors.Extract(ctx, sourceRef)
}

func (p *pipeline) Chunk(doc entity.Document) []entity.Chunk {
	return p.splitter.Split(doc.Text, doc.SourceLabel)
}

func (p *pipeline) Clean(text string) string {
	return chunker.Normalize(text)
}
