package ingest

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/theakash04/termify/internal/entity"
	"github.com/theakash04/termify/internal/tenant"
	"go.uber.org/zap"
)

// TenantProcessor ingests one uploaded document into a session's private
// namespace. It is the single-document driver over the shared Pipeline.
type TenantProcessor struct {
	pipeline Pipeline
	tenants  *tenant.Manager
}

func NewTenantProcessor(pipeline Pipeline, tenants *tenant.Manager) *TenantProcessor {
	return &TenantProcessor{pipeline: pipeline, tenants: tenants}
}

// Process extracts, chunks and loads the artifact at sourceRef into the
// tenant's namespace. A document that yields no chunks is rejected with
// ErrEmptyDocument before touching the index.
func (p *TenantProcessor) Process(ctx context.Context, t *entity.Tenant, sourceRef, label string) (int, error) {
	doc, err := p.pipeline.Extract(ctx, sourceRef)
	if err != nil {
		return 0, err
	}
	doc.SourceLabel = label

	chunks := p.pipeline.Chunk(doc)
	if len(chunks) == 0 {
		return 0, entity.ErrEmptyDocument
	}

	if err := p.tenants.Ingest(ctx, t, chunks); err != nil {
		return 0, err
	}

	ctxzap.Extract(ctx).Info("document ingested into tenant namespace",
		zap.String("namespace", t.Namespace),
		zap.String("label", label),
		zap.Int("chunks", len(chunks)),
	)
	return len(chunks), nil
}
