package retrieval

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/theakash04/termify/internal/entity"
	"github.com/theakash04/termify/internal/index"
	"go.uber.org/zap"
)

// Client runs ranked context lookups against the search service. It never
// returns an error: a failing search service yields an Unavailable result
// so the caller can degrade instead of crash, and zero matches yield an
// empty result so the caller can answer "I don't know".
type Client struct {
	svc              index.Service
	defaultNamespace string
	defaultService   string
	limit            int
}

func NewClient(svc index.Service, defaultNamespace, defaultService string, limit int) *Client {
	return &Client{
		svc:              svc,
		defaultNamespace: defaultNamespace,
		defaultService:   defaultService,
		limit:            limit,
	}
}

// Retrieve looks up the chunks most relevant to query in the index picked
// by sel: the shared default index, or the tenant namespace sel names.
func (c *Client) Retrieve(ctx context.Context, query string, sel entity.IndexSelector) entity.RetrievalResult {
	namespace, service := c.defaultNamespace, c.defaultService
	if sel.UseTenant {
		namespace, service = sel.Namespace, sel.ServiceName
	}

	records, err := c.svc.Search(ctx, namespace, service, query, c.limit)
	if err != nil {
		ctxzap.Extract(ctx).Warn("retrieval unavailable",
			zap.String("namespace", namespace),
			zap.String("index", service),
			zap.Error(err),
		)
		return entity.RetrievalResult{Chunks: []string{}, Unavailable: true}
	}

	chunks := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.Data == "" {
			continue
		}
		chunks = append(chunks, rec.Data)
	}

	ctxzap.Extract(ctx).Debug("retrieval complete",
		zap.String("namespace", namespace),
		zap.Int("matches", len(chunks)),
	)
	return entity.RetrievalResult{Chunks: chunks}
}
