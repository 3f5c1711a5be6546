package query

import (
	"context"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/theakash04/termify/internal/entity"
	"github.com/theakash04/termify/internal/generation"
	"github.com/theakash04/termify/internal/pkg/logger"
	"github.com/theakash04/termify/internal/prompt"
	"go.uber.org/zap"
)

// Fixed user-facing texts for degraded turns. The query loop never
// surfaces raw errors to the user.
const (
	// DegradedMessage is returned when the session or its index is not in
	// a queryable state, or retrieval is unavailable.
	DegradedMessage = "Something unexpected happened. Contact customer support."

	// ApologyMessage is returned when answer generation fails.
	ApologyMessage = "I'm sorry, I couldn't come up with an answer just now. Please try asking again."
)

// TenantManager is the slice of the tenant lifecycle the query loop needs.
type TenantManager interface {
	Provision(ctx context.Context) (*entity.Tenant, error)
	Teardown(ctx context.Context, t *entity.Tenant) entity.TeardownResult
	Selector(t *entity.Tenant) (entity.IndexSelector, error)
}

// Retriever looks up context chunks for a question.
type Retriever interface {
	Retrieve(ctx context.Context, query string, sel entity.IndexSelector) entity.RetrievalResult
}

// Summarizer folds one exchange into the running conversation summary.
type Summarizer interface {
	Summarize(ctx context.Context, prior, question, answer string) (string, error)
}

// DocumentIngestor loads one source file into a tenant's namespace and
// returns the number of chunks ingested.
type DocumentIngestor interface {
	Process(ctx context.Context, t *entity.Tenant, sourceRef, label string) (int, error)
}

// Orchestrator runs the conversational query loop and owns session
// lifecycle. Every public method returns well-formed user-facing output;
// infrastructure failures degrade to fixed texts and are only visible in
// logs.
type Orchestrator struct {
	sessions   *Store
	tenants    TenantManager
	retriever  Retriever
	gen        generation.Service
	summarizer Summarizer
	ingestor   DocumentIngestor
}

func NewOrchestrator(
	sessions *Store,
	tenants TenantManager,
	retriever Retriever,
	gen generation.Service,
	summarizer Summarizer,
	ingestor DocumentIngestor,
) *Orchestrator {
	return &Orchestrator{
		sessions:   sessions,
		tenants:    tenants,
		retriever:  retriever,
		gen:        gen,
		summarizer: summarizer,
		ingestor:   ingestor,
	}
}

// StartSession opens a new conversation and returns its id.
func (o *Orchestrator) StartSession(ctx context.Context) string {
	s := o.sessions.Create()
	ctxzap.Extract(ctx).Info("session started", zap.String("session_id", s.ID))
	return s.ID
}

// EndSession closes a conversation. Tenant cleanup happens through the
// store's eviction hook.
func (o *Orchestrator) EndSession(ctx context.Context, sessionID string) error {
	if !o.sessions.Delete(sessionID) {
		return entity.ErrSessionNotFound
	}
	ctxzap.Extract(ctx).Info("session ended", zap.String("session_id", sessionID))
	return nil
}

// UploadDocument ingests one source file into the session's private
// namespace, provisioning it on first upload.
func (o *Orchestrator) UploadDocument(ctx context.Context, sessionID, sourceRef, label string) (entity.UploadDocumentResponse, error) {
	ctx = logger.WithAction(ctx, "upload_document")

	s, ok := o.sessions.Get(sessionID)
	if !ok {
		return entity.UploadDocumentResponse{}, entity.ErrSessionNotFound
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()

	if s.Tenant == nil || s.Tenant.State == entity.TenantTornDown {
		t, err := o.tenants.Provision(ctx)
		if err != nil {
			return entity.UploadDocumentResponse{}, err
		}
		s.Tenant = t
	}

	chunks, err := o.ingestor.Process(ctx, s.Tenant, sourceRef, label)
	if err != nil {
		return entity.UploadDocumentResponse{}, err
	}

	return entity.UploadDocumentResponse{
		Namespace:   s.Tenant.Namespace,
		ServiceName: s.Tenant.ServiceName,
		Chunks:      chunks,
	}, nil
}

// Query answers one question within a session. Turns on the same session
// are serialized; the returned text is always safe to show the user.
func (o *Orchestrator) Query(ctx context.Context, sessionID, question string, useTenant bool) (string, error) {
	ctx = logger.WithAction(ctx, "query")
	log := ctxzap.Extract(ctx)

	if strings.TrimSpace(question) == "" {
		return "", entity.ErrMissingField
	}

	s, ok := o.sessions.Get(sessionID)
	if !ok {
		log.Warn("query on unknown session", zap.String("session_id", sessionID))
		return DegradedMessage, nil
	}

	s.Mu.Lock()
	defer s.Mu.Unlock()

	sel := entity.IndexSelector{}
	if useTenant {
		var err error
		sel, err = o.tenants.Selector(s.Tenant)
		if err != nil {
			log.Warn("tenant index not queryable",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
			return DegradedMessage, nil
		}
	}

	res := o.retriever.Retrieve(ctx, question, sel)
	if res.Unavailable {
		return DegradedMessage, nil
	}

	p := prompt.Build(question, res.Chunks, s.Conversation.Summary)

	answer, err := o.gen.Complete(ctx, p)
	if err != nil {
		log.Error("answer generation failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return ApologyMessage, nil
	}

	o.updateSummary(ctx, s, question, answer)
	return answer, nil
}

// updateSummary folds the exchange into the running summary. A failed
// summarization keeps the prior summary; the turn still succeeds.
func (o *Orchestrator) updateSummary(ctx context.Context, s *Session, question, answer string) {
	next, err := o.summarizer.Summarize(ctx, s.Conversation.Summary, question, answer)
	if err != nil {
		ctxzap.Extract(ctx).Warn("summary update failed, keeping prior summary",
			zap.String("session_id", s.ID),
			zap.Error(err),
		)
		s.Conversation.Turns++
		return
	}

	s.Conversation.Summary = next
	s.Conversation.Turns++
}
