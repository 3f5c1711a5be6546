package query

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theakash04/termify/internal/entity"
	"github.com/theakash04/termify/internal/generation"
	"github.com/theakash04/termify/internal/index"
	"github.com/theakash04/termify/internal/retrieval"
	"github.com/theakash04/termify/internal/summary"
	"github.com/theakash04/termify/internal/tenant"
)

type fixture struct {
	orch    *Orchestrator
	svc     *index.MockService
	gen     *generation.MockService
	tenants *tenant.Manager
	store   *Store
}

// chunkIngestor loads one fixed chunk per call, standing in for the full
// extract-and-chunk pipeline.
type chunkIngestor struct {
	tenants *tenant.Manager
}

func (i *chunkIngestor) Process(ctx context.Context, t *entity.Tenant, sourceRef, label string) (int, error) {
	chunks := []entity.Chunk{{Text: "the uploaded contract covers refunds", SourceLabel: label}}
	if err := i.tenants.Ingest(ctx, t, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

func newFixture(t *testing.T, ttl time.Duration) *fixture {
	t.Helper()

	svc := index.NewMockService()
	require.NoError(t, svc.AppendRecords(context.Background(), "shared", "chunks", []entity.ChunkRecord{
		{Name: "faq", Data: "refunds are processed within 30 days"},
		{Name: "faq", Data: "shipping takes two weeks"},
	}))

	gen := generation.NewMockService()
	tenants := tenant.NewManager(svc, nil)

	store := NewStore(ttl, 20*time.Millisecond, func(s *Session) {
		if s.Tenant != nil {
			tenants.Teardown(context.Background(), s.Tenant)
		}
	})

	orch := NewOrchestrator(
		store,
		tenants,
		retrieval.NewClient(svc, "shared", "shared_search", 5),
		gen,
		summary.NewSummarizer(gen, 50),
		&chunkIngestor{tenants: tenants},
	)

	return &fixture{orch: orch, svc: svc, gen: gen, tenants: tenants, store: store}
}

func TestQuery_HappyPath(t *testing.T) {
	f := newFixture(t, time.Minute)
	id := f.orch.StartSession(context.Background())

	answer, err := f.orch.Query(context.Background(), id, "how do refunds work", false)
	require.NoError(t, err)
	assert.Equal(t, "mock answer", answer)

	// The prompt carried retrieved context
	require.Len(t, f.gen.Prompts, 1)
	assert.Contains(t, f.gen.Prompts[0], "refunds are processed within 30 days")

	// Summary was updated
	s, ok := f.store.Get(id)
	require.True(t, ok)
	assert.NotEmpty(t, s.Conversation.Summary)
	assert.Equal(t, 1, s.Conversation.Turns)
}

func TestQuery_SecondTurnCarriesSummaryNotTranscript(t *testing.T) {
	f := newFixture(t, time.Minute)
	id := f.orch.StartSession(context.Background())

	_, err := f.orch.Query(context.Background(), id, "how do refunds work", false)
	require.NoError(t, err)
	s, _ := f.store.Get(id)
	firstSummary := s.Conversation.Summary

	_, err = f.orch.Query(context.Background(), id, "and shipping?", false)
	require.NoError(t, err)

	// Second prompt includes the running summary, not the raw first turn
	require.Len(t, f.gen.Prompts, 2)
	assert.Contains(t, f.gen.Prompts[1], "Conversation so far:")
	assert.Contains(t, f.gen.Prompts[1], firstSummary)

	// The summarizer saw the prior summary and the new exchange
	require.Len(t, f.gen.Summarized, 2)
	assert.Contains(t, f.gen.Summarized[1], firstSummary)
	assert.Contains(t, f.gen.Summarized[1], "and shipping?")

	// Replaced, not appended
	s, _ = f.store.Get(id)
	assert.NotEqual(t, firstSummary, s.Conversation.Summary)
	assert.Equal(t, 2, s.Conversation.Turns)
}

func TestQuery_EmptyQuestionIsValidationError(t *testing.T) {
	f := newFixture(t, time.Minute)
	id := f.orch.StartSession(context.Background())

	_, err := f.orch.Query(context.Background(), id, "   ", false)
	assert.ErrorIs(t, err, entity.ErrMissingField)
}

func TestQuery_UnknownSessionDegrades(t *testing.T) {
	f := newFixture(t, time.Minute)

	answer, err := f.orch.Query(context.Background(), "no-such-session", "hi", false)
	require.NoError(t, err)
	assert.Equal(t, DegradedMessage, answer)
}

func TestQuery_RetrievalUnavailableDegrades(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.svc.FailSearch = true
	id := f.orch.StartSession(context.Background())

	answer, err := f.orch.Query(context.Background(), id, "refunds?", false)
	require.NoError(t, err)
	assert.Equal(t, DegradedMessage, answer)
	assert.Empty(t, f.gen.Prompts)
}

func TestQuery_GenerationFailureApologizes(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.gen.FailComplete = true
	id := f.orch.StartSession(context.Background())

	answer, err := f.orch.Query(context.Background(), id, "refunds?", false)
	require.NoError(t, err)
	assert.Equal(t, ApologyMessage, answer)

	// No summary written for a failed turn
	s, _ := f.store.Get(id)
	assert.Empty(t, s.Conversation.Summary)
}

func TestQuery_TenantWithoutUploadDegrades(t *testing.T) {
	f := newFixture(t, time.Minute)
	id := f.orch.StartSession(context.Background())

	answer, err := f.orch.Query(context.Background(), id, "refunds?", true)
	require.NoError(t, err)
	assert.Equal(t, DegradedMessage, answer)
}

func TestUploadThenTenantQuery(t *testing.T) {
	f := newFixture(t, time.Minute)
	id := f.orch.StartSession(context.Background())

	up, err := f.orch.UploadDocument(context.Background(), id, "/tmp/contract.pdf", "contract.pdf")
	require.NoError(t, err)
	assert.Equal(t, 1, up.Chunks)
	assert.True(t, strings.HasPrefix(up.Namespace, "user_"))

	answer, err := f.orch.Query(context.Background(), id, "what does the contract say about refunds", true)
	require.NoError(t, err)
	assert.Equal(t, "mock answer", answer)

	// The prompt used tenant context, not the shared index
	require.Len(t, f.gen.Prompts, 1)
	assert.Contains(t, f.gen.Prompts[0], "uploaded contract")
	assert.NotContains(t, f.gen.Prompts[0], "shipping takes two weeks")
}

func TestUpload_UnknownSession(t *testing.T) {
	f := newFixture(t, time.Minute)

	_, err := f.orch.UploadDocument(context.Background(), "nope", "/tmp/x.pdf", "x.pdf")
	assert.ErrorIs(t, err, entity.ErrSessionNotFound)
}

func TestEndSession_TearsDownTenant(t *testing.T) {
	f := newFixture(t, time.Minute)
	id := f.orch.StartSession(context.Background())

	up, err := f.orch.UploadDocument(context.Background(), id, "/tmp/contract.pdf", "contract.pdf")
	require.NoError(t, err)
	require.True(t, f.svc.HasNamespace(up.Namespace))

	require.NoError(t, f.orch.EndSession(context.Background(), id))
	assert.False(t, f.svc.HasNamespace(up.Namespace))

	assert.ErrorIs(t, f.orch.EndSession(context.Background(), id), entity.ErrSessionNotFound)
}

func TestSessionExpiry_TearsDownTenant(t *testing.T) {
	f := newFixture(t, 30*time.Millisecond)
	id := f.orch.StartSession(context.Background())

	up, err := f.orch.UploadDocument(context.Background(), id, "/tmp/contract.pdf", "contract.pdf")
	require.NoError(t, err)
	require.True(t, f.svc.HasNamespace(up.Namespace))

	assert.Eventually(t, func() bool {
		return !f.svc.HasNamespace(up.Namespace)
	}, 2*time.Second, 25*time.Millisecond)
}
