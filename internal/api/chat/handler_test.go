package chat_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theakash04/termify/internal/api"
	"github.com/theakash04/termify/internal/api/chat"
	"github.com/theakash04/termify/internal/chunker"
	"github.com/theakash04/termify/internal/entity"
	"github.com/theakash04/termify/internal/extractor"
	"github.com/theakash04/termify/internal/generation"
	"github.com/theakash04/termify/internal/index"
	"github.com/theakash04/termify/internal/retrieval"
	"github.com/theakash04/termify/internal/summary"
	"github.com/theakash04/termify/internal/tenant"
	"github.com/theakash04/termify/internal/usecase/ingest"
	"github.com/theakash04/termify/internal/usecase/query"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*httptest.Server, *index.MockService) {
	t.Helper()

	svc := index.NewMockService()
	require.NoError(t, svc.AppendRecords(context.Background(), "shared", "chunks", []entity.ChunkRecord{
		{Name: "faq", Data: "refunds are processed within 30 days"},
	}))

	gen := generation.NewMockService()
	tenants := tenant.NewManager(svc, nil)
	reg := extractor.DefaultRegistry()
	pipeline := ingest.NewPipeline(reg, chunker.NewSplitter(200, 20, nil))

	sessions := query.NewStore(time.Minute, time.Minute, func(s *query.Session) {
		if s.Tenant != nil {
			tenants.Teardown(context.Background(), s.Tenant)
		}
	})

	orch := query.NewOrchestrator(
		sessions,
		tenants,
		retrieval.NewClient(svc, "shared", "shared_search", 5),
		gen,
		summary.NewSummarizer(gen, 50),
		ingest.NewTenantProcessor(pipeline, tenants),
	)

	router := api.NewRouter(zap.NewNop(), chat.NewHandler(orch, 1<<20))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, svc
}

func startSession(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/v1/sessions", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body entity.StartSessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.SessionID)
	return body.SessionID
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)
	id := startSession(t, srv)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/sessions/"+id, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Deleting again is a 404
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestQueryOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)
	id := startSession(t, srv)

	body, _ := json.Marshal(entity.QueryRequest{Question: "how do refunds work"})
	resp, err := http.Post(srv.URL+"/api/v1/sessions/"+id+"/query", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var qr entity.QueryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&qr))
	assert.Equal(t, "mock answer", qr.Answer)
}

func TestQueryOverHTTP_EmptyQuestion(t *testing.T) {
	srv, _ := newTestServer(t)
	id := startSession(t, srv)

	body, _ := json.Marshal(entity.QueryRequest{Question: "  "})
	resp, err := http.Post(srv.URL+"/api/v1/sessions/"+id+"/query", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQueryOverHTTP_UnknownSessionStillAnswers(t *testing.T) {
	srv, _ := newTestServer(t)

	body, _ := json.Marshal(entity.QueryRequest{Question: "hello"})
	resp, err := http.Post(srv.URL+"/api/v1/sessions/missing/query", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var qr entity.QueryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&qr))
	assert.Equal(t, query.DegradedMessage, qr.Answer)
}

func TestUploadDocumentOverHTTP(t *testing.T) {
	srv, svc := newTestServer(t)
	id := startSession(t, srv)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "contract.json")
	require.NoError(t, err)
	_, err = fw.Write([]byte(`{"clause": "Refunds apply within 30 days of purchase."}`))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/v1/sessions/"+id+"/documents", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var up entity.UploadDocumentResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&up))
	assert.True(t, strings.HasPrefix(up.Namespace, "user_"))
	assert.Greater(t, up.Chunks, 0)
	assert.Equal(t, up.Chunks, svc.RecordCount(up.Namespace))
}

func TestUploadDocumentOverHTTP_UnsupportedType(t *testing.T) {
	srv, _ := newTestServer(t)
	id := startSession(t, srv)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("plain text"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/v1/sessions/"+id+"/documents", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestUploadDocumentOverHTTP_MissingFileField(t *testing.T) {
	srv, _ := newTestServer(t)
	id := startSession(t, srv)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/v1/sessions/"+id+"/documents", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
