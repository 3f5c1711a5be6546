package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/theakash04/termify/internal/entity"
	"github.com/theakash04/termify/internal/pkg/logger"
	"github.com/theakash04/termify/internal/pkg/response"
	"go.uber.org/zap"
)

type Handler struct {
	usecase     ChatUsecase
	maxFileSize int64
}

func NewHandler(usecase ChatUsecase, maxFileSize int64) *Handler {
	return &Handler{
		usecase:     usecase,
		maxFileSize: maxFileSize,
	}
}

// StartSession handles POST /sessions - open a new conversation
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "StartSession")

	id := h.usecase.StartSession(ctx)
	response.Created(w, entity.StartSessionResponse{SessionID: id})
}

// EndSession handles DELETE /sessions/{id} - close a conversation and
// release its resources
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "EndSession")
	sessionID := chi.URLParam(r, "id")

	if err := h.usecase.EndSession(ctx, sessionID); err != nil {
		if errors.Is(err, entity.ErrSessionNotFound) {
			response.Error(w, http.StatusNotFound, "session not found")
			return
		}
		ctxzap.Error(ctx, "failed to end session", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "failed to end session")
		return
	}

	response.NoContent(w)
}

// UploadDocument handles POST /sessions/{id}/documents - bring your own
// document into a private namespace
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "UploadDocument")
	sessionID := chi.URLParam(r, "id")

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize)
	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		response.Error(w, http.StatusRequestEntityTooLarge, "file too large or malformed form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	tmpPath, err := h.stageUpload(file, header.Filename)
	if err != nil {
		ctxzap.Error(ctx, "failed to stage upload", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "failed to read upload")
		return
	}
	defer os.Remove(tmpPath)

	res, err := h.usecase.UploadDocument(ctx, sessionID, tmpPath, header.Filename)
	if err != nil {
		h.respondUploadError(ctx, w, err)
		return
	}

	response.Created(w, res)
}

// Query handles POST /sessions/{id}/query - one conversational turn
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Query")
	sessionID := chi.URLParam(r, "id")

	var req entity.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answer, err := h.usecase.Query(ctx, sessionID, req.Question, req.UseTenant)
	if err != nil {
		if errors.Is(err, entity.ErrMissingField) {
			response.Error(w, http.StatusBadRequest, "question is required")
			return
		}
		ctxzap.Error(ctx, "query failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "query failed")
		return
	}

	response.Success(w, entity.QueryResponse{Answer: answer})
}

// stageUpload copies the multipart file to a temp path keeping the
// original extension, which the extractor registry dispatches on.
func (h *Handler) stageUpload(file io.Reader, filename string) (string, error) {
	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(filename))
	if err != nil {
		return "", err
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

func (h *Handler) respondUploadError(ctx context.Context, w http.ResponseWriter, err error) {
	var extErr *entity.ExtractionError

	switch {
	case errors.Is(err, entity.ErrSessionNotFound):
		response.Error(w, http.StatusNotFound, "session not found")
	case errors.Is(err, entity.ErrEmptyDocument):
		response.Error(w, http.StatusUnprocessableEntity, "document contains no extractable text")
	case errors.As(err, &extErr) && errors.Is(err, entity.ErrInvalidParameter):
		response.Error(w, http.StatusUnsupportedMediaType, "unsupported file type")
	case errors.As(err, &extErr):
		response.Error(w, http.StatusUnprocessableEntity, "could not read document")
	default:
		ctxzap.Error(ctx, "failed to ingest document", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "failed to ingest document")
	}
}
