package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/theakash04/termify/internal/api/chat"
	"github.com/theakash04/termify/internal/api/middleware"
	"github.com/theakash04/termify/internal/pkg/response"
	"go.uber.org/zap"
)

// NewRouter assembles the HTTP surface: middleware stack, health probe
// and the versioned chat API.
func NewRouter(logger *zap.Logger, chatHandler *chat.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		response.Success(w, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		chat.RegisterRoutes(r, chatHandler)
	})

	return r
}
