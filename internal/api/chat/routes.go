package chat

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers chat session routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.StartSession)
		r.Delete("/{id}", h.EndSession)
		r.Post("/{id}/documents", h.UploadDocument)
		r.Post("/{id}/query", h.Query)
	})
}
