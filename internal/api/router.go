package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/posecontact/internal/docservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *docservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Inline documents.
	r.Post("/validate", h.Validate)
	r.Post("/narrate", h.Narrate)

	// Stored documents.
	r.Get("/documents", h.ListDocuments)
	r.Get("/documents/*", h.GetDocument)
	r.Put("/documents/*", h.PutDocument)
	r.Get("/narratives/*", h.NarrateDocument)
	r.Get("/runs/latest", h.LatestRun)

	r.Get("/schema", h.Schema)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
