package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/posecontact/internal/apperr"
	"github.com/starford/posecontact/internal/docservice"
	"github.com/starford/posecontact/internal/document"
)

const maxDocumentBytes = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *docservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *docservice.Service) *Handler {
	return &Handler{svc: svc}
}

// documentPath extracts the document path from the URL (everything after
// /api/documents/). Supports encoded slashes from generated clients.
func documentPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// readDocument reads the raw request body and the ?format= query value.
func readDocument(w http.ResponseWriter, r *http.Request) ([]byte, document.Format, bool) {
	format, err := document.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("format must be json or yaml"))
		return nil, "", false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return nil, "", false
	}
	return body, format, true
}

// writeServiceError maps service errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, op, path string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrUnsupportedFormat):
		writeJSON(w, http.StatusBadRequest, errorBody("unsupported document extension"))
	case errors.Is(err, apperr.ErrInvalidDocument):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	default:
		slog.Error(op+" failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// Validate handles POST /api/validate.
//
//	@Summary		Validate an inline document
//	@Tags			validation
//	@Accept			plain
//	@Produce		json
//	@Param			format	query		string	false	"Document format"	Enums(json, yaml)
//	@Success		200		{object}	ValidateResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/validate [post]
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	body, format, ok := readDocument(w, r)
	if !ok {
		return
	}
	issues, err := h.svc.ValidateContent(r.Context(), body, format)
	if err != nil {
		writeServiceError(w, "validate", "", err)
		return
	}
	writeJSON(w, http.StatusOK, ValidateResponse{Valid: len(issues) == 0, Issues: issues})
}

// Narrate handles POST /api/narrate.
//
//	@Summary		Render the narrative projection of an inline document
//	@Tags			narrative
//	@Accept			plain
//	@Produce		json
//	@Param			format	query		string	false	"Document format"	Enums(json, yaml)
//	@Success		200		{object}	NarrateResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/narrate [post]
func (h *Handler) Narrate(w http.ResponseWriter, r *http.Request) {
	body, format, ok := readDocument(w, r)
	if !ok {
		return
	}
	text, err := h.svc.NarrateContent(r.Context(), body, format)
	if err != nil {
		writeServiceError(w, "narrate", "", err)
		return
	}
	writeJSON(w, http.StatusOK, NarrateResponse{Narrative: text})
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List ledger entries for stored documents
//	@Tags			documents
//	@Produce		json
//	@Param			invalid	query		bool	false	"Only documents with issues"
//	@Success		200		{object}	DocumentListResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	onlyInvalid := r.URL.Query().Get("invalid") == "true"
	rows, err := h.svc.ListDocuments(r.Context(), onlyInvalid)
	if err != nil {
		slog.Error("list documents failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: rows, Total: len(rows)})
}

// GetDocument handles GET /api/documents/*.
//
//	@Summary		Validate a stored document now
//	@Tags			documents
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	ReportResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	path := documentPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	report, err := h.svc.ValidateDocument(r.Context(), path)
	if err != nil {
		writeServiceError(w, "validate document", path, err)
		return
	}
	writeJSON(w, http.StatusOK, newReportResponse(report))
}

// PutDocument handles PUT /api/documents/*.
//
//	@Summary		Store a document and validate it
//	@Tags			documents
//	@Accept			plain
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	ReportResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [put]
func (h *Handler) PutDocument(w http.ResponseWriter, r *http.Request) {
	path := documentPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	if len(body) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}
	report, err := h.svc.SaveDocument(r.Context(), path, body)
	if err != nil {
		writeServiceError(w, "save document", path, err)
		return
	}
	writeJSON(w, http.StatusOK, newReportResponse(report))
}

// NarrateDocument handles GET /api/narratives/*.
//
//	@Summary		Render the narrative projection of a stored document
//	@Tags			narrative
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	NarrateResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/narratives/{path} [get]
func (h *Handler) NarrateDocument(w http.ResponseWriter, r *http.Request) {
	path := documentPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	text, err := h.svc.NarrateDocument(r.Context(), path)
	if err != nil {
		writeServiceError(w, "narrate document", path, err)
		return
	}
	writeJSON(w, http.StatusOK, NarrateResponse{Narrative: text})
}

// LatestRun handles GET /api/runs/latest.
//
//	@Summary		Summary of the most recent directory sync
//	@Tags			documents
//	@Produce		json
//	@Success		200	{object}	index.RunRow
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/runs/latest [get]
func (h *Handler) LatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.svc.LatestRun(r.Context())
	if err != nil {
		slog.Error("latest run failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if run == nil {
		writeJSON(w, http.StatusNotFound, errorBody("no runs recorded"))
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// Schema handles GET /api/schema.
//
//	@Summary		The JSON schema documents are validated against
//	@Tags			validation
//	@Produce		json
//	@Success		200
//	@Router			/schema [get]
func (h *Handler) Schema(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/schema+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.svc.Schema())
}
