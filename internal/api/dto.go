package api

import (
	"github.com/starford/posecontact/internal/index"
	"github.com/starford/posecontact/internal/models"
)

// ValidateResponse is returned by POST /validate.
type ValidateResponse struct {
	Valid  bool           `json:"valid" example:"false" validate:"required"`
	Issues []models.Issue `json:"issues" validate:"required"`
}

// NarrateResponse is returned by the narrative endpoints.
type NarrateResponse struct {
	Narrative string `json:"narrative" validate:"required"`
}

// DocumentListResponse wraps ledger rows.
type DocumentListResponse struct {
	Documents []index.DocumentRow `json:"documents" validate:"required"`
	Total     int                 `json:"total" example:"3" validate:"required"`
}

// ReportResponse is the validation report for a stored document.
type ReportResponse struct {
	Valid bool `json:"valid" validate:"required"`
	models.Report
}

func newReportResponse(r *models.Report) ReportResponse {
	return ReportResponse{Valid: r.Valid(), Report: *r}
}
