package controllers

import (
	"log/slog"
	"net/http"

	"bmmregistration/internal/delivery/http/helpers"
	"bmmregistration/internal/domain"
)

type AuditController struct {
	Logger   *slog.Logger
	Recorder domain.AuditRecorder
}

func NewAuditController(logger *slog.Logger, recorder domain.AuditRecorder) *AuditController {
	return &AuditController{
		Logger:   logger,
		Recorder: recorder,
	}
}

// ListAuditSuccessResponse is the success response envelope for GET /events/{eventID}/members/{memberID}/audit.
type ListAuditSuccessResponse struct {
	Data  []*domain.AuditEntry `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// ListByMember godoc
// @Summary List audit entries for a member
// @Description Returns the member's audit trail, newest first. Entries are immutable before/after snapshots of financial and contact-field changes.
// @Tags audit
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param memberID path string true "Member ID"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListAuditSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/members/{memberID}/audit [get]
func (c *AuditController) ListByMember(w http.ResponseWriter, r *http.Request) {
	eventID, memberID, ok := pathIDs(w, r)
	if !ok {
		return
	}
	params := helpers.ParsePagination(r)

	entries, err := c.Recorder.ListByMember(r.Context(), eventID, memberID, params)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	if entries == nil {
		entries = []*domain.AuditEntry{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, entries)
}
