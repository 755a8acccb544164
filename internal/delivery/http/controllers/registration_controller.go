package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"bmmregistration/internal/delivery/http/helpers"
	"bmmregistration/internal/domain"
)

type RegistrationController struct {
	Logger  *slog.Logger
	Service domain.RegistrationService
}

func NewRegistrationController(logger *slog.Logger, svc domain.RegistrationService) *RegistrationController {
	return &RegistrationController{
		Logger:  logger,
		Service: svc,
	}
}

// MemberSuccessResponse is the success response envelope for registration endpoints.
type MemberSuccessResponse struct {
	Data  *domain.Member    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// SubmitPreferencesRequest is the request body for POST /events/{eventID}/members/{memberID}/preferences.
type SubmitPreferencesRequest struct {
	Venue  string            `json:"venue"`
	Time   string            `json:"time"`
	Format string            `json:"format"`
	Extra  map[string]string `json:"extra,omitempty"`
}

// Validate implements helpers.Validator.
func (r *SubmitPreferencesRequest) Validate() []string {
	var errs []string
	r.Venue = strings.TrimSpace(r.Venue)
	r.Time = strings.TrimSpace(r.Time)
	r.Format = strings.TrimSpace(r.Format)
	if r.Venue == "" && r.Time == "" && r.Format == "" {
		errs = append(errs, "at least one of venue, time, format is required")
	}
	return errs
}

// SubmitPreferences godoc
// @Summary Submit attendance preferences
// @Description Records the member's venue/time/format preferences and moves the member to PREFERENCE_SUBMITTED. Resubmitting overwrites the previous preferences.
// @Tags registration
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID"
// @Param memberID path string true "Member ID"
// @Param body body controllers.SubmitPreferencesRequest true "Preference payload"
// @Success 200 {object} controllers.MemberSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already decided)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/members/{memberID}/preferences [post]
func (c *RegistrationController) SubmitPreferences(w http.ResponseWriter, r *http.Request) {
	eventID, memberID, ok := pathIDs(w, r)
	if !ok {
		return
	}
	var req SubmitPreferencesRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	m, err := c.Service.SubmitPreferences(r.Context(), eventID, memberID, &domain.Preferences{
		Venue:  req.Venue,
		Time:   req.Time,
		Format: req.Format,
		Extra:  req.Extra,
	})
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, m)
}

// ConfirmAttendanceRequest is the request body for POST /events/{eventID}/members/{memberID}/confirm.
type ConfirmAttendanceRequest struct {
	Financial map[string]string `json:"financial,omitempty"`
}

// ConfirmAttendance godoc
// @Summary Confirm attendance
// @Description Moves the member to ATTENDANCE_CONFIRMED, auto-assigns a venue and session, issues a ticket, and queues the ticket email. Optional financial fields are merged and audited.
// @Tags registration
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID"
// @Param memberID path string true "Member ID"
// @Param body body controllers.ConfirmAttendanceRequest false "Optional financial fields"
// @Success 200 {object} controllers.MemberSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already decided)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/members/{memberID}/confirm [post]
func (c *RegistrationController) ConfirmAttendance(w http.ResponseWriter, r *http.Request) {
	eventID, memberID, ok := pathIDs(w, r)
	if !ok {
		return
	}
	var req ConfirmAttendanceRequest
	if r.ContentLength > 0 && !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	m, err := c.Service.ConfirmAttendance(r.Context(), eventID, memberID, req.Financial)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, m)
}

// DeclineAttendanceRequest is the request body for POST /events/{eventID}/members/{memberID}/decline.
type DeclineAttendanceRequest struct {
	Reason             string `json:"reason,omitempty"`
	SpecialVoteRequest bool   `json:"special_vote_request,omitempty"`
}

// DeclineAttendance godoc
// @Summary Decline attendance
// @Description Moves the member to ATTENDANCE_DECLINED. A special-vote request is approved automatically when the member's region or forum qualifies.
// @Tags registration
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID"
// @Param memberID path string true "Member ID"
// @Param body body controllers.DeclineAttendanceRequest false "Decline payload"
// @Success 200 {object} controllers.MemberSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already decided)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/members/{memberID}/decline [post]
func (c *RegistrationController) DeclineAttendance(w http.ResponseWriter, r *http.Request) {
	eventID, memberID, ok := pathIDs(w, r)
	if !ok {
		return
	}
	var req DeclineAttendanceRequest
	if r.ContentLength > 0 && !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	m, err := c.Service.DeclineAttendance(r.Context(), eventID, memberID, req.Reason, req.SpecialVoteRequest)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, m)
}

// VenueCancelledRequest is the request body for POST /events/{eventID}/members/{memberID}/venue-cancelled.
type VenueCancelledRequest struct {
	SpecialVoteRequest bool `json:"special_vote_request,omitempty"`
}

// MarkVenueCancelled godoc
// @Summary Record a venue-cancellation decline
// @Description Moves the member to VENUE_CANCELLED. A special-vote request is approved regardless of region, since the cancellation itself qualifies the member.
// @Tags registration
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID"
// @Param memberID path string true "Member ID"
// @Param body body controllers.VenueCancelledRequest false "Cancellation payload"
// @Success 200 {object} controllers.MemberSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already decided)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/members/{memberID}/venue-cancelled [post]
func (c *RegistrationController) MarkVenueCancelled(w http.ResponseWriter, r *http.Request) {
	eventID, memberID, ok := pathIDs(w, r)
	if !ok {
		return
	}
	var req VenueCancelledRequest
	if r.ContentLength > 0 && !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	m, err := c.Service.MarkVenueCancelled(r.Context(), eventID, memberID, req.SpecialVoteRequest)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, m)
}

// IssueTicketOnly godoc
// @Summary Issue a ticket without the preference funnel
// @Description Moves the member straight to the terminal TICKET_ONLY stage with an issued ticket. Rejected for confirmed members and members who already hold a ticket.
// @Tags registration
// @Produce json
// @Param eventID path string true "Event ID"
// @Param memberID path string true "Member ID"
// @Success 200 {object} controllers.MemberSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already ticketed)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/members/{memberID}/ticket-only [post]
func (c *RegistrationController) IssueTicketOnly(w http.ResponseWriter, r *http.Request) {
	eventID, memberID, ok := pathIDs(w, r)
	if !ok {
		return
	}

	m, err := c.Service.IssueTicketOnly(r.Context(), eventID, memberID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, m)
}

// GetMe godoc
// @Summary Get the member record for an access token
// @Description Returns the member the access token belongs to, scoped to the event. Tokens minted for another event fail with 404.
// @Tags registration
// @Produce json
// @Param eventID path string true "Event ID"
// @Param access_token query string true "Member access token"
// @Success 200 {object} controllers.MemberSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/members/me [get]
func (c *RegistrationController) GetMe(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	token := r.URL.Query().Get("access_token")
	if token == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing access_token")
		return
	}

	m, err := c.Service.GetByAccessToken(r.Context(), eventID, token)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, m)
}

func (c *RegistrationController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrMemberNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "member not found")
	case errors.Is(err, domain.ErrInvalidStateTransition):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "member has already decided")
	case errors.Is(err, domain.ErrInvalidInput):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}

// pathIDs extracts and checks the eventID and memberID path values.
func pathIDs(w http.ResponseWriter, r *http.Request) (eventID, memberID string, ok bool) {
	eventID = r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return "", "", false
	}
	memberID = r.PathValue("memberID")
	if memberID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing memberID")
		return "", "", false
	}
	return eventID, memberID, true
}
