package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"bmmregistration/internal/delivery/http/helpers"
	"bmmregistration/internal/delivery/http/middleware"
	"bmmregistration/internal/domain"
)

type CheckInController struct {
	Logger  *slog.Logger
	Service domain.CheckInService
}

func NewCheckInController(logger *slog.Logger, svc domain.CheckInService) *CheckInController {
	return &CheckInController{
		Logger:  logger,
		Service: svc,
	}
}

// CheckInRequest is the request body for POST /events/{eventID}/checkin.
// Exactly one of ticket_token, access_token, membership_number identifies
// the member.
type CheckInRequest struct {
	TicketToken      string `json:"ticket_token,omitempty"`
	AccessToken      string `json:"access_token,omitempty"`
	MembershipNumber string `json:"membership_number,omitempty"`
	Venue            string `json:"venue"`
}

// Validate implements helpers.Validator.
func (r *CheckInRequest) Validate() []string {
	var errs []string
	r.TicketToken = strings.TrimSpace(r.TicketToken)
	r.AccessToken = strings.TrimSpace(r.AccessToken)
	r.MembershipNumber = strings.TrimSpace(r.MembershipNumber)
	r.Venue = strings.TrimSpace(r.Venue)

	keys := 0
	for _, k := range []string{r.TicketToken, r.AccessToken, r.MembershipNumber} {
		if k != "" {
			keys++
		}
	}
	if keys == 0 {
		errs = append(errs, "one of ticket_token, access_token, membership_number is required")
	}
	if keys > 1 {
		errs = append(errs, "only one of ticket_token, access_token, membership_number may be set")
	}
	if r.Venue == "" {
		errs = append(errs, "venue is required")
	}
	return errs
}

// CheckInSuccessResponse is the success response envelope for POST /events/{eventID}/checkin.
type CheckInSuccessResponse struct {
	Data  *domain.CheckInResult `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// CheckIn godoc
// @Summary Check a member in at the venue door
// @Description Records the member's physical check-in at most once. A duplicate or concurrent scan succeeds with already_checked_in=true and the winning scan's venue, operator, and timestamp.
// @Tags checkin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body controllers.CheckInRequest true "Check-in payload"
// @Success 200 {object} controllers.CheckInSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (member not attending)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/checkin [post]
func (c *CheckInController) CheckIn(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	operatorID, ok := middleware.OperatorIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req CheckInRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	key := domain.CheckInKey{
		TicketToken:      req.TicketToken,
		AccessToken:      req.AccessToken,
		MembershipNumber: req.MembershipNumber,
	}
	result, err := c.Service.CheckIn(r.Context(), eventID, key, req.Venue, operatorID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMemberNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "member not found")
		case errors.Is(err, domain.ErrNotAttending):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "member is not attending")
		case errors.Is(err, domain.ErrInvalidInput):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}
