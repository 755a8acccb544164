package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bmmregistration/internal/delivery/http/helpers"
	"bmmregistration/internal/domain"
)

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateEventRequest is the request body for POST /events.
type CreateEventRequest struct {
	Name string     `json:"name"`
	Code string     `json:"code"`
	Date *time.Time `json:"date"`
}

// Validate implements helpers.Validator.
func (r *CreateEventRequest) Validate() []string {
	var errs []string
	r.Name = strings.TrimSpace(r.Name)
	r.Code = strings.TrimSpace(r.Code)
	if r.Name == "" {
		errs = append(errs, "name is required")
	}
	if r.Code == "" {
		errs = append(errs, "code is required")
	}
	return errs
}

// EventSuccessResponse is the success response envelope for event endpoints.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// Create godoc
// @Summary Provision an event
// @Description Creates an event. The code is stored lowercase and must be unique; members and operators use it to resolve the event.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body controllers.CreateEventRequest true "Event payload"
// @Success 201 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	e, err := c.Service.Create(r.Context(), req.Name, req.Code, req.Date)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, e)
}

// GetByCode godoc
// @Summary Resolve an event by its short code
// @Description Returns the event the code was minted for. Codes are matched case-insensitively.
// @Tags events
// @Produce json
// @Param code path string true "Event code"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{code} [get]
func (c *EventController) GetByCode(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if code == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing code")
		return
	}

	e, err := c.Service.GetByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, e)
}
