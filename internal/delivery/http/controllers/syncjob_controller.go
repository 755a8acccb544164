package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"bmmregistration/internal/delivery/http/helpers"
	"bmmregistration/internal/domain"
)

type SyncJobController struct {
	Logger  *slog.Logger
	Service domain.SyncJobService
}

func NewSyncJobController(logger *slog.Logger, svc domain.SyncJobService) *SyncJobController {
	return &SyncJobController{
		Logger:  logger,
		Service: svc,
	}
}

// TriggerSyncJobRequest is the request body for POST /events/{eventID}/sync-jobs.
type TriggerSyncJobRequest struct {
	Type   string `json:"type"`
	Source string `json:"source"`
}

// Validate implements helpers.Validator.
func (r *TriggerSyncJobRequest) Validate() []string {
	var errs []string
	r.Type = strings.TrimSpace(r.Type)
	r.Source = strings.TrimSpace(r.Source)
	if r.Type == "" {
		errs = append(errs, "type is required")
	}
	if r.Source == "" {
		errs = append(errs, "source is required")
	}
	return errs
}

// SyncJobSuccessResponse is the success response envelope for sync job endpoints.
type SyncJobSuccessResponse struct {
	Data  *domain.SyncJob   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// Trigger godoc
// @Summary Trigger a member-list sync job
// @Description Creates a sync job and enqueues it for background processing. Returns 202 with the job id immediately; poll GET /sync-jobs/{jobID} for progress.
// @Tags sync-jobs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body controllers.TriggerSyncJobRequest true "Job payload"
// @Success 202 {object} controllers.SyncJobSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/sync-jobs [post]
func (c *SyncJobController) Trigger(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req TriggerSyncJobRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	job, err := c.Service.Trigger(r.Context(), eventID, req.Type, req.Source)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusAccepted, job)
}

// GetByID godoc
// @Summary Get a sync job's status and progress
// @Description Returns the job with its current status and processed/error/skipped counters. Total is always >= processed.
// @Tags sync-jobs
// @Produce json
// @Security BearerAuth
// @Param jobID path string true "Job ID"
// @Success 200 {object} controllers.SyncJobSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /sync-jobs/{jobID} [get]
func (c *SyncJobController) GetByID(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("jobID")
	if jobID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing jobID")
		return
	}

	job, err := c.Service.GetByID(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "sync job not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, job)
}
