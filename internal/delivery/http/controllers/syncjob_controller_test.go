package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bmmregistration/internal/domain"
)

type mockSyncJobService struct {
	job *domain.SyncJob
	err error
}

func (m *mockSyncJobService) Start(ctx context.Context) error { return nil }

func (m *mockSyncJobService) Trigger(ctx context.Context, eventID, jobType, source string) (*domain.SyncJob, error) {
	return m.job, m.err
}

func (m *mockSyncJobService) GetByID(ctx context.Context, jobID string) (*domain.SyncJob, error) {
	return m.job, m.err
}

func (m *mockSyncJobService) Process(ctx context.Context, jobID string) error { return m.err }

func TestSyncJobController_Trigger_Accepted(t *testing.T) {
	svc := &mockSyncJobService{job: &domain.SyncJob{ID: "job-1", Status: domain.SyncJobPending}}
	ctrl := NewSyncJobController(testControllerLogger(), svc)

	body := `{"type":"crm","source":"crm://members/latest"}`
	req := httptest.NewRequest(http.MethodPost, "/events/ev-1/sync-jobs", strings.NewReader(body))
	req.SetPathValue("eventID", "ev-1")
	w := httptest.NewRecorder()

	ctrl.Trigger(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d", http.StatusAccepted, w.Code)
	}
	var resp struct {
		Data *domain.SyncJob `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Data == nil || resp.Data.ID != "job-1" {
		t.Fatalf("unexpected job payload: %+v", resp.Data)
	}
}

func TestSyncJobController_Trigger_Validation(t *testing.T) {
	ctrl := NewSyncJobController(testControllerLogger(), &mockSyncJobService{})

	req := httptest.NewRequest(http.MethodPost, "/events/ev-1/sync-jobs", strings.NewReader(`{"type":"crm"}`))
	req.SetPathValue("eventID", "ev-1")
	w := httptest.NewRecorder()

	ctrl.Trigger(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestSyncJobController_GetByID_NotFound(t *testing.T) {
	svc := &mockSyncJobService{err: domain.ErrJobNotFound}
	ctrl := NewSyncJobController(testControllerLogger(), svc)

	req := httptest.NewRequest(http.MethodGet, "/sync-jobs/missing", nil)
	req.SetPathValue("jobID", "missing")
	w := httptest.NewRecorder()

	ctrl.GetByID(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestSyncJobController_GetByID_Progress(t *testing.T) {
	svc := &mockSyncJobService{job: &domain.SyncJob{
		ID: "job-1", Status: domain.SyncJobRunning, Total: 10, Processed: 4, Errors: 1, Skipped: 2,
	}}
	ctrl := NewSyncJobController(testControllerLogger(), svc)

	req := httptest.NewRequest(http.MethodGet, "/sync-jobs/job-1", nil)
	req.SetPathValue("jobID", "job-1")
	w := httptest.NewRecorder()

	ctrl.GetByID(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var resp struct {
		Data *domain.SyncJob `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Data.Processed != 4 || resp.Data.Total != 10 {
		t.Fatalf("unexpected progress: %+v", resp.Data)
	}
}
