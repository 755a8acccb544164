package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bmmregistration/internal/domain"
)

type mockEventService struct {
	event        *domain.Event
	err          error
	createdName  string
	createdCode  string
	resolvedCode string
}

func (m *mockEventService) Create(ctx context.Context, name, code string, date *time.Time) (*domain.Event, error) {
	m.createdName = name
	m.createdCode = code
	return m.event, m.err
}

func (m *mockEventService) GetByCode(ctx context.Context, code string) (*domain.Event, error) {
	m.resolvedCode = code
	return m.event, m.err
}

func TestEventController_Create_Created(t *testing.T) {
	svc := &mockEventService{event: &domain.Event{ID: "ev-1", Name: "BMM 2026", Code: "bmm26"}}
	ctrl := NewEventController(testControllerLogger(), svc)

	body := `{"name":"BMM 2026","code":"BMM26"}`
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	w := httptest.NewRecorder()

	ctrl.Create(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, w.Code)
	}
	if svc.createdName != "BMM 2026" || svc.createdCode != "BMM26" {
		t.Fatalf("unexpected create args: %q %q", svc.createdName, svc.createdCode)
	}
	var resp struct {
		Data *domain.Event `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Data == nil || resp.Data.ID != "ev-1" {
		t.Fatalf("unexpected event payload: %+v", resp.Data)
	}
}

func TestEventController_Create_Validation(t *testing.T) {
	ctrl := NewEventController(testControllerLogger(), &mockEventService{})

	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(`{"name":"BMM 2026"}`))
	w := httptest.NewRecorder()

	ctrl.Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestEventController_GetByCode_OK(t *testing.T) {
	svc := &mockEventService{event: &domain.Event{ID: "ev-1", Name: "BMM 2026", Code: "bmm26"}}
	ctrl := NewEventController(testControllerLogger(), svc)

	req := httptest.NewRequest(http.MethodGet, "/events/bmm26", nil)
	req.SetPathValue("code", "bmm26")
	w := httptest.NewRecorder()

	ctrl.GetByCode(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if svc.resolvedCode != "bmm26" {
		t.Fatalf("unexpected resolved code: %q", svc.resolvedCode)
	}
}

func TestEventController_GetByCode_NotFound(t *testing.T) {
	svc := &mockEventService{err: domain.ErrNotFound}
	ctrl := NewEventController(testControllerLogger(), svc)

	req := httptest.NewRequest(http.MethodGet, "/events/nope", nil)
	req.SetPathValue("code", "nope")
	w := httptest.NewRecorder()

	ctrl.GetByCode(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}
