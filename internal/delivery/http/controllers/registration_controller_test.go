package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bmmregistration/internal/delivery/http/helpers"
	"bmmregistration/internal/domain"
)

type mockRegistrationService struct {
	member *domain.Member
	err    error

	gotEventID  string
	gotMemberID string
	gotPrefs    *domain.Preferences
}

func (m *mockRegistrationService) SubmitPreferences(ctx context.Context, eventID, memberID string, prefs *domain.Preferences) (*domain.Member, error) {
	m.gotEventID, m.gotMemberID, m.gotPrefs = eventID, memberID, prefs
	return m.member, m.err
}

func (m *mockRegistrationService) ConfirmAttendance(ctx context.Context, eventID, memberID string, financial map[string]string) (*domain.Member, error) {
	m.gotEventID, m.gotMemberID = eventID, memberID
	return m.member, m.err
}

func (m *mockRegistrationService) DeclineAttendance(ctx context.Context, eventID, memberID, reason string, specialVoteRequest bool) (*domain.Member, error) {
	m.gotEventID, m.gotMemberID = eventID, memberID
	return m.member, m.err
}

func (m *mockRegistrationService) MarkVenueCancelled(ctx context.Context, eventID, memberID string, specialVoteRequest bool) (*domain.Member, error) {
	m.gotEventID, m.gotMemberID = eventID, memberID
	return m.member, m.err
}

func (m *mockRegistrationService) IssueTicketOnly(ctx context.Context, eventID, memberID string) (*domain.Member, error) {
	m.gotEventID, m.gotMemberID = eventID, memberID
	return m.member, m.err
}

func (m *mockRegistrationService) GetByAccessToken(ctx context.Context, eventID, accessToken string) (*domain.Member, error) {
	m.gotEventID = eventID
	return m.member, m.err
}

func testControllerLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestRegistrationController_SubmitPreferences_Success(t *testing.T) {
	svc := &mockRegistrationService{member: &domain.Member{ID: "mem-1", Stage: domain.StagePreferenceSubmitted}}
	ctrl := NewRegistrationController(testControllerLogger(), svc)

	body := `{"venue":"Wellington","time":"afternoon","format":"in_person"}`
	req := httptest.NewRequest(http.MethodPost, "/events/ev-1/members/mem-1/preferences", strings.NewReader(body))
	req.SetPathValue("eventID", "ev-1")
	req.SetPathValue("memberID", "mem-1")
	w := httptest.NewRecorder()

	ctrl.SubmitPreferences(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if svc.gotEventID != "ev-1" || svc.gotMemberID != "mem-1" {
		t.Fatalf("service called with (%q, %q)", svc.gotEventID, svc.gotMemberID)
	}
	if svc.gotPrefs == nil || svc.gotPrefs.Time != "afternoon" {
		t.Fatalf("unexpected preferences: %+v", svc.gotPrefs)
	}
}

func TestRegistrationController_SubmitPreferences_EmptyBody(t *testing.T) {
	svc := &mockRegistrationService{}
	ctrl := NewRegistrationController(testControllerLogger(), svc)

	req := httptest.NewRequest(http.MethodPost, "/events/ev-1/members/mem-1/preferences", strings.NewReader(`{}`))
	req.SetPathValue("eventID", "ev-1")
	req.SetPathValue("memberID", "mem-1")
	w := httptest.NewRecorder()

	ctrl.SubmitPreferences(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestRegistrationController_ConfirmAttendance_Conflict(t *testing.T) {
	svc := &mockRegistrationService{err: domain.ErrInvalidStateTransition}
	ctrl := NewRegistrationController(testControllerLogger(), svc)

	req := httptest.NewRequest(http.MethodPost, "/events/ev-1/members/mem-1/confirm", nil)
	req.SetPathValue("eventID", "ev-1")
	req.SetPathValue("memberID", "mem-1")
	w := httptest.NewRecorder()

	ctrl.ConfirmAttendance(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, w.Code)
	}
	var resp helpers.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != helpers.ErrCodeConflict {
		t.Fatalf("expected conflict error, got %+v", resp.Error)
	}
}

func TestRegistrationController_ConfirmAttendance_NotFound(t *testing.T) {
	svc := &mockRegistrationService{err: domain.ErrMemberNotFound}
	ctrl := NewRegistrationController(testControllerLogger(), svc)

	req := httptest.NewRequest(http.MethodPost, "/events/ev-1/members/missing/confirm", nil)
	req.SetPathValue("eventID", "ev-1")
	req.SetPathValue("memberID", "missing")
	w := httptest.NewRecorder()

	ctrl.ConfirmAttendance(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestRegistrationController_DeclineAttendance_Success(t *testing.T) {
	svc := &mockRegistrationService{member: &domain.Member{ID: "mem-1", Stage: domain.StageAttendanceDeclined}}
	ctrl := NewRegistrationController(testControllerLogger(), svc)

	body := `{"reason":"cannot travel","special_vote_request":true}`
	req := httptest.NewRequest(http.MethodPost, "/events/ev-1/members/mem-1/decline", strings.NewReader(body))
	req.SetPathValue("eventID", "ev-1")
	req.SetPathValue("memberID", "mem-1")
	w := httptest.NewRecorder()

	ctrl.DeclineAttendance(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestRegistrationController_GetMe(t *testing.T) {
	svc := &mockRegistrationService{member: &domain.Member{ID: "mem-1"}}
	ctrl := NewRegistrationController(testControllerLogger(), svc)

	req := httptest.NewRequest(http.MethodGet, "/events/ev-1/members/me?access_token=tok-1", nil)
	req.SetPathValue("eventID", "ev-1")
	w := httptest.NewRecorder()

	ctrl.GetMe(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestRegistrationController_GetMe_MissingToken(t *testing.T) {
	svc := &mockRegistrationService{}
	ctrl := NewRegistrationController(testControllerLogger(), svc)

	req := httptest.NewRequest(http.MethodGet, "/events/ev-1/members/me", nil)
	req.SetPathValue("eventID", "ev-1")
	w := httptest.NewRecorder()

	ctrl.GetMe(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}
