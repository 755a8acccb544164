package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bmmregistration/internal/domain"
	"bmmregistration/internal/eligibility"
)

type registrationService struct {
	members domain.MemberRepository
	outbox  domain.TicketEmailRepository
	audit   domain.AuditRecorder
	logger  *slog.Logger
}

// NewRegistrationService creates the registration state machine service.
func NewRegistrationService(
	members domain.MemberRepository,
	outbox domain.TicketEmailRepository,
	audit domain.AuditRecorder,
	logger *slog.Logger,
) domain.RegistrationService {
	return &registrationService{
		members: members,
		outbox:  outbox,
		audit:   audit,
		logger:  logger,
	}
}

// newCapabilityToken returns a fresh unguessable capability value, used
// for both access and ticket tokens.
func newCapabilityToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func (s *registrationService) GetByAccessToken(ctx context.Context, eventID, accessToken string) (*domain.Member, error) {
	m, err := s.members.GetByAccessToken(ctx, eventID, accessToken)
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, fmt.Errorf("get member by access token: %w", err)
	}
	return m, nil
}

// SubmitPreferences records the member's venue/time/format preferences
// and moves INVITED -> PREFERENCE_SUBMITTED. Resubmission while still in
// PREFERENCE_SUBMITTED overwrites the payload without changing stage.
func (s *registrationService) SubmitPreferences(ctx context.Context, eventID, memberID string, prefs *domain.Preferences) (*domain.Member, error) {
	if prefs == nil {
		return nil, domain.ErrInvalidInput
	}
	m, err := s.members.GetByID(ctx, eventID, memberID)
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	if m.Stage != domain.StageInvited && m.Stage != domain.StagePreferenceSubmitted {
		return nil, domain.ErrInvalidStateTransition
	}

	loaded := m.Stage
	m.PreferredVenue = &prefs.Venue
	m.PreferredTime = &prefs.Time
	m.PreferredFormat = &prefs.Format
	for k, v := range prefs.Extra {
		m.RegistrationData["pref_"+k] = v
	}
	m.Stage = domain.StagePreferenceSubmitted

	if err := s.writeTransition(ctx, m, loaded); err != nil {
		return nil, err
	}
	return m, nil
}

// ConfirmAttendance moves INVITED or PREFERENCE_SUBMITTED to
// ATTENDANCE_CONFIRMED: sets the attendance decision, auto-assigns a
// venue/session if unassigned, issues a ticket token if absent, and
// records a durable ticket-email outbox row. Financial fields, when
// supplied, are merged and audited.
func (s *registrationService) ConfirmAttendance(ctx context.Context, eventID, memberID string, financial map[string]string) (*domain.Member, error) {
	m, err := s.members.GetByID(ctx, eventID, memberID)
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	if m.Stage != domain.StageInvited && m.Stage != domain.StagePreferenceSubmitted {
		return nil, domain.ErrInvalidStateTransition
	}

	var before map[string]string
	if len(financial) > 0 {
		before = snapshotFields(m, financial)
	}

	loaded := m.Stage
	now := time.Now()
	m.Stage = domain.StageAttendanceConfirmed
	m.Attendance = domain.AttendanceAttending
	m.AttendanceDecidedAt = &now

	eligible, venue := eligibility.Resolve(m.Region, m.Forum)
	m.SpecialVoteEligible = eligible
	if m.AssignedVenue == nil {
		pref := ""
		if m.PreferredTime != nil {
			pref = *m.PreferredTime
		}
		session := eligibility.ResolveSession(venue, pref)
		m.AssignedVenue = &venue
		m.AssignedSession = &session
		m.AssignedAt = &now
	}

	if m.TicketToken == nil {
		token, err := newCapabilityToken()
		if err != nil {
			return nil, err
		}
		m.TicketToken = &token
		m.TicketStatus = domain.TicketIssued
		m.TicketIssuedAt = &now
	}

	for k, v := range financial {
		m.RegistrationData[k] = v
	}

	if err := s.writeTransition(ctx, m, loaded); err != nil {
		return nil, err
	}

	// Post-commit side effects. Both are best-effort: the transition has
	// already committed and must not be unwound.
	s.enqueueTicketEmail(ctx, m)
	if len(financial) > 0 {
		s.audit.Record(ctx, m.EventID, m.ID, "member", before, snapshotFields(m, financial))
	}
	return m, nil
}

// DeclineAttendance moves INVITED or PREFERENCE_SUBMITTED to
// ATTENDANCE_DECLINED. A special-vote request is auto-approved only when
// the member's region or forum satisfies the eligibility predicate.
func (s *registrationService) DeclineAttendance(ctx context.Context, eventID, memberID, reason string, specialVoteRequest bool) (*domain.Member, error) {
	return s.declineWith(ctx, eventID, memberID, reason, specialVoteRequest, domain.StageAttendanceDeclined)
}

// MarkVenueCancelled is the decline path for members whose venue was
// cancelled. Cancellation is itself grounds for a special vote, so a
// request is approved regardless of the general eligibility predicate.
func (s *registrationService) MarkVenueCancelled(ctx context.Context, eventID, memberID string, specialVoteRequest bool) (*domain.Member, error) {
	return s.declineWith(ctx, eventID, memberID, "", specialVoteRequest, domain.StageVenueCancelled)
}

func (s *registrationService) declineWith(ctx context.Context, eventID, memberID, reason string, specialVoteRequest bool, target domain.Stage) (*domain.Member, error) {
	m, err := s.members.GetByID(ctx, eventID, memberID)
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	if m.Stage != domain.StageInvited && m.Stage != domain.StagePreferenceSubmitted {
		return nil, domain.ErrInvalidStateTransition
	}

	loaded := m.Stage
	now := time.Now()
	m.Stage = target
	m.Attendance = domain.AttendanceNotAttending
	m.AttendanceDecidedAt = &now
	if reason != "" {
		m.RegistrationData["decline_reason"] = reason
	}

	eligible, _ := eligibility.Resolve(m.Region, m.Forum)
	if target == domain.StageVenueCancelled {
		eligible = true
	}
	m.SpecialVoteEligible = eligible
	m.SpecialVoteRequested = specialVoteRequest
	if specialVoteRequest && eligible {
		m.SpecialVoteStatus = domain.SpecialVoteApproved
	}

	if err := s.writeTransition(ctx, m, loaded); err != nil {
		return nil, err
	}
	if m.SpecialVoteStatus == domain.SpecialVoteApproved {
		s.enqueueEmail(ctx, m, "special_vote_approved")
	}
	return m, nil
}

// IssueTicketOnly is the bulk pre-issuance path: it skips the preference
// funnel entirely and lands the member in the terminal TICKET_ONLY stage
// with a ticket and attendance set. Confirmed members and members who
// already hold a ticket are rejected.
func (s *registrationService) IssueTicketOnly(ctx context.Context, eventID, memberID string) (*domain.Member, error) {
	m, err := s.members.GetByID(ctx, eventID, memberID)
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	if m.Stage == domain.StageAttendanceConfirmed || m.Stage == domain.StageTicketOnly || m.TicketToken != nil {
		return nil, domain.ErrInvalidStateTransition
	}

	loaded := m.Stage
	now := time.Now()
	token, err := newCapabilityToken()
	if err != nil {
		return nil, err
	}
	m.Stage = domain.StageTicketOnly
	m.Attendance = domain.AttendanceAttending
	m.AttendanceDecidedAt = &now
	m.TicketToken = &token
	m.TicketStatus = domain.TicketIssued
	m.TicketIssuedAt = &now

	if err := s.writeTransition(ctx, m, loaded); err != nil {
		return nil, err
	}
	return m, nil
}

// writeTransition performs the conditional write and maps a lost race to
// the same failure an illegal source stage produces: the loser observed
// a stage that is no longer true.
func (s *registrationService) writeTransition(ctx context.Context, m *domain.Member, expected domain.Stage) error {
	if err := s.members.UpdateFromStage(ctx, m, expected); err != nil {
		if errors.Is(err, domain.ErrStaleStage) {
			return domain.ErrInvalidStateTransition
		}
		if errors.Is(err, domain.ErrMemberNotFound) {
			return domain.ErrMemberNotFound
		}
		return fmt.Errorf("write transition: %w", err)
	}
	return nil
}

func (s *registrationService) enqueueTicketEmail(ctx context.Context, m *domain.Member) {
	s.enqueueEmail(ctx, m, "ticket")
}

func (s *registrationService) enqueueEmail(ctx context.Context, m *domain.Member, template string) {
	row := &domain.TicketEmail{
		ID:        uuid.NewString(),
		EventID:   m.EventID,
		MemberID:  m.ID,
		Template:  template,
		Status:    domain.TicketEmailPending,
		CreatedAt: time.Now(),
	}
	if err := s.outbox.Create(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "failed to record email outbox row",
			"member_id", m.ID, "event_id", m.EventID, "template", template, "err", err)
	}
}

// snapshotFields captures the member's current values for the keys being
// changed, for the audit before/after pair.
func snapshotFields(m *domain.Member, fields map[string]string) map[string]string {
	snap := make(map[string]string, len(fields))
	for k := range fields {
		snap[k] = m.RegistrationData[k]
	}
	return snap
}
