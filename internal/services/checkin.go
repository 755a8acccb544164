package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bmmregistration/internal/domain"
)

// Check-in methods by lookup key.
const (
	checkInMethodTicket = "qr_ticket"
	checkInMethodAccess = "qr_access"
	checkInMethodManual = "manual"
)

type checkInService struct {
	members domain.MemberRepository
	logger  *slog.Logger
}

// NewCheckInService creates the check-in coordinator.
func NewCheckInService(members domain.MemberRepository, logger *slog.Logger) domain.CheckInService {
	return &checkInService{
		members: members,
		logger:  logger,
	}
}

// CheckIn records the member's physical check-in at most once. Duplicate
// and concurrent scans are not errors: losers get AlreadyCheckedIn with
// the winner's venue, operator, and timestamp.
func (s *checkInService) CheckIn(ctx context.Context, eventID string, key domain.CheckInKey, venue, operator string) (*domain.CheckInResult, error) {
	if venue == "" || operator == "" {
		return nil, domain.ErrInvalidInput
	}
	m, method, err := s.resolve(ctx, eventID, key)
	if err != nil {
		return nil, err
	}
	if m.Attendance != domain.AttendanceAttending {
		return nil, domain.ErrNotAttending
	}
	if m.CheckedIn {
		return duplicateResult(m), nil
	}

	at := time.Now()
	provenance := map[string]string{
		"checkin_operator": operator,
		"checkin_venue":    venue,
		"checkin_method":   method,
	}
	won, err := s.members.CheckIn(ctx, m.ID, at, method, venue, operator, provenance)
	if err != nil {
		return nil, fmt.Errorf("write check-in: %w", err)
	}
	if !won {
		// Lost the race: re-read and report the winner's data.
		fresh, err := s.members.GetByID(ctx, eventID, m.ID)
		if err != nil {
			return nil, fmt.Errorf("reload member after lost check-in race: %w", err)
		}
		return duplicateResult(fresh), nil
	}

	s.logger.InfoContext(ctx, "member checked in",
		"member_id", m.ID, "venue", venue, "operator", operator, "method", method)
	return &domain.CheckInResult{
		MemberID:         m.ID,
		MembershipNumber: m.MembershipNumber,
		Name:             m.Name,
		AlreadyCheckedIn: false,
		CheckedInAt:      at,
		Venue:            venue,
		Operator:         operator,
		Method:           method,
	}, nil
}

// resolve looks the member up by exactly one of the three keys, always
// scoped to the target event so a token minted for another event fails
// closed.
func (s *checkInService) resolve(ctx context.Context, eventID string, key domain.CheckInKey) (*domain.Member, string, error) {
	var (
		m      *domain.Member
		method string
		err    error
	)
	switch {
	case key.TicketToken != "":
		method = checkInMethodTicket
		m, err = s.members.GetByTicketToken(ctx, eventID, key.TicketToken)
	case key.AccessToken != "":
		method = checkInMethodAccess
		m, err = s.members.GetByAccessToken(ctx, eventID, key.AccessToken)
	case key.MembershipNumber != "":
		method = checkInMethodManual
		m, err = s.members.GetByMembershipNumber(ctx, eventID, key.MembershipNumber)
	default:
		return nil, "", domain.ErrInvalidInput
	}
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return nil, "", domain.ErrMemberNotFound
		}
		return nil, "", fmt.Errorf("resolve member: %w", err)
	}
	return m, method, nil
}

func duplicateResult(m *domain.Member) *domain.CheckInResult {
	res := &domain.CheckInResult{
		MemberID:         m.ID,
		MembershipNumber: m.MembershipNumber,
		Name:             m.Name,
		AlreadyCheckedIn: true,
	}
	if m.CheckedInAt != nil {
		res.CheckedInAt = *m.CheckedInAt
	}
	if m.CheckInVenue != nil {
		res.Venue = *m.CheckInVenue
	}
	if m.CheckInOperator != nil {
		res.Operator = *m.CheckInOperator
	}
	if m.CheckInMethod != nil {
		res.Method = *m.CheckInMethod
	}
	return res
}
