// Package memory provides in-process stores that honor the same
// conditional-write contracts as the postgres repositories. They back
// service tests and single-process development runs.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bmmregistration/internal/domain"
)

// MemberStore is a mutex-guarded implementation of
// domain.MemberRepository. All conditional writes happen under one lock,
// giving the same serialization the postgres repo gets from conditional
// UPDATEs.
type MemberStore struct {
	mu      sync.Mutex
	nextID  int
	members map[string]*domain.Member
}

// NewMemberStore returns an empty store.
func NewMemberStore() *MemberStore {
	return &MemberStore{members: make(map[string]*domain.Member)}
}

func (s *MemberStore) Create(ctx context.Context, m *domain.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	m.ID = fmt.Sprintf("mem-%d", s.nextID)
	s.members[m.ID] = cloneMember(m)
	return nil
}

func (s *MemberStore) GetByID(ctx context.Context, eventID, memberID string) (*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[memberID]
	if !ok || m.EventID != eventID {
		return nil, domain.ErrMemberNotFound
	}
	return cloneMember(m), nil
}

func (s *MemberStore) GetByMembershipNumber(ctx context.Context, eventID, number string) (*domain.Member, error) {
	return s.find(eventID, func(m *domain.Member) bool { return m.MembershipNumber == number })
}

func (s *MemberStore) GetByAccessToken(ctx context.Context, eventID, token string) (*domain.Member, error) {
	return s.find(eventID, func(m *domain.Member) bool { return m.AccessToken == token })
}

func (s *MemberStore) GetByTicketToken(ctx context.Context, eventID, token string) (*domain.Member, error) {
	return s.find(eventID, func(m *domain.Member) bool {
		return m.TicketToken != nil && *m.TicketToken == token
	})
}

func (s *MemberStore) find(eventID string, match func(*domain.Member) bool) (*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m.EventID == eventID && match(m) {
			return cloneMember(m), nil
		}
	}
	return nil, domain.ErrMemberNotFound
}

func (s *MemberStore) UpdateFromStage(ctx context.Context, m *domain.Member, expected domain.Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.members[m.ID]
	if !ok || stored.EventID != m.EventID {
		return domain.ErrMemberNotFound
	}
	if stored.Stage != expected {
		return domain.ErrStaleStage
	}
	m.UpdatedAt = time.Now()
	s.members[m.ID] = cloneMember(m)
	return nil
}

func (s *MemberStore) CheckIn(ctx context.Context, memberID string, at time.Time, method, venue, operator string, provenance map[string]string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.members[memberID]
	if !ok {
		return false, domain.ErrMemberNotFound
	}
	if stored.CheckedIn {
		return false, nil
	}
	stored.CheckedIn = true
	stored.CheckedInAt = &at
	stored.CheckInMethod = &method
	stored.CheckInVenue = &venue
	stored.CheckInOperator = &operator
	stored.TicketStatus = domain.TicketUsed
	if stored.RegistrationData == nil {
		stored.RegistrationData = map[string]string{}
	}
	for k, v := range provenance {
		stored.RegistrationData[k] = v
	}
	stored.UpdatedAt = time.Now()
	return true, nil
}

func (s *MemberStore) UpdateProfile(ctx context.Context, m *domain.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.members[m.ID]
	if !ok || stored.EventID != m.EventID {
		return domain.ErrMemberNotFound
	}
	stored.Name = m.Name
	stored.Email = m.Email
	stored.Mobile = m.Mobile
	stored.Region = m.Region
	stored.Forum = m.Forum
	stored.DataSource = m.DataSource
	stored.LastSyncedAt = m.LastSyncedAt
	if stored.RegistrationData == nil {
		stored.RegistrationData = map[string]string{}
	}
	for k, v := range m.RegistrationData {
		stored.RegistrationData[k] = v
	}
	stored.UpdatedAt = time.Now()
	return nil
}

func cloneMember(m *domain.Member) *domain.Member {
	c := *m
	if m.RegistrationData != nil {
		c.RegistrationData = make(map[string]string, len(m.RegistrationData))
		for k, v := range m.RegistrationData {
			c.RegistrationData[k] = v
		}
	}
	return &c
}
