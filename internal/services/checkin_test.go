package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bmmregistration/internal/domain"
	"bmmregistration/internal/eligibility"
	"bmmregistration/internal/repository/memory"
)

// confirmMember drives a seeded member to ATTENDANCE_CONFIRMED so it holds
// a ticket token and is a valid check-in target.
func confirmMember(t *testing.T, store *memory.MemberStore, eventID, memberID string) *domain.Member {
	t.Helper()
	svc, _, _ := newTestRegistrationService(store)
	m, err := svc.ConfirmAttendance(context.Background(), eventID, memberID, nil)
	require.NoError(t, err)
	return m
}

func TestCheckInByEachKey(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		key        func(m *domain.Member) domain.CheckInKey
		wantMethod string
	}{
		{
			name:       "ticket token",
			key:        func(m *domain.Member) domain.CheckInKey { return domain.CheckInKey{TicketToken: *m.TicketToken} },
			wantMethod: checkInMethodTicket,
		},
		{
			name:       "access token",
			key:        func(m *domain.Member) domain.CheckInKey { return domain.CheckInKey{AccessToken: m.AccessToken} },
			wantMethod: checkInMethodAccess,
		},
		{
			name: "membership number",
			key: func(m *domain.Member) domain.CheckInKey {
				return domain.CheckInKey{MembershipNumber: m.MembershipNumber}
			},
			wantMethod: checkInMethodManual,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewMemberStore()
			seeded := seedMember(t, store, "ev-1", eligibility.RegionCentral, "Wellington")
			m := confirmMember(t, store, "ev-1", seeded.ID)
			svc := NewCheckInService(store, testLogger())

			res, err := svc.CheckIn(ctx, "ev-1", tt.key(m), "Wellington", "op-1")
			require.NoError(t, err)
			require.False(t, res.AlreadyCheckedIn)
			require.Equal(t, m.ID, res.MemberID)
			require.Equal(t, tt.wantMethod, res.Method)
			require.Equal(t, "Wellington", res.Venue)
			require.Equal(t, "op-1", res.Operator)
			require.False(t, res.CheckedInAt.IsZero())

			fresh, err := store.GetByID(ctx, "ev-1", m.ID)
			require.NoError(t, err)
			require.True(t, fresh.CheckedIn)
			require.Equal(t, domain.TicketUsed, fresh.TicketStatus)
			require.Equal(t, "op-1", fresh.RegistrationData["checkin_operator"])
			require.Equal(t, tt.wantMethod, fresh.RegistrationData["checkin_method"])
		})
	}
}

func TestCheckInCrossEventTokenFailsClosed(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMemberStore()
	seeded := seedMember(t, store, "ev-1", eligibility.RegionCentral, "Wellington")
	m := confirmMember(t, store, "ev-1", seeded.ID)
	svc := NewCheckInService(store, testLogger())

	_, err := svc.CheckIn(ctx, "ev-2", domain.CheckInKey{TicketToken: *m.TicketToken}, "Wellington", "op-1")
	require.ErrorIs(t, err, domain.ErrMemberNotFound)
}

func TestCheckInRejectsNonAttendingMember(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMemberStore()
	m := seedMember(t, store, "ev-1", eligibility.RegionCentral, "Wellington")
	reg, _, _ := newTestRegistrationService(store)
	_, err := reg.DeclineAttendance(ctx, "ev-1", m.ID, "unwell", false)
	require.NoError(t, err)

	svc := NewCheckInService(store, testLogger())
	_, err = svc.CheckIn(ctx, "ev-1", domain.CheckInKey{AccessToken: m.AccessToken}, "Wellington", "op-1")
	require.ErrorIs(t, err, domain.ErrNotAttending)
}

func TestCheckInUndecidedMemberRejected(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMemberStore()
	m := seedMember(t, store, "ev-1", eligibility.RegionCentral, "Wellington")

	svc := NewCheckInService(store, testLogger())
	_, err := svc.CheckIn(ctx, "ev-1", domain.CheckInKey{AccessToken: m.AccessToken}, "Wellington", "op-1")
	require.ErrorIs(t, err, domain.ErrNotAttending)
}

func TestCheckInValidation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMemberStore()
	svc := NewCheckInService(store, testLogger())

	_, err := svc.CheckIn(ctx, "ev-1", domain.CheckInKey{AccessToken: "tok"}, "", "op-1")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.CheckIn(ctx, "ev-1", domain.CheckInKey{AccessToken: "tok"}, "Wellington", "")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.CheckIn(ctx, "ev-1", domain.CheckInKey{}, "Wellington", "op-1")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCheckInDuplicateScanReturnsWinnerData(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMemberStore()
	seeded := seedMember(t, store, "ev-1", eligibility.RegionCentral, "Wellington")
	m := confirmMember(t, store, "ev-1", seeded.ID)
	svc := NewCheckInService(store, testLogger())

	first, err := svc.CheckIn(ctx, "ev-1", domain.CheckInKey{TicketToken: *m.TicketToken}, "Wellington", "op-1")
	require.NoError(t, err)
	require.False(t, first.AlreadyCheckedIn)

	// Second scan, different venue and operator: success with the
	// winner's data, untouched by the duplicate.
	second, err := svc.CheckIn(ctx, "ev-1", domain.CheckInKey{TicketToken: *m.TicketToken}, "Auckland", "op-2")
	require.NoError(t, err)
	require.True(t, second.AlreadyCheckedIn)
	require.Equal(t, "Wellington", second.Venue)
	require.Equal(t, "op-1", second.Operator)
	require.Equal(t, first.CheckedInAt.Unix(), second.CheckedInAt.Unix())
}

func TestCheckInConcurrentScansHaveOneWinner(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMemberStore()
	seeded := seedMember(t, store, "ev-1", eligibility.RegionCentral, "Wellington")
	m := confirmMember(t, store, "ev-1", seeded.ID)
	svc := NewCheckInService(store, testLogger())

	const scans = 32
	venues := []string{"Wellington", "Auckland", "Christchurch", "Dunedin"}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []*domain.CheckInResult
	)
	start := make(chan struct{})
	for i := 0; i < scans; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			res, err := svc.CheckIn(ctx, "ev-1",
				domain.CheckInKey{TicketToken: *m.TicketToken},
				venues[i%len(venues)], fmt.Sprintf("op-%d", i))
			require.NoError(t, err)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}(i)
	}
	close(start)
	wg.Wait()

	var winners, losers []*domain.CheckInResult
	for _, res := range results {
		if res.AlreadyCheckedIn {
			losers = append(losers, res)
		} else {
			winners = append(winners, res)
		}
	}
	require.Len(t, winners, 1)
	require.Len(t, losers, scans-1)

	// Every losing scan reports the winning scan's provenance, not its
	// own venue or operator.
	winner := winners[0]
	for _, res := range losers {
		require.Equal(t, winner.Venue, res.Venue)
		require.Equal(t, winner.Operator, res.Operator)
		require.Equal(t, winner.CheckedInAt, res.CheckedInAt)
	}

	fresh, err := store.GetByID(ctx, "ev-1", m.ID)
	require.NoError(t, err)
	require.True(t, fresh.CheckedIn)
	require.Equal(t, winner.Venue, *fresh.CheckInVenue)
	require.Equal(t, winner.Operator, *fresh.CheckInOperator)
	require.WithinDuration(t, winner.CheckedInAt, *fresh.CheckedInAt, time.Second)
}
