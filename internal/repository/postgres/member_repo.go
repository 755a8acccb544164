package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bmmregistration/internal/domain"
)

type memberRepository struct {
	DB *sql.DB
}

// NewMemberRepository returns the postgres-backed member store.
func NewMemberRepository(db *sql.DB) domain.MemberRepository {
	return &memberRepository{
		DB: db,
	}
}

const memberColumns = `
	id, event_id, membership_number, name, email, mobile, region, forum,
	access_token, ticket_token, stage, attendance, attendance_decided_at,
	preferred_venue, preferred_time, preferred_format,
	special_vote_eligible, special_vote_requested, special_vote_status,
	assigned_venue, assigned_session, assigned_at,
	checked_in, checked_in_at, check_in_method, check_in_venue, check_in_operator,
	ticket_status, ticket_issued_at, data_source, last_synced_at,
	registration_data, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (*domain.Member, error) {
	m := &domain.Member{}
	var (
		ticketToken, preferredVenue, preferredTime, preferredFormat sql.NullString
		assignedVenue, assignedSession                              sql.NullString
		checkInMethod, checkInVenue, checkInOperator                sql.NullString
		specialVoteStatus, ticketStatus, dataSource                 sql.NullString
		decidedAt, assignedAt, checkedInAt                          sql.NullTime
		ticketIssuedAt, lastSyncedAt                                sql.NullTime
		regData                                                     []byte
	)
	err := row.Scan(
		&m.ID, &m.EventID, &m.MembershipNumber, &m.Name, &m.Email, &m.Mobile, &m.Region, &m.Forum,
		&m.AccessToken, &ticketToken, &m.Stage, &m.Attendance, &decidedAt,
		&preferredVenue, &preferredTime, &preferredFormat,
		&m.SpecialVoteEligible, &m.SpecialVoteRequested, &specialVoteStatus,
		&assignedVenue, &assignedSession, &assignedAt,
		&m.CheckedIn, &checkedInAt, &checkInMethod, &checkInVenue, &checkInOperator,
		&ticketStatus, &ticketIssuedAt, &dataSource, &lastSyncedAt,
		&regData, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	if ticketToken.Valid {
		m.TicketToken = &ticketToken.String
	}
	if decidedAt.Valid {
		m.AttendanceDecidedAt = &decidedAt.Time
	}
	if preferredVenue.Valid {
		m.PreferredVenue = &preferredVenue.String
	}
	if preferredTime.Valid {
		m.PreferredTime = &preferredTime.String
	}
	if preferredFormat.Valid {
		m.PreferredFormat = &preferredFormat.String
	}
	if specialVoteStatus.Valid {
		m.SpecialVoteStatus = domain.SpecialVoteStatus(specialVoteStatus.String)
	}
	if assignedVenue.Valid {
		m.AssignedVenue = &assignedVenue.String
	}
	if assignedSession.Valid {
		m.AssignedSession = &assignedSession.String
	}
	if assignedAt.Valid {
		m.AssignedAt = &assignedAt.Time
	}
	if checkedInAt.Valid {
		m.CheckedInAt = &checkedInAt.Time
	}
	if checkInMethod.Valid {
		m.CheckInMethod = &checkInMethod.String
	}
	if checkInVenue.Valid {
		m.CheckInVenue = &checkInVenue.String
	}
	if checkInOperator.Valid {
		m.CheckInOperator = &checkInOperator.String
	}
	if ticketStatus.Valid {
		m.TicketStatus = domain.TicketStatus(ticketStatus.String)
	}
	if ticketIssuedAt.Valid {
		m.TicketIssuedAt = &ticketIssuedAt.Time
	}
	if dataSource.Valid {
		m.DataSource = dataSource.String
	}
	if lastSyncedAt.Valid {
		m.LastSyncedAt = &lastSyncedAt.Time
	}
	if len(regData) > 0 {
		if err := json.Unmarshal(regData, &m.RegistrationData); err != nil {
			return nil, fmt.Errorf("decode registration_data: %w", err)
		}
	}
	if m.RegistrationData == nil {
		m.RegistrationData = map[string]string{}
	}
	return m, nil
}

func marshalRegistrationData(m *domain.Member) ([]byte, error) {
	data := m.RegistrationData
	if data == nil {
		data = map[string]string{}
	}
	return json.Marshal(data)
}

func (r *memberRepository) Create(ctx context.Context, m *domain.Member) error {
	regData, err := marshalRegistrationData(m)
	if err != nil {
		return fmt.Errorf("encode registration_data: %w", err)
	}
	query := `
		INSERT INTO members (
			event_id, membership_number, name, email, mobile, region, forum,
			access_token, stage, attendance, data_source, registration_data,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		m.EventID, m.MembershipNumber, m.Name, m.Email, m.Mobile, m.Region, m.Forum,
		m.AccessToken, m.Stage, m.Attendance, m.DataSource, regData,
		m.CreatedAt, m.UpdatedAt,
	).Scan(&m.ID)
}

func (r *memberRepository) GetByID(ctx context.Context, eventID, memberID string) (*domain.Member, error) {
	query := `SELECT` + memberColumns + `
		FROM members
		WHERE id = $1 AND event_id = $2
	`
	return scanMember(r.DB.QueryRowContext(ctx, query, memberID, eventID))
}

func (r *memberRepository) GetByMembershipNumber(ctx context.Context, eventID, number string) (*domain.Member, error) {
	query := `SELECT` + memberColumns + `
		FROM members
		WHERE membership_number = $1 AND event_id = $2
	`
	return scanMember(r.DB.QueryRowContext(ctx, query, number, eventID))
}

func (r *memberRepository) GetByAccessToken(ctx context.Context, eventID, token string) (*domain.Member, error) {
	query := `SELECT` + memberColumns + `
		FROM members
		WHERE access_token = $1 AND event_id = $2
	`
	return scanMember(r.DB.QueryRowContext(ctx, query, token, eventID))
}

func (r *memberRepository) GetByTicketToken(ctx context.Context, eventID, token string) (*domain.Member, error) {
	query := `SELECT` + memberColumns + `
		FROM members
		WHERE ticket_token = $1 AND event_id = $2
	`
	return scanMember(r.DB.QueryRowContext(ctx, query, token, eventID))
}

// UpdateFromStage writes lifecycle and derived fields guarded by the
// stage the caller read. The WHERE clause is the compare-and-swap: if
// another writer moved the stage first, zero rows match and the caller
// gets ErrStaleStage. registration_data is merged additively so keys
// written by other paths survive.
func (r *memberRepository) UpdateFromStage(ctx context.Context, m *domain.Member, expected domain.Stage) error {
	regData, err := marshalRegistrationData(m)
	if err != nil {
		return fmt.Errorf("encode registration_data: %w", err)
	}
	query := `
		UPDATE members SET
			stage = $1,
			attendance = $2,
			attendance_decided_at = $3,
			preferred_venue = $4,
			preferred_time = $5,
			preferred_format = $6,
			special_vote_eligible = $7,
			special_vote_requested = $8,
			special_vote_status = $9,
			assigned_venue = $10,
			assigned_session = $11,
			assigned_at = $12,
			ticket_token = $13,
			ticket_status = $14,
			ticket_issued_at = $15,
			registration_data = registration_data || $16,
			updated_at = $17
		WHERE id = $18 AND event_id = $19 AND stage = $20
	`
	res, err := r.DB.ExecContext(ctx, query,
		m.Stage, m.Attendance, m.AttendanceDecidedAt,
		m.PreferredVenue, m.PreferredTime, m.PreferredFormat,
		m.SpecialVoteEligible, m.SpecialVoteRequested, string(m.SpecialVoteStatus),
		m.AssignedVenue, m.AssignedSession, m.AssignedAt,
		m.TicketToken, string(m.TicketStatus), m.TicketIssuedAt,
		regData, time.Now(),
		m.ID, m.EventID, expected,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Distinguish a lost race from a missing row.
		if _, err := r.GetByID(ctx, m.EventID, m.ID); err != nil {
			return err
		}
		return domain.ErrStaleStage
	}
	return nil
}

// CheckIn is the at-most-once check-in write: the checked_in = FALSE
// predicate guarantees exactly one of any set of concurrent attempts
// mutates the row.
func (r *memberRepository) CheckIn(ctx context.Context, memberID string, at time.Time, method, venue, operator string, provenance map[string]string) (bool, error) {
	if provenance == nil {
		provenance = map[string]string{}
	}
	prov, err := json.Marshal(provenance)
	if err != nil {
		return false, fmt.Errorf("encode provenance: %w", err)
	}
	query := `
		UPDATE members SET
			checked_in = TRUE,
			checked_in_at = $2,
			check_in_method = $3,
			check_in_venue = $4,
			check_in_operator = $5,
			ticket_status = $6,
			registration_data = registration_data || $7,
			updated_at = $8
		WHERE id = $1 AND checked_in = FALSE
	`
	res, err := r.DB.ExecContext(ctx, query,
		memberID, at, method, venue, operator,
		string(domain.TicketUsed), prov, time.Now(),
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// UpdateProfile writes contact/profile fields and sync provenance only.
// Lifecycle, check-in, and ticket columns are deliberately absent from
// the SET list.
func (r *memberRepository) UpdateProfile(ctx context.Context, m *domain.Member) error {
	regData, err := marshalRegistrationData(m)
	if err != nil {
		return fmt.Errorf("encode registration_data: %w", err)
	}
	query := `
		UPDATE members SET
			name = $1,
			email = $2,
			mobile = $3,
			region = $4,
			forum = $5,
			data_source = $6,
			last_synced_at = $7,
			registration_data = registration_data || $8,
			updated_at = $9
		WHERE id = $10 AND event_id = $11
	`
	res, err := r.DB.ExecContext(ctx, query,
		m.Name, m.Email, m.Mobile, m.Region, m.Forum,
		m.DataSource, m.LastSyncedAt, regData, time.Now(),
		m.ID, m.EventID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}
