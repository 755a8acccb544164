package postgres

import (
	"context"
	"database/sql"
	"time"

	"bmmregistration/internal/domain"
)

type ticketOutboxRepository struct {
	DB *sql.DB
}

// NewTicketOutboxRepository returns the postgres-backed ticket-email
// outbox store.
func NewTicketOutboxRepository(db *sql.DB) domain.TicketEmailRepository {
	return &ticketOutboxRepository{
		DB: db,
	}
}

func (r *ticketOutboxRepository) Create(ctx context.Context, t *domain.TicketEmail) error {
	query := `
		INSERT INTO ticket_emails (id, event_id, member_id, template, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.DB.ExecContext(ctx, query,
		t.ID, t.EventID, t.MemberID, t.Template, t.Status, t.Attempts, t.CreatedAt,
	)
	return err
}

func (r *ticketOutboxRepository) ListPending(ctx context.Context, limit int) ([]*domain.TicketEmail, error) {
	query := `
		SELECT id, event_id, member_id, template, status, attempts, last_error, created_at, sent_at
		FROM ticket_emails
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2
	`
	rows, err := r.DB.QueryContext(ctx, query, domain.TicketEmailPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.TicketEmail, 0)
	for rows.Next() {
		t := &domain.TicketEmail{}
		var lastError sql.NullString
		var sentAt sql.NullTime
		if err := rows.Scan(
			&t.ID, &t.EventID, &t.MemberID, &t.Template, &t.Status,
			&t.Attempts, &lastError, &t.CreatedAt, &sentAt,
		); err != nil {
			return nil, err
		}
		if lastError.Valid {
			t.LastError = &lastError.String
		}
		if sentAt.Valid {
			t.SentAt = &sentAt.Time
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkSent is conditional on the row still being PENDING so concurrent
// dispatchers cannot both claim it.
func (r *ticketOutboxRepository) MarkSent(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `
		UPDATE ticket_emails
		SET status = $1, sent_at = $2, attempts = attempts + 1
		WHERE id = $3 AND status = $4
	`
	res, err := r.DB.ExecContext(ctx, query, domain.TicketEmailSent, at, id, domain.TicketEmailPending)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *ticketOutboxRepository) MarkFailed(ctx context.Context, id string, lastError string) error {
	query := `
		UPDATE ticket_emails
		SET status = $1, last_error = $2, attempts = attempts + 1
		WHERE id = $3 AND status = $4
	`
	_, err := r.DB.ExecContext(ctx, query, domain.TicketEmailFailed, lastError, id, domain.TicketEmailPending)
	return err
}
