package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"bmmregistration/internal/domain"
)

type auditRepository struct {
	DB *sql.DB
}

// NewAuditRepository returns the postgres-backed append-only audit store.
func NewAuditRepository(db *sql.DB) domain.AuditRepository {
	return &auditRepository{
		DB: db,
	}
}

func (r *auditRepository) Create(ctx context.Context, entry *domain.AuditEntry) error {
	query := `
		INSERT INTO audit_entries (id, event_id, member_id, actor, changed_fields, before, after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.DB.ExecContext(ctx, query,
		entry.ID, entry.EventID, entry.MemberID, entry.Actor,
		pq.Array(entry.ChangedFields), []byte(entry.Before), []byte(entry.After), entry.CreatedAt,
	)
	return err
}

func (r *auditRepository) ListByMemberID(ctx context.Context, eventID, memberID string, p domain.PaginationParams) ([]*domain.AuditEntry, error) {
	query := `
		SELECT id, event_id, member_id, actor, changed_fields, before, after, created_at
		FROM audit_entries
		WHERE event_id = $1 AND member_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID, memberID, p.Limit(), p.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*domain.AuditEntry, 0)
	for rows.Next() {
		e := &domain.AuditEntry{}
		var before, after []byte
		if err := rows.Scan(
			&e.ID, &e.EventID, &e.MemberID, &e.Actor,
			pq.Array(&e.ChangedFields), &before, &after, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		e.Before = before
		e.After = after
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
