package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"bmmregistration/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (name, code, date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, e.Name, e.Code, e.Date, e.CreatedAt, e.UpdatedAt).Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT id, name, code, date, created_at, updated_at
		FROM events
		WHERE id = $1
	`
	return r.scanEvent(r.DB.QueryRowContext(ctx, query, id))
}

func (r *eventRepository) GetByCode(ctx context.Context, code string) (*domain.Event, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	query := `
		SELECT id, name, code, date, created_at, updated_at
		FROM events
		WHERE code = $1
	`
	return r.scanEvent(r.DB.QueryRowContext(ctx, query, code))
}

func (r *eventRepository) scanEvent(row *sql.Row) (*domain.Event, error) {
	e := &domain.Event{}
	var dateNull sql.NullTime
	err := row.Scan(&e.ID, &e.Name, &e.Code, &dateNull, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if dateNull.Valid {
		e.Date = &dateNull.Time
	}
	return e, nil
}
