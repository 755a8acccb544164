package domain

import (
	"context"
	"time"
)

// Event represents one BMM event context. Members, sync jobs, and audit
// entries are all scoped to an event.
type Event struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Code      string     `json:"code"`
	Date      *time.Time `json:"date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewEvent returns a new Event with the given fields. ID is typically set by the repository on create.
func NewEvent(name, code string, createdAt, updatedAt time.Time) *Event {
	return &Event{
		Name:      name,
		Code:      code,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// EventRepository defines the interface for event storage
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	GetByCode(ctx context.Context, code string) (*Event, error)
}

// EventService provisions events and resolves the short codes handed
// out to members and venue operators.
type EventService interface {
	Create(ctx context.Context, name, code string, date *time.Time) (*Event, error)
	GetByCode(ctx context.Context, code string) (*Event, error)
}
