package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bmmregistration/internal/domain"
)

type eventService struct {
	events domain.EventRepository
	logger *slog.Logger
}

func NewEventService(events domain.EventRepository, logger *slog.Logger) domain.EventService {
	return &eventService{
		events: events,
		logger: logger,
	}
}

// Create provisions a new event. Codes are stored lowercase so lookup
// is case-insensitive for whoever types them at a kiosk.
func (s *eventService) Create(ctx context.Context, name, code string, date *time.Time) (*domain.Event, error) {
	name = strings.TrimSpace(name)
	code = strings.ToLower(strings.TrimSpace(code))
	if name == "" || code == "" {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now()
	e := domain.NewEvent(name, code, now, now)
	e.Date = date
	if err := s.events.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.logger.InfoContext(ctx, "event created", "event_id", e.ID, "code", e.Code)
	return e, nil
}

func (s *eventService) GetByCode(ctx context.Context, code string) (*domain.Event, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.ErrInvalidInput
	}
	e, err := s.events.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event by code: %w", err)
	}
	return e, nil
}
