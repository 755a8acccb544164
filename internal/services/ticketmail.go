package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bmmregistration/internal/domain"
)

// TicketMailDispatcher drains the ticket-email outbox. It is the only
// component that talks to the mail provider, so a crash between a
// confirmed transition and delivery leaves a PENDING row to pick up
// later rather than a lost email.
type TicketMailDispatcher struct {
	outbox   domain.TicketEmailRepository
	members  domain.MemberRepository
	events   domain.EventRepository
	renderer domain.EmailTemplateRenderer
	mailer   domain.Mailer
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

// NewTicketMailDispatcher creates the outbox dispatcher.
func NewTicketMailDispatcher(
	outbox domain.TicketEmailRepository,
	members domain.MemberRepository,
	events domain.EventRepository,
	renderer domain.EmailTemplateRenderer,
	mailer domain.Mailer,
	logger *slog.Logger,
	interval time.Duration,
) *TicketMailDispatcher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &TicketMailDispatcher{
		outbox:   outbox,
		members:  members,
		events:   events,
		renderer: renderer,
		mailer:   mailer,
		logger:   logger,
		interval: interval,
		batch:    50,
	}
}

// Start runs the dispatch loop until ctx is cancelled.
func (d *TicketMailDispatcher) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := d.DispatchPending(ctx); err != nil {
					d.logger.ErrorContext(ctx, "ticket email dispatch pass failed", "err", err)
				}
			}
		}
	}()
}

// DispatchPending sends one batch of pending ticket emails and returns
// how many were sent. Per-row failures are recorded on the row and do
// not stop the batch.
func (d *TicketMailDispatcher) DispatchPending(ctx context.Context) (int, error) {
	rows, err := d.outbox.ListPending(ctx, d.batch)
	if err != nil {
		return 0, fmt.Errorf("list pending ticket emails: %w", err)
	}
	sent := 0
	for _, row := range rows {
		if err := d.dispatchOne(ctx, row); err != nil {
			d.logger.WarnContext(ctx, "ticket email failed",
				"outbox_id", row.ID, "member_id", row.MemberID, "err", err)
			if ferr := d.outbox.MarkFailed(ctx, row.ID, err.Error()); ferr != nil {
				d.logger.ErrorContext(ctx, "failed to mark ticket email failed", "outbox_id", row.ID, "err", ferr)
			}
			continue
		}
		sent++
	}
	return sent, nil
}

func (d *TicketMailDispatcher) dispatchOne(ctx context.Context, row *domain.TicketEmail) error {
	m, err := d.members.GetByID(ctx, row.EventID, row.MemberID)
	if err != nil {
		return fmt.Errorf("load member: %w", err)
	}
	if m.Email == "" {
		return fmt.Errorf("member %s has no email address", m.ID)
	}
	event, err := d.events.GetByID(ctx, row.EventID)
	if err != nil {
		return fmt.Errorf("load event: %w", err)
	}

	var data any
	switch row.Template {
	case "special_vote_approved":
		data = &domain.SpecialVoteEmailData{
			Name:      m.Name,
			Email:     m.Email,
			EventName: event.Name,
		}
	default:
		td := &domain.TicketEmailData{
			Name:      m.Name,
			Email:     m.Email,
			EventName: event.Name,
		}
		if m.AssignedVenue != nil {
			td.Venue = *m.AssignedVenue
		}
		if m.AssignedSession != nil {
			td.Session = *m.AssignedSession
		}
		if m.TicketToken != nil {
			td.TicketToken = *m.TicketToken
		}
		data = td
	}

	subject, htmlBody, textBody, err := d.renderer.Render(row.Template, data)
	if err != nil {
		return fmt.Errorf("render %s template: %w", row.Template, err)
	}
	if err := d.mailer.Send(m.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("send ticket email: %w", err)
	}

	claimed, err := d.outbox.MarkSent(ctx, row.ID, time.Now())
	if err != nil {
		return fmt.Errorf("mark ticket email sent: %w", err)
	}
	if !claimed {
		// Another dispatcher got here first; the duplicate send is the
		// price of at-least-once delivery.
		d.logger.InfoContext(ctx, "ticket email already claimed", "outbox_id", row.ID)
	}
	return nil
}
