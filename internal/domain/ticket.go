package domain

import (
	"context"
	"time"
)

// TicketEmailStatus tracks an outbox row's delivery state.
type TicketEmailStatus string

const (
	TicketEmailPending TicketEmailStatus = "PENDING"
	TicketEmailSent    TicketEmailStatus = "SENT"
	TicketEmailFailed  TicketEmailStatus = "FAILED"
)

// TicketEmail is a durable outbox row recording that a ticket email is
// owed to a member. ConfirmAttendance writes the row in the same step as
// the stage transition; a separate dispatcher delivers it. A crash
// between commit and dispatch leaves the row PENDING, not lost.
type TicketEmail struct {
	ID        string            `json:"id"`
	EventID   string            `json:"event_id"`
	MemberID  string            `json:"member_id"`
	Template  string            `json:"template"`
	Status    TicketEmailStatus `json:"status"`
	Attempts  int               `json:"attempts"`
	LastError *string           `json:"last_error,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	SentAt    *time.Time        `json:"sent_at,omitempty"`
}

// TicketEmailRepository defines storage operations for the ticket-email
// outbox.
type TicketEmailRepository interface {
	Create(ctx context.Context, t *TicketEmail) error
	ListPending(ctx context.Context, limit int) ([]*TicketEmail, error)
	// MarkSent is conditional on the row still being PENDING, so two
	// dispatchers racing on the same row send at most one email's worth
	// of state change.
	MarkSent(ctx context.Context, id string, at time.Time) (claimed bool, err error)
	MarkFailed(ctx context.Context, id string, lastError string) error
}

// Mailer sends emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with
// the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// TicketEmailData holds data for the ticket email template.
type TicketEmailData struct {
	Name        string
	Email       string
	EventName   string
	Venue       string
	Session     string
	TicketToken string
}

// SpecialVoteEmailData holds data for the special-vote approval notice.
type SpecialVoteEmailData struct {
	Name      string
	Email     string
	EventName string
}
