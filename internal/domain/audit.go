package domain

import (
	"context"
	"encoding/json"
	"time"
)

// AuditEntry is an immutable before/after snapshot of a financial or
// contact-field change on a member. Entries are appended once and never
// updated or deleted.
// swagger:model AuditEntry
type AuditEntry struct {
	ID            string          `json:"id"`
	EventID       string          `json:"event_id"`
	MemberID      string          `json:"member_id"`
	Actor         string          `json:"actor"`
	ChangedFields []string        `json:"changed_fields"`
	Before        json.RawMessage `json:"before"`
	After         json.RawMessage `json:"after"`
	CreatedAt     time.Time       `json:"created_at"`
}

// AuditRepository defines append-only storage for audit entries.
type AuditRepository interface {
	Create(ctx context.Context, entry *AuditEntry) error
	ListByMemberID(ctx context.Context, eventID, memberID string, p PaginationParams) ([]*AuditEntry, error)
}

// AuditRecorder observes mutating operations. Record is best-effort: a
// failed audit write is logged and never fails the primary transition.
type AuditRecorder interface {
	Record(ctx context.Context, eventID, memberID, actor string, before, after map[string]string)
	ListByMember(ctx context.Context, eventID, memberID string, p PaginationParams) ([]*AuditEntry, error)
}
