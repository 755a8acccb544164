package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"bmmregistration/internal/domain"
)

type auditRecorder struct {
	repo   domain.AuditRepository
	logger *slog.Logger
}

// NewAuditRecorder creates the append-only audit trail recorder.
func NewAuditRecorder(repo domain.AuditRepository, logger *slog.Logger) domain.AuditRecorder {
	return &auditRecorder{
		repo:   repo,
		logger: logger,
	}
}

// Record appends a before/after snapshot pair for a field change.
// Best-effort: a failed write is logged and never propagated, so audit
// can never unwind a committed transition.
func (a *auditRecorder) Record(ctx context.Context, eventID, memberID, actor string, before, after map[string]string) {
	changed := changedFields(before, after)
	if len(changed) == 0 {
		return
	}
	beforeJSON, err := json.Marshal(before)
	if err != nil {
		a.logger.ErrorContext(ctx, "failed to encode audit before snapshot", "member_id", memberID, "err", err)
		return
	}
	afterJSON, err := json.Marshal(after)
	if err != nil {
		a.logger.ErrorContext(ctx, "failed to encode audit after snapshot", "member_id", memberID, "err", err)
		return
	}
	entry := &domain.AuditEntry{
		ID:            uuid.NewString(),
		EventID:       eventID,
		MemberID:      memberID,
		Actor:         actor,
		ChangedFields: changed,
		Before:        beforeJSON,
		After:         afterJSON,
		CreatedAt:     time.Now(),
	}
	if err := a.repo.Create(ctx, entry); err != nil {
		a.logger.ErrorContext(ctx, "failed to write audit entry",
			"member_id", memberID, "event_id", eventID, "fields", changed, "err", err)
	}
}

func (a *auditRecorder) ListByMember(ctx context.Context, eventID, memberID string, p domain.PaginationParams) ([]*domain.AuditEntry, error) {
	entries, err := a.repo.ListByMemberID(ctx, eventID, memberID, p)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}

// changedFields returns the sorted union of keys whose values differ
// between the snapshots.
func changedFields(before, after map[string]string) []string {
	seen := map[string]struct{}{}
	for k := range before {
		seen[k] = struct{}{}
	}
	for k := range after {
		seen[k] = struct{}{}
	}
	var out []string
	for k := range seen {
		if before[k] != after[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
