package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bmmregistration/internal/domain"
	"bmmregistration/internal/queue"
)

// SyncJobTopic is the queue topic sync jobs are enqueued on.
const SyncJobTopic = "sync-jobs"

type syncJobService struct {
	jobs    domain.SyncJobRepository
	members domain.MemberRepository
	source  domain.MemberImportSource
	queue   queue.Queue
	logger  *slog.Logger
}

// NewSyncJobService creates the sync job processor.
func NewSyncJobService(
	jobs domain.SyncJobRepository,
	members domain.MemberRepository,
	source domain.MemberImportSource,
	q queue.Queue,
	logger *slog.Logger,
) domain.SyncJobService {
	return &syncJobService{
		jobs:    jobs,
		members: members,
		source:  source,
		queue:   q,
		logger:  logger,
	}
}

// Start subscribes the processor to the work queue. Payloads are job ids;
// delivery is at-least-once, which Process tolerates through its
// PENDING->RUNNING claim.
func (s *syncJobService) Start(ctx context.Context) error {
	return s.queue.Consume(ctx, SyncJobTopic, func(ctx context.Context, payload []byte) error {
		err := s.Process(ctx, string(payload))
		if errors.Is(err, domain.ErrJobAlreadyProcessed) {
			s.logger.InfoContext(ctx, "skipping re-delivered sync job", "job_id", string(payload))
			return nil
		}
		return err
	})
}

func (s *syncJobService) Trigger(ctx context.Context, eventID, jobType, source string) (*domain.SyncJob, error) {
	if eventID == "" || source == "" {
		return nil, domain.ErrInvalidInput
	}
	job := &domain.SyncJob{
		ID:        uuid.NewString(),
		EventID:   eventID,
		Type:      jobType,
		Source:    source,
		Status:    domain.SyncJobPending,
		CreatedAt: time.Now(),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create sync job: %w", err)
	}
	if err := s.queue.Enqueue(ctx, SyncJobTopic, []byte(job.ID)); err != nil {
		// The job row stays PENDING and visible; the caller can re-trigger.
		return nil, fmt.Errorf("enqueue sync job: %w", err)
	}
	return job, nil
}

func (s *syncJobService) GetByID(ctx context.Context, jobID string) (*domain.SyncJob, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("get sync job: %w", err)
	}
	return job, nil
}

// Process runs one job to a terminal state. Record failures are isolated:
// they increment the error counter and processing continues. Only a
// failure to fetch the source record set fails the whole job.
func (s *syncJobService) Process(ctx context.Context, jobID string) error {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("get sync job: %w", err)
	}

	claimed, err := s.jobs.MarkRunning(ctx, jobID, time.Now())
	if err != nil {
		return fmt.Errorf("claim sync job: %w", err)
	}
	if !claimed {
		return domain.ErrJobAlreadyProcessed
	}

	records, err := s.source.Fetch(ctx, job.Source)
	if err != nil {
		s.logger.ErrorContext(ctx, "sync job source fetch failed", "job_id", jobID, "source", job.Source, "err", err)
		if ferr := s.jobs.MarkFinished(ctx, jobID, domain.SyncJobFailed, time.Now()); ferr != nil {
			s.logger.ErrorContext(ctx, "failed to mark sync job failed", "job_id", jobID, "err", ferr)
		}
		return fmt.Errorf("fetch source: %w", err)
	}

	// Total is written before the first progress increment so a
	// concurrent status read never sees total < processed.
	if err := s.jobs.SetTotal(ctx, jobID, len(records)); err != nil {
		s.logger.ErrorContext(ctx, "failed to set sync job total", "job_id", jobID, "err", err)
		if ferr := s.jobs.MarkFinished(ctx, jobID, domain.SyncJobFailed, time.Now()); ferr != nil {
			s.logger.ErrorContext(ctx, "failed to mark sync job failed", "job_id", jobID, "err", ferr)
		}
		return fmt.Errorf("set job total: %w", err)
	}

	var processed, errCount, skipped int
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			if ferr := s.jobs.MarkFinished(ctx, jobID, domain.SyncJobFailed, time.Now()); ferr != nil {
				s.logger.ErrorContext(ctx, "failed to mark sync job failed", "job_id", jobID, "err", ferr)
			}
			return err
		}
		skip, err := s.applyRecord(ctx, job, rec)
		processed++
		if err != nil {
			errCount++
			s.logger.WarnContext(ctx, "sync record failed",
				"job_id", jobID, "membership_number", rec.MembershipNumber, "err", err)
		}
		if skip {
			skipped++
		}
		if err := s.jobs.UpdateProgress(ctx, jobID, processed, errCount, skipped); err != nil {
			s.logger.ErrorContext(ctx, "failed to update sync job progress", "job_id", jobID, "err", err)
		}
	}

	if err := s.jobs.MarkFinished(ctx, jobID, domain.SyncJobSucceeded, time.Now()); err != nil {
		return fmt.Errorf("finish sync job: %w", err)
	}
	s.logger.InfoContext(ctx, "sync job finished",
		"job_id", jobID, "processed", processed, "errors", errCount, "skipped", skipped)
	return nil
}

// applyRecord applies one external record idempotently. Unknown members
// are created as INVITED; known members get contact/profile updates only.
// Region and forum feed venue assignment and eligibility, so for members
// already past INVITED they are left untouched and the record counts as
// skipped. Stage, check-in, and ticket fields are never written by this
// path.
func (s *syncJobService) applyRecord(ctx context.Context, job *domain.SyncJob, rec *domain.MemberImportRecord) (skipped bool, err error) {
	if rec.MembershipNumber == "" {
		return false, domain.ErrInvalidInput
	}
	m, err := s.members.GetByMembershipNumber(ctx, job.EventID, rec.MembershipNumber)
	if err != nil {
		if !errors.Is(err, domain.ErrMemberNotFound) {
			return false, fmt.Errorf("lookup member: %w", err)
		}
		return false, s.createFromRecord(ctx, job, rec)
	}

	now := time.Now()
	m.Name = rec.Name
	m.Email = rec.Email
	m.Mobile = rec.Mobile
	m.DataSource = job.Type
	m.LastSyncedAt = &now
	if rec.Employer != "" {
		m.RegistrationData["employer"] = rec.Employer
	}
	if m.Stage.Decided() {
		skipped = true
		s.logger.InfoContext(ctx, "sync skipping lifecycle-adjacent fields for decided member",
			"job_id", job.ID, "member_id", m.ID, "stage", m.Stage)
	} else {
		m.Region = rec.Region
		m.Forum = rec.Forum
	}
	if err := s.members.UpdateProfile(ctx, m); err != nil {
		return skipped, fmt.Errorf("update member profile: %w", err)
	}
	return skipped, nil
}

func (s *syncJobService) createFromRecord(ctx context.Context, job *domain.SyncJob, rec *domain.MemberImportRecord) error {
	token, err := newCapabilityToken()
	if err != nil {
		return err
	}
	now := time.Now()
	m := domain.NewMember(job.EventID, rec.MembershipNumber, rec.Name, rec.Region, rec.Forum, token, now)
	m.Email = rec.Email
	m.Mobile = rec.Mobile
	m.DataSource = job.Type
	m.LastSyncedAt = &now
	if rec.Employer != "" {
		m.RegistrationData["employer"] = rec.Employer
	}
	if err := s.members.Create(ctx, m); err != nil {
		return fmt.Errorf("create member: %w", err)
	}
	return nil
}
