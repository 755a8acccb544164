package postgres

import (
	"context"
	"testing"
	"time"

	"bmmregistration/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestSyncJobRepository_MarkRunning(t *testing.T) {
	ctx := context.Background()
	startedAt := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		affected    int64
		wantClaimed bool
	}{
		{name: "pending job claimed", affected: 1, wantClaimed: true},
		{name: "already running or finished", affected: 0, wantClaimed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectExec(`UPDATE sync_jobs\s+SET status = \$1, started_at = \$2\s+WHERE id = \$3 AND status = \$4`).
				WithArgs(string(domain.SyncJobRunning), startedAt, "job-1", string(domain.SyncJobPending)).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			repo := NewSyncJobRepository(db)
			claimed, err := repo.MarkRunning(ctx, "job-1", startedAt)
			require.NoError(t, err)
			require.Equal(t, tt.wantClaimed, claimed)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSyncJobRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		created := time.Date(2026, 9, 1, 7, 0, 0, 0, time.UTC)
		rows := sqlmock.NewRows([]string{
			"id", "event_id", "type", "source", "status", "total", "processed",
			"errors", "skipped", "started_at", "finished_at", "created_at",
		}).AddRow("job-1", "ev-1", "email_members", "s3://list.json", string(domain.SyncJobRunning),
			120, 40, 1, 2, created.Add(time.Minute), nil, created)

		mock.ExpectQuery(`SELECT .* FROM sync_jobs\s+WHERE id = \$1`).
			WithArgs("job-1").
			WillReturnRows(rows)

		repo := NewSyncJobRepository(db)
		job, err := repo.GetByID(ctx, "job-1")
		require.NoError(t, err)
		require.Equal(t, domain.SyncJobRunning, job.Status)
		require.Equal(t, 120, job.Total)
		require.Equal(t, 40, job.Processed)
		require.NotNil(t, job.StartedAt)
		require.Nil(t, job.FinishedAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT .* FROM sync_jobs`).
			WithArgs("job-x").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		repo := NewSyncJobRepository(db)
		_, err = repo.GetByID(ctx, "job-x")
		require.ErrorIs(t, err, domain.ErrJobNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTicketOutboxRepository_MarkSent(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		affected    int64
		wantClaimed bool
	}{
		{name: "pending row claimed", affected: 1, wantClaimed: true},
		{name: "row already sent", affected: 0, wantClaimed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectExec(`UPDATE ticket_emails\s+SET status = \$1, sent_at = \$2, attempts = attempts \+ 1`).
				WithArgs(string(domain.TicketEmailSent), at, "te-1", string(domain.TicketEmailPending)).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			repo := NewTicketOutboxRepository(db)
			claimed, err := repo.MarkSent(ctx, "te-1", at)
			require.NoError(t, err)
			require.Equal(t, tt.wantClaimed, claimed)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
