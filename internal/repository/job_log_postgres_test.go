package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mailfleet/mailfleet/internal/domain"
	"github.com/Mailfleet/mailfleet/internal/repository/testutil"
)

func TestJobLogRepository_Append(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewJobLogRepository(db)
	entry := &domain.JobLogEntry{
		ID:         uuid.New().String(),
		JobID:      "job-1",
		Type:       domain.JobTypeTest,
		DomainID:   "dom-1",
		Status:     domain.JobLogSuccess,
		DurationMS: 1250,
		CreatedAt:  time.Now().UTC(),
	}

	mock.ExpectExec(`INSERT INTO job_log`).
		WithArgs(entry.ID, entry.JobID, string(entry.Type), entry.DomainID,
			string(entry.Status), entry.DurationMS, entry.Error, entry.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Append(context.Background(), entry)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobLogRepository_ListByJob(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewJobLogRepository(db)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "job_id", "type", "domain_id", "status", "duration_ms", "error", "created_at"}).
		AddRow("e-1", "job-1", "test", "dom-1", "retry", int64(900), "placement test not completed yet", now.Add(-time.Hour)).
		AddRow("e-2", "job-1", "test", "dom-1", "success", int64(1100), nil, now)

	mock.ExpectQuery(`WHERE job_id = \$1`).
		WithArgs("job-1").
		WillReturnRows(rows)

	entries, err := repo.ListByJob(context.Background(), "job-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.JobLogRetry, entries[0].Status)
	assert.Equal(t, "placement test not completed yet", entries[0].Error)
	assert.Equal(t, domain.JobLogSuccess, entries[1].Status)
	assert.Empty(t, entries[1].Error)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobLogRepository_PurgeOlderThan(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewJobLogRepository(db)
	cutoff := time.Now().UTC().Add(-domain.JobLogTTL)

	mock.ExpectExec(`DELETE FROM job_log WHERE created_at < \$1`).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 42))

	purged, err := repo.PurgeOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(42), purged)

	assert.NoError(t, mock.ExpectationsWereMet())
}
