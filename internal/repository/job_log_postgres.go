package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Mailfleet/mailfleet/internal/domain"
)

// JobLogRepository implements domain.JobLogRepository using PostgreSQL.
// The log is an append-only audit of job attempts, purged after the
// retention period.
type JobLogRepository struct {
	systemDB *sql.DB
}

// NewJobLogRepository creates a new JobLogRepository instance
func NewJobLogRepository(db *sql.DB) domain.JobLogRepository {
	return &JobLogRepository{
		systemDB: db,
	}
}

// Append stores one attempt record
func (r *JobLogRepository) Append(ctx context.Context, entry *domain.JobLogEntry) error {
	query := `
		INSERT INTO job_log (id, job_id, type, domain_id, status, duration_ms, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.systemDB.ExecContext(ctx, query,
		entry.ID,
		entry.JobID,
		string(entry.Type),
		entry.DomainID,
		string(entry.Status),
		entry.DurationMS,
		entry.Error,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append job log entry: %w", err)
	}
	return nil
}

// ListByJob returns a job's attempt records, oldest first
func (r *JobLogRepository) ListByJob(ctx context.Context, jobID string) ([]*domain.JobLogEntry, error) {
	query := `
		SELECT id, job_id, type, domain_id, status, duration_ms, error, created_at
		FROM job_log
		WHERE job_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.systemDB.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list job log entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.JobLogEntry
	for rows.Next() {
		var entry domain.JobLogEntry
		var jobType, status string
		var domainID, errMsg sql.NullString
		if err := rows.Scan(&entry.ID, &entry.JobID, &jobType, &domainID,
			&status, &entry.DurationMS, &errMsg, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job log entry: %w", err)
		}
		entry.Type = domain.JobType(jobType)
		entry.Status = domain.JobLogStatus(status)
		entry.DomainID = domainID.String
		entry.Error = errMsg.String
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// PurgeOlderThan deletes entries created before the cutoff and returns
// how many were removed
func (r *JobLogRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.systemDB.ExecContext(ctx,
		"DELETE FROM job_log WHERE created_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge job log: %w", err)
	}
	purged, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged job log entries: %w", err)
	}
	return purged, nil
}
