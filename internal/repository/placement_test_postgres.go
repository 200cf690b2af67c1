package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Mailfleet/mailfleet/internal/domain"
)

const placementTestColumns = `id, domain_id, filter_phrase, status, seed_emails,
	overall_score, inbox_percent, spam_percent, created_at, completed_at, updated_at`

// PlacementTestRepository implements domain.PlacementTestRepository
// using PostgreSQL
type PlacementTestRepository struct {
	systemDB *sql.DB
}

// NewPlacementTestRepository creates a new PlacementTestRepository instance
func NewPlacementTestRepository(db *sql.DB) domain.PlacementTestRepository {
	return &PlacementTestRepository{
		systemDB: db,
	}
}

// Create stores a freshly started placement test
func (r *PlacementTestRepository) Create(ctx context.Context, test *domain.PlacementTest) error {
	if err := test.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO placement_tests (` + placementTestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.systemDB.ExecContext(ctx, query,
		test.ID,
		test.DomainID,
		test.FilterPhrase,
		string(test.Status),
		test.SeedEmails,
		test.OverallScore,
		test.InboxPercent,
		test.SpamPercent,
		test.CreatedAt,
		completedAt(test),
		test.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create placement test: %w", err)
	}
	return nil
}

// GetByID retrieves a placement test by its provider id
func (r *PlacementTestRepository) GetByID(ctx context.Context, id string) (*domain.PlacementTest, error) {
	query := `SELECT ` + placementTestColumns + ` FROM placement_tests WHERE id = $1`
	row := r.systemDB.QueryRowContext(ctx, query, id)
	test, err := scanPlacementTest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.ErrNotFound{Entity: "placement test", ID: id}
		}
		return nil, fmt.Errorf("failed to get placement test: %w", err)
	}
	return test, nil
}

// GetActiveByDomain returns the domain's one non-completed test
func (r *PlacementTestRepository) GetActiveByDomain(ctx context.Context, domainID string) (*domain.PlacementTest, error) {
	query := `
		SELECT ` + placementTestColumns + `
		FROM placement_tests
		WHERE domain_id = $1 AND status != $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	row := r.systemDB.QueryRowContext(ctx, query, domainID, string(domain.TestStatusCompleted))
	test, err := scanPlacementTest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.ErrNotFound{Entity: "active placement test", ID: domainID}
		}
		return nil, fmt.Errorf("failed to get active placement test: %w", err)
	}
	return test, nil
}

// Update persists result ingest. Completed tests are immutable: the
// guard in the WHERE clause refuses to touch one, and the caller sees a
// conflict.
func (r *PlacementTestRepository) Update(ctx context.Context, test *domain.PlacementTest) error {
	if err := test.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE placement_tests SET
			status = $2,
			seed_emails = $3,
			overall_score = $4,
			inbox_percent = $5,
			spam_percent = $6,
			completed_at = $7,
			updated_at = $8
		WHERE id = $1 AND status != $9
	`
	result, err := r.systemDB.ExecContext(ctx, query,
		test.ID,
		string(test.Status),
		test.SeedEmails,
		test.OverallScore,
		test.InboxPercent,
		test.SpamPercent,
		completedAt(test),
		test.UpdatedAt,
		string(domain.TestStatusCompleted),
	)
	if err != nil {
		return fmt.Errorf("failed to update placement test: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := r.systemDB.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM placement_tests WHERE id = $1)", test.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check placement test existence: %w", err)
		}
		if !exists {
			return &domain.ErrNotFound{Entity: "placement test", ID: test.ID}
		}
		return domain.NewConflictError("placement test", test.ID)
	}
	return nil
}

// ListByDomain retrieves a domain's tests, newest first
func (r *PlacementTestRepository) ListByDomain(ctx context.Context, domainID string, limit int) ([]*domain.PlacementTest, error) {
	if limit <= 0 {
		limit = domain.MaxTestHistory
	}
	query := `
		SELECT ` + placementTestColumns + `
		FROM placement_tests
		WHERE domain_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.systemDB.QueryContext(ctx, query, domainID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list placement tests: %w", err)
	}
	defer rows.Close()

	var tests []*domain.PlacementTest
	for rows.Next() {
		test, err := scanPlacementTest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan placement test: %w", err)
		}
		tests = append(tests, test)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tests, nil
}

func completedAt(t *domain.PlacementTest) sql.NullTime {
	if t.CompletedAt == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t.CompletedAt, Valid: true}
}

func scanPlacementTest(row rowScanner) (*domain.PlacementTest, error) {
	var test domain.PlacementTest
	var status string
	var filterPhrase sql.NullString
	var completed sql.NullTime

	err := row.Scan(
		&test.ID,
		&test.DomainID,
		&filterPhrase,
		&status,
		&test.SeedEmails,
		&test.OverallScore,
		&test.InboxPercent,
		&test.SpamPercent,
		&test.CreatedAt,
		&completed,
		&test.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	test.Status = domain.TestStatus(status)
	test.FilterPhrase = filterPhrase.String
	if completed.Valid {
		at := completed.Time
		test.CompletedAt = &at
	}
	return &test, nil
}
