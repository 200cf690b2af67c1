package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/Mailfleet/mailfleet/internal/domain"
)

// domainColumns is the full column list, in insert order. next_test_at
// is denormalized from the schedule blob so the due-test sweep can hit
// an index instead of unpacking JSONB.
const domainColumns = `id, name, tenant_id, external_id, pool, class, status,
	sending, warmup, health_score, consecutive_low_scores, pool_entered_at,
	schedule, next_test_at, test_history, rotation_log, campaigns,
	health_metrics, version, created_at, updated_at`

// DomainRepository implements domain.DomainRepository using PostgreSQL
type DomainRepository struct {
	systemDB *sql.DB
}

// NewDomainRepository creates a new DomainRepository instance
func NewDomainRepository(db *sql.DB) domain.DomainRepository {
	return &DomainRepository{
		systemDB: db,
	}
}

// WithTransaction executes a function within a transaction. Pool
// transitions follow this pattern: lock the row with FOR UPDATE, apply
// the move and append the rotation event, commit. This keeps a rotation
// and a concurrent result ingest from interleaving on the same domain.
func (r *DomainRepository) WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.systemDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// Defer rollback - this will be a no-op if we successfully commit
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Create adds a new sending domain
func (r *DomainRepository) Create(ctx context.Context, d *domain.SendingDomain) error {
	if err := d.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO domains (` + domainColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`
	_, err := r.systemDB.ExecContext(ctx, query, domainArgs(d)...)
	if err != nil {
		return fmt.Errorf("failed to create domain: %w", err)
	}
	return nil
}

// GetByID retrieves a domain by its uuid
func (r *DomainRepository) GetByID(ctx context.Context, id string) (*domain.SendingDomain, error) {
	query := `SELECT ` + domainColumns + ` FROM domains WHERE id = $1`
	row := r.systemDB.QueryRowContext(ctx, query, id)
	d, err := scanDomain(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.ErrNotFound{Entity: "domain", ID: id}
		}
		return nil, fmt.Errorf("failed to get domain: %w", err)
	}
	return d, nil
}

// List retrieves domains matching the filter, oldest first
func (r *DomainRepository) List(ctx context.Context, filter domain.DomainFilter) ([]*domain.SendingDomain, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	builder := psql.Select(domainColumns).From("domains").OrderBy("created_at ASC")

	if filter.Pool != nil {
		builder = builder.Where(sq.Eq{"pool": string(*filter.Pool)})
	}
	if filter.Status != nil {
		builder = builder.Where(sq.Eq{"status": string(*filter.Status)})
	}
	if filter.TenantID != "" {
		builder = builder.Where(sq.Eq{"tenant_id": filter.TenantID})
	}
	if filter.MinAverageScore != nil {
		builder = builder.Where("(health_metrics->>'average_score')::float >= ?", *filter.MinAverageScore)
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := r.systemDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	defer rows.Close()

	return collectDomains(rows)
}

// Update persists the full row guarded by the version the caller loaded.
// A concurrent edit surfaces as a conflict error; the stored version is
// bumped on success.
func (r *DomainRepository) Update(ctx context.Context, d *domain.SendingDomain) error {
	if err := d.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE domains SET
			name = $2,
			tenant_id = $3,
			external_id = $4,
			pool = $5,
			class = $6,
			status = $7,
			sending = $8,
			warmup = $9,
			health_score = $10,
			consecutive_low_scores = $11,
			pool_entered_at = $12,
			schedule = $13,
			next_test_at = $14,
			test_history = $15,
			rotation_log = $16,
			campaigns = $17,
			health_metrics = $18,
			version = version + 1,
			updated_at = $19
		WHERE id = $1 AND version = $20
	`
	result, err := r.systemDB.ExecContext(ctx, query,
		d.ID,
		d.Name,
		d.TenantID,
		d.ExternalID,
		string(d.Pool),
		string(d.Class),
		string(d.Status),
		d.Sending,
		d.Warmup,
		d.HealthScore,
		d.ConsecutiveLowScores,
		d.PoolEnteredAt,
		d.Schedule,
		nextTestAt(d),
		d.TestHistory,
		d.RotationLog,
		d.Campaigns,
		d.HealthMetrics,
		d.UpdatedAt,
		d.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update domain: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		// Either the row is gone or someone raced us; disambiguate so the
		// caller gets the right retry behavior.
		var exists bool
		if err := r.systemDB.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM domains WHERE id = $1)", d.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check domain existence: %w", err)
		}
		if !exists {
			return &domain.ErrNotFound{Entity: "domain", ID: d.ID}
		}
		return domain.NewConflictError("domain", d.ID)
	}

	d.Version++
	return nil
}

// ListDueForTest returns active domains whose next scheduled test is at
// or before the given time, soonest first
func (r *DomainRepository) ListDueForTest(ctx context.Context, before time.Time, limit int) ([]*domain.SendingDomain, error) {
	query := `
		SELECT ` + domainColumns + `
		FROM domains
		WHERE status = $1 AND next_test_at IS NOT NULL AND next_test_at <= $2
		ORDER BY next_test_at ASC
		LIMIT $3
	`
	rows, err := r.systemDB.QueryContext(ctx, query, string(domain.DomainStatusActive), before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list due domains: %w", err)
	}
	defer rows.Close()

	return collectDomains(rows)
}

// TransitionPool atomically sets the pool, stamps the entry date, resets
// the consecutive-low counter and appends the rotation event. The row is
// locked for the duration of the transaction.
func (r *DomainRepository) TransitionPool(ctx context.Context, domainID string, target domain.PoolType, event domain.RotationEvent) (*domain.SendingDomain, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}

	var moved *domain.SendingDomain
	err := r.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `SELECT ` + domainColumns + ` FROM domains WHERE id = $1 FOR UPDATE`
		row := tx.QueryRowContext(ctx, query, domainID)
		d, err := scanDomain(row)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return &domain.ErrNotFound{Entity: "domain", ID: domainID}
			}
			return fmt.Errorf("failed to lock domain: %w", err)
		}

		now := event.At
		if now.IsZero() {
			now = time.Now().UTC()
			event.At = now
		}
		event.From = d.Pool
		event.To = target
		d.EnterPool(target, now)
		d.AppendRotationEvent(event)

		update := `
			UPDATE domains SET
				pool = $2,
				consecutive_low_scores = $3,
				pool_entered_at = $4,
				rotation_log = $5,
				version = version + 1,
				updated_at = $6
			WHERE id = $1
		`
		if _, err := tx.ExecContext(ctx, update,
			d.ID,
			string(d.Pool),
			d.ConsecutiveLowScores,
			d.PoolEnteredAt,
			d.RotationLog,
			d.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to transition domain pool: %w", err)
		}

		d.Version++
		moved = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// CountByPool counts active domains per pool
func (r *DomainRepository) CountByPool(ctx context.Context) (map[domain.PoolType]int, error) {
	query := `
		SELECT pool, COUNT(*)
		FROM domains
		WHERE status = $1
		GROUP BY pool
	`
	rows, err := r.systemDB.QueryContext(ctx, query, string(domain.DomainStatusActive))
	if err != nil {
		return nil, fmt.Errorf("failed to count domains by pool: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.PoolType]int, len(domain.PoolTypes))
	for _, pool := range domain.PoolTypes {
		counts[pool] = 0
	}
	for rows.Next() {
		var pool string
		var count int
		if err := rows.Scan(&pool, &count); err != nil {
			return nil, fmt.Errorf("failed to scan pool count: %w", err)
		}
		counts[domain.PoolType(pool)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

// nextTestAt extracts the denormalized due column from the schedule.
func nextTestAt(d *domain.SendingDomain) sql.NullTime {
	if d.Schedule.NextTestAt == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *d.Schedule.NextTestAt, Valid: true}
}

// domainArgs flattens a domain into the insert argument list, matching
// domainColumns order.
func domainArgs(d *domain.SendingDomain) []interface{} {
	return []interface{}{
		d.ID,
		d.Name,
		d.TenantID,
		d.ExternalID,
		string(d.Pool),
		string(d.Class),
		string(d.Status),
		d.Sending,
		d.Warmup,
		d.HealthScore,
		d.ConsecutiveLowScores,
		d.PoolEnteredAt,
		d.Schedule,
		nextTestAt(d),
		d.TestHistory,
		d.RotationLog,
		d.Campaigns,
		d.HealthMetrics,
		d.Version,
		d.CreatedAt,
		d.UpdatedAt,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDomain(row rowScanner) (*domain.SendingDomain, error) {
	var d domain.SendingDomain
	var pool, class, status string
	var next sql.NullTime

	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.TenantID,
		&d.ExternalID,
		&pool,
		&class,
		&status,
		&d.Sending,
		&d.Warmup,
		&d.HealthScore,
		&d.ConsecutiveLowScores,
		&d.PoolEnteredAt,
		&d.Schedule,
		&next,
		&d.TestHistory,
		&d.RotationLog,
		&d.Campaigns,
		&d.HealthMetrics,
		&d.Version,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	d.Pool = domain.PoolType(pool)
	d.Class = domain.MailboxClass(class)
	d.Status = domain.DomainStatus(status)
	return &d, nil
}

func collectDomains(rows *sql.Rows) ([]*domain.SendingDomain, error) {
	var domains []*domain.SendingDomain
	for rows.Next() {
		d, err := scanDomain(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		domains = append(domains, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return domains, nil
}
