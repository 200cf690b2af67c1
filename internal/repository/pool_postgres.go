package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Mailfleet/mailfleet/internal/domain"
)

// PoolRepository implements domain.PoolRepository using PostgreSQL. The
// four pool rows are seeded once and patched in place afterwards.
type PoolRepository struct {
	systemDB *sql.DB
}

// NewPoolRepository creates a new PoolRepository instance
func NewPoolRepository(db *sql.DB) domain.PoolRepository {
	return &PoolRepository{
		systemDB: db,
	}
}

// Upsert creates the pool row or replaces its settings
func (r *PoolRepository) Upsert(ctx context.Context, pool *domain.Pool) error {
	if err := pool.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO pools (type, sending, warmup, campaign, rules, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (type)
		DO UPDATE SET
			sending = EXCLUDED.sending,
			warmup = EXCLUDED.warmup,
			campaign = EXCLUDED.campaign,
			rules = EXCLUDED.rules,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.systemDB.ExecContext(ctx, query,
		string(pool.Type),
		pool.Sending,
		pool.Warmup,
		pool.Campaign,
		pool.Rules,
		pool.CreatedAt,
		pool.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert pool: %w", err)
	}
	return nil
}

// GetByType retrieves one pool row
func (r *PoolRepository) GetByType(ctx context.Context, poolType domain.PoolType) (*domain.Pool, error) {
	query := `
		SELECT type, sending, warmup, campaign, rules, created_at, updated_at
		FROM pools WHERE type = $1
	`
	row := r.systemDB.QueryRowContext(ctx, query, string(poolType))
	pool, err := scanPool(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.ErrNotFound{Entity: "pool", ID: string(poolType)}
		}
		return nil, fmt.Errorf("failed to get pool: %w", err)
	}
	return pool, nil
}

// List retrieves all pools in lifecycle order
func (r *PoolRepository) List(ctx context.Context) ([]*domain.Pool, error) {
	query := `
		SELECT type, sending, warmup, campaign, rules, created_at, updated_at
		FROM pools
	`
	rows, err := r.systemDB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pools: %w", err)
	}
	defer rows.Close()

	byType := make(map[domain.PoolType]*domain.Pool, len(domain.PoolTypes))
	for rows.Next() {
		pool, err := scanPool(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pool: %w", err)
		}
		byType[pool.Type] = pool
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Stable lifecycle order regardless of storage order
	var pools []*domain.Pool
	for _, t := range domain.PoolTypes {
		if pool, ok := byType[t]; ok {
			pools = append(pools, pool)
		}
	}
	return pools, nil
}

func scanPool(row rowScanner) (*domain.Pool, error) {
	var pool domain.Pool
	var poolType string
	err := row.Scan(
		&poolType,
		&pool.Sending,
		&pool.Warmup,
		&pool.Campaign,
		&pool.Rules,
		&pool.CreatedAt,
		&pool.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	pool.Type = domain.PoolType(poolType)
	return &pool, nil
}
