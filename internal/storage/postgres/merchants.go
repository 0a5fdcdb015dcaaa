package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/dvloznov/txbridge/internal/merchant"
)

const uniqueViolation = pq.ErrorCode("23505")

// MerchantRepository is the PostgreSQL implementation of merchant.Store.
type MerchantRepository struct {
	db *sql.DB
}

// NewMerchantRepository creates a merchant repository sharing the pool of db.
func NewMerchantRepository(db *DB) *MerchantRepository {
	return &MerchantRepository{db: db.DB}
}

// FindByNormalizedKey returns the merchant for the given key, or (nil, nil)
// when no such merchant exists.
func (r *MerchantRepository) FindByNormalizedKey(ctx context.Context, key string) (*merchant.Merchant, error) {
	var m merchant.Merchant
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, normalized_key, created_at, updated_at
		FROM merchants
		WHERE normalized_key = $1
	`, key).Scan(&m.ID, &m.Name, &m.NormalizedKey, &m.CreatedAt, &m.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindByNormalizedKey: querying merchant %q: %w", key, err)
	}

	return &m, nil
}

// Insert persists a new merchant and returns it with its assigned identifier.
// A normalized-key conflict with a concurrent writer surfaces as
// merchant.ErrDuplicateKey so the resolver can re-fetch the winning row.
func (r *MerchantRepository) Insert(ctx context.Context, m *merchant.Merchant) (*merchant.Merchant, error) {
	created := *m
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO merchants (name, normalized_key)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at
	`, m.Name, m.NormalizedKey).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, fmt.Errorf("Insert: merchant %q: %w", m.NormalizedKey, merchant.ErrDuplicateKey)
		}
		return nil, fmt.Errorf("Insert: inserting merchant %q: %w", m.NormalizedKey, err)
	}

	return &created, nil
}

// ListAll returns every merchant ordered by display name.
func (r *MerchantRepository) ListAll(ctx context.Context) ([]*merchant.Merchant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, normalized_key, created_at, updated_at
		FROM merchants
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("ListAll: querying merchants: %w", err)
	}
	defer rows.Close()

	var merchants []*merchant.Merchant
	for rows.Next() {
		var m merchant.Merchant
		if err := rows.Scan(&m.ID, &m.Name, &m.NormalizedKey, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ListAll: scanning merchant row: %w", err)
		}
		merchants = append(merchants, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListAll: iterating merchant rows: %w", err)
	}

	return merchants, nil
}
