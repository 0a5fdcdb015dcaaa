package postgres

import (
	"context"
	"fmt"
)

// Schema DDL. merchants deduplicate on the normalized key; transactions
// deduplicate on the external txn id so batch upserts stay idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS merchants (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		normalized_key VARCHAR(255) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(normalized_key)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_merchants_normalized_key ON merchants(normalized_key)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id BIGSERIAL PRIMARY KEY,
		txn_id VARCHAR(50) NOT NULL UNIQUE,
		description VARCHAR(500) NOT NULL,
		raw_description VARCHAR(500),
		amount DECIMAL(15, 2) NOT NULL,
		currency VARCHAR(3) NOT NULL DEFAULT 'USD',
		date DATE NOT NULL,
		category VARCHAR(100),
		merchant_id BIGINT REFERENCES merchants(id) ON DELETE SET NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions(category)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_merchant_id ON transactions(merchant_id)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date)`,
}

// Migrate applies the schema. All statements are idempotent, so running it on
// every startup is safe.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("Migrate: applying schema: %w", err)
		}
	}
	return nil
}
