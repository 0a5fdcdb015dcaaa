package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/txbridge/internal/pipeline"
)

const transactionColumns = `id, txn_id, description, raw_description, amount, currency, date, category, merchant_id, created_at, updated_at`

const upsertTransaction = `
	INSERT INTO transactions (txn_id, description, raw_description, amount, currency, date, category, merchant_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (txn_id) DO UPDATE SET
		description = EXCLUDED.description,
		raw_description = EXCLUDED.raw_description,
		amount = EXCLUDED.amount,
		currency = EXCLUDED.currency,
		date = EXCLUDED.date,
		category = EXCLUDED.category,
		merchant_id = EXCLUDED.merchant_id,
		updated_at = CURRENT_TIMESTAMP
	RETURNING ` + transactionColumns

// TransactionRepository is the PostgreSQL implementation of
// pipeline.TransactionStore plus the read side used by the API.
type TransactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository creates a transaction repository sharing the pool
// of db.
func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db.DB}
}

// UpsertBatch writes the batch inside a single database transaction: either
// every row commits or none do. Rows conflict on txn_id and are updated in
// place, which makes replaying the same feed idempotent.
func (r *TransactionRepository) UpsertBatch(ctx context.Context, txs []*pipeline.Transaction) ([]*pipeline.Transaction, error) {
	if len(txs) == 0 {
		return nil, nil
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("UpsertBatch: beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	saved := make([]*pipeline.Transaction, 0, len(txs))
	for _, tx := range txs {
		row := dbTx.QueryRowContext(ctx, upsertTransaction,
			tx.TxnID,
			tx.Description,
			tx.RawDescription,
			tx.Amount,
			tx.Currency,
			tx.Date.In(time.UTC),
			tx.Category,
			tx.MerchantID,
		)

		stored, err := scanTransaction(row)
		if err != nil {
			return nil, fmt.Errorf("UpsertBatch: upserting transaction %q: %w", tx.TxnID, err)
		}
		saved = append(saved, stored)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("UpsertBatch: committing batch: %w", err)
	}

	return saved, nil
}

// ListAll returns every stored transaction, newest first.
func (r *TransactionRepository) ListAll(ctx context.Context) ([]*pipeline.Transaction, error) {
	return r.list(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		ORDER BY date DESC, id DESC
	`)
}

// ListByCategory returns stored transactions in one category, newest first.
func (r *TransactionRepository) ListByCategory(ctx context.Context, category string) ([]*pipeline.Transaction, error) {
	return r.list(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE category = $1
		ORDER BY date DESC, id DESC
	`, category)
}

func (r *TransactionRepository) list(ctx context.Context, query string, args ...interface{}) ([]*pipeline.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list: querying transactions: %w", err)
	}
	defer rows.Close()

	var txs []*pipeline.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("list: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: iterating transaction rows: %w", err)
	}

	return txs, nil
}

// CategorySummary is the per-category aggregate over stored transactions.
type CategorySummary struct {
	Category    string          `json:"category"`
	Count       int64           `json:"count"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// SummarizeByCategory groups stored transactions by category and returns the
// record count and 2-decimal amount total per category.
func (r *TransactionRepository) SummarizeByCategory(ctx context.Context) ([]CategorySummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(NULLIF(category, ''), 'Uncategorized'), COUNT(*), COALESCE(SUM(amount), 0)
		FROM transactions
		GROUP BY 1
		ORDER BY 1
	`)
	if err != nil {
		return nil, fmt.Errorf("SummarizeByCategory: querying summary: %w", err)
	}
	defer rows.Close()

	var summaries []CategorySummary
	for rows.Next() {
		var s CategorySummary
		var total string
		if err := rows.Scan(&s.Category, &s.Count, &total); err != nil {
			return nil, fmt.Errorf("SummarizeByCategory: scanning summary row: %w", err)
		}
		amount, err := decimal.NewFromString(total)
		if err != nil {
			return nil, fmt.Errorf("SummarizeByCategory: invalid total %q for category %q: %w", total, s.Category, err)
		}
		s.TotalAmount = amount.Round(2)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("SummarizeByCategory: iterating summary rows: %w", err)
	}

	return summaries, nil
}

// scanTransaction decodes one transactions row into the domain form. The
// decode is explicit and fails closed: a malformed stored value produces an
// error instead of a partially populated transaction.
func scanTransaction(row interface{ Scan(...interface{}) error }) (*pipeline.Transaction, error) {
	var (
		tx         pipeline.Transaction
		rawDesc    sql.NullString
		amountStr  string
		date       time.Time
		category   sql.NullString
		merchantID sql.NullInt64
	)

	err := row.Scan(
		&tx.ID,
		&tx.TxnID,
		&tx.Description,
		&rawDesc,
		&amountStr,
		&tx.Currency,
		&date,
		&category,
		&merchantID,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scanTransaction: scanning row: %w", err)
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("scanTransaction: invalid stored amount %q: %w", amountStr, err)
	}

	tx.RawDescription = rawDesc.String
	tx.Amount = amount
	tx.Date = civil.DateOf(date)
	tx.Category = category.String
	tx.MerchantID = merchantID.Int64

	return &tx, nil
}
