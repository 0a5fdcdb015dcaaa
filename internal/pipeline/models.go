package pipeline

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Transaction is a normalized transaction in its final, persistable form:
// sanitized fields plus the category and merchant identity assigned by the
// pipeline. The store assigns ID and timestamps on commit.
type Transaction struct {
	ID             int64           `json:"id"`
	TxnID          string          `json:"txn_id"`
	Description    string          `json:"description"`
	RawDescription string          `json:"raw_description"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Date           civil.Date      `json:"date"`
	Category       string          `json:"category"`
	MerchantID     int64           `json:"merchant_id"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Result is the terminal output of one ingestion call. Success is true only
// when no per-record errors occurred; TotalProcessed counts records that came
// out of parsing while TotalSaved counts records actually committed.
type Result struct {
	Success        bool           `json:"success"`
	TotalProcessed int            `json:"totalProcessed"`
	TotalSaved     int            `json:"totalSaved"`
	Errors         []string       `json:"errors"`
	Transactions   []*Transaction `json:"transactions"`

	fatal bool
}

// Fatal reports whether the call failed as a whole (structural parse failure
// or batch persistence failure) with nothing committed, as opposed to a
// best-effort partial outcome.
func (r *Result) Fatal() bool {
	return r.fatal
}
