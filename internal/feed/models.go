package feed

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// RawRecord holds the five per-record text fields exactly as they appear in
// the feed document. No sanitization has been applied yet.
type RawRecord struct {
	TxnID       string
	Description string
	Amount      string
	Currency    string
	Date        string
}

// Record is a sanitized candidate transaction produced from a RawRecord.
// It carries typed values and keeps the original description verbatim for
// auditing. Category and merchant are assigned downstream.
type Record struct {
	TxnID          string
	Description    string
	RawDescription string
	Amount         decimal.Decimal
	Currency       string
	Date           civil.Date
}
