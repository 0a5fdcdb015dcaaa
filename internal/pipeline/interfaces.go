package pipeline

import (
	"context"

	"github.com/dvloznov/txbridge/internal/merchant"
)

// Categorizer assigns a category label to a transaction description.
// It is total: it always returns a label, falling back to a default.
type Categorizer interface {
	Categorize(description string) string
}

// MerchantResolver resolves a raw merchant hint to a persisted merchant
// identity, creating one if absent.
type MerchantResolver interface {
	ResolveOrCreate(ctx context.Context, hint string) (*merchant.Merchant, error)
}

// TransactionStore persists a batch of transactions as a single atomic unit.
// Rows conflict on the external txn id and are updated in place, so replaying
// a batch is safe. Either the whole batch commits or none of it does.
type TransactionStore interface {
	UpsertBatch(ctx context.Context, txs []*Transaction) ([]*Transaction, error)
}
