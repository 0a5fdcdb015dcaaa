package merchant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Resolver maps raw merchant hints to persisted merchant identities,
// creating them on first sight. Resolution is idempotent by normalized key.
type Resolver struct {
	store Store
	log   zerolog.Logger
}

// NewResolver creates a resolver backed by the given store.
func NewResolver(store Store, log zerolog.Logger) *Resolver {
	return &Resolver{store: store, log: log}
}

// ResolveOrCreate returns the merchant identified by the hint's normalized
// key, creating it if absent. An existing merchant is returned unchanged; its
// display name is never overwritten. When a concurrent ingestion wins the
// creation race, the resulting ErrDuplicateKey is resolved by re-fetching the
// row the other writer committed.
func (r *Resolver) ResolveOrCreate(ctx context.Context, hint string) (*Merchant, error) {
	key := NormalizeKey(hint)
	if key == "" {
		return nil, fmt.Errorf("ResolveOrCreate: empty merchant name %q", hint)
	}

	existing, err := r.store.FindByNormalizedKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("ResolveOrCreate: looking up merchant %q: %w", key, err)
	}
	if existing != nil {
		return existing, nil
	}

	created, err := r.store.Insert(ctx, &Merchant{
		Name:          strings.TrimSpace(hint),
		NormalizedKey: key,
	})
	if err == nil {
		r.log.Debug().Str("normalized_key", key).Int64("merchant_id", created.ID).Msg("Created merchant")
		return created, nil
	}

	if errors.Is(err, ErrDuplicateKey) {
		// Lost the creation race to a concurrent ingestion; the committed row
		// is the identity we want.
		winner, fetchErr := r.store.FindByNormalizedKey(ctx, key)
		if fetchErr != nil {
			return nil, fmt.Errorf("ResolveOrCreate: re-fetching merchant %q after conflict: %w", key, fetchErr)
		}
		if winner == nil {
			return nil, fmt.Errorf("ResolveOrCreate: merchant %q missing after conflict: %w", key, err)
		}
		return winner, nil
	}

	return nil, fmt.Errorf("ResolveOrCreate: creating merchant %q: %w", key, err)
}
