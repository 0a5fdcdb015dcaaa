package merchant

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// fakeStore is an in-memory Store for resolver tests.
type fakeStore struct {
	byKey     map[string]*Merchant
	nextID    int64
	insertErr error
	findErr   error
	inserts   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{byKey: map[string]*Merchant{}, nextID: 1}
}

func (s *fakeStore) FindByNormalizedKey(ctx context.Context, key string) (*Merchant, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	m, ok := s.byKey[key]
	if !ok {
		return nil, nil
	}
	copied := *m
	return &copied, nil
}

func (s *fakeStore) Insert(ctx context.Context, m *Merchant) (*Merchant, error) {
	s.inserts++
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	if _, exists := s.byKey[m.NormalizedKey]; exists {
		return nil, ErrDuplicateKey
	}
	created := *m
	created.ID = s.nextID
	s.nextID++
	s.byKey[m.NormalizedKey] = &created
	copied := created
	return &copied, nil
}

func TestResolveOrCreate_CreatesWhenAbsent(t *testing.T) {
	store := newFakeStore()
	resolver := NewResolver(store, zerolog.Nop())

	m, err := resolver.ResolveOrCreate(context.Background(), "STARBUCKS Store 2291")
	assert.NoError(t, err)
	assert.Equal(t, "STARBUCKS", m.NormalizedKey)
	assert.Equal(t, "STARBUCKS Store 2291", m.Name)
	assert.Equal(t, int64(1), m.ID)
}

func TestResolveOrCreate_ReturnsExistingUnchanged(t *testing.T) {
	store := newFakeStore()
	resolver := NewResolver(store, zerolog.Nop())

	first, err := resolver.ResolveOrCreate(context.Background(), "AMZN Mktp US")
	assert.NoError(t, err)

	// A different raw form of the same merchant must resolve to the same row
	// without touching the stored display name.
	second, err := resolver.ResolveOrCreate(context.Background(), "amzn marketplace payments")
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "AMZN Mktp US", second.Name)
	assert.Equal(t, 1, store.inserts)
}

func TestResolveOrCreate_EmptyHint(t *testing.T) {
	resolver := NewResolver(newFakeStore(), zerolog.Nop())

	for _, hint := range []string{"", "   ", "***"} {
		_, err := resolver.ResolveOrCreate(context.Background(), hint)
		assert.Error(t, err, "hint %q", hint)
	}
}

func TestResolveOrCreate_DuplicateKeyRefetches(t *testing.T) {
	// Simulate a concurrent writer committing between our lookup and insert:
	// the store reports a conflict and already holds the winner's row.
	store := newFakeStore()
	store.insertErr = ErrDuplicateKey
	store.byKey["PAYPAL"] = &Merchant{ID: 42, Name: "PAYPAL", NormalizedKey: "PAYPAL"}
	raced := &racingStore{inner: store}

	m, err := NewResolver(raced, zerolog.Nop()).ResolveOrCreate(context.Background(), "PAYPAL *EBAY")
	assert.NoError(t, err)
	assert.Equal(t, int64(42), m.ID)
	assert.Equal(t, 2, raced.finds, "resolver should re-fetch after the conflict")
}

// racingStore misses the first FindByNormalizedKey to model a row committed
// by a concurrent ingestion after our initial lookup.
type racingStore struct {
	inner *fakeStore
	finds int
}

func (s *racingStore) FindByNormalizedKey(ctx context.Context, key string) (*Merchant, error) {
	s.finds++
	if s.finds == 1 {
		return nil, nil
	}
	return s.inner.FindByNormalizedKey(ctx, key)
}

func (s *racingStore) Insert(ctx context.Context, m *Merchant) (*Merchant, error) {
	return s.inner.Insert(ctx, m)
}

func TestResolveOrCreate_StoreErrors(t *testing.T) {
	store := newFakeStore()
	store.findErr = errors.New("connection refused")
	resolver := NewResolver(store, zerolog.Nop())

	_, err := resolver.ResolveOrCreate(context.Background(), "NETFLIX")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	store.findErr = nil
	store.insertErr = errors.New("connection reset")
	_, err = resolver.ResolveOrCreate(context.Background(), "NETFLIX")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}
