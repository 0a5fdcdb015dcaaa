package merchant

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
)

// ErrDuplicateKey is returned by Store.Insert when another writer created a
// merchant with the same normalized key first. The resolver recovers from it
// by re-fetching the existing row.
var ErrDuplicateKey = errors.New("merchant normalized key already exists")

// Merchant is a durable merchant identity. The display name keeps the
// first-seen raw form; NormalizedKey is the canonical deduplication token and
// unique across all merchants.
type Merchant struct {
	ID            int64
	Name          string
	NormalizedKey string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Store is the persistence contract the resolver depends on. Implementations
// must enforce a uniqueness constraint on the normalized key and surface a
// conflicting Insert as ErrDuplicateKey.
type Store interface {
	// FindByNormalizedKey returns the merchant for the given key, or
	// (nil, nil) when no such merchant exists.
	FindByNormalizedKey(ctx context.Context, key string) (*Merchant, error)

	// Insert persists a new merchant and returns it with its assigned ID.
	Insert(ctx context.Context, m *Merchant) (*Merchant, error)
}

var (
	punctuationRe = regexp.MustCompile(`[*#@!$%^&()_+=\[\]{}|\\:";'<>?,./]`)
	spaceRunRe    = regexp.MustCompile(`\s+`)
)

// NormalizeKey derives the canonical merchant key from a raw name: upper-case,
// punctuation replaced by spaces, whitespace collapsed, and only the first
// token kept. Example: "STARBUCKS Store 2291" -> "STARBUCKS".
func NormalizeKey(name string) string {
	s := strings.ToUpper(name)
	s = punctuationRe.ReplaceAllString(s, " ")
	s = spaceRunRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.SplitN(s, " ", 2)[0]
}
