package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrInvalidKey   = errors.New("cache: key is invalid")
	ErrKeyTooLong   = errors.New("cache: key exceeds max length")
	ErrNilFetcher   = errors.New("cache: fetcher is nil")
	ErrRetryTooSoon = errors.New("cache: key failed recently, retry interval not elapsed")

	errFetchPanicked = errors.New("cache: fetcher panicked")
)

// Fetcher produces the value for a key on a cache miss.
// The context passed to it is not cancelled when a waiting caller gives up.
type Fetcher func(ctx context.Context) (any, error)

// Entry is one cached value.
type Entry struct {
	Value     any
	CreatedAt time.Time
	TTL       time.Duration
}

// ExpiresAt returns the instant the entry stops being valid.
func (e *Entry) ExpiresAt() time.Time {
	return e.CreatedAt.Add(e.TTL)
}

// Valid reports whether CreatedAt+TTL is after now.
func (e *Entry) Valid(now time.Time) bool {
	return e != nil && e.ExpiresAt().After(now)
}

// Stats is a point-in-time snapshot of the store.
type Stats struct {
	Total   int // entries present, valid or not
	Valid   int // entries still within their TTL
	Expired int // entries present but past their TTL
	Pending int // fetches in flight
	Size    int // physical map size; equals Total
}

// Response is the outcome of Store.Do.
type Response struct {
	Value  any
	Cached bool // served from an existing valid entry
	Shared bool // the underlying fetch was shared with other callers
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
