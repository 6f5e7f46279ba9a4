package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kevinaugment/calcengine/calc"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrNilStore        = errors.New("cache: store is nil")
	ErrInvalidKey      = errors.New("cache: key is invalid")
	ErrKeyTooLong      = errors.New("cache: key exceeds max length")
	ErrStoreClosed     = errors.New("cache: store is closed")
	ErrNotSerializable = errors.New("cache: input value is not serializable")
	ErrTooDeep         = errors.New("cache: input nesting exceeds max depth")
)

// Store is the interface for caching calculation results.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: Get never errors; it returns (nil, false) on miss or expiry.
// - Ownership: stored results are shared by reference and must not be
//   mutated after insertion.
type Store interface {
	// Get retrieves a cached result. Returns (nil, false) on miss; an
	// expired entry is removed and reported as a miss.
	Get(ctx context.Context, key string) (*calc.Result, bool)

	// Set stores a result with the given TTL. TTL<=0 means no caching.
	// When the store is at capacity and the key is new, exactly one prior
	// entry is evicted according to the configured policy.
	Set(ctx context.Context, key string, value *calc.Result, ttl time.Duration) error

	// Delete removes a cached result. Idempotent - no error on miss.
	Delete(ctx context.Context, key string) error

	// Clear removes all entries.
	Clear()

	// ClearPrefix removes all entries whose key starts with prefix and
	// returns the number removed.
	ClearPrefix(prefix string) int

	// Len returns the current entry count.
	Len() int

	// Stats returns a snapshot of store counters.
	Stats() Stats

	// Close stops background activity. Subsequent Sets fail with
	// ErrStoreClosed and Gets report misses. Idempotent.
	Close()
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
