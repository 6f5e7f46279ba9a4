package cache

import (
	"fmt"
	"strings"
	"time"
)

// EvictionPolicy selects the victim entry when the store is at capacity.
type EvictionPolicy string

const (
	// EvictLRU removes the entry with the oldest last access.
	EvictLRU EvictionPolicy = "lru"
	// EvictLFU removes the entry with the lowest access count, breaking
	// ties by oldest last access.
	EvictLFU EvictionPolicy = "lfu"
	// EvictFIFO removes the earliest-inserted entry, ignoring access.
	EvictFIFO EvictionPolicy = "fifo"
)

// ParseEvictionPolicy parses a policy name. The empty string means LRU.
func ParseEvictionPolicy(s string) (EvictionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lru", "":
		return EvictLRU, nil
	case "lfu":
		return EvictLFU, nil
	case "fifo":
		return EvictFIFO, nil
	default:
		return "", fmt.Errorf("cache: unknown eviction policy %q", s)
	}
}

// Policy configures caching behavior.
type Policy struct {
	// MaxEntries bounds the number of cached results. Zero or negative
	// means unbounded.
	MaxEntries int

	// DefaultTTL is the TTL to use when none is specified.
	// If zero, caching is disabled by default.
	DefaultTTL time.Duration

	// MaxTTL is the maximum allowed TTL. Override TTLs are clamped to this.
	// If zero, no maximum is enforced.
	MaxTTL time.Duration

	// SweepInterval is how often the background sweep removes expired
	// entries independent of reads. Zero disables the sweep; expiry then
	// happens lazily on Get only.
	SweepInterval time.Duration

	// Eviction selects the capacity-eviction policy. Empty means LRU.
	Eviction EvictionPolicy
}

// DefaultPolicy returns the default caching policy.
// MaxEntries: 1000, DefaultTTL: 5 minutes, MaxTTL: 1 hour,
// SweepInterval: 1 minute, Eviction: LRU.
func DefaultPolicy() Policy {
	return Policy{
		MaxEntries:    1000,
		DefaultTTL:    5 * time.Minute,
		MaxTTL:        1 * time.Hour,
		SweepInterval: time.Minute,
		Eviction:      EvictLRU,
	}
}

// NoCachePolicy returns a policy that disables caching entirely.
func NoCachePolicy() Policy {
	return Policy{}
}

// ShouldCache returns true if caching is enabled by this policy.
func (p Policy) ShouldCache() bool {
	return p.DefaultTTL > 0
}

// EffectiveTTL returns the TTL to use, applying defaults and clamping.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	// Use default if no override (or negative override)
	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}

	// Clamp to MaxTTL if set
	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}

	return ttl
}
