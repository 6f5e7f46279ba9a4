// Package cache provides deterministic caching for calculation results.
//
// It provides a Store interface with a bounded in-memory implementation
// (LRU, LFU, or FIFO eviction plus TTL expiry and a background sweep),
// SHA-256-based key derivation from canonicalized inputs, and TTL policies.
package cache
