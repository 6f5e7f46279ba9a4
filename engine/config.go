package engine

import (
	"time"

	"github.com/kevinaugment/calcengine/cache"
	"github.com/kevinaugment/calcengine/observe"
)

// Config holds all configuration for an Engine.
type Config struct {
	// Cache configures result caching: capacity, TTLs, eviction policy,
	// and sweep interval.
	Cache cache.Policy

	// ComputeTimeout bounds a single algorithm execution. Algorithm bodies
	// are user-registered code, so the engine fails a slow computation with
	// ErrTimeout instead of blocking. Zero disables the timeout.
	ComputeTimeout time.Duration

	// Observability configures tracing, metrics, and logging. The zero
	// value disables all three; when ServiceName is set an Observer is
	// created and owned by the engine.
	Observability observe.Config
}

// DefaultConfig returns a Config with production defaults: an LRU cache of
// 1000 entries with a 5 minute TTL and a 10 second compute timeout.
func DefaultConfig() Config {
	return Config{
		Cache:          cache.DefaultPolicy(),
		ComputeTimeout: 10 * time.Second,
	}
}
