package cache

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"time"

	"github.com/kevinaugment/calcengine/calc"
)

// MemoryStore is a bounded in-memory store implementation.
//
// One mutex guards the entry map, the access-order list, and the background
// sweep, so eviction bookkeeping never drifts from the map: every key in the
// map owns exactly one list element and vice versa.
type MemoryStore struct {
	mu      sync.Mutex
	policy  Policy
	entries map[string]*list.Element
	order   *list.List // LRU: front = most recently used. FIFO: front = newest insert.
	closed  bool

	hits        int64
	misses      int64
	evictions   int64
	expirations int64

	now    func() time.Time // injectable clock for expiry tests
	stopCh chan struct{}
	once   sync.Once
}

type entry struct {
	key            string
	value          *calc.Result
	createdAt      time.Time
	expiresAt      time.Time
	lastAccessedAt time.Time
	accessCount    int64
}

// NewMemoryStore creates a new in-memory store with the given policy and
// starts its background sweep when the policy configures one.
func NewMemoryStore(policy Policy) *MemoryStore {
	if policy.Eviction == "" {
		policy.Eviction = EvictLRU
	}
	s := &MemoryStore{
		policy:  policy,
		entries: make(map[string]*list.Element),
		order:   list.New(),
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	if policy.SweepInterval > 0 {
		go s.sweepLoop(policy.SweepInterval)
	}
	return s
}

// Get retrieves a result from the store. Returns (nil, false) on miss.
// An expired entry is removed before returning and counts as a miss.
func (s *MemoryStore) Get(_ context.Context, key string) (*calc.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, false
	}

	elem, ok := s.entries[key]
	if !ok {
		s.misses++
		return nil, false
	}

	ent := elem.Value.(*entry)
	if s.now().After(ent.expiresAt) {
		s.removeElement(elem)
		s.expirations++
		s.misses++
		return nil, false
	}

	ent.accessCount++
	ent.lastAccessedAt = s.now()
	if s.policy.Eviction == EvictLRU {
		s.order.MoveToFront(elem)
	}

	s.hits++
	return ent.value, true
}

// Set stores a result with the given TTL. TTL<=0 means no caching. When the
// store is at capacity and the key is new, exactly one victim is evicted
// according to the configured policy before inserting.
func (s *MemoryStore) Set(_ context.Context, key string, value *calc.Result, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	// TTL<=0 means don't cache
	if ttl <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	now := s.now()

	// Overwrite keeps the single-entry-per-key guarantee. The entry's
	// FIFO position is unchanged since overwriting is not an insertion.
	if elem, ok := s.entries[key]; ok {
		ent := elem.Value.(*entry)
		ent.value = value
		ent.createdAt = now
		ent.expiresAt = now.Add(ttl)
		ent.accessCount = 0
		ent.lastAccessedAt = now
		if s.policy.Eviction == EvictLRU {
			s.order.MoveToFront(elem)
		}
		return nil
	}

	if s.policy.MaxEntries > 0 && len(s.entries) >= s.policy.MaxEntries {
		s.evictOne()
	}

	ent := &entry{
		key:            key,
		value:          value,
		createdAt:      now,
		expiresAt:      now.Add(ttl),
		lastAccessedAt: now,
	}
	s.entries[key] = s.order.PushFront(ent)
	return nil
}

// Delete removes a result from the store. Idempotent - no error on miss.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.entries[key]; ok {
		s.removeElement(elem)
	}
	return nil
}

// Clear removes all entries. Counters are preserved.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*list.Element)
	s.order.Init()
}

// ClearPrefix removes all entries whose key starts with prefix and returns
// the number removed.
func (s *MemoryStore) ClearPrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, elem := range s.entries {
		if strings.HasPrefix(key, prefix) {
			s.removeElement(elem)
			removed++
		}
	}
	return removed
}

// Len returns the current entry count.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stats returns a snapshot of store counters. ApproxMemoryBytes is an
// estimate from string lengths and per-entry overhead, not a measurement.
func (s *MemoryStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var memory int64
	for _, elem := range s.entries {
		ent := elem.Value.(*entry)
		memory += estimateSize(ent.key, ent.value)
	}

	stats := Stats{
		Size:              len(s.entries),
		Hits:              s.hits,
		Misses:            s.misses,
		Evictions:         s.evictions,
		Expirations:       s.expirations,
		ApproxMemoryBytes: memory,
	}
	if total := s.hits + s.misses; total > 0 {
		stats.HitRate = float64(s.hits) / float64(total)
	}
	return stats
}

// Close stops the background sweep and rejects further writes. Idempotent.
func (s *MemoryStore) Close() {
	s.once.Do(func() {
		close(s.stopCh)
	})

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// sweepLoop removes expired entries on a fixed interval so memory stays
// bounded even for keys that are never re-read.
func (s *MemoryStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.removeExpired()
		case <-s.stopCh:
			return
		}
	}
}

func (s *MemoryStore) removeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, elem := range s.entries {
		ent := elem.Value.(*entry)
		if now.After(ent.expiresAt) {
			s.removeElement(elem)
			s.expirations++
		}
	}
}

// evictOne removes exactly one entry chosen by the configured policy.
// Caller must hold the lock.
func (s *MemoryStore) evictOne() {
	switch s.policy.Eviction {
	case EvictLFU:
		var victim *list.Element
		for _, elem := range s.entries {
			if victim == nil {
				victim = elem
				continue
			}
			ent, best := elem.Value.(*entry), victim.Value.(*entry)
			if ent.accessCount < best.accessCount ||
				(ent.accessCount == best.accessCount && ent.lastAccessedAt.Before(best.lastAccessedAt)) {
				victim = elem
			}
		}
		if victim != nil {
			s.removeElement(victim)
			s.evictions++
		}
	default:
		// LRU: back of the list is the least recently accessed.
		// FIFO: entries are never moved, so the back is the earliest insert.
		if elem := s.order.Back(); elem != nil {
			s.removeElement(elem)
			s.evictions++
		}
	}
}

// removeElement removes an element from both the list and the map.
// Caller must hold the lock.
func (s *MemoryStore) removeElement(elem *list.Element) {
	s.order.Remove(elem)
	delete(s.entries, elem.Value.(*entry).key)
}

// estimateSize approximates the heap footprint of one cache entry: string
// bytes plus fixed struct overheads.
func estimateSize(key string, r *calc.Result) int64 {
	const entryOverhead = 160
	size := int64(entryOverhead + len(key))
	if r == nil {
		return size
	}
	size += int64(len(r.Unit) + len(r.Label))
	for _, b := range r.Breakdown {
		size += 48 + int64(len(b.Label)+len(b.Unit))
	}
	for _, rec := range r.Recommendations {
		size += 16 + int64(len(rec))
	}
	return size
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
