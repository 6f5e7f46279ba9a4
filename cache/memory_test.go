package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kevinaugment/calcengine/calc"
)

func testPolicy(policy EvictionPolicy, maxEntries int) Policy {
	return Policy{
		MaxEntries: maxEntries,
		DefaultTTL: time.Hour,
		Eviction:   policy,
		// SweepInterval zero: tests drive expiry explicitly.
	}
}

func result(v float64) *calc.Result {
	return &calc.Result{Value: v, Unit: "USD"}
}

func TestMemoryStore_GetSetDelete(t *testing.T) {
	store := NewMemoryStore(testPolicy(EvictLRU, 10))
	defer store.Close()
	ctx := context.Background()

	if _, ok := store.Get(ctx, "missing"); ok {
		t.Error("Get on empty store should miss")
	}

	if err := store.Set(ctx, "k1", result(42), time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := store.Get(ctx, "k1")
	if !ok {
		t.Fatal("Get after Set should hit")
	}
	if got.Value != 42 {
		t.Errorf("Get returned value %v, want 42", got.Value)
	}

	if err := store.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := store.Get(ctx, "k1"); ok {
		t.Error("Get after Delete should miss")
	}

	// Delete is idempotent
	if err := store.Delete(ctx, "k1"); err != nil {
		t.Errorf("repeat Delete should not error, got %v", err)
	}
}

func TestMemoryStore_InvalidKeyRejected(t *testing.T) {
	store := NewMemoryStore(testPolicy(EvictLRU, 10))
	defer store.Close()

	if err := store.Set(context.Background(), "", result(1), time.Hour); err != ErrInvalidKey {
		t.Errorf("Set with empty key = %v, want ErrInvalidKey", err)
	}
}

func TestMemoryStore_ZeroTTLNotCached(t *testing.T) {
	store := NewMemoryStore(testPolicy(EvictLRU, 10))
	defer store.Close()
	ctx := context.Background()

	if err := store.Set(ctx, "k", result(1), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, ok := store.Get(ctx, "k"); ok {
		t.Error("zero TTL should not cache")
	}
}

// TestMemoryStore_TTLBoundary drives a simulated clock to the exact edges of
// the TTL window: present at T+D-1, absent at T+D+1.
func TestMemoryStore_TTLBoundary(t *testing.T) {
	store := NewMemoryStore(testPolicy(EvictLRU, 10))
	defer store.Close()
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	store.now = func() time.Time { return now }

	ttl := 10 * time.Second
	if err := store.Set(ctx, "k", result(1), ttl); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	now = base.Add(ttl - time.Millisecond)
	if _, ok := store.Get(ctx, "k"); !ok {
		t.Error("entry should be present just before expiry")
	}

	now = base.Add(ttl + time.Millisecond)
	if _, ok := store.Get(ctx, "k"); ok {
		t.Error("entry should be absent just after expiry")
	}

	// Lazy expiry removed the entry, not just hid it.
	if store.Len() != 0 {
		t.Errorf("Len after lazy expiry = %d, want 0", store.Len())
	}

	stats := store.Stats()
	if stats.Expirations != 1 {
		t.Errorf("Expirations = %d, want 1", stats.Expirations)
	}
}

func TestMemoryStore_LRUEviction(t *testing.T) {
	store := NewMemoryStore(testPolicy(EvictLRU, 3))
	defer store.Close()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_ = store.Set(ctx, fmt.Sprintf("k%d", i), result(float64(i)), time.Hour)
	}

	// Touch k1 and k3 so k2 becomes the least recently used.
	store.Get(ctx, "k1")
	store.Get(ctx, "k3")

	_ = store.Set(ctx, "k4", result(4), time.Hour)

	if _, ok := store.Get(ctx, "k2"); ok {
		t.Error("LRU should have evicted k2")
	}
	for _, k := range []string{"k1", "k3", "k4"} {
		if _, ok := store.Get(ctx, k); !ok {
			t.Errorf("%s should have survived LRU eviction", k)
		}
	}
	if store.Len() != 3 {
		t.Errorf("Len = %d, want 3 (exactly one eviction)", store.Len())
	}
}

func TestMemoryStore_LFUEviction(t *testing.T) {
	store := NewMemoryStore(testPolicy(EvictLFU, 3))
	defer store.Close()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_ = store.Set(ctx, fmt.Sprintf("k%d", i), result(float64(i)), time.Hour)
	}

	// k1 twice, k3 once, k2 never: k2 has the lowest count.
	store.Get(ctx, "k1")
	store.Get(ctx, "k1")
	store.Get(ctx, "k3")

	_ = store.Set(ctx, "k4", result(4), time.Hour)

	if _, ok := store.Get(ctx, "k2"); ok {
		t.Error("LFU should have evicted k2")
	}
	if store.Len() != 3 {
		t.Errorf("Len = %d, want 3", store.Len())
	}
}

// TestMemoryStore_LFUTieBreak verifies ties on access count break by oldest
// last access.
func TestMemoryStore_LFUTieBreak(t *testing.T) {
	store := NewMemoryStore(testPolicy(EvictLFU, 2))
	defer store.Close()
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	store.now = func() time.Time { return now }

	_ = store.Set(ctx, "older", result(1), time.Hour)
	now = now.Add(time.Second)
	_ = store.Set(ctx, "newer", result(2), time.Hour)

	// Both have accessCount 0; "older" has the older lastAccessedAt.
	now = now.Add(time.Second)
	_ = store.Set(ctx, "k3", result(3), time.Hour)

	if _, ok := store.Get(ctx, "older"); ok {
		t.Error("LFU tie should evict the entry with the oldest last access")
	}
	if _, ok := store.Get(ctx, "newer"); !ok {
		t.Error("newer entry should survive the tie break")
	}
}

func TestMemoryStore_FIFOEvictionIgnoresAccess(t *testing.T) {
	store := NewMemoryStore(testPolicy(EvictFIFO, 3))
	defer store.Close()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_ = store.Set(ctx, fmt.Sprintf("k%d", i), result(float64(i)), time.Hour)
	}

	// Heavy access on k1 must not save it: FIFO evicts the earliest insert.
	for i := 0; i < 10; i++ {
		store.Get(ctx, "k1")
	}

	_ = store.Set(ctx, "k4", result(4), time.Hour)

	if _, ok := store.Get(ctx, "k1"); ok {
		t.Error("FIFO should have evicted k1 despite frequent access")
	}
	for _, k := range []string{"k2", "k3", "k4"} {
		if _, ok := store.Get(ctx, k); !ok {
			t.Errorf("%s should have survived FIFO eviction", k)
		}
	}
}

// TestMemoryStore_OverwriteKeepsSingleEntry verifies Set on an existing key
// overwrites in place and never duplicates or evicts.
func TestMemoryStore_OverwriteKeepsSingleEntry(t *testing.T) {
	store := NewMemoryStore(testPolicy(EvictLRU, 2))
	defer store.Close()
	ctx := context.Background()

	_ = store.Set(ctx, "a", result(1), time.Hour)
	_ = store.Set(ctx, "b", result(2), time.Hour)
	_ = store.Set(ctx, "a", result(10), time.Hour)

	if store.Len() != 2 {
		t.Errorf("Len = %d, want 2", store.Len())
	}
	got, ok := store.Get(ctx, "a")
	if !ok || got.Value != 10 {
		t.Errorf("overwritten entry = (%v, %v), want value 10", got, ok)
	}
	if _, ok := store.Get(ctx, "b"); !ok {
		t.Error("overwrite must not evict another entry")
	}
	if store.Stats().Evictions != 0 {
		t.Errorf("Evictions = %d, want 0", store.Stats().Evictions)
	}
}

func TestMemoryStore_ClearAndClearPrefix(t *testing.T) {
	store := NewMemoryStore(testPolicy(EvictLRU, 10))
	defer store.Close()
	ctx := context.Background()

	_ = store.Set(ctx, "calc:steel:1", result(1), time.Hour)
	_ = store.Set(ctx, "calc:steel:2", result(2), time.Hour)
	_ = store.Set(ctx, "calc:hvac:1", result(3), time.Hour)

	if removed := store.ClearPrefix("calc:steel:"); removed != 2 {
		t.Errorf("ClearPrefix removed %d, want 2", removed)
	}
	if store.Len() != 1 {
		t.Errorf("Len after ClearPrefix = %d, want 1", store.Len())
	}
	if _, ok := store.Get(ctx, "calc:hvac:1"); !ok {
		t.Error("other prefix should survive ClearPrefix")
	}

	store.Clear()
	if store.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", store.Len())
	}
}

func TestMemoryStore_Sweep(t *testing.T) {
	policy := testPolicy(EvictLRU, 10)
	policy.SweepInterval = 10 * time.Millisecond
	store := NewMemoryStore(policy)
	defer store.Close()
	ctx := context.Background()

	_ = store.Set(ctx, "short", result(1), 20*time.Millisecond)
	_ = store.Set(ctx, "long", result(2), time.Hour)

	// The sweep removes the expired entry without any Get driving it.
	deadline := time.Now().Add(2 * time.Second)
	for store.Len() > 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if store.Len() != 1 {
		t.Fatalf("Len after sweep = %d, want 1", store.Len())
	}
	if _, ok := store.Get(ctx, "long"); !ok {
		t.Error("unexpired entry should survive the sweep")
	}
}

func TestMemoryStore_Stats(t *testing.T) {
	store := NewMemoryStore(testPolicy(EvictLRU, 10))
	defer store.Close()
	ctx := context.Background()

	_ = store.Set(ctx, "k", result(1), time.Hour)
	store.Get(ctx, "k")
	store.Get(ctx, "k")
	store.Get(ctx, "missing")

	stats := store.Stats()
	if stats.Size != 1 {
		t.Errorf("Size = %d, want 1", stats.Size)
	}
	if stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("Hits/Misses = %d/%d, want 2/1", stats.Hits, stats.Misses)
	}
	if want := 2.0 / 3.0; stats.HitRate != want {
		t.Errorf("HitRate = %v, want %v", stats.HitRate, want)
	}
	if stats.ApproxMemoryBytes <= 0 {
		t.Errorf("ApproxMemoryBytes = %d, want > 0", stats.ApproxMemoryBytes)
	}
}

func TestMemoryStore_Close(t *testing.T) {
	store := NewMemoryStore(testPolicy(EvictLRU, 10))
	ctx := context.Background()

	_ = store.Set(ctx, "k", result(1), time.Hour)
	store.Close()
	store.Close() // idempotent

	if err := store.Set(ctx, "k2", result(2), time.Hour); err != ErrStoreClosed {
		t.Errorf("Set after Close = %v, want ErrStoreClosed", err)
	}
	if _, ok := store.Get(ctx, "k"); ok {
		t.Error("Get after Close should miss")
	}
}

// TestMemoryStore_ConcurrentAccess hammers the store from many goroutines;
// run with -race to verify the single-lock discipline.
func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	policy := testPolicy(EvictLRU, 50)
	policy.SweepInterval = time.Millisecond
	store := NewMemoryStore(policy)
	defer store.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", i%60)
				switch i % 3 {
				case 0:
					_ = store.Set(ctx, key, result(float64(i)), time.Millisecond*time.Duration(1+i%5))
				case 1:
					store.Get(ctx, key)
				default:
					_ = store.Delete(ctx, key)
				}
			}
		}(g)
	}
	wg.Wait()

	// Tracking structures must not drift: Len is derived from the map and
	// the list in lockstep, so a successful pass plus -race suffices here.
	if store.Len() > 50 {
		t.Errorf("Len = %d exceeds capacity 50", store.Len())
	}
}
