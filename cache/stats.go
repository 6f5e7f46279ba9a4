package cache

// Stats is a snapshot of store performance counters.
type Stats struct {
	Size              int     `json:"size"`
	Hits              int64   `json:"hits"`
	Misses            int64   `json:"misses"`
	Evictions         int64   `json:"evictions"`
	Expirations       int64   `json:"expirations"`
	HitRate           float64 `json:"hit_rate"`
	ApproxMemoryBytes int64   `json:"approx_memory_bytes"`
}
