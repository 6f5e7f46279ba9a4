package perf

import (
	"math"
	"sort"
	"sync"
	"time"
)

// DefaultWindowSize is the number of most-recent samples retained per
// calculator for percentile estimation.
const DefaultWindowSize = 512

// CalcStats is a snapshot of aggregate statistics for one calculator.
//
// Percentiles use the nearest-rank method over the retained window, so a
// stream of identical durations reports that duration at every percentile
// and repeated identical samples never lower an estimate.
type CalcStats struct {
	Count         int64   `json:"count"`
	AverageMs     float64 `json:"average_ms"`
	P95Ms         float64 `json:"p95_ms"`
	P99Ms         float64 `json:"p99_ms"`
	Throughput    float64 `json:"throughput"` // calls per second over the observed span
	ErrorRate     float64 `json:"error_rate"`
	CacheHitRate  float64 `json:"cache_hit_rate"`
	AvgInputCount float64 `json:"avg_input_count"`
}

// SystemStats aggregates statistics across all calculators.
type SystemStats struct {
	Calculators  int     `json:"calculators"`
	TotalCalls   int64   `json:"total_calls"`
	AverageMs    float64 `json:"average_ms"`
	ErrorRate    float64 `json:"error_rate"`
	CacheHitRate float64 `json:"cache_hit_rate"`
}

// Monitor records calculation samples and serves rolling statistics.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Memory: per-calculator history is capped at the window size; running
//   totals are unbounded counters.
type Monitor struct {
	mu     sync.RWMutex
	window int
	series map[string]*series
	now    func() time.Time
}

type series struct {
	// durationsMs is a ring buffer of the most recent sample durations.
	durationsMs []float64
	next        int
	filled      bool

	count       int64
	errors      int64
	hits        int64
	totalMs     float64
	totalInputs int64
	firstAt     time.Time
	lastAt      time.Time
}

// NewMonitor creates a monitor with the default window size.
func NewMonitor() *Monitor {
	return NewMonitorWithWindow(DefaultWindowSize)
}

// NewMonitorWithWindow creates a monitor retaining the given number of
// recent samples per calculator.
func NewMonitorWithWindow(window int) *Monitor {
	if window <= 0 {
		window = DefaultWindowSize
	}
	return &Monitor{
		window: window,
		series: make(map[string]*series),
		now:    time.Now,
	}
}

// Record adds one sample. Samples are write-once: they fold into the running
// aggregates and the bounded duration window and are never individually
// removed.
func (m *Monitor) Record(calculatorID string, d time.Duration, inputCount int, cacheHit bool, err error) {
	ms := float64(d) / float64(time.Millisecond)

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.series[calculatorID]
	if !ok {
		s = &series{
			durationsMs: make([]float64, m.window),
			firstAt:     m.now(),
		}
		m.series[calculatorID] = s
	}

	s.durationsMs[s.next] = ms
	s.next++
	if s.next == len(s.durationsMs) {
		s.next = 0
		s.filled = true
	}

	s.count++
	s.totalMs += ms
	s.totalInputs += int64(inputCount)
	if err != nil {
		s.errors++
	}
	if cacheHit {
		s.hits++
	}
	s.lastAt = m.now()
}

// StatsFor returns aggregate statistics for one calculator. The zero value
// is returned for an unknown ID.
func (m *Monitor) StatsFor(calculatorID string) CalcStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.series[calculatorID]
	if !ok || s.count == 0 {
		return CalcStats{}
	}

	windowCopy := s.windowSnapshot()
	sort.Float64s(windowCopy)

	// Throughput is calls per second over the observed span, floored at
	// one second so bursts report their call count rather than diverging.
	elapsed := s.lastAt.Sub(s.firstAt)
	if elapsed < time.Second {
		elapsed = time.Second
	}

	return CalcStats{
		Count:         s.count,
		AverageMs:     s.totalMs / float64(s.count),
		P95Ms:         nearestRank(windowCopy, 0.95),
		P99Ms:         nearestRank(windowCopy, 0.99),
		Throughput:    float64(s.count) / elapsed.Seconds(),
		ErrorRate:     float64(s.errors) / float64(s.count),
		CacheHitRate:  float64(s.hits) / float64(s.count),
		AvgInputCount: float64(s.totalInputs) / float64(s.count),
	}
}

// Calculators returns the IDs with recorded samples, unordered.
func (m *Monitor) Calculators() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.series))
	for id := range m.series {
		ids = append(ids, id)
	}
	return ids
}

// SystemStats aggregates across all calculators.
func (m *Monitor) SystemStats() SystemStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := SystemStats{Calculators: len(m.series)}
	var totalMs float64
	var errors, hits int64
	for _, s := range m.series {
		out.TotalCalls += s.count
		totalMs += s.totalMs
		errors += s.errors
		hits += s.hits
	}
	if out.TotalCalls > 0 {
		out.AverageMs = totalMs / float64(out.TotalCalls)
		out.ErrorRate = float64(errors) / float64(out.TotalCalls)
		out.CacheHitRate = float64(hits) / float64(out.TotalCalls)
	}
	return out
}

// windowSnapshot copies the populated portion of the ring buffer.
func (s *series) windowSnapshot() []float64 {
	n := s.next
	if s.filled {
		n = len(s.durationsMs)
	}
	out := make([]float64, n)
	copy(out, s.durationsMs[:n])
	return out
}

// nearestRank returns the value at rank ceil(p*n) of a sorted slice.
func nearestRank(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(math.Ceil(p * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}
