package perf

import (
	"errors"
	"testing"
	"time"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestMonitor_AverageAndThroughput(t *testing.T) {
	m := NewMonitor()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = fixedClock(base)

	m.Record("cost", 50*time.Millisecond, 3, false, nil)
	first := m.StatsFor("cost")
	if first.AverageMs != 50 {
		t.Errorf("average after one sample = %v, want 50", first.AverageMs)
	}

	m.Record("cost", 600*time.Millisecond, 3, false, nil)
	second := m.StatsFor("cost")

	if second.Count != 2 {
		t.Errorf("count = %d, want 2", second.Count)
	}
	if second.AverageMs != 325 {
		t.Errorf("average = %v, want 325", second.AverageMs)
	}
	if second.AverageMs <= first.AverageMs {
		t.Errorf("average did not increase after slow sample: %v -> %v", first.AverageMs, second.AverageMs)
	}
	// Both samples land within the same second, so the observed span floors
	// at one second and throughput reports the call count.
	if second.Throughput != 2 {
		t.Errorf("throughput = %v, want 2", second.Throughput)
	}
	if second.AvgInputCount != 3 {
		t.Errorf("avg input count = %v, want 3", second.AvgInputCount)
	}
}

func TestMonitor_ThroughputOverSpan(t *testing.T) {
	m := NewMonitor()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return at }

	for i := 0; i < 10; i++ {
		m.Record("cost", 10*time.Millisecond, 1, false, nil)
		at = at.Add(time.Second)
	}

	// 10 calls over 9 seconds of span.
	stats := m.StatsFor("cost")
	want := 10.0 / 9.0
	if diff := stats.Throughput - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("throughput = %v, want %v", stats.Throughput, want)
	}
}

func TestMonitor_Percentiles(t *testing.T) {
	m := NewMonitor()

	// 1ms..100ms; nearest-rank p95 over 100 samples is the 95th value.
	for i := 1; i <= 100; i++ {
		m.Record("cost", time.Duration(i)*time.Millisecond, 1, false, nil)
	}

	stats := m.StatsFor("cost")
	if stats.P95Ms != 95 {
		t.Errorf("p95 = %v, want 95", stats.P95Ms)
	}
	if stats.P99Ms != 99 {
		t.Errorf("p99 = %v, want 99", stats.P99Ms)
	}
	if stats.P99Ms < stats.P95Ms {
		t.Errorf("p99 (%v) below p95 (%v)", stats.P99Ms, stats.P95Ms)
	}
}

func TestMonitor_PercentilesIdenticalSamples(t *testing.T) {
	m := NewMonitor()
	for i := 0; i < 20; i++ {
		m.Record("cost", 40*time.Millisecond, 1, false, nil)
	}

	stats := m.StatsFor("cost")
	if stats.P95Ms != 40 || stats.P99Ms != 40 {
		t.Errorf("identical samples: p95=%v p99=%v, want 40/40", stats.P95Ms, stats.P99Ms)
	}
}

func TestMonitor_WindowBoundsPercentiles(t *testing.T) {
	m := NewMonitorWithWindow(4)

	// The slow early samples fall out of the 4-sample window; the running
	// average still sees them.
	m.Record("cost", 1000*time.Millisecond, 1, false, nil)
	for i := 0; i < 4; i++ {
		m.Record("cost", 10*time.Millisecond, 1, false, nil)
	}

	stats := m.StatsFor("cost")
	if stats.P99Ms != 10 {
		t.Errorf("p99 = %v, want 10 after window rollover", stats.P99Ms)
	}
	if stats.Count != 5 {
		t.Errorf("count = %d, want 5", stats.Count)
	}
	if stats.AverageMs != 208 {
		t.Errorf("average = %v, want 208", stats.AverageMs)
	}
}

func TestMonitor_ErrorAndHitRates(t *testing.T) {
	m := NewMonitor()

	m.Record("cost", time.Millisecond, 1, false, nil)
	m.Record("cost", time.Millisecond, 1, true, nil)
	m.Record("cost", time.Millisecond, 1, false, errors.New("boom"))
	m.Record("cost", time.Millisecond, 1, true, nil)

	stats := m.StatsFor("cost")
	if stats.ErrorRate != 0.25 {
		t.Errorf("error rate = %v, want 0.25", stats.ErrorRate)
	}
	if stats.CacheHitRate != 0.5 {
		t.Errorf("cache hit rate = %v, want 0.5", stats.CacheHitRate)
	}
}

func TestMonitor_UnknownCalculator(t *testing.T) {
	m := NewMonitor()
	if stats := m.StatsFor("missing"); stats != (CalcStats{}) {
		t.Errorf("unknown ID returned non-zero stats: %+v", stats)
	}
}

func TestMonitor_SystemStats(t *testing.T) {
	m := NewMonitor()

	m.Record("a", 10*time.Millisecond, 1, false, nil)
	m.Record("a", 20*time.Millisecond, 1, true, nil)
	m.Record("b", 30*time.Millisecond, 1, false, errors.New("boom"))

	sys := m.SystemStats()
	if sys.Calculators != 2 {
		t.Errorf("calculators = %d, want 2", sys.Calculators)
	}
	if sys.TotalCalls != 3 {
		t.Errorf("total calls = %d, want 3", sys.TotalCalls)
	}
	if sys.AverageMs != 20 {
		t.Errorf("average = %v, want 20", sys.AverageMs)
	}
	if diff := sys.ErrorRate - 1.0/3.0; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("error rate = %v, want 1/3", sys.ErrorRate)
	}
	if diff := sys.CacheHitRate - 1.0/3.0; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("cache hit rate = %v, want 1/3", sys.CacheHitRate)
	}
}

func TestMonitor_Calculators(t *testing.T) {
	m := NewMonitor()
	m.Record("a", time.Millisecond, 1, false, nil)
	m.Record("b", time.Millisecond, 1, false, nil)

	ids := m.Calculators()
	if len(ids) != 2 {
		t.Fatalf("got %d IDs, want 2", len(ids))
	}
	seen := map[string]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if !seen["a"] || !seen["b"] {
		t.Errorf("Calculators() = %v, want a and b", ids)
	}
}

func TestMonitor_ConcurrentRecord(t *testing.T) {
	m := NewMonitor()
	done := make(chan struct{})
	for g := 0; g < 8; g++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 200; i++ {
				m.Record("cost", time.Millisecond, 1, i%2 == 0, nil)
				_ = m.StatsFor("cost")
			}
		}()
	}
	for g := 0; g < 8; g++ {
		<-done
	}

	if stats := m.StatsFor("cost"); stats.Count != 1600 {
		t.Errorf("count = %d, want 1600", stats.Count)
	}
}
