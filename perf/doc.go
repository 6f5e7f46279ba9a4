// Package perf records per-calculator performance samples and derives
// rolling aggregate statistics: averages, nearest-rank percentiles over a
// bounded window, throughput, and error/cache-hit rates.
package perf
