package pipeline

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	timestamp  time.Time
	durationMs int64
}

// LatencySnapshot aggregates split latencies inside the rolling window.
type LatencySnapshot struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// Counters are totals since process start.
type Counters struct {
	Documents     int64 `json:"documents"`
	Fragments     int64 `json:"fragments"`
	OversizeUnits int64 `json:"oversize_units"`
	Failures      int64 `json:"failures"`
	CacheHits     int64 `json:"cache_hits"`
}

// StatsSnapshot is a point-in-time view of SplitStats.
type StatsSnapshot struct {
	Latency  LatencySnapshot `json:"latency"`
	Counters Counters        `json:"counters"`
}

// SplitStats tracks recent split latencies within a rolling window plus
// lifetime counters.
type SplitStats struct {
	mu       sync.Mutex
	samples  []sample
	maxAge   time.Duration
	counters Counters
}

func NewSplitStats(maxAge time.Duration) *SplitStats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &SplitStats{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
	}
}

// RecordSplit records one successful split.
func (s *SplitStats) RecordSplit(durationMs int64, fragments, oversize int) {
	if durationMs < 0 {
		durationMs = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	s.samples = append(s.samples, sample{
		timestamp:  now,
		durationMs: durationMs,
	})
	s.counters.Documents++
	s.counters.Fragments += int64(fragments)
	s.counters.OversizeUnits += int64(oversize)
}

func (s *SplitStats) RecordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters.Failures++
}

func (s *SplitStats) RecordCacheHit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters.CacheHits++
}

func (s *SplitStats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	snap := StatsSnapshot{Counters: s.counters}
	if len(s.samples) == 0 {
		return snap
	}

	values := make([]int64, 0, len(s.samples))
	var sum int64
	for _, sm := range s.samples {
		values = append(values, sm.durationMs)
		sum += sm.durationMs
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	snap.Latency = LatencySnapshot{
		Count: len(values),
		MinMs: values[0],
		MaxMs: values[len(values)-1],
		AvgMs: float64(sum) / float64(len(values)),
		P50Ms: percentile(values, 50),
		P95Ms: percentile(values, 95),
		P99Ms: percentile(values, 99),
	}
	return snap
}

func (s *SplitStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	writeIdx := 0
	for _, sm := range s.samples {
		if !sm.timestamp.Before(cutoff) {
			s.samples[writeIdx] = sm
			writeIdx++
		}
	}
	s.samples = s.samples[:writeIdx]
}

// percentile interpolates linearly between the two nearest ranks.
func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
