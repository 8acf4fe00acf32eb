package baselooper

import (
	"sort"
	"sync"
	"time"
)

// LooperMetrics is a point-in-time snapshot of a Looper's dispatch
// activity, returned by [Looper.Metrics].
type LooperMetrics struct {
	DispatchCount  uint64
	QueueDepth     int
	LastDispatch   time.Duration
	P50Dispatch    time.Duration
	P90Dispatch    time.Duration
	P99Dispatch    time.Duration
}

// looperMetrics tracks dispatch counters and a bounded ring of recent
// dispatch latencies, used to estimate percentiles on demand. This is a
// deliberately simplified replacement for a streaming P-Square estimator:
// the Looper's dispatch rate does not justify that complexity, and a
// small fixed sample buffer is easier to reason about and just as useful
// for the introspection this is used for.
type looperMetrics struct {
	mu      sync.Mutex
	count   uint64
	last    time.Duration
	window  []time.Duration
	cursor  int
	filled  bool
}

func newLooperMetrics(windowSize int) *looperMetrics {
	if windowSize < 0 {
		windowSize = 0
	}
	return &looperMetrics{window: make([]time.Duration, windowSize)}
}

func (m *looperMetrics) recordDispatch(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count++
	m.last = d
	if len(m.window) == 0 {
		return
	}
	m.window[m.cursor] = d
	m.cursor = (m.cursor + 1) % len(m.window)
	if m.cursor == 0 {
		m.filled = true
	}
}

func (m *looperMetrics) snapshot() LooperMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.cursor
	if m.filled {
		n = len(m.window)
	}
	samples := make([]time.Duration, n)
	copy(samples, m.window[:n])
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })

	return LooperMetrics{
		DispatchCount: m.count,
		LastDispatch:  m.last,
		P50Dispatch:   percentile(samples, 0.50),
		P90Dispatch:   percentile(samples, 0.90),
		P99Dispatch:   percentile(samples, 0.99),
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
