package baselooper

import (
	"testing"
	"time"
)

func TestLooperMetricsRecordAndSnapshot(t *testing.T) {
	m := newLooperMetrics(4)

	for _, d := range []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		30 * time.Millisecond,
		40 * time.Millisecond,
	} {
		m.recordDispatch(d)
	}

	snap := m.snapshot()
	if snap.DispatchCount != 4 {
		t.Fatalf("DispatchCount = %d, want 4", snap.DispatchCount)
	}
	if snap.LastDispatch != 40*time.Millisecond {
		t.Fatalf("LastDispatch = %v, want 40ms", snap.LastDispatch)
	}
	if snap.P50Dispatch == 0 {
		t.Fatal("P50Dispatch should be non-zero once samples exist")
	}
	if snap.P99Dispatch < snap.P50Dispatch {
		t.Fatalf("P99Dispatch (%v) should be >= P50Dispatch (%v)", snap.P99Dispatch, snap.P50Dispatch)
	}
}

func TestLooperMetricsWindowWraps(t *testing.T) {
	m := newLooperMetrics(2)
	m.recordDispatch(1 * time.Millisecond)
	m.recordDispatch(2 * time.Millisecond)
	m.recordDispatch(3 * time.Millisecond)

	snap := m.snapshot()
	if snap.DispatchCount != 3 {
		t.Fatalf("DispatchCount = %d, want 3", snap.DispatchCount)
	}
	// Only the last 2 samples (2ms, 3ms) survive in a window of size 2.
	if snap.P99Dispatch != 3*time.Millisecond {
		t.Fatalf("P99Dispatch = %v, want 3ms", snap.P99Dispatch)
	}
}

func TestLooperMetricsZeroWindowStillCounts(t *testing.T) {
	m := newLooperMetrics(0)
	m.recordDispatch(5 * time.Millisecond)
	snap := m.snapshot()
	if snap.DispatchCount != 1 {
		t.Fatalf("DispatchCount = %d, want 1", snap.DispatchCount)
	}
	if snap.P50Dispatch != 0 {
		t.Fatalf("P50Dispatch = %v, want 0 with no sample window", snap.P50Dispatch)
	}
}

func TestPercentileEmpty(t *testing.T) {
	if got := percentile(nil, 0.5); got != 0 {
		t.Fatalf("percentile(nil) = %v, want 0", got)
	}
}
