package parallel

import (
	"sync/atomic"
	"testing"
)

// TestForEachVisitsAllIndices verifies every index is visited exactly once.
func TestForEachVisitsAllIndices(t *testing.T) {
	const n = 1000
	visits := make([]int32, n)

	ForEach(n, 8, func(i int) {
		atomic.AddInt32(&visits[i], 1)
	})

	for i, v := range visits {
		if v != 1 {
			t.Errorf("expected index %d visited once, got %d", i, v)
		}
	}
}

// TestForEachRespectsLimit verifies concurrency never exceeds the bound.
func TestForEachRespectsLimit(t *testing.T) {
	const n = 200
	const limit = 4

	var active, peak int32
	ForEach(n, limit, func(i int) {
		cur := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if cur <= p || atomic.CompareAndSwapInt32(&peak, p, cur) {
				break
			}
		}
		atomic.AddInt32(&active, -1)
	})

	if peak > limit {
		t.Errorf("expected at most %d concurrent bodies, got %d", limit, peak)
	}
}

// TestForEachSequentialFallback covers the degraded single-goroutine path.
func TestForEachSequentialFallback(t *testing.T) {
	var order []int
	ForEach(5, 1, func(i int) {
		order = append(order, i)
	})

	for i, v := range order {
		if v != i {
			t.Errorf("expected sequential order at %d, got %d", i, v)
		}
	}
	if len(order) != 5 {
		t.Errorf("expected 5 visits, got %d", len(order))
	}
}

// TestForEachEmpty verifies a non-positive count is a no-op.
func TestForEachEmpty(t *testing.T) {
	called := false
	ForEach(0, 4, func(i int) { called = true })
	ForEach(-3, 4, func(i int) { called = true })
	if called {
		t.Error("expected no body calls for non-positive n")
	}
}

// TestDefaultLimit verifies the probe always yields a usable bound.
func TestDefaultLimit(t *testing.T) {
	if DefaultLimit() < 1 {
		t.Errorf("expected a positive limit, got %d", DefaultLimit())
	}
}
