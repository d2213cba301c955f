package fit

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cwbudde/evoshapes/internal/gene"
)

// countingEvaluator fails the test if it is ever entered concurrently
type countingEvaluator struct {
	t      *testing.T
	active atomic.Int32
	calls  atomic.Int32
}

func (c *countingEvaluator) Fitness(genes []*gene.Shape, width, height int) (float64, error) {
	if c.active.Add(1) != 1 {
		c.t.Error("Evaluator entered concurrently")
	}
	defer c.active.Add(-1)
	c.calls.Add(1)
	return float64(width * height), nil
}

func TestExclusiveSerializesCalls(t *testing.T) {
	inner := &countingEvaluator{t: t}
	ex := NewExclusive(inner)
	defer ex.Close()

	var wg sync.WaitGroup
	for i := 1; i <= 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			f, err := ex.Fitness(nil, n, 2)
			if err != nil {
				t.Errorf("Fitness failed: %v", err)
				return
			}
			if f != float64(2*n) {
				t.Errorf("Reply routed to wrong caller: got %f, want %d", f, 2*n)
			}
		}(i)
	}
	wg.Wait()

	if inner.calls.Load() != 16 {
		t.Errorf("Expected 16 calls, got %d", inner.calls.Load())
	}
}

func TestExclusiveClosed(t *testing.T) {
	ex := NewExclusive(&countingEvaluator{t: t})

	if err := ex.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := ex.Close(); err != nil {
		t.Fatalf("Second Close failed: %v", err)
	}

	if _, err := ex.Fitness(nil, 1, 1); !errors.Is(err, ErrExecutorClosed) {
		t.Errorf("Expected ErrExecutorClosed, got %v", err)
	}
}

func TestExclusiveDo(t *testing.T) {
	ex := NewExclusive(&countingEvaluator{t: t})

	var ran bool
	if err := ex.Do(func() { ran = true }); err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if !ran {
		t.Error("Do must wait for fn to finish")
	}

	ex.Close()
	if err := ex.Do(func() { t.Error("fn must not run after Close") }); !errors.Is(err, ErrExecutorClosed) {
		t.Errorf("Expected ErrExecutorClosed, got %v", err)
	}
}
