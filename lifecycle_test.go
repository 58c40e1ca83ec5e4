package fanin

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// helper to read a string from a channel with timeout
func recvStep(t *testing.T, ch <-chan string, d time.Duration) (string, bool) {
	t.Helper()
	select {
	case s := <-ch:
		return s, true
	case <-time.After(d):
		return "", false
	}
}

func TestLifecycle_OrderAndSignals(t *testing.T) {
	steps := make(chan string, 10)

	// workers starts at 1 so we control when shutdown proceeds beyond Wait
	var workers sync.WaitGroup
	workers.Add(1)

	dispose := func() { steps <- "dispose" }
	closer := func(name string) func() error {
		return func() error { steps <- name; return nil }
	}

	lc := newLifecycleCoordinator(
		dispose,
		&workers,
		[]func() error{closer("close0"), closer("close1"), closer("close2")},
	)

	done := make(chan struct{})
	go func() { _ = lc.Close(); close(done) }()

	if s, ok := recvStep(t, steps, 200*time.Millisecond); !ok || s != "dispose" {
		t.Fatalf("expected first step 'dispose', got=%q ok=%v", s, ok)
	}
	// producers must not be closed while a worker is running
	if s, ok := recvStep(t, steps, 50*time.Millisecond); ok {
		t.Fatalf("step %q ran before workers exited", s)
	}

	workers.Done()

	for i, want := range []string{"close0", "close1", "close2"} {
		s, ok := recvStep(t, steps, 200*time.Millisecond)
		if !ok || s != want {
			t.Fatalf("tail step %d: expected %q, got %q ok=%v", i+1, want, s, ok)
		}
	}
	<-done
}

func TestLifecycle_Idempotent_ConcurrentClose(t *testing.T) {
	var mu sync.Mutex
	counts := map[string]int{}
	record := func(name string) {
		mu.Lock()
		counts[name]++
		mu.Unlock()
	}

	var workers sync.WaitGroup
	lc := newLifecycleCoordinator(
		func() { record("dispose") },
		&workers,
		[]func() error{
			func() error { record("close0"); return nil },
			func() error { record("close1"); return errors.New("close1 failed") },
		},
	)

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() { defer wg.Done(); errs[i] = lc.Close() }()
	}
	wg.Wait()

	for _, k := range []string{"dispose", "close0", "close1"} {
		if counts[k] != 1 {
			t.Fatalf("expected step %q exactly once, got %d", k, counts[k])
		}
	}
	for i, err := range errs {
		if err == nil || err != errs[0] {
			t.Fatalf("Close #%d returned %v; want the shared aggregate error", i, err)
		}
	}
}

func TestLifecycle_CloseContinuesPastFailures(t *testing.T) {
	errA := errors.New("a failed")
	errC := errors.New("c failed")
	var closed []int

	lc := newLifecycleCoordinator(nil, nil, []func() error{
		func() error { closed = append(closed, 0); return errA },
		nil,
		func() error { closed = append(closed, 2); return nil },
		func() error { closed = append(closed, 3); return errC },
	})

	err := lc.Close()
	if len(closed) != 3 || closed[0] != 0 || closed[1] != 2 || closed[2] != 3 {
		t.Fatalf("closed = %v; want [0 2 3]", closed)
	}
	if !errors.Is(err, errA) || !errors.Is(err, errC) {
		t.Fatalf("aggregate error %v does not wrap both close failures", err)
	}
	if !strings.Contains(err.Error(), "producer 0") || !strings.Contains(err.Error(), "producer 3") {
		t.Fatalf("aggregate error %q does not name the failing producers", err)
	}
}

func TestLifecycle_NoFailures_ReturnsNil(t *testing.T) {
	lc := newLifecycleCoordinator(func() {}, &sync.WaitGroup{}, []func() error{func() error { return nil }})
	if err := lc.Close(); err != nil {
		t.Fatalf("Close() = %v; want nil", err)
	}
}
