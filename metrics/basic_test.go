package metrics

import (
	"reflect"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBasicProvider_Counter_ReusedAndAccumulates(t *testing.T) {
	p := NewBasicProvider()

	c1 := p.Counter("fanin_items_published_total")
	c2 := p.Counter("fanin_items_published_total")

	if reflect.ValueOf(c1).Pointer() != reflect.ValueOf(c2).Pointer() {
		t.Fatalf("expected same counter instance for same name")
	}

	c1.Add(3)
	c2.Add(2)
	require.Equal(t, int64(5), p.CounterValue("fanin_items_published_total"))

	cOther := p.Counter("fanin_batches_published_total")
	if reflect.ValueOf(cOther).Pointer() == reflect.ValueOf(c1).Pointer() {
		t.Fatalf("expected different counter instance for different name")
	}
	require.Equal(t, int64(0), p.CounterValue("fanin_batches_published_total"))
	require.Equal(t, int64(0), p.CounterValue("never_created"))
}

func TestBasicProvider_UpDownCounter_Moves(t *testing.T) {
	p := NewBasicProvider()
	u := p.UpDownCounter("fanin_workers_active")

	u.Add(+3)
	u.Add(-1)
	u.Add(+10)
	require.Equal(t, int64(12), p.UpDownValue("fanin_workers_active"))
}

func TestBasicProvider_Histogram_RecordsStats(t *testing.T) {
	p := NewBasicProvider()
	h := p.Histogram("fanin_drain_duration_seconds")

	require.Equal(t, HistSnapshot{}, p.HistogramSnapshot("fanin_drain_duration_seconds"))

	h.Record(0.1)
	h.Record(0.3)
	h.Record(0.2)
	s := p.HistogramSnapshot("fanin_drain_duration_seconds")
	require.Equal(t, int64(3), s.Count)
	require.Equal(t, 0.1, s.Min)
	require.Equal(t, 0.3, s.Max)
	require.InDelta(t, 0.6, s.Sum, 0.01)
	require.InDelta(t, 0.2, s.Mean, 0.01)
}

func TestBasicProvider_Config_StoredPerInstrument(t *testing.T) {
	p := NewBasicProvider()
	p.Counter("c", WithDescription("desc"), WithUnit("1"), WithAttributes(map[string]string{"table": "users"}))
	p.Histogram("h", WithBuckets(0.1, 1))

	cfg, ok := p.Config("c")
	require.True(t, ok)
	require.Equal(t, "desc", cfg.Description)
	require.Equal(t, "1", cfg.Unit)
	require.Equal(t, map[string]string{"table": "users"}, cfg.Attributes)

	cfg, ok = p.Config("h")
	require.True(t, ok)
	require.Equal(t, []float64{0.1, 1}, cfg.Buckets)

	_, ok = p.Config("missing")
	require.False(t, ok)
}

func TestBasicProvider_Concurrent_GetSameInstrument(t *testing.T) {
	p := NewBasicProvider()
	n := 50
	ptrs := make([]uintptr, n)
	wg := sync.WaitGroup{}
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(idx int) {
			defer wg.Done()
			ptrs[idx] = reflect.ValueOf(p.Counter("shared")).Pointer()
		}(i)
	}
	wg.Wait()
	for i := 1; i < n; i++ {
		if ptrs[i] != ptrs[0] {
			t.Fatalf("expected same pointer for all retrieved counters; mismatch at %d", i)
		}
	}
}

func TestBasicProvider_Concurrent_AddAndRecord(t *testing.T) {
	p := NewBasicProvider()
	c := p.Counter("hits")
	u := p.UpDownCounter("active")
	h := p.Histogram("latency")

	workers := runtime.NumCPU() * 2
	iters := 500
	wg := sync.WaitGroup{}
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < iters; i++ {
				c.Add(1)
				u.Add(+1)
				h.Record(float64(i%10) / 100.0)
				u.Add(-1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(workers*iters), p.CounterValue("hits"))
	require.Equal(t, int64(0), p.UpDownValue("active"))
	s := p.HistogramSnapshot("latency")
	require.Equal(t, int64(workers*iters), s.Count)
	require.Equal(t, 0.0, s.Min)
	require.InDelta(t, 0.09, s.Max, 1e-9)
}

func TestNoopProvider_DiscardsEverything(t *testing.T) {
	p := NewNoopProvider()
	p.Counter("c").Add(1)
	p.UpDownCounter("u").Add(-1)
	p.Histogram("h").Record(1)

	var _ Provider = p
	var _ Provider = NewBasicProvider()
	var _ Provider = NewPrometheusProvider(nil)
}
