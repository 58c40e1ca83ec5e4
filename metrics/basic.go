package metrics

import (
	"sync"
	"sync/atomic"
)

// BasicProvider is an in-memory Provider. It is concurrency-safe and suitable for tests
// and for reading engine statistics without an external metrics system.
// Instruments are created on first request and reused for the same name.
type BasicProvider struct {
	counters   *instrumentSet[*BasicCounter]
	updowns    *instrumentSet[*BasicUpDownCounter]
	histograms *instrumentSet[*BasicHistogram]
}

// NewBasicProvider constructs a new BasicProvider.
func NewBasicProvider() *BasicProvider {
	return &BasicProvider{
		counters:   newInstrumentSet(func() *BasicCounter { return &BasicCounter{} }),
		updowns:    newInstrumentSet(func() *BasicUpDownCounter { return &BasicUpDownCounter{} }),
		histograms: newInstrumentSet(func() *BasicHistogram { return &BasicHistogram{} }),
	}
}

// Counter returns the monotonic counter registered under name.
func (p *BasicProvider) Counter(name string, opts ...InstrumentOption) Counter {
	return p.counters.get(name, opts)
}

// UpDownCounter returns the up/down counter registered under name.
func (p *BasicProvider) UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter {
	return p.updowns.get(name, opts)
}

// Histogram returns the histogram registered under name.
func (p *BasicProvider) Histogram(name string, opts ...InstrumentOption) Histogram {
	return p.histograms.get(name, opts)
}

// CounterValue returns the current value of the named counter, or 0 if it was never created.
func (p *BasicProvider) CounterValue(name string) int64 {
	if c, ok := p.counters.lookup(name); ok {
		return c.Snapshot()
	}
	return 0
}

// UpDownValue returns the current value of the named up/down counter, or 0.
func (p *BasicProvider) UpDownValue(name string) int64 {
	if u, ok := p.updowns.lookup(name); ok {
		return u.Snapshot()
	}
	return 0
}

// HistogramSnapshot returns a snapshot of the named histogram, or a zero snapshot.
func (p *BasicProvider) HistogramSnapshot(name string) HistSnapshot {
	if h, ok := p.histograms.lookup(name); ok {
		return h.Snapshot()
	}
	return HistSnapshot{}
}

// Config returns the options an instrument was created with.
func (p *BasicProvider) Config(name string) (InstrumentConfig, bool) {
	for _, s := range []interface {
		config(string) (InstrumentConfig, bool)
	}{p.counters, p.updowns, p.histograms} {
		if cfg, ok := s.config(name); ok {
			return cfg, true
		}
	}
	return InstrumentConfig{}, false
}

// instrumentSet maps names to instruments of one kind.
type instrumentSet[I any] struct {
	mu    sync.RWMutex
	items map[string]I
	meta  map[string]InstrumentConfig
	newFn func() I
}

func newInstrumentSet[I any](newFn func() I) *instrumentSet[I] {
	return &instrumentSet[I]{
		items: make(map[string]I),
		meta:  make(map[string]InstrumentConfig),
		newFn: newFn,
	}
}

func (s *instrumentSet[I]) lookup(name string) (I, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.items[name]
	return i, ok
}

func (s *instrumentSet[I]) get(name string, opts []InstrumentOption) I {
	if i, ok := s.lookup(name); ok {
		return i
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// re-check after acquiring write lock
	if i, ok := s.items[name]; ok {
		return i
	}
	i := s.newFn()
	s.items[name] = i
	s.meta[name] = applyOptions(opts)
	return i
}

func (s *instrumentSet[I]) config(name string) (InstrumentConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.meta[name]
	return cfg, ok
}

// BasicCounter is a thread-safe monotonic counter.
type BasicCounter struct {
	val atomic.Int64
}

// Add increments the counter by n.
func (c *BasicCounter) Add(n int64) { c.val.Add(n) }

// Snapshot returns the current value.
func (c *BasicCounter) Snapshot() int64 { return c.val.Load() }

// BasicUpDownCounter is a thread-safe up/down counter.
type BasicUpDownCounter struct {
	val atomic.Int64
}

// Add adds n (positive or negative) to the current value.
func (u *BasicUpDownCounter) Add(n int64) { u.val.Add(n) }

// Snapshot returns the current value.
func (u *BasicUpDownCounter) Snapshot() int64 { return u.val.Load() }

// BasicHistogram tracks count, sum, min and max. It keeps no buckets.
type BasicHistogram struct {
	mu   sync.Mutex
	snap HistSnapshot
}

// HistSnapshot is an immutable snapshot of a BasicHistogram.
type HistSnapshot struct {
	Count int64
	Sum   float64
	Min   float64
	Max   float64
	Mean  float64
}

// Record adds a measurement to the histogram.
func (h *BasicHistogram) Record(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.snap.Count == 0 || v < h.snap.Min {
		h.snap.Min = v
	}
	if h.snap.Count == 0 || v > h.snap.Max {
		h.snap.Max = v
	}
	h.snap.Count++
	h.snap.Sum += v
	h.snap.Mean = h.snap.Sum / float64(h.snap.Count)
}

// Snapshot returns a copy of the histogram state at the time of call.
func (h *BasicHistogram) Snapshot() HistSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snap
}
