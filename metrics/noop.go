package metrics

// NoopProvider returns no-op instruments. It is the default provider of an Engine.
// All methods are safe for concurrent use and perform no work.
type NoopProvider struct{}

// NewNoopProvider constructs a Provider that discards all metrics.
func NewNoopProvider() NoopProvider { return NoopProvider{} }

func (NoopProvider) Counter(_ string, _ ...InstrumentOption) Counter             { return noop{} }
func (NoopProvider) UpDownCounter(_ string, _ ...InstrumentOption) UpDownCounter { return noop{} }
func (NoopProvider) Histogram(_ string, _ ...InstrumentOption) Histogram         { return noop{} }

// noop satisfies every instrument interface.
type noop struct{}

func (noop) Add(_ int64)      {}
func (noop) Record(_ float64) {}
