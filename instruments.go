package fanin

import "github.com/ygrebnov/fanin/metrics"

const metricPrefix = "fanin_"

type instruments struct {
	itemsPublished          metrics.Counter
	batchesPublished        metrics.Counter
	producersCompleted      metrics.Counter
	producerErrors          metrics.Counter
	producerErrorsDiscarded metrics.Counter
	producerCloseErrors     metrics.Counter
	workersStarted          metrics.Counter
	workersActive           metrics.UpDownCounter
	drainDuration           metrics.Histogram
}

func newInstruments(p metrics.Provider) *instruments {
	return &instruments{
		itemsPublished: p.Counter(metricPrefix+"items_published_total",
			metrics.WithDescription("Items made visible to the consumer"), metrics.WithUnit("1")),
		batchesPublished: p.Counter(metricPrefix+"batches_published_total",
			metrics.WithDescription("Worker batches spliced into the shared list"), metrics.WithUnit("1")),
		producersCompleted: p.Counter(metricPrefix+"producers_completed_total",
			metrics.WithDescription("Producers drained to exhaustion"), metrics.WithUnit("1")),
		producerErrors: p.Counter(metricPrefix+"producer_errors_total",
			metrics.WithDescription("Producer errors recorded as the engine error"), metrics.WithUnit("1")),
		producerErrorsDiscarded: p.Counter(metricPrefix+"producer_errors_discarded_total",
			metrics.WithDescription("Producer errors dropped because an earlier error was recorded"), metrics.WithUnit("1")),
		producerCloseErrors: p.Counter(metricPrefix+"producer_close_errors_total",
			metrics.WithDescription("Producer Close failures during engine disposal"), metrics.WithUnit("1")),
		workersStarted: p.Counter(metricPrefix+"workers_started_total",
			metrics.WithDescription("Worker goroutines started"), metrics.WithUnit("1")),
		workersActive: p.UpDownCounter(metricPrefix+"workers_active",
			metrics.WithDescription("Worker goroutines currently running"), metrics.WithUnit("1")),
		drainDuration: p.Histogram(metricPrefix+"drain_duration_seconds",
			metrics.WithDescription("Time spent draining one producer"), metrics.WithUnit("seconds")),
	}
}
