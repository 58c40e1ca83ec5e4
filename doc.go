// Package fanin merges many sequential producers into one sequential, blocking view,
// draining the producers in parallel with a bounded pool of workers.
//
// It is built for bulk initial loads: a dataset is split into disjoint partitions
// (for example row ranges of a table), each partition is read by its own Producer,
// and the single consumer sees items as soon as any worker publishes them.
//
// Constructors
//   - New(ctx, producers, opts ...Option): creates an Engine. Nothing starts until the
//     first call to Next.
//   - Collect / ForEach: helpers that own an Engine's whole lifecycle.
//
// Defaults
// Unless overridden, the following defaults apply to a newly created Engine:
//   - BatchSize: 10000 (items a worker buffers before publishing them)
//   - PoolSize: 10 (never more workers than producers)
//   - Logger: logrus.StandardLogger()
//   - Metrics: metrics.NoopProvider
//
// Ordering
// Items of one producer are observed in the order the producer emitted them. The
// interleaving across producers depends on scheduling and batch size.
//
// Errors
// The first producer failure is recorded and returned by Next once, as a *ProducerError,
// after every item published before it. The failing producer's unpublished batch is
// dropped. Failures of other producers after that are logged and dropped. There is no retry.
//
// Lifecycle
// Close wakes a blocked consumer, waits for all workers, then closes every producer.
// Disposal is cooperative: a worker notices it before pulling its next item, so a
// producer blocked in I/O delays Close by at most one pull.
package fanin
