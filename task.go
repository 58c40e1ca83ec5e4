package fanin

import (
	"context"
	"fmt"
	"time"
)

// drainTask drains one producer into the shared state.
// It is created once per producer and executed by exactly one worker; it is never retried.
type drainTask[T any] struct {
	index     int
	producer  Producer[T]
	batchSize int
	state     *state[T]
}

func newDrainTask[T any](s *state[T], index int, p Producer[T], batchSize int) *drainTask[T] {
	return &drainTask[T]{index: index, producer: p, batchSize: batchSize, state: s}
}

// run pulls items into a local batch and publishes every full batch, then the remainder.
//
// On a producer error the in-progress batch is dropped and the error is recorded.
// When the state is disposed the task returns without flushing and without counting
// itself as completed.
func (t *drainTask[T]) run(ctx context.Context) {
	start := time.Now()
	defer func() {
		t.state.inst.drainDuration.Record(time.Since(start).Seconds())
	}()

	if err := t.drain(ctx); err != nil {
		t.state.fail(t.index, err)
	}
}

// drain returns the producer error, if any. Panics are converted into ErrProducerPanicked.
func (t *drainTask[T]) drain(ctx context.Context) (err error) {
	defer func() {
		if ePanic := recover(); ePanic != nil {
			err = fmt.Errorf("%w: %v", ErrProducerPanicked, ePanic)
		}
	}()

	batch := &list[T]{}
	for {
		if t.state.isDisposed() {
			return nil
		}
		ok, err := t.producer.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		batch.appendValue(t.producer.Value())
		if batch.len() >= t.batchSize {
			t.state.publish(batch)
			batch = &list[T]{}
		}
	}

	t.state.publish(batch)
	if t.state.complete() {
		t.state.log.WithField("producers", t.state.total).Debug("all producers drained")
	}
	return nil
}
