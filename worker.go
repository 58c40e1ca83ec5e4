package fanin

import (
	"context"
)

type worker[T any] struct {
	id    int
	queue *taskQueue[T]
	state *state[T]
}

func newWorker[T any](id int, queue *taskQueue[T], s *state[T]) *worker[T] {
	return &worker[T]{id: id, queue: queue, state: s}
}

// run executes queued tasks one at a time until the queue is empty or the state is disposed.
func (w *worker[T]) run(ctx context.Context) {
	w.state.inst.workersActive.Add(1)
	defer w.state.inst.workersActive.Add(-1)

	executed := 0
	for !w.state.isDisposed() {
		t, ok := w.queue.pop()
		if !ok {
			break
		}
		t.run(ctx)
		executed++
	}

	w.state.log.WithField("worker", w.id).WithField("tasks", executed).Debug("worker stopped")
}
