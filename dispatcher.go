package fanin

import (
	"context"
	"sync"
)

// dispatcher starts a fixed number of workers over a shared task queue and tracks them
// with a WaitGroup. It never resizes the pool and never re-enqueues tasks.
type dispatcher[T any] struct {
	queue   *taskQueue[T]
	state   *state[T]
	workers int
	wg      *sync.WaitGroup
}

func newDispatcher[T any](queue *taskQueue[T], s *state[T], workers int, wg *sync.WaitGroup) *dispatcher[T] {
	return &dispatcher[T]{queue: queue, state: s, workers: workers, wg: wg}
}

// start launches the workers and returns immediately.
func (d *dispatcher[T]) start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		w := newWorker[T](i, d.queue, d.state)
		d.state.inst.workersStarted.Add(1)
		go func() {
			defer d.wg.Done()
			w.run(ctx)
		}()
	}
}
