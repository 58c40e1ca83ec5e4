package fanin

import "sync"

// taskQueue is the FIFO queue shared by all workers of one engine.
// Tasks are only ever removed; the queue is filled once before workers start.
type taskQueue[T any] struct {
	mu    sync.Mutex
	tasks []*drainTask[T]
}

func newTaskQueue[T any](tasks []*drainTask[T]) *taskQueue[T] {
	return &taskQueue[T]{tasks: tasks}
}

// pop removes the oldest task. It returns false when the queue is empty.
func (q *taskQueue[T]) pop() (*drainTask[T], bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return nil, false
	}
	t := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	return t, true
}

func (q *taskQueue[T]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}
