package fanin

import (
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// state is shared by every drain task and the cursor of one Engine.
//
// All mutation happens under mu. published and disposed are additionally atomic so that
// the cursor fast path and the per-pull disposal check can read them without the lock.
// A node reachable through published is never modified again, so the cursor may follow
// next links up to published without holding mu.
type state[T any] struct {
	mu   sync.Mutex
	cond *sync.Cond

	items     list[T]
	total     int64
	completed atomic.Int64
	published atomic.Int64
	disposed  atomic.Bool
	allDone   bool
	err       error

	log  logrus.FieldLogger
	inst *instruments
}

func newState[T any](total int, log logrus.FieldLogger, inst *instruments) *state[T] {
	s := &state[T]{total: int64(total), log: log, inst: inst}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// publish splices batch onto the shared list and wakes the consumer.
func (s *state[T]) publish(batch *list[T]) {
	n := batch.len()
	if n == 0 {
		return
	}
	s.mu.Lock()
	s.items.appendList(batch)
	s.published.Add(int64(n))
	s.cond.Broadcast()
	s.mu.Unlock()

	s.inst.itemsPublished.Add(int64(n))
	s.inst.batchesPublished.Add(1)
}

// complete records one drained producer. The call that brings completed up to total
// marks the state as done; it reports whether it was that call.
func (s *state[T]) complete() bool {
	s.inst.producersCompleted.Add(1)
	if s.completed.Add(1) != s.total {
		return false
	}
	s.markAllDone()
	return true
}

func (s *state[T]) markAllDone() {
	s.mu.Lock()
	s.allDone = true
	s.cond.Broadcast()
	s.mu.Unlock()
}

// fail records err as the engine error unless one is already set. Later errors are dropped.
func (s *state[T]) fail(index int, err error) {
	s.mu.Lock()
	first := s.err == nil
	if first {
		s.err = newProducerError(err, index)
	}
	s.cond.Broadcast()
	s.mu.Unlock()

	if first {
		s.inst.producerErrors.Add(1)
		s.log.WithError(err).WithField("producer", index).Warn("producer failed")
		return
	}
	s.inst.producerErrorsDiscarded.Add(1)
	s.log.WithError(err).WithField("producer", index).Debug("producer error discarded, an earlier error is already recorded")
}

// dispose marks the state as disposed and wakes all waiters. It reports false if the
// state had already been disposed.
func (s *state[T]) dispose() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed.Load() {
		return false
	}
	s.disposed.Store(true)
	s.cond.Broadcast()
	return true
}

func (s *state[T]) isDisposed() bool { return s.disposed.Load() }
