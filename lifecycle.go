package fanin

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// lifecycleCoordinator encapsulates the disposal sequence of an Engine.
// It doesn't own the producers or the workers; it orders the steps that stop them.
//
// Close() is safe for concurrent calls; the sequence executes exactly once.
type lifecycleCoordinator struct {
	dispose func()
	workers *sync.WaitGroup
	closers []func() error

	once   sync.Once
	result error
}

func newLifecycleCoordinator(dispose func(), workers *sync.WaitGroup, closers []func() error) *lifecycleCoordinator {
	return &lifecycleCoordinator{dispose: dispose, workers: workers, closers: closers}
}

// Close executes the disposal sequence exactly once:
// 1) mark the shared state disposed and wake all waiters
// 2) wait for every worker to observe it and exit
// 3) close every producer in order, continuing past failures
//
// The returned error aggregates close failures; repeated calls return the same value.
func (lc *lifecycleCoordinator) Close() error {
	lc.once.Do(func() {
		if lc.dispose != nil {
			lc.dispose()
		}
		if lc.workers != nil {
			lc.workers.Wait()
		}
		var merr *multierror.Error
		for i, closeFn := range lc.closers {
			if closeFn == nil {
				continue
			}
			if err := closeFn(); err != nil {
				merr = multierror.Append(merr, fmt.Errorf("producer %d: %w", i, err))
			}
		}
		lc.result = merr.ErrorOrNil()
	})
	return lc.result
}
