package fanin

import (
	"context"
	"fmt"
	"iter"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/ygrebnov/errorc"
)

// Engine merges many sequential producers into one blocking sequential view.
//
// Producers are drained in parallel by a bounded pool of workers started on the first
// call to Next. Items of one producer are observed in that producer's order; the
// interleaving across producers is unspecified.
//
// An Engine has exactly one consumer: Next, Value, Err, Reset and All must not be
// called concurrently. Close may be called from any goroutine.
type Engine[T any] struct {
	// noCopy prevents accidental copying of the engine.
	//go:nocopy
	nc noCopy

	config    *config
	ctx       context.Context
	producers []Producer[T]
	state     *state[T]
	log       logrus.FieldLogger

	spawnOnce  sync.Once
	cursorOnce sync.Once
	closeOnce  sync.Once

	workers sync.WaitGroup
	lc      *lifecycleCoordinator

	cursor  *cursor[T]
	err     error
	pending error
}

// noCopy is a vet-recognized marker to discourage copying types with this field embedded.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// New creates an Engine over producers. Nothing is started until the first Next call.
// ctx is passed to every Producer.Next call; Close does not cancel it.
func New[T any](ctx context.Context, producers []Producer[T], opts ...Option) (*Engine[T], error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	for i, p := range producers {
		if p == nil {
			return nil, errorc.With(ErrInvalidConfig, errorc.String("producer", strconv.Itoa(i)), errorc.String("", "nil producer"))
		}
	}

	if ctx == nil {
		ctx = context.Background()
	}

	e := &Engine[T]{
		config:    &cfg,
		ctx:       ctx,
		producers: append([]Producer[T](nil), producers...),
		log:       cfg.Logger,
	}
	e.state = newState[T](len(e.producers), cfg.Logger, newInstruments(cfg.Metrics))
	e.lc = newLifecycleCoordinator(
		func() { e.state.dispose() },
		&e.workers,
		e.producerClosers(),
	)
	return e, nil
}

// Next advances to the next item, blocking until one is published, all producers are
// drained, or a producer fails. The first producer failure is returned exactly once as
// a *ProducerError; every later call, like every call after exhaustion, returns false
// and a nil error.
func (e *Engine[T]) Next() (bool, error) {
	e.cursorOnce.Do(func() {
		e.spawnOnce.Do(e.spawn)
		c, err := newCursor(e.state)
		e.cursor = c
		if err != nil {
			e.err, e.pending = err, err
		}
	})
	if e.pending != nil {
		err := e.pending
		e.pending = nil
		return false, err
	}

	ok, err := e.cursor.advance()
	if err != nil {
		e.err = err
	}
	return ok, err
}

// Value returns the item Next advanced to.
func (e *Engine[T]) Value() T {
	if e.cursor == nil {
		var zero T
		return zero
	}
	return e.cursor.value()
}

// Err returns the producer error that ended the enumeration, if any.
func (e *Engine[T]) Err() error { return e.err }

// Reset is not supported: an enumeration cannot be rewound.
func (e *Engine[T]) Reset() error { return ErrUnsupportedOperation }

// All returns an iterator over the remaining items. Iteration stops after the first
// error, which is yielded with the zero value of T.
func (e *Engine[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			ok, err := e.Next()
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !ok {
				return
			}
			if !yield(e.Value(), nil) {
				return
			}
		}
	}
}

// Close disposes the engine: it wakes a blocked consumer, waits for every worker to
// exit, then closes every producer in order. Failures to close individual producers
// are logged and otherwise ignored. Close is idempotent and safe for concurrent use.
func (e *Engine[T]) Close() {
	e.closeOnce.Do(func() {
		// No workers may be spawned once disposal begins.
		e.spawnOnce.Do(func() {})

		err := e.lc.Close()
		fields := logrus.Fields{
			"producers": len(e.producers),
			"published": e.state.published.Load(),
			"completed": e.state.completed.Load(),
		}
		if err != nil {
			e.log.WithFields(fields).WithError(err).Warn("some producers failed to close")
			return
		}
		e.log.WithFields(fields).Debug("engine closed")
	})
}

// spawn enqueues one drain task per producer and starts min(PoolSize, len(producers))
// workers. With no producers the state is marked done and no goroutine is started.
func (e *Engine[T]) spawn() {
	n := len(e.producers)
	if n == 0 {
		e.state.markAllDone()
		e.log.Debug("no producers, nothing to drain")
		return
	}
	if e.state.isDisposed() {
		return
	}

	tasks := make([]*drainTask[T], 0, n)
	for i, p := range e.producers {
		tasks = append(tasks, newDrainTask[T](e.state, i, p, int(e.config.BatchSize)))
	}
	workers := min(int(e.config.PoolSize), n)

	e.log.WithFields(logrus.Fields{
		"producers":  n,
		"workers":    workers,
		"batch_size": e.config.BatchSize,
	}).Info("starting fan-in")

	newDispatcher[T](newTaskQueue[T](tasks), e.state, workers, &e.workers).start(e.ctx)
}

// producerClosers wraps every producer's Close so a panic is reported as an error.
func (e *Engine[T]) producerClosers() []func() error {
	closers := make([]func() error, len(e.producers))
	for i, p := range e.producers {
		closers[i] = func() (err error) {
			defer func() {
				if ePanic := recover(); ePanic != nil {
					err = fmt.Errorf("close panicked: %v", ePanic)
				}
				if err != nil {
					e.state.inst.producerCloseErrors.Add(1)
				}
			}()
			return p.Close()
		}
	}
	return closers
}
