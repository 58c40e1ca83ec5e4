package fanin

import (
	"context"
)

// Collect drains producers through a new Engine configured by opts and returns every
// item in publication order. It owns the engine's lifecycle: the engine is closed,
// and therefore every producer is closed, before Collect returns.
//
// Semantics:
// - Items of one producer keep their relative order; producers interleave arbitrarily.
// - On the first producer failure Collect returns the items received so far and the
//   *ProducerError.
func Collect[T any](ctx context.Context, producers []Producer[T], opts ...Option) ([]T, error) {
	e, err := New[T](ctx, producers, opts...)
	if err != nil {
		return nil, err
	}
	defer e.Close()

	items := make([]T, 0)
	for v, err := range e.All() {
		if err != nil {
			return items, err
		}
		items = append(items, v)
	}
	return items, nil
}
