package fanin

import "context"

// ForEach calls fn for every item of producers, in the order the engine yields them.
// fn runs on the caller's goroutine. The first error, either from a producer or from fn,
// stops the enumeration and is returned; the engine is closed before ForEach returns.
func ForEach[T any](ctx context.Context, producers []Producer[T], fn func(context.Context, T) error, opts ...Option) error {
	if len(producers) == 0 {
		return nil
	}
	e, err := New[T](ctx, producers, opts...)
	if err != nil {
		return err
	}
	defer e.Close()

	for v, err := range e.All() {
		if err != nil {
			return err
		}
		if err := fn(ctx, v); err != nil {
			return err
		}
	}
	return nil
}
