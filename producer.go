package fanin

import "context"

// Producer is a sequential source of items, typically a cursor over one partition of a
// larger dataset. The engine calls a producer from exactly one goroutine during its
// lifetime, so implementations need no synchronization of their own.
type Producer[T any] interface {
	// Next advances to the next item. It returns false once the producer is exhausted.
	Next(ctx context.Context) (bool, error)
	// Value returns the item Next advanced to.
	Value() T
	// Close releases resources held by the producer.
	Close() error
}

type sliceProducer[T any] struct {
	items []T
	pos   int
}

// FromSlice returns a Producer yielding items in order.
func FromSlice[T any](items []T) Producer[T] {
	return &sliceProducer[T]{items: items, pos: -1}
}

func (p *sliceProducer[T]) Next(_ context.Context) (bool, error) {
	if p.pos+1 >= len(p.items) {
		p.pos = len(p.items)
		return false, nil
	}
	p.pos++
	return true, nil
}

func (p *sliceProducer[T]) Value() T {
	if p.pos < 0 || p.pos >= len(p.items) {
		var zero T
		return zero
	}
	return p.items[p.pos]
}

func (p *sliceProducer[T]) Close() error { return nil }

// ProducerFunc adapts a pull function to Producer. fn returns ok == false when the
// source is exhausted. Close calls closeFn when it is not nil.
type ProducerFunc[T any] struct {
	fn      func(context.Context) (T, bool, error)
	closeFn func() error
	current T
}

// FromFunc returns a Producer backed by fn.
func FromFunc[T any](fn func(context.Context) (T, bool, error), closeFn func() error) *ProducerFunc[T] {
	return &ProducerFunc[T]{fn: fn, closeFn: closeFn}
}

func (p *ProducerFunc[T]) Next(ctx context.Context) (bool, error) {
	v, ok, err := p.fn(ctx)
	if err != nil || !ok {
		var zero T
		p.current = zero
		return false, err
	}
	p.current = v
	return true, nil
}

func (p *ProducerFunc[T]) Value() T { return p.current }

func (p *ProducerFunc[T]) Close() error {
	if p.closeFn == nil {
		return nil
	}
	return p.closeFn()
}
