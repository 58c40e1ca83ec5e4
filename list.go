package fanin

// node holds one item. next is assigned at most once, while the node is the tail
// of a list, and is never changed after that.
type node[T any] struct {
	value T
	next  *node[T]
}

// list is an append-only singly linked list.
// Appending a value or splicing a whole list are both O(1), which lets a worker
// accumulate a batch privately and publish it with a single link under the lock.
type list[T any] struct {
	first *node[T]
	last  *node[T]
	count int
}

func (l *list[T]) appendValue(v T) {
	n := &node[T]{value: v}
	if l.first == nil {
		l.first, l.last, l.count = n, n, 1
		return
	}
	l.last.next = n
	l.last = n
	l.count++
}

// appendList links other after the receiver's tail. other must not be used afterwards.
func (l *list[T]) appendList(other *list[T]) {
	if other == nil || other.first == nil {
		return
	}
	if l.first == nil {
		l.first, l.last, l.count = other.first, other.last, other.count
		return
	}
	l.last.next = other.first
	l.last = other.last
	l.count += other.count
}

func (l *list[T]) len() int { return l.count }
