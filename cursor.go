package fanin

type cursorStatus int

const (
	cursorWaiting cursorStatus = iota
	cursorReady
	cursorExhausted
	cursorFailed
)

func (s cursorStatus) terminal() bool { return s == cursorExhausted || s == cursorFailed }

// cursor walks the shared list as it grows, blocking while no new item is published.
// It is not safe for concurrent use; the engine has exactly one consumer.
type cursor[T any] struct {
	state  *state[T]
	node   *node[T]
	pos    int64
	status cursorStatus
}

// newCursor blocks until the shared list has a first node, the producers are done,
// the state is disposed, or an error is recorded. Items published before a failure
// are still yielded; an error seen while the list is empty is returned as is and
// leaves the cursor failed.
func newCursor[T any](s *state[T]) (*cursor[T], error) {
	c := &cursor[T]{state: s, status: cursorWaiting}

	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		switch {
		case s.items.first != nil:
			// sentinel in front of the first node, so advance always steps to next
			c.node = &node[T]{next: s.items.first}
			c.status = cursorReady
			return c, nil
		case s.err != nil:
			c.status = cursorFailed
			return c, s.err
		case s.allDone || s.disposed.Load():
			c.status = cursorExhausted
			return c, nil
		}
		s.cond.Wait()
	}
}

// advance moves to the next published item. It returns false once the cursor is
// exhausted or failed; the recorded error is returned by the call that observes it.
func (c *cursor[T]) advance() (bool, error) {
	if c.status.terminal() {
		return false, nil
	}
	if c.pos == c.state.published.Load() {
		if ok, err := c.await(); !ok {
			return false, err
		}
	}
	c.node = c.node.next
	c.pos++
	c.status = cursorReady
	return true, nil
}

// await re-checks published under the lock and waits for it to move past pos.
func (c *cursor[T]) await() (bool, error) {
	s := c.state
	s.mu.Lock()
	defer s.mu.Unlock()

	for c.pos == s.published.Load() {
		if s.err != nil {
			c.status = cursorFailed
			return false, s.err
		}
		if s.allDone || s.disposed.Load() {
			c.status = cursorExhausted
			return false, nil
		}
		c.status = cursorWaiting
		s.cond.Wait()
	}
	return true, nil
}

func (c *cursor[T]) value() T {
	if c.node == nil || c.status != cursorReady {
		var zero T
		return zero
	}
	return c.node.value
}
