package fanin

import (
	"errors"
	"fmt"
)

// ProducerError is the error surfaced by Engine.Next when a producer fails.
// It carries the position of the failing producer in the slice passed to New.
// errors.Is(err, ErrProducer) reports true for every ProducerError.
type ProducerError struct {
	Index int
	Err   error
}

func newProducerError(err error, index int) error {
	if err == nil {
		return nil
	}
	return &ProducerError{Index: index, Err: err}
}

func (e *ProducerError) Error() string {
	return fmt.Sprintf("%s: producer %d: %v", ErrProducer.Error(), e.Index, e.Err)
}

func (e *ProducerError) Unwrap() []error { return []error{ErrProducer, e.Err} }

func (e *ProducerError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "producer(index=%d): %+v", e.Index, e.Err)
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

// ExtractProducerIndex returns the index of the failed producer if err carries one.
func ExtractProducerIndex(err error) (int, bool) {
	var pe *ProducerError
	if errors.As(err, &pe) {
		return pe.Index, true
	}
	return 0, false
}
