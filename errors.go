package fanin

import "errors"

const Namespace = "fanin"

var (
	ErrProducer             = errors.New(Namespace + ": producer failed")
	ErrProducerPanicked     = errors.New(Namespace + ": producer panicked")
	ErrUnsupportedOperation = errors.New(Namespace + ": operation is not supported")
	ErrInvalidConfig        = errors.New(Namespace + ": invalid configuration")
)
