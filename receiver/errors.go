package receiver

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by receive calls made after Close, and by a receive that was
// interrupted by Close.
var ErrClosed = errors.New("receiver closed")

// BindError reports a failure to construct a Receiver: a malformed address, an out of
// range port, or a socket that could not be opened or bound.
type BindError struct {
	Address string
	Port    int
	Err     error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind udp4 %s:%d: %v", e.Address, e.Port, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// ReadError reports a failure of the underlying socket read. The Receiver should be
// discarded after a ReadError.
type ReadError struct {
	Op  string
	Err error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }
