package receiver

import (
	"errors"
	"fmt"
	"net"

	"go.uber.org/atomic"
)

// DefaultBufferSize is used when the platform cannot report SO_RCVBUF.
const DefaultBufferSize = 65536

// Datagram is the payload of one received UDP packet. Each receive returns a new slice
// that does not share memory with the Receiver.
type Datagram []byte

// completion is the outcome of one asynchronous read.
type completion struct {
	n   int
	err error
}

// Receiver owns one bound UDPv4 socket and the bookkeeping for at most one
// in-flight polled read.
type Receiver struct {
	conn *net.UDPConn
	addr *net.UDPAddr
	buf  []byte

	// Poll state. pending is set while a read issued by ReceiveNonBlocking is
	// outstanding; completed is set once its result has been collected from done.
	pending   bool
	completed bool
	n         int
	readErr   error
	done      chan completion

	reads atomic.Uint64

	closed atomic.Bool
}

type options struct {
	bufferSize   int
	fallbackSize int
}

// Option customises a Receiver at construction.
type Option func(*options)

// WithBufferSize fixes the internal buffer capacity instead of querying SO_RCVBUF.
// Values <= 0 are ignored.
func WithBufferSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.bufferSize = size
		}
	}
}

// WithFallbackBufferSize sets the capacity used when SO_RCVBUF cannot be queried.
// Values <= 0 are ignored.
func WithFallbackBufferSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.fallbackSize = size
		}
	}
}

// New opens a UDPv4 socket bound to address:port and sizes the receive buffer.
// The address must be a dotted-decimal IPv4 address. Port 0 binds an ephemeral port;
// use LocalAddr to find it.
func New(address string, port int, opts ...Option) (*Receiver, error) {
	o := options{fallbackSize: DefaultBufferSize}
	for _, opt := range opts {
		opt(&o)
	}

	ip := net.ParseIP(address)
	if ip == nil || ip.To4() == nil {
		return nil, &BindError{Address: address, Port: port, Err: fmt.Errorf("invalid IPv4 address %q", address)}
	}
	if port < 0 || port > 65535 {
		return nil, &BindError{Address: address, Port: port, Err: fmt.Errorf("port must be between 0 and 65535, got %d", port)}
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: ip.To4(), Port: port})
	if err != nil {
		return nil, &BindError{Address: address, Port: port, Err: err}
	}

	size := o.bufferSize
	if size == 0 {
		size, err = socketReceiveBuffer(conn)
		if err != nil || size <= 0 {
			size = o.fallbackSize
		}
	}

	r := &Receiver{
		conn: conn,
		buf:  make([]byte, size),
		done: make(chan completion, 1),
	}
	r.addr, _ = conn.LocalAddr().(*net.UDPAddr)
	return r, nil
}

// LocalAddr returns the bound address, with the actual port when 0 was requested.
func (r *Receiver) LocalAddr() *net.UDPAddr {
	return r.addr
}

// Capacity is the largest datagram payload that can be received without truncation.
func (r *Receiver) Capacity() int {
	return len(r.buf)
}

// Reads returns the number of socket reads issued so far, blocking and polled. A
// datagram claimed from a polled read counts once however many polls it took.
// Reads is safe to call from any goroutine.
func (r *Receiver) Reads() uint64 {
	return r.reads.Load()
}

// Pending reports whether a polled read is outstanding.
func (r *Receiver) Pending() bool {
	return r.pending
}

// ReceiveBlocking waits until one datagram arrives and returns its payload.
//
// If a read started by ReceiveNonBlocking is outstanding, ReceiveBlocking waits for that
// read and returns its datagram instead of issuing a second read.
func (r *Receiver) ReceiveBlocking() (Datagram, error) {
	if r.closed.Load() {
		return nil, &ReadError{Op: "receive", Err: ErrClosed}
	}

	if r.pending {
		if !r.completed {
			r.collect(<-r.done)
		}
		return r.claim("receive")
	}

	r.reads.Inc()
	n, _, err := r.conn.ReadFromUDP(r.buf)
	if err != nil {
		return nil, r.readError("receive", err)
	}
	return r.copyOut(n), nil
}

// ReceiveNonBlocking advances the polled read by one step and never blocks.
//
// The first call starts a read and returns ok == false. Later calls return ok == false
// until the read has completed, then one call returns the datagram with ok == true and
// the next call starts a new read. A zero-length datagram is returned as an empty,
// non-nil Datagram with ok == true.
func (r *Receiver) ReceiveNonBlocking() (data Datagram, ok bool, err error) {
	if r.closed.Load() {
		return nil, false, &ReadError{Op: "poll", Err: ErrClosed}
	}

	switch {
	case !r.pending:
		r.startRead()
		return nil, false, nil

	case !r.completed:
		select {
		case c := <-r.done:
			r.collect(c)
		default:
		}
		return nil, false, nil

	default:
		data, err = r.claim("poll")
		if err != nil {
			return nil, false, err
		}
		return data, true, nil
	}
}

// ReceiveString is ReceiveBlocking returning the payload as a string.
func (r *Receiver) ReceiveString() (string, error) {
	data, err := r.ReceiveBlocking()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReceiveStringNonBlocking is ReceiveNonBlocking returning the payload as a string.
func (r *Receiver) ReceiveStringNonBlocking() (string, bool, error) {
	data, ok, err := r.ReceiveNonBlocking()
	if err != nil || !ok {
		return "", false, err
	}
	return string(data), true, nil
}

// Close releases the socket. An outstanding read fails with ErrClosed. Close may be
// called more than once and from any goroutine.
func (r *Receiver) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	return r.conn.Close()
}

// startRead issues the single asynchronous read. The buffer is not touched by the
// caller's goroutine until the completion has been received from done.
func (r *Receiver) startRead() {
	r.pending = true
	r.completed = false
	r.n = 0
	r.readErr = nil
	r.reads.Inc()

	go func(conn *net.UDPConn, buf []byte, done chan<- completion) {
		n, _, err := conn.ReadFromUDP(buf)
		done <- completion{n: n, err: err}
	}(r.conn, r.buf, r.done)
}

func (r *Receiver) collect(c completion) {
	r.completed = true
	r.n = c.n
	r.readErr = c.err
}

// claim hands out the completed read and returns the poll state to idle.
func (r *Receiver) claim(op string) (Datagram, error) {
	n, readErr := r.n, r.readErr
	r.pending = false
	r.completed = false
	r.n = 0
	r.readErr = nil

	if readErr != nil {
		return nil, r.readError(op, readErr)
	}
	return r.copyOut(n), nil
}

func (r *Receiver) copyOut(n int) Datagram {
	out := make(Datagram, n)
	copy(out, r.buf[:n])
	return out
}

func (r *Receiver) readError(op string, err error) error {
	if r.closed.Load() || errors.Is(err, net.ErrClosed) {
		return &ReadError{Op: op, Err: ErrClosed}
	}
	return &ReadError{Op: op, Err: err}
}
