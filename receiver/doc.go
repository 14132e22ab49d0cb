// Package receiver implements a single-socket UDPv4 datagram receiver with a blocking
// receive and a polled, never-blocking receive built on one resumable pending read.
//
// A Receiver is bound at construction and stays bound until Close. Its internal buffer is
// sized from the socket's SO_RCVBUF value, so any datagram larger than Capacity is
// truncated by the operating system and the tail is lost.
//
// A Receiver is not safe for concurrent use. All receive calls on one instance must come
// from one goroutine at a time. Close is the exception: it may be called from any
// goroutine to unblock a receive in progress.
package receiver
