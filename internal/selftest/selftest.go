// Package selftest runs the loopback receive scenario used to check a host: a blocking
// text receive, a polled text receive, a blocking binary receive and a polled binary
// receive, each against a fire-and-forget sender.
package selftest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kgodden/udp-receive-rar/internal/sender"
	"github.com/kgodden/udp-receive-rar/receiver"
)

// Options configures a run. Zero values take the defaults below.
type Options struct {
	Address      string
	Port         int
	PollInterval time.Duration
	// SendAfter is the number of not-ready polls before the polled steps send.
	SendAfter int
	// Out receives one PASS/FAIL line per step. Nil discards.
	Out io.Writer
}

const (
	DefaultAddress      = "127.0.0.1"
	DefaultPort         = 8861
	DefaultPollInterval = 100 * time.Millisecond
	DefaultSendAfter    = 10
)

// Result is the outcome of one step.
type Result struct {
	Name     string
	Binary   bool
	Passed   bool
	Received []byte
	Expected []byte
}

func (r Result) String() string {
	verdict := "FAIL"
	if r.Passed {
		verdict = "PASS"
	}
	if r.Binary {
		match := "don't match"
		if r.Passed {
			match = "match"
		}
		return fmt.Sprintf("%s: %s, vectors %s", verdict, r.Name, match)
	}
	return fmt.Sprintf("%s: %s, received: %s, expected: %s", verdict, r.Name, r.Received, r.Expected)
}

type step struct {
	name    string
	binary  bool
	polled  bool
	payload []byte
}

func steps() []step {
	return []step{
		{name: "sync string", payload: []byte("message1")},
		{name: "async string", polled: true, payload: []byte("message2")},
		{name: "sync binary", binary: true, payload: []byte("message3")},
		{name: "async binary", binary: true, polled: true, payload: append([]byte("message4"), 0x00, 0x01, 0x80, 0xFF)},
	}
}

// Run executes the scenario and stops at the first failing step. The returned error
// reports a failure to bind, send or receive; a mismatched payload is a failed Result,
// not an error.
func Run(ctx context.Context, opts Options) ([]Result, error) {
	opts = withDefaults(opts)

	rcv, err := receiver.New(opts.Address, opts.Port)
	if err != nil {
		return nil, err
	}
	defer rcv.Close()

	// Close unblocks a blocking receive when ctx is cancelled.
	stop := context.AfterFunc(ctx, func() { rcv.Close() })
	defer stop()

	snd, err := sender.NewSender(opts.Address, rcv.LocalAddr().Port)
	if err != nil {
		return nil, err
	}
	defer snd.Close()

	var results []Result
	for _, s := range steps() {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		var got []byte
		if s.polled {
			got, err = pollStep(ctx, rcv, snd, s.payload, opts)
		} else {
			got, err = blockingStep(rcv, snd, s.payload)
		}
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			return results, fmt.Errorf("%s: %w", s.name, err)
		}

		res := Result{
			Name:     s.name,
			Binary:   s.binary,
			Passed:   bytes.Equal(got, s.payload),
			Received: got,
			Expected: s.payload,
		}
		results = append(results, res)
		fmt.Fprintln(opts.Out, res)

		if !res.Passed {
			break
		}
	}

	return results, nil
}

// Passed reports whether every step in results passed and none are missing.
func Passed(results []Result) bool {
	if len(results) != len(steps()) {
		return false
	}
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

func blockingStep(rcv *receiver.Receiver, snd *sender.Sender, payload []byte) ([]byte, error) {
	if err := snd.Send(payload); err != nil {
		return nil, err
	}
	return rcv.ReceiveBlocking()
}

// pollStep polls with a sleep between calls and sends payload after opts.SendAfter
// not-ready polls.
func pollStep(ctx context.Context, rcv *receiver.Receiver, snd *sender.Sender, payload []byte, opts Options) ([]byte, error) {
	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	for i := 0; ; {
		data, ok, err := rcv.ReceiveNonBlocking()
		if err != nil {
			return nil, err
		}
		if ok {
			return data, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		if i++; i == opts.SendAfter {
			if err := snd.Send(payload); err != nil {
				return nil, err
			}
		}
	}
}

func withDefaults(opts Options) Options {
	if opts.Address == "" {
		opts.Address = DefaultAddress
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.SendAfter <= 0 {
		opts.SendAfter = DefaultSendAfter
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	return opts
}
