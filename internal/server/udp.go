package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/kgodden/udp-receive-rar/internal/config"
	"github.com/kgodden/udp-receive-rar/internal/metrics"
	"github.com/kgodden/udp-receive-rar/receiver"
)

// Handler is called from the listener goroutine for every received datagram.
type Handler func(data receiver.Datagram)

// Listener drives one receiver.Receiver in blocking or polling mode and hands each
// datagram to a Handler.
type Listener struct {
	config  *config.ReceiverConfig
	logger  *slog.Logger
	metrics *metrics.Metrics
	handler Handler

	rcv *receiver.Receiver

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	done     chan struct{}
	doneOnce sync.Once
	err      error

	running           atomic.Bool
	stopped           atomic.Bool
	datagramsReceived atomic.Uint64
	bytesReceived     atomic.Uint64
	emptyPolls        atomic.Uint64
	readErrors        atomic.Uint64
	pending           atomic.Bool
}

// NewListener creates a listener. The socket is bound by Start.
func NewListener(cfg *config.ReceiverConfig, logger *slog.Logger, m *metrics.Metrics, handler Handler) *Listener {
	ctx, cancel := context.WithCancel(context.Background())

	return &Listener{
		config:  cfg,
		logger:  logger,
		metrics: m,
		handler: handler,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Start binds the receiver and starts the receive loop. A Listener runs once: Start
// fails after Stop, after a failed Start and after the loop has exited.
func (l *Listener) Start() error {
	if l.stopped.Load() {
		return errors.New("listener stopped")
	}
	if !l.running.CompareAndSwap(false, true) {
		return errors.New("listener already started")
	}

	rcv, err := receiver.New(l.config.BindAddress, l.config.Port, receiver.WithBufferSize(l.config.BufferSize))
	if err != nil {
		l.err = fmt.Errorf("failed to start receiver: %w", err)
		l.stopped.Store(true)
		l.running.Store(false)
		l.closeDone()
		return l.err
	}
	l.rcv = rcv

	l.logger.Info("UDP listener started",
		slog.String("address", rcv.LocalAddr().String()),
		slog.String("mode", l.config.Mode),
		slog.Int("buffer_size", rcv.Capacity()),
	)

	l.wg.Add(1)
	if l.config.Mode == config.ModeBlocking {
		go l.blockingLoop()
	} else {
		go l.pollingLoop(l.config.GetPollInterval())
	}

	return nil
}

// Stop closes the receiver to unblock the loop and waits for it to exit
func (l *Listener) Stop() error {
	l.stopped.Store(true)
	if l.rcv == nil {
		l.closeDone()
		return nil
	}

	l.logger.Info("Stopping UDP listener...")
	l.cancel()

	if err := l.rcv.Close(); err != nil {
		l.logger.Warn("Error closing receiver", slog.String("error", err.Error()))
	}

	l.wg.Wait()

	stats := l.GetStatistics()
	l.logger.Info("UDP listener stopped",
		slog.Uint64("datagrams_received", stats.DatagramsReceived),
		slog.Uint64("bytes_received", stats.BytesReceived),
		slog.Uint64("read_errors", stats.ReadErrors),
	)

	return nil
}

// Done is closed when the receive loop exits, on Stop or after a read error. It is also
// closed when Start fails or Stop is called on a listener that never started.
func (l *Listener) Done() <-chan struct{} {
	return l.done
}

// Err waits for Done and returns the error that ended the listener: the read error
// that stopped the loop or the error from a failed Start. It is nil after a clean Stop.
// Err blocks while the listener has not been started or stopped.
func (l *Listener) Err() error {
	<-l.done
	return l.err
}

// LocalAddr returns the bound address, nil before Start.
func (l *Listener) LocalAddr() *net.UDPAddr {
	if l.rcv == nil {
		return nil
	}
	return l.rcv.LocalAddr()
}

// blockingLoop receives with ReceiveBlocking until Stop closes the receiver
func (l *Listener) blockingLoop() {
	defer l.finish()

	for {
		data, err := l.rcv.ReceiveBlocking()
		if err != nil {
			l.fail(err)
			return
		}
		l.deliver(data)
	}
}

// pollingLoop calls ReceiveNonBlocking once per tick
func (l *Listener) pollingLoop(interval time.Duration) {
	defer l.finish()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.ctx.Done():
			l.logger.Info("Polling loop stopping due to context cancellation")
			return
		case <-ticker.C:
		}

		data, ok, err := l.rcv.ReceiveNonBlocking()
		l.setPending(l.rcv.Pending())
		if err != nil {
			l.fail(err)
			return
		}
		if !ok {
			l.emptyPolls.Inc()
			if l.metrics != nil {
				l.metrics.RecordEmptyPoll()
			}
			continue
		}
		l.deliver(data)
	}
}

func (l *Listener) deliver(data receiver.Datagram) {
	l.datagramsReceived.Inc()
	l.bytesReceived.Add(uint64(len(data)))
	if l.metrics != nil {
		l.metrics.RecordDatagram(l.config.Mode, len(data))
	}

	l.logger.Debug("Datagram received",
		slog.Int("size", len(data)),
		slog.String("mode", l.config.Mode),
	)

	if l.handler != nil {
		l.handler(data)
	}
}

// fail records a read error. Errors caused by Stop are not reported.
func (l *Listener) fail(err error) {
	select {
	case <-l.ctx.Done():
		if errors.Is(err, receiver.ErrClosed) {
			return
		}
	default:
	}

	l.readErrors.Inc()
	if l.metrics != nil {
		l.metrics.RecordReadError()
	}
	l.err = err
	l.logger.Error("Failed to receive datagram, stopping listener", slog.String("error", err.Error()))
}

func (l *Listener) finish() {
	l.setPending(false)
	l.running.Store(false)
	l.stopped.Store(true)
	l.closeDone()
	l.wg.Done()
}

func (l *Listener) closeDone() {
	l.doneOnce.Do(func() { close(l.done) })
}

func (l *Listener) setPending(pending bool) {
	l.pending.Store(pending)
	if l.metrics != nil {
		l.metrics.SetReadPending(pending)
	}
}

// GetStatistics returns current listener statistics
func (l *Listener) GetStatistics() ListenerStatistics {
	stats := ListenerStatistics{
		Mode:              l.config.Mode,
		Running:           l.running.Load(),
		DatagramsReceived: l.datagramsReceived.Load(),
		BytesReceived:     l.bytesReceived.Load(),
		EmptyPolls:        l.emptyPolls.Load(),
		ReadErrors:        l.readErrors.Load(),
		ReadPending:       l.pending.Load(),
	}
	if l.rcv != nil {
		stats.Address = l.rcv.LocalAddr().String()
		stats.BufferSize = l.rcv.Capacity()
		stats.ReadsIssued = l.rcv.Reads()
	}
	return stats
}

// ListenerStatistics represents listener counters
type ListenerStatistics struct {
	Address           string `json:"address"`
	Mode              string `json:"mode"`
	BufferSize        int    `json:"buffer_size"`
	Running           bool   `json:"running"`
	DatagramsReceived uint64 `json:"datagrams_received"`
	BytesReceived     uint64 `json:"bytes_received"`
	EmptyPolls        uint64 `json:"empty_polls"`
	ReadErrors        uint64 `json:"read_errors"`
	ReadsIssued       uint64 `json:"reads_issued"`
	ReadPending       bool   `json:"read_pending"`
}
