package server

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgodden/udp-receive-rar/internal/config"
	"github.com/kgodden/udp-receive-rar/internal/metrics"
	"github.com/kgodden/udp-receive-rar/internal/sender"
	"github.com/kgodden/udp-receive-rar/receiver"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startListener(t *testing.T, mode string) (*Listener, *metrics.Metrics, chan receiver.Datagram) {
	t.Helper()

	received := make(chan receiver.Datagram, 16)
	m := metrics.NewMetrics(prometheus.NewRegistry())
	cfg := &config.ReceiverConfig{
		BindAddress:    "127.0.0.1",
		Mode:           mode,
		PollIntervalMs: 5,
	}

	l := NewListener(cfg, testLogger(), m, func(data receiver.Datagram) {
		received <- data
	})
	require.NoError(t, l.Start())
	t.Cleanup(func() { l.Stop() })
	return l, m, received
}

func waitDatagram(t *testing.T, ch chan receiver.Datagram) receiver.Datagram {
	t.Helper()
	select {
	case data := <-ch:
		return data
	case <-time.After(3 * time.Second):
		t.Fatal("no datagram delivered")
		return nil
	}
}

func TestListenerModes(t *testing.T) {
	for _, mode := range []string{config.ModeBlocking, config.ModePolling} {
		t.Run(mode, func(t *testing.T) {
			l, m, received := startListener(t, mode)
			port := l.LocalAddr().Port

			payloads := []string{"message1", "message2", "message3"}
			for _, p := range payloads {
				require.NoError(t, sender.Send("127.0.0.1", port, []byte(p)))
				assert.Equal(t, p, string(waitDatagram(t, received)))
			}

			stats := l.GetStatistics()
			assert.True(t, stats.Running)
			assert.Equal(t, mode, stats.Mode)
			assert.Equal(t, uint64(3), stats.DatagramsReceived)
			assert.Equal(t, uint64(24), stats.BytesReceived)
			assert.Equal(t, 3.0, testutil.ToFloat64(m.DatagramsReceived.WithLabelValues(mode)))

			require.NoError(t, l.Stop())
			assert.NoError(t, l.Err())
			assert.False(t, l.GetStatistics().Running)
			assert.Zero(t, l.GetStatistics().ReadErrors)
		})
	}
}

func TestListenerPollingCountsEmptyPolls(t *testing.T) {
	l, m, _ := startListener(t, config.ModePolling)

	require.Eventually(t, func() bool {
		return l.GetStatistics().EmptyPolls >= 3
	}, 2*time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.EmptyPolls), 3.0)
	assert.True(t, l.GetStatistics().ReadPending)
}

func TestListenerStartTwice(t *testing.T) {
	l, _, _ := startListener(t, config.ModeBlocking)
	assert.Error(t, l.Start())
}

func TestListenerBindError(t *testing.T) {
	l := NewListener(&config.ReceiverConfig{BindAddress: "::1", Mode: config.ModeBlocking}, testLogger(), nil, nil)
	err := l.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start receiver")
	assert.Nil(t, l.LocalAddr())

	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed after failed Start")
	}
	assert.Equal(t, err, l.Err())
	assert.NoError(t, l.Stop())
}

func TestListenerRestart(t *testing.T) {
	for _, mode := range []string{config.ModeBlocking, config.ModePolling} {
		t.Run(mode, func(t *testing.T) {
			l, _, _ := startListener(t, mode)
			time.Sleep(20 * time.Millisecond)
			require.NoError(t, l.Stop())

			assert.NotPanics(t, func() {
				assert.ErrorContains(t, l.Start(), "listener stopped")
			})
			assert.NoError(t, l.Err())
			assert.False(t, l.GetStatistics().Running)
			assert.NoError(t, l.Stop())
		})
	}
}

func TestListenerDoneWithoutStart(t *testing.T) {
	tests := []struct {
		name string
		run  func(l *Listener) error
	}{
		{name: "stop", run: func(l *Listener) error { return l.Stop() }},
		{name: "stop twice", run: func(l *Listener) error {
			if err := l.Stop(); err != nil {
				return err
			}
			return l.Stop()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewListener(&config.ReceiverConfig{BindAddress: "127.0.0.1", Mode: config.ModeBlocking}, testLogger(), nil, nil)
			require.NoError(t, tt.run(l))

			select {
			case <-l.Done():
			case <-time.After(time.Second):
				t.Fatal("Done not closed after Stop")
			}
			assert.NoError(t, l.Err())
			assert.Error(t, l.Start())
		})
	}
}

func TestListenerReadsIssued(t *testing.T) {
	l, _, received := startListener(t, config.ModeBlocking)

	require.NoError(t, sender.Send("127.0.0.1", l.LocalAddr().Port, []byte("a")))
	waitDatagram(t, received)

	// One read for the datagram, one blocked waiting for the next.
	require.Eventually(t, func() bool {
		return l.GetStatistics().ReadsIssued == 2
	}, 2*time.Second, 5*time.Millisecond)
}
