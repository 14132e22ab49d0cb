package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordDatagram(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordDatagram("polling", 8)
	m.RecordDatagram("polling", 12)
	m.RecordDatagram("blocking", 100)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DatagramsReceived.WithLabelValues("polling")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DatagramsReceived.WithLabelValues("blocking")))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.BytesReceived))
}

func TestPollAndErrorCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordEmptyPoll()
	m.RecordEmptyPoll()
	m.RecordReadError()
	m.SetReadPending(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EmptyPolls))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReadErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReadPending))

	m.SetReadPending(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ReadPending))
}

func TestRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.RecordDatagram("blocking", 1)
	m.RecordHTTPRequest("GET", "/health", "200", 0.01)
	m.RecordHTTPError("GET", "/stats", "server_error")

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"rar_datagrams_received_total",
		"rar_bytes_received_total",
		"rar_datagram_size_bytes",
		"rar_empty_polls_total",
		"rar_http_requests_total",
		"rar_http_errors_total",
	} {
		assert.True(t, names[want], "metric %s not registered", want)
	}

	// A second set on the same registry is a duplicate registration.
	assert.Panics(t, func() { NewMetrics(reg) })
}
