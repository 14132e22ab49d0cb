package sender

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listen(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSend(t *testing.T) {
	conn := listen(t)
	port := conn.LocalAddr().(*net.UDPAddr).Port

	require.NoError(t, Send("127.0.0.1", port, []byte("hello")))

	buf := make([]byte, 64)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := conn.ReadFromUDP(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))
}

func TestSenderReuse(t *testing.T) {
	conn := listen(t)
	port := conn.LocalAddr().(*net.UDPAddr).Port

	s, err := NewSender("127.0.0.1", port)
	require.NoError(t, err)
	defer s.Close()

	payloads := []string{"one", "two", "three"}
	for _, p := range payloads {
		require.NoError(t, s.Send([]byte(p)))
	}

	buf := make([]byte, 64)
	for _, want := range payloads {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		n, _, err := conn.ReadFromUDP(buf)
		require.NoError(t, err)
		assert.Equal(t, want, string(buf[:n]))
	}
}

func TestNewSenderInvalidAddress(t *testing.T) {
	tests := []string{"", "localhost", "::1", "300.1.1.1"}
	for _, addr := range tests {
		t.Run(addr, func(t *testing.T) {
			_, err := NewSender(addr, 8861)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid IPv4 address")
		})
	}
}
