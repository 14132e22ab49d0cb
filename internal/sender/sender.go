package sender

import (
	"fmt"
	"net"
)

// Sender writes datagrams to one remote UDPv4 address.
type Sender struct {
	conn *net.UDPConn
}

// NewSender dials address:port over udp4. Dialing a UDP address only fixes the
// destination; nothing is sent.
func NewSender(address string, port int) (*Sender, error) {
	ip := net.ParseIP(address)
	if ip == nil || ip.To4() == nil {
		return nil, fmt.Errorf("invalid IPv4 address %q", address)
	}

	conn, err := net.DialUDP("udp4", nil, &net.UDPAddr{IP: ip.To4(), Port: port})
	if err != nil {
		return nil, fmt.Errorf("failed to dial udp %s:%d: %w", address, port, err)
	}
	return &Sender{conn: conn}, nil
}

// Send writes payload as a single datagram.
func (s *Sender) Send(payload []byte) error {
	if _, err := s.conn.Write(payload); err != nil {
		return fmt.Errorf("failed to send datagram: %w", err)
	}
	return nil
}

// Close releases the socket.
func (s *Sender) Close() error {
	return s.conn.Close()
}

// Send opens a socket, sends payload once to address:port and closes the socket.
func Send(address string, port int, payload []byte) error {
	s, err := NewSender(address, port)
	if err != nil {
		return err
	}
	defer s.Close()

	return s.Send(payload)
}
