//go:build !unix

package receiver

import (
	"errors"
	"net"
)

func socketReceiveBuffer(*net.UDPConn) (int, error) {
	return 0, errors.New("SO_RCVBUF query not supported on this platform")
}
