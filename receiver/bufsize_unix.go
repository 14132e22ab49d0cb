//go:build unix

package receiver

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// socketReceiveBuffer reports the kernel's SO_RCVBUF value for conn.
func socketReceiveBuffer(conn *net.UDPConn) (int, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return 0, fmt.Errorf("syscall conn: %w", err)
	}

	var (
		size    int
		sockErr error
	)
	if err := raw.Control(func(fd uintptr) {
		size, sockErr = unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF)
	}); err != nil {
		return 0, fmt.Errorf("control: %w", err)
	}
	if sockErr != nil {
		return 0, fmt.Errorf("getsockopt SO_RCVBUF: %w", sockErr)
	}
	return size, nil
}
