// Package cli implements the rar command line: listen, send and selftest.
package cli

import (
	"github.com/spf13/cobra"
)

const serviceName = "rar"

// version is set at build time via -ldflags "-X github.com/kgodden/udp-receive-rar/internal/cli.version=x.y.z"
var version = "0.1.0"

// NewRootCmd builds the rar command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   serviceName,
		Short: "Receive and Rejoice: receive UDP datagrams one at a time",
		Long: `rar binds a single UDPv4 socket and receives datagrams either with a
blocking read or by polling a non-blocking read. It also sends test datagrams
and runs a loopback self-test of both receive modes.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newListenCmd(), newSendCmd(), newSelftestCmd())
	return root
}
