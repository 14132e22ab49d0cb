package cli

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kgodden/udp-receive-rar/internal/sender"
)

func newSendCmd() *cobra.Command {
	var (
		address string
		port    int
		asHex   bool
	)

	cmd := &cobra.Command{
		Use:   "send [payload]",
		Short: "Send one datagram, fire and forget",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload []byte
			if len(args) == 1 {
				payload = []byte(args[0])
			}
			if asHex {
				decoded, err := hex.DecodeString(string(payload))
				if err != nil {
					return fmt.Errorf("invalid hex payload: %w", err)
				}
				payload = decoded
			}

			if err := sender.Send(address, port, payload); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent %d bytes to %s:%d\n", len(payload), address, port)
			return nil
		},
	}

	cmd.Flags().StringVar(&address, "address", "127.0.0.1", "destination IPv4 address")
	cmd.Flags().IntVar(&port, "port", 8861, "destination UDP port")
	cmd.Flags().BoolVar(&asHex, "hex", false, "payload is hex encoded")
	return cmd
}
