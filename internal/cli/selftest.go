package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/kgodden/udp-receive-rar/internal/selftest"
)

func newSelftestCmd() *cobra.Command {
	var opts selftest.Options

	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Run the loopback blocking and polled receive scenario",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Out = cmd.OutOrStdout()

			results, err := selftest.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if !selftest.Passed(results) {
				return errors.New("selftest failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Address, "address", selftest.DefaultAddress, "IPv4 address to bind and send to")
	cmd.Flags().IntVar(&opts.Port, "port", selftest.DefaultPort, "UDP port, 0 for an ephemeral port")
	cmd.Flags().DurationVar(&opts.PollInterval, "interval", selftest.DefaultPollInterval, "sleep between polls")
	cmd.Flags().IntVar(&opts.SendAfter, "send-after", selftest.DefaultSendAfter, "polls before the polled steps send")
	return cmd
}
