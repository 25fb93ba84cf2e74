package command

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	c "canpi-panel/cmd/cli/command/client"
	"canpi-panel/internal/relay"

	"github.com/spf13/cobra"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Relay stdin lines to a websocket and print replies",
	Long: `Connects to the upstream websocket once. Every line read from stdin is sent
on the sendMessage port and every message received is printed from the
messageReceiver port. Stops on EOF, Ctrl-C or when the upstream closes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		url, _ := cmd.Flags().GetString("url")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return c.RunRelay(ctx, url, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(relayCmd)

	relayCmd.Flags().StringP("url", "u", envOr("RELAY_URL", relay.DefaultURL), "upstream websocket URL")
}
