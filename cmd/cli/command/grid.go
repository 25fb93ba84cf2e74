package command

import (
	"os"
	"os/signal"
	"syscall"

	"canpi-panel/internal/microservices/tcp"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Run a local CAN grid standin over TCP",
	Long: `Every newline terminated frame a client sends is passed on to the other
connected clients. Point the panel server at it with RELAY_URL=tcp://<addr>.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		echo, _ := cmd.Flags().GetBool("echo")

		server := tcp.NewServer(addr)
		server.Manager.EchoToSender = echo
		if err := server.Listen(); err != nil {
			return err
		}

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigChan
			server.Stop()
		}()

		color.Green("grid on tcp://%s (Ctrl-C to stop)", server.ListenAddr())
		return server.Serve()
	},
}

func init() {
	rootCmd.AddCommand(gridCmd)

	gridCmd.Flags().StringP("addr", "a", envOr("GRID_ADDR", "127.0.0.1:5550"), "listen address")
	gridCmd.Flags().Bool("echo", false, "also send each frame back to its sender")
}
