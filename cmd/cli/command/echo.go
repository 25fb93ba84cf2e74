package command

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"canpi-panel/internal/microservices/echo"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var echoCmd = &cobra.Command{
	Use:   "echo",
	Short: "Run a local websocket echo service",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		gin.SetMode(gin.ReleaseMode)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		color.Green("echo service on ws://%s/ (Ctrl-C to stop)", addr)
		return echo.ListenAndServe(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(echoCmd)

	echoCmd.Flags().StringP("addr", "a", envOr("ECHO_ADDR", echo.DefaultAddr), "listen address")
}
