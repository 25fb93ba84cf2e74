package command

// root.go defines the root command for the canpi CLI.
// Global flags and logging setup live here.

import (
	"fmt"
	"os"

	"canpi-panel/internal/logging"

	"github.com/spf13/cobra"
)

var (
	logLevel  string // --log-level
	logFormat string // --log-format
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "canpi",
	Short: "canpi - CANPI panel tools",
	Long: `canpi is a companion tool for the CANPI panel server. It can:
- relay lines from stdin to an upstream websocket and print what comes back
- run a local echo service to stand in for the layout bus
- print the panel definition schema, validate panel files and build the top menu

Use "canpi command --help" to see the options of each command.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(os.Stderr, logLevel, logFormat)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err) // Print error to standard error
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags = available to all subcommands
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envOr("LOG_LEVEL", "warn"), "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", envOr("LOG_FORMAT", "text"), "log format (text, json)")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
