// Command flac inspects and verifies FLAC streams.
package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var logger *log.Logger

var rootCmd = &cobra.Command{
	Use:   "flac",
	Short: "Inspect and verify FLAC audio streams",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

var verbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Increase command output")
	rootCmd.AddCommand(newInfoCmd(), newVerifyCmd())
}

func setupLogger() {
	logger = log.New(os.Stderr)
	logger.SetReportTimestamp(false)
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
