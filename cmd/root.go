package cmd

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	logLevel    string // Log verbosity level
	logFilename string // Optional log file; warnings are mirrored to stderr
)

// closeLog releases the log file opened for the running command.
var closeLog = func() {}

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "tracetools",
	Short: "Offline converters for simulator traces",
	Long: "Merge sharded event traces, turn simulator debug logs into Chrome timelines, " +
		"and build allocator (PyTorch memory snapshot) traces from allocation spans.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		closer, err := setupLogging(logLevel, logFilename, os.Stderr)
		if err != nil {
			return err
		}
		closeLog = closer
		logrus.Debug(strings.Join(os.Args, " "))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeLog()
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&logFilename, "log-filename", "", "Write the full log to this file (truncated); warnings and errors still go to stderr")
}
