package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/pubstress/internal/logging"
)

var version = "0.1.0"

// ErrInterrupted is returned when a run is stopped by a signal. The process
// exits without printing results.
var ErrInterrupted = errors.New("interrupted")

// RootCmd represents the base command when called without any subcommands
var RootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "pubstress",
		Short:   "Load generator and latency harness for pub/sub systems",
		Version: version,
		Long: `pubstress drives many concurrent publishers and subscribers against shared
topics at a fixed per-publisher rate and reports throughput and latency
percentiles for the test window.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, _ := cmd.Flags().GetString("log-level")
			format, _ := cmd.Flags().GetString("log-format")
			logging.Init(logging.Config{
				Level:  logging.ParseLevel(level),
				Format: logging.ParseFormat(format),
				Writer: cmd.ErrOrStderr(),
			})
		},
		Run: func(cmd *cobra.Command, args []string) {
			// If no subcommand is provided, print help
			cmd.Help()
		},
	}

	root.PersistentFlags().String("log-level", "warn", "Diagnostic log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "text", "Diagnostic log format (text, json)")

	root.AddCommand(newRunCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newCompareCmd())
	return root
}

// Execute runs the root command. Errors other than an interrupt are printed
// to stderr.
func Execute() error {
	err := RootCmd.Execute()
	if err != nil && !errors.Is(err, ErrInterrupted) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}
