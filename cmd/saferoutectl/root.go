package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/samirrijal/saferoute/internal/pkg/logging"
)

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "saferoutectl",
		Short: "Offline tools for the SafeRoute scorer",
		Long:  "Scores routes against crime data from local files and inspects the time-of-day buckets used by the API.",
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), logLevel, "text"))
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newScoreCmd(), newTimeOfDayCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
