package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/usecases"
)

func newTimeOfDayCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "timeofday",
		Short: "Print the time-of-day bucket for a timestamp",
		Long:  "Prints the bucket the API assigns when a request omits time_of_day. Defaults to now.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			t := time.Now()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return eris.Wrapf(err, "timeofday: parse %q", at)
				}
				t = parsed
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), usecases.TimeOfDayAt(t))
			return err
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "RFC3339 timestamp")
	return cmd
}

// resolveTimeOfDay prefers an explicit bucket, then a timestamp, then now.
func resolveTimeOfDay(bucket, at string) (domain.TimeOfDay, error) {
	if bucket != "" {
		return domain.ParseTimeOfDay(bucket), nil
	}
	if at == "" {
		return usecases.TimeOfDayAt(time.Now()), nil
	}
	t, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return "", eris.Wrapf(err, "parse --at %q", at)
	}
	return usecases.TimeOfDayAt(t), nil
}
