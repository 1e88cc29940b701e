package main

import (
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/safety"
)

type scoreOptions struct {
	routeFile  string
	crimesFile string
	timeOfDay  string
	at         string
	mode       string
	seed       uint64
}

func newScoreCmd() *cobra.Command {
	var opts scoreOptions

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a route file against a crime file",
		Long: "Reads a JSON array of [lat, lng] pairs and an optional JSON array of crime records, " +
			"then prints the safety score, warnings and factor breakdown as JSON.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			route, err := readRoute(opts.routeFile)
			if err != nil {
				return err
			}
			crimes, err := readCrimes(opts.crimesFile)
			if err != nil {
				return err
			}
			tod, err := resolveTimeOfDay(opts.timeOfDay, opts.at)
			if err != nil {
				return err
			}

			var scorerOpts []safety.Option
			if opts.seed != 0 {
				scorerOpts = append(scorerOpts, safety.WithRand(rand.New(rand.NewPCG(opts.seed, opts.seed))))
			}
			scorer := safety.New(safety.DefaultWeights(), scorerOpts...)

			mode := domain.ParseTravelMode(opts.mode)
			slog.Debug("scoring route", "points", len(route), "crimes", len(crimes), "time_of_day", tod, "mode", mode)

			res := scorer.Score(route, crimes, tod, mode)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return eris.Wrap(enc.Encode(res), "score: write result")
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.routeFile, "route", "", "JSON file with [[lat, lng], ...] (required)")
	f.StringVar(&opts.crimesFile, "crimes", "", "JSON file with crime records")
	f.StringVar(&opts.timeOfDay, "time", "", "time of day bucket (day, evening, night, late_night)")
	f.StringVar(&opts.at, "at", "", "RFC3339 timestamp to derive the time of day from")
	f.StringVar(&opts.mode, "mode", "walk", "travel mode (walk, bike, car)")
	f.Uint64Var(&opts.seed, "seed", 0, "seed for the night lighting jitter; 0 is random")
	_ = cmd.MarkFlagRequired("route")

	return cmd
}

func readRoute(path string) (domain.Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "score: read route %s", path)
	}
	var pairs [][]float64
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, eris.Wrapf(err, "score: decode route %s", path)
	}
	route, err := domain.ParseRoute(pairs)
	if err != nil {
		return nil, eris.Wrapf(err, "score: route %s", path)
	}
	return route, nil
}

func readCrimes(path string) ([]domain.CrimeRecord, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "score: read crimes %s", path)
	}
	var crimes []domain.CrimeRecord
	if err := json.Unmarshal(data, &crimes); err != nil {
		return nil, eris.Wrapf(err, "score: decode crimes %s", path)
	}
	for i, c := range crimes {
		if err := c.Validate(); err != nil {
			return nil, eris.Wrapf(err, "score: crime %d", i)
		}
	}
	return crimes, nil
}
