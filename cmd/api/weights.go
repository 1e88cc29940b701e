package main

import (
	"fmt"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/safety"
	"github.com/samirrijal/saferoute/internal/pkg/config"
)

// scoringWeights layers the configured overrides on top of the default
// model. Zero values and missing map keys keep the defaults.
func scoringWeights(sc config.ScoringConfig) (safety.Weights, error) {
	w := safety.DefaultWeights()

	if sc.ProximityMeters > 0 {
		w.ProximityMeters = sc.ProximityMeters
	}
	if sc.NoDataScore > 0 {
		w.NoDataScore = sc.NoDataScore
	}
	if sc.IsolationMeters > 0 {
		w.IsolationMeters = sc.IsolationMeters
	}
	for k, v := range sc.CrimeWeights {
		w.CrimeTypes[domain.CrimeType(k)] = v
	}
	for k, v := range sc.TimeRisk {
		w.TimeRisk[domain.ParseTimeOfDay(k)] = v
	}
	for k, v := range sc.TravelModes {
		w.TravelModes[domain.ParseTravelMode(k)] = v
	}

	if err := w.Validate(); err != nil {
		return safety.Weights{}, fmt.Errorf("scoring weights: %w", err)
	}
	return w, nil
}
