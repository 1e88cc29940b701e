// Package safety scores travel routes by fusing crime proximity, temporal
// risk, route isolation and a lighting estimate into a bounded 0-100 score
// with explanatory warnings.
//
// A Scorer is built once from an immutable Weights value and is safe for
// concurrent use. It performs no I/O.
package safety

import (
	"fmt"
	"maps"
	"strings"

	"github.com/samirrijal/saferoute/internal/core/domain"
)

// LightingModel parameterises the simulated lighting/crowd estimate.
type LightingModel struct {
	Daylight    float64 // score for day and evening
	NightBase   float64 // centre of the night estimate
	NightJitter float64 // half-width of the uniform night perturbation
	Min         float64
	Max         float64
}

// Weights holds every tunable constant of the scoring model.
type Weights struct {
	// CrimeTypes weights incident types for hotspot risk.
	CrimeTypes         map[domain.CrimeType]float64
	DefaultCrimeWeight float64

	// TimeRisk maps a time bucket to its risk multiplier.
	TimeRisk        map[domain.TimeOfDay]float64
	DefaultTimeRisk float64

	// TravelModes maps a mode to its final score multiplier; unlisted modes are neutral.
	TravelModes map[domain.TravelMode]float64

	// ProximityMeters is the distance under which a crime counts against a route.
	ProximityMeters float64
	// NoDataScore is the crime score used when no records are supplied.
	NoDataScore float64
	// IsolationMeters is the average point spacing treated as fully isolated.
	IsolationMeters float64

	Lighting LightingModel
}

// DefaultWeights returns the production weight tables.
func DefaultWeights() Weights {
	return Weights{
		CrimeTypes: map[domain.CrimeType]float64{
			domain.CrimeTheft:      0.3,
			domain.CrimeHarassment: 0.8,
			domain.CrimeAssault:    1.0,
			domain.CrimeRobbery:    0.9,
			domain.CrimeOther:      0.2,
		},
		DefaultCrimeWeight: 0.2,
		TimeRisk: map[domain.TimeOfDay]float64{
			domain.Day:       0.3,
			domain.Evening:   0.6,
			domain.Night:     1.0,
			domain.LateNight: 1.2,
		},
		DefaultTimeRisk: 0.5,
		TravelModes: map[domain.TravelMode]float64{
			domain.Walk: 0.9,
			domain.Bike: 0.95,
			domain.Car:  1.0,
		},
		ProximityMeters: 200,
		NoDataScore:     85,
		IsolationMeters: 1000,
		Lighting: LightingModel{
			Daylight:    80,
			NightBase:   60,
			NightJitter: 20,
			Min:         10,
			Max:         100,
		},
	}
}

// Validate checks that the weights describe a usable model.
func (w Weights) Validate() error {
	var errs []string

	if w.ProximityMeters <= 0 {
		errs = append(errs, "proximity_meters must be positive")
	}
	if w.IsolationMeters <= 0 {
		errs = append(errs, "isolation_meters must be positive")
	}
	if w.Lighting.Min > w.Lighting.Max {
		errs = append(errs, fmt.Sprintf("lighting min %.0f exceeds max %.0f", w.Lighting.Min, w.Lighting.Max))
	}
	if w.Lighting.NightJitter < 0 {
		errs = append(errs, "lighting night_jitter must be >= 0")
	}
	for tod, r := range w.TimeRisk {
		if r < 0 {
			errs = append(errs, fmt.Sprintf("time_risk[%s] must be >= 0", tod))
		}
	}
	for mode, m := range w.TravelModes {
		if m < 0 {
			errs = append(errs, fmt.Sprintf("travel_modes[%s] must be >= 0", mode))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid weights: %s", strings.Join(errs, "; "))
	}
	return nil
}

// clone returns a deep copy so a Scorer never shares maps with its caller.
func (w Weights) clone() Weights {
	out := w
	out.CrimeTypes = maps.Clone(w.CrimeTypes)
	out.TimeRisk = maps.Clone(w.TimeRisk)
	out.TravelModes = maps.Clone(w.TravelModes)
	return out
}
