package safety

import (
	"math"

	"github.com/samirrijal/saferoute/internal/core/domain"
)

// Warning and note texts, in the order Score emits them.
const (
	WarnNoRoute      = "No route data available"
	WarnHighCrime    = "⚠ High crime density in this area"
	WarnIsolated     = "⚠ Route passes through isolated areas"
	WarnPoorLighting = "⚠ Poor lighting conditions expected"
	NoteWellLit      = "✅ Route uses well-lit main roads"
	NoteLowCrime     = "✅ Lower crime density reported"
)

const (
	noRouteScore = 50

	highCrimeBelow     = 70
	isolatedAbove      = 0.7
	poorLightingBelow  = 40
	wellLitAtLeast     = 80
	lowCrimeAtLeast    = 70
	timeRiskDampening  = 0.3
	weightTimeAdjusted = 0.4
	weightCrime        = 0.3
	weightIsolation    = 0.2
	weightLighting     = 0.1
)

// Breakdown exposes the intermediate signals behind a score.
type Breakdown struct {
	CrimeScore        float64 `json:"crime_score"`
	TimeFactor        float64 `json:"time_factor"`
	TimeAdjustedScore float64 `json:"time_adjusted_score"`
	Isolation         float64 `json:"isolation"`
	Lighting          float64 `json:"lighting"`
	ModeMultiplier    float64 `json:"mode_multiplier"`
}

// Result is the outcome of scoring one route.
type Result struct {
	Score     int       `json:"score"`
	Warnings  []string  `json:"warnings"`
	Breakdown Breakdown `json:"breakdown"`
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithRand injects the randomness used by the night lighting estimate.
// The source must be safe for concurrent use if the Scorer is shared.
func WithRand(r RandSource) Option {
	return func(s *Scorer) {
		if r != nil {
			s.rnd = r
		}
	}
}

// Scorer computes route safety scores from a fixed set of weights.
type Scorer struct {
	w   Weights
	rnd RandSource
}

// New creates a Scorer. The weights are copied; later changes by the caller
// do not affect the Scorer.
func New(w Weights, opts ...Option) *Scorer {
	s := &Scorer{w: w.clone(), rnd: globalRand{}}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Weights returns a copy of the scorer's weight tables.
func (s *Scorer) Weights() Weights {
	return s.w.clone()
}

// ProximityMeters is the radius within which a crime counts against a route.
func (s *Scorer) ProximityMeters() float64 {
	return s.w.ProximityMeters
}

// TimeFactor returns the risk multiplier for a time bucket.
func (s *Scorer) TimeFactor(tod domain.TimeOfDay) float64 {
	if f, ok := s.w.TimeRisk[tod]; ok {
		return f
	}
	return s.w.DefaultTimeRisk
}

// ModeMultiplier returns the final-score multiplier for a travel mode.
func (s *Scorer) ModeMultiplier(mode domain.TravelMode) float64 {
	if m, ok := s.w.TravelModes[mode]; ok {
		return m
	}
	return 1.0
}

// Score rates a route between 0 and 100 and explains the result.
//
// It never fails on well-typed input: an empty route yields the neutral
// score, an empty crime list yields the no-data prior and unknown time or
// mode values fall back to neutral multipliers.
func (s *Scorer) Score(route domain.Route, crimes []domain.CrimeRecord, tod domain.TimeOfDay, mode domain.TravelMode) Result {
	if len(route) == 0 {
		return Result{Score: noRouteScore, Warnings: []string{WarnNoRoute}}
	}

	var warnings []string
	var b Breakdown

	b.CrimeScore = s.CrimeDensity(route, crimes)
	if b.CrimeScore < highCrimeBelow {
		warnings = append(warnings, WarnHighCrime)
	}
	// only the upper bound is clamped; a negative crime score passes through
	base := math.Min(100, b.CrimeScore)

	b.TimeFactor = s.TimeFactor(tod)
	b.TimeAdjustedScore = base * (1 - b.TimeFactor*timeRiskDampening)

	b.Isolation = s.Isolation(route)
	if b.Isolation > isolatedAbove {
		warnings = append(warnings, WarnIsolated)
	}

	b.Lighting = s.Lighting(route, tod)
	if b.Lighting < poorLightingBelow {
		warnings = append(warnings, WarnPoorLighting)
	}

	final := b.TimeAdjustedScore*weightTimeAdjusted +
		b.CrimeScore*weightCrime +
		(100-b.Isolation*100)*weightIsolation +
		b.Lighting*weightLighting

	b.ModeMultiplier = s.ModeMultiplier(mode)
	final *= b.ModeMultiplier

	score := clampScore(final)

	if score >= wellLitAtLeast {
		warnings = append(warnings, NoteWellLit)
	}
	if score >= lowCrimeAtLeast {
		warnings = append(warnings, NoteLowCrime)
	}
	if warnings == nil {
		warnings = []string{}
	}

	return Result{Score: score, Warnings: warnings, Breakdown: b}
}

// clampScore truncates toward zero and bounds the result to [0,100].
func clampScore(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 100 {
		return 100
	}
	return int(v)
}
