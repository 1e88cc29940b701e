package safety

import (
	"math"
	"math/rand/v2"

	"github.com/samirrijal/saferoute/internal/core/domain"
)

// RandSource yields uniform values in [0, 1). *rand.Rand satisfies it.
type RandSource interface {
	Float64() float64
}

// globalRand draws from the math/rand/v2 top-level source, which is safe for
// concurrent use.
type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// Lighting estimates lighting and crowd conditions along the route.
//
// Day and evening are a fixed estimate. Any other bucket is treated as night:
// a base value plus a uniform perturbation from the injected RandSource,
// clamped to the model bounds. The route is not consulted yet; this is a
// placeholder for a street-lighting data source.
func (s *Scorer) Lighting(_ domain.Route, tod domain.TimeOfDay) float64 {
	m := s.w.Lighting
	if tod.Daylight() {
		return m.Daylight
	}

	perturb := (s.rnd.Float64()*2 - 1) * m.NightJitter
	return math.Max(m.Min, math.Min(m.Max, m.NightBase+perturb))
}
