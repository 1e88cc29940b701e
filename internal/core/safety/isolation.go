package safety

import (
	"math"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/pkg/geospatial"
)

// Isolation returns a factor in [0,1] from the average spacing between
// consecutive route points. Coarsely sampled routes are treated as passing
// through less monitored terrain.
func (s *Scorer) Isolation(route domain.Route) float64 {
	if len(route) < 2 {
		return 0
	}

	var total float64
	for i := 0; i < len(route)-1; i++ {
		a, b := route[i], route[i+1]
		total += geospatial.Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
	}

	avg := total / float64(len(route)-1)
	return math.Min(1, avg/s.w.IsolationMeters)
}
