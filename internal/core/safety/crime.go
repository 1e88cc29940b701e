package safety

import (
	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/pkg/geospatial"
)

// CrimeDensity scores a route by the severity of crimes close to it.
//
// Each record contributes its severity at most once: the route is scanned in
// order and the first point within ProximityMeters counts, not the nearest.
// The result is 100 - density*50 and is not floored at zero.
func (s *Scorer) CrimeDensity(route domain.Route, crimes []domain.CrimeRecord) float64 {
	if len(crimes) == 0 {
		return s.w.NoDataScore
	}

	total := 0
	for _, c := range crimes {
		for _, p := range route {
			if geospatial.Haversine(c.Location.Lat, c.Location.Lon, p.Lat, p.Lon) < s.w.ProximityMeters {
				total += c.Severity
				break
			}
		}
	}

	density := float64(total) / float64(max(len(route), 1))
	return 100 - density*50
}

// CrimeWeight returns the configured weight for an incident type.
func (s *Scorer) CrimeWeight(t domain.CrimeType) float64 {
	if w, ok := s.w.CrimeTypes[t]; ok {
		return w
	}
	return s.w.DefaultCrimeWeight
}

// Hotspots annotates records with weight × severity risk.
func (s *Scorer) Hotspots(crimes []domain.CrimeRecord) []domain.Hotspot {
	out := make([]domain.Hotspot, len(crimes))
	for i, c := range crimes {
		out[i] = domain.Hotspot{CrimeRecord: c, Risk: s.CrimeWeight(c.Type) * float64(c.Severity)}
	}
	return out
}
