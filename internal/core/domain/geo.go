package domain

import (
	"fmt"
	"math"

	"github.com/samirrijal/saferoute/internal/pkg/geospatial"
)

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether both ordinates are finite and inside WGS 84 ranges.
func (p GeoPoint) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Route is an ordered sequence of coordinates from source to destination.
// Order matters: it defines traversal and inter-point distances.
type Route []GeoPoint

// ParseRoute converts [lat, lon] pairs into a Route. A pair with the wrong
// arity or a non-finite ordinate is a caller contract violation.
func ParseRoute(pairs [][]float64) (Route, error) {
	route := make(Route, 0, len(pairs))
	for i, pair := range pairs {
		if len(pair) != 2 {
			return nil, fmt.Errorf("%w: coordinate %d has %d ordinates, want 2", ErrInvalidInput, i, len(pair))
		}
		p := GeoPoint{Lat: pair[0], Lon: pair[1]}
		if !p.Valid() {
			return nil, fmt.Errorf("%w: coordinate %d (%v, %v) out of range", ErrInvalidInput, i, pair[0], pair[1])
		}
		route = append(route, p)
	}
	return route, nil
}

// Pairs returns the route as [lat, lon] pairs, the wire layout used by clients.
func (r Route) Pairs() [][]float64 {
	out := make([][]float64, len(r))
	for i, p := range r {
		out[i] = []float64{p.Lat, p.Lon}
	}
	return out
}

// Bounds returns the bounding box enclosing every point of the route.
// The zero Bounds is returned for an empty route.
func (r Route) Bounds() Bounds {
	if len(r) == 0 {
		return Bounds{}
	}
	b := Bounds{MinLat: r[0].Lat, MaxLat: r[0].Lat, MinLon: r[0].Lon, MaxLon: r[0].Lon}
	for _, p := range r[1:] {
		b.MinLat = math.Min(b.MinLat, p.Lat)
		b.MaxLat = math.Max(b.MaxLat, p.Lat)
		b.MinLon = math.Min(b.MinLon, p.Lon)
		b.MaxLon = math.Max(b.MaxLon, p.Lon)
	}
	return b
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Valid reports whether the box corners are valid and ordered.
func (b Bounds) Valid() bool {
	sw := GeoPoint{Lat: b.MinLat, Lon: b.MinLon}
	ne := GeoPoint{Lat: b.MaxLat, Lon: b.MaxLon}
	return sw.Valid() && ne.Valid() && b.MinLat <= b.MaxLat && b.MinLon <= b.MaxLon
}

// Expand grows the box by the given margin in meters on every side. The
// result is clamped to valid WGS 84 ranges.
func (b Bounds) Expand(meters float64) Bounds {
	refLat := math.Max(math.Abs(b.MinLat), math.Abs(b.MaxLat))
	latDelta, lonDelta := geospatial.DegreeDeltas(refLat, meters)
	return Bounds{
		MinLat: math.Max(b.MinLat-latDelta, -90),
		MinLon: math.Max(b.MinLon-lonDelta, -180),
		MaxLat: math.Min(b.MaxLat+latDelta, 90),
		MaxLon: math.Min(b.MaxLon+lonDelta, 180),
	}
}
