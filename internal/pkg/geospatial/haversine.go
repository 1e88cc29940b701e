package geospatial

import "math"

const earthRadiusKm = 6371.0

// metersPerDegree is the length of one degree of latitude on the sphere.
const metersPerDegree = earthRadiusKm * 1000 * math.Pi / 180

// Haversine calculates the great-circle distance in meters between two points.
// Inputs are not range checked; out-of-range degrees propagate numerically.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// DegreeDeltas converts a distance in meters into the latitude and longitude
// spans it covers at lat. Near the poles the longitude span is capped at 360.
func DegreeDeltas(lat, meters float64) (latDelta, lonDelta float64) {
	latDelta = meters / metersPerDegree
	cos := math.Cos(toRad(math.Min(math.Abs(lat)+latDelta, 90)))
	if cos*360*metersPerDegree <= meters {
		return latDelta, 360
	}
	return latDelta, meters / (metersPerDegree * cos)
}

// Interpolate returns steps+1 evenly spaced points on the straight
// lat/lon segment between the two endpoints, endpoints included.
func Interpolate(lat1, lon1, lat2, lon2 float64, steps int) [][2]float64 {
	if steps < 1 {
		steps = 1
	}
	out := make([][2]float64, 0, steps+1)
	for i := 0; i < steps; i++ {
		ratio := float64(i) / float64(steps)
		out = append(out, [2]float64{
			lat1 + (lat2-lat1)*ratio,
			lon1 + (lon2-lon1)*ratio,
		})
	}
	return append(out, [2]float64{lat2, lon2})
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
