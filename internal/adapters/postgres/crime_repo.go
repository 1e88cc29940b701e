package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/ports"
)

var _ ports.CrimeRepository = (*CrimeRepo)(nil)

// maxCorridorCrimes bounds the corridor query for very long routes.
const maxCorridorCrimes = 5000

// corridorSlackMeters absorbs the gap between the PostGIS sphere radius and
// the one the scorer measures with. Callers re-check the exact threshold.
const corridorSlackMeters = 0.5

// CrimeRepo implements ports.CrimeRepository with pgx and PostGIS.
type CrimeRepo struct {
	db *DB
}

// NewCrimeRepo creates a new CrimeRepo.
func NewCrimeRepo(db *DB) *CrimeRepo {
	return &CrimeRepo{db: db}
}

const crimeColumns = `
	id, ST_Y(location::geometry) AS lat, ST_X(location::geometry) AS lon,
	crime_type, severity, COALESCE(location_type, ''), reported_at`

// Insert stores a crime report and fills in its ID.
func (r *CrimeRepo) Insert(ctx context.Context, c *domain.CrimeRecord) error {
	return r.db.q.QueryRow(ctx, `
		INSERT INTO crime_reports (location, crime_type, severity, location_type, reported_at)
		VALUES (ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3, $4, NULLIF($5, ''), $6)
		RETURNING id
	`, c.Location.Lon, c.Location.Lat, string(c.Type), c.Severity, c.LocationType, c.ReportedAt).Scan(&c.ID)
}

// InBounds returns crimes inside the box, most severe and most recent first.
func (r *CrimeRepo) InBounds(ctx context.Context, b domain.Bounds, limit int) ([]domain.CrimeRecord, error) {
	rows, err := r.db.q.Query(ctx, `
		SELECT `+crimeColumns+`
		FROM crime_reports
		WHERE location::geometry && ST_MakeEnvelope($1, $2, $3, $4, 4326)
		ORDER BY severity DESC, reported_at DESC
		LIMIT $5
	`, b.MinLon, b.MinLat, b.MaxLon, b.MaxLat, limit)
	if err != nil {
		return nil, err
	}
	return collectCrimes(rows)
}

// NearRoute returns crimes within meters of the route polyline. The expanded
// route box is an indexed prefilter; ST_DWithin then measures on the sphere.
func (r *CrimeRepo) NearRoute(ctx context.Context, route domain.Route, meters float64) ([]domain.CrimeRecord, error) {
	if len(route) == 0 {
		return nil, nil
	}
	shape, err := encodeRoute(route)
	if err != nil {
		return nil, err
	}

	radius := meters + corridorSlackMeters
	box := route.Bounds().Expand(radius)
	rows, err := r.db.q.Query(ctx, `
		SELECT `+crimeColumns+`
		FROM crime_reports
		WHERE location && ST_MakeEnvelope($1, $2, $3, $4, 4326)::geography
		  AND ST_DWithin(location, ST_GeomFromEWKB($5)::geography, $6, false)
		ORDER BY reported_at DESC
		LIMIT $7
	`, box.MinLon, box.MinLat, box.MaxLon, box.MaxLat, shape, radius, maxCorridorCrimes)
	if err != nil {
		return nil, err
	}
	return collectCrimes(rows)
}

func collectCrimes(rows pgx.Rows) ([]domain.CrimeRecord, error) {
	defer rows.Close()

	var out []domain.CrimeRecord
	for rows.Next() {
		var c domain.CrimeRecord
		var crimeType string
		if err := rows.Scan(
			&c.ID, &c.Location.Lat, &c.Location.Lon,
			&crimeType, &c.Severity, &c.LocationType, &c.ReportedAt,
		); err != nil {
			return nil, err
		}
		c.Type = domain.CrimeType(crimeType)
		out = append(out, c)
	}
	return out, rows.Err()
}

// encodeRoute converts a route to EWKB with SRID 4326: a point for a single
// coordinate, otherwise a line string in lon/lat order.
func encodeRoute(route domain.Route) ([]byte, error) {
	var g geom.T
	if len(route) == 1 {
		g = geom.NewPointFlat(geom.XY, []float64{route[0].Lon, route[0].Lat}).SetSRID(4326)
	} else {
		flat := make([]float64, 0, 2*len(route))
		for _, p := range route {
			flat = append(flat, p.Lon, p.Lat)
		}
		g = geom.NewLineStringFlat(geom.XY, flat).SetSRID(4326)
	}

	data, err := ewkb.Marshal(g, ewkb.NDR)
	if err != nil {
		return nil, fmt.Errorf("encode route geometry: %w", err)
	}
	return data, nil
}
