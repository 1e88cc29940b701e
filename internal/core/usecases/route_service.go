package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/ports"
	"github.com/samirrijal/saferoute/internal/core/safety"
	"github.com/samirrijal/saferoute/internal/pkg/geospatial"
	"github.com/samirrijal/saferoute/internal/pkg/metrics"
	"github.com/samirrijal/saferoute/internal/pkg/telemetry"
)

const (
	// fallbackSteps is the number of segments in the straight-line route
	// used when the routing provider is unavailable.
	fallbackSteps = 10
	// walkingSpeed is the pace, in m/s, assumed for fallback durations.
	walkingSpeed    = 1.4
	maxAlternatives = 2
	routeCacheTTL   = 600 // seconds
)

const (
	descWellLit = "Uses main roads, well-lit areas"
	descMixed   = "Mix of main and residential roads"
)

// TimeOfDayAt buckets a wall-clock time: 06-18 day, 18-22 evening,
// 22-02 night and 02-06 late night.
func TimeOfDayAt(t time.Time) domain.TimeOfDay {
	switch h := t.Hour(); {
	case h >= 6 && h < 18:
		return domain.Day
	case h >= 18 && h < 22:
		return domain.Evening
	case h >= 22 || h < 2:
		return domain.Night
	default:
		return domain.LateNight
	}
}

// RouteService scores routes returned by the routing provider against
// nearby crime records.
type RouteService struct {
	routing ports.RoutingProvider
	crimes  ports.CrimeRepository
	events  ports.EventPublisher
	cache   ports.CacheService
	scorer  *safety.Scorer
	now     func() time.Time
}

// NewRouteService creates a new RouteService. events may be nil.
func NewRouteService(routing ports.RoutingProvider, crimes ports.CrimeRepository, events ports.EventPublisher, scorer *safety.Scorer) *RouteService {
	return &RouteService{
		routing: routing,
		crimes:  crimes,
		events:  events,
		scorer:  scorer,
		now:     time.Now,
	}
}

// WithClock replaces the clock used to derive the time of day.
func (s *RouteService) WithClock(now func() time.Time) *RouteService {
	s.now = now
	return s
}

// WithCache caches routing provider geometry. Scores are never cached
// because the lighting estimate and crime data change between requests.
func (s *RouteService) WithCache(cache ports.CacheService) *RouteService {
	s.cache = cache
	return s
}

// Calculate finds candidate routes between two points and scores each one.
// The first candidate is the primary route; up to two others are returned
// as alternatives, safest first.
func (s *RouteService) Calculate(ctx context.Context, req domain.RouteRequest) (*domain.RoutePlan, error) {
	if !req.Source.Valid() || !req.Destination.Valid() {
		return nil, fmt.Errorf("%w: source and destination must be valid coordinates", domain.ErrInvalidInput)
	}

	mode := domain.ParseTravelMode(string(req.Mode))
	tod := req.TimeOfDay
	if tod == "" {
		tod = TimeOfDayAt(s.now())
	}

	options, fallback := s.candidates(ctx, req.Source, req.Destination, mode)

	scored := make([]domain.ScoredRoute, len(options))
	g, gctx := errgroup.WithContext(ctx)
	for i, opt := range options {
		g.Go(func() error {
			sr, err := s.score(gctx, opt.Coordinates, tod, mode)
			if err != nil {
				return err
			}
			sr.Distance = opt.Distance
			sr.Duration = opt.Duration
			scored[i] = sr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	alts := slices.Clone(scored[1:])
	slices.SortStableFunc(alts, func(a, b domain.ScoredRoute) int {
		return b.SafetyScore - a.SafetyScore
	})
	if len(alts) > maxAlternatives {
		alts = alts[:maxAlternatives]
	}
	for i := range alts {
		alts[i].Description = describe(alts[i])
	}

	plan := &domain.RoutePlan{
		ScoredRoute:  scored[0],
		RouteID:      uuid.NewString(),
		TimeOfDay:    tod,
		Mode:         mode,
		Fallback:     fallback,
		Alternatives: alts,
	}

	if s.events != nil {
		if err := s.events.PublishRouteScored(ctx, plan); err != nil {
			slog.WarnContext(ctx, "publish route scored", "route_id", plan.RouteID, "error", err)
		}
	}

	return plan, nil
}

// ScoreRoute scores a caller-supplied polyline without consulting the
// routing provider. An empty route yields the neutral score.
func (s *RouteService) ScoreRoute(ctx context.Context, route domain.Route, tod domain.TimeOfDay, mode domain.TravelMode) (*domain.ScoredRoute, error) {
	mode = domain.ParseTravelMode(string(mode))
	if tod == "" {
		tod = TimeOfDayAt(s.now())
	}

	sr, err := s.score(ctx, route, tod, mode)
	if err != nil {
		return nil, err
	}
	sr.Distance = pathLength(route)
	return &sr, nil
}

func (s *RouteService) score(ctx context.Context, route domain.Route, tod domain.TimeOfDay, mode domain.TravelMode) (domain.ScoredRoute, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanRouteScoring)
	defer span.End()
	span.SetAttributes(attribute.Int("route.points", len(route)))

	var crimes []domain.CrimeRecord
	if len(route) > 0 {
		var err error
		crimes, err = s.crimes.NearRoute(ctx, route, s.scorer.ProximityMeters())
		if err != nil {
			return domain.ScoredRoute{}, fmt.Errorf("load crimes near route: %w", err)
		}
	}

	res := s.scorer.Score(route, crimes, tod, mode)
	span.SetAttributes(attribute.Int("route.score", res.Score), attribute.Int("route.crimes", len(crimes)))
	metrics.ObserveScore(string(mode), string(tod), res.Score, res.Warnings)

	return domain.ScoredRoute{
		SafetyScore: res.Score,
		Coordinates: route.Pairs(),
		Warnings:    res.Warnings,
	}, nil
}

// candidates asks the routing provider for routes and falls back to a
// straight line when it fails or returns nothing usable.
func (s *RouteService) candidates(ctx context.Context, from, to domain.GeoPoint, mode domain.TravelMode) ([]domain.RouteOption, bool) {
	cacheKey := fmt.Sprintf("routes:%s:%.5f:%.5f:%.5f:%.5f", mode, from.Lat, from.Lon, to.Lat, to.Lon)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var options []domain.RouteOption
			if err := json.Unmarshal(data, &options); err == nil && len(options) > 0 {
				metrics.CacheHits.WithLabelValues("routes").Inc()
				return options, false
			}
		}
		metrics.CacheMisses.WithLabelValues("routes").Inc()
	}

	if s.routing != nil {
		options, err := s.routing.Routes(ctx, from, to, mode, true)
		if err == nil {
			options = slices.DeleteFunc(options, func(o domain.RouteOption) bool { return len(o.Coordinates) == 0 })
			if len(options) > 0 {
				if s.cache != nil {
					if data, err := json.Marshal(options); err == nil {
						_ = s.cache.Set(ctx, cacheKey, data, routeCacheTTL)
					}
				}
				return options, false
			}
			err = fmt.Errorf("no routes returned")
		}
		slog.WarnContext(ctx, "routing provider unavailable, using straight line", "error", err)
	}

	metrics.RoutingRequests.WithLabelValues("fallback").Inc()
	return []domain.RouteOption{straightLine(from, to)}, true
}

// straightLine interpolates the direct segment between two points.
func straightLine(from, to domain.GeoPoint) domain.RouteOption {
	pts := geospatial.Interpolate(from.Lat, from.Lon, to.Lat, to.Lon, fallbackSteps)
	route := make(domain.Route, len(pts))
	for i, p := range pts {
		route[i] = domain.GeoPoint{Lat: p[0], Lon: p[1]}
	}
	dist := geospatial.Haversine(from.Lat, from.Lon, to.Lat, to.Lon)
	return domain.RouteOption{
		Coordinates: route,
		Distance:    dist,
		Duration:    dist / walkingSpeed,
	}
}

func pathLength(route domain.Route) float64 {
	var total float64
	for i := 1; i < len(route); i++ {
		total += geospatial.Haversine(route[i-1].Lat, route[i-1].Lon, route[i].Lat, route[i].Lon)
	}
	return total
}

func describe(r domain.ScoredRoute) string {
	if r.SafetyScore >= 80 {
		return descWellLit
	}
	return descMixed
}
