package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/ports"
	"github.com/samirrijal/saferoute/internal/core/safety"
	"github.com/samirrijal/saferoute/internal/pkg/metrics"
)

const (
	defaultHotspotLimit = 100
	maxHotspotLimit     = 500
	hotspotCacheTTL     = 300 // seconds

	// hotspotGenerationKey names the token embedded in every hotspot key.
	// Deleting it orphans all cached hotspot pages at once.
	hotspotGenerationKey = "crime:hotspots:gen"
	hotspotGenerationTTL = 86400
)

// CrimeService handles crime-report business logic.
type CrimeService struct {
	crimes ports.CrimeRepository
	cache  ports.CacheService
	scorer *safety.Scorer
	now    func() time.Time
}

// NewCrimeService creates a new CrimeService. cache may be nil.
func NewCrimeService(crimes ports.CrimeRepository, cache ports.CacheService, scorer *safety.Scorer) *CrimeService {
	return &CrimeService{crimes: crimes, cache: cache, scorer: scorer, now: time.Now}
}

// Hotspots returns crimes inside the bounding box, each annotated with its
// weighted risk.
func (s *CrimeService) Hotspots(ctx context.Context, b domain.Bounds, limit int) ([]domain.Hotspot, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("%w: bounding box corners are invalid or inverted", domain.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = defaultHotspotLimit
	}
	if limit > maxHotspotLimit {
		limit = maxHotspotLimit
	}

	// Try cache
	var cacheKey string
	if s.cache != nil {
		cacheKey = fmt.Sprintf("crime:hotspots:%s:%.4f:%.4f:%.4f:%.4f:%d",
			s.hotspotGeneration(ctx), b.MinLat, b.MinLon, b.MaxLat, b.MaxLon, limit)
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var hs []domain.Hotspot
			if err := json.Unmarshal(data, &hs); err == nil {
				metrics.CacheHits.WithLabelValues("hotspots").Inc()
				return hs, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("hotspots").Inc()
	}

	recs, err := s.crimes.InBounds(ctx, b, limit)
	if err != nil {
		return nil, fmt.Errorf("query hotspots: %w", err)
	}
	hs := s.scorer.Hotspots(recs)

	if s.cache != nil {
		if data, err := json.Marshal(hs); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, hotspotCacheTTL)
		}
	}

	return hs, nil
}

// Report validates and stores a crime record.
func (s *CrimeService) Report(ctx context.Context, rec *domain.CrimeRecord) error {
	rec.Type = domain.CrimeType(strings.ToLower(strings.TrimSpace(string(rec.Type))))
	if err := rec.Validate(); err != nil {
		return err
	}
	if !rec.Type.Known() {
		return fmt.Errorf("%w: unknown crime_type %q", domain.ErrInvalidInput, rec.Type)
	}
	if rec.ReportedAt.IsZero() {
		rec.ReportedAt = s.now().UTC()
	}

	if err := s.crimes.Insert(ctx, rec); err != nil {
		return fmt.Errorf("insert crime: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, hotspotGenerationKey); err != nil {
			slog.Warn("hotspot cache invalidation failed", "error", err)
		}
	}
	return nil
}

// hotspotGeneration returns the current hotspot cache generation, starting a
// new one when none is stored.
func (s *CrimeService) hotspotGeneration(ctx context.Context) string {
	if data, err := s.cache.Get(ctx, hotspotGenerationKey); err == nil && len(data) > 0 {
		return string(data)
	}
	gen := uuid.NewString()
	_ = s.cache.Set(ctx, hotspotGenerationKey, []byte(gen), hotspotGenerationTTL)
	return gen
}

// NearRoute returns crimes within meters of the route. A non-positive
// radius uses the scorer's proximity threshold.
func (s *CrimeService) NearRoute(ctx context.Context, route domain.Route, meters float64) ([]domain.CrimeRecord, error) {
	if len(route) == 0 {
		return nil, nil
	}
	if meters <= 0 {
		meters = s.scorer.ProximityMeters()
	}
	return s.crimes.NearRoute(ctx, route, meters)
}
