package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/aldapa/trackside/internal/core/domain"
	"github.com/aldapa/trackside/internal/core/ports"
	"github.com/aldapa/trackside/internal/pkg/geospatial"
)

const (
	// DefaultNearbyRadiusMeters is the search radius applied when a caller
	// does not specify one.
	DefaultNearbyRadiusMeters = 500.0

	// DefaultDedupRadiusKm is the per-waypoint collection radius used when
	// deduplicating hazards along a route.
	DefaultDedupRadiusKm = 0.5
)

// HazardService answers hazard containment, proximity, and severity
// queries. The detection methods are pure and operate on caller-supplied
// data; the repository-backed methods serve stored hazard feeds.
type HazardService struct {
	hazards ports.HazardRepository
	zones   ports.ZoneRepository
	cache   ports.CacheService
	events  ports.EventPublisher
}

// NewHazardService creates a new HazardService. Every dependency may be nil;
// the pure detection methods need none of them.
func NewHazardService(hazards ports.HazardRepository, zones ports.ZoneRepository, cache ports.CacheService, events ports.EventPublisher) *HazardService {
	return &HazardService{hazards: hazards, zones: zones, cache: cache, events: events}
}

// ContainsPoint reports whether point lies inside the zone. The boundary is
// inclusive: a point exactly RadiusKm from the centre is contained.
func (s *HazardService) ContainsPoint(zone domain.HazardZone, point domain.Coordinate) bool {
	return geospatial.DistanceKm(point.Lat, point.Lng, zone.Centre.Lat, zone.Centre.Lng) <= zone.RadiusKm
}

// DetectZones returns all zones containing point, in input order. Zones with
// an out-of-range centre are skipped; an empty input yields an empty result,
// never an error.
func (s *HazardService) DetectZones(point domain.Coordinate, zones []domain.HazardZone) []domain.HazardZone {
	var hits []domain.HazardZone
	for _, z := range zones {
		if !z.Centre.Valid() {
			continue
		}
		if s.ContainsPoint(z, point) {
			hits = append(hits, z)
		}
	}
	return hits
}

// NearestZone returns the zone whose centre is closest to point, with its
// distance. The comparison is strict, so the first zone encountered wins
// ties. Returns nil when the list is empty or every zone is malformed.
func (s *HazardService) NearestZone(point domain.Coordinate, zones []domain.HazardZone) *domain.ZoneDistance {
	var best *domain.ZoneDistance
	for _, z := range zones {
		if !z.Centre.Valid() {
			continue
		}
		d := geospatial.DistanceKm(point.Lat, point.Lng, z.Centre.Lat, z.Centre.Lng)
		if best == nil || d < best.DistanceKm {
			best = &domain.ZoneDistance{Zone: z, DistanceKm: d}
		}
	}
	return best
}

// DetectNearbyPoints returns the hazards within radiusMeters of position,
// annotated with their rounded distance and stably sorted ascending by it.
// Hazards with an out-of-range position are skipped so one bad feed record
// never aborts the batch; only malformed top-level arguments fail.
func (s *HazardService) DetectNearbyPoints(position domain.Coordinate, hazards []domain.HazardPoint, radiusMeters float64) ([]domain.NearbyHazard, error) {
	if !position.Valid() {
		return nil, fmt.Errorf("%w: position (%v, %v)", domain.ErrInvalidCoordinate, position.Lat, position.Lng)
	}
	if radiusMeters <= 0 {
		return nil, fmt.Errorf("radiusMeters must be positive, got %v", radiusMeters)
	}

	var nearby []domain.NearbyHazard
	for _, h := range hazards {
		if !h.Position.Valid() {
			continue
		}
		d := geospatial.Haversine(position.Lat, position.Lng, h.Position.Lat, h.Position.Lng)
		if d <= radiusMeters {
			nearby = append(nearby, domain.NearbyHazard{
				HazardPoint:    h,
				DistanceMeters: int(math.Round(d)),
			})
		}
	}

	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].DistanceMeters < nearby[j].DistanceMeters
	})
	return nearby, nil
}

// hazardKey identifies a hazard for route-wide deduplication.
type hazardKey struct {
	category domain.Category
	lat, lng float64
}

// DedupAlongRoute collects the hazards within radiusKm of each route
// waypoint and unions them, keyed by (category, lat, lng). First-encounter
// order across the waypoint traversal is preserved, so a hazard near several
// waypoints is emitted once, where it was first seen.
func (s *HazardService) DedupAlongRoute(hazards []domain.HazardPoint, route domain.Route, radiusKm float64) []domain.HazardPoint {
	seen := make(map[hazardKey]bool)
	var distinct []domain.HazardPoint

	for _, wp := range route.Waypoints {
		probe := domain.HazardZone{Centre: wp, RadiusKm: radiusKm}
		for _, h := range hazards {
			if !h.Position.Valid() {
				continue
			}
			if !s.ContainsPoint(probe, h.Position) {
				continue
			}
			key := hazardKey{h.Category, h.Position.Lat, h.Position.Lng}
			if seen[key] {
				continue
			}
			seen[key] = true
			distinct = append(distinct, h)
		}
	}
	return distinct
}

// MostSevere returns the hazard with the highest severity rank, or nil for
// an empty input. Ties are broken by first occurrence.
func (s *HazardService) MostSevere(hazards []domain.HazardPoint) *domain.HazardPoint {
	best := -1
	for i, h := range hazards {
		if best < 0 || h.Category.SeverityRank() > hazards[best].Category.SeverityRank() {
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	h := hazards[best]
	return &h
}

// FindNearby returns stored hazards within radiusMeters of the given point,
// annotated with distance, through a read-through cache.
func (s *HazardService) FindNearby(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.NearbyHazard, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if radiusMeters <= 0 {
		radiusMeters = DefaultNearbyRadiusMeters
	}

	cacheKey := fmt.Sprintf("hazards:nearby:%.4f:%.4f:%.0f:%d", lat, lng, radiusMeters, limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var nearby []domain.NearbyHazard
			if err := json.Unmarshal(data, &nearby); err == nil {
				return nearby, nil
			}
		}
	}

	points, err := s.hazards.FindNearby(ctx, lat, lng, radiusMeters, limit)
	if err != nil {
		return nil, err
	}

	nearby, err := s.DetectNearbyPoints(domain.Coordinate{Lat: lat, Lng: lng}, points, radiusMeters)
	if err != nil {
		return nil, err
	}

	// Cache for 1 minute; feeds refresh continuously
	if s.cache != nil {
		if data, err := json.Marshal(nearby); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 60)
		}
	}

	return nearby, nil
}

// GetByID returns a single stored hazard.
func (s *HazardService) GetByID(ctx context.Context, id string) (*domain.HazardPoint, error) {
	return s.hazards.GetByID(ctx, id)
}

// ListZones returns all stored hazard zones.
func (s *HazardService) ListZones(ctx context.Context) ([]domain.HazardZone, error) {
	return s.zones.List(ctx)
}

// ScanRoute collects the stored hazards near every waypoint of the route,
// deduplicates them, and publishes a route alert carrying the most severe
// hit. radiusKm defaults to DefaultDedupRadiusKm when non-positive.
func (s *HazardService) ScanRoute(ctx context.Context, route domain.Route, radiusKm float64) (*domain.RouteAlert, error) {
	if radiusKm <= 0 {
		radiusKm = DefaultDedupRadiusKm
	}

	var collected []domain.HazardPoint
	for _, wp := range route.Waypoints {
		points, err := s.hazards.FindNearby(ctx, wp.Lat, wp.Lng, radiusKm*1000, 100)
		if err != nil {
			return nil, fmt.Errorf("find hazards near (%v, %v): %w", wp.Lat, wp.Lng, err)
		}
		collected = append(collected, points...)
	}

	alert := &domain.RouteAlert{
		Route:     route,
		Hazards:   s.DedupAlongRoute(collected, route, radiusKm),
		ScannedAt: time.Now().UTC(),
	}
	alert.MostSevere = s.MostSevere(alert.Hazards)

	if s.events != nil && len(alert.Hazards) > 0 {
		if err := s.events.PublishRouteAlert(ctx, alert); err != nil {
			return nil, fmt.Errorf("publish route alert: %w", err)
		}
	}

	return alert, nil
}
