package usecases

import (
	"fmt"

	"github.com/aldapa/trackside/internal/core/domain"
	"github.com/aldapa/trackside/internal/pkg/geospatial"
)

// Rand is the source of randomness for waypoint selection. *math/rand.Rand
// satisfies it; tests inject a fixed sequence to make output reproducible.
type Rand interface {
	Intn(n int) int
}

// RouteService builds direct and single-waypoint randomized routes.
// All methods are pure apart from the injected RNG draw, so a single
// instance is safe for concurrent use.
type RouteService struct {
	rng Rand
}

// NewRouteService creates a new RouteService. rng must be non-nil when
// GenerateRandomized is used with a non-empty pool.
func NewRouteService(rng Rand) *RouteService {
	return &RouteService{rng: rng}
}

// GenerateDirect returns a two-waypoint direct route between the endpoints.
// Either endpoint being out of range fails with ErrInvalidCoordinate.
func (s *RouteService) GenerateDirect(origin, destination domain.Coordinate) (domain.Route, error) {
	if !origin.Valid() {
		return domain.Route{}, fmt.Errorf("%w: origin (%v, %v)", domain.ErrInvalidCoordinate, origin.Lat, origin.Lng)
	}
	if !destination.Valid() {
		return domain.Route{}, fmt.Errorf("%w: destination (%v, %v)", domain.ErrInvalidCoordinate, destination.Lat, destination.Lng)
	}

	return domain.Route{
		Origin:      origin,
		Destination: destination,
		Waypoints:   []domain.Coordinate{origin, destination},
		Kind:        domain.RouteKindDirect,
	}, nil
}

// GenerateRandomized returns a three-waypoint route through one pool member
// chosen uniformly at random. Invalid pool entries are filtered out first;
// an empty filtered pool falls back to a direct route.
func (s *RouteService) GenerateRandomized(origin, destination domain.Coordinate, pool []domain.Coordinate) (domain.Route, error) {
	if !origin.Valid() {
		return domain.Route{}, fmt.Errorf("%w: origin (%v, %v)", domain.ErrInvalidCoordinate, origin.Lat, origin.Lng)
	}
	if !destination.Valid() {
		return domain.Route{}, fmt.Errorf("%w: destination (%v, %v)", domain.ErrInvalidCoordinate, destination.Lat, destination.Lng)
	}

	var candidates []domain.Coordinate
	for _, c := range pool {
		if c.Valid() {
			candidates = append(candidates, c)
		}
	}

	if len(candidates) == 0 {
		return s.GenerateDirect(origin, destination)
	}

	via := candidates[s.rng.Intn(len(candidates))]
	return domain.Route{
		Origin:      origin,
		Destination: destination,
		Waypoints:   []domain.Coordinate{origin, via, destination},
		Kind:        domain.RouteKindRandomized,
	}, nil
}

// RouteDistanceKm sums the great-circle distance over consecutive waypoint
// pairs. A route with fewer than two waypoints has distance 0.
func (s *RouteService) RouteDistanceKm(route domain.Route) float64 {
	if len(route.Waypoints) < 2 {
		return 0
	}

	var total float64
	for i := 1; i < len(route.Waypoints); i++ {
		a, b := route.Waypoints[i-1], route.Waypoints[i]
		total += geospatial.DistanceKm(a.Lat, a.Lng, b.Lat, b.Lng)
	}
	return total
}
