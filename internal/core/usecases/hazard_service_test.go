package usecases_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/aldapa/trackside/internal/core/domain"
	"github.com/aldapa/trackside/internal/core/usecases"
	"github.com/aldapa/trackside/internal/pkg/geospatial"
)

// --- Mock HazardRepository ---

type mockHazardRepo struct {
	findNearbyFn func(ctx context.Context, lat, lng, radius float64, limit int) ([]domain.HazardPoint, error)
	getByIDFn    func(ctx context.Context, id string) (*domain.HazardPoint, error)
}

func (m *mockHazardRepo) Upsert(ctx context.Context, h *domain.HazardPoint) error        { return nil }
func (m *mockHazardRepo) UpsertBatch(ctx context.Context, hs []domain.HazardPoint) error { return nil }

func (m *mockHazardRepo) GetByID(ctx context.Context, id string) (*domain.HazardPoint, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockHazardRepo) FindNearby(ctx context.Context, lat, lng, radius float64, limit int) ([]domain.HazardPoint, error) {
	if m.findNearbyFn != nil {
		return m.findNearbyFn(ctx, lat, lng, radius, limit)
	}
	return nil, nil
}

func (m *mockHazardRepo) ListByCategory(ctx context.Context, c domain.Category, limit int) ([]domain.HazardPoint, error) {
	return nil, nil
}

// --- Tests ---

// About 0.0018 degrees of latitude is 200 m; 0.009 degrees is 1 km.
func north(c domain.Coordinate, deg float64) domain.Coordinate {
	return domain.Coordinate{Lat: c.Lat + deg, Lng: c.Lng}
}

func TestHazardService_ContainsPoint_CentreIsContained(t *testing.T) {
	svc := usecases.NewHazardService(nil, nil, nil, nil)

	zone := domain.HazardZone{Centre: sanFrancisco, RadiusKm: 5, Category: domain.CategoryAccident}
	if !svc.ContainsPoint(zone, sanFrancisco) {
		t.Error("zone centre should be contained")
	}
}

func TestHazardService_ContainsPoint_BoundaryInclusive(t *testing.T) {
	svc := usecases.NewHazardService(nil, nil, nil, nil)

	point := north(sanFrancisco, 0.009)
	d := geospatial.DistanceKm(sanFrancisco.Lat, sanFrancisco.Lng, point.Lat, point.Lng)

	// Radius exactly equal to the distance: still contained.
	zone := domain.HazardZone{Centre: sanFrancisco, RadiusKm: d}
	if !svc.ContainsPoint(zone, point) {
		t.Error("point exactly on the boundary should be contained")
	}

	zone.RadiusKm = d * 0.999
	if svc.ContainsPoint(zone, point) {
		t.Error("point outside the radius should not be contained")
	}
}

func TestHazardService_DetectZones_InputOrderAndSkipsMalformed(t *testing.T) {
	svc := usecases.NewHazardService(nil, nil, nil, nil)

	zones := []domain.HazardZone{
		{Centre: sanFrancisco, RadiusKm: 10, Category: domain.CategoryRoadWorks},
		{Centre: domain.Coordinate{Lat: 200, Lng: 0}, RadiusKm: 1000, Category: domain.CategoryClosure},
		{Centre: north(sanFrancisco, 0.009), RadiusKm: 5, Category: domain.CategoryDebris},
		{Centre: losAngeles, RadiusKm: 1, Category: domain.CategoryAccident},
	}

	hits := svc.DetectZones(sanFrancisco, zones)
	if len(hits) != 2 {
		t.Fatalf("expected 2 zones, got %d", len(hits))
	}
	if hits[0].Category != domain.CategoryRoadWorks || hits[1].Category != domain.CategoryDebris {
		t.Errorf("zones out of input order: %v", hits)
	}
}

func TestHazardService_DetectZones_EmptyInput(t *testing.T) {
	svc := usecases.NewHazardService(nil, nil, nil, nil)

	if hits := svc.DetectZones(sanFrancisco, nil); len(hits) != 0 {
		t.Errorf("expected no zones, got %d", len(hits))
	}
}

func TestHazardService_NearestZone_FirstWinsTies(t *testing.T) {
	svc := usecases.NewHazardService(nil, nil, nil, nil)

	centre := north(sanFrancisco, 0.018)
	zones := []domain.HazardZone{
		{Centre: centre, RadiusKm: 1, Category: domain.CategorySpeedCamera},
		{Centre: centre, RadiusKm: 2, Category: domain.CategoryClosure},
	}

	nearest := svc.NearestZone(sanFrancisco, zones)
	if nearest == nil {
		t.Fatal("expected a nearest zone")
	}
	if nearest.Zone.Category != domain.CategorySpeedCamera {
		t.Errorf("expected first equidistant zone to win, got %s", nearest.Zone.Category)
	}
}

func TestHazardService_NearestZone_EmptyOrMalformed(t *testing.T) {
	svc := usecases.NewHazardService(nil, nil, nil, nil)

	if z := svc.NearestZone(sanFrancisco, nil); z != nil {
		t.Errorf("expected nil for empty zone list, got %v", z)
	}

	malformed := []domain.HazardZone{
		{Centre: domain.Coordinate{Lat: 91, Lng: 0}, RadiusKm: 1},
		{Centre: domain.Coordinate{Lat: 0, Lng: math.NaN()}, RadiusKm: 1},
	}
	if z := svc.NearestZone(sanFrancisco, malformed); z != nil {
		t.Errorf("expected nil for all-malformed zone list, got %v", z)
	}
}

func TestHazardService_DetectNearbyPoints_RadiusFilterAndDistance(t *testing.T) {
	svc := usecases.NewHazardService(nil, nil, nil, nil)

	h1 := domain.HazardPoint{ID: "h1", Category: domain.CategoryDebris, Position: north(sanFrancisco, 0.0018)}
	h2 := domain.HazardPoint{ID: "h2", Category: domain.CategoryAccident, Position: north(sanFrancisco, 0.009)}

	nearby, err := svc.DetectNearbyPoints(sanFrancisco, []domain.HazardPoint{h1, h2}, usecases.DefaultNearbyRadiusMeters)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nearby) != 1 {
		t.Fatalf("expected 1 hazard within 500 m, got %d", len(nearby))
	}
	if nearby[0].ID != "h1" {
		t.Errorf("expected h1, got %s", nearby[0].ID)
	}
	if math.Abs(float64(nearby[0].DistanceMeters)-200) > 10 {
		t.Errorf("expected ~200 m, got %d", nearby[0].DistanceMeters)
	}
}

func TestHazardService_DetectNearbyPoints_SortedAscendingStable(t *testing.T) {
	svc := usecases.NewHazardService(nil, nil, nil, nil)

	far := domain.HazardPoint{ID: "far", Position: north(sanFrancisco, 0.003)}
	near := domain.HazardPoint{ID: "near", Position: north(sanFrancisco, 0.001)}
	nearTwin := domain.HazardPoint{ID: "near-twin", Position: north(sanFrancisco, 0.001)}

	nearby, err := svc.DetectNearbyPoints(sanFrancisco, []domain.HazardPoint{far, near, nearTwin}, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nearby) != 3 {
		t.Fatalf("expected 3 hazards, got %d", len(nearby))
	}
	if nearby[0].ID != "near" || nearby[1].ID != "near-twin" || nearby[2].ID != "far" {
		t.Errorf("wrong order: %s, %s, %s", nearby[0].ID, nearby[1].ID, nearby[2].ID)
	}
}

func TestHazardService_DetectNearbyPoints_SkipsInvalidPositions(t *testing.T) {
	svc := usecases.NewHazardService(nil, nil, nil, nil)

	hazards := []domain.HazardPoint{
		{ID: "bad", Position: domain.Coordinate{Lat: 999, Lng: 0}},
		{ID: "ok", Position: north(sanFrancisco, 0.001)},
	}

	nearby, err := svc.DetectNearbyPoints(sanFrancisco, hazards, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nearby) != 1 || nearby[0].ID != "ok" {
		t.Errorf("expected only the valid hazard, got %v", nearby)
	}
}

func TestHazardService_DetectNearbyPoints_MalformedTopLevelArguments(t *testing.T) {
	svc := usecases.NewHazardService(nil, nil, nil, nil)

	if _, err := svc.DetectNearbyPoints(domain.Coordinate{Lat: math.NaN(), Lng: 0}, nil, 500); !errors.Is(err, domain.ErrInvalidCoordinate) {
		t.Errorf("expected ErrInvalidCoordinate for bad position, got %v", err)
	}
	if _, err := svc.DetectNearbyPoints(sanFrancisco, nil, 0); err == nil {
		t.Error("expected error for non-positive radius")
	}
	if _, err := svc.DetectNearbyPoints(sanFrancisco, nil, -1); err == nil {
		t.Error("expected error for negative radius")
	}
}

func TestHazardService_DedupAlongRoute_FirstEncounterOrder(t *testing.T) {
	svc := usecases.NewHazardService(nil, nil, nil, nil)

	wp0 := sanFrancisco
	wp1 := north(sanFrancisco, 0.008)

	// Shared sits between the waypoints, within 500 m of both.
	shared := domain.HazardPoint{ID: "shared", Category: domain.CategoryAccident, Position: north(sanFrancisco, 0.004)}
	nearFirst := domain.HazardPoint{ID: "near-first", Category: domain.CategoryDebris, Position: north(sanFrancisco, 0.001)}
	nearSecond := domain.HazardPoint{ID: "near-second", Category: domain.CategoryClosure, Position: north(sanFrancisco, 0.0075)}

	route := domain.Route{Waypoints: []domain.Coordinate{wp0, wp1}, Kind: domain.RouteKindDirect}
	hazards := []domain.HazardPoint{nearSecond, shared, nearFirst}

	distinct := svc.DedupAlongRoute(hazards, route, usecases.DefaultDedupRadiusKm)
	if len(distinct) != 3 {
		t.Fatalf("expected 3 distinct hazards, got %d", len(distinct))
	}
	// Waypoint 0 sees shared and near-first (in input order), waypoint 1 adds near-second.
	if distinct[0].ID != "shared" || distinct[1].ID != "near-first" || distinct[2].ID != "near-second" {
		t.Errorf("wrong traversal order: %s, %s, %s", distinct[0].ID, distinct[1].ID, distinct[2].ID)
	}
}

func TestHazardService_DedupAlongRoute_EmitsSharedHazardOnce(t *testing.T) {
	svc := usecases.NewHazardService(nil, nil, nil, nil)

	wp0 := sanFrancisco
	wp1 := north(sanFrancisco, 0.002)
	shared := domain.HazardPoint{ID: "shared", Category: domain.CategoryRoadWorks, Position: north(sanFrancisco, 0.001)}

	route := domain.Route{Waypoints: []domain.Coordinate{wp0, wp1}}
	distinct := svc.DedupAlongRoute([]domain.HazardPoint{shared}, route, usecases.DefaultDedupRadiusKm)
	if len(distinct) != 1 {
		t.Errorf("hazard near both waypoints should be emitted once, got %d", len(distinct))
	}
}

func TestHazardService_MostSevere_FixedOrder(t *testing.T) {
	svc := usecases.NewHazardService(nil, nil, nil, nil)

	hazards := []domain.HazardPoint{
		{ID: "cam", Category: domain.CategorySpeedCamera},
		{ID: "deb", Category: domain.CategoryDebris},
		{ID: "clo", Category: domain.CategoryClosure},
		{ID: "acc", Category: domain.CategoryAccident},
		{ID: "wrk", Category: domain.CategoryRoadWorks},
	}

	// Severity order must hold regardless of input order.
	for shift := 0; shift < len(hazards); shift++ {
		rotated := append(append([]domain.HazardPoint{}, hazards[shift:]...), hazards[:shift]...)
		most := svc.MostSevere(rotated)
		if most == nil || most.Category != domain.CategoryClosure {
			t.Fatalf("shift %d: expected closure to win, got %v", shift, most)
		}
	}
}

func TestHazardService_MostSevere_TiesAndEmpty(t *testing.T) {
	svc := usecases.NewHazardService(nil, nil, nil, nil)

	if most := svc.MostSevere(nil); most != nil {
		t.Errorf("expected nil for empty input, got %v", most)
	}

	tied := []domain.HazardPoint{
		{ID: "first", Category: domain.CategoryAccident},
		{ID: "second", Category: domain.CategoryAccident},
	}
	most := svc.MostSevere(tied)
	if most == nil || most.ID != "first" {
		t.Errorf("expected first occurrence to win ties, got %v", most)
	}
}

func TestHazardService_MostSevere_UnknownCategoryRanksLowest(t *testing.T) {
	svc := usecases.NewHazardService(nil, nil, nil, nil)

	hazards := []domain.HazardPoint{
		{ID: "odd", Category: "fog"},
		{ID: "cam", Category: domain.CategorySpeedCamera},
	}
	most := svc.MostSevere(hazards)
	if most == nil || most.ID != "cam" {
		t.Errorf("known category should outrank unknown, got %v", most)
	}
}

func TestHazardService_FindNearby_AnnotatesRepoResults(t *testing.T) {
	repo := &mockHazardRepo{
		findNearbyFn: func(ctx context.Context, lat, lng, radius float64, limit int) ([]domain.HazardPoint, error) {
			return []domain.HazardPoint{
				{ID: "h1", Category: domain.CategoryDebris, Position: north(sanFrancisco, 0.0018)},
			}, nil
		},
	}

	svc := usecases.NewHazardService(repo, nil, nil, nil)

	nearby, err := svc.FindNearby(context.Background(), sanFrancisco.Lat, sanFrancisco.Lng, 500, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nearby) != 1 {
		t.Fatalf("expected 1 hazard, got %d", len(nearby))
	}
	if nearby[0].DistanceMeters == 0 {
		t.Error("expected a distance annotation")
	}
}

func TestHazardService_ScanRoute_DedupsAndSummarises(t *testing.T) {
	shared := domain.HazardPoint{ID: "shared", Category: domain.CategoryClosure, Position: north(sanFrancisco, 0.001)}
	repo := &mockHazardRepo{
		findNearbyFn: func(ctx context.Context, lat, lng, radius float64, limit int) ([]domain.HazardPoint, error) {
			return []domain.HazardPoint{shared}, nil
		},
	}

	svc := usecases.NewHazardService(repo, nil, nil, nil)

	route := domain.Route{Waypoints: []domain.Coordinate{sanFrancisco, north(sanFrancisco, 0.002)}}
	alert, err := svc.ScanRoute(context.Background(), route, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(alert.Hazards) != 1 {
		t.Fatalf("expected 1 distinct hazard, got %d", len(alert.Hazards))
	}
	if alert.MostSevere == nil || alert.MostSevere.ID != "shared" {
		t.Errorf("expected shared as most severe, got %v", alert.MostSevere)
	}
}
