package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/aldapa/trackside/internal/adapters/http"
	"github.com/aldapa/trackside/internal/core/domain"
	"github.com/aldapa/trackside/internal/core/usecases"
)

// ---- Mock repositories ----

type mockHazardRepo struct {
	findNearbyFn func(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.HazardPoint, error)
	getByIDFn    func(ctx context.Context, id string) (*domain.HazardPoint, error)
}

func (m *mockHazardRepo) Upsert(ctx context.Context, h *domain.HazardPoint) error { return nil }
func (m *mockHazardRepo) UpsertBatch(ctx context.Context, hazards []domain.HazardPoint) error {
	return nil
}
func (m *mockHazardRepo) GetByID(ctx context.Context, id string) (*domain.HazardPoint, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockHazardRepo) FindNearby(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.HazardPoint, error) {
	if m.findNearbyFn != nil {
		return m.findNearbyFn(ctx, lat, lng, radiusMeters, limit)
	}
	return nil, nil
}
func (m *mockHazardRepo) ListByCategory(ctx context.Context, category domain.Category, limit int) ([]domain.HazardPoint, error) {
	return nil, nil
}

type mockZoneRepo struct {
	listFn func(ctx context.Context) ([]domain.HazardZone, error)
}

func (m *mockZoneRepo) Upsert(ctx context.Context, z *domain.HazardZone) error { return nil }
func (m *mockZoneRepo) List(ctx context.Context) ([]domain.HazardZone, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

type mockLoopRepo struct {
	createFn  func(ctx context.Context, loop *domain.LoopSpec) error
	getByIDFn func(ctx context.Context, id string) (*domain.LoopSpec, error)
	listFn    func(ctx context.Context, city string, limit int) ([]domain.LoopSpec, error)
}

func (m *mockLoopRepo) Create(ctx context.Context, loop *domain.LoopSpec) error {
	if m.createFn != nil {
		return m.createFn(ctx, loop)
	}
	return nil
}
func (m *mockLoopRepo) GetByID(ctx context.Context, id string) (*domain.LoopSpec, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}
func (m *mockLoopRepo) List(ctx context.Context, city string, limit int) ([]domain.LoopSpec, error) {
	if m.listFn != nil {
		return m.listFn(ctx, city, limit)
	}
	return nil, nil
}

type fixedRand struct{ n int }

func (f fixedRand) Intn(int) int { return f.n }

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	d := &handler.Dependencies{
		Routes:  usecases.NewRouteService(fixedRand{0}),
		Hazards: usecases.NewHazardService(&mockHazardRepo{}, &mockZoneRepo{}, nil, nil),
		Loops:   usecases.NewLoopService(&mockLoopRepo{}),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func closedLoopBody() map[string]interface{} {
	return map[string]interface{}{
		"city":             "San Francisco",
		"min_length_miles": 1.0,
		"max_length_miles": 800.0,
		"track_type":       "technical",
		"series_focus":     "formula_one",
		"direction":        "clockwise",
		"waypoints": []map[string]interface{}{
			{"coordinate": map[string]float64{"lat": 37.7749, "lng": -122.4194}, "street_name": "Market St"},
			{"coordinate": map[string]float64{"lat": 37.7849, "lng": -122.4094}, "street_name": "Mission St"},
			{"coordinate": map[string]float64{"lat": 37.7649, "lng": -122.4294}, "street_name": "Howard St"},
			{"coordinate": map[string]float64{"lat": 37.7749, "lng": -122.4194}, "street_name": "Market St"},
		},
	}
}

// ---- Route handler tests ----

func TestDirectRoute_Success(t *testing.T) {
	app := setupApp(makeDeps())

	body, _ := json.Marshal(map[string]interface{}{
		"origin":      map[string]float64{"lat": 37.7749, "lng": -122.4194},
		"destination": map[string]float64{"lat": 34.0522, "lng": -118.2437},
	})
	req := httptest.NewRequest("POST", "/v1/routes/direct", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var route domain.Route
	if err := json.NewDecoder(resp.Body).Decode(&route); err != nil {
		t.Fatal(err)
	}
	if route.Kind != domain.RouteKindDirect {
		t.Errorf("expected direct route, got %s", route.Kind)
	}
	if len(route.Waypoints) != 2 {
		t.Errorf("expected 2 waypoints, got %d", len(route.Waypoints))
	}
}

func TestDirectRoute_InvalidCoordinate(t *testing.T) {
	app := setupApp(makeDeps())

	body, _ := json.Marshal(map[string]interface{}{
		"origin":      map[string]float64{"lat": 91.0, "lng": 0},
		"destination": map[string]float64{"lat": 34.0522, "lng": -118.2437},
	})
	req := httptest.NewRequest("POST", "/v1/routes/direct", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")

	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var apiErr struct {
		Code string `json:"code"`
	}
	json.NewDecoder(resp.Body).Decode(&apiErr)
	if apiErr.Code != "bad_request" {
		t.Errorf("expected bad_request error, got %s", apiErr.Code)
	}
}

func TestRandomizedRoute_PicksFromPool(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Routes = usecases.NewRouteService(fixedRand{1})
	})
	app := setupApp(deps)

	body, _ := json.Marshal(map[string]interface{}{
		"origin":      map[string]float64{"lat": 37.7749, "lng": -122.4194},
		"destination": map[string]float64{"lat": 34.0522, "lng": -118.2437},
		"pool": []map[string]float64{
			{"lat": 36.0, "lng": -120.0},
			{"lat": 35.5, "lng": -119.5},
		},
	})
	req := httptest.NewRequest("POST", "/v1/routes/randomized", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")

	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var route domain.Route
	json.NewDecoder(resp.Body).Decode(&route)
	if route.Kind != domain.RouteKindRandomized {
		t.Errorf("expected randomized route, got %s", route.Kind)
	}
	if len(route.Waypoints) != 3 {
		t.Fatalf("expected 3 waypoints, got %d", len(route.Waypoints))
	}
	if route.Waypoints[1].Lat != 35.5 {
		t.Errorf("expected pool[1] as via point, got %v", route.Waypoints[1])
	}
}

func TestRouteDistance_Success(t *testing.T) {
	app := setupApp(makeDeps())

	body, _ := json.Marshal(map[string]interface{}{
		"waypoints": []map[string]float64{
			{"lat": 37.7749, "lng": -122.4194},
			{"lat": 34.0522, "lng": -118.2437},
		},
	})
	req := httptest.NewRequest("POST", "/v1/routes/distance", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")

	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		DistanceKm    float64 `json:"distance_km"`
		DistanceMiles float64 `json:"distance_miles"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.DistanceKm < 540 || result.DistanceKm > 580 {
		t.Errorf("SF-LA distance out of range: %v km", result.DistanceKm)
	}
	if result.DistanceMiles >= result.DistanceKm {
		t.Errorf("miles (%v) should be less than km (%v)", result.DistanceMiles, result.DistanceKm)
	}
}

func TestScanRoute_ReturnsAlert(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Hazards = usecases.NewHazardService(&mockHazardRepo{
			findNearbyFn: func(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.HazardPoint, error) {
				return []domain.HazardPoint{
					{ID: "h1", Category: domain.CategoryAccident, Position: domain.Coordinate{Lat: lat, Lng: lng}},
				}, nil
			},
		}, &mockZoneRepo{}, nil, nil)
	})
	app := setupApp(deps)

	body, _ := json.Marshal(map[string]interface{}{
		"route": map[string]interface{}{
			"origin":      map[string]float64{"lat": 37.7749, "lng": -122.4194},
			"destination": map[string]float64{"lat": 37.7849, "lng": -122.4094},
			"waypoints": []map[string]float64{
				{"lat": 37.7749, "lng": -122.4194},
				{"lat": 37.7849, "lng": -122.4094},
			},
			"kind": "direct",
		},
		"radius_km": 0.5,
	})
	req := httptest.NewRequest("POST", "/v1/routes/scan", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")

	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var alert domain.RouteAlert
	json.NewDecoder(resp.Body).Decode(&alert)
	if alert.MostSevere == nil {
		t.Fatal("expected a most severe hazard")
	}
	if alert.MostSevere.Category != domain.CategoryAccident {
		t.Errorf("expected accident, got %s", alert.MostSevere.Category)
	}
}

// ---- Hazard handler tests ----

func TestNearbyHazards_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Hazards = usecases.NewHazardService(&mockHazardRepo{
			findNearbyFn: func(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.HazardPoint, error) {
				return []domain.HazardPoint{
					{ID: "h1", Category: domain.CategoryDebris, Position: domain.Coordinate{Lat: lat, Lng: lng}},
				}, nil
			},
		}, &mockZoneRepo{}, nil, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/hazards/nearby?lat=37.7749&lng=-122.4194&radius=500", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var hazards []domain.NearbyHazard
	json.NewDecoder(resp.Body).Decode(&hazards)
	if len(hazards) != 1 {
		t.Errorf("expected 1 hazard, got %d", len(hazards))
	}
}

func TestNearbyHazards_InvalidCoordinate(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/hazards/nearby?lat=91&lng=0", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestNearbyHazards_BadRadius(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/hazards/nearby?lat=37.77&lng=-122.41&radius=100000", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetHazard_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Hazards = usecases.NewHazardService(&mockHazardRepo{
			getByIDFn: func(ctx context.Context, id string) (*domain.HazardPoint, error) {
				return &domain.HazardPoint{ID: id, Category: domain.CategoryClosure}, nil
			},
		}, &mockZoneRepo{}, nil, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/hazards/abc-123", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var h domain.HazardPoint
	json.NewDecoder(resp.Body).Decode(&h)
	if h.Category != domain.CategoryClosure {
		t.Errorf("expected closure, got %s", h.Category)
	}
}

func TestGetHazard_NotFound(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Hazards = usecases.NewHazardService(&mockHazardRepo{
			getByIDFn: func(ctx context.Context, id string) (*domain.HazardPoint, error) {
				return nil, fmt.Errorf("not found")
			},
		}, &mockZoneRepo{}, nil, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/hazards/bad-id", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

// ---- Zone handler tests ----

func TestListZones_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Hazards = usecases.NewHazardService(&mockHazardRepo{}, &mockZoneRepo{
			listFn: func(ctx context.Context) ([]domain.HazardZone, error) {
				return []domain.HazardZone{
					{Centre: domain.Coordinate{Lat: 37.77, Lng: -122.41}, RadiusKm: 2, Category: domain.CategoryRoadWorks},
				}, nil
			},
		}, nil, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/zones", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var zones []domain.HazardZone
	json.NewDecoder(resp.Body).Decode(&zones)
	if len(zones) != 1 {
		t.Errorf("expected 1 zone, got %d", len(zones))
	}
}

func TestDetectZones_ContainingPosition(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Hazards = usecases.NewHazardService(&mockHazardRepo{}, &mockZoneRepo{
			listFn: func(ctx context.Context) ([]domain.HazardZone, error) {
				return []domain.HazardZone{
					{Centre: domain.Coordinate{Lat: 37.7749, Lng: -122.4194}, RadiusKm: 5, Category: domain.CategoryClosure},
					{Centre: domain.Coordinate{Lat: 34.0522, Lng: -118.2437}, RadiusKm: 1, Category: domain.CategoryDebris},
				}, nil
			},
		}, nil, nil)
	})
	app := setupApp(deps)

	body, _ := json.Marshal(map[string]interface{}{
		"position": map[string]float64{"lat": 37.7749, "lng": -122.4194},
	})
	req := httptest.NewRequest("POST", "/v1/zones/detect", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")

	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Count int `json:"count"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Count != 1 {
		t.Errorf("expected 1 containing zone, got %d", result.Count)
	}
}

func TestNearestZone_NoZones(t *testing.T) {
	app := setupApp(makeDeps())

	body, _ := json.Marshal(map[string]interface{}{
		"position": map[string]float64{"lat": 37.7749, "lng": -122.4194},
	})
	req := httptest.NewRequest("POST", "/v1/zones/nearest", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")

	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404 when no zones configured, got %d", resp.StatusCode)
	}
}

func TestNearestZone_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Hazards = usecases.NewHazardService(&mockHazardRepo{}, &mockZoneRepo{
			listFn: func(ctx context.Context) ([]domain.HazardZone, error) {
				return []domain.HazardZone{
					{Centre: domain.Coordinate{Lat: 34.0522, Lng: -118.2437}, RadiusKm: 1, Category: domain.CategoryDebris},
					{Centre: domain.Coordinate{Lat: 37.78, Lng: -122.42}, RadiusKm: 1, Category: domain.CategoryClosure},
				}, nil
			},
		}, nil, nil)
	})
	app := setupApp(deps)

	body, _ := json.Marshal(map[string]interface{}{
		"position": map[string]float64{"lat": 37.7749, "lng": -122.4194},
	})
	req := httptest.NewRequest("POST", "/v1/zones/nearest", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")

	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var nearest domain.ZoneDistance
	json.NewDecoder(resp.Body).Decode(&nearest)
	if nearest.Zone.Category != domain.CategoryClosure {
		t.Errorf("expected the SF zone to win, got %s", nearest.Zone.Category)
	}
}

// ---- Loop handler tests ----

func TestCreateLoop_Success(t *testing.T) {
	created := false
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Loops = usecases.NewLoopService(&mockLoopRepo{
			createFn: func(ctx context.Context, loop *domain.LoopSpec) error {
				created = true
				loop.ID = "loop-1"
				return nil
			},
		})
	})
	app := setupApp(deps)

	body, _ := json.Marshal(closedLoopBody())
	req := httptest.NewRequest("POST", "/v1/loops", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")

	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if !created {
		t.Error("expected repository Create to be called")
	}

	var loop domain.LoopSpec
	json.NewDecoder(resp.Body).Decode(&loop)
	if !loop.IsClosed {
		t.Error("expected loop to be closed")
	}
	if loop.ID != "loop-1" {
		t.Errorf("expected generated ID, got %q", loop.ID)
	}
}

func TestCreateLoop_InvalidParams(t *testing.T) {
	app := setupApp(makeDeps())

	invalid := closedLoopBody()
	invalid["city"] = "   "
	body, _ := json.Marshal(invalid)
	req := httptest.NewRequest("POST", "/v1/loops", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")

	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestValidateLoop_Open(t *testing.T) {
	app := setupApp(makeDeps())

	open := closedLoopBody()
	open["waypoints"] = []map[string]interface{}{
		{"coordinate": map[string]float64{"lat": 37.7749, "lng": -122.4194}},
		{"coordinate": map[string]float64{"lat": 37.7849, "lng": -122.4094}},
		{"coordinate": map[string]float64{"lat": 37.7649, "lng": -122.4294}},
	}
	body, _ := json.Marshal(open)
	req := httptest.NewRequest("POST", "/v1/loops/validate", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")

	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result domain.LoopValidation
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Valid {
		t.Error("expected open loop to be invalid")
	}
}

func TestPartitionSectors_Success(t *testing.T) {
	app := setupApp(makeDeps())

	body, _ := json.Marshal(map[string]interface{}{
		"loop":    closedLoopBody(),
		"sectors": 2,
	})
	req := httptest.NewRequest("POST", "/v1/loops/sectors", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")

	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Count int `json:"count"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Count != 2 {
		t.Errorf("expected 2 sectors, got %d", result.Count)
	}
}

func TestPartitionSectors_TooMany(t *testing.T) {
	app := setupApp(makeDeps())

	body, _ := json.Marshal(map[string]interface{}{
		"loop":    closedLoopBody(),
		"sectors": 99,
	})
	req := httptest.NewRequest("POST", "/v1/loops/sectors", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")

	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetLoop_NotFound(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Loops = usecases.NewLoopService(&mockLoopRepo{
			getByIDFn: func(ctx context.Context, id string) (*domain.LoopSpec, error) {
				return nil, fmt.Errorf("not found")
			},
		})
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/loops/bad-id", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestListLoops_Pagination(t *testing.T) {
	loops := make([]domain.LoopSpec, 5)
	for i := range loops {
		loops[i] = domain.LoopSpec{ID: fmt.Sprintf("l%d", i), City: "Monaco"}
	}

	deps := makeDeps(func(d *handler.Dependencies) {
		d.Loops = usecases.NewLoopService(&mockLoopRepo{
			listFn: func(ctx context.Context, city string, limit int) ([]domain.LoopSpec, error) {
				return loops, nil
			},
		})
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/loops?offset=0&limit=3", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []domain.LoopSpec `json:"data"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Pagination.Total != 5 {
		t.Errorf("expected total 5, got %d", result.Pagination.Total)
	}
	if len(result.Data) != 3 {
		t.Errorf("expected 3 loops in page, got %d", len(result.Data))
	}

	link := resp.Header.Get("Link")
	if !strings.Contains(link, `rel="next"`) {
		t.Errorf("expected next link, got %s", link)
	}
}

// ---- Health handler tests ----

func TestHealth_Returns200(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if result["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", result["status"])
	}
}

func TestReady_NoDB(t *testing.T) {
	// DB, NATS, Cache are nil, should report not ready
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/ready", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

// ---- Middleware tests ----

func TestAPIVersionHeader(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	v := resp.Header.Get("X-API-Version")
	if v != "1.0.0" {
		t.Errorf("expected X-API-Version 1.0.0, got %q", v)
	}
}

func TestNearbyHazards_CacheControlHeader(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/hazards/nearby?lat=37.77&lng=-122.41", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	cc := resp.Header.Get("Cache-Control")
	if cc != "public, max-age=60" {
		t.Errorf("expected Cache-Control header, got %q", cc)
	}
}

// TestAccessLogMiddleware verifies structured access logging is emitted.
func TestAccessLogMiddleware(t *testing.T) {
	app := fiber.New()

	app.Use(handler.AccessLogMiddleware())

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "test-req-123")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "ok") {
		t.Errorf("expected response body to contain 'ok', got %s", string(body))
	}
}
