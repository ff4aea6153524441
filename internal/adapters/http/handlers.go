package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/aldapa/trackside/internal/core/domain"
	"github.com/aldapa/trackside/internal/core/usecases"
	"github.com/aldapa/trackside/internal/pkg/geospatial"
	"github.com/aldapa/trackside/internal/pkg/metrics"
)

// routeRequest is the body for route generation endpoints.
type routeRequest struct {
	Origin      domain.Coordinate   `json:"origin"`
	Destination domain.Coordinate   `json:"destination"`
	Pool        []domain.Coordinate `json:"pool,omitempty"`
}

// DirectRouteHandler builds a two-waypoint route between origin and destination.
func DirectRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req routeRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body: "+err.Error())
		}

		route, err := deps.Routes.GenerateDirect(req.Origin, req.Destination)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(route)
	}
}

// RandomizedRouteHandler builds a route with a via point picked from a candidate pool.
func RandomizedRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req routeRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body: "+err.Error())
		}

		route, err := deps.Routes.GenerateRandomized(req.Origin, req.Destination, req.Pool)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(route)
	}
}

// RouteDistanceHandler sums great-circle distances along a waypoint sequence.
func RouteDistanceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Waypoints []domain.Coordinate `json:"waypoints"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body: "+err.Error())
		}

		km := deps.Routes.RouteDistanceKm(domain.Route{Waypoints: req.Waypoints})
		return c.JSON(fiber.Map{
			"distance_km":    km,
			"distance_miles": geospatial.KmToMiles(km),
		})
	}
}

// ScanRouteHandler scans a route's waypoints for nearby hazards and returns
// a deduplicated alert summary.
func ScanRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Route    domain.Route `json:"route"`
			RadiusKm float64      `json:"radius_km"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body: "+err.Error())
		}
		if req.RadiusKm <= 0 {
			req.RadiusKm = usecases.DefaultDedupRadiusKm
		}

		alert, err := deps.Hazards.ScanRoute(c.Context(), req.Route, req.RadiusKm)
		if err != nil {
			metrics.RouteScans.WithLabelValues("error").Inc()
			return errInternal(c, err.Error())
		}

		outcome := "clean"
		if len(alert.Hazards) > 0 {
			outcome = "hazards"
		}
		metrics.RouteScans.WithLabelValues(outcome).Inc()
		return c.JSON(alert)
	}
}

// NearbyHazardsHandler returns hazard points within a radius of a position.
func NearbyHazardsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat := c.QueryFloat("lat", 0)
		lng := c.QueryFloat("lng", 0)
		radius := c.QueryFloat("radius", usecases.DefaultNearbyRadiusMeters)
		limit := c.QueryInt("limit", 50)

		centre := domain.Coordinate{Lat: lat, Lng: lng}
		if !centre.Valid() {
			return errBadRequest(c, "lat and lng must form a valid coordinate")
		}
		if radius <= 0 || radius > 50000 {
			return errBadRequest(c, "radius must be between 1 and 50000 meters")
		}
		if limit <= 0 || limit > 200 {
			limit = 50
		}

		hazards, err := deps.Hazards.FindNearby(c.Context(), centre.Lat, centre.Lng, radius, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(hazards)
	}
}

// GetHazardHandler returns a single hazard point by ID.
func GetHazardHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "hazard id is required")
		}
		hazard, err := deps.Hazards.GetByID(c.Context(), id)
		if err != nil {
			return errNotFound(c, "hazard not found")
		}
		return c.JSON(hazard)
	}
}

// ListZonesHandler returns the configured hazard zones.
func ListZonesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		zones, err := deps.Hazards.ListZones(c.Context())
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(zones)
	}
}

// DetectZonesHandler returns every stored zone containing the given position.
func DetectZonesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Position domain.Coordinate `json:"position"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body: "+err.Error())
		}
		if !req.Position.Valid() {
			return errBadRequest(c, "position must be a valid coordinate")
		}

		zones, err := deps.Hazards.ListZones(c.Context())
		if err != nil {
			return errInternal(c, err.Error())
		}

		hits := deps.Hazards.DetectZones(req.Position, zones)
		return c.JSON(fiber.Map{
			"zones": hits,
			"count": len(hits),
		})
	}
}

// NearestZoneHandler returns the stored zone whose centre is closest to the position.
func NearestZoneHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Position domain.Coordinate `json:"position"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body: "+err.Error())
		}
		if !req.Position.Valid() {
			return errBadRequest(c, "position must be a valid coordinate")
		}

		zones, err := deps.Hazards.ListZones(c.Context())
		if err != nil {
			return errInternal(c, err.Error())
		}

		nearest := deps.Hazards.NearestZone(req.Position, zones)
		if nearest == nil {
			return errNotFound(c, "no zones configured")
		}
		return c.JSON(nearest)
	}
}

// CreateLoopHandler validates loop parameters, builds the loop, and persists it.
func CreateLoopHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var params usecases.LoopParams
		if err := c.BodyParser(&params); err != nil {
			return errBadRequest(c, "invalid JSON body: "+err.Error())
		}

		loop, err := deps.Loops.CreateLoop(c.Context(), params)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		metrics.LoopsBuilt.WithLabelValues(loop.City).Inc()
		LoggerFromCtx(c.UserContext()).Info("loop created",
			"id", loop.ID, "city", loop.City, "closed", loop.IsClosed)
		return c.Status(fiber.StatusCreated).JSON(loop)
	}
}

// ValidateLoopHandler runs structural checks on a loop without storing it.
func ValidateLoopHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var loop domain.LoopSpec
		if err := c.BodyParser(&loop); err != nil {
			return errBadRequest(c, "invalid JSON body: "+err.Error())
		}
		return c.JSON(deps.Loops.ValidateLoop(&loop))
	}
}

// PartitionSectorsHandler splits a loop's waypoints into timing sectors.
func PartitionSectorsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Loop    domain.LoopSpec `json:"loop"`
			Sectors int             `json:"sectors"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body: "+err.Error())
		}
		if req.Sectors == 0 {
			req.Sectors = usecases.DefaultSectorCount
		}

		sectors, err := deps.Loops.PartitionSectors(req.Loop, req.Sectors)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(fiber.Map{
			"sectors": sectors,
			"count":   len(sectors),
		})
	}
}

// LoopLengthCheckHandler reports a loop's length and whether it sits inside
// the loop's own target band.
func LoopLengthCheckHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var loop domain.LoopSpec
		if err := c.BodyParser(&loop); err != nil {
			return errBadRequest(c, "invalid JSON body: "+err.Error())
		}

		miles := deps.Loops.LoopLengthMiles(&loop)
		return c.JSON(fiber.Map{
			"length_miles":  miles,
			"within_target": deps.Loops.IsWithinTargetLength(&loop),
		})
	}
}

// GetLoopHandler returns a stored loop by ID.
func GetLoopHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "loop id is required")
		}
		loop, err := deps.Loops.GetLoop(c.Context(), id)
		if err != nil {
			return errNotFound(c, "loop not found")
		}
		return c.JSON(loop)
	}
}

// ListLoopsHandler lists stored loops, optionally filtered by city.
func ListLoopsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		city := c.Query("city")
		limit := c.QueryInt("limit", 100)
		if limit <= 0 || limit > 500 {
			limit = 100
		}

		loops, err := deps.Loops.ListLoops(c.Context(), city, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}

		offset := c.QueryInt("offset", 0)
		if offset < 0 {
			offset = 0
		}

		total := len(loops)
		if offset >= total {
			loops = nil
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			loops = loops[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: loops, Pagination: pg})
	}
}
