package domain

import "time"

// Category classifies a road hazard. The set is closed; feeds carrying an
// unknown category still parse, but rank below every known category.
type Category string

const (
	CategoryClosure     Category = "closure"
	CategoryAccident    Category = "accident"
	CategoryRoadWorks   Category = "road_works"
	CategoryDebris      Category = "debris"
	CategorySpeedCamera Category = "speed_camera"
)

// SeverityRank returns the fixed severity order used to pick the single
// most important hazard from a detected set. Higher is more severe;
// unknown categories rank 0.
func (c Category) SeverityRank() int {
	switch c {
	case CategoryClosure:
		return 5
	case CategoryAccident:
		return 4
	case CategoryRoadWorks:
		return 3
	case CategoryDebris:
		return 2
	case CategorySpeedCamera:
		return 1
	default:
		return 0
	}
}

// HazardZone is a circular geofenced region tagged with a hazard category.
// Zones are supplied by callers and read-only to the core.
type HazardZone struct {
	Centre   Coordinate `json:"centre"`
	RadiusKm float64    `json:"radius_km"`
	Category Category   `json:"category"`
}

// HazardPoint is a discrete point-located hazard record.
type HazardPoint struct {
	ID          string     `json:"id"`
	Category    Category   `json:"category"`
	Position    Coordinate `json:"position"`
	Description string     `json:"description,omitempty"`
}

// NearbyHazard is a hazard point annotated with its distance from a query
// position, rounded to the nearest metre.
type NearbyHazard struct {
	HazardPoint
	DistanceMeters int `json:"distance_meters"`
}

// ZoneDistance pairs a hazard zone with the distance to its centre.
type ZoneDistance struct {
	Zone       HazardZone `json:"zone"`
	DistanceKm float64    `json:"distance_km"`
}

// RouteAlert summarises the distinct hazards detected along a route.
type RouteAlert struct {
	Route      Route         `json:"route"`
	Hazards    []HazardPoint `json:"hazards"`
	MostSevere *HazardPoint  `json:"most_severe,omitempty"`
	ScannedAt  time.Time     `json:"scanned_at"`
}
