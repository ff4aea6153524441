package domain

import "math"

// Coordinate represents a geographic coordinate (WGS 84).
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate carries finite values inside the
// WGS 84 legal ranges: latitude in [-90, 90], longitude in [-180, 180].
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) {
		return false
	}
	if math.IsNaN(c.Lng) || math.IsInf(c.Lng, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// RouteKind distinguishes how a route's waypoints were produced.
type RouteKind string

const (
	RouteKindDirect     RouteKind = "direct"
	RouteKindRandomized RouteKind = "randomized"
)

// Route is an ordered sequence of waypoints between two endpoints.
// Routes are built once by the route generator and never mutated; a new
// route is produced instead of editing one in place.
type Route struct {
	Origin      Coordinate   `json:"origin"`
	Destination Coordinate   `json:"destination"`
	Waypoints   []Coordinate `json:"waypoints"`
	Kind        RouteKind    `json:"kind"`
}
