package domain

import "time"

// TrackType characterises the driving style a loop is laid out for.
type TrackType string

const (
	TrackTypeTechnical      TrackType = "technical"
	TrackTypeFlow           TrackType = "flow"
	TrackTypeStopStart      TrackType = "stop_start"
	TrackTypeMixed          TrackType = "mixed"
	TrackTypeStreetCarFocus TrackType = "street_car_focused"
)

// Valid reports whether t is a member of the closed track-type set.
func (t TrackType) Valid() bool {
	switch t {
	case TrackTypeTechnical, TrackTypeFlow, TrackTypeStopStart, TrackTypeMixed, TrackTypeStreetCarFocus:
		return true
	}
	return false
}

// SeriesFocus names the racing series a loop is styled after.
type SeriesFocus string

const (
	SeriesFocusFormulaOne SeriesFocus = "formula_one"
	SeriesFocusMotoGP     SeriesFocus = "motogp"
	SeriesFocusMixed      SeriesFocus = "mixed"
)

// Valid reports whether s is a member of the closed series-focus set.
func (s SeriesFocus) Valid() bool {
	switch s {
	case SeriesFocusFormulaOne, SeriesFocusMotoGP, SeriesFocusMixed:
		return true
	}
	return false
}

// Direction is the travel direction around a loop.
type Direction string

const (
	DirectionClockwise        Direction = "clockwise"
	DirectionCounterClockwise Direction = "counter_clockwise"
)

// Valid reports whether d is a member of the closed direction set.
func (d Direction) Valid() bool {
	return d == DirectionClockwise || d == DirectionCounterClockwise
}

// LoopWaypoint is a loop vertex, optionally annotated with the street it
// sits on. Street names drive the consecutive-duplicate validation.
type LoopWaypoint struct {
	Coordinate Coordinate `json:"coordinate"`
	StreetName string     `json:"street_name,omitempty"`
}

// LoopSpec describes a closed street circuit. Built once through the
// validating factory; immutable thereafter.
//
// IsClosed is derived by exact equality of the first and last waypoint
// coordinates. Near-identical coordinates recorded with different precision
// therefore read as open; no tolerance is applied.
type LoopSpec struct {
	ID             string         `json:"id,omitempty"`
	City           string         `json:"city"`
	MinLengthMiles float64        `json:"min_length_miles"`
	MaxLengthMiles float64        `json:"max_length_miles"`
	TrackType      TrackType      `json:"track_type"`
	SeriesFocus    SeriesFocus    `json:"series_focus"`
	Direction      Direction      `json:"direction"`
	Waypoints      []LoopWaypoint `json:"waypoints"`
	IsClosed       bool           `json:"is_closed"`
	CreatedAt      time.Time      `json:"created_at,omitempty"`
}

// Sector is a contiguous subsequence of a loop's waypoints used for
// segmented narration. Index is 1-based.
type Sector struct {
	Index     int            `json:"index"`
	Waypoints []LoopWaypoint `json:"waypoints"`
}

// LoopValidation reports the outcome of validating a loop. Errors
// accumulates; it is never nil alongside Valid == false.
type LoopValidation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}
