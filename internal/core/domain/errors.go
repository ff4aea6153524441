package domain

import "errors"

// Constructor-boundary errors. Query and detection operations degrade
// gracefully instead of returning these; only constructors fail fast.
var (
	// ErrInvalidCoordinate marks a non-finite or out-of-range lat/lng at a
	// route-construction boundary.
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrInvalidLoopParameter marks a bad city, length bound, enum value,
	// or waypoint count at loop construction.
	ErrInvalidLoopParameter = errors.New("invalid loop parameter")

	// ErrInvalidPartition marks a sector count outside [1, waypoint count].
	ErrInvalidPartition = errors.New("invalid partition request")
)
