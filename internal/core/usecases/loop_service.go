package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/aldapa/trackside/internal/core/domain"
	"github.com/aldapa/trackside/internal/core/ports"
	"github.com/aldapa/trackside/internal/pkg/geospatial"
)

// DefaultSectorCount is the sector count applied when a caller does not
// specify one.
const DefaultSectorCount = 3

// LoopParams is the input to the loop factory.
type LoopParams struct {
	City           string                `json:"city"`
	MinLengthMiles float64               `json:"min_length_miles"`
	MaxLengthMiles float64               `json:"max_length_miles"`
	TrackType      domain.TrackType      `json:"track_type"`
	SeriesFocus    domain.SeriesFocus    `json:"series_focus"`
	Direction      domain.Direction      `json:"direction"`
	Waypoints      []domain.LoopWaypoint `json:"waypoints"`
}

// LoopService builds, validates, and partitions closed street circuits.
// The computation methods are pure; the repository is only used by the
// persistence wrappers and may be nil.
type LoopService struct {
	loops ports.LoopRepository
}

// NewLoopService creates a new LoopService.
func NewLoopService(loops ports.LoopRepository) *LoopService {
	return &LoopService{loops: loops}
}

// BuildLoop validates params and assembles an immutable LoopSpec. Checks run
// in a fixed order and the first failure short-circuits the rest, wrapping
// ErrInvalidLoopParameter with the offending field.
//
// IsClosed is derived by exact coordinate equality of the first and last
// waypoint; coordinates recorded at different precision read as open.
func (s *LoopService) BuildLoop(params LoopParams) (domain.LoopSpec, error) {
	city := strings.TrimSpace(params.City)
	if city == "" {
		return domain.LoopSpec{}, fmt.Errorf("%w: city must not be empty", domain.ErrInvalidLoopParameter)
	}
	if params.MinLengthMiles >= params.MaxLengthMiles {
		return domain.LoopSpec{}, fmt.Errorf("%w: minLengthMiles (%v) must be less than maxLengthMiles (%v)",
			domain.ErrInvalidLoopParameter, params.MinLengthMiles, params.MaxLengthMiles)
	}
	if !params.TrackType.Valid() {
		return domain.LoopSpec{}, fmt.Errorf("%w: trackType %q is not recognised", domain.ErrInvalidLoopParameter, params.TrackType)
	}
	if !params.SeriesFocus.Valid() {
		return domain.LoopSpec{}, fmt.Errorf("%w: seriesFocus %q is not recognised", domain.ErrInvalidLoopParameter, params.SeriesFocus)
	}
	if !params.Direction.Valid() {
		return domain.LoopSpec{}, fmt.Errorf("%w: direction %q is not recognised", domain.ErrInvalidLoopParameter, params.Direction)
	}
	if len(params.Waypoints) < 3 {
		return domain.LoopSpec{}, fmt.Errorf("%w: waypoints must contain at least 3 entries, got %d",
			domain.ErrInvalidLoopParameter, len(params.Waypoints))
	}

	first := params.Waypoints[0].Coordinate
	last := params.Waypoints[len(params.Waypoints)-1].Coordinate

	return domain.LoopSpec{
		City:           city,
		MinLengthMiles: params.MinLengthMiles,
		MaxLengthMiles: params.MaxLengthMiles,
		TrackType:      params.TrackType,
		SeriesFocus:    params.SeriesFocus,
		Direction:      params.Direction,
		Waypoints:      params.Waypoints,
		IsClosed:       first == last,
	}, nil
}

// ValidateLoop reports closure and street-name problems without raising.
// Among waypoints that carry a street name, two consecutive named waypoints
// sharing the same name are flagged; unnamed waypoints are skipped when
// judging adjacency.
func (s *LoopService) ValidateLoop(loop *domain.LoopSpec) domain.LoopValidation {
	if loop == nil {
		return domain.LoopValidation{Valid: false, Errors: []string{"loop is nil"}}
	}
	if len(loop.Waypoints) == 0 {
		return domain.LoopValidation{Valid: false, Errors: []string{"loop has no waypoints"}}
	}

	var errs []string

	first := loop.Waypoints[0].Coordinate
	last := loop.Waypoints[len(loop.Waypoints)-1].Coordinate
	if first != last {
		errs = append(errs, "loop is not closed: first and last waypoint coordinates differ")
	}

	prevNamed := ""
	for _, wp := range loop.Waypoints {
		if wp.StreetName == "" {
			continue
		}
		if wp.StreetName == prevNamed {
			errs = append(errs, fmt.Sprintf("consecutive waypoints share street name %q", wp.StreetName))
		}
		prevNamed = wp.StreetName
	}

	return domain.LoopValidation{Valid: len(errs) == 0, Errors: errs}
}

// PartitionSectors splits the loop's waypoints into numSectors contiguous
// sectors. Every sector except the last shares one boundary waypoint with
// its successor, so sequential narration never skips a transition point.
// The final sector absorbs the remainder.
func (s *LoopService) PartitionSectors(loop domain.LoopSpec, numSectors int) ([]domain.Sector, error) {
	n := len(loop.Waypoints)
	if numSectors < 1 {
		return nil, fmt.Errorf("%w: numSectors must be at least 1, got %d", domain.ErrInvalidPartition, numSectors)
	}
	if numSectors > n {
		return nil, fmt.Errorf("%w: numSectors (%d) exceeds waypoint count (%d)", domain.ErrInvalidPartition, numSectors, n)
	}

	perSector := n / numSectors
	sectors := make([]domain.Sector, 0, numSectors)
	for i := 0; i < numSectors; i++ {
		start := i * perSector
		end := start + perSector + 1
		if i == numSectors-1 {
			end = n
		}
		sectors = append(sectors, domain.Sector{
			Index:     i + 1,
			Waypoints: loop.Waypoints[start:end],
		})
	}
	return sectors, nil
}

// LoopLengthMiles returns the total great-circle length of the loop in
// statute miles, or 0 for a nil loop or fewer than two waypoints.
func (s *LoopService) LoopLengthMiles(loop *domain.LoopSpec) float64 {
	if loop == nil || len(loop.Waypoints) < 2 {
		return 0
	}

	var totalKm float64
	for i := 1; i < len(loop.Waypoints); i++ {
		a := loop.Waypoints[i-1].Coordinate
		b := loop.Waypoints[i].Coordinate
		totalKm += geospatial.DistanceKm(a.Lat, a.Lng, b.Lat, b.Lng)
	}
	return geospatial.KmToMiles(totalKm)
}

// IsWithinTargetLength reports whether the loop's total length lies within
// [MinLengthMiles, MaxLengthMiles] inclusive. Returns false, never an
// error, for a nil loop or fewer than two waypoints.
func (s *LoopService) IsWithinTargetLength(loop *domain.LoopSpec) bool {
	if loop == nil || len(loop.Waypoints) < 2 {
		return false
	}
	miles := s.LoopLengthMiles(loop)
	return miles >= loop.MinLengthMiles && miles <= loop.MaxLengthMiles
}

// CreateLoop builds a loop from params and persists it.
func (s *LoopService) CreateLoop(ctx context.Context, params LoopParams) (domain.LoopSpec, error) {
	loop, err := s.BuildLoop(params)
	if err != nil {
		return domain.LoopSpec{}, err
	}
	if s.loops != nil {
		if err := s.loops.Create(ctx, &loop); err != nil {
			return domain.LoopSpec{}, fmt.Errorf("store loop: %w", err)
		}
	}
	return loop, nil
}

// GetLoop returns a stored loop by ID.
func (s *LoopService) GetLoop(ctx context.Context, id string) (*domain.LoopSpec, error) {
	return s.loops.GetByID(ctx, id)
}

// ListLoops returns stored loops, optionally filtered by city.
func (s *LoopService) ListLoops(ctx context.Context, city string, limit int) ([]domain.LoopSpec, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.loops.List(ctx, city, limit)
}
