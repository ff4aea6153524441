package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aldapa/trackside/internal/core/domain"
)

// LoopRepo implements ports.LoopRepository with pgx. Waypoints are stored
// as a JSONB column; the loop itself is immutable once created.
type LoopRepo struct {
	db *DB
}

// NewLoopRepo creates a new LoopRepo.
func NewLoopRepo(db *DB) *LoopRepo {
	return &LoopRepo{db: db}
}

// Create stores a loop and fills in its generated ID and creation time.
func (r *LoopRepo) Create(ctx context.Context, loop *domain.LoopSpec) error {
	waypoints, err := json.Marshal(loop.Waypoints)
	if err != nil {
		return fmt.Errorf("marshal waypoints: %w", err)
	}

	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO loops (city, min_length_miles, max_length_miles, track_type,
		                   series_focus, direction, waypoints, is_closed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, loop.City, loop.MinLengthMiles, loop.MaxLengthMiles, string(loop.TrackType),
		string(loop.SeriesFocus), string(loop.Direction), waypoints, loop.IsClosed,
	).Scan(&loop.ID, &loop.CreatedAt)
}

// GetByID returns a stored loop by UUID.
func (r *LoopRepo) GetByID(ctx context.Context, id string) (*domain.LoopSpec, error) {
	var loop domain.LoopSpec
	var waypoints []byte
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, city, min_length_miles, max_length_miles, track_type,
		       series_focus, direction, waypoints, is_closed, created_at
		FROM loops WHERE id = $1
	`, id).Scan(
		&loop.ID, &loop.City, &loop.MinLengthMiles, &loop.MaxLengthMiles,
		&loop.TrackType, &loop.SeriesFocus, &loop.Direction, &waypoints,
		&loop.IsClosed, &loop.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(waypoints, &loop.Waypoints); err != nil {
		return nil, fmt.Errorf("unmarshal waypoints: %w", err)
	}
	return &loop, nil
}

// List returns stored loops, optionally filtered by city.
func (r *LoopRepo) List(ctx context.Context, city string, limit int) ([]domain.LoopSpec, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, city, min_length_miles, max_length_miles, track_type,
		       series_focus, direction, waypoints, is_closed, created_at
		FROM loops
		WHERE ($1 = '' OR city = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`, city, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loops []domain.LoopSpec
	for rows.Next() {
		var loop domain.LoopSpec
		var waypoints []byte
		if err := rows.Scan(
			&loop.ID, &loop.City, &loop.MinLengthMiles, &loop.MaxLengthMiles,
			&loop.TrackType, &loop.SeriesFocus, &loop.Direction, &waypoints,
			&loop.IsClosed, &loop.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(waypoints, &loop.Waypoints); err != nil {
			return nil, fmt.Errorf("unmarshal waypoints: %w", err)
		}
		loops = append(loops, loop)
	}
	return loops, rows.Err()
}
