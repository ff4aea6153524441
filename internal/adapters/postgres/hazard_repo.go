package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aldapa/trackside/internal/core/domain"
)

// HazardRepo implements ports.HazardRepository with pgx.
type HazardRepo struct {
	db *DB
}

// NewHazardRepo creates a new HazardRepo.
func NewHazardRepo(db *DB) *HazardRepo {
	return &HazardRepo{db: db}
}

// Upsert inserts or updates a single hazard point.
func (r *HazardRepo) Upsert(ctx context.Context, h *domain.HazardPoint) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO hazards (id, category, position, description)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography, $5)
		ON CONFLICT (id) DO UPDATE
		SET category = EXCLUDED.category, position = EXCLUDED.position,
		    description = EXCLUDED.description
	`, h.ID, string(h.Category), h.Position.Lng, h.Position.Lat, h.Description)
	return err
}

// UpsertBatch inserts many hazard points using pgx.Batch.
func (r *HazardRepo) UpsertBatch(ctx context.Context, hazards []domain.HazardPoint) error {
	batch := &pgx.Batch{}
	for _, h := range hazards {
		batch.Queue(`
			INSERT INTO hazards (id, category, position, description)
			VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography, $5)
			ON CONFLICT (id) DO UPDATE
			SET category = EXCLUDED.category, position = EXCLUDED.position
		`, h.ID, string(h.Category), h.Position.Lng, h.Position.Lat, h.Description)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range hazards {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// GetByID returns a hazard point by its feed ID.
func (r *HazardRepo) GetByID(ctx context.Context, id string) (*domain.HazardPoint, error) {
	var h domain.HazardPoint
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, category,
		       ST_Y(position::geometry) as lat,
		       ST_X(position::geometry) as lng,
		       COALESCE(description, '')
		FROM hazards WHERE id = $1
	`, id).Scan(&h.ID, &h.Category, &h.Position.Lat, &h.Position.Lng, &h.Description)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// FindNearby returns hazard points within radiusMeters using PostGIS ST_DWithin.
func (r *HazardRepo) FindNearby(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.HazardPoint, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, category,
		       ST_Y(position::geometry) as lat,
		       ST_X(position::geometry) as lng,
		       COALESCE(description, ''),
		       ST_Distance(position, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) as distance
		FROM hazards
		WHERE ST_DWithin(position, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY distance
		LIMIT $4
	`, lng, lat, radiusMeters, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hazards []domain.HazardPoint
	for rows.Next() {
		var h domain.HazardPoint
		var dist float64
		if err := rows.Scan(&h.ID, &h.Category, &h.Position.Lat, &h.Position.Lng, &h.Description, &dist); err != nil {
			return nil, err
		}
		hazards = append(hazards, h)
	}
	return hazards, rows.Err()
}

// ListByCategory returns the most recent hazard points in a category.
func (r *HazardRepo) ListByCategory(ctx context.Context, category domain.Category, limit int) ([]domain.HazardPoint, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, category,
		       ST_Y(position::geometry) as lat,
		       ST_X(position::geometry) as lng,
		       COALESCE(description, '')
		FROM hazards
		WHERE category = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, string(category), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hazards []domain.HazardPoint
	for rows.Next() {
		var h domain.HazardPoint
		if err := rows.Scan(&h.ID, &h.Category, &h.Position.Lat, &h.Position.Lng, &h.Description); err != nil {
			return nil, err
		}
		hazards = append(hazards, h)
	}
	return hazards, rows.Err()
}
