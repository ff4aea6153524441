package postgres

import (
	"context"

	"github.com/aldapa/trackside/internal/core/domain"
)

// ZoneRepo implements ports.ZoneRepository with pgx.
type ZoneRepo struct {
	db *DB
}

// NewZoneRepo creates a new ZoneRepo.
func NewZoneRepo(db *DB) *ZoneRepo {
	return &ZoneRepo{db: db}
}

// Upsert inserts or updates a zone, keyed by its category and centre.
func (r *ZoneRepo) Upsert(ctx context.Context, z *domain.HazardZone) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO zones (category, centre, radius_km)
		VALUES ($1, ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography, $4)
		ON CONFLICT (category, centre) DO UPDATE
		SET radius_km = EXCLUDED.radius_km
	`, string(z.Category), z.Centre.Lng, z.Centre.Lat, z.RadiusKm)
	return err
}

// List returns all stored zones in insertion order.
func (r *ZoneRepo) List(ctx context.Context) ([]domain.HazardZone, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT category,
		       ST_Y(centre::geometry) as lat,
		       ST_X(centre::geometry) as lng,
		       radius_km
		FROM zones
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []domain.HazardZone
	for rows.Next() {
		var z domain.HazardZone
		if err := rows.Scan(&z.Category, &z.Centre.Lat, &z.Centre.Lng, &z.RadiusKm); err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}
