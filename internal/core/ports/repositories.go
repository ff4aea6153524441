package ports

import (
	"context"

	"github.com/aldapa/trackside/internal/core/domain"
)

// HazardRepository persists point hazards from upstream feeds.
type HazardRepository interface {
	Upsert(ctx context.Context, h *domain.HazardPoint) error
	UpsertBatch(ctx context.Context, hazards []domain.HazardPoint) error
	GetByID(ctx context.Context, id string) (*domain.HazardPoint, error)
	FindNearby(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.HazardPoint, error)
	ListByCategory(ctx context.Context, category domain.Category, limit int) ([]domain.HazardPoint, error)
}

// ZoneRepository persists circular hazard zones.
type ZoneRepository interface {
	Upsert(ctx context.Context, z *domain.HazardZone) error
	List(ctx context.Context) ([]domain.HazardZone, error)
}

// LoopRepository persists validated loop specs.
type LoopRepository interface {
	Create(ctx context.Context, loop *domain.LoopSpec) error
	GetByID(ctx context.Context, id string) (*domain.LoopSpec, error)
	List(ctx context.Context, city string, limit int) ([]domain.LoopSpec, error)
}
