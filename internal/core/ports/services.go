package ports

import (
	"context"

	"github.com/aldapa/trackside/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishHazard(ctx context.Context, h *domain.HazardPoint) error
	PublishRouteAlert(ctx context.Context, alert *domain.RouteAlert) error
	PublishBroadcast(ctx context.Context, data []byte) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeHazards(ctx context.Context, handler func(ctx context.Context, h *domain.HazardPoint) error) error
	SubscribeRouteAlerts(ctx context.Context, handler func(ctx context.Context, alert *domain.RouteAlert) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
