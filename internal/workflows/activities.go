package workflows

import (
	"context"
	"fmt"
	"time"

	"github.com/aldapa/trackside/internal/core/domain"
	"github.com/aldapa/trackside/internal/core/ports"
	"github.com/aldapa/trackside/internal/core/usecases"
)

// AuditActivities holds the activity implementations for the route audit
// workflow.
type AuditActivities struct {
	HazardService *usecases.HazardService
	Hazards       ports.HazardRepository
	Events        ports.EventPublisher
}

// CollectHazardsNear returns the stored hazards within radiusKm of a waypoint.
func (a *AuditActivities) CollectHazardsNear(ctx context.Context, wp domain.Coordinate, radiusKm float64) ([]domain.HazardPoint, error) {
	points, err := a.Hazards.FindNearby(ctx, wp.Lat, wp.Lng, radiusKm*1000, 100)
	if err != nil {
		return nil, fmt.Errorf("find hazards near (%v, %v): %w", wp.Lat, wp.Lng, err)
	}
	return points, nil
}

// SummariseAlert deduplicates the collected hazards along the route and ranks
// the most severe one.
func (a *AuditActivities) SummariseAlert(ctx context.Context, route domain.Route, collected []domain.HazardPoint, radiusKm float64) (domain.RouteAlert, error) {
	alert := domain.RouteAlert{
		Route:     route,
		Hazards:   a.HazardService.DedupAlongRoute(collected, route, radiusKm),
		ScannedAt: time.Now().UTC(),
	}
	alert.MostSevere = a.HazardService.MostSevere(alert.Hazards)
	return alert, nil
}

// PublishAlert emits the alert on the event bus.
func (a *AuditActivities) PublishAlert(ctx context.Context, alert domain.RouteAlert) error {
	if a.Events == nil {
		return nil
	}
	if err := a.Events.PublishRouteAlert(ctx, &alert); err != nil {
		return fmt.Errorf("publish route alert: %w", err)
	}
	return nil
}
