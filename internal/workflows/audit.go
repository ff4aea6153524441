package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/aldapa/trackside/internal/core/domain"
)

// RouteAuditInput is the input for the route audit workflow.
type RouteAuditInput struct {
	Route    domain.Route
	RadiusKm float64
}

// RouteAuditResult summarises an audit run.
type RouteAuditResult struct {
	HazardCount int
	MostSevere  *domain.HazardPoint
	Published   bool
}

// RouteAuditWorkflow fans out one hazard collection activity per route
// waypoint, unions the results into a deduplicated alert, and publishes it.
// Each activity retries independently, so a flaky broker or database does not
// restart the whole audit.
func RouteAuditWorkflow(ctx workflow.Context, input RouteAuditInput) (RouteAuditResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting route audit", "waypoints", len(input.Route.Waypoints), "radiusKm", input.RadiusKm)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Fan out: collect hazards around each waypoint concurrently.
	futures := make([]workflow.Future, 0, len(input.Route.Waypoints))
	for _, wp := range input.Route.Waypoints {
		futures = append(futures, workflow.ExecuteActivity(ctx, "CollectHazardsNear", wp, input.RadiusKm))
	}

	var collected []domain.HazardPoint
	for _, f := range futures {
		var points []domain.HazardPoint
		if err := f.Get(ctx, &points); err != nil {
			return RouteAuditResult{}, err
		}
		collected = append(collected, points...)
	}

	// Fan in: dedup and rank in one activity so the pure core owns the rules.
	var alert domain.RouteAlert
	if err := workflow.ExecuteActivity(ctx, "SummariseAlert", input.Route, collected, input.RadiusKm).Get(ctx, &alert); err != nil {
		return RouteAuditResult{}, err
	}

	result := RouteAuditResult{
		HazardCount: len(alert.Hazards),
		MostSevere:  alert.MostSevere,
	}

	if len(alert.Hazards) == 0 {
		logger.Info("Route audit clean, nothing to publish")
		return result, nil
	}

	if err := workflow.ExecuteActivity(ctx, "PublishAlert", alert).Get(ctx, nil); err != nil {
		logger.Warn("alert publish failed", "error", err)
		return result, err
	}
	result.Published = true

	logger.Info("Route audit complete", "hazards", result.HazardCount)
	return result, nil
}
