package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Data freshness
	MetricHazardFreshness = "hazard.data_age_seconds"
	MetricScanLatency     = "hazard.route_scan_latency"

	// Availability
	MetricUptime = "service.uptime_percentage"

	// Business
	MetricRouteAlerts = "business.route_alerts_published"
	MetricLoopsBuilt  = "business.loops_built"
)
