package telemetry

// Span names used for instrumentation.
const (
	SpanRoutingRequest = "osrm.route"
	SpanRouteScoring   = "route.score"
	SpanSOSTrigger     = "sos.trigger"
)
