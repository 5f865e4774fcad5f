// Package metrics defines the observability contract of the serving layer.
// Sinks record RecommendationEvent values (and, optionally, rejected
// requests) produced after a recommendation has been returned to the caller.
// Sinks are built from configuration through NewMetricsSink, which returns a
// MultiSink automatically when several are configured. The computation
// packages never call a sink directly.
package metrics
