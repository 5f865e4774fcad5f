// Package infra contains technical adapters: the zerolog logger, the
// Prometheus, InfluxDB and MQTT metrics sinks, the MQTT publisher and the
// Sentry monitor. These packages depend only on interfaces defined in the
// core packages.
package infra
