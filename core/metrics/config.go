package metrics

import "github.com/kilianp07/chargecap/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddress, when set, exposes /metrics on a dedicated listener.
	PrometheusAddress string `json:"prometheus_address"`
}
